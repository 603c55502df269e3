// Package noise provides seedable coherent gradient noise for organic motion.
package noise

import (
	"math"
	"math/rand"
)

// Field generates coherent noise values. The permutation table is fixed
// after construction, so a Field is safe for concurrent reads.
type Field struct {
	perm [512]int
}

// New creates a noise field seeded from the given value. Two fields built
// with the same seed produce identical outputs for identical inputs.
func New(seed int64) *Field {
	f := &Field{}
	rng := rand.New(rand.NewSource(seed))

	// Initialize permutation table
	var perm [256]int
	for i := range perm {
		perm[i] = i
	}

	// Shuffle
	for i := len(perm) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}

	// Duplicate
	for i := 0; i < 256; i++ {
		f.perm[i] = perm[i]
		f.perm[i+256] = perm[i]
	}

	return f
}

// Noise3D returns a noise value in [-1, 1] for 3D coordinates.
func (f *Field) Noise3D(x, y, z float64) float64 {
	// Find unit cube
	X := int(math.Floor(x)) & 255
	Y := int(math.Floor(y)) & 255
	Z := int(math.Floor(z)) & 255

	// Find relative position in cube
	x -= math.Floor(x)
	y -= math.Floor(y)
	z -= math.Floor(z)

	// Compute fade curves
	u := fade(x)
	v := fade(y)
	w := fade(z)

	// Hash coordinates of cube corners
	A := f.perm[X] + Y
	AA := f.perm[A] + Z
	AB := f.perm[A+1] + Z
	B := f.perm[X+1] + Y
	BA := f.perm[B] + Z
	BB := f.perm[B+1] + Z

	// Blend results from 8 corners
	return lerp(w, lerp(v, lerp(u, grad3D(f.perm[AA], x, y, z),
		grad3D(f.perm[BA], x-1, y, z)),
		lerp(u, grad3D(f.perm[AB], x, y-1, z),
			grad3D(f.perm[BB], x-1, y-1, z))),
		lerp(v, lerp(u, grad3D(f.perm[AA+1], x, y, z-1),
			grad3D(f.perm[BA+1], x-1, y, z-1)),
			lerp(u, grad3D(f.perm[AB+1], x, y-1, z-1),
				grad3D(f.perm[BB+1], x-1, y-1, z-1))))
}

// Noise2D returns a noise value in [-1, 1] for 2D coordinates.
func (f *Field) Noise2D(x, y float64) float64 {
	return f.Noise3D(x, y, 0)
}

// Curl2D returns a divergence-free 2D vector derived from the scalar field
// at (x, y, t). Particles advected by it swirl instead of clumping.
func (f *Field) Curl2D(x, y, t float64) (cx, cy float64) {
	const eps = 0.0001

	// Finite-difference partial derivatives of the scalar field
	dx := (f.Noise3D(x+eps, y, t) - f.Noise3D(x-eps, y, t)) / (2 * eps)
	dy := (f.Noise3D(x, y+eps, t) - f.Noise3D(x, y-eps, t)) / (2 * eps)

	// Rotate the gradient 90 degrees
	return dy, -dx
}

func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}

func grad3D(hash int, x, y, z float64) float64 {
	h := hash & 15
	u := x
	if h >= 8 {
		u = y
	}
	v := y
	if h >= 4 {
		if h == 12 || h == 14 {
			v = x
		} else {
			v = z
		}
	}
	if h&1 != 0 {
		u = -u
	}
	if h&2 != 0 {
		v = -v
	}
	return u + v
}
