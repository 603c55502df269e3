package engine

import (
	"math/rand"

	"github.com/pthm-cable/aura/config"
)

// sampleParticles seeds a new store from a decoded RGBA pixel buffer.
//
// Visible pixels (alpha above the configured threshold) are collected in scan
// order and sampled by fixed stride, so the same image with the same rng seed
// always yields the same particle set. If fewer visible pixels exist than
// particles requested, pixels are reused by wrapping. Origins are centered on
// the image midpoint with Y flipped to match engine space (+Y up), plus a
// small one-time jitter that becomes part of the immutable origin.
func sampleParticles(pix []byte, w, h, n int, cfg *config.Config, rng *rand.Rand) (*Store, error) {
	if n <= 0 {
		return nil, ErrBadParticleCount
	}
	if w <= 0 || h <= 0 || len(pix) != w*h*4 {
		return nil, ErrBadBuffer
	}

	alphaMin := cfg.Derived.AlphaMin
	visible := make([]int, 0, w*h)
	for i := 0; i < w*h; i++ {
		if pix[i*4+3] > alphaMin {
			visible = append(visible, i)
		}
	}
	if len(visible) == 0 {
		return nil, ErrNoVisiblePixels
	}

	// Ceiling stride so sampling spans the whole visible set even when the
	// count does not divide it; the wrap below reuses pixels as needed
	stride := (len(visible) + n - 1) / n
	if stride < 1 {
		stride = 1
	}

	jitter := float32(cfg.Sampler.OriginJitter)
	sizeMin := float32(cfg.Sampler.SizeMin)
	sizeMax := float32(cfg.Sampler.SizeMax)
	halfW := float32(w) * 0.5
	halfH := float32(h) * 0.5

	s := NewStore(n)
	for i := 0; i < n; i++ {
		idx := visible[(i*stride)%len(visible)]
		px := idx % w
		py := idx / w

		r := float32(pix[idx*4]) / 255
		g := float32(pix[idx*4+1]) / 255
		b := float32(pix[idx*4+2]) / 255
		a := float32(pix[idx*4+3]) / 255

		// Center on the image midpoint and flip Y to engine space
		origin := Vec3{
			X: float32(px) + 0.5 - halfW + (rng.Float32()*2-1)*jitter,
			Y: halfH - (float32(py) + 0.5) + (rng.Float32()*2-1)*jitter,
			Z: (rng.Float32()*2 - 1) * jitter,
		}

		lum := 0.299*r + 0.587*g + 0.114*b

		s.Origin[i] = origin
		s.Pos[i] = origin
		s.Col[i] = Color{R: r, G: g, B: b}
		s.UV[i] = Vec2{
			U: (float32(px) + 0.5) / float32(w),
			V: (float32(py) + 0.5) / float32(h),
		}
		s.BaseSize[i] = sizeMin + lum*(sizeMax-sizeMin)
		s.Size[i] = s.BaseSize[i]
		s.Opacity[i] = clampFloat(a, 0, cfg.Derived.MaxOpacity32)
		s.Threshold[i] = rng.Float32()
	}

	return s, nil
}
