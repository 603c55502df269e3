package engine

// Vec3 is a position or velocity in engine space.
type Vec3 struct {
	X, Y, Z float32
}

// Vec2 is a texture-sampling coordinate.
type Vec2 struct {
	U, V float32
}

// Color is an RGB triple with channels in [0, 1].
type Color struct {
	R, G, B float32
}

// Store holds per-particle state as parallel arrays. Capacity is fixed at
// creation; slot i refers to the same particle for the store's lifetime.
// Origin, Col, UV, BaseSize, and Threshold are written once at creation and
// never touched by the per-tick update.
type Store struct {
	N int

	Pos    []Vec3
	Vel    []Vec3
	Origin []Vec3

	Col []Color
	UV  []Vec2

	Size    []float32
	Opacity []float32

	// BaseSize is the luminance-derived rest size; Size is the rendered size.
	BaseSize []float32

	// Threshold staggers dissolve launch order and offsets oscillator phase,
	// fixed per particle at creation.
	Threshold []float32

	// Launched marks particles that have received their dissolve impulse.
	// Reset on every dissolve entry.
	Launched []bool
}

// NewStore allocates a store for n particles. All per-tick buffers are
// allocated here once; nothing in the tick path allocates.
func NewStore(n int) *Store {
	return &Store{
		N:         n,
		Pos:       make([]Vec3, n),
		Vel:       make([]Vec3, n),
		Origin:    make([]Vec3, n),
		Col:       make([]Color, n),
		UV:        make([]Vec2, n),
		Size:      make([]float32, n),
		Opacity:   make([]float32, n),
		BaseSize:  make([]float32, n),
		Threshold: make([]float32, n),
		Launched:  make([]bool, n),
	}
}

// Snapshot is a read-only view of the render-relevant arrays for one frame.
// The slices alias the store; they are valid until the next Tick and must
// not be mutated by the consumer.
type Snapshot struct {
	Positions []Vec3
	Colors    []Color
	UVs       []Vec2
	Sizes     []float32
	Opacities []float32
}

func (s *Store) snapshot() Snapshot {
	return Snapshot{
		Positions: s.Pos,
		Colors:    s.Col,
		UVs:       s.UV,
		Sizes:     s.Size,
		Opacities: s.Opacity,
	}
}
