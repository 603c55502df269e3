package engine

import (
	"math"
	"testing"

	"github.com/pthm-cable/aura/config"
)

// newTestEngine builds an initialized engine with n particles from a fully
// opaque square image, using a pinned seed.
func newTestEngine(t *testing.T, n int, mutate func(*config.Config)) *Engine {
	t.Helper()

	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}

	e := New(Options{Cfg: cfg, Seed: 12345, ParticleCount: n})
	pix := makeImage(32, 32, 180, 140, 90, 255)
	if err := e.InitializeFromImage(pix, 32, 32); err != nil {
		t.Fatalf("InitializeFromImage: %v", err)
	}
	return e
}

func TestTriggersBeforeInitAreNoOps(t *testing.T) {
	e := New(Options{Cfg: config.Default(), Seed: 1})

	// None of these may panic or change observable state
	e.TriggerDissolve()
	e.TriggerVortex()
	e.SetAmplitude(0.5)
	e.Tick()

	if e.State() != StateIdle {
		t.Errorf("state = %v, want idle", e.State())
	}
	if e.ParticleCount() != 0 {
		t.Errorf("particle count = %d, want 0", e.ParticleCount())
	}
}

func TestInitializeErrors(t *testing.T) {
	e := New(Options{Cfg: config.Default(), Seed: 1})

	if err := e.InitializeFromImage(make([]byte, 7), 10, 10); err != ErrBadBuffer {
		t.Errorf("bad buffer err = %v, want ErrBadBuffer", err)
	}
	if err := e.InitializeFromImage(makeImage(10, 10, 0, 0, 0, 0), 10, 10); err != ErrNoVisiblePixels {
		t.Errorf("transparent image err = %v, want ErrNoVisiblePixels", err)
	}

	// A degenerate configured particle count must surface as an error, not
	// a panic somewhere inside sampling
	zc := config.Default()
	zc.Sampler.ParticleCount = 0
	ez := New(Options{Cfg: zc, Seed: 1})
	if err := ez.InitializeFromImage(makeImage(10, 10, 255, 255, 255, 255), 10, 10); err != ErrBadParticleCount {
		t.Errorf("zero particle count err = %v, want ErrBadParticleCount", err)
	}

	// Failed init leaves the engine uninitialized; triggers stay no-ops
	e.TriggerDissolve()
	e.Tick()
	if e.State() != StateIdle {
		t.Errorf("state after failed init = %v, want idle", e.State())
	}
}

func TestDisposeIdempotent(t *testing.T) {
	e := newTestEngine(t, 100, nil)

	e.Dispose()
	e.Dispose() // second call must be safe

	if !e.Disposed() {
		t.Fatal("Disposed() = false after Dispose")
	}

	// Everything is a no-op after disposal
	e.TriggerReform()
	e.Tick()
	if e.ParticleCount() != 0 {
		t.Errorf("particle count = %d after dispose, want 0", e.ParticleCount())
	}
	if err := e.InitializeFromImage(makeImage(8, 8, 1, 1, 1, 255), 8, 8); err != ErrDisposed {
		t.Errorf("init after dispose err = %v, want ErrDisposed", err)
	}
}

func TestTransitionAppliesAtTickBoundary(t *testing.T) {
	e := newTestEngine(t, 50, nil)

	e.TriggerVortex()
	if e.State() != StateIdle {
		t.Errorf("state changed before tick boundary: %v", e.State())
	}
	e.Tick()
	if e.State() != StateVortex {
		t.Errorf("state = %v after tick, want vortex", e.State())
	}
}

func TestLastTriggerBeforeTickWins(t *testing.T) {
	e := newTestEngine(t, 50, nil)

	e.TriggerDissolve()
	e.TriggerWaveform()
	e.Tick()
	if e.State() != StateWaveform {
		t.Errorf("state = %v, want waveform (last trigger wins)", e.State())
	}
}

func TestRetriggerDissolveResetsProgress(t *testing.T) {
	e := newTestEngine(t, 50, nil)

	e.TriggerDissolve()
	steps := int(e.cfg.Dissolve.Duration/e.cfg.Physics.DT) + 2
	for i := 0; i < steps; i++ {
		e.Tick()
	}
	if !e.IsDissolveComplete() {
		t.Fatal("dissolve did not complete after full duration")
	}

	e.TriggerDissolve()
	e.Tick()
	if e.IsDissolveComplete() {
		t.Error("re-trigger did not reset dissolve progress")
	}
}

func TestAmplitudeClamped(t *testing.T) {
	e := newTestEngine(t, 10, nil)

	tests := []struct {
		in   float64
		want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.7, 0.7},
		{1, 1},
		{42, 1},
	}
	for _, tt := range tests {
		e.SetAmplitude(tt.in)
		if got := e.Amplitude(); math.Abs(got-tt.want) > 1e-6 {
			t.Errorf("SetAmplitude(%v): amplitude = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestProgressClamped(t *testing.T) {
	e := newTestEngine(t, 10, nil)

	e.TriggerDissolve()
	e.Tick()

	// Run far past the dissolve duration; progress must saturate at 1
	for i := 0; i < 300; i++ {
		e.Tick()
		p := e.Progress()
		if p < 0 || p > 1 {
			t.Fatalf("progress = %v at tick %d, want [0,1]", p, i)
		}
	}
	if e.Progress() != 1 {
		t.Errorf("progress = %v long after duration, want 1", e.Progress())
	}

	// Simulated clock drift: a state start in the future yields raw
	// negative progress, observed progress clamps to 0
	e.TriggerReform()
	e.Tick()
	e.stateStart = e.clock + 100
	if p := e.Progress(); p != 0 {
		t.Errorf("progress = %v with future state start, want 0", p)
	}
}

func TestNaNPositionSelfHeals(t *testing.T) {
	e := newTestEngine(t, 20, nil)

	nan := float32(math.NaN())
	e.store.Pos[3] = Vec3{X: nan, Y: 5, Z: 0}
	e.store.Pos[7] = Vec3{X: 1, Y: float32(math.Inf(1)), Z: 0}
	e.store.Vel[3] = Vec3{X: 99, Y: 99, Z: 99}

	e.Tick()

	for _, i := range []int{3, 7} {
		p := e.store.Pos[i]
		if !isFinite(p.X) || !isFinite(p.Y) || !isFinite(p.Z) {
			t.Errorf("particle %d position %+v still non-finite after tick", i, p)
		}
	}
	if e.store.Vel[3] != (Vec3{}) {
		t.Errorf("healed particle velocity = %+v, want zero", e.store.Vel[3])
	}
	if e.WarnCount() == 0 {
		t.Error("WarnCount = 0, want > 0 after healing")
	}
}

func TestReinitializeReplacesStore(t *testing.T) {
	e := newTestEngine(t, 80, nil)

	e.TriggerVortex()
	e.Tick()

	if err := e.InitializeFromImage(makeImage(16, 16, 10, 10, 10, 255), 16, 16); err != nil {
		t.Fatalf("re-init: %v", err)
	}
	if e.State() != StateIdle {
		t.Errorf("state after re-init = %v, want idle", e.State())
	}
	if e.ParticleCount() != 80 {
		t.Errorf("particle count = %d, want 80", e.ParticleCount())
	}
	for i := 0; i < e.store.N; i++ {
		if e.store.Pos[i] != e.store.Origin[i] {
			t.Fatalf("particle %d not reset to origin after re-init", i)
		}
	}
}
