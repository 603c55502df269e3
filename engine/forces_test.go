package engine

import (
	"math/rand"
	"testing"

	"github.com/pthm-cable/aura/config"
)

func dist3(a, b Vec3) float32 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return fastSqrt(dx*dx + dy*dy + dz*dz)
}

// TestColorUVInvariance runs the engine through a random transition
// sequence and verifies color and uv never change, exactly.
func TestColorUVInvariance(t *testing.T) {
	e := newTestEngine(t, 200, nil)
	rng := rand.New(rand.NewSource(7))

	colors := make([]Color, e.store.N)
	uvs := make([]Vec2, e.store.N)
	origins := make([]Vec3, e.store.N)
	copy(colors, e.store.Col)
	copy(uvs, e.store.UV)
	copy(origins, e.store.Origin)

	states := []State{StateIdle, StateDissolve, StateVortex, StateWaveform, StateReform}
	for round := 0; round < 20; round++ {
		e.SetState(states[rng.Intn(len(states))])
		e.SetAmplitude(rng.Float64())
		for i := 0; i < 30; i++ {
			e.Tick()
		}
	}

	for i := 0; i < e.store.N; i++ {
		if e.store.Col[i] != colors[i] {
			t.Fatalf("particle %d color mutated: %+v -> %+v", i, colors[i], e.store.Col[i])
		}
		if e.store.UV[i] != uvs[i] {
			t.Fatalf("particle %d uv mutated: %+v -> %+v", i, uvs[i], e.store.UV[i])
		}
		if e.store.Origin[i] != origins[i] {
			t.Fatalf("particle %d origin mutated: %+v -> %+v", i, origins[i], e.store.Origin[i])
		}
	}
}

// TestParticleCountConserved verifies no state transition sequence ever
// creates or destroys particles.
func TestParticleCountConserved(t *testing.T) {
	e := newTestEngine(t, 150, nil)

	states := []State{StateDissolve, StateReform, StateVortex, StateIdle, StateWaveform, StateReform}
	for _, s := range states {
		e.SetState(s)
		for i := 0; i < 90; i++ {
			e.Tick()
		}
		if e.ParticleCount() != 150 {
			t.Fatalf("particle count = %d in %v, want 150", e.ParticleCount(), s)
		}
	}
}

// TestDissolveMonotonic verifies distance from origin is non-decreasing for
// launched particles under the idealized dissolve law (turbulence off).
func TestDissolveMonotonic(t *testing.T) {
	e := newTestEngine(t, 100, func(cfg *config.Config) {
		cfg.Dissolve.Turbulence = 0
	})

	e.TriggerDissolve()
	e.Tick()

	steps := int(e.cfg.Dissolve.Duration/e.cfg.Physics.DT) + 5
	prev := make([]float32, e.store.N)
	for i := 0; i < e.store.N; i++ {
		prev[i] = dist3(e.store.Pos[i], e.store.Origin[i])
	}

	for step := 0; step < steps; step++ {
		e.Tick()
		for i := 0; i < e.store.N; i++ {
			d := dist3(e.store.Pos[i], e.store.Origin[i])
			if d < prev[i]-0.001 {
				t.Fatalf("particle %d moved toward origin during dissolve at step %d: %v -> %v", i, step, prev[i], d)
			}
			prev[i] = d
		}
	}

	// By the end of the dissolve every particle must have launched and
	// actually dispersed
	for i := 0; i < e.store.N; i++ {
		if !e.store.Launched[i] {
			t.Errorf("particle %d never launched", i)
		}
		if prev[i] < 1 {
			t.Errorf("particle %d barely moved: dist %v", i, prev[i])
		}
	}
}

// TestReformConvergence verifies every particle lands within one unit of
// its origin after the full reform duration, from arbitrary positions.
func TestReformConvergence(t *testing.T) {
	e := newTestEngine(t, 100, nil)
	rng := rand.New(rand.NewSource(11))

	// Scatter particles far away with leftover velocities
	for i := 0; i < e.store.N; i++ {
		e.store.Pos[i] = Vec3{
			X: (rng.Float32()*2 - 1) * 800,
			Y: (rng.Float32()*2 - 1) * 800,
			Z: (rng.Float32()*2 - 1) * 200,
		}
		e.store.Vel[i] = Vec3{
			X: (rng.Float32()*2 - 1) * 100,
			Y: (rng.Float32()*2 - 1) * 100,
		}
	}

	e.TriggerReform()
	// Convergence must hold on the very tick the predicate first fires;
	// callers chain on it and read the same frame
	limit := int(e.cfg.Reform.Duration/e.cfg.Physics.DT) + 10
	ticks := 0
	for !e.IsReformComplete() {
		if ticks++; ticks > limit {
			t.Fatal("reform not complete after full duration")
		}
		e.Tick()
	}
	for i := 0; i < e.store.N; i++ {
		if d := dist3(e.store.Pos[i], e.store.Origin[i]); d >= 1 {
			t.Errorf("particle %d at distance %v from origin at reform completion, want < 1", i, d)
		}
	}
}

// TestDissolveInterruptedByReform covers the rapid state-switch scenario:
// reform triggered mid-dissolve must still converge everything.
func TestDissolveInterruptedByReform(t *testing.T) {
	e := newTestEngine(t, 100, nil)

	e.TriggerDissolve()
	// Interrupt well before the dissolve completes
	for i := 0; i < 15; i++ {
		e.Tick()
	}
	if e.IsDissolveComplete() {
		t.Fatal("dissolve completed too early for this scenario")
	}

	e.TriggerReform()
	limit := int(e.cfg.Reform.Duration/e.cfg.Physics.DT) + 10
	ticks := 0
	for !e.IsReformComplete() {
		if ticks++; ticks > limit {
			t.Fatal("reform not complete after full duration")
		}
		e.Tick()
	}

	for i := 0; i < e.store.N; i++ {
		if d := dist3(e.store.Pos[i], e.store.Origin[i]); d >= 1 {
			t.Errorf("particle %d at distance %v after interrupted dissolve + reform", i, d)
		}
	}
}

// TestWaveformBounded drives waveform at full amplitude for two simulated
// seconds and checks opacity and size never leave their ceilings.
func TestWaveformBounded(t *testing.T) {
	e := newTestEngine(t, 100, nil)

	e.TriggerWaveform()
	e.SetAmplitude(1.0)

	maxOpacity := e.cfg.Derived.MaxOpacity32
	maxSize := e.cfg.Derived.MaxSize32
	steps := int(2.0 / e.cfg.Physics.DT)
	for step := 0; step < steps; step++ {
		e.Tick()
		for i := 0; i < e.store.N; i++ {
			if o := e.store.Opacity[i]; o < 0 || o > maxOpacity {
				t.Fatalf("particle %d opacity %v out of [0, %v] at step %d", i, o, maxOpacity, step)
			}
			if s := e.store.Size[i]; s < 0 || s > maxSize {
				t.Fatalf("particle %d size %v out of [0, %v] at step %d", i, s, maxSize, step)
			}
		}
	}
}

// TestOscillatorsBoundedAtLargeT verifies periodic opacity terms stay in
// range even when the simulation clock is very large.
func TestOscillatorsBoundedAtLargeT(t *testing.T) {
	for _, state := range []State{StateIdle, StateVortex} {
		e := newTestEngine(t, 60, nil)
		e.clock = 1e7 // ~115 simulated days
		e.SetState(state)

		maxOpacity := e.cfg.Derived.MaxOpacity32
		for step := 0; step < 120; step++ {
			e.Tick()
			for i := 0; i < e.store.N; i++ {
				if o := e.store.Opacity[i]; o < 0 || o > maxOpacity {
					t.Fatalf("%v: particle %d opacity %v out of [0, %v]", state, i, o, maxOpacity)
				}
			}
		}
	}
}

// TestIdleDriftBounded verifies idle particles stay near their origins.
func TestIdleDriftBounded(t *testing.T) {
	e := newTestEngine(t, 100, nil)

	for i := 0; i < 600; i++ {
		e.Tick()
	}

	// Allowed: noise drift + breathing expansion of the largest origin
	// radius, with slack for the approach lag
	limit := float32(e.cfg.Idle.DriftAmplitude) + 4
	for i := 0; i < e.store.N; i++ {
		o := e.store.Origin[i]
		maxR := fastSqrt(o.X*o.X+o.Y*o.Y) * float32(e.cfg.Idle.BreatheAmp)
		if d := dist3(e.store.Pos[i], o); d > limit+maxR {
			t.Errorf("particle %d drifted %v from origin in idle, limit %v", i, d, limit+maxR)
		}
	}
}

// TestVortexHoldsShells verifies particles in vortex settle near their
// assigned orbital radii instead of collapsing or escaping.
func TestVortexHoldsShells(t *testing.T) {
	e := newTestEngine(t, 100, func(cfg *config.Config) {
		cfg.Vortex.Turbulence = 0 // idealized orbits for this test
	})

	e.TriggerVortex()
	for i := 0; i < 900; i++ { // 15 simulated seconds to settle
		e.Tick()
	}

	cfg := &e.cfg.Vortex
	minR := float32(cfg.BaseRadius) * 0.4
	maxR := float32(cfg.BaseRadius+cfg.RadiusSpread*float64(cfg.ShellCount)) * 2.5
	for i := 0; i < e.store.N; i++ {
		p := e.store.Pos[i]
		r := fastSqrt(p.X*p.X + p.Y*p.Y)
		if r < minR || r > maxR {
			t.Errorf("particle %d at radius %v, want within [%v, %v]", i, r, minR, maxR)
		}
	}
}
