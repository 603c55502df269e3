// Package engine implements the particle avatar core: a fixed-capacity
// particle store, a five-state animation state machine, and a per-tick
// physics integrator. The engine is headless; rendering consumes the frame
// snapshot and lives elsewhere.
package engine

import (
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/aura/config"
	"github.com/pthm-cable/aura/noise"
)

var (
	// ErrBadBuffer is returned when the pixel buffer cannot be interpreted
	// as RGBA of the stated dimensions.
	ErrBadBuffer = errors.New("engine: pixel buffer does not match width*height*4")

	// ErrNoVisiblePixels is returned when no pixel passes the alpha threshold.
	ErrNoVisiblePixels = errors.New("engine: image has no visible pixels")

	// ErrBadParticleCount is returned when the configured particle count is
	// not positive.
	ErrBadParticleCount = errors.New("engine: particle count must be positive")

	// ErrDisposed is returned when initializing a disposed engine.
	ErrDisposed = errors.New("engine: disposed")
)

// Options configures a new engine.
type Options struct {
	Cfg *config.Config

	// Seed for the rng and noise field. 0 = time-based (non-reproducible).
	Seed int64

	// ParticleCount overrides the configured particle count when > 0.
	ParticleCount int
}

// Engine owns one particle store and advances it one fixed timestep per
// Tick. It is not safe for concurrent use: Tick, triggers, and Snapshot
// are expected to run on a single goroutine, with Snapshot reads happening
// after the Tick of the same frame.
type Engine struct {
	cfg   *config.Config
	rng   *rand.Rand
	field *noise.Field

	store *Store

	state      State
	pending    State
	hasPending bool
	stateStart float64
	clock      float64
	amplitude  float32

	initialized bool
	disposed    bool

	// warnCount accumulates non-finite position recoveries.
	warnCount uint64
}

// New creates an engine. Particle state is empty until InitializeFromImage
// succeeds; until then Tick and all triggers are no-ops.
func New(opts Options) *Engine {
	cfg := opts.Cfg
	if cfg == nil {
		cfg = config.Default()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	e := &Engine{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(seed)),
		field: noise.New(seed),
		state: StateIdle,
	}
	if opts.ParticleCount > 0 {
		// Copy so the override does not leak into a shared config
		c := *cfg
		c.Sampler.ParticleCount = opts.ParticleCount
		e.cfg = &c
	}
	return e
}

// InitializeFromImage seeds the particle store from a decoded RGBA buffer
// of width w and height h. It may be called again to load a new image; the
// engine restarts in idle with a fresh store. Returns ErrBadBuffer,
// ErrNoVisiblePixels, ErrBadParticleCount, or ErrDisposed.
func (e *Engine) InitializeFromImage(pix []byte, w, h int) error {
	if e.disposed {
		return ErrDisposed
	}

	store, err := sampleParticles(pix, w, h, e.cfg.Sampler.ParticleCount, e.cfg, e.rng)
	if err != nil {
		return err
	}

	e.store = store
	e.state = StateIdle
	e.hasPending = false
	e.stateStart = e.clock
	e.initialized = true

	slog.Debug("engine initialized", "particles", store.N, "image_w", w, "image_h", h)
	return nil
}

// SetState requests a transition. The transition is applied atomically at
// the start of the next Tick. Requesting the current state is a no-op
// except for dissolve and reform, which restart their progress clocks.
// Calls before initialization or after disposal are no-ops.
func (e *Engine) SetState(s State) {
	if !e.initialized || e.disposed {
		slog.Debug("trigger ignored", "state", s.String(), "initialized", e.initialized, "disposed", e.disposed)
		return
	}
	if s == e.state && !e.hasPending && s != StateDissolve && s != StateReform {
		return
	}
	e.pending = s
	e.hasPending = true
}

// TriggerIdle requests the idle state.
func (e *Engine) TriggerIdle() { e.SetState(StateIdle) }

// TriggerDissolve requests the dissolve state. Re-triggering restarts it.
func (e *Engine) TriggerDissolve() { e.SetState(StateDissolve) }

// TriggerVortex requests the vortex state.
func (e *Engine) TriggerVortex() { e.SetState(StateVortex) }

// TriggerWaveform requests the waveform state.
func (e *Engine) TriggerWaveform() { e.SetState(StateWaveform) }

// TriggerReform requests the reform state. Re-triggering restarts it.
func (e *Engine) TriggerReform() { e.SetState(StateReform) }

// SetAmplitude sets the external audio amplitude, silently clamped to [0, 1].
func (e *Engine) SetAmplitude(v float64) {
	if e.disposed {
		return
	}
	e.amplitude = clamp01(float32(v))
}

// Amplitude returns the current clamped audio amplitude.
func (e *Engine) Amplitude() float64 {
	return float64(e.amplitude)
}

// State returns the current animation state.
func (e *Engine) State() State {
	return e.state
}

// ParticleCount returns the number of live particles (0 before init).
func (e *Engine) ParticleCount() int {
	if e.store == nil {
		return 0
	}
	return e.store.N
}

// Clock returns the simulation time in seconds.
func (e *Engine) Clock() float64 {
	return e.clock
}

// WarnCount returns the cumulative number of non-finite position
// recoveries since creation. Useful as a diagnostics signal; per-tick
// numeric issues are healed locally and never surfaced as errors.
func (e *Engine) WarnCount() uint64 {
	return e.warnCount
}

// Progress returns the elapsed-time progress of the current state in
// [0, 1]. For states without a duration (idle, vortex, waveform) it
// saturates at 1.
func (e *Engine) Progress() float64 {
	var duration float64
	switch e.state {
	case StateDissolve:
		duration = e.cfg.Dissolve.Duration
	case StateReform:
		duration = e.cfg.Reform.Duration
	default:
		return 1
	}
	return float64(e.stateProgress(duration))
}

// IsDissolveComplete reports whether the engine is in dissolve and its
// configured duration has elapsed.
func (e *Engine) IsDissolveComplete() bool {
	return e.state == StateDissolve && e.clock-e.stateStart >= e.cfg.Dissolve.Duration
}

// IsReformComplete reports whether the engine is in reform and its
// configured duration has elapsed. The integrator snaps every particle to
// its origin by that time, so completion implies convergence.
func (e *Engine) IsReformComplete() bool {
	return e.state == StateReform && e.clock-e.stateStart >= e.cfg.Reform.Duration
}

// Tick advances the simulation by one fixed timestep: any pending
// transition is applied first, then the active state's force law visits
// every particle exactly once and integrates velocity into position.
// The clock advances before the force pass, so state progress reflects
// the end of the tick being computed and the completion predicates agree
// with what the pass just applied. No-op before initialization or after
// disposal.
func (e *Engine) Tick() {
	if !e.initialized || e.disposed {
		return
	}

	if e.hasPending {
		e.applyTransition(e.pending)
		e.hasPending = false
	}

	dt := e.cfg.Derived.DT32
	e.clock += float64(dt)

	switch e.state {
	case StateIdle:
		e.stepIdle(dt)
	case StateDissolve:
		e.stepDissolve(dt)
	case StateVortex:
		e.stepVortex(dt)
	case StateWaveform:
		e.stepWaveform(dt)
	case StateReform:
		e.stepReform(dt)
	}
}

// applyTransition switches state at a tick boundary.
func (e *Engine) applyTransition(s State) {
	e.state = s
	e.stateStart = e.clock

	if s == StateDissolve {
		// Every particle waits for its threshold before launching
		for i := range e.store.Launched {
			e.store.Launched[i] = false
		}
	}
}

// Snapshot returns the read-only particle arrays for the current frame.
// The returned slices alias engine memory: read them after Tick for the
// frame and do not hold them across ticks. Returns a zero Snapshot before
// initialization.
func (e *Engine) Snapshot() Snapshot {
	if e.store == nil {
		return Snapshot{}
	}
	return e.store.snapshot()
}

// Origins returns a read-only view of the immutable particle origins, for
// diagnostics such as convergence statistics. Nil before initialization.
func (e *Engine) Origins() []Vec3 {
	if e.store == nil {
		return nil
	}
	return e.store.Origin
}

// Dispose releases the particle store. Idempotent; after disposal all
// triggers and ticks are no-ops and InitializeFromImage fails.
func (e *Engine) Dispose() {
	if e.disposed {
		return
	}
	e.disposed = true
	e.initialized = false
	e.store = nil
}

// Disposed reports whether Dispose has been called.
func (e *Engine) Disposed() bool {
	return e.disposed
}

// stateProgress returns elapsed/duration for the current state, clamped
// to [0, 1] so clock drift can never produce out-of-range progress.
func (e *Engine) stateProgress(duration float64) float32 {
	if duration <= 0 {
		return 1
	}
	return clamp01(float32((e.clock - e.stateStart) / duration))
}

// healParticle resets a particle whose integrated position went non-finite.
func (e *Engine) healParticle(i int) {
	p := &e.store.Pos[i]
	if isFinite(p.X) && isFinite(p.Y) && isFinite(p.Z) {
		return
	}
	*p = e.store.Origin[i]
	e.store.Vel[i] = Vec3{}
	e.warnCount++
}
