package engine

import "fmt"

// State identifies the active animation regime. Each state has its own
// force law applied by the integrator every tick.
type State uint8

const (
	// StateIdle drifts particles gently around their origins with a
	// breathing oscillation.
	StateIdle State = iota
	// StateDissolve launches particles radially outward in staggered order.
	StateDissolve
	// StateVortex holds particles in turbulent orbital shells.
	StateVortex
	// StateWaveform pushes concentric waves scaled by audio amplitude.
	StateWaveform
	// StateReform spring-pulls particles back to their origins.
	StateReform
)

var stateNames = [...]string{
	StateIdle:     "idle",
	StateDissolve: "dissolve",
	StateVortex:   "vortex",
	StateWaveform: "waveform",
	StateReform:   "reform",
}

// String returns the lowercase state name.
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// ParseState returns the state named by s.
func ParseState(s string) (State, error) {
	for i, name := range stateNames {
		if name == s {
			return State(i), nil
		}
	}
	return StateIdle, fmt.Errorf("unknown state %q", s)
}
