// Package telemetry computes and exports window statistics for the
// particle engine: convergence distances, opacity bounds, and numeric
// recovery counts. It reads engine snapshots only; it never mutates
// particle state.
package telemetry

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/aura/engine"
)

// WindowStats summarizes one stats window of the simulation.
type WindowStats struct {
	Tick        int64   `csv:"tick"`
	SimTime     float64 `csv:"sim_time"`
	State       string  `csv:"state"`
	Particles   int     `csv:"particles"`
	MeanDist    float64 `csv:"mean_dist"`
	P50Dist     float64 `csv:"p50_dist"`
	P90Dist     float64 `csv:"p90_dist"`
	MaxDist     float64 `csv:"max_dist"`
	MeanOpacity float64 `csv:"mean_opacity"`
	MinOpacity  float64 `csv:"min_opacity"`
	MaxOpacity  float64 `csv:"max_opacity"`
	WarnCount   uint64  `csv:"warn_count"`
}

// Collector computes window statistics from an engine. Scratch buffers are
// reused across windows so steady-state collection does not allocate.
type Collector struct {
	dists     []float64
	opacities []float64
}

// NewCollector creates a collector sized for n particles.
func NewCollector(n int) *Collector {
	return &Collector{
		dists:     make([]float64, 0, n),
		opacities: make([]float64, 0, n),
	}
}

// Compute builds a stats record from the engine's current frame.
func (c *Collector) Compute(e *engine.Engine, tick int64) WindowStats {
	snap := e.Snapshot()
	origins := e.Origins()

	c.dists = c.dists[:0]
	c.opacities = c.opacities[:0]
	for i := range snap.Positions {
		p := snap.Positions[i]
		o := origins[i]
		dx := float64(p.X - o.X)
		dy := float64(p.Y - o.Y)
		dz := float64(p.Z - o.Z)
		c.dists = append(c.dists, dx*dx+dy*dy+dz*dz)
		c.opacities = append(c.opacities, float64(snap.Opacities[i]))
	}
	for i, d2 := range c.dists {
		c.dists[i] = math.Sqrt(d2)
	}

	ws := WindowStats{
		Tick:      tick,
		SimTime:   e.Clock(),
		State:     e.State().String(),
		Particles: len(c.dists),
		WarnCount: e.WarnCount(),
	}
	if len(c.dists) == 0 {
		return ws
	}

	sort.Float64s(c.dists)
	ws.MeanDist = stat.Mean(c.dists, nil)
	ws.P50Dist = stat.Quantile(0.5, stat.Empirical, c.dists, nil)
	ws.P90Dist = stat.Quantile(0.9, stat.Empirical, c.dists, nil)
	ws.MaxDist = c.dists[len(c.dists)-1]

	sort.Float64s(c.opacities)
	ws.MeanOpacity = stat.Mean(c.opacities, nil)
	ws.MinOpacity = c.opacities[0]
	ws.MaxOpacity = c.opacities[len(c.opacities)-1]

	return ws
}
