package stream

import (
	"github.com/akmonengine/skydive"
)

// Frame is the state of one simulation tick as sent to viewers
type Frame struct {
	Tick        int        `json:"tick"`
	Time        float64    `json:"time"`
	Phase       string     `json:"phase"`
	Outcome     string     `json:"outcome"`
	Position    [3]float64 `json:"position"`
	Velocity    [3]float64 `json:"velocity"`
	Orientation [4]float64 `json:"orientation"` // x, y, z, w
	Canopy      bool       `json:"canopy"`
	HardImpact  bool       `json:"hardImpact"`
}

// NewFrame captures the current state of the simulation
func NewFrame(sim *skydive.Simulation) Frame {
	body := sim.Body
	q := body.Orientation
	return Frame{
		Tick:        sim.Ticks,
		Time:        sim.Elapsed,
		Phase:       body.Phase.String(),
		Outcome:     sim.LastContact().Outcome.String(),
		Position:    body.Position(),
		Velocity:    body.Velocity(),
		Orientation: [4]float64{q.V.X(), q.V.Y(), q.V.Z(), q.W},
		Canopy:      body.Phase.CanopyOpen(),
		HardImpact:  body.HardImpact,
	}
}
