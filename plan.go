package skydive

import (
	"fmt"
	"sort"
)

// Command is an operator action on the jumper
type Command string

const (
	CommandJump            Command = "jump"
	CommandStartRoll       Command = "start-roll"
	CommandStartPitch      Command = "start-pitch"
	CommandDeployParachute Command = "deploy-parachute"
	CommandPullRopes       Command = "pull-ropes"
)

// Valid reports whether the command is known
func (c Command) Valid() bool {
	switch c {
	case CommandJump, CommandStartRoll, CommandStartPitch, CommandDeployParachute, CommandPullRopes:
		return true
	}
	return false
}

// Action schedules a command at a simulation time, in seconds since the start
type Action struct {
	At      float64 `yaml:"at"`
	Command Command `yaml:"command"`
}

// Plan is a list of actions executed in time order
type Plan struct {
	actions []Action
	next    int
}

// NewPlan sorts the actions by time, keeping the given order for equal times
func NewPlan(actions []Action) (Plan, error) {
	sorted := append([]Action(nil), actions...)
	for _, a := range sorted {
		if !a.Command.Valid() {
			return Plan{}, fmt.Errorf("unknown command %q", a.Command)
		}
		if a.At < 0 {
			return Plan{}, fmt.Errorf("command %q scheduled at negative time %v", a.Command, a.At)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].At < sorted[j].At
	})
	return Plan{actions: sorted}, nil
}

// due returns the actions whose time has come and advances the cursor past them
func (p *Plan) due(clock float64) []Action {
	start := p.next
	for p.next < len(p.actions) && p.actions[p.next].At <= clock {
		p.next++
	}
	return p.actions[start:p.next]
}

// Pending returns the number of actions not executed yet
func (p *Plan) Pending() int {
	return len(p.actions) - p.next
}
