package skydive

import (
	"errors"
	"testing"

	"github.com/akmonengine/skydive/actor"
)

func TestRunBatch(t *testing.T) {
	plan := []Action{
		{At: 0, Command: CommandJump},
		{At: 1, Command: CommandDeployParachute},
	}
	configs := make([]Config, 5)
	for i := range configs {
		configs[i] = lowJump(60+20*float64(i), plan...)
		configs[i].Wind = WindConfig{X: float64(i), Z: -float64(i)}
	}
	configs[3].Body.Mass = 0

	results := RunBatch(configs, 3, nil)
	if len(results) != len(configs) {
		t.Fatalf("results = %d, want %d", len(results), len(configs))
	}

	for i, r := range results {
		if r.Index != i {
			t.Errorf("results[%d].Index = %d", i, r.Index)
		}
		if i == 3 {
			if !errors.Is(r.Err, ErrInvalidConfig) {
				t.Errorf("results[3].Err = %v, want %v", r.Err, ErrInvalidConfig)
			}
			continue
		}
		if r.Err != nil {
			t.Errorf("results[%d].Err = %v", i, r.Err)
			continue
		}
		if r.Report.Phase != actor.PhaseLanded {
			t.Errorf("results[%d] phase = %v, want %v", i, r.Report.Phase, actor.PhaseLanded)
		}

		// parallel runs match a sequential run of the same config
		sim := newTestSimulation(t, configs[i])
		want, err := sim.Run(configs[i].MaxDuration)
		if err != nil {
			t.Fatal(err)
		}
		if r.Report != want {
			t.Errorf("results[%d] = %+v, sequential run = %+v", i, r.Report, want)
		}
	}
}

func TestRunBatch_Empty(t *testing.T) {
	if results := RunBatch(nil, 4, nil); len(results) != 0 {
		t.Errorf("RunBatch(nil) = %v", results)
	}
}

func TestTask(t *testing.T) {
	for _, workers := range []int{1, 3, 8, 50} {
		data := make([]*int, 17)
		for i := range data {
			data[i] = new(int)
		}

		task(workers, data, func(v *int) { *v++ })

		for i, v := range data {
			if *v != 1 {
				t.Errorf("workers=%d: element %d processed %d times", workers, i, *v)
			}
		}
	}
}
