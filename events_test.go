package skydive

import (
	"testing"

	"github.com/akmonengine/skydive/actor"
	"github.com/akmonengine/skydive/contact"
	"github.com/akmonengine/skydive/terrain"
	"github.com/go-gl/mathgl/mgl64"
)

func TestEvents_Subscribe(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(GROUND_BOUNCE, capture.capture)
	events.Subscribe(GROUND_BOUNCE, capture.capture)

	if len(events.listeners[GROUND_BOUNCE]) != 2 {
		t.Fatalf("listeners = %d, want 2", len(events.listeners[GROUND_BOUNCE]))
	}

	body := actor.NewBody(actor.DefaultConstants(), mgl64.Vec3{})
	events.emit(GroundBounceEvent{Velocity: -8})
	events.emit(CrashedEvent{Velocity: -20})
	events.flush(body, 0)

	if len(capture.events) != 2 {
		t.Errorf("delivered = %d, want 2", len(capture.events))
	}
	if len(events.buffer) != 0 {
		t.Errorf("buffer = %d after flush, want 0", len(events.buffer))
	}
}

func TestEvents_ZeroValueSubscribe(t *testing.T) {
	var events Events
	capture := &eventCapture{}
	events.Subscribe(LANDED, capture.capture)

	events.emit(LandedEvent{})
	events.flush(actor.NewBody(actor.DefaultConstants(), mgl64.Vec3{}), 0)

	if capture.count(LANDED) != 1 {
		t.Errorf("landed events = %d, want 1", capture.count(LANDED))
	}
}

func TestEvents_PhaseChanges(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(PHASE_CHANGE, capture.capture)

	body := actor.NewBody(actor.DefaultConstants(), mgl64.Vec3{0, 100, 0})
	events.flush(body, 0)
	if len(capture.events) != 0 {
		t.Fatalf("first flush only records the phase, got %d events", len(capture.events))
	}

	if err := body.Jump(); err != nil {
		t.Fatal(err)
	}
	events.flush(body, 2.5)
	events.flush(body, 2.6)

	if len(capture.events) != 1 {
		t.Fatalf("phase changes = %d, want 1", len(capture.events))
	}
	e := capture.events[0].(PhaseChangeEvent)
	if e.From != actor.PhaseOnAirplane || e.To != actor.PhaseFreeFalling {
		t.Errorf("phase change = %v -> %v", e.From, e.To)
	}
	// stamped with the simulation clock, not the flight time of the body
	if e.Clock != 2.5 {
		t.Errorf("phase change clock = %v, want 2.5", e.Clock)
	}

	// several changes between two flushes collapse into one event
	if err := body.StartRoll(); err != nil {
		t.Fatal(err)
	}
	if err := body.DeployParachute(); err != nil {
		t.Fatal(err)
	}
	events.flush(body, 4)
	e = capture.events[1].(PhaseChangeEvent)
	if e.From != actor.PhaseFreeFalling || e.To != actor.PhaseCanopyOpen {
		t.Errorf("phase change = %v -> %v", e.From, e.To)
	}
}

func TestEvents_RecordContact(t *testing.T) {
	hit := terrain.Hit{Point: mgl64.Vec3{1, 2, 3}, Distance: 0.5}
	samples := []contact.Sample{{Name: "leftFoot", Hit: hit, Touched: true}}

	tests := []struct {
		name     string
		result   contact.Result
		want     EventType
		wantNone bool
	}{
		{"bounce", contact.Result{Outcome: contact.HardBounce, Samples: samples, Closest: 0}, GROUND_BOUNCE, false},
		{"landing", contact.Result{Outcome: contact.SafeLanding, Samples: samples, Closest: 0}, LANDED, false},
		{"crash", contact.Result{Outcome: contact.Crash, Samples: samples, Closest: 0}, CRASHED, false},
		{"airborne over ground", contact.Result{Outcome: contact.Airborne, Samples: samples, Closest: 0}, 0, true},
		{"no hit", contact.Result{Outcome: contact.Airborne, Closest: -1}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := NewEvents()
			events.recordContact(tt.result, -7, 12.5)

			if tt.wantNone {
				if len(events.buffer) != 0 {
					t.Errorf("buffer = %v, want empty", events.buffer)
				}
				return
			}
			if len(events.buffer) != 1 || events.buffer[0].Type() != tt.want {
				t.Fatalf("buffer = %v, want one event of type %v", events.buffer, tt.want)
			}
		})
	}

	events := NewEvents()
	events.recordContact(contact.Result{Outcome: contact.Crash, Samples: samples, Closest: 0}, -20, 3)
	crashed := events.buffer[0].(CrashedEvent)
	if crashed.Point != hit.Point || crashed.Velocity != -20 || crashed.Clock != 3 {
		t.Errorf("CrashedEvent = %+v", crashed)
	}
}
