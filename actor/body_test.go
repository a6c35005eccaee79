package actor

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const dt = 0.016

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

// newFallingBody returns a body that just left the aircraft
func newFallingBody(t *testing.T) *Body {
	t.Helper()
	b := NewBody(DefaultConstants(), mgl64.Vec3{0, 1000, 0})
	if err := b.Jump(); err != nil {
		t.Fatalf("Jump() error = %v", err)
	}
	return b
}

func step(t *testing.T, b *Body, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := b.Integrate(dt); err != nil {
			t.Fatalf("Integrate() step %d error = %v", i, err)
		}
	}
}

func TestNewBody(t *testing.T) {
	c := DefaultConstants()
	b := NewBody(c, mgl64.Vec3{-1200, 1800, 3})

	if b.Phase != PhaseOnAirplane {
		t.Errorf("Phase = %v, want %v", b.Phase, PhaseOnAirplane)
	}
	if b.Position() != (mgl64.Vec3{-1200, 1800, 3}) {
		t.Errorf("Position() = %v", b.Position())
	}
	if b.ParachuteArea != c.BodyArea {
		t.Errorf("ParachuteArea = %v, want %v", b.ParachuteArea, c.BodyArea)
	}
	if !almostEqual(b.Weight, 75*9.81, 1e-9) {
		t.Errorf("Weight = %v, want %v", b.Weight, 75*9.81)
	}
	if !almostEqual(b.LeverArm, 0.122*1.8, 1e-12) {
		t.Errorf("LeverArm = %v", b.LeverArm)
	}

	wantIx := 75 * 0.0416 * 1.8 * 1.8
	wantIz := 75 * 0.0449 * 1.8 * 1.8
	if !almostEqual(b.Roll.Inertia, wantIx, 1e-12) || !almostEqual(b.Yaw.Inertia, wantIx, 1e-12) {
		t.Errorf("Roll/Yaw inertia = %v/%v, want %v", b.Roll.Inertia, b.Yaw.Inertia, wantIx)
	}
	if !almostEqual(b.Pitch.Inertia, wantIz, 1e-12) {
		t.Errorf("Pitch inertia = %v, want %v", b.Pitch.Inertia, wantIz)
	}
	if b.Orientation != mgl64.QuatIdent() {
		t.Errorf("Orientation = %v, want identity", b.Orientation)
	}
}

func TestIntegrate_OnAirplaneIsNoop(t *testing.T) {
	b := NewBody(DefaultConstants(), mgl64.Vec3{0, 1800, 0})
	before := *b

	if err := b.Integrate(dt); err != nil {
		t.Fatalf("Integrate() error = %v", err)
	}
	if *b != before {
		t.Error("body on the aircraft should not move")
	}
}

func TestIntegrate_ZeroNetForce(t *testing.T) {
	for _, step := range []float64{1e-4, dt, 0.5, 3} {
		b := newFallingBody(t)
		if err := b.SetGravity(0); err != nil {
			t.Fatal(err)
		}
		position := b.Position()

		if err := b.Integrate(step); err != nil {
			t.Fatalf("dt=%v: Integrate() error = %v", step, err)
		}
		if b.Position() != position {
			t.Errorf("dt=%v: Position() = %v, want %v", step, b.Position(), position)
		}
		if b.Velocity() != (mgl64.Vec3{}) {
			t.Errorf("dt=%v: Velocity() = %v, want zero", step, b.Velocity())
		}
	}
}

func TestIntegrate_GravityPullsDown(t *testing.T) {
	b := newFallingBody(t)
	step(t, b, 1)

	if !almostEqual(b.Vertical.Velocity, -9.81*dt, 1e-12) {
		t.Errorf("Vertical.Velocity = %v, want %v", b.Vertical.Velocity, -9.81*dt)
	}
	if b.Vertical.Position >= 1000 {
		t.Errorf("Vertical.Position = %v, want below 1000", b.Vertical.Position)
	}
	if !almostEqual(b.Clock, dt, 1e-15) {
		t.Errorf("Clock = %v, want %v", b.Clock, dt)
	}
}

func TestIntegrate_TerminalVelocity(t *testing.T) {
	b := newFallingBody(t)
	if err := b.SetWind(0, 0); err != nil {
		t.Fatal(err)
	}
	step(t, b, 5000)

	c := b.Constants
	want := math.Sqrt(2 * c.Mass * c.Gravity / (c.DragCoefficient * c.AirDensity * c.BodyArea))
	if !almostEqual(-b.Vertical.Velocity, want, 0.01) {
		t.Errorf("terminal velocity = %v, want %v", -b.Vertical.Velocity, want)
	}
}

func TestDrag_Symmetry(t *testing.T) {
	b := newFallingBody(t)

	for _, v := range []float64{0.5, 3, 12, 55.5} {
		if b.VerticalDrag(v) != b.VerticalDrag(-v) {
			t.Errorf("VerticalDrag(%v) = %v, VerticalDrag(%v) = %v, want equal", v, b.VerticalDrag(v), -v, b.VerticalDrag(-v))
		}
		if b.HorizontalDrag(v) == b.HorizontalDrag(-v) {
			t.Errorf("HorizontalDrag(%v) = HorizontalDrag(%v) = %v, want different", v, -v, b.HorizontalDrag(v))
		}
		if b.HorizontalDrag(v) != -b.HorizontalDrag(-v) {
			t.Errorf("HorizontalDrag should be odd in v, got %v and %v", b.HorizontalDrag(v), b.HorizontalDrag(-v))
		}
	}
}

func TestDrag_SymmetryAfterIntegrate(t *testing.T) {
	up := newFallingBody(t)
	down := newFallingBody(t)
	for _, b := range []*Body{up, down} {
		if err := b.SetGravity(0); err != nil {
			t.Fatal(err)
		}
		if err := b.SetWind(0, 0); err != nil {
			t.Fatal(err)
		}
	}
	up.Vertical.Velocity = 7
	down.Vertical.Velocity = -7

	step(t, up, 1)
	step(t, down, 1)

	if up.Vertical.Drag != down.Vertical.Drag {
		t.Errorf("vertical drag %v vs %v, want equal", up.Vertical.Drag, down.Vertical.Drag)
	}
}

func TestIntegrate_AnglesStayWrapped(t *testing.T) {
	b := NewBody(DefaultConstants(), mgl64.Vec3{0, 5000, 0})
	b.RotationForce = 5000
	b.AngleBetween = 90
	if err := b.Jump(); err != nil {
		t.Fatal(err)
	}

	if err := b.StartRoll(); err != nil {
		t.Fatalf("StartRoll() error = %v", err)
	}
	for i := 0; i < 600; i++ {
		step(t, b, 1)
		for name, theta := range map[string]float64{"roll": b.Roll.Theta, "yaw": b.Yaw.Theta, "pitch": b.Pitch.Theta} {
			if theta < 0 || theta >= 2*math.Pi {
				t.Fatalf("step %d: %s theta = %v, out of [0, 2π)", i, name, theta)
			}
		}
	}
}

func TestIntegrate_RotationWindow(t *testing.T) {
	b := NewBody(DefaultConstants(), mgl64.Vec3{0, 5000, 0})
	b.RotationForce = 100
	b.AngleBetween = 90
	if err := b.Jump(); err != nil {
		t.Fatal(err)
	}
	if err := b.StartPitch(); err != nil {
		t.Fatal(err)
	}

	step(t, b, 400)
	if b.Phase != PhaseRotatingPitch {
		t.Fatalf("Phase after 6.4s = %v, want %v", b.Phase, PhaseRotatingPitch)
	}
	wantAlpha := b.Pitch.Torque / b.Pitch.Inertia
	if !almostEqual(b.Pitch.Alpha, wantAlpha, 1e-12) {
		t.Errorf("Pitch.Alpha = %v, want %v", b.Pitch.Alpha, wantAlpha)
	}
	if b.Orientation != EulerXYZ(b.Roll.Theta, b.Yaw.Theta, b.Pitch.Theta) {
		t.Error("orientation should follow the rotation angles while rotating")
	}

	step(t, b, 110)
	if b.Phase != PhaseFreeFalling {
		t.Fatalf("Phase after 8.16s = %v, want %v", b.Phase, PhaseFreeFalling)
	}
	if b.Pitch.Torque != 0 || b.Pitch.Alpha != 0 {
		t.Errorf("Pitch torque/alpha = %v/%v, want zero", b.Pitch.Torque, b.Pitch.Alpha)
	}
	if b.Pitch.Omega == 0 {
		t.Error("Pitch.Omega should keep the reached rate")
	}

	// a finished rotation can be started again
	if err := b.StartRoll(); err != nil {
		t.Errorf("StartRoll() after the window error = %v", err)
	}
}

func TestIntegrate_YawKeepsTurningAfterRopePull(t *testing.T) {
	b := NewBody(DefaultConstants(), mgl64.Vec3{0, 5000, 0})
	b.RotationForce = 50
	b.AngleBetween = 90
	if err := b.Jump(); err != nil {
		t.Fatal(err)
	}
	if err := b.DeployParachute(); err != nil {
		t.Fatal(err)
	}
	if err := b.PullRopes(); err != nil {
		t.Fatalf("PullRopes() error = %v", err)
	}

	step(t, b, 140)
	if b.Phase != PhaseCanopyOpen {
		t.Fatalf("Phase after the pull = %v, want %v", b.Phase, PhaseCanopyOpen)
	}
	if b.Yaw.Alpha != 0 {
		t.Errorf("Yaw.Alpha = %v, want 0", b.Yaw.Alpha)
	}
	if b.Yaw.Omega <= YawTurnThreshold {
		t.Fatalf("Yaw.Omega = %v, want above %v", b.Yaw.Omega, YawTurnThreshold)
	}

	omega, theta := b.Yaw.Omega, b.Yaw.Theta
	step(t, b, 1)
	if b.Yaw.Omega != omega {
		t.Errorf("Yaw.Omega = %v, want %v", b.Yaw.Omega, omega)
	}
	if want := WrapAngle(theta + omega*dt); !almostEqual(b.Yaw.Theta, want, 1e-12) {
		t.Errorf("Yaw.Theta = %v, want %v", b.Yaw.Theta, want)
	}
	if b.Orientation != EulerXYZ(0, b.Yaw.Theta, 0) {
		t.Error("turning canopy should be oriented by yaw only")
	}
}

func TestIntegrate_RejectsNonFinite(t *testing.T) {
	b := newFallingBody(t)
	step(t, b, 10)
	b.Vertical.Drag = math.Inf(1)
	before := *b

	err := b.Integrate(dt)
	if !errors.Is(err, ErrNonFinite) || !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Integrate() error = %v, want %v", err, ErrNonFinite)
	}
	if *b != before {
		t.Error("rejected step should leave the body at its last valid state")
	}
}

func TestIntegrate_InvalidTimeStep(t *testing.T) {
	for _, step := range []float64{0, -dt, math.NaN(), math.Inf(1)} {
		b := newFallingBody(t)
		before := *b
		if err := b.Integrate(step); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("Integrate(%v) error = %v, want %v", step, err, ErrInvalidTransition)
		}
		if *b != before {
			t.Errorf("Integrate(%v) mutated the body", step)
		}
	}
}

func TestIntegrate_Terminal(t *testing.T) {
	b := newFallingBody(t)
	if err := b.Land(); err != nil {
		t.Fatal(err)
	}
	if err := b.Integrate(dt); !errors.Is(err, ErrTerminal) {
		t.Errorf("Integrate() after landing error = %v, want %v", err, ErrTerminal)
	}

	b = newFallingBody(t)
	if err := b.Crash(); err != nil {
		t.Fatal(err)
	}
	if err := b.Integrate(dt); !errors.Is(err, ErrTerminal) {
		t.Errorf("Integrate() after crashing error = %v, want %v", err, ErrTerminal)
	}
}

func TestIntegrate_Buoyancy(t *testing.T) {
	with := newFallingBody(t)
	with.ApplyBuoyancy = true
	without := newFallingBody(t)

	step(t, with, 1)
	step(t, without, 1)

	want := (with.Weight - with.Buoyancy) / with.Constants.Mass
	if !almostEqual(with.Vertical.Acceleration, want, 1e-12) {
		t.Errorf("Vertical.Acceleration = %v, want %v", with.Vertical.Acceleration, want)
	}
	if with.Vertical.Velocity <= without.Vertical.Velocity {
		t.Error("buoyancy should slow the fall")
	}
}

func TestIntegrate_LiftOnlyUnderCanopy(t *testing.T) {
	b := newFallingBody(t)
	step(t, b, 10)
	if b.Lift != 0 {
		t.Errorf("Lift in free fall = %v, want 0", b.Lift)
	}

	if err := b.DeployParachute(); err != nil {
		t.Fatal(err)
	}
	step(t, b, 1)
	if want := b.LiftForce(b.Vertical.Velocity); b.Lift != want || want <= 0 {
		t.Errorf("Lift under canopy = %v, want %v", b.Lift, want)
	}
}

func TestIntegrate_CanopyLeveling(t *testing.T) {
	tilted := EulerXYZ(0.4, 1.1, -0.3)

	tests := []struct {
		name       string
		omega      float64
		hardImpact bool
		// want is computed from the body after the step
		want func(b *Body) mgl64.Quat
	}{
		{"still canopy levels", 0, false, func(*Body) mgl64.Quat { return mgl64.QuatIdent() }},
		{"slow turn levels", YawTurnThreshold, false, func(*Body) mgl64.Quat { return mgl64.QuatIdent() }},
		{"hard impact keeps the tilt", 0, true, func(*Body) mgl64.Quat { return tilted }},
		{"turning canopy follows yaw", 1.5 * YawTurnThreshold, false, func(b *Body) mgl64.Quat {
			return EulerXYZ(0, b.Yaw.Theta, 0)
		}},
		{"turning canopy follows yaw after hard impact", 1.5 * YawTurnThreshold, true, func(b *Body) mgl64.Quat {
			return EulerXYZ(0, b.Yaw.Theta, 0)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFallingBody(t)
			if err := b.DeployParachute(); err != nil {
				t.Fatal(err)
			}
			b.Orientation = tilted
			b.Yaw.Theta = 0.7
			b.Yaw.Omega = tt.omega
			b.HardImpact = tt.hardImpact

			step(t, b, 1)
			if want := tt.want(b); b.Orientation != want {
				t.Errorf("Orientation = %v, want %v", b.Orientation, want)
			}
		})
	}
}

func TestIntegrate_WindForceIsSigned(t *testing.T) {
	b := newFallingBody(t)
	if err := b.SetWind(-10, 5); err != nil {
		t.Fatal(err)
	}

	// Wind pushes along its own direction: F = ½⋅Cd⋅ρ⋅A⋅v⋅|v|.
	// An unsigned v² force would push a -X wind toward +X.
	if b.Wind.ForceX >= 0 || b.Wind.ForceZ <= 0 {
		t.Fatalf("wind force = (%v, %v), want (-, +)", b.Wind.ForceX, b.Wind.ForceZ)
	}
	if !almostEqual(b.Wind.ForceX, -b.Wind.ForceZ*4, 1e-9) {
		t.Errorf("ForceX = %v, want -4 * ForceZ (%v)", b.Wind.ForceX, b.Wind.ForceZ)
	}

	step(t, b, 1)
	if b.Horizontal.Velocity >= 0 || b.Lateral.Velocity <= 0 {
		t.Errorf("velocity = (%v, %v), want drift along the wind", b.Horizontal.Velocity, b.Lateral.Velocity)
	}
}
