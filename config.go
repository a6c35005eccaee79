package skydive

import (
	"errors"
	"fmt"
	"os"

	"github.com/akmonengine/skydive/actor"
	"github.com/akmonengine/skydive/contact"
	"github.com/akmonengine/skydive/terrain"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// Terrain kinds accepted in TerrainConfig.Kind
const (
	TerrainPlane       = "plane"
	TerrainHeightField = "heightfield"
	TerrainMesh        = "mesh"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config describes one jump, from the aircraft to the ground
type Config struct {
	Body     BodyConfig     `yaml:"body"`
	Launch   LaunchConfig   `yaml:"launch"`
	Wind     WindConfig     `yaml:"wind"`
	Rotation RotationConfig `yaml:"rotation"`
	Ground   GroundConfig   `yaml:"ground"`
	Terrain  TerrainConfig  `yaml:"terrain"`

	TimeStep    float64 `yaml:"time_step"`
	MaxDuration float64 `yaml:"max_duration"`

	Plan []Action `yaml:"plan"`
}

type BodyConfig struct {
	Mass            float64 `yaml:"mass"`
	Height          float64 `yaml:"height"`
	Gravity         float64 `yaml:"gravity"`
	DragCoefficient float64 `yaml:"drag_coefficient"`
	AirDensity      float64 `yaml:"air_density"`
	BodyArea        float64 `yaml:"body_area"`
	CanopyArea      float64 `yaml:"canopy_area"`
	LiftCoefficient float64 `yaml:"lift_coefficient"`
	Volume          float64 `yaml:"volume"`
	FluidDensity    float64 `yaml:"fluid_density"`
	ApplyBuoyancy   bool    `yaml:"apply_buoyancy"`
}

// LaunchConfig places the aircraft exit point
type LaunchConfig struct {
	Altitude           float64 `yaml:"altitude"`
	Offset             float64 `yaml:"offset"` // world X
	Depth              float64 `yaml:"depth"`  // world Z
	HorizontalVelocity float64 `yaml:"horizontal_velocity"`
}

type WindConfig struct {
	X float64 `yaml:"x"`
	Z float64 `yaml:"z"`
}

type RotationConfig struct {
	Force float64 `yaml:"force"`
	// LeverArm of zero keeps the default fraction of the body height
	LeverArm     float64 `yaml:"lever_arm"`
	AngleBetween float64 `yaml:"angle_between"`
}

type GroundConfig struct {
	Restitution      float64 `yaml:"restitution"`
	Friction         float64 `yaml:"friction"`
	SafeThreshold    float64 `yaml:"safe_threshold"`
	CrashThreshold   float64 `yaml:"crash_threshold"`
	ContactTolerance float64 `yaml:"contact_tolerance"`
}

// TerrainConfig selects the ground surface.
// A height field or mesh is centred on the launch point unless explicit heights are given with an origin.
type TerrainConfig struct {
	Kind string `yaml:"kind"`
	// Height of the flat ground
	Height float64 `yaml:"height"`

	CellSize float64   `yaml:"cell_size"`
	Cols     int       `yaml:"cols"`
	Rows     int       `yaml:"rows"`
	Heights  []float64 `yaml:"heights"`
	OriginX  float64   `yaml:"origin_x"`
	OriginZ  float64   `yaml:"origin_z"`

	MinHeight float64 `yaml:"min_height"`
	MaxHeight float64 `yaml:"max_height"`
	Seed      float64 `yaml:"seed"`
	Hills     int     `yaml:"hills"`

	// MeshCellSize is the broad phase cell size of a mesh terrain
	MeshCellSize float64 `yaml:"mesh_cell_size"`
}

// DefaultConfig returns a jump from 1800 m over flat ground at sea level
func DefaultConfig() Config {
	constants := actor.DefaultConstants()
	coefficients := contact.DefaultCoefficients()
	noise := terrain.DefaultNoiseParams()

	return Config{
		Body: BodyConfig{
			Mass:            constants.Mass,
			Height:          constants.Height,
			Gravity:         constants.Gravity,
			DragCoefficient: constants.DragCoefficient,
			AirDensity:      constants.AirDensity,
			BodyArea:        constants.BodyArea,
			CanopyArea:      constants.CanopyArea,
			LiftCoefficient: constants.LiftCoefficient,
			Volume:          constants.Volume,
			FluidDensity:    constants.FluidDensity,
		},
		Launch: LaunchConfig{
			Altitude:           1800,
			Offset:             -1200,
			HorizontalVelocity: -0.1,
		},
		Wind: WindConfig{X: 10, Z: 5},
		Ground: GroundConfig{
			Restitution:      coefficients.Restitution,
			Friction:         coefficients.Friction,
			SafeThreshold:    coefficients.SafeThreshold,
			CrashThreshold:   coefficients.CrashThreshold,
			ContactTolerance: coefficients.ContactTolerance,
		},
		Terrain: TerrainConfig{
			Kind:         TerrainPlane,
			CellSize:     20,
			Cols:         257,
			Rows:         257,
			MinHeight:    noise.MinHeight,
			MaxHeight:    noise.MaxHeight,
			Hills:        noise.Hills,
			MeshCellSize: terrain.DefaultMeshCellSize,
		},
		TimeStep:    DefaultTimeStep,
		MaxDuration: 600,
	}
}

// ParseConfig decodes YAML on top of DefaultConfig, so a document only needs the keys it changes
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and validates a YAML config file
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate checks the config without building anything
func (c Config) Validate() error {
	b := c.Body
	switch {
	case !(b.Mass > 0):
		return invalid("body.mass must be positive, got %v", b.Mass)
	case !(b.Height > 0):
		return invalid("body.height must be positive, got %v", b.Height)
	case b.Gravity < 0:
		return invalid("body.gravity must be non-negative, got %v", b.Gravity)
	case !(b.BodyArea > 0) || !(b.CanopyArea > 0):
		return invalid("body and canopy areas must be positive")
	case b.BodyArea == b.CanopyArea:
		return invalid("canopy area must differ from body area")
	case b.DragCoefficient < 0 || b.AirDensity < 0:
		return invalid("drag coefficient and air density must be non-negative")
	case !(c.TimeStep > 0):
		return invalid("time_step must be positive, got %v", c.TimeStep)
	case !(c.MaxDuration > 0):
		return invalid("max_duration must be positive, got %v", c.MaxDuration)
	}

	if err := c.coefficients().Validate(); err != nil {
		return fmt.Errorf("%w: ground: %w", ErrInvalidConfig, err)
	}

	t := c.Terrain
	switch t.Kind {
	case TerrainPlane:
	case TerrainHeightField, TerrainMesh:
		if !(t.CellSize > 0) || t.Cols < 2 || t.Rows < 2 {
			return invalid("terrain needs a positive cell_size and at least 2x2 samples")
		}
		if len(t.Heights) > 0 && len(t.Heights) != t.Cols*t.Rows {
			return invalid("terrain.heights has %d samples, want %d", len(t.Heights), t.Cols*t.Rows)
		}
		if t.Kind == TerrainMesh && !(t.MeshCellSize > 0) {
			return invalid("terrain.mesh_cell_size must be positive")
		}
	default:
		return invalid("unknown terrain kind %q", t.Kind)
	}

	for _, a := range c.Plan {
		if !a.Command.Valid() {
			return invalid("plan: unknown command %q", a.Command)
		}
		if a.At < 0 {
			return invalid("plan: command %q at negative time %v", a.Command, a.At)
		}
	}

	return nil
}

func (c Config) constants() actor.Constants {
	b := c.Body
	return actor.Constants{
		Mass:            b.Mass,
		Height:          b.Height,
		Gravity:         b.Gravity,
		DragCoefficient: b.DragCoefficient,
		AirDensity:      b.AirDensity,
		BodyArea:        b.BodyArea,
		CanopyArea:      b.CanopyArea,
		LiftCoefficient: b.LiftCoefficient,
		Volume:          b.Volume,
		FluidDensity:    b.FluidDensity,
	}
}

func (c Config) coefficients() contact.Coefficients {
	g := c.Ground
	return contact.Coefficients{
		Restitution:      g.Restitution,
		Friction:         g.Friction,
		SafeThreshold:    g.SafeThreshold,
		CrashThreshold:   g.CrashThreshold,
		ContactTolerance: g.ContactTolerance,
	}
}

// LaunchPoint returns the world position where the jumper boards
func (c Config) LaunchPoint() mgl64.Vec3 {
	return mgl64.Vec3{c.Launch.Offset, c.Launch.Altitude, c.Launch.Depth}
}

// NewBody builds the jumper waiting on the aircraft
func (c Config) NewBody() (*actor.Body, error) {
	body := actor.NewBody(c.constants(), c.LaunchPoint())
	body.ApplyBuoyancy = c.Body.ApplyBuoyancy
	body.Horizontal.Velocity = c.Launch.HorizontalVelocity

	if err := body.SetWind(c.Wind.X, c.Wind.Z); err != nil {
		return nil, err
	}
	if err := body.SetRotationForce(c.Rotation.Force); err != nil {
		return nil, err
	}
	if err := body.SetAngleBetween(c.Rotation.AngleBetween); err != nil {
		return nil, err
	}
	if c.Rotation.LeverArm > 0 {
		body.LeverArm = c.Rotation.LeverArm
	}

	return body, nil
}

// NewSurface builds the ground described by the terrain section
func (c Config) NewSurface() (terrain.Surface, error) {
	t := c.Terrain
	if t.Kind == TerrainPlane {
		return terrain.NewGround(t.Height), nil
	}

	var (
		field *terrain.HeightField
		err   error
	)
	if len(t.Heights) > 0 {
		origin := mgl64.Vec3{t.OriginX, 0, t.OriginZ}
		field, err = terrain.NewHeightField(origin, t.CellSize, t.Cols, t.Rows, t.Heights)
	} else {
		params := terrain.NoiseParams{
			MinHeight: t.MinHeight,
			MaxHeight: t.MaxHeight,
			Seed:      t.Seed,
			Hills:     t.Hills,
		}
		field, err = terrain.GenerateHeightField(c.LaunchPoint(), t.CellSize, t.Cols, t.Rows, params)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: terrain: %w", ErrInvalidConfig, err)
	}

	if t.Kind == TerrainMesh {
		return terrain.NewMesh(field.Triangles(), t.MeshCellSize), nil
	}
	return field, nil
}

// NewSimulation builds a simulation from the config on its own surface
func (c Config) NewSimulation() (*Simulation, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	surface, err := c.NewSurface()
	if err != nil {
		return nil, err
	}
	return c.NewSimulationOn(surface)
}

// NewSimulationOn builds a simulation over an existing surface.
// Surfaces are read-only during a run and can be shared between simulations.
func (c Config) NewSimulationOn(surface terrain.Surface) (*Simulation, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	body, err := c.NewBody()
	if err != nil {
		return nil, err
	}
	plan, err := NewPlan(c.Plan)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	sim := NewSimulation(body, surface, contact.NewResolver(c.coefficients()))
	sim.TimeStep = c.TimeStep
	sim.Plan = plan

	return sim, nil
}
