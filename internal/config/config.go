// Package config provides configuration loading for a museum session.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"xrmuseum/internal/camera"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds every tunable of a session.
type Config struct {
	Session   SessionConfig   `yaml:"session"`
	Ray       RayConfig       `yaml:"ray"`
	Awareness AwarenessConfig `yaml:"awareness"`
	Gestures  []GestureConfig `yaml:"gestures"`
	Rooms     RoomsConfig     `yaml:"rooms"`
	Logging   LoggingConfig   `yaml:"logging"`
	Trace     TraceConfig     `yaml:"trace"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SessionConfig holds per-visitor settings.
type SessionConfig struct {
	PrimaryHand      string     `yaml:"primary_hand"` // left or right
	Language         string     `yaml:"language"`
	StartRoom        string     `yaml:"start_room"`
	EyeHeight        float32    `yaml:"eye_height"`
	ControllerBounds [3]float32 `yaml:"controller_bounds"` // half extents
}

// RayConfig holds pointer settings.
type RayConfig struct {
	MaxDistance float32 `yaml:"max_distance"`
}

// AwarenessConfig holds reachable-element settings.
type AwarenessConfig struct {
	TieEpsilon float32     `yaml:"tie_epsilon"` // distances closer than this sort by name
	Lens       camera.Lens `yaml:"lens"`
}

// GestureConfig binds a built-in gesture to a modifier combination.
type GestureConfig struct {
	Name         string           `yaml:"name"`
	Cooldown     float64          `yaml:"cooldown"` // seconds of scene time
	InstantReset bool             `yaml:"instant_reset"`
	Modifiers    []ModifierConfig `yaml:"modifiers"`
}

// ModifierConfig is either a button state (State set) or an axis threshold
// (Axis and Min set).
type ModifierConfig struct {
	Input string  `yaml:"input"`
	State string  `yaml:"state,omitempty"`
	Axis  string  `yaml:"axis,omitempty"`
	Min   float32 `yaml:"min,omitempty"`
}

// RoomsConfig lists rooms and the rig offsets used between them.
type RoomsConfig struct {
	Names   []string       `yaml:"names"`
	Targets []TargetConfig `yaml:"targets"`
}

// TargetConfig is the rig position applied when moving From -> To.
type TargetConfig struct {
	From     string     `yaml:"from"`
	To       string     `yaml:"to"`
	Position [3]float32 `yaml:"position"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text, json or console
	File   string `yaml:"file"`
}

// TraceConfig holds interaction trace output settings. An empty Dir disables
// tracing.
type TraceConfig struct {
	Dir  string `yaml:"dir"`
	File string `yaml:"file"`
}

// DerivedConfig holds values computed from the loaded config.
type DerivedConfig struct {
	ControllerHalfExtents rl.Vector3
	Targets               map[string]map[string]rl.Vector3 // from -> to -> rig position
	Gestures              map[string]GestureConfig
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()
	return cfg, nil
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Session.PrimaryHand) {
	case "left", "right":
	default:
		return fmt.Errorf("session.primary_hand: unknown hand %q", c.Session.PrimaryHand)
	}
	seen := make(map[string]bool, len(c.Gestures))
	for i, g := range c.Gestures {
		if g.Name == "" {
			return fmt.Errorf("gestures[%d]: missing name", i)
		}
		if seen[g.Name] {
			return fmt.Errorf("gestures[%d]: duplicate name %q", i, g.Name)
		}
		seen[g.Name] = true
		if len(g.Modifiers) == 0 {
			return fmt.Errorf("gesture %q: no modifiers", g.Name)
		}
		for j, m := range g.Modifiers {
			if m.Input == "" {
				return fmt.Errorf("gesture %q modifier %d: missing input", g.Name, j)
			}
			if (m.State == "") == (m.Axis == "") {
				return fmt.Errorf("gesture %q modifier %d: set exactly one of state or axis", g.Name, j)
			}
		}
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Session.PrimaryHand = strings.ToLower(c.Session.PrimaryHand)
	if c.Session.EyeHeight <= 0 {
		c.Session.EyeHeight = camera.EyeHeight
	}
	if c.Ray.MaxDistance <= 0 {
		c.Ray.MaxDistance = 100
	}
	if c.Awareness.TieEpsilon <= 0 {
		c.Awareness.TieEpsilon = 0.5
	}
	def := camera.DefaultLens()
	if c.Awareness.Lens.Fovy <= 0 {
		c.Awareness.Lens.Fovy = def.Fovy
	}
	if c.Awareness.Lens.Aspect <= 0 {
		c.Awareness.Lens.Aspect = def.Aspect
	}
	if c.Awareness.Lens.Near <= 0 {
		c.Awareness.Lens.Near = def.Near
	}
	if c.Awareness.Lens.Far <= c.Awareness.Lens.Near {
		c.Awareness.Lens.Far = def.Far
	}
	if c.Trace.File == "" {
		c.Trace.File = "interactions.csv"
	}

	b := c.Session.ControllerBounds
	c.Derived.ControllerHalfExtents = rl.Vector3{X: b[0], Y: b[1], Z: b[2]}

	c.Derived.Targets = make(map[string]map[string]rl.Vector3)
	for _, t := range c.Rooms.Targets {
		if c.Derived.Targets[t.From] == nil {
			c.Derived.Targets[t.From] = make(map[string]rl.Vector3)
		}
		c.Derived.Targets[t.From][t.To] = rl.Vector3{X: t.Position[0], Y: t.Position[1], Z: t.Position[2]}
	}

	c.Derived.Gestures = make(map[string]GestureConfig, len(c.Gestures))
	for _, g := range c.Gestures {
		c.Derived.Gestures[g.Name] = g
	}
}

// Target returns the rig position for a room change. ok is false when no
// target is configured for the pair.
func (c *Config) Target(from, to string) (rl.Vector3, bool) {
	p, ok := c.Derived.Targets[from][to]
	return p, ok
}

// HasRoom reports whether room is a configured room name.
func (c *Config) HasRoom(room string) bool {
	for _, n := range c.Rooms.Names {
		if n == room {
			return true
		}
	}
	return false
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
