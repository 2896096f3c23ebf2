// Package controller tracks connected spatial controllers and their live
// pose and button state.
package controller

import (
	"fmt"
	"strings"

	"xrmuseum/internal/camera"
	"xrmuseum/internal/engine"
	"xrmuseum/internal/physics"

	rl "github.com/gen2brain/raylib-go/raylib"
)

type Handedness string

const (
	Left  Handedness = "left"
	Right Handedness = "right"
	None  Handedness = "none"
)

// ParseHandedness accepts left, right and none in any case.
func ParseHandedness(s string) (Handedness, error) {
	switch h := Handedness(strings.ToLower(strings.TrimSpace(s))); h {
	case Left, Right, None:
		return h, nil
	}
	return None, fmt.Errorf("unknown handedness %q", s)
}

// Opposite maps left to right and back. None stays none.
func (h Handedness) Opposite() Handedness {
	switch h {
	case Left:
		return Right
	case Right:
		return Left
	}
	return None
}

type ButtonState int

const (
	Default ButtonState = iota
	Touched
	Pressed
)

func (s ButtonState) String() string {
	switch s {
	case Default:
		return "default"
	case Touched:
		return "touched"
	case Pressed:
		return "pressed"
	}
	return fmt.Sprintf("ButtonState(%d)", int(s))
}

func ParseButtonState(s string) (ButtonState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "default", "":
		return Default, nil
	case "touched":
		return Touched, nil
	case "pressed":
		return Pressed, nil
	}
	return Default, fmt.Errorf("unknown button state %q", s)
}

func (s ButtonState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ButtonState) UnmarshalText(b []byte) error {
	v, err := ParseButtonState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Reading is the state of one button or axis component.
type Reading struct {
	Name  string
	State ButtonState
	XAxis float32
	YAxis float32
	HasX  bool
	HasY  bool
}

// Pose is the controller's world transform. Local -Z points along the ray.
type Pose = camera.Pose

// Controller is one connected device.
type Controller struct {
	ID         string
	Handedness Handedness
	Profile    string
	Pose       Pose
	Readings   []Reading
	// Bounds holds half extents of the proximity box around the grip.
	Bounds physics.AABB

	grabbing *engine.GameObject
}

// Ray is the pointing ray from the controller's forward transform.
func (c *Controller) Ray() rl.Ray {
	return c.Pose.Ray()
}

// WorldBounds returns the proximity box centered on the controller.
func (c *Controller) WorldBounds() physics.AABB {
	return c.Bounds.Translate(c.Pose.Position)
}

// Name identifies the controller as a watched volume.
func (c *Controller) Name() string {
	return c.ID
}

// Grabbing returns the object held by this controller, if any.
func (c *Controller) Grabbing() *engine.GameObject {
	return c.grabbing
}

// Snapshot maps handedness-qualified ids to readings.
type Snapshot map[string]Reading

// Get is a soft lookup.
func (s Snapshot) Get(id string) (Reading, bool) {
	r, ok := s[id]
	return r, ok
}

// Snapshot returns the readings keyed by QualifiedID.
func (c *Controller) Snapshot() Snapshot {
	s := make(Snapshot, len(c.Readings))
	for _, r := range c.Readings {
		s[QualifiedID(c.Handedness, r.Name)] = r
	}
	return s
}

// QualifiedID returns "<handedness>-<name>" with name normalised: the
// "xr-standard-" prefix is dropped, letters are lower-cased, and spaces and
// underscores become dashes.
func QualifiedID(h Handedness, name string) string {
	return string(h) + "-" + SanitizeName(name)
}

func SanitizeName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer(" ", "-", "_", "-").Replace(n)
	return strings.TrimPrefix(n, "xr-standard-")
}
