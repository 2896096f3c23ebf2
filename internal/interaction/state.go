package interaction

import (
	"xrmuseum/internal/controller"
	"xrmuseum/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Intersection is the nearest hit of one controller against one state's
// colliders.
type Intersection struct {
	State    string
	Object   *engine.GameObject
	Distance float32
	Point    rl.Vector3
	Normal   rl.Vector3
	UV       rl.Vector2
}

// Event is passed to state callbacks. Intersection is nil for select edges
// delivered to non-raycasting states.
type Event struct {
	State        string
	Controller   *controller.Controller
	Intersection *Intersection
	// Selecting is true while the controller's select button is held.
	Selecting bool
}

// State is a named interaction mode.
type State struct {
	Name  string
	Role  Role
	Order int
	// Raycast defaults to true when nil.
	Raycast   *bool
	Colliders []*engine.GameObject

	OnHover       func(Event)
	OnHoverLeave  func(Event)
	OnSelectStart func(Event)
	OnSelectEnd   func(Event)

	suppressed bool
}

// Raycasting reports whether the state takes part in ray targeting.
func (s *State) Raycasting() bool {
	return s.Raycast == nil || *s.Raycast
}

// Bool returns a pointer to b, for State.Raycast.
func Bool(b bool) *bool {
	return &b
}
