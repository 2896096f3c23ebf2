package interaction

import "xrmuseum/internal/controller"

// Rule is a gesture: a modifier combination with a cooldown in scene
// seconds.
type Rule struct {
	Name      string
	Modifiers []Modifier
	Cooldown  float64
	// InstantReset clears the cooldown as soon as any modifier stops
	// matching.
	InstantReset bool
	Callback     func(GestureEvent)
}

// GestureEvent is passed to a rule's callback.
type GestureEvent struct {
	Rule       string
	Controller *controller.Controller
	Snapshot   controller.Snapshot
	Time       float64
	// Bearing is the stick heading of the rule's first axis modifier, if
	// it has one.
	Bearing    float32
	HasBearing bool
}

func (r *Rule) satisfied(snap controller.Snapshot) bool {
	for _, m := range r.Modifiers {
		if !Satisfied(m, snap) {
			return false
		}
	}
	return true
}

func (r *Rule) bearing(snap controller.Snapshot) (float32, bool) {
	for _, m := range r.Modifiers {
		if am, ok := m.(AxisModifier); ok {
			return StickBearing(snap[am.ID]), true
		}
	}
	return 0, false
}

type cooldownKey struct {
	rule       string
	controller string
}
