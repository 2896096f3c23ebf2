package interaction

import (
	"fmt"
	"math"
	"strings"

	"xrmuseum/internal/camera"
	"xrmuseum/internal/config"
	"xrmuseum/internal/controller"
)

// Modifier is one condition of a gesture rule. The set of implementations
// is closed: ButtonModifier and AxisModifier.
type Modifier interface {
	Input() string
	modifier()
}

// ButtonModifier requires an input to be in an exact discrete state.
type ButtonModifier struct {
	ID    string
	State controller.ButtonState
}

// AxisModifier requires the absolute value of one axis to reach Min.
type AxisModifier struct {
	ID   string
	Axis Axis
	Min  float32
}

type Axis int

const (
	AxisX Axis = iota
	AxisY
)

func (m ButtonModifier) Input() string { return m.ID }
func (m AxisModifier) Input() string   { return m.ID }

func (ButtonModifier) modifier() {}
func (AxisModifier) modifier()   {}

// Satisfied evaluates m against a qualified snapshot. Missing inputs and
// unknown modifier kinds never match.
func Satisfied(m Modifier, snap controller.Snapshot) bool {
	switch m := m.(type) {
	case ButtonModifier:
		r, ok := snap[m.ID]
		return ok && r.State == m.State
	case AxisModifier:
		r, ok := snap[m.ID]
		if !ok {
			return false
		}
		switch m.Axis {
		case AxisX:
			return r.HasX && float32(math.Abs(float64(r.XAxis))) >= m.Min
		case AxisY:
			return r.HasY && float32(math.Abs(float64(r.YAxis))) >= m.Min
		}
		return false
	}
	return false
}

func validModifier(m Modifier) bool {
	switch m.(type) {
	case ButtonModifier, AxisModifier:
		return true
	}
	return false
}

// ParseModifier converts a configured binding.
func ParseModifier(mc config.ModifierConfig) (Modifier, error) {
	if mc.Input == "" {
		return nil, fmt.Errorf("modifier: missing input")
	}
	if mc.Axis != "" {
		var axis Axis
		switch strings.ToLower(mc.Axis) {
		case "x":
			axis = AxisX
		case "y":
			axis = AxisY
		default:
			return nil, fmt.Errorf("modifier %s: unknown axis %q", mc.Input, mc.Axis)
		}
		return AxisModifier{ID: mc.Input, Axis: axis, Min: mc.Min}, nil
	}
	state, err := controller.ParseButtonState(mc.State)
	if err != nil {
		return nil, fmt.Errorf("modifier %s: %w", mc.Input, err)
	}
	return ButtonModifier{ID: mc.Input, State: state}, nil
}

// ParseModifiers converts a list of bindings, failing on the first bad one.
func ParseModifiers(list []config.ModifierConfig) ([]Modifier, error) {
	out := make([]Modifier, 0, len(list))
	for _, mc := range list {
		m, err := ParseModifier(mc)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// StickBearing converts a thumbstick reading to a clockwise heading in
// degrees, 0 meaning pushed away from the user. Stick Y grows toward the
// user, like screen space.
func StickBearing(r controller.Reading) float32 {
	return camera.Heading(r.XAxis, -r.YAxis)
}
