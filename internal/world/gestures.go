package world

import (
	"fmt"

	"xrmuseum/internal/controller"
	"xrmuseum/internal/engine"
	"xrmuseum/internal/interaction"
)

// Built-in accessibility gestures. Their modifier combinations come from the
// gestures section of the config.
const (
	GestureSelectNext    = "select_next"
	GestureDescribe      = "describe"
	GestureChangeLevel   = "change_level"
	GestureDebug         = "debug"
	GestureTeleport      = "teleport"
	GestureInteractLeft  = "interact_left"
	GestureInteractRight = "interact_right"
	GestureNavigation    = "navigation"
)

// BindGesture registers fn under the configured gesture binding name.
func (s *Session) BindGesture(name string, fn func(interaction.GestureEvent)) error {
	g, ok := s.cfg.Derived.Gestures[name]
	if !ok {
		return fmt.Errorf("gesture %q: no binding configured", name)
	}
	mods, err := interaction.ParseModifiers(g.Modifiers)
	if err != nil {
		return fmt.Errorf("gesture %q: %w", name, err)
	}
	return s.Resolver.RegisterGestureRule(name, mods, g.Cooldown, g.InstantReset, fn)
}

// BindAccessibilityGestures registers every built-in gesture that has a
// binding. Unbound built-ins are skipped.
func (s *Session) BindAccessibilityGestures() error {
	handlers := []struct {
		name string
		fn   func(interaction.GestureEvent)
	}{
		{GestureSelectNext, func(interaction.GestureEvent) { s.Index.FocusNext() }},
		{GestureDescribe, func(interaction.GestureEvent) { s.Index.DescribeFocus() }},
		{GestureChangeLevel, func(interaction.GestureEvent) { s.Index.FocusToggleLevel() }},
		{GestureDebug, func(interaction.GestureEvent) { s.logVisible() }},
		{GestureTeleport, func(interaction.GestureEvent) { s.Teleport() }},
		{GestureInteractLeft, func(ev interaction.GestureEvent) { s.Index.Interact(controller.Left, ev.Controller) }},
		{GestureInteractRight, func(ev interaction.GestureEvent) { s.Index.Interact(controller.Right, ev.Controller) }},
		{GestureNavigation, func(interaction.GestureEvent) { s.Index.Navigate(s.CameraPose()) }},
	}
	for _, h := range handlers {
		if _, ok := s.cfg.Derived.Gestures[h.name]; !ok {
			s.logger.Warn("gesture not bound", "gesture", h.name)
			continue
		}
		if err := s.BindGesture(h.name, h.fn); err != nil {
			return err
		}
	}
	return nil
}

// Teleport moves the rig so the camera stands on the focused element's
// teleport target.
func (s *Session) Teleport() bool {
	t, ok := s.Index.Teleport()
	if !ok {
		return false
	}
	s.moveRigTo(t.Position)
	return true
}

func (s *Session) logVisible() {
	var names []string
	s.Scene.TraverseVisible(func(g *engine.GameObject) {
		if g.Name != "" {
			names = append(names, g.Name)
		}
	})
	s.logger.Info("visible nodes", "room", s.room, "names", names)
}
