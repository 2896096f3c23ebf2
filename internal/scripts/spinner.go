// Package scripts holds the exhibit behaviours that scene files can attach
// by name.
package scripts

import "xrmuseum/internal/engine"

// Spinner turns an exhibit around the Y axis, turntable style.
type Spinner struct {
	engine.BaseComponent
	DegreesPerSecond float32
}

func (s *Spinner) Update(deltaTime float32) {
	g := s.GetGameObject()
	if g == nil {
		return
	}
	g.Transform.Rotation.Y += s.DegreesPerSecond * deltaTime
	for g.Transform.Rotation.Y >= 360 {
		g.Transform.Rotation.Y -= 360
	}
	for g.Transform.Rotation.Y < 0 {
		g.Transform.Rotation.Y += 360
	}
}

func init() {
	engine.RegisterScript("Spinner", spinnerFactory, spinnerSerializer)
}

func spinnerFactory(props map[string]any) engine.Component {
	return &Spinner{DegreesPerSecond: engine.PropFloat(props, "degreesPerSecond", 90)}
}

func spinnerSerializer(c engine.Component) map[string]any {
	s, ok := c.(*Spinner)
	if !ok {
		return nil
	}
	return map[string]any{
		"degreesPerSecond": s.DegreesPerSecond,
	}
}
