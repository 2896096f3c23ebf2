package scripts

import (
	"math"

	"xrmuseum/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Floater bobs an exhibit up and down around the position it had at Start.
type Floater struct {
	engine.BaseComponent
	Amplitude float32 // metres
	Speed     float32 // radians per second
	Phase     float32

	origin rl.Vector3
	time   float32
}

func (f *Floater) Start() {
	if g := f.GetGameObject(); g != nil {
		f.origin = g.Transform.Position
	}
}

func (f *Floater) Update(deltaTime float32) {
	g := f.GetGameObject()
	if g == nil {
		return
	}
	f.time += deltaTime
	t := f.time*f.Speed + f.Phase
	g.Transform.Position = rl.Vector3{
		X: f.origin.X,
		Y: f.origin.Y + float32(math.Sin(float64(t)))*f.Amplitude,
		Z: f.origin.Z,
	}
}

func init() {
	engine.RegisterScript("Floater", floaterFactory, floaterSerializer)
}

func floaterFactory(props map[string]any) engine.Component {
	return &Floater{
		Amplitude: engine.PropFloat(props, "amplitude", 0.05),
		Speed:     engine.PropFloat(props, "speed", 1),
		Phase:     engine.PropFloat(props, "phase", 0),
	}
}

func floaterSerializer(c engine.Component) map[string]any {
	f, ok := c.(*Floater)
	if !ok {
		return nil
	}
	return map[string]any{
		"amplitude": f.Amplitude,
		"speed":     f.Speed,
		"phase":     f.Phase,
	}
}
