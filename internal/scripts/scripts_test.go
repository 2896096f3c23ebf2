package scripts

import (
	"math"
	"testing"

	"xrmuseum/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestSpinnerWrapsRotation(t *testing.T) {
	obj := engine.NewGameObject("Turntable")
	obj.AddComponent(&Spinner{DegreesPerSecond: 90})

	for i := 0; i < 5; i++ {
		obj.Update(1)
	}

	if !near(obj.Transform.Rotation.Y, 90) {
		t.Errorf("Expected rotation 90 after 450 degrees, got %f", obj.Transform.Rotation.Y)
	}
}

func TestSpinnerReverse(t *testing.T) {
	obj := engine.NewGameObject("Turntable")
	obj.AddComponent(&Spinner{DegreesPerSecond: -90})
	obj.Update(1)

	if !near(obj.Transform.Rotation.Y, 270) {
		t.Errorf("Expected rotation 270, got %f", obj.Transform.Rotation.Y)
	}
}

func TestFloaterBobsAroundOrigin(t *testing.T) {
	obj := engine.NewGameObject("Bust")
	obj.Transform.Position = rl.Vector3{X: 1, Y: 1.5, Z: -2}
	obj.AddComponent(&Floater{Amplitude: 0.1, Speed: math.Pi / 2})
	obj.Start()

	obj.Update(1)
	if p := obj.Transform.Position; !near(p.Y, 1.6) || p.X != 1 || p.Z != -2 {
		t.Errorf("Expected peak at y=1.6, got %v", p)
	}
	obj.Update(2)
	if p := obj.Transform.Position; !near(p.Y, 1.4) {
		t.Errorf("Expected trough at y=1.4, got %v", p)
	}
}

func TestScriptsRegistered(t *testing.T) {
	spinner, ok := engine.CreateScript("Spinner", map[string]any{"degreesPerSecond": float64(30)}).(*Spinner)
	if !ok || spinner.DegreesPerSecond != 30 {
		t.Errorf("Expected Spinner at 30, got %v", spinner)
	}

	name, props, ok := engine.SerializeScript(&Floater{Amplitude: 0.2, Speed: 1})
	if !ok || name != "Floater" {
		t.Fatalf("Expected Floater, got %s %v", name, ok)
	}
	if props["amplitude"] != float32(0.2) {
		t.Errorf("Expected amplitude 0.2, got %v", props["amplitude"])
	}
}
