package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"xrmuseum/internal/config"
	"xrmuseum/internal/controller"
	"xrmuseum/internal/logging"
	"xrmuseum/internal/trace"
	"xrmuseum/internal/world"
)

const doorScript = `
ticks:
  - connect: [{id: r, hand: right, profile: oculus-touch}]
    camera: {position: [0, 1.6, 0]}
    controllers:
      - id: r
        position: [0, 1.2, 0]
        yaw: -36.87
  - select_start: [r]
    dt: 0.02
  - select_end: [r]
    repeat: 3
`

func TestParseScriptDefaults(t *testing.T) {
	script, err := ParseScript([]byte(doorScript))
	if err != nil {
		t.Fatalf("ParseScript failed: %v", err)
	}
	if len(script.Ticks) != 3 {
		t.Fatalf("Expected 3 steps, got %d", len(script.Ticks))
	}
	if script.Ticks[0].DT != 1.0/72 || script.Ticks[0].Repeat != 1 {
		t.Errorf("Expected default dt and repeat, got %v %d", script.Ticks[0].DT, script.Ticks[0].Repeat)
	}
	if script.Ticks[1].DT != 0.02 {
		t.Errorf("Expected dt 0.02, got %v", script.Ticks[1].DT)
	}
	if script.TotalTicks() != 5 {
		t.Errorf("Expected 5 ticks, got %d", script.TotalTicks())
	}
	if pose := script.Ticks[0].Controllers[0].Pose; pose.Position[1] != 1.2 || pose.Yaw != -36.87 {
		t.Errorf("Expected inline pose, got %+v", pose)
	}
}

func TestParseScriptRejectsBadHand(t *testing.T) {
	_, err := ParseScript([]byte("ticks:\n  - connect: [{id: x, hand: middle}]\n"))
	if err == nil {
		t.Error("Expected error for unknown hand")
	}
}

func TestControllerStepReadings(t *testing.T) {
	script, err := ParseScript([]byte(`
ticks:
  - controllers:
      - id: r
        buttons: {thumbstick: pressed, a: touched}
        axes: {thumbstick: [0.5, -1]}
`))
	if err != nil {
		t.Fatal(err)
	}
	readings := script.Ticks[0].Controllers[0].Readings()
	if len(readings) != 2 {
		t.Fatalf("Expected 2 readings, got %d", len(readings))
	}
	if readings[0].Name != "a" || readings[0].State != controller.Touched {
		t.Errorf("Expected a touched first, got %+v", readings[0])
	}
	stick := readings[1]
	if stick.State != controller.Pressed || !stick.HasX || stick.XAxis != 0.5 || stick.YAxis != -1 {
		t.Errorf("Expected merged thumbstick reading, got %+v", stick)
	}
}

func TestReplaySelectsDoor(t *testing.T) {
	sf, err := world.ParseSceneFile(demoScene)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	tracer := trace.NewWriterRecorder(&buf)
	session, err := newSession(config.Default(), sf, logging.Discard(), tracer)
	if err != nil {
		t.Fatalf("newSession failed: %v", err)
	}
	script, err := ParseScript([]byte(doorScript))
	if err != nil {
		t.Fatal(err)
	}

	durations := replay(session, script)
	if len(durations) != 5 {
		t.Errorf("Expected 5 durations, got %d", len(durations))
	}
	if session.Room() != "photogrammetry" {
		t.Errorf("Expected photogrammetry after selecting the door, got %s", session.Room())
	}
	if tracer.Count() == 0 || !bytes.Contains(buf.Bytes(), []byte("select_start")) {
		t.Errorf("Expected select_start in trace, got %q", buf.String())
	}
}

func TestRunWritesTrace(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "script.yaml")
	if err := os.WriteFile(scriptPath, []byte(doorScript), 0644); err != nil {
		t.Fatal(err)
	}
	if err := run("", "", scriptPath, dir, 0); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for _, name := range []string{"interactions.csv", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Expected %s: %v", name, err)
		}
	}
}
