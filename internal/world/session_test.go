package world

import (
	"errors"
	"math"
	"testing"

	"xrmuseum/internal/awareness"
	"xrmuseum/internal/camera"
	"xrmuseum/internal/config"
	"xrmuseum/internal/controller"
	"xrmuseum/internal/engine"
	"xrmuseum/internal/interaction"
	"xrmuseum/internal/narration"

	rl "github.com/gen2brain/raylib-go/raylib"
)

type roomLog struct {
	entered, exited int
}

func (l *roomLog) room(name string) *BasicRoom {
	return &BasicRoom{
		Label:   name,
		OnEnter: func(*Session) { l.entered++ },
		OnExit:  func(*Session) { l.exited++ },
	}
}

func newTestSession(t *testing.T) (*Session, *narration.Recorder) {
	t.Helper()
	sf, err := ParseSceneFile([]byte(testScene))
	if err != nil {
		t.Fatalf("ParseSceneFile failed: %v", err)
	}
	spoken := &narration.Recorder{}
	s, err := New(config.Default(), engine.NewScene("museum"), awareness.NewCatalog(), WithAnnouncer(spoken))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := s.LoadScene(sf); err != nil {
		t.Fatalf("LoadScene failed: %v", err)
	}
	return s, spoken
}

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-3
}

func connect(s *Session, id string, h controller.Handedness) {
	s.Registry.Post(controller.DeviceEvent{Kind: controller.Connected, ID: id, Handedness: h})
}

func TestStartEntersStartRoom(t *testing.T) {
	s, _ := newTestSession(t)
	var hall roomLog
	if err := s.AddRoom(hall.room("hall")); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if s.Room() != "hall" {
		t.Errorf("Expected hall, got %s", s.Room())
	}
	if hall.entered != 1 {
		t.Errorf("Expected 1 enter, got %d", hall.entered)
	}
	if !s.Scene.Room("hall").Active || s.Scene.Room("sound").Active {
		t.Error("Expected only hall to be visible")
	}
	if s.Index.Room() != "hall" {
		t.Errorf("Expected index room hall, got %s", s.Index.Room())
	}
}

func TestConnectAndDisconnectNarration(t *testing.T) {
	s, spoken := newTestSession(t)
	s.Start()

	connect(s, "r", controller.Right)
	s.Tick(0.016)
	if s.Registry.Len() != 1 {
		t.Fatalf("Expected 1 controller, got %d", s.Registry.Len())
	}
	if last, _ := spoken.Last(); last.Message != narration.ControllerConnected {
		t.Errorf("Expected %s, got %s", narration.ControllerConnected, last.Message)
	}

	s.Registry.Post(controller.DeviceEvent{Kind: controller.Disconnected, ID: "r"})
	s.Tick(0.016)
	if s.Registry.Len() != 0 {
		t.Errorf("Expected 0 controllers, got %d", s.Registry.Len())
	}
	if last, _ := spoken.Last(); last.Message != narration.ControllerDisconnected {
		t.Errorf("Expected %s, got %s", narration.ControllerDisconnected, last.Message)
	}
}

func TestRecomputeAfterTick(t *testing.T) {
	s, _ := newTestSession(t)
	s.Start()
	s.Tick(0.016)

	keys := s.Index.Keys()
	if len(keys) != 2 || keys[0] != "statue" || keys[1] != "exit_door" {
		t.Errorf("Expected [statue exit_door], got %v", keys)
	}
}

func TestSelectNextGesture(t *testing.T) {
	s, _ := newTestSession(t)
	s.Start()
	if err := s.BindAccessibilityGestures(); err != nil {
		t.Fatalf("BindAccessibilityGestures failed: %v", err)
	}

	connect(s, "r", controller.Right)
	s.Tick(0.016)
	s.UpdateController("r", camera.At(rl.Vector3{Y: 1}), []controller.Reading{
		{Name: "a", State: controller.Pressed},
		{Name: "squeeze", State: controller.Default},
	})
	s.Tick(0.016)

	if got := s.Index.Focus(); got != "statue" {
		t.Errorf("Expected focus statue, got %s", got)
	}

	// Held past the cooldown the gesture repeats.
	s.Tick(0.6)
	if got := s.Index.Focus(); got != "exit_door" {
		t.Errorf("Expected focus exit_door, got %s", got)
	}
}

func TestNavigationGesture(t *testing.T) {
	s, spoken := newTestSession(t)
	s.Start()
	s.BindAccessibilityGestures()

	connect(s, "r", controller.Right)
	s.Tick(0.016)
	s.Index.SetFocus("statue")
	s.UpdateController("r", camera.Identity(), []controller.Reading{
		{Name: "thumbstick", State: controller.Pressed},
		{Name: "squeeze", State: controller.Default},
	})
	s.Tick(0.016)

	last, _ := spoken.Last()
	if last.Message != narration.NavigationText {
		t.Fatalf("Expected %s, got %s", narration.NavigationText, last.Message)
	}
	if last.Params["clock"] != 12 || last.Params["distance"] != "2.0" {
		t.Errorf("Expected 12 o'clock at 2.0, got %v", last.Params)
	}
}

func TestGotoDeferredUntilEndOfTick(t *testing.T) {
	s, _ := newTestSession(t)
	var hall, photo roomLog
	hallRoom := hall.room("hall")
	requested := false
	hallRoom.OnExecute = func(s *Session, dt float64) {
		if requested {
			return
		}
		requested = true
		if err := s.Goto("photogrammetry"); err != nil {
			t.Errorf("Goto failed: %v", err)
		}
		if s.Room() != "hall" {
			t.Errorf("Expected room change to be deferred, got %s", s.Room())
		}
	}
	s.AddRoom(hallRoom)
	s.AddRoom(photo.room("photogrammetry"))
	s.Start()

	s.Resolver.RegisterAndActivate(interaction.State{Name: "paint"})
	s.Tick(0.016)

	if s.Room() != "photogrammetry" {
		t.Fatalf("Expected photogrammetry, got %s", s.Room())
	}
	if hall.exited != 1 || photo.entered != 1 {
		t.Errorf("Expected exit/enter once, got %d/%d", hall.exited, photo.entered)
	}
	if s.Resolver.IsActive("paint") {
		t.Error("Expected states deactivated on room change")
	}
	cam := s.CameraPose().Position
	if !approx(cam.X, 1) || !approx(cam.Z, 0) {
		t.Errorf("Expected camera over (1, 0), got %v", cam)
	}
	if s.Scene.Room("hall").Active || !s.Scene.Room("photogrammetry").Active {
		t.Error("Expected only photogrammetry visible")
	}
	if keys := s.Index.Keys(); len(keys) != 1 || keys[0] != "bust" {
		t.Errorf("Expected [bust], got %v", keys)
	}
}

func TestGotoUnknownRoom(t *testing.T) {
	s, _ := newTestSession(t)
	s.Start()
	if err := s.Goto("attic"); !errors.Is(err, ErrUnknownRoom) {
		t.Errorf("Expected ErrUnknownRoom, got %v", err)
	}
	if s.PendingRoom() != "" {
		t.Errorf("Expected no pending room, got %s", s.PendingRoom())
	}
}

func TestTeleportMovesRig(t *testing.T) {
	s, spoken := newTestSession(t)
	s.Start()
	s.Tick(0.016)
	s.Index.SetFocus("statue")

	if !s.Teleport() {
		t.Fatal("Expected teleport to succeed")
	}
	cam := s.CameraPose().Position
	if !approx(cam.X, 3) || !approx(cam.Z, -4) {
		t.Errorf("Expected camera over (3, -4), got %v", cam)
	}
	if !approx(cam.Y, 1.6) {
		t.Errorf("Expected eye height kept, got %v", cam.Y)
	}
	if last, _ := spoken.Last(); last.Message != narration.Teleport {
		t.Errorf("Expected %s, got %s", narration.Teleport, last.Message)
	}
}

func TestAfterRunsOnSceneTime(t *testing.T) {
	s, _ := newTestSession(t)
	s.Start()
	ran := 0
	s.After(1, func() { ran++ })

	s.Tick(0.5)
	if ran != 0 {
		t.Errorf("Expected timer pending, got %d runs", ran)
	}
	s.Tick(0.5)
	s.Tick(0.5)
	if ran != 1 {
		t.Errorf("Expected one run, got %d", ran)
	}
}

func TestEnterVR(t *testing.T) {
	s, spoken := newTestSession(t)
	s.Start()
	s.EnterVR()

	if r := s.Rig(); r.Z != 2 {
		t.Errorf("Expected rig at z=2, got %v", r)
	}
	s.Tick(1)
	if last, _ := spoken.Last(); last.Message != narration.EnterVR {
		t.Errorf("Expected %s, got %s", narration.EnterVR, last.Message)
	}
	for range 5 {
		s.Tick(1)
	}
	if last, _ := spoken.Last(); last.Message != narration.EnterVR4 {
		t.Errorf("Expected %s, got %s", narration.EnterVR4, last.Message)
	}
}

func TestControllerEntersArea(t *testing.T) {
	s, _ := newTestSession(t)
	s.Start()
	connect(s, "r", controller.Right)
	s.Tick(0.016)

	s.UpdateController("r", camera.At(rl.Vector3{Y: 1, Z: -1}), nil)
	s.Tick(0.016)
	if !s.Areas.Inside("easel", "r") {
		t.Error("Expected controller inside easel")
	}
}

func TestSpinnerAdvancesWithTick(t *testing.T) {
	s, _ := newTestSession(t)
	s.Start()
	s.Tick(1)
	turntable := s.Scene.FindInRoom("hall", "turntable")
	if !approx(turntable.Transform.Rotation.Y, 90) {
		t.Errorf("Expected 90 degrees, got %v", turntable.Transform.Rotation.Y)
	}
}

func TestRoomPanicRecovered(t *testing.T) {
	s, _ := newTestSession(t)
	s.AddRoom(&BasicRoom{Label: "hall", OnExecute: func(*Session, float64) { panic("boom") }})
	s.Start()
	s.Tick(0.016)
	if s.TickCount() != 1 {
		t.Errorf("Expected tick to complete, got %d", s.TickCount())
	}
}
