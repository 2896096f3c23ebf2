package controller

import (
	"sync"
	"testing"

	"xrmuseum/internal/camera"
	"xrmuseum/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func newRegistry() *Registry {
	return NewRegistry(nil, rl.Vector3{X: 0.1, Y: 0.1, Z: 0.1})
}

func TestQualifiedID(t *testing.T) {
	tests := []struct {
		hand Handedness
		name string
		want string
	}{
		{Right, "a", "right-a"},
		{Left, "xr-standard-thumbstick", "left-thumbstick"},
		{Right, "XR Standard Squeeze", "right-squeeze"},
		{Left, "menu_button", "left-menu-button"},
	}
	for _, tt := range tests {
		if got := QualifiedID(tt.hand, tt.name); got != tt.want {
			t.Errorf("QualifiedID(%s, %q): expected %q, got %q", tt.hand, tt.name, tt.want, got)
		}
	}
}

func TestParseHandednessAndState(t *testing.T) {
	if h, err := ParseHandedness("LEFT"); err != nil || h != Left {
		t.Errorf("Expected left, got %s (%v)", h, err)
	}
	if _, err := ParseHandedness("middle"); err == nil {
		t.Error("Expected error for unknown handedness")
	}
	if Left.Opposite() != Right || None.Opposite() != None {
		t.Error("Opposite mapping is wrong")
	}
	if s, err := ParseButtonState("Pressed"); err != nil || s != Pressed {
		t.Errorf("Expected pressed, got %s (%v)", s, err)
	}
	var s ButtonState
	if err := s.UnmarshalText([]byte("touched")); err != nil || s != Touched {
		t.Errorf("Expected touched, got %s (%v)", s, err)
	}
}

func TestRegisterEmitsConnected(t *testing.T) {
	r := newRegistry()
	var connected []string
	r.OnConnected.AddListener(func(c *Controller) { connected = append(connected, c.ID) })

	r.Register("0", Right, "oculus-touch")
	r.Register("1", Left, "oculus-touch")
	r.Register("0", Right, "oculus-touch-v3")

	if len(connected) != 2 {
		t.Fatalf("Expected 2 connect events, got %d", len(connected))
	}
	if r.Len() != 2 {
		t.Errorf("Expected 2 controllers, got %d", r.Len())
	}
	c, _ := r.Get("0")
	if c.Profile != "oculus-touch-v3" {
		t.Errorf("Expected profile to be updated, got %s", c.Profile)
	}
	if r.Controllers()[0].ID != "0" {
		t.Error("Expected re-registration to keep connection order")
	}
}

func TestUnknownIDsAreNoops(t *testing.T) {
	r := newRegistry()
	disconnects := 0
	r.OnDisconnected.AddListener(func(*Controller) { disconnects++ })

	r.Unregister("ghost")
	r.Update("ghost", camera.Identity(), []Reading{{Name: "a", State: Pressed}})
	if _, ok := r.Snapshot("ghost"); ok {
		t.Error("Expected no snapshot for unknown id")
	}
	if r.Grab("ghost", engine.NewGameObject("x")) {
		t.Error("Expected grab by unknown id to fail")
	}
	if disconnects != 0 {
		t.Errorf("Expected no disconnect events, got %d", disconnects)
	}
}

func TestSnapshotIsQualifiedAndOverwritten(t *testing.T) {
	r := newRegistry()
	r.Register("r", Right, "generic")
	r.Register("l", Left, "generic")

	r.Update("r", camera.Identity(), []Reading{{Name: "a", State: Pressed}, {Name: "xr-standard-thumbstick", XAxis: 0.7, HasX: true}})
	r.Update("l", camera.Identity(), []Reading{{Name: "a", State: Touched}})
	r.Update("r", camera.Identity(), []Reading{{Name: "b", State: Pressed}})

	all := r.Snapshots()
	if _, ok := all["r"].Get("right-a"); ok {
		t.Error("Expected old readings to be overwritten")
	}
	if rd, ok := all["r"].Get("right-b"); !ok || rd.State != Pressed {
		t.Error("Expected right-b pressed")
	}
	if rd, ok := all["l"].Get("left-a"); !ok || rd.State != Touched {
		t.Error("Expected left-a touched")
	}
}

func TestUnregisterReleasesHoldings(t *testing.T) {
	r := newRegistry()
	r.Register("r", Right, "generic")
	obj := engine.NewGameObject("mallet")
	r.Grab("r", obj)
	r.AddAttachment("hand-model", "r", engine.NewGameObject("model"))

	var gone *Controller
	r.OnDisconnected.AddListener(func(c *Controller) { gone = c })
	r.Unregister("r")

	if gone == nil || gone.ID != "r" {
		t.Fatal("Expected disconnect event for r")
	}
	if _, held := r.GrabbedBy(obj); held {
		t.Error("Expected object to be released")
	}
	if r.HasAttachment("hand-model") {
		t.Error("Expected attachment slot to be cleared")
	}
}

func TestGrabSingleOwner(t *testing.T) {
	r := newRegistry()
	r.Register("r", Right, "generic")
	r.Register("l", Left, "generic")
	mallet := engine.NewGameObject("mallet")
	brush := engine.NewGameObject("brush")

	r.Grab("r", mallet)
	r.Grab("l", mallet)

	if r.Grabbing("r") != nil {
		t.Error("Expected previous owner slot to be cleared")
	}
	if id, _ := r.GrabbedBy(mallet); id != "l" {
		t.Errorf("Expected l to own mallet, got %s", id)
	}

	r.Grab("l", brush)
	if _, held := r.GrabbedBy(mallet); held {
		t.Error("Expected mallet to be dropped when l grabbed brush")
	}
	if r.Release("l") != brush {
		t.Error("Expected release to return brush")
	}
	if r.Release("l") != nil {
		t.Error("Expected second release to return nil")
	}
}

func TestAttachmentSlotHasOneOccupant(t *testing.T) {
	r := newRegistry()
	r.Register("r", Right, "generic")
	r.Register("l", Left, "generic")

	r.AddAttachment("palette", "r", engine.NewGameObject("palette"))
	r.AddAttachment("palette", "l", engine.NewGameObject("palette2"))

	a, ok := r.Attachment("palette")
	if !ok || a.Controller != "l" || a.Asset.Name != "palette2" {
		t.Errorf("Expected palette on l, got %+v", a)
	}
	if r.AddAttachment("palette", "ghost", nil) {
		t.Error("Expected attaching to unknown controller to fail")
	}
	if _, ok := r.RemoveAttachment("palette"); !ok {
		t.Error("Expected remove to report the occupant")
	}
	if r.HasAttachment("palette") {
		t.Error("Expected slot to be empty")
	}
}

func TestPostAppliesAtTickBoundary(t *testing.T) {
	r := newRegistry()

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			r.Post(DeviceEvent{Kind: Connected, ID: id, Handedness: Right})
		}(id)
	}
	wg.Wait()

	if r.Len() != 0 {
		t.Fatal("Expected posted events to wait for ApplyPending")
	}
	if n := r.ApplyPending(); n != 3 {
		t.Errorf("Expected 3 applied events, got %d", n)
	}
	r.Post(DeviceEvent{Kind: Disconnected, ID: "b"})
	r.ApplyPending()
	if r.Len() != 2 {
		t.Errorf("Expected 2 controllers, got %d", r.Len())
	}
}

func TestRayAndBoundsFollowPose(t *testing.T) {
	r := newRegistry()
	c := r.Register("r", Right, "generic")
	r.Update("r", camera.At(rl.Vector3{X: 1, Y: 1}), nil)

	ray := c.Ray()
	if ray.Direction.Z > -0.99 {
		t.Errorf("Expected ray along -Z, got %v", ray.Direction)
	}
	b := c.WorldBounds()
	if !b.ContainsPoint(rl.Vector3{X: 1.05, Y: 1}) || b.ContainsPoint(rl.Vector3{X: 1.2, Y: 1}) {
		t.Errorf("Unexpected world bounds %+v", b)
	}
}
