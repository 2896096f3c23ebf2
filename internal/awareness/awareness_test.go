package awareness

import (
	"testing"

	"xrmuseum/internal/camera"
	"xrmuseum/internal/controller"
	"xrmuseum/internal/engine"
	"xrmuseum/internal/narration"

	rl "github.com/gen2brain/raylib-go/raylib"
)

type fixture struct {
	scene   *engine.Scene
	catalog *Catalog
	index   *Index
	spoken  *narration.Recorder
	pose    camera.Pose
	nodes   map[string]*engine.GameObject
}

// newFixture builds a hall room with one mesh per entry of positions, each
// registered as a physical descriptor.
func newFixture(t *testing.T, positions map[string]rl.Vector3) *fixture {
	t.Helper()
	f := &fixture{
		scene:   engine.NewScene("museum"),
		catalog: NewCatalog(),
		spoken:  &narration.Recorder{},
		pose:    camera.Identity(),
		nodes:   make(map[string]*engine.GameObject),
	}
	hall := engine.NewGameObject("hall")
	f.scene.AddGameObject(hall)
	for name, pos := range positions {
		mesh := engine.NewMesh(name, 0.1)
		mesh.Transform.Position = pos
		hall.AddChild(mesh)
		f.nodes[name] = mesh
		if err := f.catalog.Add(&Descriptor{Key: name, Name: name + "_name", Description: name + "_description"}); err != nil {
			t.Fatalf("Add(%s) failed: %v", name, err)
		}
	}
	f.index = NewIndex(f.scene, f.catalog, WithAnnouncer(f.spoken))
	f.index.SetRoom("hall")
	return f
}

func (f *fixture) recompute() []string {
	return f.index.Recompute(camera.ExtractFrustum(f.pose, camera.DefaultLens()), f.pose)
}

func equalKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRecomputeSortsByNameInsideTieBand(t *testing.T) {
	f := newFixture(t, map[string]rl.Vector3{
		"zeta":  {Z: -3.1},
		"alpha": {X: 0.3, Z: -3.4},
	})
	got := f.recompute()
	if want := []string{"alpha", "zeta"}; !equalKeys(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestRecomputeSortsByDistanceOutsideTieBand(t *testing.T) {
	f := newFixture(t, map[string]rl.Vector3{
		"zeta":  {Z: -3},
		"alpha": {X: 0.3, Z: -4},
	})
	got := f.recompute()
	if want := []string{"zeta", "alpha"}; !equalKeys(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestTieBandsStartAtNearestElement(t *testing.T) {
	inputs := [][]Element{
		{{Key: "c", Distance: 3.0}, {Key: "a", Distance: 3.4}, {Key: "b", Distance: 3.8}},
		{{Key: "b", Distance: 3.8}, {Key: "a", Distance: 3.4}, {Key: "c", Distance: 3.0}},
		{{Key: "a", Distance: 3.4}, {Key: "b", Distance: 3.8}, {Key: "c", Distance: 3.0}},
	}
	want := []string{"a", "c", "b"}
	for _, elements := range inputs {
		sortElements(elements, DefaultTieEpsilon)
		got := make([]string, len(elements))
		for i, e := range elements {
			got[i] = e.Key
		}
		if !equalKeys(got, want) {
			t.Errorf("Expected %v, got %v", want, got)
		}
	}
}

func TestRecomputeSkipsHiddenAndOutOfView(t *testing.T) {
	f := newFixture(t, map[string]rl.Vector3{
		"front":  {Z: -2},
		"behind": {Z: 2},
		"hidden": {Z: -3},
	})
	f.nodes["hidden"].Active = false
	got := f.recompute()
	if want := []string{"front"}; !equalKeys(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestRecomputeIgnoresNodesWithoutDescriptor(t *testing.T) {
	f := newFixture(t, map[string]rl.Vector3{"statue": {Z: -2}})
	hall := f.scene.Room("hall")
	hall.AddChild(engine.NewMesh("floor", 5))
	got := f.recompute()
	if want := []string{"statue"}; !equalKeys(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestRecomputeTestsGroupsByBoundingSphere(t *testing.T) {
	f := newFixture(t, nil)
	group := engine.NewGameObject("bench")
	group.Transform.Position = rl.Vector3{Z: -3}
	part := engine.NewMesh("seat", 0.5)
	group.AddChild(part)
	f.scene.Room("hall").AddChild(group)
	if err := f.catalog.Add(&Descriptor{Key: "bench"}); err != nil {
		t.Fatal(err)
	}
	got := f.recompute()
	if want := []string{"bench"}; !equalKeys(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestRecomputeIncludesVirtualsOfCurrentRoom(t *testing.T) {
	f := newFixture(t, map[string]rl.Vector3{"statue": {Z: -2}})
	if err := f.catalog.AddVirtual(&Descriptor{Key: "door", Room: "hall", Position: rl.Vector3{Z: -6}}); err != nil {
		t.Fatal(err)
	}
	if err := f.catalog.AddVirtual(&Descriptor{Key: "gate", Room: "garden", Position: rl.Vector3{Z: -4}}); err != nil {
		t.Fatal(err)
	}
	got := f.recompute()
	if want := []string{"statue", "door"}; !equalKeys(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if el := f.index.Elements(); len(el) != 2 || !el[1].Virtual {
		t.Errorf("Expected door to be virtual, got %+v", el)
	}
}

func TestFocusNextWrapsAroundList(t *testing.T) {
	f := newFixture(t, map[string]rl.Vector3{
		"alpha": {Z: -2},
		"beta":  {Z: -4},
	})
	f.recompute()

	for _, want := range []string{"alpha", "beta", "alpha"} {
		if got := f.index.FocusNext(); got != want {
			t.Errorf("Expected focus %s, got %s", want, got)
		}
	}
	last, _ := f.spoken.Last()
	if last.Message != "alpha_name" {
		t.Errorf("Expected focused name to be announced, got %s", last.Message)
	}
}

func TestFocusNextWithNothingVisible(t *testing.T) {
	f := newFixture(t, map[string]rl.Vector3{"behind": {Z: 5}})
	f.recompute()
	if got := f.index.FocusNext(); got != "" {
		t.Errorf("Expected no focus, got %s", got)
	}
	if last, _ := f.spoken.Last(); last.Message != narration.NoObjectsAvailable {
		t.Errorf("Expected %s, got %s", narration.NoObjectsAvailable, last.Message)
	}
}

func TestDescendCycleAndAscend(t *testing.T) {
	f := newFixture(t, nil)
	statue := engine.NewMesh("statue", 0.3)
	statue.Transform.Position = rl.Vector3{Z: -2}
	f.scene.Room("hall").AddChild(statue)
	err := f.catalog.Add(&Descriptor{
		Key: "statue",
		Children: []*Descriptor{
			{Key: "head", Name: "head_name"},
			{Key: "base", Name: "base_name"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	f.recompute()
	f.index.FocusNext()

	if !f.index.FocusDescend() {
		t.Fatal("Expected descend to succeed")
	}
	if got := f.index.Focus(); got != "statue.head" {
		t.Errorf("Expected statue.head, got %s", got)
	}
	if got := f.index.FocusNext(); got != "statue.base" {
		t.Errorf("Expected statue.base, got %s", got)
	}
	if got := f.index.FocusNext(); got != "statue.head" {
		t.Errorf("Expected wrap to statue.head, got %s", got)
	}
	if !f.index.FocusAscend() {
		t.Fatal("Expected ascend to succeed")
	}
	if got := f.index.Focus(); got != "statue" {
		t.Errorf("Expected statue, got %s", got)
	}

	f.index.FocusDescend()
	f.index.FocusDescend()
	if last, _ := f.spoken.Last(); last.Message != narration.NoChildren {
		t.Errorf("Expected %s, got %s", narration.NoChildren, last.Message)
	}
	if !f.index.FocusToggleLevel() || f.index.Focus() != "statue" {
		t.Errorf("Expected toggle to ascend, got %s", f.index.Focus())
	}
	if !f.index.FocusToggleLevel() || f.index.Focus() != "statue.head" {
		t.Errorf("Expected toggle to descend, got %s", f.index.Focus())
	}
}

func TestDescendWithoutFocus(t *testing.T) {
	f := newFixture(t, map[string]rl.Vector3{"statue": {Z: -2}})
	f.recompute()
	if f.index.FocusDescend() {
		t.Error("Expected descend without focus to fail")
	}
	if last, _ := f.spoken.Last(); last.Message != narration.NoElementSelected {
		t.Errorf("Expected %s, got %s", narration.NoElementSelected, last.Message)
	}
}

func TestFocusClearedWhenNodeHidden(t *testing.T) {
	f := newFixture(t, map[string]rl.Vector3{"statue": {Z: -2}})
	f.recompute()
	f.index.FocusNext()

	var changes []string
	f.index.OnFocusChanged.AddListener(func(path string) { changes = append(changes, path) })
	f.spoken.Reset()

	f.nodes["statue"].Active = false
	f.recompute()
	if got := f.index.Focus(); got != "" {
		t.Errorf("Expected focus cleared, got %s", got)
	}
	if len(changes) != 1 || changes[0] != "" {
		t.Errorf("Expected one clear event, got %v", changes)
	}
	if n := len(f.spoken.All()); n != 0 {
		t.Errorf("Expected focus loss to be silent, got %d announcements", n)
	}
}

func TestFocusSurvivesLeavingFrustum(t *testing.T) {
	f := newFixture(t, map[string]rl.Vector3{"statue": {Z: -2}})
	f.recompute()
	f.index.FocusNext()

	f.pose = camera.YawPitch(rl.Vector3{}, 180, 0)
	f.recompute()
	if got := f.index.Focus(); got != "statue" {
		t.Errorf("Expected focus kept, got %s", got)
	}
}

func TestFocusClearedOnRoomChange(t *testing.T) {
	f := newFixture(t, map[string]rl.Vector3{"statue": {Z: -2}})
	if err := f.catalog.AddVirtual(&Descriptor{Key: "door", Room: "hall", Position: rl.Vector3{Z: -6}}); err != nil {
		t.Fatal(err)
	}
	f.recompute()
	if !f.index.SetFocus("door") {
		t.Fatal("Expected door to be focusable")
	}
	f.index.SetRoom("garden")
	if got := f.index.Focus(); got != "" {
		t.Errorf("Expected focus cleared, got %s", got)
	}
}

func TestNavigateAnnouncesClockAndDistance(t *testing.T) {
	tests := []struct {
		name     string
		pos      rl.Vector3
		clock    int
		distance string
	}{
		{"ahead", rl.Vector3{Z: -2}, 12, "2.0"},
		{"ahead right", rl.Vector3{X: 1.5, Z: -1.5}, 2, "2.1"},
		{"ahead left", rl.Vector3{X: -1.5, Z: -1.5}, 11, "2.1"},
	}

	for _, tt := range tests {
		f := newFixture(t, map[string]rl.Vector3{"statue": tt.pos})
		f.recompute()
		f.index.FocusNext()

		g, ok := f.index.Navigate(f.pose)
		if !ok {
			t.Fatalf("%s: expected navigation to succeed", tt.name)
		}
		if g.Clock != tt.clock {
			t.Errorf("%s: expected clock %d, got %d", tt.name, tt.clock, g.Clock)
		}
		last, _ := f.spoken.Last()
		if last.Message != narration.NavigationText {
			t.Errorf("%s: expected %s, got %s", tt.name, narration.NavigationText, last.Message)
		}
		if last.Params["clock"] != tt.clock || last.Params["distance"] != tt.distance {
			t.Errorf("%s: expected %d/%s, got %v", tt.name, tt.clock, tt.distance, last.Params)
		}
	}
}

func TestNavigateToVirtual(t *testing.T) {
	f := newFixture(t, nil)
	if err := f.catalog.AddVirtual(&Descriptor{Key: "door", Room: "hall", Position: rl.Vector3{Z: -5}}); err != nil {
		t.Fatal(err)
	}
	f.recompute()
	f.index.FocusNext()
	g, ok := f.index.Navigate(f.pose)
	if !ok || g.Clock != 12 {
		t.Errorf("Expected 12 o'clock, got %+v %v", g, ok)
	}
}

func TestTeleportTarget(t *testing.T) {
	f := newFixture(t, map[string]rl.Vector3{"statue": {Z: -2}})
	if _, ok := f.index.Teleport(); ok {
		t.Error("Expected teleport without focus to fail")
	}
	if last, _ := f.spoken.Last(); last.Message != narration.NoTeleport {
		t.Errorf("Expected %s, got %s", narration.NoTeleport, last.Message)
	}

	d, _ := f.catalog.Lookup("statue")
	d.Teleport = &Teleport{Position: rl.Vector3{X: 4}}
	f.recompute()
	f.index.FocusNext()
	target, ok := f.index.Teleport()
	if !ok || target.Position.X != 4 {
		t.Errorf("Expected teleport to x=4, got %+v %v", target, ok)
	}
	last, _ := f.spoken.Last()
	if last.Message != narration.Teleport || last.Params["object"] != "statue_name" {
		t.Errorf("Expected teleport announcement, got %+v", last)
	}
}

func TestInteract(t *testing.T) {
	f := newFixture(t, map[string]rl.Vector3{"statue": {Z: -2}})
	f.recompute()
	f.index.FocusNext()

	if f.index.Interact(controller.Right, nil) {
		t.Error("Expected no interaction")
	}
	if last, _ := f.spoken.Last(); last.Message != narration.NoInteractionAvailable {
		t.Errorf("Expected %s, got %s", narration.NoInteractionAvailable, last.Message)
	}

	var hand controller.Handedness
	f.catalog.SetInteraction("statue", func(h controller.Handedness, c *controller.Controller) { hand = h })
	if !f.index.Interact(controller.Left, nil) || hand != controller.Left {
		t.Errorf("Expected interaction with left hand, got %v", hand)
	}

	f.catalog.SetInteraction("statue", func(controller.Handedness, *controller.Controller) { panic("boom") })
	if f.index.Interact(controller.Left, nil) {
		t.Error("Expected panicking interaction to report false")
	}
}

func TestDescribeFocus(t *testing.T) {
	f := newFixture(t, map[string]rl.Vector3{"statue": {Z: -2}})
	f.recompute()
	f.index.DescribeFocus()
	if last, _ := f.spoken.Last(); last.Message != narration.NoElementSelected {
		t.Errorf("Expected %s, got %s", narration.NoElementSelected, last.Message)
	}
	f.index.FocusNext()
	f.index.DescribeFocus()
	if last, _ := f.spoken.Last(); last.Message != "statue_description" {
		t.Errorf("Expected statue_description, got %s", last.Message)
	}
}

func TestCatalogLookup(t *testing.T) {
	c := NewCatalog()
	err := c.Add(&Descriptor{Key: "statue", Children: []*Descriptor{
		{Key: "head", Children: []*Descriptor{{Key: "nose"}}},
	}})
	if err != nil {
		t.Fatal(err)
	}
	if d, ok := c.Lookup("statue.head.nose"); !ok || d.Path() != "statue.head.nose" {
		t.Errorf("Expected nested lookup, got %v %v", d, ok)
	}
	for _, path := range []string{"", "missing", "statue.tail", "statue.head.nose.tip"} {
		if _, ok := c.Lookup(path); ok {
			t.Errorf("Expected lookup of %q to fail", path)
		}
	}
	if err := c.Add(&Descriptor{Key: "statue"}); err == nil {
		t.Error("Expected duplicate key to fail")
	}
	if err := c.AddVirtual(&Descriptor{Key: "door"}); err == nil {
		t.Error("Expected virtual without room to fail")
	}
	if err := c.Add(&Descriptor{Key: "a.b"}); err == nil {
		t.Error("Expected dotted key to fail")
	}
}

func TestPathHelpers(t *testing.T) {
	if ParentPath("a.b.c") != "a.b" || ParentPath("a") != "" {
		t.Error("ParentPath mismatch")
	}
	if Leaf("a.b.c") != "c" || Leaf("a") != "a" {
		t.Error("Leaf mismatch")
	}
	if Root("a.b.c") != "a" || Root("a") != "a" {
		t.Error("Root mismatch")
	}
	if !IsChild("a.b") || IsChild("a") {
		t.Error("IsChild mismatch")
	}
}
