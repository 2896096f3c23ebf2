// Package awareness keeps the list of elements the visitor can currently see
// and the keyboard-less focus cursor that walks it.
package awareness

import (
	"fmt"
	"slices"
	"strings"

	"xrmuseum/internal/camera"
	"xrmuseum/internal/controller"
	"xrmuseum/internal/engine"
	"xrmuseum/internal/logging"
	"xrmuseum/internal/narration"
	"xrmuseum/internal/trace"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// DefaultTieEpsilon is the distance band inside which elements sort by name.
const DefaultTieEpsilon = 0.5

// Element is one entry of the visible list.
type Element struct {
	Key      string
	Distance float32
	Virtual  bool
}

type Option func(*Index)

func WithLogger(l logging.Logger) Option {
	return func(i *Index) { i.logger = logging.OrDiscard(l) }
}

func WithAnnouncer(a narration.Announcer) Option {
	return func(i *Index) { i.announcer = narration.OrDiscard(a) }
}

func WithTracer(t *trace.Recorder) Option {
	return func(i *Index) { i.tracer = t }
}

func WithTieEpsilon(eps float32) Option {
	return func(i *Index) {
		if eps >= 0 {
			i.epsilon = eps
		}
	}
}

// Index is the spatial awareness index for one scene.
type Index struct {
	logger    logging.Logger
	announcer narration.Announcer
	tracer    *trace.Recorder
	scene     *engine.Scene
	catalog   *Catalog
	epsilon   float32

	room     string
	elements []Element
	focus    string

	OnFocusChanged engine.EventWithArg[string]
}

func NewIndex(scene *engine.Scene, catalog *Catalog, opts ...Option) *Index {
	i := &Index{
		logger:    logging.Discard(),
		announcer: narration.OrDiscard(nil),
		scene:     scene,
		catalog:   catalog,
		epsilon:   DefaultTieEpsilon,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.catalog == nil {
		i.catalog = NewCatalog()
	}
	return i
}

func (i *Index) Catalog() *Catalog {
	return i.catalog
}

func (i *Index) Room() string {
	return i.room
}

// SetRoom switches the active room. A focus that no longer belongs to the
// room is dropped silently.
func (i *Index) SetRoom(room string) {
	i.room = room
	i.elements = nil
	if i.focus != "" && !i.focusVisible() {
		i.setFocus("")
	}
}

// Recompute rebuilds the visible list from the scene and the camera, then
// validates the focus against it.
func (i *Index) Recompute(frustum camera.Frustum, pose camera.Pose) []string {
	seen := make(map[string]bool)
	elements := make([]Element, 0, len(i.elements))

	if i.scene != nil {
		i.scene.TraverseVisible(func(g *engine.GameObject) {
			if g.Name == "" || seen[g.Name] {
				return
			}
			if _, ok := i.catalog.Physical(g.Name); !ok {
				return
			}
			if !inFrustum(&frustum, g) {
				return
			}
			seen[g.Name] = true
			elements = append(elements, Element{
				Key:      g.Name,
				Distance: pose.Distance(g.WorldPosition()),
			})
		})
	}

	for _, v := range i.catalog.Virtuals(i.room) {
		if seen[v.Key] || !frustum.ContainsPoint(v.Position) {
			continue
		}
		seen[v.Key] = true
		elements = append(elements, Element{
			Key:      v.Key,
			Distance: pose.Distance(v.Position),
			Virtual:  true,
		})
	}

	sortElements(elements, i.epsilon)
	i.elements = elements

	if i.focus != "" && !i.focusVisible() {
		i.logger.Debug("focus lost", "focus", i.focus, "room", i.room)
		i.setFocus("")
	}
	return i.Keys()
}

// sortElements orders by distance, then groups each run of elements lying
// within eps of the run's nearest member and orders the run by key.
func sortElements(elements []Element, eps float32) {
	slices.SortStableFunc(elements, func(a, b Element) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		}
		return strings.Compare(a.Key, b.Key)
	})
	for start := 0; start < len(elements); {
		end := start + 1
		for end < len(elements) && elements[end].Distance-elements[start].Distance < eps {
			end++
		}
		slices.SortStableFunc(elements[start:end], func(a, b Element) int {
			return strings.Compare(a.Key, b.Key)
		})
		start = end
	}
}

func inFrustum(f *camera.Frustum, g *engine.GameObject) bool {
	if g.Mesh {
		return f.ContainsSphere(g.WorldPosition(), g.WorldRadius())
	}
	if center, radius, ok := g.BoundingSphere(); ok {
		return f.ContainsSphere(center, radius)
	}
	return f.ContainsPoint(g.WorldPosition())
}

// Elements returns a copy of the visible list.
func (i *Index) Elements() []Element {
	return slices.Clone(i.elements)
}

// Keys returns the visible element keys in list order.
func (i *Index) Keys() []string {
	keys := make([]string, len(i.elements))
	for n, e := range i.elements {
		keys[n] = e.Key
	}
	return keys
}

func (i *Index) indexOf(key string) int {
	for n, e := range i.elements {
		if e.Key == key {
			return n
		}
	}
	return -1
}

// focusVisible reports whether the focus still resolves and still belongs to
// the active room.
func (i *Index) focusVisible() bool {
	if _, ok := i.catalog.Lookup(i.focus); !ok {
		return false
	}
	root := Root(i.focus)
	if v, ok := i.catalog.virtual[root]; ok {
		return v.Room == i.room
	}
	if i.scene == nil {
		return false
	}
	if node := i.scene.FindInRoom(i.room, root); node == nil || !node.Visible() {
		return false
	}
	return true
}

func (i *Index) setFocus(path string) {
	if path == i.focus {
		return
	}
	i.focus = path
	if err := i.tracer.Write(trace.Record{Kind: trace.KindFocus, Target: path, Detail: i.room}); err != nil {
		i.logger.Warn("trace write failed", "error", err)
	}
	i.OnFocusChanged.Invoke(path)
}

// Focus returns the focused path, or "" when nothing is focused.
func (i *Index) Focus() string {
	return i.focus
}

// ClearFocus drops the focus without narration.
func (i *Index) ClearFocus() {
	i.setFocus("")
}

// SetFocus focuses path if it resolves and is visible in the active room.
func (i *Index) SetFocus(path string) bool {
	prev := i.focus
	i.focus = path
	ok := i.focusVisible()
	i.focus = prev
	if !ok {
		return false
	}
	i.setFocus(path)
	return true
}

func (i *Index) announce(message string, params map[string]any) {
	i.announcer.Announce(message, params)
}

func (i *Index) announceFocus() {
	if d, ok := i.catalog.Lookup(i.focus); ok {
		i.announce(d.SpokenName(), nil)
	}
}

// FocusNext moves to the next sibling. Nested elements cycle through their
// parent's children; top level elements cycle through the visible list.
// Both wrap around.
func (i *Index) FocusNext() string {
	if len(i.elements) == 0 {
		i.announce(narration.NoObjectsAvailable, nil)
		return ""
	}
	if IsChild(i.focus) {
		parentPath := ParentPath(i.focus)
		if parent, ok := i.catalog.Lookup(parentPath); ok {
			if key, ok := parent.nextChildKey(Leaf(i.focus)); ok {
				i.setFocus(parentPath + "." + key)
				i.announceFocus()
				return i.focus
			}
		}
	}
	next := 0
	if n := i.indexOf(Root(i.focus)); n >= 0 && n < len(i.elements)-1 {
		next = n + 1
	}
	i.setFocus(i.elements[next].Key)
	i.announceFocus()
	return i.focus
}

// FocusDescend moves to the first child of the focused element.
func (i *Index) FocusDescend() bool {
	if i.focus == "" {
		i.announce(narration.NoElementSelected, nil)
		return false
	}
	d, ok := i.catalog.Lookup(i.focus)
	if !ok {
		i.setFocus("")
		i.announce(narration.LostFocus, nil)
		return false
	}
	if len(d.Children) == 0 {
		i.announce(narration.NoChildren, nil)
		return false
	}
	i.setFocus(i.focus + "." + d.Children[0].Key)
	i.announceFocus()
	return true
}

// FocusAscend moves to the parent of a nested focus.
func (i *Index) FocusAscend() bool {
	if i.focus == "" {
		i.announce(narration.NoElementSelected, nil)
		return false
	}
	if !IsChild(i.focus) {
		return false
	}
	i.setFocus(ParentPath(i.focus))
	i.announceFocus()
	return true
}

// FocusToggleLevel ascends from a nested focus and descends otherwise.
func (i *Index) FocusToggleLevel() bool {
	if len(i.elements) == 0 {
		i.setFocus("")
		i.announce(narration.LostFocus, nil)
		return false
	}
	if IsChild(i.focus) {
		return i.FocusAscend()
	}
	return i.FocusDescend()
}

// Describe returns the descriptor at path.
func (i *Index) Describe(path string) (*Descriptor, bool) {
	return i.catalog.Lookup(path)
}

// DescribeFocus announces the description of the focused element.
func (i *Index) DescribeFocus() bool {
	if len(i.elements) == 0 {
		i.announce(narration.NoObjectsAvailable, nil)
		return false
	}
	if i.focus == "" {
		i.announce(narration.NoElementSelected, nil)
		return false
	}
	d, ok := i.catalog.Lookup(i.focus)
	if !ok {
		i.setFocus("")
		i.announce(narration.LostFocus, nil)
		return false
	}
	i.announce(d.Description, nil)
	return true
}

// Position returns the world position of the element at path. Scene nodes
// win over descriptor positions.
func (i *Index) Position(path string) (rl.Vector3, bool) {
	if i.scene != nil {
		if node := i.scene.FindInRoom(i.room, Leaf(path)); node != nil {
			return node.WorldPosition(), true
		}
	}
	if d, ok := i.catalog.Lookup(path); ok && d.Virtual {
		return d.Position, true
	}
	return rl.Vector3{}, false
}

// Guidance is the result of Navigate.
type Guidance struct {
	Clock    int
	Bearing  float32
	Distance float32
}

// Navigate announces the clock direction and distance from pose to the
// focused element.
func (i *Index) Navigate(pose camera.Pose) (Guidance, bool) {
	if len(i.elements) == 0 {
		i.announce(narration.NoObjectsAvailable, nil)
		return Guidance{}, false
	}
	if i.focus == "" {
		i.announce(narration.NoElementSelected, nil)
		return Guidance{}, false
	}
	target, ok := i.Position(i.focus)
	if !ok {
		i.announce(narration.NoElementSelected, nil)
		return Guidance{}, false
	}
	bearing := camera.Bearing(pose, target)
	g := Guidance{
		Clock:    camera.ClockSector(bearing),
		Bearing:  bearing,
		Distance: pose.Distance(target),
	}
	i.announce(narration.NavigationText, map[string]any{
		"clock":    g.Clock,
		"distance": fmt.Sprintf("%.1f", g.Distance),
	})
	return g, true
}

// Teleport returns the teleport target of the focused element and announces
// the result.
func (i *Index) Teleport() (Teleport, bool) {
	d, ok := i.catalog.Lookup(i.focus)
	if !ok || d.Teleport == nil {
		i.announce(narration.NoTeleport, nil)
		return Teleport{}, false
	}
	i.announce(narration.Teleport, map[string]any{"object": d.SpokenName()})
	return *d.Teleport, true
}

// Interact runs the focused element's interaction for hand. A panicking
// interaction is logged and reported as not run.
func (i *Index) Interact(hand controller.Handedness, c *controller.Controller) (ran bool) {
	if len(i.elements) == 0 {
		i.announce(narration.NoObjectsAvailable, nil)
		return false
	}
	if i.focus == "" {
		i.announce(narration.NoElementSelected, nil)
		return false
	}
	d, ok := i.catalog.Lookup(i.focus)
	if !ok || d.Interaction == nil {
		i.announce(narration.NoInteractionAvailable, nil)
		return false
	}
	defer func() {
		if p := recover(); p != nil {
			i.logger.Error("interaction panicked", "element", i.focus, "panic", p)
			ran = false
		}
	}()
	d.Interaction(hand, c)
	return true
}
