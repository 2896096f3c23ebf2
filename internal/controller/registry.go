package controller

import (
	"sync"

	"xrmuseum/internal/engine"
	"xrmuseum/internal/logging"
	"xrmuseum/internal/physics"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// DeviceEventKind distinguishes connect from disconnect notifications.
type DeviceEventKind int

const (
	Connected DeviceEventKind = iota
	Disconnected
)

// DeviceEvent is a host notification posted from any goroutine.
type DeviceEvent struct {
	Kind       DeviceEventKind
	ID         string
	Handedness Handedness
	Profile    string
}

// Attachment is a visual asset carried by a controller under a named slot.
type Attachment struct {
	Slot       string
	Controller string
	Asset      *engine.GameObject
}

// Registry owns the set of connected controllers. Everything except Post must
// be called from the tick goroutine.
type Registry struct {
	logger      logging.Logger
	halfExtents rl.Vector3
	controllers []*Controller
	byID        map[string]*Controller
	attachments map[string]Attachment
	grabbedBy   map[*engine.GameObject]string

	mu      sync.Mutex
	pending []DeviceEvent

	OnConnected    engine.EventWithArg[*Controller]
	OnDisconnected engine.EventWithArg[*Controller]
}

// NewRegistry creates an empty registry. halfExtents sizes each controller's
// proximity box.
func NewRegistry(logger logging.Logger, halfExtents rl.Vector3) *Registry {
	return &Registry{
		logger:      logging.OrDiscard(logger),
		halfExtents: halfExtents,
		byID:        make(map[string]*Controller),
		attachments: make(map[string]Attachment),
		grabbedBy:   make(map[*engine.GameObject]string),
	}
}

// Register adds a controller and fires OnConnected. Registering a known id
// keeps its place and identity, updates handedness and profile and resets the
// pose and readings without a second notification.
func (r *Registry) Register(id string, h Handedness, profile string) *Controller {
	if c, ok := r.byID[id]; ok {
		c.Handedness = h
		c.Profile = profile
		c.Pose = Pose{}
		c.Readings = nil
		return c
	}
	c := &Controller{
		ID:         id,
		Handedness: h,
		Profile:    profile,
		Bounds:     physics.AABB{Min: rl.Vector3Negate(r.halfExtents), Max: r.halfExtents},
	}
	r.controllers = append(r.controllers, c)
	r.byID[id] = c
	r.logger.Info("controller connected", "id", id, "hand", string(h), "profile", profile)
	r.OnConnected.Invoke(c)
	return c
}

// Unregister removes a controller, releases what it holds and fires
// OnDisconnected. Unknown ids are ignored.
func (r *Registry) Unregister(id string) {
	c, ok := r.byID[id]
	if !ok {
		return
	}
	r.Release(id)
	for slot, a := range r.attachments {
		if a.Controller == id {
			delete(r.attachments, slot)
		}
	}
	delete(r.byID, id)
	for i, other := range r.controllers {
		if other == c {
			r.controllers = append(r.controllers[:i], r.controllers[i+1:]...)
			break
		}
	}
	r.logger.Info("controller disconnected", "id", id, "hand", string(c.Handedness))
	r.OnDisconnected.Invoke(c)
}

// Update overwrites the pose and readings of a controller. Unknown ids are
// ignored.
func (r *Registry) Update(id string, pose Pose, readings []Reading) {
	c, ok := r.byID[id]
	if !ok {
		return
	}
	c.Pose = pose
	c.Readings = append(c.Readings[:0], readings...)
}

func (r *Registry) Get(id string) (*Controller, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// ByHandedness returns the first connected controller held in hand h.
func (r *Registry) ByHandedness(h Handedness) (*Controller, bool) {
	for _, c := range r.controllers {
		if c.Handedness == h {
			return c, true
		}
	}
	return nil, false
}

// Controllers returns the connected controllers in connection order.
func (r *Registry) Controllers() []*Controller {
	return append([]*Controller(nil), r.controllers...)
}

func (r *Registry) Len() int {
	return len(r.controllers)
}

// Snapshot returns the qualified readings of one controller.
func (r *Registry) Snapshot(id string) (Snapshot, bool) {
	c, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return c.Snapshot(), true
}

// Snapshots returns every connected controller's qualified readings by id.
func (r *Registry) Snapshots() map[string]Snapshot {
	out := make(map[string]Snapshot, len(r.controllers))
	for _, c := range r.controllers {
		out[c.ID] = c.Snapshot()
	}
	return out
}

// Post queues a device notification. Safe for concurrent use.
func (r *Registry) Post(ev DeviceEvent) {
	r.mu.Lock()
	r.pending = append(r.pending, ev)
	r.mu.Unlock()
}

// ApplyPending drains posted notifications in arrival order.
func (r *Registry) ApplyPending() int {
	r.mu.Lock()
	pending := r.pending
	r.pending = nil
	r.mu.Unlock()

	for _, ev := range pending {
		switch ev.Kind {
		case Connected:
			r.Register(ev.ID, ev.Handedness, ev.Profile)
		case Disconnected:
			r.Unregister(ev.ID)
		}
	}
	return len(pending)
}

// AddAttachment places asset in slot on controller id. A slot holds one
// occupant: a previous occupant on any controller is replaced.
func (r *Registry) AddAttachment(slot, id string, asset *engine.GameObject) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	if prev, ok := r.attachments[slot]; ok && prev.Controller != id {
		r.logger.Debug("attachment moved", "slot", slot, "from", prev.Controller, "to", id)
	}
	r.attachments[slot] = Attachment{Slot: slot, Controller: id, Asset: asset}
	return true
}

func (r *Registry) RemoveAttachment(slot string) (Attachment, bool) {
	a, ok := r.attachments[slot]
	delete(r.attachments, slot)
	return a, ok
}

func (r *Registry) Attachment(slot string) (Attachment, bool) {
	a, ok := r.attachments[slot]
	return a, ok
}

// HasAttachment reports whether slot is occupied.
func (r *Registry) HasAttachment(slot string) bool {
	_, ok := r.attachments[slot]
	return ok
}

// Grab makes controller id the single owner of obj. The controller's
// previous object is released, and obj is taken from any other holder in the
// same call.
func (r *Registry) Grab(id string, obj *engine.GameObject) bool {
	c, ok := r.byID[id]
	if !ok || obj == nil {
		return false
	}
	if c.grabbing == obj {
		return true
	}
	if prevID, held := r.grabbedBy[obj]; held {
		if prev, ok := r.byID[prevID]; ok {
			prev.grabbing = nil
		}
	}
	if c.grabbing != nil {
		delete(r.grabbedBy, c.grabbing)
	}
	c.grabbing = obj
	r.grabbedBy[obj] = id
	return true
}

// Release drops whatever controller id holds and returns it.
func (r *Registry) Release(id string) *engine.GameObject {
	c, ok := r.byID[id]
	if !ok || c.grabbing == nil {
		return nil
	}
	obj := c.grabbing
	c.grabbing = nil
	delete(r.grabbedBy, obj)
	return obj
}

// Grabbing returns the object held by controller id.
func (r *Registry) Grabbing(id string) *engine.GameObject {
	if c, ok := r.byID[id]; ok {
		return c.grabbing
	}
	return nil
}

// GrabbedBy returns the id of the controller holding obj.
func (r *Registry) GrabbedBy(obj *engine.GameObject) (string, bool) {
	id, ok := r.grabbedBy[obj]
	return id, ok
}
