package awareness

import (
	"fmt"
	"strings"

	"xrmuseum/internal/controller"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// InteractionFunc runs a descriptor's interaction for the given hand.
type InteractionFunc func(hand controller.Handedness, c *controller.Controller)

// Teleport is where the rig is moved when the visitor teleports to an
// element.
type Teleport struct {
	Position rl.Vector3
	Rotation rl.Vector3
}

// Descriptor is static metadata for a scene element. Physical descriptors
// are matched to scene nodes by Key; virtual ones carry their own position
// and room.
type Descriptor struct {
	Key         string
	Name        string // narration key for the element's name
	Description string // narration key for the element's description
	Teleport    *Teleport
	Interaction InteractionFunc
	Children    []*Descriptor

	Virtual  bool
	Position rl.Vector3
	Room     string

	path string
}

// Path is the dotted path of the descriptor inside its catalog.
func (d *Descriptor) Path() string {
	return d.path
}

// SpokenName falls back to the key when no name key is set.
func (d *Descriptor) SpokenName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.Key
}

// Child returns the direct child with the given key.
func (d *Descriptor) Child(key string) (*Descriptor, bool) {
	for _, c := range d.Children {
		if c.Key == key {
			return c, true
		}
	}
	return nil, false
}

// nextChildKey returns the key after key among the children, wrapping to
// the first. An unknown key also yields the first child.
func (d *Descriptor) nextChildKey(key string) (string, bool) {
	if len(d.Children) == 0 {
		return "", false
	}
	for i, c := range d.Children {
		if c.Key == key && i < len(d.Children)-1 {
			return d.Children[i+1].Key, true
		}
	}
	return d.Children[0].Key, true
}

// Catalog holds physical descriptors keyed by scene node name and virtual
// descriptors keyed by id.
type Catalog struct {
	physical map[string]*Descriptor
	virtual  map[string]*Descriptor
	order    []string
}

func NewCatalog() *Catalog {
	return &Catalog{
		physical: make(map[string]*Descriptor),
		virtual:  make(map[string]*Descriptor),
	}
}

// Add registers a physical descriptor tree.
func (c *Catalog) Add(d *Descriptor) error {
	if err := c.check(d); err != nil {
		return err
	}
	d.Virtual = false
	c.physical[d.Key] = d
	c.order = append(c.order, d.Key)
	assignPaths(d, "")
	return nil
}

// AddVirtual registers a descriptor without a scene node. Room is required.
func (c *Catalog) AddVirtual(d *Descriptor) error {
	if err := c.check(d); err != nil {
		return err
	}
	if d.Room == "" {
		return fmt.Errorf("virtual descriptor %q: missing room", d.Key)
	}
	d.Virtual = true
	c.virtual[d.Key] = d
	c.order = append(c.order, d.Key)
	assignPaths(d, "")
	return nil
}

func (c *Catalog) check(d *Descriptor) error {
	if d == nil || d.Key == "" {
		return fmt.Errorf("descriptor: missing key")
	}
	if strings.Contains(d.Key, ".") {
		return fmt.Errorf("descriptor %q: key must not contain '.'", d.Key)
	}
	if _, ok := c.physical[d.Key]; ok {
		return fmt.Errorf("descriptor %q: already registered", d.Key)
	}
	if _, ok := c.virtual[d.Key]; ok {
		return fmt.Errorf("descriptor %q: already registered", d.Key)
	}
	return nil
}

func assignPaths(d *Descriptor, parent string) {
	if parent == "" {
		d.path = d.Key
	} else {
		d.path = parent + "." + d.Key
	}
	for _, child := range d.Children {
		assignPaths(child, d.path)
	}
}

// Physical returns the root descriptor for a scene node name.
func (c *Catalog) Physical(name string) (*Descriptor, bool) {
	d, ok := c.physical[name]
	return d, ok
}

// Virtuals returns the virtual descriptors of room in registration order.
func (c *Catalog) Virtuals(room string) []*Descriptor {
	var out []*Descriptor
	for _, key := range c.order {
		if v, ok := c.virtual[key]; ok && v.Room == room {
			out = append(out, v)
		}
	}
	return out
}

// Lookup resolves a dotted path. Any missing segment yields false.
func (c *Catalog) Lookup(path string) (*Descriptor, bool) {
	if path == "" {
		return nil, false
	}
	segments := strings.Split(path, ".")
	d, ok := c.physical[segments[0]]
	if !ok {
		d, ok = c.virtual[segments[0]]
	}
	for _, seg := range segments[1:] {
		if !ok {
			break
		}
		d, ok = d.Child(seg)
	}
	if !ok {
		return nil, false
	}
	return d, true
}

// SetInteraction attaches fn to the descriptor at path.
func (c *Catalog) SetInteraction(path string, fn InteractionFunc) bool {
	d, ok := c.Lookup(path)
	if !ok {
		return false
	}
	d.Interaction = fn
	return true
}

func (c *Catalog) Len() int {
	return len(c.order)
}

// IsChild reports whether path addresses a nested descriptor.
func IsChild(path string) bool {
	return strings.Contains(path, ".")
}

// ParentPath drops the last segment.
func ParentPath(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[:i]
	}
	return ""
}

// Leaf returns the last segment.
func Leaf(path string) string {
	return path[strings.LastIndex(path, ".")+1:]
}

// Root returns the first segment.
func Root(path string) string {
	if i := strings.Index(path, "."); i >= 0 {
		return path[:i]
	}
	return path
}
