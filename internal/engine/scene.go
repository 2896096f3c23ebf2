package engine

// Scene holds every registered GameObject. Nodes without a parent are roots;
// by convention each room owns one root named after the room.
type Scene struct {
	Name        string
	GameObjects []*GameObject
	uidMap      map[uint64]*GameObject
}

func NewScene(name string) *Scene {
	return &Scene{
		Name:        name,
		GameObjects: make([]*GameObject, 0),
		uidMap:      make(map[uint64]*GameObject),
	}
}

// AddGameObject registers g and any descendants it already has.
func (s *Scene) AddGameObject(g *GameObject) {
	if s.uidMap == nil {
		s.uidMap = make(map[uint64]*GameObject)
	}
	if _, exists := s.uidMap[g.UID]; exists {
		return
	}
	g.Scene = s
	s.GameObjects = append(s.GameObjects, g)
	s.uidMap[g.UID] = g
	for _, c := range g.Children {
		s.AddGameObject(c)
	}
}

// RemoveGameObject unregisters g together with its subtree.
func (s *Scene) RemoveGameObject(g *GameObject) {
	for _, c := range g.Children {
		s.RemoveGameObject(c)
	}
	for i, obj := range s.GameObjects {
		if obj == g {
			s.GameObjects = append(s.GameObjects[:i], s.GameObjects[i+1:]...)
			break
		}
	}
	delete(s.uidMap, g.UID)
	g.Scene = nil
}

func (s *Scene) FindByUID(uid uint64) *GameObject {
	return s.uidMap[uid]
}

func (s *Scene) FindByName(name string) *GameObject {
	for _, g := range s.GameObjects {
		if g.Name == name {
			return g
		}
	}
	return nil
}

func (s *Scene) FindByTag(tag string) []*GameObject {
	var result []*GameObject
	for _, g := range s.GameObjects {
		if g.HasTag(tag) {
			result = append(result, g)
		}
	}
	return result
}

// Roots returns the parentless nodes in registration order.
func (s *Scene) Roots() []*GameObject {
	var roots []*GameObject
	for _, g := range s.GameObjects {
		if g.Parent == nil {
			roots = append(roots, g)
		}
	}
	return roots
}

// Room returns the root node for the named room.
func (s *Scene) Room(room string) *GameObject {
	for _, g := range s.GameObjects {
		if g.Parent == nil && g.Name == room {
			return g
		}
	}
	return nil
}

// FindInRoom resolves name inside the subtree of the room root. Missing rooms
// and names resolve to nil.
func (s *Scene) FindInRoom(room, name string) *GameObject {
	root := s.Room(room)
	if root == nil {
		return nil
	}
	if root.Name == name {
		return root
	}
	return root.FindChild(name)
}

// ShowOnly activates the named room root and deactivates every other root.
func (s *Scene) ShowOnly(room string) {
	for _, g := range s.Roots() {
		g.Active = g.Name == room
	}
}

// TraverseVisible walks active nodes depth-first starting at the roots.
// Inactive nodes hide their whole subtree.
func (s *Scene) TraverseVisible(fn func(g *GameObject)) {
	var walk func(g *GameObject)
	walk = func(g *GameObject) {
		if !g.Active {
			return
		}
		fn(g)
		for _, c := range g.Children {
			walk(c)
		}
	}
	for _, root := range s.Roots() {
		walk(root)
	}
}

func (s *Scene) Start() {
	for _, g := range s.GameObjects {
		g.Start()
	}
}

func (s *Scene) Update(deltaTime float32) {
	for _, g := range s.GameObjects {
		if g.Visible() {
			g.Update(deltaTime)
		}
	}
}
