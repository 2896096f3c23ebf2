package world

import (
	"encoding/json"
	"fmt"
	"os"

	"xrmuseum/internal/area"
	"xrmuseum/internal/awareness"
	"xrmuseum/internal/engine"
	"xrmuseum/internal/physics"
	_ "xrmuseum/internal/scripts"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// --- JSON types ---

// SceneFile describes the rooms of a museum, their nodes and the element
// catalogue.
type SceneFile struct {
	Rooms    []RoomDef       `json:"rooms"`
	Virtuals []DescriptorDef `json:"virtuals,omitempty"`
}

type RoomDef struct {
	Name     string      `json:"name"`
	Position [3]float32  `json:"position,omitempty"`
	Objects  []ObjectDef `json:"objects"`
	Areas    []AreaDef   `json:"areas,omitempty"`
}

type ObjectDef struct {
	Name       string            `json:"name"`
	Tags       []string          `json:"tags,omitempty"`
	Position   [3]float32        `json:"position"`
	Rotation   [3]float32        `json:"rotation"`
	Scale      [3]float32        `json:"scale"`
	Hidden     bool              `json:"hidden,omitempty"`
	Components []json.RawMessage `json:"components,omitempty"`
	Children   []ObjectDef       `json:"children,omitempty"`
	Element    *DescriptorDef    `json:"element,omitempty"`
}

// DescriptorDef is the static metadata of an element. Key defaults to the
// owning object's name.
type DescriptorDef struct {
	Key         string          `json:"key,omitempty"`
	Name        string          `json:"name,omitempty"`
	Description string          `json:"description,omitempty"`
	Teleport    *TeleportDef    `json:"teleport,omitempty"`
	Position    [3]float32      `json:"position,omitempty"`
	Room        string          `json:"room,omitempty"`
	Children    []DescriptorDef `json:"children,omitempty"`
}

type TeleportDef struct {
	Position [3]float32 `json:"position"`
	Rotation [3]float32 `json:"rotation,omitempty"`
}

type AreaDef struct {
	Name   string     `json:"name"`
	Center [3]float32 `json:"center"`
	Size   [3]float32 `json:"size"`
}

type componentHeader struct {
	Type string `json:"type"`
}

type meshDef struct {
	Type   string  `json:"type"`
	Radius float32 `json:"radius"`
}

type boxColliderDef struct {
	Type   string     `json:"type"`
	Size   [3]float32 `json:"size"`
	Offset [3]float32 `json:"offset,omitempty"`
}

type sphereColliderDef struct {
	Type   string     `json:"type"`
	Radius float32    `json:"radius"`
	Offset [3]float32 `json:"offset,omitempty"`
}

type scriptDef struct {
	Type  string         `json:"type"`
	Name  string         `json:"name"`
	Props map[string]any `json:"props,omitempty"`
}

func vec(v [3]float32) rl.Vector3 {
	return rl.Vector3{X: v[0], Y: v[1], Z: v[2]}
}

func arr(v rl.Vector3) [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}

// --- Loading ---

func LoadSceneFile(path string) (*SceneFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	return ParseSceneFile(data)
}

func ParseSceneFile(data []byte) (*SceneFile, error) {
	var sf SceneFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	return &sf, nil
}

// Build adds every room to scene, registers elements in catalog and areas in
// checker. checker may be nil.
func (sf *SceneFile) Build(scene *engine.Scene, catalog *awareness.Catalog, checker *area.Checker) error {
	for _, rd := range sf.Rooms {
		if rd.Name == "" {
			return fmt.Errorf("scene: room without name")
		}
		if scene.Room(rd.Name) != nil {
			return fmt.Errorf("scene: room %q defined twice", rd.Name)
		}
		root := engine.NewGameObject(rd.Name)
		root.Transform.Position = vec(rd.Position)
		scene.AddGameObject(root)

		for _, od := range rd.Objects {
			g, err := buildObject(od, catalog)
			if err != nil {
				return fmt.Errorf("room %q: %w", rd.Name, err)
			}
			root.AddChild(g)
		}

		if checker == nil {
			continue
		}
		for _, ad := range rd.Areas {
			box := area.Box{
				Label:  ad.Name,
				Bounds: physics.NewAABBFromCenter(rl.Vector3Add(root.Transform.Position, vec(ad.Center)), vec(ad.Size)),
			}
			if err := checker.AddArea(box, nil, nil); err != nil {
				return fmt.Errorf("room %q: %w", rd.Name, err)
			}
		}
	}

	for _, vd := range sf.Virtuals {
		d := descriptorFromDef(vd, vd.Key)
		d.Position = vec(vd.Position)
		d.Room = vd.Room
		if err := catalog.AddVirtual(d); err != nil {
			return fmt.Errorf("scene: %w", err)
		}
	}
	return nil
}

func buildObject(od ObjectDef, catalog *awareness.Catalog) (*engine.GameObject, error) {
	g := engine.NewGameObject(od.Name)
	g.Tags = od.Tags
	g.Active = !od.Hidden
	g.Transform.Position = vec(od.Position)
	g.Transform.Rotation = vec(od.Rotation)

	// Default scale to 1 if zero
	if od.Scale == [3]float32{} {
		g.Transform.Scale = rl.Vector3{X: 1, Y: 1, Z: 1}
	} else {
		g.Transform.Scale = vec(od.Scale)
	}

	for _, raw := range od.Components {
		var header componentHeader
		if err := json.Unmarshal(raw, &header); err != nil {
			continue
		}

		switch header.Type {
		case "Mesh":
			loadMesh(g, raw)
		case "BoxCollider":
			loadBoxCollider(g, raw)
		case "SphereCollider":
			loadSphereCollider(g, raw)
		case "Script":
			loadScript(g, raw)
		}
	}

	for _, cd := range od.Children {
		child, err := buildObject(cd, catalog)
		if err != nil {
			return nil, err
		}
		g.AddChild(child)
	}

	if od.Element != nil && catalog != nil {
		if err := catalog.Add(descriptorFromDef(*od.Element, od.Name)); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func descriptorFromDef(dd DescriptorDef, key string) *awareness.Descriptor {
	if dd.Key != "" {
		key = dd.Key
	}
	d := &awareness.Descriptor{
		Key:         key,
		Name:        dd.Name,
		Description: dd.Description,
	}
	if dd.Teleport != nil {
		d.Teleport = &awareness.Teleport{
			Position: vec(dd.Teleport.Position),
			Rotation: vec(dd.Teleport.Rotation),
		}
	}
	for _, cd := range dd.Children {
		d.Children = append(d.Children, descriptorFromDef(cd, cd.Key))
	}
	return d
}

func loadMesh(g *engine.GameObject, raw json.RawMessage) {
	var def meshDef
	if err := json.Unmarshal(raw, &def); err != nil {
		return
	}
	g.Mesh = true
	g.Radius = def.Radius
}

func loadBoxCollider(g *engine.GameObject, raw json.RawMessage) {
	var def boxColliderDef
	if err := json.Unmarshal(raw, &def); err != nil {
		return
	}
	col := physics.NewBoxCollider(vec(def.Size))
	col.Offset = vec(def.Offset)
	g.AddComponent(col)
}

func loadSphereCollider(g *engine.GameObject, raw json.RawMessage) {
	var def sphereColliderDef
	if err := json.Unmarshal(raw, &def); err != nil {
		return
	}
	col := physics.NewSphereCollider(def.Radius)
	col.Offset = vec(def.Offset)
	g.AddComponent(col)
}

func loadScript(g *engine.GameObject, raw json.RawMessage) {
	var def scriptDef
	if err := json.Unmarshal(raw, &def); err != nil {
		return
	}
	if comp := engine.CreateScript(def.Name, def.Props); comp != nil {
		g.AddComponent(comp)
	}
}

// --- Saving ---

// SaveSceneFile writes the rooms of scene and the catalogue back to path.
// Areas are not persisted.
func SaveSceneFile(path string, scene *engine.Scene, catalog *awareness.Catalog) error {
	sf := Snapshot(scene, catalog)
	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal scene: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write scene: %w", err)
	}

	return nil
}

// Snapshot converts a scene and catalogue into a scene file.
func Snapshot(scene *engine.Scene, catalog *awareness.Catalog) *SceneFile {
	sf := &SceneFile{}
	for _, root := range scene.Roots() {
		rd := RoomDef{Name: root.Name, Position: arr(root.Transform.Position)}
		for _, g := range root.Children {
			rd.Objects = append(rd.Objects, objectDef(g, catalog))
		}
		sf.Rooms = append(sf.Rooms, rd)
		if catalog == nil {
			continue
		}
		for _, v := range catalog.Virtuals(root.Name) {
			vd := descriptorDef(v)
			vd.Key = v.Key
			vd.Position = arr(v.Position)
			vd.Room = v.Room
			sf.Virtuals = append(sf.Virtuals, vd)
		}
	}
	return sf
}

func objectDef(g *engine.GameObject, catalog *awareness.Catalog) ObjectDef {
	od := ObjectDef{
		Name:     g.Name,
		Tags:     g.Tags,
		Position: arr(g.Transform.Position),
		Rotation: arr(g.Transform.Rotation),
		Scale:    arr(g.Transform.Scale),
		Hidden:   !g.Active,
	}
	if g.Mesh {
		if raw := marshalComponent(meshDef{Type: "Mesh", Radius: g.Radius}); raw != nil {
			od.Components = append(od.Components, raw)
		}
	}
	for _, c := range g.Components() {
		if raw := serializeComponent(c); raw != nil {
			od.Components = append(od.Components, raw)
		}
	}
	for _, child := range g.Children {
		od.Children = append(od.Children, objectDef(child, catalog))
	}
	if catalog != nil {
		if d, ok := catalog.Physical(g.Name); ok {
			dd := descriptorDef(d)
			od.Element = &dd
		}
	}
	return od
}

func descriptorDef(d *awareness.Descriptor) DescriptorDef {
	dd := DescriptorDef{Name: d.Name, Description: d.Description}
	if d.Teleport != nil {
		dd.Teleport = &TeleportDef{Position: arr(d.Teleport.Position), Rotation: arr(d.Teleport.Rotation)}
	}
	for _, c := range d.Children {
		cd := descriptorDef(c)
		cd.Key = c.Key
		dd.Children = append(dd.Children, cd)
	}
	return dd
}

func serializeComponent(c engine.Component) json.RawMessage {
	var def any

	switch comp := c.(type) {
	case *physics.BoxCollider:
		def = boxColliderDef{
			Type:   "BoxCollider",
			Size:   arr(comp.Size),
			Offset: arr(comp.Offset),
		}

	case *physics.SphereCollider:
		def = sphereColliderDef{
			Type:   "SphereCollider",
			Radius: comp.Radius,
			Offset: arr(comp.Offset),
		}

	default:
		if name, props, ok := engine.SerializeScript(c); ok {
			def = scriptDef{Type: "Script", Name: name, Props: props}
		} else {
			return nil
		}
	}

	return marshalComponent(def)
}

func marshalComponent(def any) json.RawMessage {
	data, err := json.Marshal(def)
	if err != nil {
		return nil
	}
	return data
}

// LoadScene builds sf into the session's scene, catalogue and area checker.
func (s *Session) LoadScene(sf *SceneFile) error {
	return sf.Build(s.Scene, s.Index.Catalog(), s.Areas)
}
