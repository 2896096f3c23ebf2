package area

import (
	"testing"

	"xrmuseum/internal/engine"
	"xrmuseum/internal/physics"

	rl "github.com/gen2brain/raylib-go/raylib"
)

type movingVolume struct {
	name   string
	center rl.Vector3
}

func (m *movingVolume) Name() string { return m.name }

func (m *movingVolume) WorldBounds() physics.AABB {
	return physics.NewAABBFromCenter(m.center, rl.Vector3{X: 0.1, Y: 0.1, Z: 0.1})
}

func unitBox(name string, center rl.Vector3) Box {
	return Box{Label: name, Bounds: physics.NewAABBFromCenter(center, rl.Vector3{X: 1, Y: 1, Z: 1})}
}

func TestCheckerFiresOnlyOnFlips(t *testing.T) {
	c := NewChecker(nil, nil)
	hand := &movingVolume{name: "right", center: rl.Vector3{X: 5}}
	c.Watch(hand)

	enters, exits := 0, 0
	err := c.AddArea(unitBox("easel", rl.Vector3{}),
		func(Volume) { enters++ },
		func(Volume) { exits++ })
	if err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		x      float32
		enters int
		exits  int
	}{
		{5, 0, 0},
		{0, 1, 0},
		{0.2, 1, 0},
		{3, 1, 1},
		{3, 1, 1},
		{0, 2, 1},
	}
	for i, s := range steps {
		hand.center.X = s.x
		c.Tick()
		if enters != s.enters || exits != s.exits {
			t.Errorf("step %d: expected %d enters %d exits, got %d %d", i, s.enters, s.exits, enters, exits)
		}
	}
	if !c.Inside("easel", "right") {
		t.Error("Expected right to be inside easel")
	}
}

func TestCheckerTracksPairsIndependently(t *testing.T) {
	c := NewChecker(nil, nil)
	left := &movingVolume{name: "left", center: rl.Vector3{}}
	right := &movingVolume{name: "right", center: rl.Vector3{X: 10}}
	c.Watch(left)
	c.Watch(right)

	var entered []string
	c.AddArea(unitBox("a", rl.Vector3{}), func(v Volume) { entered = append(entered, "a:"+v.Name()) }, nil)
	c.AddArea(unitBox("b", rl.Vector3{X: 10}), func(v Volume) { entered = append(entered, "b:"+v.Name()) }, nil)

	c.Tick()
	if len(entered) != 2 || entered[0] != "a:left" || entered[1] != "b:right" {
		t.Errorf("Expected [a:left b:right], got %v", entered)
	}
}

func TestRemovalDropsRowsWithoutFiring(t *testing.T) {
	c := NewChecker(nil, nil)
	hand := &movingVolume{name: "right"}
	c.Watch(hand)
	exits := 0
	c.AddArea(unitBox("easel", rl.Vector3{}), nil, func(Volume) { exits++ })
	c.Tick()

	c.Unwatch("right")
	c.Tick()
	if exits != 0 {
		t.Errorf("Expected no exit after Unwatch, got %d", exits)
	}
	if c.Inside("easel", "right") {
		t.Error("Expected containment row dropped")
	}

	c.Watch(hand)
	c.Tick()
	c.RemoveArea("easel")
	c.Tick()
	if exits != 0 {
		t.Errorf("Expected no exit after RemoveArea, got %d", exits)
	}
}

func TestDuplicateArea(t *testing.T) {
	c := NewChecker(nil, nil)
	if err := c.AddArea(unitBox("easel", rl.Vector3{}), nil, nil); err != nil {
		t.Fatal(err)
	}
	if err := c.AddArea(unitBox("easel", rl.Vector3{X: 1}), nil, nil); err == nil {
		t.Error("Expected duplicate area error")
	}
}

func TestHandlerMayUnwatchMidTick(t *testing.T) {
	c := NewChecker(nil, nil)
	c.Watch(&movingVolume{name: "left"})
	c.Watch(&movingVolume{name: "right"})
	var seen []string
	c.AddArea(unitBox("easel", rl.Vector3{}), func(v Volume) {
		seen = append(seen, v.Name())
		c.Unwatch("right")
	}, nil)
	c.Tick()
	if len(seen) != 1 || seen[0] != "left" {
		t.Errorf("Expected only left to enter, got %v", seen)
	}
}

func TestHandlerPanicRecovered(t *testing.T) {
	c := NewChecker(nil, nil)
	c.Watch(&movingVolume{name: "right"})
	c.AddArea(unitBox("easel", rl.Vector3{}), func(Volume) { panic("boom") }, nil)

	fired := 0
	c.OnEnter.AddListener(func(Transition) { fired++ })
	c.Tick()
	if fired != 1 {
		t.Errorf("Expected enter event after panic, got %d", fired)
	}
}

func TestColliderVolumeFollowsNode(t *testing.T) {
	node := engine.NewGameObject("brush")
	col := physics.NewBoxCollider(rl.Vector3{X: 0.2, Y: 0.2, Z: 0.2})
	node.AddComponent(col)

	c := NewChecker(nil, nil)
	c.Watch(Collider{col})
	c.AddArea(unitBox("easel", rl.Vector3{}), nil, nil)

	node.Transform.Position = rl.Vector3{X: 3}
	c.Tick()
	if c.Inside("easel", "brush") {
		t.Error("Expected brush outside")
	}
	node.Transform.Position = rl.Vector3{}
	c.Tick()
	if !c.Inside("easel", "brush") {
		t.Error("Expected brush inside")
	}
}
