// Package area detects volumes entering and leaving trigger areas.
package area

import (
	"errors"
	"fmt"

	"xrmuseum/internal/engine"
	"xrmuseum/internal/logging"
	"xrmuseum/internal/physics"
	"xrmuseum/internal/trace"
)

var ErrDuplicateArea = errors.New("duplicate area")

// Volume is anything with a name and world-space bounds. Controllers satisfy
// it directly.
type Volume interface {
	Name() string
	WorldBounds() physics.AABB
}

// Box is a fixed volume.
type Box struct {
	Label  string
	Bounds physics.AABB
}

func (b Box) Name() string              { return b.Label }
func (b Box) WorldBounds() physics.AABB { return b.Bounds }

// Collider follows a box collider attached to a scene node.
type Collider struct {
	*physics.BoxCollider
}

func (c Collider) Name() string {
	if g := c.GetGameObject(); g != nil {
		return g.Name
	}
	return ""
}

func (c Collider) WorldBounds() physics.AABB {
	return c.GetAABB()
}

// Handler receives the volume that crossed an area boundary.
type Handler func(v Volume)

// Transition is the payload of the checker's enter and exit events.
type Transition struct {
	Area   string
	Volume string
}

type area struct {
	volume  Volume
	onEnter Handler
	onExit  Handler
}

type pair struct {
	area, volume string
}

// Checker compares every watched volume against every area once per tick
// and fires only when containment flips.
type Checker struct {
	logger   logging.Logger
	tracer   *trace.Recorder
	areas    []*area
	volumes  []Volume
	previous map[pair]bool

	OnEnter engine.EventWithArg[Transition]
	OnExit  engine.EventWithArg[Transition]
}

func NewChecker(logger logging.Logger, tracer *trace.Recorder) *Checker {
	return &Checker{
		logger:   logging.OrDiscard(logger),
		tracer:   tracer,
		previous: make(map[pair]bool),
	}
}

// Watch adds v to the set of tested volumes. Watching the same name twice
// replaces the earlier volume and keeps its state.
func (c *Checker) Watch(v Volume) {
	for i, w := range c.volumes {
		if w.Name() == v.Name() {
			c.volumes[i] = v
			return
		}
	}
	c.volumes = append(c.volumes, v)
}

// Unwatch drops the volume and its containment rows without firing.
func (c *Checker) Unwatch(name string) {
	for i, w := range c.volumes {
		if w.Name() == name {
			c.volumes = append(c.volumes[:i], c.volumes[i+1:]...)
			break
		}
	}
	for k := range c.previous {
		if k.volume == name {
			delete(c.previous, k)
		}
	}
}

func (c *Checker) AddArea(v Volume, onEnter, onExit Handler) error {
	for _, a := range c.areas {
		if a.volume.Name() == v.Name() {
			return fmt.Errorf("area %q: %w", v.Name(), ErrDuplicateArea)
		}
	}
	c.areas = append(c.areas, &area{volume: v, onEnter: onEnter, onExit: onExit})
	return nil
}

// RemoveArea drops the area and its containment rows without firing.
func (c *Checker) RemoveArea(name string) {
	for i, a := range c.areas {
		if a.volume.Name() == name {
			c.areas = append(c.areas[:i], c.areas[i+1:]...)
			break
		}
	}
	for k := range c.previous {
		if k.area == name {
			delete(c.previous, k)
		}
	}
}

// Inside reports the containment recorded by the last tick.
func (c *Checker) Inside(areaName, volumeName string) bool {
	return c.previous[pair{areaName, volumeName}]
}

func (c *Checker) watching(name string) bool {
	for _, v := range c.volumes {
		if v.Name() == name {
			return true
		}
	}
	return false
}

func (c *Checker) hasArea(a *area) bool {
	for _, x := range c.areas {
		if x == a {
			return true
		}
	}
	return false
}

// Tick recomputes containment and fires enter/exit for every flip. Handlers
// may add or remove areas and volumes; removals take effect immediately.
func (c *Checker) Tick() {
	areas := append([]*area(nil), c.areas...)
	volumes := append([]Volume(nil), c.volumes...)

	for _, a := range areas {
		for _, v := range volumes {
			if !c.hasArea(a) || !c.watching(v.Name()) {
				continue
			}
			key := pair{a.volume.Name(), v.Name()}
			inside := a.volume.WorldBounds().Intersects(v.WorldBounds())
			if inside == c.previous[key] {
				continue
			}
			if inside {
				c.previous[key] = true
				c.fire(a.onEnter, v, key, trace.KindAreaEnter)
				c.OnEnter.Invoke(Transition{Area: key.area, Volume: key.volume})
			} else {
				delete(c.previous, key)
				c.fire(a.onExit, v, key, trace.KindAreaExit)
				c.OnExit.Invoke(Transition{Area: key.area, Volume: key.volume})
			}
		}
	}
}

func (c *Checker) fire(h Handler, v Volume, key pair, kind string) {
	c.logger.Debug("area transition", "kind", kind, "area", key.area, "volume", key.volume)
	if err := c.tracer.Write(trace.Record{Kind: kind, Controller: key.volume, Target: key.area}); err != nil {
		c.logger.Warn("trace write failed", "error", err)
	}
	if h == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			c.logger.Error("area handler panicked", "area", key.area, "volume", key.volume, "panic", p)
		}
	}()
	h(v)
}
