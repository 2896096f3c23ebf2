package main

import (
	"maps"
	"slices"

	"xrmuseum/internal/area"
	"xrmuseum/internal/controller"
	"xrmuseum/internal/engine"
	"xrmuseum/internal/interaction"
	"xrmuseum/internal/world"
)

// doorTargets maps door node names to the room they lead to.
var doorTargets = map[string]string{
	"photogrammetry_door": "photogrammetry",
	"sound_door":          "sound",
	"hall_door":           "hall",
}

// doorRoom makes every door node of a room selectable with the primary
// controller.
func doorRoom(name string) *world.BasicRoom {
	state := "doors_" + name
	return &world.BasicRoom{
		Label: name,
		OnSetup: func(s *world.Session) error {
			var doors []*engine.GameObject
			for _, door := range slices.Sorted(maps.Keys(doorTargets)) {
				if g := s.Scene.FindInRoom(name, door); g != nil {
					doors = append(doors, g)
				}
			}
			return s.Resolver.RegisterState(interaction.State{
				Name:      state,
				Colliders: doors,
				OnHover: func(ev interaction.Event) {
					if ev.Intersection.Object != nil && !ev.Selecting {
						s.Logger().Debug("door hovered", "door", ev.Intersection.Object.Name)
					}
				},
				OnSelectStart: func(ev interaction.Event) {
					if ev.Intersection.Object == nil {
						return
					}
					if to, ok := doorTargets[ev.Intersection.Object.Name]; ok {
						s.Goto(to)
					}
				},
			})
		},
		OnEnter: func(s *world.Session) {
			s.Resolver.Activate(state)
		},
	}
}

// wireGraffiti binds the spray can pickup and the wall interaction.
func wireGraffiti(s *world.Session) {
	s.Index.Catalog().SetInteraction("graffiti", func(hand controller.Handedness, c *controller.Controller) {
		if c == nil {
			return
		}
		if s.Registry.HasAttachment("spray") {
			s.Announce("graffiti_paint", map[string]any{"hand": string(hand)})
			return
		}
		s.Announce("graffiti_find_spray", nil)
	})
	s.Areas.OnEnter.AddListener(func(tr area.Transition) {
		if tr.Area != "spray_can" {
			return
		}
		if _, ok := s.Registry.Get(tr.Volume); !ok {
			return
		}
		s.Registry.AddAttachment("spray", tr.Volume, nil)
		s.Announce("graffiti_spray_taken", nil)
	})
}
