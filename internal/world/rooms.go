package world

import (
	"fmt"
	"slices"

	"xrmuseum/internal/trace"
)

// Room is the content of one museum room. Setup runs once at Start; Enter
// and Exit bracket each visit; Execute runs every tick while the room is
// active.
type Room interface {
	Name() string
	Setup(s *Session) error
	Enter(s *Session)
	Exit(s *Session)
	Execute(s *Session, dt float64)
}

// BasicRoom implements Room from optional hooks.
type BasicRoom struct {
	Label     string
	OnSetup   func(s *Session) error
	OnEnter   func(s *Session)
	OnExit    func(s *Session)
	OnExecute func(s *Session, dt float64)
}

func (r *BasicRoom) Name() string { return r.Label }

func (r *BasicRoom) Setup(s *Session) error {
	if r.OnSetup == nil {
		return nil
	}
	return r.OnSetup(s)
}

func (r *BasicRoom) Enter(s *Session) {
	if r.OnEnter != nil {
		r.OnEnter(s)
	}
}

func (r *BasicRoom) Exit(s *Session) {
	if r.OnExit != nil {
		r.OnExit(s)
	}
}

func (r *BasicRoom) Execute(s *Session, dt float64) {
	if r.OnExecute != nil {
		r.OnExecute(s, dt)
	}
}

// AddRoom registers room content. Rooms added after Start are set up
// immediately.
func (s *Session) AddRoom(r Room) error {
	name := r.Name()
	if name == "" {
		return fmt.Errorf("add room: missing name")
	}
	if _, exists := s.rooms[name]; exists {
		return fmt.Errorf("add room %q: already registered", name)
	}
	s.rooms[name] = r
	if s.started {
		if err := r.Setup(s); err != nil {
			delete(s.rooms, name)
			return fmt.Errorf("setup room %q: %w", name, err)
		}
	}
	return nil
}

func (s *Session) roomNames() []string {
	names := make([]string, 0, len(s.rooms))
	for _, n := range s.cfg.Rooms.Names {
		if _, ok := s.rooms[n]; ok {
			names = append(names, n)
		}
	}
	var extra []string
	for n := range s.rooms {
		if !slices.Contains(names, n) {
			extra = append(extra, n)
		}
	}
	slices.Sort(extra)
	return append(names, extra...)
}

func (s *Session) knownRoom(name string) bool {
	if name == "" {
		return false
	}
	if _, ok := s.rooms[name]; ok {
		return true
	}
	return s.cfg.HasRoom(name) || s.Scene.Room(name) != nil
}

// Goto schedules a room change for the end of the current tick. The last
// request in a tick wins.
func (s *Session) Goto(room string) error {
	if !s.knownRoom(room) {
		s.logger.Error("room change rejected", "room", room, "error", ErrUnknownRoom)
		return fmt.Errorf("goto %q: %w", room, ErrUnknownRoom)
	}
	s.pendingRoom = room
	return nil
}

// PendingRoom returns the room requested by Goto, or "".
func (s *Session) PendingRoom() string {
	return s.pendingRoom
}

func (s *Session) switchRoom(next string) {
	prev := s.room
	if r, ok := s.rooms[prev]; ok {
		s.safely("exit "+prev, func() { r.Exit(s) })
	}
	s.Resolver.DeactivateAll()

	if target, ok := s.cfg.Target(prev, next); ok {
		s.moveRigTo(target)
	}
	s.logger.Info("room changed", "from", prev, "to", next)
	s.enter(next)
}

func (s *Session) enter(room string) {
	s.room = room
	s.Scene.ShowOnly(room)
	s.Index.SetRoom(room)
	if err := s.tracer.Write(trace.Record{Kind: trace.KindRoom, Target: room}); err != nil {
		s.logger.Warn("trace write failed", "error", err)
	}
	s.OnRoomChanged.Invoke(room)
	if r, ok := s.rooms[room]; ok {
		s.safely("enter "+room, func() { r.Enter(s) })
	}
}
