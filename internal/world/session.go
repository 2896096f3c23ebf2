// Package world wires the registry, resolver, awareness index and area
// checker into one per-visitor session and owns the room lifecycle.
package world

import (
	"errors"
	"fmt"

	"xrmuseum/internal/area"
	"xrmuseum/internal/awareness"
	"xrmuseum/internal/camera"
	"xrmuseum/internal/config"
	"xrmuseum/internal/controller"
	"xrmuseum/internal/engine"
	"xrmuseum/internal/interaction"
	"xrmuseum/internal/logging"
	"xrmuseum/internal/narration"
	"xrmuseum/internal/trace"

	rl "github.com/gen2brain/raylib-go/raylib"
)

var ErrUnknownRoom = errors.New("unknown room")

// vrStartRig is where the rig is placed when a VR session begins.
var vrStartRig = rl.Vector3{Z: 2}

type Option func(*Session)

func WithLogger(l logging.Logger) Option {
	return func(s *Session) { s.logger = logging.OrDiscard(l) }
}

func WithAnnouncer(a narration.Announcer) Option {
	return func(s *Session) { s.announcer = narration.OrDiscard(a) }
}

func WithTracer(t *trace.Recorder) Option {
	return func(s *Session) { s.tracer = t }
}

type timer struct {
	at float64
	fn func()
}

// Session is one visitor's run through the museum. Everything except
// Registry.Post must be called from the tick goroutine.
type Session struct {
	cfg       *config.Config
	logger    logging.Logger
	announcer narration.Announcer
	tracer    *trace.Recorder
	lens      camera.Lens

	Scene    *engine.Scene
	Registry *controller.Registry
	Resolver *interaction.Resolver
	Index    *awareness.Index
	Areas    *area.Checker

	rooms       map[string]Room
	room        string
	pendingRoom string
	started     bool
	vr          bool

	head camera.Pose // relative to the rig
	rig  rl.Vector3

	tick    int64
	elapsed float64
	timers  []timer

	OnRoomChanged engine.EventWithArg[string]
}

// New builds a session over scene and catalog. A nil cfg uses the embedded
// defaults.
func New(cfg *config.Config, scene *engine.Scene, catalog *awareness.Catalog, opts ...Option) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	primary, err := controller.ParseHandedness(cfg.Session.PrimaryHand)
	if err != nil {
		return nil, fmt.Errorf("session.primary_hand: %w", err)
	}
	if scene == nil {
		scene = engine.NewScene("museum")
	}

	s := &Session{
		cfg:       cfg,
		logger:    logging.Discard(),
		announcer: narration.OrDiscard(nil),
		lens:      cfg.Awareness.Lens,
		Scene:     scene,
		rooms:     make(map[string]Room),
		head:      camera.At(rl.Vector3{Y: cfg.Session.EyeHeight}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Registry = controller.NewRegistry(s.logger, cfg.Derived.ControllerHalfExtents)
	s.Resolver = interaction.NewResolver(s.Registry,
		interaction.WithLogger(s.logger),
		interaction.WithTracer(s.tracer),
		interaction.WithMaxDistance(cfg.Ray.MaxDistance),
		interaction.WithPrimary(primary),
	)
	s.Index = awareness.NewIndex(scene, catalog,
		awareness.WithLogger(s.logger),
		awareness.WithAnnouncer(s.announcer),
		awareness.WithTracer(s.tracer),
		awareness.WithTieEpsilon(cfg.Awareness.TieEpsilon),
	)
	s.Areas = area.NewChecker(s.logger, s.tracer)

	s.Registry.OnConnected.AddListener(func(c *controller.Controller) {
		s.Areas.Watch(c)
		s.announce(narration.ControllerConnected, nil)
	})
	s.Registry.OnDisconnected.AddListener(func(c *controller.Controller) {
		s.Areas.Unwatch(c.ID)
		s.Resolver.ForgetController(c.ID)
		s.announce(narration.ControllerDisconnected, nil)
	})
	return s, nil
}

func (s *Session) Config() *config.Config {
	return s.cfg
}

func (s *Session) Logger() logging.Logger {
	return s.logger
}

func (s *Session) Announce(message string, params map[string]any) {
	s.announce(message, params)
}

func (s *Session) announce(message string, params map[string]any) {
	s.announcer.Announce(message, params)
}

// Room returns the active room name.
func (s *Session) Room() string {
	return s.room
}

func (s *Session) TickCount() int64 {
	return s.tick
}

// Elapsed is scene time in seconds.
func (s *Session) Elapsed() float64 {
	return s.elapsed
}

// Rig is the world offset applied to the head and controller poses.
func (s *Session) Rig() rl.Vector3 {
	return s.rig
}

func (s *Session) SetRig(p rl.Vector3) {
	s.rig = p
}

// SetHead stores the rig-relative head pose reported by the host.
func (s *Session) SetHead(p camera.Pose) {
	s.head = p
}

// CameraPose is the head pose in world space.
func (s *Session) CameraPose() camera.Pose {
	return s.head.Offset(s.rig)
}

// UpdateController stores a rig-relative controller pose and its readings.
func (s *Session) UpdateController(id string, pose camera.Pose, readings []controller.Reading) {
	s.Registry.Update(id, pose.Offset(s.rig), readings)
}

// moveRigTo shifts the rig horizontally so the camera ends up over target.
func (s *Session) moveRigTo(target rl.Vector3) {
	cam := s.CameraPose().Position
	s.rig.X -= cam.X - target.X
	s.rig.Z -= cam.Z - target.Z
}

// After runs fn once scene time has advanced by delay seconds. Timers run
// during Tick after room content.
func (s *Session) After(delay float64, fn func()) {
	s.timers = append(s.timers, timer{at: s.elapsed + delay, fn: fn})
}

func (s *Session) runTimers() {
	if len(s.timers) == 0 {
		return
	}
	var due []timer
	kept := s.timers[:0]
	for _, t := range s.timers {
		if t.at <= s.elapsed {
			due = append(due, t)
		} else {
			kept = append(kept, t)
		}
	}
	s.timers = kept
	for _, t := range due {
		s.safely("timer", t.fn)
	}
}

// Start runs every room's setup and enters the configured start room.
func (s *Session) Start() error {
	if s.started {
		return nil
	}
	for _, name := range s.roomNames() {
		r := s.rooms[name]
		if err := r.Setup(s); err != nil {
			return fmt.Errorf("setup room %q: %w", name, err)
		}
	}
	s.Scene.Start()
	start := s.cfg.Session.StartRoom
	if !s.knownRoom(start) {
		return fmt.Errorf("start room %q: %w", start, ErrUnknownRoom)
	}
	s.started = true
	s.enter(start)
	return nil
}

// Tick advances the session by dt seconds.
func (s *Session) Tick(dt float64) {
	s.tick++
	s.elapsed += dt
	s.tracer.SetClock(s.tick, s.elapsed)

	s.Registry.ApplyPending()
	s.Areas.Tick()
	s.Resolver.Tick(s.elapsed)

	s.Scene.Update(float32(dt))
	if r, ok := s.rooms[s.room]; ok {
		s.safely("execute "+s.room, func() { r.Execute(s, dt) })
	}
	s.runTimers()

	if s.pendingRoom != "" {
		next := s.pendingRoom
		s.pendingRoom = ""
		s.switchRoom(next)
	}

	pose := s.CameraPose()
	s.Index.Recompute(camera.ExtractFrustum(pose, s.lens), pose)
}

// EnterVR starts an immersive session: back to the start room, rig reset
// and the welcome narration scheduled.
func (s *Session) EnterVR() {
	s.vr = true
	s.pendingRoom = ""
	if start := s.cfg.Session.StartRoom; s.room != start && s.knownRoom(start) {
		s.switchRoom(start)
	}
	s.rig = vrStartRig

	s.After(1, func() { s.announce(narration.EnterVR, nil) })
	s.After(2, func() { s.announce(narration.EnterVR2, nil) })
	s.After(4, func() { s.announce(narration.EnterVR3, nil) })
	s.After(6, func() { s.announce(narration.EnterVR4, nil) })
}

// ExitVR leaves the immersive session.
func (s *Session) ExitVR() {
	if !s.vr {
		return
	}
	s.vr = false
	if r, ok := s.rooms[s.room]; ok {
		s.safely("exit "+s.room, func() { r.Exit(s) })
	}
	s.announce(narration.ExitVR, nil)
}

func (s *Session) InVR() bool {
	return s.vr
}

func (s *Session) safely(what string, fn func()) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("callback panicked", "callback", what, "panic", p)
		}
	}()
	fn()
}
