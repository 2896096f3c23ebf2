// Package interaction resolves which interaction state owns each
// controller's pointer and fires gesture rules.
package interaction

import (
	"errors"
	"fmt"
	"slices"

	"xrmuseum/internal/controller"
	"xrmuseum/internal/engine"
	"xrmuseum/internal/logging"
	"xrmuseum/internal/physics"
	"xrmuseum/internal/trace"

	rl "github.com/gen2brain/raylib-go/raylib"
)

var (
	ErrDuplicateState  = errors.New("state already registered")
	ErrUnknownState    = errors.New("unknown state")
	ErrInvalidRole     = errors.New("invalid controller role")
	ErrDuplicateRule   = errors.New("gesture rule already registered")
	ErrEmptyRule       = errors.New("gesture rule has no modifiers")
	ErrInvalidModifier = errors.New("invalid gesture modifier")
)

// ControllerSource supplies the connected controllers each tick.
type ControllerSource interface {
	Controllers() []*controller.Controller
	Get(id string) (*controller.Controller, bool)
}

// RayCaster finds the nearest hit among targets.
type RayCaster interface {
	Cast(ray rl.Ray, targets []*engine.GameObject, maxDistance float32) (physics.RaycastHit, bool)
}

type pointer struct {
	current   *Intersection
	selecting bool
}

// Resolver owns the state table, the active stack and the gesture rules.
// It is not safe for concurrent use; calls made from callbacks while Tick
// runs are applied when the tick ends.
type Resolver struct {
	logger      logging.Logger
	source      ControllerSource
	caster      RayCaster
	tracer      *trace.Recorder
	maxDistance float32
	primary     controller.Handedness
	enabled     bool

	states    map[string]*State
	active    []*State
	rules     map[string]*Rule
	ruleOrder []string
	pointers  map[string]*pointer
	cooldowns map[cooldownKey]float64

	elapsed float64
	ticking bool
	queue   []func()
	// names reserved by registrations queued during a tick
	pendingStates map[string]bool
	pendingRules  map[string]bool

	OnHandednessChanged engine.EventWithArg[controller.Handedness]
}

type Option func(*Resolver)

func WithLogger(l logging.Logger) Option {
	return func(r *Resolver) { r.logger = logging.OrDiscard(l) }
}

func WithCaster(c RayCaster) Option {
	return func(r *Resolver) {
		if c != nil {
			r.caster = c
		}
	}
}

func WithTracer(t *trace.Recorder) Option {
	return func(r *Resolver) { r.tracer = t }
}

func WithMaxDistance(d float32) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.maxDistance = d
		}
	}
}

func WithPrimary(h controller.Handedness) Option {
	return func(r *Resolver) {
		if h == controller.Left || h == controller.Right {
			r.primary = h
		}
	}
}

// NewResolver creates an enabled resolver with the right hand as primary.
func NewResolver(source ControllerSource, opts ...Option) *Resolver {
	r := &Resolver{
		logger:        logging.Discard(),
		source:        source,
		caster:        physics.Caster{},
		maxDistance:   100,
		primary:       controller.Right,
		enabled:       true,
		states:        make(map[string]*State),
		rules:         make(map[string]*Rule),
		pointers:      make(map[string]*pointer),
		cooldowns:     make(map[cooldownKey]float64),
		pendingStates: make(map[string]bool),
		pendingRules:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// deferred runs fn now, or after the current tick if one is running.
func (r *Resolver) deferred(fn func()) {
	if r.ticking {
		r.queue = append(r.queue, fn)
		return
	}
	fn()
}

func (r *Resolver) flush() {
	for len(r.queue) > 0 {
		q := r.queue
		r.queue = nil
		for _, fn := range q {
			fn()
		}
	}
}

// RegisterState adds a state. Duplicate names and invalid roles are logged
// and rejected; the previous registration stays in place.
func (r *Resolver) RegisterState(s State) error {
	return r.register(s, false)
}

// RegisterAndActivate registers s and pushes it on the active stack.
func (r *Resolver) RegisterAndActivate(s State) error {
	return r.register(s, true)
}

func (r *Resolver) register(s State, activate bool) error {
	if _, exists := r.states[s.Name]; exists || r.pendingStates[s.Name] {
		r.logger.Error("state rejected", "state", s.Name, "error", ErrDuplicateState)
		return fmt.Errorf("register %q: %w", s.Name, ErrDuplicateState)
	}
	role, err := ParseRole(string(s.Role))
	if err != nil {
		r.logger.Error("state rejected", "state", s.Name, "error", err)
		return fmt.Errorf("register %q: %w", s.Name, err)
	}
	s.Role = role
	s.suppressed = false
	st := &s
	if r.ticking {
		r.pendingStates[s.Name] = true
	}
	r.deferred(func() {
		delete(r.pendingStates, st.Name)
		r.states[st.Name] = st
		r.logger.Debug("state registered", "state", st.Name, "role", string(st.Role), "order", st.Order)
		if activate {
			r.push(st)
		}
	})
	return nil
}

// Activate pushes a registered state onto the active stack. Activating an
// active state does nothing.
func (r *Resolver) Activate(name string) error {
	if _, ok := r.states[name]; !ok && !r.pendingStates[name] {
		r.logger.Warn("cannot activate unknown state", "state", name)
		return fmt.Errorf("activate %q: %w", name, ErrUnknownState)
	}
	r.deferred(func() {
		if s, ok := r.states[name]; ok {
			r.push(s)
		}
	})
	return nil
}

func (r *Resolver) push(s *State) {
	s.suppressed = false
	if slices.Contains(r.active, s) {
		return
	}
	r.active = append(r.active, s)
	slices.SortStableFunc(r.active, func(a, b *State) int { return a.Order - b.Order })
}

// Deactivate removes a state from the active stack and silently drops any
// intersection it owns. Its callbacks stop immediately, even mid-tick.
func (r *Resolver) Deactivate(name string) error {
	s, ok := r.states[name]
	if !ok {
		if r.pendingStates[name] {
			r.deferred(func() { r.pop(name) })
			return nil
		}
		r.logger.Warn("cannot deactivate unknown state", "state", name)
		return fmt.Errorf("deactivate %q: %w", name, ErrUnknownState)
	}
	if slices.Contains(r.active, s) {
		s.suppressed = true
	}
	r.deferred(func() { r.pop(name) })
	return nil
}

func (r *Resolver) pop(name string) {
	s, ok := r.states[name]
	if !ok {
		return
	}
	if i := slices.Index(r.active, s); i >= 0 {
		r.active = slices.Delete(r.active, i, i+1)
	}
	s.suppressed = false
	for _, p := range r.pointers {
		if p.current != nil && p.current.State == name {
			p.current = nil
		}
	}
}

// DeactivateAll empties the active stack without firing hover-leave.
func (r *Resolver) DeactivateAll() {
	for _, s := range r.active {
		s.suppressed = true
	}
	r.deferred(func() {
		for _, s := range r.active {
			s.suppressed = false
		}
		r.active = nil
		for _, p := range r.pointers {
			p.current = nil
		}
	})
}

// IsActive reports whether name is on the active stack.
func (r *Resolver) IsActive(name string) bool {
	s, ok := r.states[name]
	return ok && !s.suppressed && slices.Contains(r.active, s)
}

// ActiveStates returns active state names in stack order.
func (r *Resolver) ActiveStates() []string {
	names := make([]string, 0, len(r.active))
	for _, s := range r.active {
		if !s.suppressed {
			names = append(names, s.Name)
		}
	}
	return names
}

// RegisterGestureRule adds a gesture. Rules are evaluated in registration
// order.
func (r *Resolver) RegisterGestureRule(name string, modifiers []Modifier, cooldown float64, instantReset bool, callback func(GestureEvent)) error {
	if _, exists := r.rules[name]; exists || r.pendingRules[name] {
		r.logger.Error("gesture rule rejected", "rule", name, "error", ErrDuplicateRule)
		return fmt.Errorf("register rule %q: %w", name, ErrDuplicateRule)
	}
	if len(modifiers) == 0 {
		r.logger.Error("gesture rule rejected", "rule", name, "error", ErrEmptyRule)
		return fmt.Errorf("register rule %q: %w", name, ErrEmptyRule)
	}
	for j, m := range modifiers {
		if !validModifier(m) {
			r.logger.Error("gesture rule rejected", "rule", name, "modifier", j, "type", fmt.Sprintf("%T", m), "error", ErrInvalidModifier)
			return fmt.Errorf("register rule %q modifier %d: %w", name, j, ErrInvalidModifier)
		}
	}
	rule := &Rule{
		Name:         name,
		Modifiers:    slices.Clone(modifiers),
		Cooldown:     cooldown,
		InstantReset: instantReset,
		Callback:     callback,
	}
	if r.ticking {
		r.pendingRules[name] = true
	}
	r.deferred(func() {
		delete(r.pendingRules, name)
		r.rules[name] = rule
		r.ruleOrder = append(r.ruleOrder, name)
	})
	return nil
}

// Enable resumes ticking and select handling.
func (r *Resolver) Enable() {
	r.enabled = true
}

// Disable stops ticks and select edges from having any effect. Open selects
// are closed silently.
func (r *Resolver) Disable() {
	r.enabled = false
	for _, p := range r.pointers {
		p.selecting = false
	}
}

func (r *Resolver) Enabled() bool {
	return r.enabled
}

// Primary returns the primary hand.
func (r *Resolver) Primary() controller.Handedness {
	return r.primary
}

// SetPrimary changes the primary hand and fires OnHandednessChanged when it
// actually changes.
func (r *Resolver) SetPrimary(h controller.Handedness) {
	if h != controller.Left && h != controller.Right {
		r.logger.Warn("ignoring primary hand", "hand", string(h))
		return
	}
	r.deferred(func() {
		if h == r.primary {
			return
		}
		r.primary = h
		r.logger.Info("primary hand changed", "primary", string(h))
		r.OnHandednessChanged.Invoke(h)
	})
}

// ForgetController drops all bookkeeping for id without firing callbacks.
func (r *Resolver) ForgetController(id string) {
	r.deferred(func() { r.forget(id) })
}

func (r *Resolver) forget(id string) {
	delete(r.pointers, id)
	for k := range r.cooldowns {
		if k.controller == id {
			delete(r.cooldowns, k)
		}
	}
}

// Elapsed returns the scene time of the last tick.
func (r *Resolver) Elapsed() float64 {
	return r.elapsed
}

// CurrentIntersection returns the intersection that owns the controller's
// pointer after the last tick.
func (r *Resolver) CurrentIntersection(id string) (Intersection, bool) {
	p, ok := r.pointers[id]
	if !ok || p.current == nil {
		return Intersection{}, false
	}
	return *p.current, true
}

func (r *Resolver) pointer(id string) *pointer {
	p, ok := r.pointers[id]
	if !ok {
		p = &pointer{}
		r.pointers[id] = p
	}
	return p
}

// Tick resolves pointers, fires hover callbacks and evaluates gesture rules.
// elapsed is scene time in seconds.
func (r *Resolver) Tick(elapsed float64) {
	if !r.enabled {
		return
	}
	r.elapsed = elapsed
	r.ticking = true

	controllers := r.source.Controllers()
	r.prune(controllers)

	for _, c := range controllers {
		if !r.connected(c) {
			continue
		}
		r.resolvePointer(c)
	}
	for _, c := range controllers {
		if !r.connected(c) {
			continue
		}
		r.evaluateRules(c, elapsed)
	}

	r.ticking = false
	r.flush()
}

func (r *Resolver) connected(c *controller.Controller) bool {
	got, ok := r.source.Get(c.ID)
	if !ok || got != c {
		r.forget(c.ID)
		return false
	}
	return true
}

func (r *Resolver) prune(controllers []*controller.Controller) {
	live := make(map[string]bool, len(controllers))
	for _, c := range controllers {
		live[c.ID] = true
	}
	for id := range r.pointers {
		if !live[id] {
			r.forget(id)
		}
	}
	for k := range r.cooldowns {
		if !live[k.controller] {
			delete(r.cooldowns, k)
		}
	}
}

func (r *Resolver) resolvePointer(c *controller.Controller) {
	var best *Intersection
	ray := c.Ray()
	for _, s := range r.active {
		if s.suppressed || !s.Raycasting() || len(s.Colliders) == 0 {
			continue
		}
		if !s.Role.Matches(c.Handedness, r.primary) {
			continue
		}
		hit, ok := r.caster.Cast(ray, s.Colliders, r.maxDistance)
		if !ok {
			continue
		}
		// Strict comparison: on equal distance the earlier state keeps it.
		if best == nil || hit.Distance < best.Distance {
			best = &Intersection{
				State:    s.Name,
				Object:   hit.GameObject,
				Distance: hit.Distance,
				Point:    hit.Point,
				Normal:   hit.Normal,
				UV:       hit.UV,
			}
		}
	}

	p := r.pointer(c.ID)
	prev := p.current
	p.current = best

	if prev != nil && (best == nil || prev.State != best.State || prev.Object != best.Object) {
		if s, ok := r.states[prev.State]; ok && !s.suppressed {
			r.trace(c, trace.KindHoverLeave, prev)
			r.call(s.Name, "hover_leave", s.OnHoverLeave, Event{State: s.Name, Controller: c, Intersection: prev, Selecting: p.selecting})
		}
	}
	if best != nil {
		if prev == nil || prev.State != best.State || prev.Object != best.Object {
			r.trace(c, trace.KindHover, best)
		}
		if s, ok := r.states[best.State]; ok && !s.suppressed {
			r.call(s.Name, "hover", s.OnHover, Event{State: s.Name, Controller: c, Intersection: best, Selecting: p.selecting})
		}
	}
}

func (r *Resolver) evaluateRules(c *controller.Controller, elapsed float64) {
	snap := c.Snapshot()
	for _, name := range r.ruleOrder {
		rule := r.rules[name]
		key := cooldownKey{rule: name, controller: c.ID}
		last, fired := r.cooldowns[key]

		if !rule.satisfied(snap) {
			if rule.InstantReset && fired {
				delete(r.cooldowns, key)
			}
			continue
		}
		if fired && elapsed < last+rule.Cooldown {
			continue
		}
		r.cooldowns[key] = elapsed

		ev := GestureEvent{Rule: name, Controller: c, Snapshot: snap, Time: elapsed}
		ev.Bearing, ev.HasBearing = rule.bearing(snap)
		if err := r.tracer.Write(trace.Record{Controller: c.ID, Kind: trace.KindGesture, Detail: name}); err != nil {
			r.logger.Warn("trace write failed", "error", err)
		}
		r.logger.Debug("gesture fired", "rule", name, "controller", c.ID, "time", elapsed)
		if rule.Callback != nil {
			r.safely(name, "gesture", func() { rule.Callback(ev) })
		}
	}
}

// SelectStart routes a select-press edge from controller id.
func (r *Resolver) SelectStart(id string) {
	r.selectEdge(id, true)
}

// SelectEnd routes a select-release edge. It is ignored unless a select is
// open for the controller.
func (r *Resolver) SelectEnd(id string) {
	r.selectEdge(id, false)
}

func (r *Resolver) selectEdge(id string, start bool) {
	if !r.enabled {
		return
	}
	if r.ticking {
		r.queue = append(r.queue, func() { r.selectEdge(id, start) })
		return
	}
	c, ok := r.source.Get(id)
	if !ok {
		return
	}
	p := r.pointer(id)
	if !start && !p.selecting {
		return
	}
	p.selecting = start

	kind, hook := trace.KindSelectEnd, "select_end"
	if start {
		kind, hook = trace.KindSelectStart, "select_start"
	}
	pick := func(s *State) func(Event) {
		if start {
			return s.OnSelectStart
		}
		return s.OnSelectEnd
	}

	// Callbacks may mutate the stack, so route against a snapshot and
	// queue their mutations.
	r.ticking = true
	if cur := p.current; cur != nil {
		if s, ok := r.states[cur.State]; ok && !s.suppressed && s.Raycasting() {
			r.trace(c, kind, cur)
			r.call(s.Name, hook, pick(s), Event{State: s.Name, Controller: c, Intersection: cur, Selecting: start})
		}
	}
	for _, s := range slices.Clone(r.active) {
		if s.suppressed || s.Raycasting() {
			continue
		}
		r.call(s.Name, hook, pick(s), Event{State: s.Name, Controller: c, Selecting: start})
	}
	r.ticking = false
	r.flush()
}

func (r *Resolver) call(state, hook string, fn func(Event), ev Event) {
	if fn == nil {
		return
	}
	r.safely(state, hook, func() { fn(ev) })
}

// safely recovers a panicking callback so the rest of the tick runs.
func (r *Resolver) safely(name, hook string, fn func()) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("callback panicked", "name", name, "hook", hook, "panic", p)
		}
	}()
	fn()
}

func (r *Resolver) trace(c *controller.Controller, kind string, in *Intersection) {
	if r.tracer == nil {
		return
	}
	rec := trace.Record{Controller: c.ID, Kind: kind, State: in.State, Distance: in.Distance}
	if in.Object != nil {
		rec.Target = in.Object.Name
	}
	if err := r.tracer.Write(rec); err != nil {
		r.logger.Warn("trace write failed", "error", err)
	}
}
