// Package narration carries spoken feedback from the engine to the host's
// speech and localisation layer.
package narration

import (
	"sync"

	"xrmuseum/internal/logging"
)

// Message keys announced by the engine itself.
const (
	NoObjectsAvailable     = "no_objects_available"
	NoElementSelected      = "no_element_selected"
	NoChildren             = "no_children"
	LostFocus              = "lost_focus"
	NavigationText         = "navigation_text"
	NoTeleport             = "no_teleport"
	Teleport               = "teleport"
	NoInteractionAvailable = "no_interaction_available"
	ControllerConnected    = "controller_connected"
	ControllerDisconnected = "controller_disconnected"
	EnterVR                = "enter_vr"
	EnterVR2               = "enter_vr_2"
	EnterVR3               = "enter_vr_3"
	EnterVR4               = "enter_vr_4"
	ExitVR                 = "exit_vr"
)

// Announcer receives text to surface to the visitor. message is either a
// localisation key or already translated text.
type Announcer interface {
	Announce(message string, params map[string]any)
}

// Func adapts a plain function to Announcer.
type Func func(message string, params map[string]any)

func (f Func) Announce(message string, params map[string]any) {
	if f != nil {
		f(message, params)
	}
}

// Log announces through a logger at info level.
type Log struct {
	Logger logging.Logger
}

func (l Log) Announce(message string, params map[string]any) {
	logger := logging.OrDiscard(l.Logger)
	if len(params) == 0 {
		logger.Info("announce", "message", message)
		return
	}
	logger.Info("announce", "message", message, "params", params)
}

// Multi forwards every announcement to each non-nil announcer in order.
type Multi []Announcer

func (m Multi) Announce(message string, params map[string]any) {
	for _, a := range m {
		if a != nil {
			a.Announce(message, params)
		}
	}
}

// Announcement is one recorded call.
type Announcement struct {
	Message string
	Params  map[string]any
}

// Recorder keeps every announcement in order.
type Recorder struct {
	mu  sync.Mutex
	all []Announcement
}

func (r *Recorder) Announce(message string, params map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all = append(r.all, Announcement{Message: message, Params: params})
}

// All returns a copy of the recorded announcements.
func (r *Recorder) All() []Announcement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Announcement(nil), r.all...)
}

// Messages returns just the message keys.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.all))
	for i, a := range r.all {
		out[i] = a.Message
	}
	return out
}

// Last returns the most recent announcement.
func (r *Recorder) Last() (Announcement, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.all) == 0 {
		return Announcement{}, false
	}
	return r.all[len(r.all)-1], true
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all = nil
}

// OrDiscard returns a, or an announcer that drops everything when a is nil.
func OrDiscard(a Announcer) Announcer {
	if a == nil {
		return Func(nil)
	}
	return a
}
