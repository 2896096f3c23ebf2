// Package trace writes interaction events to CSV for offline review.
package trace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"xrmuseum/internal/config"
)

// Kinds of traced events.
const (
	KindHover       = "hover"
	KindHoverLeave  = "hover_leave"
	KindSelectStart = "select_start"
	KindSelectEnd   = "select_end"
	KindGesture     = "gesture"
	KindFocus       = "focus"
	KindAreaEnter   = "area_enter"
	KindAreaExit    = "area_exit"
	KindRoom        = "room"
)

// Record is one row of interactions.csv.
type Record struct {
	Tick       int64   `csv:"tick"`
	Time       float64 `csv:"time"`
	Controller string  `csv:"controller"`
	Kind       string  `csv:"kind"`
	State      string  `csv:"state"`
	Target     string  `csv:"target"`
	Distance   float32 `csv:"distance"`
	Detail     string  `csv:"detail"`
}

// Recorder appends records to a CSV stream. A nil *Recorder accepts every
// call and writes nothing.
type Recorder struct {
	dir           string
	out           io.Writer
	file          *os.File
	headerWritten bool
	count         int

	tick int64
	time float64
}

// NewRecorder creates dir and opens name inside it. Returns nil if dir is
// empty (tracing disabled).
func NewRecorder(dir, name string) (*Recorder, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating trace directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &Recorder{dir: dir, out: f, file: f}, nil
}

// NewWriterRecorder records to w without owning it.
func NewWriterRecorder(w io.Writer) *Recorder {
	return &Recorder{out: w}
}

// SetClock stamps subsequent records with the given tick and scene time.
func (r *Recorder) SetClock(tick int64, elapsed float64) {
	if r == nil {
		return
	}
	r.tick = tick
	r.time = elapsed
}

// Write appends rec. Zero Tick and Time are filled from the clock.
func (r *Recorder) Write(rec Record) error {
	if r == nil {
		return nil
	}
	if rec.Tick == 0 && rec.Time == 0 {
		rec.Tick = r.tick
		rec.Time = r.time
	}

	records := []Record{rec}
	if !r.headerWritten {
		if err := gocsv.Marshal(records, r.out); err != nil {
			return fmt.Errorf("writing trace: %w", err)
		}
		r.headerWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, r.out); err != nil {
			return fmt.Errorf("writing trace: %w", err)
		}
	}
	r.count++
	return nil
}

// Count returns the number of records written.
func (r *Recorder) Count() int {
	if r == nil {
		return 0
	}
	return r.count
}

// WriteConfig saves the session configuration next to the trace.
func (r *Recorder) WriteConfig(cfg *config.Config) error {
	if r == nil || r.dir == "" {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(r.dir, "config.yaml"))
}

// Close closes the underlying file if the recorder owns one.
func (r *Recorder) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	return r.file.Close()
}
