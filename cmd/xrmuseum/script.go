package main

import (
	"fmt"
	"os"
	"slices"

	"xrmuseum/internal/camera"
	"xrmuseum/internal/controller"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"
)

// Script is a recorded or hand-written input sequence replayed against a
// session.
type Script struct {
	Ticks []Step `yaml:"ticks"`
}

// Step is applied before one or more ticks of dt seconds.
type Step struct {
	DT          float64          `yaml:"dt"`
	Repeat      int              `yaml:"repeat"`
	Connect     []DeviceDef      `yaml:"connect"`
	Disconnect  []string         `yaml:"disconnect"`
	Camera      *PoseDef         `yaml:"camera"`
	Controllers []ControllerStep `yaml:"controllers"`
	SelectStart []string         `yaml:"select_start"`
	SelectEnd   []string         `yaml:"select_end"`
	Goto        string           `yaml:"goto"`
	EnterVR     bool             `yaml:"enter_vr"`
	ExitVR      bool             `yaml:"exit_vr"`
}

type DeviceDef struct {
	ID      string `yaml:"id"`
	Hand    string `yaml:"hand"`
	Profile string `yaml:"profile"`
}

// PoseDef is a rig-relative pose given as a position and yaw/pitch in
// degrees.
type PoseDef struct {
	Position [3]float32 `yaml:"position"`
	Yaw      float32    `yaml:"yaw"`
	Pitch    float32    `yaml:"pitch"`
}

func (p PoseDef) Pose() camera.Pose {
	return camera.YawPitch(rl.Vector3{X: p.Position[0], Y: p.Position[1], Z: p.Position[2]}, p.Yaw, p.Pitch)
}

type ControllerStep struct {
	ID      string                            `yaml:"id"`
	Pose    PoseDef                           `yaml:",inline"`
	Buttons map[string]controller.ButtonState `yaml:"buttons"`
	Axes    map[string][2]float32             `yaml:"axes"`
}

// Readings merges buttons and axes into one reading per component, sorted by
// name.
func (c ControllerStep) Readings() []controller.Reading {
	byName := make(map[string]*controller.Reading)
	get := func(name string) *controller.Reading {
		if r, ok := byName[name]; ok {
			return r
		}
		r := &controller.Reading{Name: name}
		byName[name] = r
		return r
	}
	for name, state := range c.Buttons {
		get(name).State = state
	}
	for name, xy := range c.Axes {
		r := get(name)
		r.XAxis, r.YAxis = xy[0], xy[1]
		r.HasX, r.HasY = true, true
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	slices.Sort(names)
	out := make([]controller.Reading, 0, len(names))
	for _, name := range names {
		out = append(out, *byName[name])
	}
	return out
}

func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	return ParseScript(data)
}

func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing script: %w", err)
	}
	for i := range s.Ticks {
		st := &s.Ticks[i]
		if st.DT < 0 {
			return nil, fmt.Errorf("ticks[%d]: negative dt", i)
		}
		if st.DT == 0 {
			st.DT = 1.0 / 72
		}
		if st.Repeat <= 0 {
			st.Repeat = 1
		}
		for j, d := range st.Connect {
			if d.ID == "" {
				return nil, fmt.Errorf("ticks[%d].connect[%d]: missing id", i, j)
			}
			if _, err := controller.ParseHandedness(d.Hand); err != nil {
				return nil, fmt.Errorf("ticks[%d].connect[%d]: %w", i, j, err)
			}
		}
	}
	return &s, nil
}

// TotalTicks is the number of ticks the script runs.
func (s *Script) TotalTicks() int {
	n := 0
	for _, st := range s.Ticks {
		n += st.Repeat
	}
	return n
}
