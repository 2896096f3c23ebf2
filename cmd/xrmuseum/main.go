// Command xrmuseum runs an interaction session headlessly, replaying a
// scripted input sequence and writing an interaction trace.
package main

import (
	_ "embed"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"xrmuseum/internal/awareness"
	"xrmuseum/internal/config"
	"xrmuseum/internal/controller"
	"xrmuseum/internal/engine"
	"xrmuseum/internal/logging"
	"xrmuseum/internal/narration"
	"xrmuseum/internal/trace"
	"xrmuseum/internal/world"

	"gonum.org/v1/gonum/stat"
)

//go:embed demo_scene.json
var demoScene []byte

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	scenePath := flag.String("scene", "", "Path to a scene file (empty = built-in demo)")
	scriptPath := flag.String("script", "", "Path to an input script (empty = idle ticks)")
	traceDir := flag.String("trace", "", "Directory for interactions.csv and the config snapshot")
	idleTicks := flag.Int("ticks", 600, "Ticks to run when no script is given")
	flag.Parse()

	if err := run(*configPath, *scenePath, *scriptPath, *traceDir, *idleTicks); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, scenePath, scriptPath, traceDir string, idleTicks int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var out io.Writer = os.Stdout
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		out = io.MultiWriter(os.Stdout, f)
	}
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format, out)

	if traceDir != "" {
		cfg.Trace.Dir = traceDir
	}
	tracer, err := trace.NewRecorder(cfg.Trace.Dir, cfg.Trace.File)
	if err != nil {
		return err
	}
	defer tracer.Close()
	if err := tracer.WriteConfig(cfg); err != nil {
		logger.Warn("config snapshot failed", "error", err)
	}

	var sf *world.SceneFile
	if scenePath != "" {
		sf, err = world.LoadSceneFile(scenePath)
	} else {
		sf, err = world.ParseSceneFile(demoScene)
	}
	if err != nil {
		return err
	}

	session, err := newSession(cfg, sf, logger, tracer)
	if err != nil {
		return err
	}

	script := &Script{Ticks: []Step{{DT: 1.0 / 72, Repeat: idleTicks}}}
	if scriptPath != "" {
		if script, err = LoadScript(scriptPath); err != nil {
			return err
		}
	}

	logger.Info("starting session",
		"room", session.Room(),
		"ticks", script.TotalTicks(),
		"trace", cfg.Trace.Dir,
	)
	durations := replay(session, script)

	mean, std := stat.MeanStdDev(durations, nil)
	logger.Info("session finished",
		"ticks", session.TickCount(),
		"scene_time", session.Elapsed(),
		"room", session.Room(),
		"focus", session.Index.Focus(),
		"trace_rows", tracer.Count(),
		"tick_mean_us", mean,
		"tick_std_us", std,
	)
	return nil
}

// newSession builds a started session over sf with the demo room content.
func newSession(cfg *config.Config, sf *world.SceneFile, logger logging.Logger, tracer *trace.Recorder) (*world.Session, error) {
	session, err := world.New(cfg, engine.NewScene("museum"), awareness.NewCatalog(),
		world.WithLogger(logger),
		world.WithAnnouncer(narration.Log{Logger: logger}),
		world.WithTracer(tracer),
	)
	if err != nil {
		return nil, err
	}
	if err := session.LoadScene(sf); err != nil {
		return nil, err
	}
	for _, rd := range sf.Rooms {
		if err := session.AddRoom(doorRoom(rd.Name)); err != nil {
			return nil, err
		}
	}
	wireGraffiti(session)
	if err := session.BindAccessibilityGestures(); err != nil {
		return nil, err
	}
	if err := session.Start(); err != nil {
		return nil, err
	}
	return session, nil
}

// replay applies each step and returns the wall time of every tick in
// microseconds.
func replay(s *world.Session, script *Script) []float64 {
	durations := make([]float64, 0, script.TotalTicks())
	for _, st := range script.Ticks {
		apply(s, st)
		for range st.Repeat {
			start := time.Now()
			s.Tick(st.DT)
			durations = append(durations, float64(time.Since(start).Microseconds()))
		}
	}
	return durations
}

func apply(s *world.Session, st Step) {
	for _, d := range st.Connect {
		h, _ := controller.ParseHandedness(d.Hand)
		s.Registry.Post(controller.DeviceEvent{Kind: controller.Connected, ID: d.ID, Handedness: h, Profile: d.Profile})
	}
	for _, id := range st.Disconnect {
		s.Registry.Post(controller.DeviceEvent{Kind: controller.Disconnected, ID: id})
	}
	// Connections land at the start of the next tick; apply them now so
	// poses in the same step reach the new controllers.
	if len(st.Connect) > 0 || len(st.Disconnect) > 0 {
		s.Registry.ApplyPending()
	}
	if st.Camera != nil {
		s.SetHead(st.Camera.Pose())
	}
	for _, c := range st.Controllers {
		s.UpdateController(c.ID, c.Pose.Pose(), c.Readings())
	}
	for _, id := range st.SelectStart {
		s.Resolver.SelectStart(id)
	}
	for _, id := range st.SelectEnd {
		s.Resolver.SelectEnd(id)
	}
	if st.Goto != "" {
		s.Goto(st.Goto)
	}
	if st.EnterVR {
		s.EnterVR()
	}
	if st.ExitVR {
		s.ExitVR()
	}
}
