package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/akmonengine/skydive"
	"github.com/akmonengine/skydive/stream"
	"github.com/charmbracelet/log"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML jump config, defaults are used when empty")
		listen     = flag.String("listen", "", "address serving frames over websocket on /ws, e.g. :8080")
		batch      = flag.Int("batch", 0, "run N jumps with the wind scaled from 0 to the configured wind")
		workers    = flag.Int("workers", 4, "parallel workers in batch mode")
		level      = flag.String("level", "info", "log level: debug, info, warn, error")
		realtime   = flag.Bool("realtime", false, "pace steps to the wall clock")
	)
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "skydive",
		ReportTimestamp: true,
	})
	lvl, err := log.ParseLevel(*level)
	if err != nil {
		logger.Fatal("bad log level", "level", *level, "err", err)
	}
	logger.SetLevel(lvl)

	cfg := skydive.DefaultConfig()
	if *configPath != "" {
		cfg, err = skydive.LoadConfig(*configPath)
		if err != nil {
			logger.Fatal("loading config", "err", err)
		}
	}
	if len(cfg.Plan) == 0 {
		cfg.Plan = []skydive.Action{
			{At: 1, Command: skydive.CommandJump},
			{At: 20, Command: skydive.CommandDeployParachute},
		}
	}

	if *batch > 0 {
		runBatch(logger, cfg, *batch, *workers)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := runSingle(ctx, logger, cfg, *listen, *realtime); err != nil {
		logger.Fatal("jump failed", "err", err)
	}
}

func runSingle(ctx context.Context, logger *log.Logger, cfg skydive.Config, listen string, realtime bool) error {
	sim, err := cfg.NewSimulation()
	if err != nil {
		return err
	}
	sim.Logger = logger

	sim.Events.Subscribe(skydive.GROUND_BOUNCE, func(event skydive.Event) {
		e := event.(skydive.GroundBounceEvent)
		logger.Warn("hard impact, bouncing", "velocity", e.Velocity)
	})
	sim.Events.Subscribe(skydive.LANDED, func(event skydive.Event) {
		e := event.(skydive.LandedEvent)
		if e.AfterHardImpact {
			logger.Info("landed after a hard impact", "point", e.Point)
		} else {
			logger.Info("landed safely", "point", e.Point)
		}
	})
	sim.Events.Subscribe(skydive.CRASHED, func(event skydive.Event) {
		e := event.(skydive.CrashedEvent)
		logger.Error("crashed", "velocity", e.Velocity, "point", e.Point)
	})

	var hub *stream.Hub
	if listen != "" {
		hub = stream.NewHub(logger)
		defer hub.Close()

		mux := http.NewServeMux()
		mux.Handle("/ws", hub)
		server := &http.Server{Addr: listen, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("frame server stopped", "err", err)
			}
		}()
		defer server.Close()
		logger.Info("streaming frames", "addr", listen, "path", "/ws")
		// viewers watch at wall clock speed
		realtime = true
	}

	var ticker *time.Ticker
	if realtime {
		ticker = time.NewTicker(time.Duration(sim.TimeStep * float64(time.Second)))
		defer ticker.Stop()
	}

	report, err := sim.RunFunc(cfg.MaxDuration, func(s *skydive.Simulation) bool {
		if hub != nil {
			_ = hub.Broadcast(stream.NewFrame(s))
		}
		if ticker != nil {
			select {
			case <-ticker.C:
			case <-ctx.Done():
			}
		}
		return ctx.Err() == nil
	})
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		logger.Warn("interrupted")
	}

	logger.Info("report",
		"outcome", report.Outcome,
		"phase", report.Phase,
		"flight_time", report.FlightTime,
		"max_speed", report.MaxSpeed,
		"position", report.Position)

	return nil
}

func runBatch(logger *log.Logger, base skydive.Config, n, workers int) {
	configs := make([]skydive.Config, n)
	for i := range configs {
		scale := 0.0
		if n > 1 {
			scale = float64(i) / float64(n-1)
		}
		cfg := base
		cfg.Wind.X = base.Wind.X * scale
		cfg.Wind.Z = base.Wind.Z * scale
		configs[i] = cfg
	}

	start := time.Now()
	results := skydive.RunBatch(configs, workers, nil)
	for _, r := range results {
		if r.Err != nil {
			logger.Error("run failed", "run", r.Index, "err", r.Err)
			continue
		}
		logger.Info("run",
			"n", r.Index,
			"wind_x", configs[r.Index].Wind.X,
			"wind_z", configs[r.Index].Wind.Z,
			"outcome", r.Report.Outcome,
			"flight_time", r.Report.FlightTime,
			"landing", r.Report.Position)
	}
	logger.Info("batch finished", "runs", n, "workers", workers, "took", time.Since(start))
}
