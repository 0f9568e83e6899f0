package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/pthm-cable/phasefluid/config"
	"github.com/pthm-cable/phasefluid/sim"
	"github.com/pthm-cable/phasefluid/telemetry"
)

type options struct {
	configPath    string
	outputDir     string
	maxTicks      int
	logStats      bool
	snapshotEvery int
	workers       int
	dt            float64
}

func main() {
	// CLI flags
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to config.yaml (empty = use defaults)")
	flag.StringVar(&opts.outputDir, "output-dir", "", "Output directory for CSV logs and config snapshot")
	flag.IntVar(&opts.maxTicks, "max-ticks", 600, "Stop after N ticks (0 = until interrupted)")
	flag.BoolVar(&opts.logStats, "log-stats", false, "Output stats via slog")
	flag.IntVar(&opts.snapshotEvery, "snapshot-every", 0, "Write a particle CSV every N ticks (0 = use config)")
	flag.IntVar(&opts.workers, "workers", 0, "Worker goroutines (0 = use config)")
	flag.Float64Var(&opts.dt, "dt", 0, "Time step in seconds (0 = use config)")
	debug := flag.Bool("debug", false, "Log per-tick solver residuals")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, logger); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, logger *slog.Logger) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	dt := cfg.Simulation.DT
	if opts.dt > 0 {
		dt = opts.dt
	}
	snapshotEvery := cfg.Telemetry.SnapshotInterval
	if opts.snapshotEvery > 0 {
		snapshotEvery = opts.snapshotEvery
	}

	out, err := telemetry.NewOutputManager(opts.outputDir)
	if err != nil {
		return err
	}
	defer out.Close()

	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	s := sim.New(
		sim.WithLogger(logger),
		sim.WithPerfCollector(perf),
		sim.WithWorkers(opts.workers),
	)
	defer s.Dispose()

	if err := s.Reset(cfg); err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	if err := out.WriteConfig(cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := out.WriteRunMeta(telemetry.RunMeta{
		StartedAt: time.Now().UTC(),
		Particles: s.Len(),
		Workers:   s.Workers(),
		MaxTicks:  opts.maxTicks,
	}); err != nil {
		return err
	}

	slog.Info("starting simulation",
		"run_id", out.RunID(),
		"particles", s.Len(),
		"dt", dt,
		"max_ticks", opts.maxTicks,
	)

	collector := telemetry.NewCollector(cfg.Telemetry.LogInterval, dt)
	started := time.Now()

	for opts.maxTicks <= 0 || s.Tick() < int64(opts.maxTicks) {
		if ctx.Err() != nil {
			slog.Info("interrupted", "tick", s.Tick())
			break
		}
		if err := s.Step(dt); err != nil {
			return fmt.Errorf("tick %d: %w", s.Tick(), err)
		}
		tick := s.Tick()
		collector.RecordTick(s.LastResiduals())

		if snapshotEvery > 0 && tick%int64(snapshotEvery) == 0 {
			if err := writeSnapshot(s, out, tick); err != nil {
				return err
			}
		}

		if collector.ShouldFlush(tick) {
			if err := flushStats(s, collector, perf, out, tick, opts.logStats); err != nil {
				return err
			}
		}
	}

	slog.Info("simulation finished",
		"ticks", s.Tick(),
		"elapsed", time.Since(started).Round(time.Millisecond).String(),
	)
	return nil
}

func writeSnapshot(s *sim.Simulation, out *telemetry.OutputManager, tick int64) error {
	ps, err := s.Particles()
	if err != nil {
		return err
	}
	return out.WriteSnapshot(tick, ps)
}

func flushStats(s *sim.Simulation, c *telemetry.Collector, perf *telemetry.PerfCollector, out *telemetry.OutputManager, tick int64, logStats bool) error {
	ps, err := s.Particles()
	if err != nil {
		return err
	}
	stats := c.Flush(tick, ps, s.NeighborTotal(), s.LastResiduals())
	perfStats := perf.Stats()

	if logStats {
		stats.LogStats()
		perfStats.LogStats()
	}
	if err := out.WriteStats(stats); err != nil {
		return err
	}
	return out.WritePerf(perfStats, tick)
}
