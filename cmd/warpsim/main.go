// Command warpsim runs an arena headless and prints the attack report.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"
	"github.com/milk9111/motionwarp/prefabs"
	"github.com/milk9111/motionwarp/sim"
)

func main() {
	arena := flag.String("arena", "arena.yaml", "arena prefab (embedded or under prefabs/)")
	ticks := flag.Int("ticks", 600, "ticks to simulate")
	level := flag.String("log", "info", "log level: debug, info, warn, error")
	out := flag.String("out", "", "write the report to this file instead of stdout")
	watch := flag.Bool("watch", false, "rerun whenever a prefab changes")
	flag.Parse()

	lvl, err := log.ParseLevel(*level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warpsim: %v\n", err)
		os.Exit(2)
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "warpsim",
	})

	if err := run(logger, *arena, *ticks, *out); err != nil {
		logger.Error("run failed", "err", err)
		if !*watch {
			os.Exit(1)
		}
	}
	if !*watch {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := watchAndRun(ctx, logger, *arena, *ticks, *out); err != nil {
		logger.Fatal("watch", "err", err)
	}
}

func run(logger *log.Logger, arena string, ticks int, out string) error {
	s, err := sim.Load(arena, sim.WithLogger(logger))
	if err != nil {
		return err
	}
	start := time.Now()
	s.Run(ticks)
	r := s.Report()
	logger.Info("simulated",
		"arena", r.Arena,
		"ticks", r.Ticks,
		"attacks", len(r.Attacks),
		"hit_rate", fmt.Sprintf("%.2f", r.WarpHitRate()),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	data, err := r.Marshal()
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if out == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(out, data, 0o644)
}

func watchAndRun(ctx context.Context, logger *log.Logger, arena string, ticks int, out string) error {
	w, err := prefabs.NewWatcher(prefabs.Dir())
	if err != nil {
		return err
	}
	defer w.Close()
	logger.Info("watching for changes", "dir", prefabs.Dir())

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-w.Errors:
			logger.Warn("watcher", "err", err)
		case name := <-w.Events:
			changed := append([]string{name}, w.Drain()...)
			logger.Info("prefabs changed, rerunning", "files", changed)
			if err := run(logger, arena, ticks, out); err != nil {
				logger.Error("run failed", "err", err)
			}
		}
	}
}
