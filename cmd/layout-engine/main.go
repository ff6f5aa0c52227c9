package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"
	"github.com/voxgraph/layout-engine/pkg/config"
	"github.com/voxgraph/layout-engine/pkg/engine"
	"github.com/voxgraph/layout-engine/pkg/logging"
	"github.com/voxgraph/layout-engine/pkg/model"
	"github.com/voxgraph/layout-engine/pkg/output"
	"github.com/voxgraph/layout-engine/pkg/watcher"
	"github.com/voxgraph/layout-engine/pkg/web"
	"gonum.org/v1/gonum/spatial/r3"
)

func main() {
	flags := pflag.NewFlagSet("layout-engine", pflag.ExitOnError)
	flags.String("snapshot", "graph.json", "Path to the graph snapshot JSON")
	flags.String("command", "", "Free-text layout command (e.g. \"group people around companies\")")
	flags.Bool("serve", false, "Start the dev server instead of printing a report")
	flags.Int("port", 8080, "Port for the dev server (only used with --serve)")
	flags.Bool("watch", false, "Re-run the layout when the snapshot file changes")
	flags.String("output", "", "Optional path to write the position map JSON")
	flags.String("verbosity", "info", "Log level: debug, info, warn, error")
	if err := flags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logging.SetLevel(parseLevel(cfg.Verbosity))

	if cfg.Serve {
		runServer(cfg)
		return
	}
	runOnce(cfg)
}

func runOnce(cfg *config.Config) {
	g, schema, err := model.LoadSnapshot(cfg.Snapshot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	eng := engine.New(engine.Options{})
	res, err := eng.Apply(context.Background(), g, schema, cfg.Command)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	output.PrintLayoutReport(cfg.Command, len(g.Nodes), len(g.Edges), res)

	if cfg.Output != "" {
		if err := writePositions(cfg.Output, res.Positions); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Positions written to %s\n", cfg.Output)
	}
}

func runServer(cfg *config.Config) {
	server := web.NewServer()
	eng := engine.New(engine.Options{Publisher: server.Publisher()})

	apply := func(ctx context.Context) {
		g, schema, err := model.LoadSnapshot(cfg.Snapshot)
		if err != nil {
			logging.Error("failed to load snapshot", "path", cfg.Snapshot, "error", err)
			return
		}
		res, err := eng.Apply(ctx, g, schema, cfg.Command)
		if err != nil {
			logging.Error("layout failed", "error", err)
			return
		}
		server.SetResult(res)
	}

	ctx := context.Background()
	apply(ctx)
	eng.StartDriftLoop(ctx, 33*time.Millisecond)

	if cfg.Watch {
		w, err := watcher.NewSnapshotWatcher(cfg.Snapshot)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := w.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		debouncer := watcher.NewDebouncer(w.Events(), 200*time.Millisecond, 2*time.Second)
		debouncer.Start(ctx)
		go func() {
			for range debouncer.Output() {
				logging.Info("snapshot changed, re-running layout")
				apply(ctx)
			}
		}()
	}

	if err := server.Start(cfg.Port); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func writePositions(path string, positions map[string]r3.Vec) error {
	out := make(map[string][3]float64, len(positions))
	for id, p := range positions {
		out[id] = [3]float64{p.X, p.Y, p.Z}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func parseLevel(verbosity string) slog.Level {
	switch verbosity {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
