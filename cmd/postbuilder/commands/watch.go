package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/postbuilder/internal/watch"
)

// WatchCmd implements the 'watch' command: one initial build, then an
// incremental rebuild after every debounced change to the input tree.
type WatchCmd struct {
	InputDir  string        `arg:"" help:"Directory scanned recursively for markdown posts"`
	OutputDir string        `arg:"" help:"Directory receiving <identity>.json artifacts and the index"`
	IndexName string        `name:"index-name" default:"posts" help:"Name of the aggregate index file (without extension)"`
	Meta      string        `help:"Path to a global metadata file declaring series and categories"`
	Workers   int           `help:"Concurrent render workers (defaults from POSTBUILDER_RENDER_WORKERS)" default:"0"`
	Quiet     time.Duration `default:"500ms" help:"Quiet window before a pending rebuild fires"`
}

func (w *WatchCmd) Run(_ *Global, _ *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rebuild := func(ctx context.Context) error {
		res, err := runBuild(ctx, w.InputDir, w.OutputDir, w.IndexName, false, w.Meta, w.Workers)
		if err != nil {
			return err
		}
		fmt.Printf("processed %d posts (%d rendered, %d reused, %d deleted) in %s\n",
			res.Rendered+res.Reused, res.Rendered, res.Reused, res.Deleted, res.Elapsed.Round(timeRounding))
		return nil
	}

	// The first build surfaces errors but does not stop the watcher;
	// a later save can fix the offending file.
	if err := rebuild(ctx); err != nil {
		slog.Error("Initial build failed", "error", err)
	}

	return watch.Run(ctx, w.InputDir, w.Quiet, rebuild)
}
