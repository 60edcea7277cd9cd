package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/postbuilder/internal/build"
	"git.home.luguber.info/inful/postbuilder/internal/config"
	"git.home.luguber.info/inful/postbuilder/internal/frontmatter"
	"git.home.luguber.info/inful/postbuilder/internal/render"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	InputDir  string `arg:"" help:"Directory scanned recursively for markdown posts"`
	OutputDir string `arg:"" help:"Directory receiving <identity>.json artifacts and the index"`
	IndexName string `name:"index-name" default:"posts" help:"Name of the aggregate index file (without extension)"`
	Force     bool   `short:"f" help:"Re-render every post regardless of staleness"`
	Meta      string `help:"Path to a global metadata file declaring series and categories"`
	Workers   int    `help:"Concurrent render workers (defaults from POSTBUILDER_RENDER_WORKERS)" default:"0"`
}

func (b *BuildCmd) Run(_ *Global, _ *CLI) error {
	res, err := runBuild(context.Background(), b.InputDir, b.OutputDir, b.IndexName, b.Force, b.Meta, b.Workers)
	if err != nil {
		return reportFailure(err)
	}
	fmt.Printf("processed %d posts (%d rendered, %d reused, %d deleted) in %s\n",
		res.Rendered+res.Reused, res.Rendered, res.Reused, res.Deleted, res.Elapsed.Round(timeRounding))
	return nil
}

// runBuild wires one orchestrator run; shared with the watch command.
func runBuild(ctx context.Context, inputDir, outputDir, indexName string, force bool, metaPath string, workers int) (*build.Result, error) {
	cfg, err := config.New(inputDir, outputDir, indexName, force, metaPath, workers)
	if err != nil {
		return nil, err
	}

	var global *frontmatter.Global
	if cfg.MetaPath != "" {
		global, err = frontmatter.LoadGlobal(cfg.MetaPath)
		if err != nil {
			return nil, err
		}
	}

	return build.New(cfg, render.NewGoldmark(global), global).Run(ctx)
}
