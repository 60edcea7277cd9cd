// Package build orchestrates one incremental build: validate names,
// diff sources against existing outputs, delete orphans, render what
// changed, reuse what didn't, and write the per-post artifacts plus the
// aggregate index all-or-nothing.
package build

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"

	"git.home.luguber.info/inful/postbuilder/internal/config"
	"git.home.luguber.info/inful/postbuilder/internal/diff"
	"git.home.luguber.info/inful/postbuilder/internal/errors"
	"git.home.luguber.info/inful/postbuilder/internal/frontmatter"
	"git.home.luguber.info/inful/postbuilder/internal/logfields"
	"git.home.luguber.info/inful/postbuilder/internal/post"
	"git.home.luguber.info/inful/postbuilder/internal/render"
	"git.home.luguber.info/inful/postbuilder/internal/util/sets"
	"git.home.luguber.info/inful/postbuilder/internal/validate"
)

// Orchestrator runs the build phases as strict sequential barriers.
type Orchestrator struct {
	cfg      config.Config
	renderer render.Renderer
	global   *frontmatter.Global
}

// Result summarizes one completed build for the CLI.
type Result struct {
	BuildID  string
	Rendered int
	Reused   int
	Deleted  int
	Skipped  int
	Indexed  int
	Elapsed  time.Duration
}

// New wires an orchestrator. global is nil when no metadata context
// was supplied on the command line.
func New(cfg config.Config, renderer render.Renderer, global *frontmatter.Global) *Orchestrator {
	return &Orchestrator{cfg: cfg, renderer: renderer, global: global}
}

// Run executes the full pipeline. Any name-validation, front-matter,
// or render error aborts before the write phase: no per-post artifact
// and no index is written on a failed build. Orphan cleanup is best
// effort and never fails the build.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	started := time.Now()
	res := &Result{BuildID: uuid.NewString()}
	log := slog.With(logfields.BuildID(res.BuildID))

	sources, err := DiscoverSources(o.cfg.InputDir)
	if err != nil {
		return nil, errors.OutputError("scan input", err)
	}
	reserved := sets.New(o.cfg.IndexName, config.SidecarName)
	outputs, err := DiscoverOutputs(o.cfg.OutputDir, reserved)
	if err != nil {
		return nil, errors.OutputError("scan output", err)
	}
	log.Debug("Discovered files",
		slog.Int("sources", len(sources)), slog.Int("outputs", len(outputs)))

	// Name validation and duplicate detection both run before any
	// mutation; all offenders are reported in one pass.
	var verrs errors.ErrorList
	for _, inv := range validate.Names(sources, reserved) {
		verrs.Append(errors.InvalidName(inv.Path, inv.Reason))
	}
	for id, paths := range validate.Duplicates(sources) {
		verrs.Append(errors.DuplicateIdentity(id, paths))
	}
	if err := verrs.Err(); err != nil {
		return nil, err
	}

	partition, err := diff.Compute(outputs, sources)
	if err != nil {
		return nil, err
	}
	log.Info("Diff computed", logfields.Phase("diff"),
		slog.Int("fresh", len(partition.Fresh)),
		slog.Int("stale", len(partition.Stale)),
		slog.Int("orphaned", len(partition.Orphaned)),
		slog.Int("new", len(partition.New)))

	res.Deleted += o.deleteOutputs(log, orphanPaths(partition))

	rendered, skipped, err := o.renderAll(ctx, log, renderSet(partition, o.cfg.Force))
	if err != nil {
		return nil, err
	}
	res.Rendered = len(rendered)
	res.Skipped = len(skipped)

	reused, err := o.loadReused(partition)
	if err != nil {
		return nil, err
	}
	res.Reused = len(reused)

	// Past this barrier the build cannot fail on a per-post error;
	// filesystem failures from here on abort with partial state only
	// within the atomic guarantees of each individual artifact.
	res.Deleted += o.deleteOutputs(log, skippedOutputPaths(partition, skipped))

	if err := o.writeRecords(rendered); err != nil {
		return nil, err
	}

	records := append(rendered, reused...)
	index := post.BuildIndex(records)
	res.Indexed = len(index)
	if err := o.writeJSON(o.cfg.IndexPath(), index); err != nil {
		return nil, errors.OutputError("write index", err)
	}

	if err := o.persistSidecar(log); err != nil {
		return nil, err
	}

	res.Elapsed = time.Since(started)
	log.Info("Build finished",
		slog.Int("rendered", res.Rendered),
		slog.Int("reused", res.Reused),
		slog.Int("deleted", res.Deleted),
		slog.Int("skipped", res.Skipped),
		logfields.DurationMS(float64(res.Elapsed.Milliseconds())))
	return res, nil
}

// renderSet is stale + new, plus fresh when a full rebuild is forced.
func renderSet(p diff.Partition, force bool) []render.Source {
	var srcs []render.Source
	for id, pair := range p.Stale {
		srcs = append(srcs, render.Source{Identity: id, Path: pair.Source.Path})
	}
	for id, entry := range p.New {
		srcs = append(srcs, render.Source{Identity: id, Path: entry.Path})
	}
	if force {
		for id, pair := range p.Fresh {
			srcs = append(srcs, render.Source{Identity: id, Path: pair.Source.Path})
		}
	}
	return srcs
}

// renderAll fans the render set out to the configured worker count.
// Every member is processed even after a failure so the user sees all
// broken posts in one run; any error aborts the build afterwards.
func (o *Orchestrator) renderAll(ctx context.Context, log *slog.Logger, srcs []render.Source) ([]post.Record, sets.Set[string], error) {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		rerrs   errors.ErrorList
		records []post.Record
		skipped = sets.New[string]()
	)
	sem := make(chan struct{}, o.cfg.Workers)

	for _, src := range srcs {
		wg.Add(1)
		sem <- struct{}{}
		go func(src render.Source) {
			defer wg.Done()
			defer func() { <-sem }()

			rec, err := o.renderer.Render(ctx, src)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				rerrs.Append(err)
			case rec == nil:
				log.Debug("Post marked skip", logfields.Identity(src.Identity))
				skipped.Add(src.Identity)
			default:
				records = append(records, *rec)
			}
		}(src)
	}
	wg.Wait()

	if err := rerrs.Err(); err != nil {
		return nil, nil, err
	}
	return records, skipped, nil
}

// loadReused loads fresh outputs verbatim; no re-render, no
// re-validation. Under --force the fresh set was rendered instead.
func (o *Orchestrator) loadReused(p diff.Partition) ([]post.Record, error) {
	if o.cfg.Force {
		return nil, nil
	}
	var (
		reused []post.Record
		lerrs  errors.ErrorList
	)
	for id, pair := range p.Fresh {
		data, err := os.ReadFile(pair.Output.Path)
		if err != nil {
			lerrs.Append(errors.OutputError("read reused output", err).WithContext("identity", id))
			continue
		}
		var rec post.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			lerrs.Append(errors.OutputError("decode reused output", err).WithContext("identity", id))
			continue
		}
		reused = append(reused, rec)
	}
	if err := lerrs.Err(); err != nil {
		return nil, err
	}
	return reused, nil
}

// deleteOutputs removes output files best effort. Failures are logged
// and never abort the build.
func (o *Orchestrator) deleteOutputs(log *slog.Logger, paths []string) int {
	deleted := 0
	for _, p := range paths {
		if err := os.Remove(p); err != nil {
			if !os.IsNotExist(err) {
				log.Warn("Failed to delete output", logfields.Path(p), logfields.Error(err))
			}
			continue
		}
		log.Debug("Deleted output", logfields.Path(p))
		deleted++
	}
	return deleted
}

func orphanPaths(p diff.Partition) []string {
	paths := make([]string, 0, len(p.Orphaned))
	for _, entry := range p.Orphaned {
		paths = append(paths, entry.Path)
	}
	return paths
}

// skippedOutputPaths finds existing outputs for render-set members the
// renderer declared skip; those artifacts must not survive the build.
func skippedOutputPaths(p diff.Partition, skipped sets.Set[string]) []string {
	var paths []string
	for id := range skipped {
		if pair, ok := p.Stale[id]; ok {
			paths = append(paths, pair.Output.Path)
		}
		if pair, ok := p.Fresh[id]; ok {
			paths = append(paths, pair.Output.Path)
		}
	}
	return paths
}

// writeRecords persists every freshly rendered record as
// <identity>.json. Writes are independent per identity, so they fan
// out like renders; each individual write is atomic.
func (o *Orchestrator) writeRecords(records []post.Record) error {
	if err := os.MkdirAll(o.cfg.OutputDir, 0o755); err != nil {
		return errors.OutputError("create output dir", err)
	}
	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		werrs errors.ErrorList
	)
	sem := make(chan struct{}, o.cfg.Workers)
	for _, rec := range records {
		wg.Add(1)
		sem <- struct{}{}
		go func(rec post.Record) {
			defer wg.Done()
			defer func() { <-sem }()

			path := filepath.Join(o.cfg.OutputDir, rec.Identity+".json")
			if err := o.writeJSON(path, rec); err != nil {
				mu.Lock()
				werrs.Append(errors.OutputError("write output", err).WithContext("identity", rec.Identity))
				mu.Unlock()
			}
		}(rec)
	}
	wg.Wait()
	return werrs.Err()
}

// persistSidecar writes the global metadata artifact when a context
// was supplied and clears a stale one when it wasn't.
func (o *Orchestrator) persistSidecar(log *slog.Logger) error {
	path := o.cfg.SidecarPath()
	if o.global == nil {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warn("Failed to clear metadata sidecar", logfields.Path(path), logfields.Error(err))
		}
		return nil
	}
	if err := o.writeJSON(path, o.global); err != nil {
		return errors.OutputError("write metadata sidecar", err)
	}
	return nil
}

func (o *Orchestrator) writeJSON(path string, v any) error {
	if err := os.MkdirAll(o.cfg.OutputDir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return atomic.WriteFile(path, bytes.NewReader(data))
}
