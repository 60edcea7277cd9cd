// Package diff classifies the relationship between previously produced
// output artifacts and current source files into four disjoint cases:
// fresh (reuse), stale (re-render), orphaned (delete), new (render).
package diff

import (
	"os"
	"sync"
	"time"

	"git.home.luguber.info/inful/postbuilder/internal/errors"
	"git.home.luguber.info/inful/postbuilder/internal/identity"
)

// Entry is one file on either side of the diff, keyed by identity.
type Entry struct {
	Identity string
	Path     string
	ModTime  time.Time
}

// Pair couples the source and output entries sharing one identity.
type Pair struct {
	Source Entry
	Output Entry
}

// Partition is the diff result. The four maps are disjoint by
// construction and their keys exactly cover the union of both input
// identity sets.
type Partition struct {
	Fresh    map[string]Pair  // output mtime >= source mtime: reuse output verbatim
	Stale    map[string]Pair  // source newer than output: re-render
	Orphaned map[string]Entry // output with no surviving source: delete
	New      map[string]Entry // source with no output yet: render
}

// statWorkers bounds the stat fan-out per side.
const statWorkers = 16

// Compute resolves and stats every path on both sides concurrently,
// then classifies each identity. Paths whose identity does not resolve
// are ignored; source names are validated before the diff runs, and an
// unresolvable output name is by definition not one of ours. Equal
// mtimes classify as fresh: no rebuild needed.
func Compute(outputPaths, sourcePaths []string) (Partition, error) {
	var errs errors.ErrorList

	outputs, err := collectEntries(outputPaths)
	errs.Append(err)
	sources, err := collectEntries(sourcePaths)
	errs.Append(err)
	if err := errs.Err(); err != nil {
		return Partition{}, err
	}

	p := Partition{
		Fresh:    make(map[string]Pair),
		Stale:    make(map[string]Pair),
		Orphaned: make(map[string]Entry),
		New:      make(map[string]Entry),
	}

	for id, out := range outputs {
		src, exists := sources[id]
		switch {
		case !exists:
			p.Orphaned[id] = out
		case out.ModTime.Before(src.ModTime):
			p.Stale[id] = Pair{Source: src, Output: out}
		default:
			p.Fresh[id] = Pair{Source: src, Output: out}
		}
		delete(sources, id)
	}
	for id, src := range sources {
		p.New[id] = src
	}
	return p, nil
}

// collectEntries maps identity -> Entry for one side, stat-ing paths
// with a bounded fan-out. Iteration order is irrelevant since the
// result is keyed by identity.
func collectEntries(paths []string) (map[string]Entry, error) {
	entries := make(map[string]Entry, len(paths))
	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		errs errors.ErrorList
	)
	sem := make(chan struct{}, statWorkers)

	for _, p := range paths {
		id, err := identity.Resolve(p)
		if err != nil {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(id, path string) {
			defer wg.Done()
			defer func() { <-sem }()

			info, err := os.Stat(path)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs.Append(errors.OutputError("stat", err).WithContext("path", path))
				return
			}
			entries[id] = Entry{Identity: id, Path: path, ModTime: info.ModTime()}
		}(id, p)
	}
	wg.Wait()

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
