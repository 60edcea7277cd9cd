package build

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/postbuilder/internal/config"
	pberrors "git.home.luguber.info/inful/postbuilder/internal/errors"
	"git.home.luguber.info/inful/postbuilder/internal/frontmatter"
	"git.home.luguber.info/inful/postbuilder/internal/post"
	"git.home.luguber.info/inful/postbuilder/internal/render"
	"git.home.luguber.info/inful/postbuilder/internal/util/sets"
)

func writeSource(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func postBody(title, written string, extra ...string) string {
	body := "---\ntitle: " + title + "\nwrittenDate: \"" + written + "\"\n"
	for _, line := range extra {
		body += line + "\n"
	}
	return body + "---\n# " + title + "\n"
}

func newTestOrchestrator(t *testing.T, in, out string, force bool) *Orchestrator {
	t.Helper()
	cfg, err := config.New(in, out, "posts", force, "", 2)
	require.NoError(t, err)
	return New(cfg, render.NewGoldmark(nil), nil)
}

func readIndex(t *testing.T, out string) []post.IndexEntry {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(out, "posts.json"))
	require.NoError(t, err)
	var entries []post.IndexEntry
	require.NoError(t, json.Unmarshal(data, &entries))
	return entries
}

func TestRun_BootstrapFromEmptyOutput(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeSource(t, in, "alpha.md", postBody("Alpha", "2024-01-01"))
	writeSource(t, in, "beta.md", postBody("Beta", "2024-06-01"))

	res, err := newTestOrchestrator(t, in, out, false).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, res.Rendered)
	require.Equal(t, 0, res.Reused)

	require.FileExists(t, filepath.Join(out, "alpha.json"))
	require.FileExists(t, filepath.Join(out, "beta.json"))

	entries := readIndex(t, out)
	require.Len(t, entries, 2)
	// Descending by written date.
	require.Equal(t, "beta", entries[0].Identity)
	require.Equal(t, "alpha", entries[1].Identity)
}

func TestRun_SecondRunRendersNothing(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeSource(t, in, "alpha.md", postBody("Alpha", "2024-01-01"))
	writeSource(t, in, "beta.md", postBody("Beta", "2024-06-01"))

	_, err := newTestOrchestrator(t, in, out, false).Run(context.Background())
	require.NoError(t, err)
	first := readIndex(t, out)

	res, err := newTestOrchestrator(t, in, out, false).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, res.Rendered)
	require.Equal(t, 2, res.Reused)
	require.Equal(t, first, readIndex(t, out))
}

func TestRun_StaleSourceIsReRendered(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	src := writeSource(t, in, "alpha.md", postBody("Alpha", "2024-01-01"))

	_, err := newTestOrchestrator(t, in, out, false).Run(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(src, []byte(postBody("Alpha v2", "2024-01-01")), 0o644))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(src, future, future))

	res, err := newTestOrchestrator(t, in, out, false).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.Rendered)

	entries := readIndex(t, out)
	require.Equal(t, "Alpha v2", entries[0].Meta.Title)
}

func TestRun_MissingFrontMatter_AbortsWithoutWrites(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeSource(t, in, "good.md", postBody("Good", "2024-01-01"))
	writeSource(t, in, "post.md", "# No front matter here\n")

	_, err := newTestOrchestrator(t, in, out, false).Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "front matter block missing")

	// All-or-nothing: not even the good post was written.
	require.NoFileExists(t, filepath.Join(out, "good.json"))
	require.NoFileExists(t, filepath.Join(out, "posts.json"))
}

func TestRun_DuplicateIdentities_ReportedBeforeRendering(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeSource(t, in, "x.md", postBody("One", "2024-01-01"))
	writeSource(t, in, "a-[x].md", postBody("Two", "2024-02-01"))

	_, err := newTestOrchestrator(t, in, out, false).Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate post identity")
	require.NoFileExists(t, filepath.Join(out, "x.json"))
	require.NoFileExists(t, filepath.Join(out, "posts.json"))
}

func TestRun_InvalidName_Aborts(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeSource(t, in, "my first post.md", postBody("Oops", "2024-01-01"))

	_, err := newTestOrchestrator(t, in, out, false).Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid post name")
}

func TestRun_ReservedName_Aborts(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeSource(t, in, "posts.md", postBody("Index Impersonator", "2024-01-01"))

	_, err := newTestOrchestrator(t, in, out, false).Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid post name")
}

func TestRun_UnlistedPost_WrittenButNotIndexed(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeSource(t, in, "visible.md", postBody("Visible", "2024-01-01"))
	writeSource(t, in, "hidden.md", postBody("Hidden", "2024-02-01", "unlisted: true"))

	_, err := newTestOrchestrator(t, in, out, false).Run(context.Background())
	require.NoError(t, err)

	require.FileExists(t, filepath.Join(out, "hidden.json"))
	entries := readIndex(t, out)
	require.Len(t, entries, 1)
	require.Equal(t, "visible", entries[0].Identity)

	// The exclusion survives a rebuild that reuses the artifact.
	res, err := newTestOrchestrator(t, in, out, false).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, res.Rendered)
	require.Len(t, readIndex(t, out), 1)
}

func TestRun_DeletedSource_RemovesOutputAndIndexEntry(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeSource(t, in, "keep.md", postBody("Keep", "2024-01-01"))
	gone := writeSource(t, in, "gone.md", postBody("Gone", "2024-02-01"))

	_, err := newTestOrchestrator(t, in, out, false).Run(context.Background())
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(out, "gone.json"))

	require.NoError(t, os.Remove(gone))
	res, err := newTestOrchestrator(t, in, out, false).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.Deleted)

	require.NoFileExists(t, filepath.Join(out, "gone.json"))
	entries := readIndex(t, out)
	require.Len(t, entries, 1)
	require.Equal(t, "keep", entries[0].Identity)
}

func TestRun_Force_ReRendersEverythingFresh(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeSource(t, in, "alpha.md", postBody("Alpha", "2024-01-01"))
	writeSource(t, in, "beta.md", postBody("Beta", "2024-02-01"))

	_, err := newTestOrchestrator(t, in, out, false).Run(context.Background())
	require.NoError(t, err)

	res, err := newTestOrchestrator(t, in, out, true).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, res.Rendered)
	require.Equal(t, 0, res.Reused)
}

func TestRun_SkipToggle_DeletesExistingOutput(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	src := writeSource(t, in, "flip.md", postBody("Flip", "2024-01-01"))

	_, err := newTestOrchestrator(t, in, out, false).Run(context.Background())
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(out, "flip.json"))

	require.NoError(t, os.WriteFile(src, []byte(postBody("Flip", "2024-01-01", "noPublish: true")), 0o644))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(src, future, future))

	res, err := newTestOrchestrator(t, in, out, false).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.Skipped)
	require.NoFileExists(t, filepath.Join(out, "flip.json"))
	require.Empty(t, readIndex(t, out))
}

func TestRun_RenderFailureLeavesPreviousBuildIntact(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	stable := writeSource(t, in, "stable.md", postBody("Stable", "2024-01-01"))
	broken := writeSource(t, in, "broken.md", postBody("Broken", "2024-02-01"))
	_ = stable

	_, err := newTestOrchestrator(t, in, out, false).Run(context.Background())
	require.NoError(t, err)
	before := readIndex(t, out)

	// Make both posts stale; one of them now has invalid front matter.
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.WriteFile(stable, []byte(postBody("Stable v2", "2024-01-01")), 0o644))
	require.NoError(t, os.Chtimes(stable, future, future))
	require.NoError(t, os.WriteFile(broken, []byte("---\ntitle: Broken\n---\nno date\n"), 0o644))
	require.NoError(t, os.Chtimes(broken, future, future))

	_, err = newTestOrchestrator(t, in, out, false).Run(context.Background())
	require.Error(t, err)

	// The sibling failure blocked the successful render's write too.
	require.Equal(t, before, readIndex(t, out))
	data, readErr := os.ReadFile(filepath.Join(out, "stable.json"))
	require.NoError(t, readErr)
	var rec post.Record
	require.NoError(t, json.Unmarshal(data, &rec))
	require.Equal(t, "Stable", rec.Meta.Title)
}

func TestRun_SidecarPersistedAndCleared(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeSource(t, in, "p.md", postBody("P", "2024-01-01", "series: go"))

	cfg, err := config.New(in, out, "posts", false, "", 2)
	require.NoError(t, err)
	global := &frontmatter.Global{Series: []string{"go"}}
	_, err = New(cfg, render.NewGoldmark(global), global).Run(context.Background())
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(out, "meta.json"))

	// Rerun without the metadata context: the sidecar is cleared.
	_, err = newTestOrchestrator(t, in, out, false).Run(context.Background())
	require.NoError(t, err)
	require.NoFileExists(t, filepath.Join(out, "meta.json"))
}

// stubRenderer fails selected identities and records every invocation.
type stubRenderer struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (s *stubRenderer) Render(_ context.Context, src render.Source) (*post.Record, error) {
	s.mu.Lock()
	s.calls = append(s.calls, src.Identity)
	s.mu.Unlock()
	if s.fail[src.Identity] {
		return nil, pberrors.RenderFailed(src.Path, fmt.Errorf("synthetic failure"))
	}
	return &post.Record{
		Identity: src.Identity,
		HTML:     "<p>ok</p>",
		Meta:     post.Meta{Title: src.Identity, Written: "2024-01-01T00:00:00Z"},
	}, nil
}

func TestRun_OneFailureDoesNotSuppressOthers(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeSource(t, in, "a.md", postBody("A", "2024-01-01"))
	writeSource(t, in, "b.md", postBody("B", "2024-01-02"))
	writeSource(t, in, "c.md", postBody("C", "2024-01-03"))

	cfg, err := config.New(in, out, "posts", false, "", 2)
	require.NoError(t, err)
	stub := &stubRenderer{fail: map[string]bool{"b": true}}

	_, err = New(cfg, stub, nil).Run(context.Background())
	require.Error(t, err)

	sort.Strings(stub.calls)
	require.Equal(t, []string{"a", "b", "c"}, stub.calls)
	require.NoFileExists(t, filepath.Join(out, "a.json"))
	require.NoFileExists(t, filepath.Join(out, "posts.json"))
}

func TestDiscoverOutputs_ExcludesIndexAndSidecarByIdentity(t *testing.T) {
	out := t.TempDir()
	for _, name := range []string{"posts.json", "meta.json", "real.json", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(out, name), []byte("{}"), 0o644))
	}

	paths, err := DiscoverOutputs(out, sets.New("posts", "meta"))
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(out, "real.json")}, paths)
}
