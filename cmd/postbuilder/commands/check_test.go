package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/postbuilder/internal/frontmatter"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCollectFindings_CleanTree(t *testing.T) {
	dir := t.TempDir()
	good := write(t, dir, "good.md", "---\ntitle: Good\nwrittenDate: 2024-01-01\n---\nbody\n")

	findings := collectFindings([]string{good}, "posts", nil)
	require.Empty(t, findings)
}

func TestCollectFindings_ReportsEveryProblemKind(t *testing.T) {
	dir := t.TempDir()
	noID := write(t, dir, "bad name.md", "---\ntitle: X\nwrittenDate: 2024-01-01\n---\n")
	bare := write(t, dir, "bare.md", "# no front matter\n")
	badDate := write(t, dir, "when.md", "---\ntitle: X\nwrittenDate: someday\n---\n")
	dupA := write(t, dir, "x.md", "---\ntitle: A\nwrittenDate: 2024-01-01\n---\n")
	dupB := write(t, dir, "old-[x].md", "---\ntitle: B\nwrittenDate: 2024-01-01\n---\n")

	findings := collectFindings([]string{noID, bare, badDate, dupA, dupB}, "posts", nil)

	byPath := map[string]int{}
	for _, f := range findings {
		byPath[f.Path]++
	}
	require.Equal(t, 1, byPath[noID])
	require.Equal(t, 1, byPath[bare])
	require.Equal(t, 1, byPath[badDate])
	require.Equal(t, 1, byPath[dupA])
	require.Equal(t, 1, byPath[dupB])
}

func TestCollectFindings_UndeclaredSeries(t *testing.T) {
	dir := t.TempDir()
	p := write(t, dir, "p.md", "---\ntitle: P\nwrittenDate: 2024-01-01\nseries: rust\n---\n")

	findings := collectFindings([]string{p}, "posts", &frontmatter.Global{Series: []string{"go"}})
	require.Len(t, findings, 1)
	require.Contains(t, findings[0].Reason, "series")
}
