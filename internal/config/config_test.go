package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsIndexName(t *testing.T) {
	cfg, err := New(t.TempDir(), "out", "", false, "", 0)
	require.NoError(t, err)
	require.Equal(t, DefaultIndexName, cfg.IndexName)
	require.Equal(t, DefaultWorkers, cfg.Workers)
}

func TestNew_RejectsInvalidIndexName(t *testing.T) {
	_, err := New(t.TempDir(), "out", "my index", false, "", 0)
	require.Error(t, err)
}

func TestNew_RejectsMissingInputDir(t *testing.T) {
	_, err := New("/definitely/not/here", "out", "posts", false, "", 0)
	require.Error(t, err)
}

func TestNew_WorkersFromEnv(t *testing.T) {
	t.Setenv("POSTBUILDER_RENDER_WORKERS", "3")
	cfg, err := New(t.TempDir(), "out", "posts", false, "", 0)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Workers)
}

func TestNew_ExplicitWorkersBeatEnv(t *testing.T) {
	t.Setenv("POSTBUILDER_RENDER_WORKERS", "3")
	cfg, err := New(t.TempDir(), "out", "posts", false, "", 5)
	require.NoError(t, err)
	require.Equal(t, 5, cfg.Workers)
}

func TestIndexAndSidecarPaths(t *testing.T) {
	cfg, err := New(t.TempDir(), "out", "listing", false, "", 0)
	require.NoError(t, err)
	require.Equal(t, "out/listing.json", cfg.IndexPath())
	require.Equal(t, "out/meta.json", cfg.SidecarPath())
}

func TestParseLogLevel_EnvWinsOverFlag(t *testing.T) {
	t.Setenv("POSTBUILDER_LOG_LEVEL", "error")
	require.Equal(t, slog.LevelError, ParseLogLevel(true))
}

func TestParseLogLevel_VerboseFlag(t *testing.T) {
	t.Setenv("POSTBUILDER_LOG_LEVEL", "")
	require.Equal(t, slog.LevelDebug, ParseLogLevel(true))
	require.Equal(t, slog.LevelInfo, ParseLogLevel(false))
}
