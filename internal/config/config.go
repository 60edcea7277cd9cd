// Package config defines the single immutable configuration value
// threaded from the CLI entry point through every build component.
// There is no ambient or global mutable state.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/postbuilder/internal/identity"
)

const (
	// DefaultIndexName names the aggregate index artifact.
	DefaultIndexName = "posts"
	// SidecarName names the persisted global metadata artifact. Reserved
	// alongside the index name so no post can claim it.
	SidecarName = "meta"
	// DefaultWorkers bounds the render fan-out when no override is set.
	DefaultWorkers = 8
)

// Config is built once in the command layer and never mutated.
type Config struct {
	InputDir  string
	OutputDir string
	IndexName string
	Force     bool
	MetaPath  string // optional global metadata file; empty means none
	Workers   int
}

// New validates the raw CLI inputs and applies environment overrides.
func New(inputDir, outputDir, indexName string, force bool, metaPath string, workers int) (Config, error) {
	if indexName == "" {
		indexName = DefaultIndexName
	}
	if !identity.Valid(indexName) {
		return Config{}, fmt.Errorf("index name %q must match [A-Za-z0-9_-]+", indexName)
	}

	info, err := os.Stat(inputDir)
	if err != nil {
		return Config{}, fmt.Errorf("input directory: %w", err)
	}
	if !info.IsDir() {
		return Config{}, fmt.Errorf("input path %s is not a directory", inputDir)
	}

	if workers <= 0 {
		workers = workersFromEnv()
	}

	return Config{
		InputDir:  filepath.Clean(inputDir),
		OutputDir: filepath.Clean(outputDir),
		IndexName: indexName,
		Force:     force,
		MetaPath:  metaPath,
		Workers:   workers,
	}, nil
}

// IndexPath is the aggregate index artifact location.
func (c Config) IndexPath() string {
	return filepath.Join(c.OutputDir, c.IndexName+".json")
}

// SidecarPath is the global metadata artifact location.
func (c Config) SidecarPath() string {
	return filepath.Join(c.OutputDir, SidecarName+".json")
}

func workersFromEnv() int {
	if raw := os.Getenv("POSTBUILDER_RENDER_WORKERS"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
		slog.Warn("Ignoring invalid POSTBUILDER_RENDER_WORKERS", "value", raw)
	}
	return DefaultWorkers
}

// ParseLogLevel handles both the verbose flag and POSTBUILDER_LOG_LEVEL.
// The env var wins so CI can force debug output without flag plumbing.
func ParseLogLevel(verbose bool) slog.Level {
	switch strings.ToLower(os.Getenv("POSTBUILDER_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
