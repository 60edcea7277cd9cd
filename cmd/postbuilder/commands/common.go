package commands

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/postbuilder/internal/config"
	"git.home.luguber.info/inful/postbuilder/internal/errors"
)

// timeRounding keeps summary durations readable.
const timeRounding = time.Millisecond

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" help:"Build post artifacts and the aggregate index incrementally"`
	Check CheckCmd `cmd:"" help:"Validate post names and front matter without writing anything"`
	Watch WatchCmd `cmd:"" help:"Build, then rebuild whenever the input directory changes"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := config.ParseLogLevel(c.Verbose)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// reportFailure prints one diagnostic line per offending file to
// stderr and returns a short non-nil error for the exit code.
func reportFailure(err error) error {
	if list, ok := err.(*errors.ErrorList); ok {
		for _, e := range list.Errors() {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		return fmt.Errorf("build failed with %d error(s)", list.Len())
	}
	fmt.Fprintln(os.Stderr, err.Error())
	return fmt.Errorf("build failed")
}
