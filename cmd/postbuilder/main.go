package main

import (
	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/postbuilder/cmd/postbuilder/commands"
	"git.home.luguber.info/inful/postbuilder/internal/version"
)

func main() {
	// Best effort: a missing .env is the normal case.
	_ = godotenv.Load()

	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("postbuilder"),
		kong.Description("Incremental build pipeline for markdown posts"),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)
	err := ctx.Run(&commands.Global{})
	ctx.FatalIfErrorf(err)
}
