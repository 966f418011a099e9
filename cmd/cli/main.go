package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/orgregistry/cmd/cli/internal/commands"
	"github.com/wolfeidau/orgregistry/internal/logger"
)

var (
	version = "dev"
	cli     struct {
		Create  commands.CreateCmd `cmd:"" help:"Register a new organization"`
		Get     commands.GetCmd    `cmd:"" help:"Show an organization by id"`
		Debug   bool               `help:"Enable debug mode."`
		Version kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("orgctl"),
		kong.Description("Command line client for the organization registry"),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	log.Logger = logger.Setup(cli.Debug)
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
