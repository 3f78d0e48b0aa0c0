package main

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/BrianJOC/siteshell/cmd/siteshell/internal/commands"
	"github.com/BrianJOC/siteshell/internal/logger"
)

var (
	version = "dev"
	cli     struct {
		Run        commands.RunCmd     `cmd:"" help:"Run a site command against the installation"`
		List       commands.ListCmd    `cmd:"" help:"List the commands available at this root"`
		Status     commands.StatusCmd  `cmd:"" help:"Show the detected installation and its bootstrap phases"`
		VersionCmd commands.VersionCmd `cmd:"" name:"version" help:"Print tool and installation versions"`

		Root          string `help:"Installation root. Detected by walking up from the working directory when unset."`
		URI           string `name:"uri" help:"Site to bootstrap within a multi-site root."`
		Debug         bool   `help:"Enable debug logging."`
		NoInteraction bool   `help:"Fail instead of prompting for missing input."`
		Version       kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("siteshell"),
		kong.Description("Command shell for content-management installations."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{
		Root:          cli.Root,
		URI:           cli.URI,
		Debug:         cli.Debug,
		NoInteraction: cli.NoInteraction,
		Logger:        logger.Setup(cli.Debug),
		Version:       version,
	})
	cmd.FatalIfErrorf(err)
}
