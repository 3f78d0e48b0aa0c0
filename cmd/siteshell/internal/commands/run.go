package commands

import (
	"context"
	"errors"
	"os"

	"github.com/BrianJOC/siteshell/boot"
	"github.com/BrianJOC/siteshell/command"
)

type RunCmd struct {
	Name string   `arg:"" help:"Command name or alias."`
	Args []string `arg:"" optional:"" passthrough:"" help:"Arguments handed to the command."`
}

func (r *RunCmd) Run(ctx context.Context, globals *Globals) error {
	registry := newRegistry(globals)
	root, err := resolveRoot(globals, registry)
	if err != nil {
		return err
	}

	b := boot.NewBootstrapper(registry, root,
		boot.WithLogger(globals.Logger),
		boot.WithSiteURI(globals.URI),
		boot.WithInputHandler(inputHandler(globals)),
	)
	table := builtinTable(globals, os.Stdout)

	resolve := func(_ context.Context, _ *boot.State) (*boot.Command, error) {
		cmd, resolveErr := table.Resolve(r.Name)
		if resolveErr != nil {
			var notFound command.NotFoundError
			if errors.As(resolveErr, &notFound) {
				// Hand the bootstrapper a stub so near-miss suggestions
				// reach the error report.
				return &boot.Command{Name: r.Name, Suggestions: notFound.Suggestions}, resolveErr
			}
			return nil, resolveErr
		}
		return cmd, nil
	}
	dispatch := func(ctx context.Context, st *boot.State, cmd *boot.Command) error {
		return cmd.Run(ctx, st, r.Args)
	}

	return b.Run(ctx, resolve, dispatch)
}
