package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/BrianJOC/siteshell/boot"
)

type ListCmd struct {
	All bool `help:"Include commands the current bootstrap level cannot reach."`
}

// Run performs the discovery-only partial bootstrap and prints the commands
// that can execute at the reached phase.
func (l *ListCmd) Run(ctx context.Context, globals *Globals) error {
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
	defer b.Terminate()

	if _, err := b.SelectVariant(); err != nil {
		var noVariant boot.NoVariantError
		if !errors.As(err, &noVariant) {
			return err
		}
	}
	if err := b.DiscoveryAdvance(ctx); err != nil {
		return err
	}

	table := builtinTable(globals, os.Stdout)
	cmds := table.Commands()
	if !l.All {
		cmds = table.RunnableAt(b.State().Phase, b.LookupPhaseIndex)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, cmd := range cmds {
		if cmd.Hidden {
			continue
		}
		name := cmd.Name
		if len(cmd.Aliases) > 0 {
			name = fmt.Sprintf("%s (%s)", name, strings.Join(cmd.Aliases, ", "))
		}
		fmt.Fprintf(w, "%s\t%s\n", name, cmd.Description)
	}
	return w.Flush()
}
