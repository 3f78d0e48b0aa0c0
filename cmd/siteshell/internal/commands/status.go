package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/BrianJOC/siteshell/boot"
	"github.com/BrianJOC/siteshell/pkg/bootapp"
)

type StatusCmd struct {
	Watch bool   `help:"Bootstrap interactively and watch each phase in a TUI."`
	Phase string `help:"Phase to bootstrap to in watch mode (name, alias, or index)." default:""`
}

func (s *StatusCmd) Run(ctx context.Context, globals *Globals) error {
	registry := newRegistry(globals)
	root, err := resolveRoot(globals, registry)
	if err != nil {
		return err
	}

	if s.Watch {
		app, err := bootapp.New(
			bootapp.WithRegistry(registry),
			bootapp.WithRoot(root),
			bootapp.WithSiteURI(globals.URI),
			bootapp.WithTargetPhase(s.Phase),
			bootapp.WithBootstrapOptions(boot.WithLogger(globals.Logger)),
		)
		if err != nil {
			return err
		}
		return app.Start(ctx)
	}

	variant, err := registry.SelectVariant(root)
	if err != nil {
		var noVariant boot.NoVariantError
		if errors.As(err, &noVariant) {
			fmt.Printf("No supported installation at %s\n", root)
			return nil
		}
		return err
	}

	version, verr := variant.Version(root)
	if verr != nil {
		version = "unknown"
	}
	fmt.Printf("Installation: %s %s\n", variant.Name(), version)
	fmt.Printf("Root: %s\n", root)

	discovery := make(map[int]bool)
	for _, index := range variant.InitPhases() {
		discovery[index] = true
	}
	fmt.Println("Phases:")
	for _, ph := range variant.Phases() {
		marker := ""
		if discovery[ph.Index] {
			marker = " (discovery)"
		}
		fmt.Printf("  %d  %s%s\n", ph.Index, ph.Name, marker)
	}

	aliases := make([]string, 0, len(variant.PhaseMap()))
	for shorthand := range variant.PhaseMap() {
		aliases = append(aliases, shorthand)
	}
	sort.Strings(aliases)
	fmt.Println("Phase aliases:")
	for _, shorthand := range aliases {
		fmt.Printf("  %-14s -> %d\n", shorthand, variant.PhaseMap()[shorthand])
	}
	return nil
}
