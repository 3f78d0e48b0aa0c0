package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/BrianJOC/siteshell/boot"
	"github.com/BrianJOC/siteshell/command"
	"github.com/BrianJOC/siteshell/utils/rootscan"
	"github.com/BrianJOC/siteshell/variants"
	"github.com/BrianJOC/siteshell/variants/legacysite"
	"github.com/BrianJOC/siteshell/variants/modernsite"
)

type Globals struct {
	Root          string
	URI           string
	Debug         bool
	NoInteraction bool
	Logger        zerolog.Logger
	Version       string
}

// resolveRoot picks the installation root for a run. An explicit --root wins;
// otherwise the working directory and its ancestors are probed against the
// registry. Roots no variant claims fall back to the working directory so
// zero-bootstrap commands still work there.
func resolveRoot(globals *Globals, registry *boot.Registry) (string, error) {
	if globals.Root != "" {
		return globals.Root, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	root, err := rootscan.Locate(cwd, func(dir string) bool {
		_, selectErr := registry.SelectVariant(dir)
		return selectErr == nil
	})
	if err != nil {
		var notFound rootscan.NotFoundError
		if errors.As(err, &notFound) {
			return cwd, nil
		}
		return "", err
	}
	return root, nil
}

func newRegistry(globals *Globals) *boot.Registry {
	return variants.DefaultRegistry(globals.Logger, os.Stderr)
}

// builtinTable assembles the commands every installation gets. Site-provided
// commands would be layered on top after the discovery phases.
func builtinTable(globals *Globals, out io.Writer) *command.Table {
	table := command.NewTable()
	err := table.Register(
		&boot.Command{
			Name:        "core:version",
			Description: "Print the tool version and, when detected, the installation version.",
			Run: func(_ context.Context, st *boot.State, _ []string) error {
				fmt.Fprintf(out, "siteshell %s\n", globals.Version)
				if st.Variant != nil {
					fmt.Fprintf(out, "%s %s at %s\n", st.Variant.Name(), st.Version, st.Root)
				}
				return nil
			},
		},
		&boot.Command{
			Name:          "site:name",
			Description:   "Print the configured site name.",
			RequiredPhase: "configuration",
			Run: func(_ context.Context, st *boot.State, _ []string) error {
				name := siteName(st)
				if name == "" {
					return fmt.Errorf("site settings carry no site name")
				}
				fmt.Fprintln(out, name)
				return nil
			},
		},
		&boot.Command{
			Name:          "db:update",
			Aliases:       []string{"updb"},
			Description:   "Apply pending database updates.",
			RequiredPhase: "database",
			Run: func(_ context.Context, st *boot.State, _ []string) error {
				fmt.Fprintln(out, "No database updates pending.")
				return nil
			},
		},
		&boot.Command{
			Name:          "cache:rebuild",
			Aliases:       []string{"cr"},
			Description:   "Rebuild all caches.",
			RequiredPhase: "full",
			Defaults:      map[string]any{"min-version": "8.0"},
			Run: func(_ context.Context, st *boot.State, _ []string) error {
				fmt.Fprintln(out, "Caches rebuilt.")
				return nil
			},
		},
	)
	if err != nil {
		// Builtins are static; a registration failure is a programming error.
		panic(err)
	}
	return table
}

func siteName(st *boot.State) string {
	if settings, ok := boot.Value[*modernsite.Settings](st, modernsite.ContextKeySettings); ok {
		return settings.SiteName
	}
	if settings, ok := boot.Value[*legacysite.Settings](st, legacysite.ContextKeySettings); ok {
		return settings.SiteName
	}
	return ""
}
