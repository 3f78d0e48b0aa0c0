package commands

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/BrianJOC/siteshell/boot"
	"github.com/BrianJOC/siteshell/command"
)

func testGlobals() *Globals {
	return &Globals{
		Logger:        zerolog.Nop(),
		NoInteraction: true,
		Version:       "test",
	}
}

func writeModernRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "core"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "core", "VERSION"), []byte("10.2.1\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "modules"), 0o755))
	siteDir := filepath.Join(root, "sites", "default")
	require.NoError(t, os.MkdirAll(siteDir, 0o755))
	settings := "site_name: Example\ndatabase:\n  driver: sqlite\n  path: site.db\n"
	require.NoError(t, os.WriteFile(filepath.Join(siteDir, "settings.yml"), []byte(settings), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(siteDir, "site.db"), []byte("db"), 0o644))
	return root
}

func runBuiltin(t *testing.T, globals *Globals, root, name string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	registry := newRegistry(globals)
	table := builtinTable(globals, &out)

	b := boot.NewBootstrapper(registry, root,
		boot.WithLogger(globals.Logger),
		boot.WithErrorOutput(io.Discard),
	)
	resolve := func(_ context.Context, _ *boot.State) (*boot.Command, error) {
		cmd, err := table.Resolve(name)
		if err != nil {
			var notFound command.NotFoundError
			if errors.As(err, &notFound) {
				return &boot.Command{Name: name, Suggestions: notFound.Suggestions}, err
			}
			return nil, err
		}
		return cmd, nil
	}
	dispatch := func(ctx context.Context, st *boot.State, cmd *boot.Command) error {
		return cmd.Run(ctx, st, nil)
	}
	err := b.Run(context.Background(), resolve, dispatch)
	return out.String(), err
}

func TestBuiltinTableResolvesAliases(t *testing.T) {
	t.Parallel()

	table := builtinTable(testGlobals(), io.Discard)
	cmd, err := table.Resolve("cr")
	require.NoError(t, err)
	require.Equal(t, "cache:rebuild", cmd.Name)

	cmd, err = table.Resolve("updb")
	require.NoError(t, err)
	require.Equal(t, "db:update", cmd.Name)
}

func TestCacheRebuildEndToEnd(t *testing.T) {
	t.Parallel()

	root := writeModernRoot(t)
	out, err := runBuiltin(t, testGlobals(), root, "cache:rebuild")
	require.NoError(t, err)
	require.Equal(t, "Caches rebuilt.\n", out)

	// Terminate must have released the site lock.
	_, statErr := os.Stat(filepath.Join(root, "sites", "default", ".siteshell.lock"))
	require.True(t, os.IsNotExist(statErr))
}

func TestSiteNamePrintsConfiguredName(t *testing.T) {
	t.Parallel()

	root := writeModernRoot(t)
	out, err := runBuiltin(t, testGlobals(), root, "site:name")
	require.NoError(t, err)
	require.Equal(t, "Example\n", out)
}

func TestCoreVersionRunsWithoutInstallation(t *testing.T) {
	t.Parallel()

	out, err := runBuiltin(t, testGlobals(), t.TempDir(), "core:version")
	require.NoError(t, err)
	require.Equal(t, "siteshell test\n", out)
}

func TestCoreVersionReportsInstallation(t *testing.T) {
	t.Parallel()

	root := writeModernRoot(t)
	out, err := runBuiltin(t, testGlobals(), root, "core:version")
	require.NoError(t, err)
	require.Contains(t, out, "siteshell test\n")
	require.Contains(t, out, "modernsite 10.2.1")
}

func TestUnknownCommandPropagatesSuggestions(t *testing.T) {
	t.Parallel()

	root := writeModernRoot(t)
	_, err := runBuiltin(t, testGlobals(), root, "cache:rebuld")
	var notFound command.NotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, []string{"cache:rebuild"}, notFound.Suggestions)
}

func TestResolveRootWalksUpFromExplicitFlag(t *testing.T) {
	t.Parallel()

	root := writeModernRoot(t)
	globals := testGlobals()
	globals.Root = root

	resolved, err := resolveRoot(globals, newRegistry(globals))
	require.NoError(t, err)
	require.Equal(t, root, resolved)
}

func TestStdinInputHandlerSelectsByNumber(t *testing.T) {
	t.Parallel()

	handler := newStdinInputHandler(strings.NewReader("2\n"), io.Discard)
	value, err := handler.RequestInput(boot.Phase{Name: "site"}, boot.InputDefinition{
		ID:    "site",
		Label: "Site",
		Kind:  boot.InputKindSelect,
		Options: []boot.InputOption{
			{Value: "alpha", Label: "alpha"},
			{Value: "beta", Label: "beta"},
		},
	}, "")
	require.NoError(t, err)
	require.Equal(t, "beta", value)
}

func TestStdinInputHandlerFallsBackToDefault(t *testing.T) {
	t.Parallel()

	handler := newStdinInputHandler(strings.NewReader("\n"), io.Discard)
	value, err := handler.RequestInput(boot.Phase{Name: "site"}, boot.InputDefinition{
		ID:      "site",
		Label:   "Site",
		Default: "default",
	}, "")
	require.NoError(t, err)
	require.Equal(t, "default", value)
}

func TestNoInteractionHandlerFails(t *testing.T) {
	t.Parallel()

	handler := inputHandler(testGlobals())
	_, err := handler.RequestInput(boot.Phase{Name: "site"}, boot.InputDefinition{ID: "site"}, "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "interaction is disabled")
}
