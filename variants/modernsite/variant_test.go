package modernsite

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BrianJOC/siteshell/boot"
)

type siteSpec struct {
	settings string
	dbFile   string
}

func writeRoot(t *testing.T, version string, sites map[string]siteSpec) string {
	t.Helper()
	root := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "core"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, versionFile), []byte(version+"\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, sitesDirName), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, modulesDirName), 0o755))

	for name, spec := range sites {
		dir := filepath.Join(root, sitesDirName, name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, settingsFileName), []byte(spec.settings), 0o644))
		if spec.dbFile != "" {
			require.NoError(t, os.WriteFile(filepath.Join(dir, spec.dbFile), []byte("db"), 0o644))
		}
	}
	return root
}

const sqliteSettings = `site_name: Example
database:
  driver: sqlite
  path: site.db
`

func newBootstrapper(t *testing.T, v *Variant, root string, opts ...boot.Option) *boot.Bootstrapper {
	t.Helper()
	registry := boot.NewRegistry()
	require.NoError(t, registry.Register(v))
	return boot.NewBootstrapper(registry, root, opts...)
}

func TestValidRoot(t *testing.T) {
	t.Parallel()

	v := New()
	root := writeRoot(t, "10.2.1", map[string]siteSpec{"default": {settings: sqliteSettings}})
	require.True(t, v.ValidRoot(root))
	require.False(t, v.ValidRoot(t.TempDir()))

	// sites/ alone is not enough.
	partial := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(partial, sitesDirName), 0o755))
	require.False(t, v.ValidRoot(partial))
}

func TestVersionReadsTrimmedFile(t *testing.T) {
	t.Parallel()

	v := New()
	root := writeRoot(t, "  10.2.1 ", nil)

	version, err := v.Version(root)
	require.NoError(t, err)
	require.Equal(t, "10.2.1", version)

	require.NoError(t, os.WriteFile(filepath.Join(root, versionFile), []byte("   \n"), 0o644))
	_, err = v.Version(root)
	var layoutErr LayoutError
	require.ErrorAs(t, err, &layoutErr)
}

func TestFullBootstrapTakesAndReleasesLock(t *testing.T) {
	t.Parallel()

	v := New().WithOutput(io.Discard)
	root := writeRoot(t, "10.2.1", map[string]siteSpec{
		"default": {settings: sqliteSettings, dbFile: "site.db"},
	})
	b := newBootstrapper(t, v, root)
	_, err := b.SelectVariant()
	require.NoError(t, err)

	require.NoError(t, b.AdvanceTo(context.Background(), PhaseFull))
	require.Equal(t, PhaseFull, b.State().Phase)

	lockPath := filepath.Join(root, sitesDirName, "default", lockFileName)
	_, statErr := os.Stat(lockPath)
	require.NoError(t, statErr, "lock must exist while bootstrapped")

	b.Terminate()
	_, statErr = os.Stat(lockPath)
	require.True(t, os.IsNotExist(statErr), "terminate must release the lock")
}

func TestSitePhaseHonorsExplicitURI(t *testing.T) {
	t.Parallel()

	v := New().WithOutput(io.Discard)
	root := writeRoot(t, "10.2.1", map[string]siteSpec{
		"default": {settings: sqliteSettings},
		"shop":    {settings: sqliteSettings},
	})
	b := newBootstrapper(t, v, root, boot.WithSiteURI("shop"))
	_, err := b.SelectVariant()
	require.NoError(t, err)

	require.NoError(t, b.AdvanceTo(context.Background(), PhaseSite))
	siteDir, ok := boot.Value[string](b.State(), ContextKeySiteDir)
	require.True(t, ok)
	require.Equal(t, filepath.Join(root, sitesDirName, "shop"), siteDir)
}

func TestSitePhaseFailsForUnknownURI(t *testing.T) {
	t.Parallel()

	v := New().WithOutput(io.Discard)
	root := writeRoot(t, "10.2.1", map[string]siteSpec{"default": {settings: sqliteSettings}})
	b := newBootstrapper(t, v, root, boot.WithSiteURI("absent"))
	_, err := b.SelectVariant()
	require.NoError(t, err)

	err = b.AdvanceTo(context.Background(), PhaseSite)
	var phaseErr boot.PhaseFailureError
	require.ErrorAs(t, err, &phaseErr)
	var siteErr SiteError
	require.ErrorAs(t, err, &siteErr)
	require.Equal(t, "absent", siteErr.Site)
}

func TestSitePhasePrefersDefaultSite(t *testing.T) {
	t.Parallel()

	v := New().WithOutput(io.Discard)
	root := writeRoot(t, "10.2.1", map[string]siteSpec{
		"default": {settings: sqliteSettings},
		"shop":    {settings: sqliteSettings},
	})
	b := newBootstrapper(t, v, root)
	_, err := b.SelectVariant()
	require.NoError(t, err)

	require.NoError(t, b.AdvanceTo(context.Background(), PhaseSite))
	siteDir, _ := boot.Value[string](b.State(), ContextKeySiteDir)
	require.Equal(t, filepath.Join(root, sitesDirName, "default"), siteDir)
}

func TestSitePhaseRequestsInputWhenAmbiguous(t *testing.T) {
	t.Parallel()

	v := New().WithOutput(io.Discard)
	root := writeRoot(t, "10.2.1", map[string]siteSpec{
		"alpha": {settings: sqliteSettings},
		"beta":  {settings: sqliteSettings},
	})
	b := newBootstrapper(t, v, root)
	_, err := b.SelectVariant()
	require.NoError(t, err)

	err = b.AdvanceTo(context.Background(), PhaseSite)
	var inputErr boot.InputRequestError
	require.ErrorAs(t, err, &inputErr)
	require.Equal(t, InputSite, inputErr.Input.ID)
	require.Equal(t, boot.InputKindSelect, inputErr.Input.Kind)
	require.Len(t, inputErr.Input.Options, 2)
	require.Equal(t, "alpha", inputErr.Input.Options[0].Value)
	require.Equal(t, "beta", inputErr.Input.Options[1].Value)
}

func TestSitePhaseResolvesAmbiguityThroughInputHandler(t *testing.T) {
	t.Parallel()

	v := New().WithOutput(io.Discard)
	root := writeRoot(t, "10.2.1", map[string]siteSpec{
		"alpha": {settings: sqliteSettings},
		"beta":  {settings: sqliteSettings},
	})
	handler := boot.InputHandlerFunc(func(ph boot.Phase, input boot.InputDefinition, reason string) (any, error) {
		return "beta", nil
	})
	b := newBootstrapper(t, v, root, boot.WithInputHandler(handler))
	_, err := b.SelectVariant()
	require.NoError(t, err)

	require.NoError(t, b.AdvanceTo(context.Background(), PhaseSite))
	siteDir, _ := boot.Value[string](b.State(), ContextKeySiteDir)
	require.Equal(t, filepath.Join(root, sitesDirName, "beta"), siteDir)
}

func TestConfigurationPhaseLoadsSettings(t *testing.T) {
	t.Parallel()

	v := New().WithOutput(io.Discard)
	root := writeRoot(t, "10.2.1", map[string]siteSpec{"default": {settings: sqliteSettings}})
	b := newBootstrapper(t, v, root)
	_, err := b.SelectVariant()
	require.NoError(t, err)

	require.NoError(t, b.AdvanceTo(context.Background(), PhaseConfiguration))
	settings, ok := boot.Value[*Settings](b.State(), ContextKeySettings)
	require.True(t, ok)
	require.Equal(t, "Example", settings.SiteName)
	require.Equal(t, "sqlite", settings.Database.Driver)
	require.Equal(t, "site.db", settings.Database.Path)
}

func TestDatabasePhaseUsesInjectedProbe(t *testing.T) {
	t.Parallel()

	probed := 0
	v := New().WithOutput(io.Discard).WithDatabaseProbe(func(ctx context.Context, siteDir string, settings *Settings) error {
		probed++
		return nil
	})
	root := writeRoot(t, "10.2.1", map[string]siteSpec{"default": {settings: sqliteSettings}})
	b := newBootstrapper(t, v, root)
	_, err := b.SelectVariant()
	require.NoError(t, err)

	require.NoError(t, b.AdvanceTo(context.Background(), PhaseDatabase))
	require.Equal(t, 1, probed)
}

func TestDefaultProbeRejectsMissingSqliteFile(t *testing.T) {
	t.Parallel()

	siteDir := t.TempDir()
	settings := &Settings{Database: DatabaseSettings{Driver: "sqlite", Path: "absent.db"}}

	err := defaultDatabaseProbe(context.Background(), siteDir, settings)
	var dbErr DatabaseError
	require.ErrorAs(t, err, &dbErr)
	require.Equal(t, "sqlite", dbErr.Driver)
}

func TestDefaultProbeRequiresDSNForServerDrivers(t *testing.T) {
	t.Parallel()

	siteDir := t.TempDir()

	err := defaultDatabaseProbe(context.Background(), siteDir, &Settings{Database: DatabaseSettings{Driver: "mysql"}})
	var dbErr DatabaseError
	require.ErrorAs(t, err, &dbErr)

	err = defaultDatabaseProbe(context.Background(), siteDir, &Settings{
		Database: DatabaseSettings{Driver: "mysql", DSN: "user@tcp(localhost)/site"},
	})
	require.NoError(t, err)
}

func TestCheckRequirementsGatesOnVersions(t *testing.T) {
	t.Parallel()

	v := New()
	state := &boot.State{Version: "7.4"}
	result := v.CheckRequirements(state, &boot.Command{Name: "cache:rebuild"})
	require.False(t, result.OK)
	require.Len(t, result.Diagnostics, 1)
	require.Contains(t, result.Diagnostics[0], "older than the supported minimum")

	state = &boot.State{Version: "10.2.1"}
	result = v.CheckRequirements(state, &boot.Command{
		Name:     "cache:rebuild",
		Defaults: map[string]any{"min-version": "11.0"},
	})
	require.False(t, result.OK)
	require.Contains(t, result.Diagnostics[0], "requires version 11.0")

	result = v.CheckRequirements(state, &boot.Command{
		Name:     "cache:rebuild",
		Defaults: map[string]any{"min-version": "10.0"},
	})
	require.True(t, result.OK)
	require.Empty(t, result.Diagnostics)
}

func TestCheckRequirementsFailsWithoutVersion(t *testing.T) {
	t.Parallel()

	v := New()
	result := v.CheckRequirements(&boot.State{}, &boot.Command{Name: "cache:rebuild"})
	require.False(t, result.OK)
	require.Equal(t, []string{"installed version could not be determined"}, result.Diagnostics)
}

func TestFullPhaseRequiresModulesDir(t *testing.T) {
	t.Parallel()

	v := New().WithOutput(io.Discard)
	root := writeRoot(t, "10.2.1", map[string]siteSpec{
		"default": {settings: sqliteSettings, dbFile: "site.db"},
	})
	require.NoError(t, os.RemoveAll(filepath.Join(root, modulesDirName)))

	b := newBootstrapper(t, v, root)
	_, err := b.SelectVariant()
	require.NoError(t, err)

	err = b.AdvanceTo(context.Background(), PhaseFull)
	var layoutErr LayoutError
	require.ErrorAs(t, err, &layoutErr)
	require.Equal(t, PhaseDatabase, b.State().Phase)
}
