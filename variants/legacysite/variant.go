// Package legacysite implements bootstrap support for legacy single-site
// installations: a system/system.info manifest plus a conf/site-settings.yml
// file at the root. Legacy roots have no sites/ tree, so there is no site
// phase; configuration follows root directly.
package legacysite

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/BrianJOC/siteshell/boot"
	"github.com/BrianJOC/siteshell/utils/cmsversion"
)

const (
	variantName = "legacysite"

	minSupportedVersion = "6.0"

	infoFile     = "system/system.info"
	settingsFile = "conf/site-settings.yml"
	lockFileName = ".siteshell.lock"
)

// Phase indexes, in execution order.
const (
	PhaseRoot = iota
	PhaseConfiguration
	PhaseDatabase
	PhaseFull
)

const (
	// Context keys for downstream phases and commands
	ContextKeySettings = "legacysite:settings"
	ContextKeyLockFile = "legacysite:lock_file"
)

// Settings is the site configuration read from conf/site-settings.yml.
type Settings struct {
	SiteName string `yaml:"site_name"`
	Database struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`
}

// DatabaseProbe verifies that the configured database is reachable.
type DatabaseProbe func(ctx context.Context, settings *Settings) error

// Variant bootstraps legacy single-site installations.
type Variant struct {
	probe  DatabaseProbe
	out    io.Writer
	logger zerolog.Logger
}

// New creates a Variant with the default database probe.
func New() *Variant {
	return &Variant{
		probe:  defaultDatabaseProbe,
		out:    os.Stderr,
		logger: zerolog.Nop(),
	}
}

// WithDatabaseProbe allows injecting a custom probe (useful for tests).
func (v *Variant) WithDatabaseProbe(probe DatabaseProbe) *Variant {
	if probe != nil {
		v.probe = probe
	}
	return v
}

// WithOutput redirects command-error reporting.
func (v *Variant) WithOutput(w io.Writer) *Variant {
	if w != nil {
		v.out = w
	}
	return v
}

// WithLogger attaches a logger for phase-level diagnostics.
func (v *Variant) WithLogger(logger zerolog.Logger) *Variant {
	v.logger = logger
	return v
}

// Name implements boot.Variant.
func (v *Variant) Name() string { return variantName }

// ValidRoot reports whether root holds a legacy installation.
func (v *Variant) ValidRoot(root string) bool {
	for _, marker := range []string{infoFile, settingsFile} {
		info, err := os.Stat(filepath.Join(root, marker))
		if err != nil || info.IsDir() {
			return false
		}
	}
	return true
}

// Version extracts the "version = ..." line from system/system.info.
func (v *Variant) Version(root string) (string, error) {
	f, err := os.Open(filepath.Join(root, infoFile))
	if err != nil {
		return "", ManifestError{Root: root, Reason: "system.info is not readable"}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, found := strings.Cut(scanner.Text(), "=")
		if !found || strings.TrimSpace(key) != "version" {
			continue
		}
		version := strings.Trim(strings.TrimSpace(value), `"'`)
		if version == "" {
			break
		}
		return version, nil
	}
	return "", ManifestError{Root: root, Reason: "system.info has no version line"}
}

// Phases implements boot.Variant.
func (v *Variant) Phases() boot.PhaseTable {
	return boot.PhaseTable{
		{Index: PhaseRoot, Name: "root", Run: v.runRoot},
		{Index: PhaseConfiguration, Name: "configuration", Run: v.runConfiguration},
		{Index: PhaseDatabase, Name: "database", Run: v.runDatabase},
		{Index: PhaseFull, Name: "full", Run: v.runFull},
	}
}

// PhaseMap implements boot.Variant.
func (v *Variant) PhaseMap() map[string]int {
	return map[string]int{
		"root":          PhaseRoot,
		"configuration": PhaseConfiguration,
		"config":        PhaseConfiguration,
		"database":      PhaseDatabase,
		"db":            PhaseDatabase,
		"full":          PhaseFull,
		"max":           PhaseFull,
	}
}

// InitPhases implements boot.Variant.
func (v *Variant) InitPhases() []int {
	return []int{PhaseRoot, PhaseConfiguration}
}

// CheckRequirements gates dispatch on the installed version.
func (v *Variant) CheckRequirements(st *boot.State, cmd *boot.Command) boot.RequirementResult {
	var diags []string

	if st.Version == "" {
		return boot.RequirementResult{Diagnostics: []string{"installed version could not be determined"}}
	}

	if ok, err := cmsversion.AtLeast(st.Version, minSupportedVersion); err != nil {
		diags = append(diags, fmt.Sprintf("installed version %q is not parseable", st.Version))
	} else if !ok {
		diags = append(diags, fmt.Sprintf("installed version %s is older than the supported minimum %s", st.Version, minSupportedVersion))
	}

	if min := cmd.DefaultString("min-version"); min != "" {
		if ok, err := cmsversion.AtLeast(st.Version, min); err != nil {
			diags = append(diags, fmt.Sprintf("command minimum version %q is not parseable", min))
		} else if !ok {
			diags = append(diags, fmt.Sprintf("command %s requires version %s or newer, found %s", cmd.Name, min, st.Version))
		}
	}

	return boot.RequirementResult{OK: len(diags) == 0, Diagnostics: diags}
}

// ReportCommandError implements boot.Variant.
func (v *Variant) ReportCommandError(cmd *boot.Command) {
	boot.RenderCommandError(v.out, cmd)
}

// Terminate removes the root lock, if one was taken.
func (v *Variant) Terminate(st *boot.State) {
	lockPath, ok := boot.Value[string](st, ContextKeyLockFile)
	if !ok {
		return
	}
	if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
		v.logger.Warn().Err(err).Str("lock", lockPath).Msg("failed to remove root lock")
	}
	st.Values.Delete(ContextKeyLockFile)
}

func (v *Variant) runRoot(_ context.Context, st *boot.State) error {
	if !v.ValidRoot(st.Root) {
		return ManifestError{Root: st.Root, Reason: "installation markers disappeared after selection"}
	}
	if st.SiteURI != "" {
		// Legacy roots host exactly one site; a URI other than the root's
		// own is a misconfiguration worth failing loudly on.
		return ManifestError{Root: st.Root, Reason: fmt.Sprintf("legacy installations are single-site, cannot bootstrap site %q", st.SiteURI)}
	}

	lockPath := filepath.Join(st.Root, lockFileName)
	if err := os.WriteFile(lockPath, []byte(fmt.Sprintf("pid=%d\n", os.Getpid())), 0o644); err != nil {
		return ManifestError{Root: st.Root, Reason: "could not take root lock"}
	}
	boot.SetValue(st, ContextKeyLockFile, lockPath)
	return nil
}

func (v *Variant) runConfiguration(_ context.Context, st *boot.State) error {
	path := filepath.Join(st.Root, settingsFile)
	raw, err := os.ReadFile(path)
	if err != nil {
		return SettingsError{Path: path, Reason: "settings file is not readable"}
	}
	var settings Settings
	if err := yaml.Unmarshal(raw, &settings); err != nil {
		return SettingsError{Path: path, Reason: err.Error()}
	}
	boot.SetValue(st, ContextKeySettings, &settings)
	v.logger.Debug().Str("driver", settings.Database.Driver).Msg("site settings loaded")
	return nil
}

func (v *Variant) runDatabase(ctx context.Context, st *boot.State) error {
	settings, ok := boot.Value[*Settings](st, ContextKeySettings)
	if !ok {
		return SettingsError{Path: settingsFile, Reason: "configuration phase did not record settings"}
	}
	return v.probe(ctx, settings)
}

func (v *Variant) runFull(_ context.Context, st *boot.State) error {
	info, err := os.Stat(filepath.Join(st.Root, "system"))
	if err != nil || !info.IsDir() {
		return ManifestError{Root: st.Root, Reason: "system directory is missing"}
	}
	return nil
}

// defaultDatabaseProbe only validates configuration: legacy settings carry a
// DSN for every driver, including file-backed ones.
func defaultDatabaseProbe(_ context.Context, settings *Settings) error {
	if strings.TrimSpace(settings.Database.Driver) == "" {
		return DatabaseError{Reason: "no database driver configured"}
	}
	if strings.TrimSpace(settings.Database.DSN) == "" {
		return DatabaseError{Driver: settings.Database.Driver, Reason: "no DSN configured"}
	}
	return nil
}
