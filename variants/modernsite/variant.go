// Package modernsite implements bootstrap support for modern multi-site
// installations: a core/VERSION file next to a sites/ directory, with one
// settings.yml per site.
package modernsite

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"github.com/BrianJOC/siteshell/boot"
	"github.com/BrianJOC/siteshell/utils/cmsversion"
)

const (
	variantName = "modernsite"

	// Oldest release this variant knows how to bootstrap.
	minSupportedVersion = "8.0"

	versionFile      = "core/VERSION"
	sitesDirName     = "sites"
	modulesDirName   = "modules"
	settingsFileName = "settings.yml"
	lockFileName     = ".siteshell.lock"
	defaultSiteName  = "default"
)

// Phase indexes, in execution order.
const (
	PhaseRoot = iota
	PhaseSite
	PhaseConfiguration
	PhaseDatabase
	PhaseFull
)

const (
	// Input identifiers
	InputSite = "site"

	// Context keys for downstream phases and commands
	ContextKeySiteDir  = "modernsite:site_dir"
	ContextKeySettings = "modernsite:settings"
	ContextKeyLockFile = "modernsite:lock_file"
)

// DatabaseProbe verifies that the database a site's settings describe is
// reachable. Probes must respect ctx.
type DatabaseProbe func(ctx context.Context, siteDir string, settings *Settings) error

// Variant bootstraps modern multi-site installations.
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

// ValidRoot reports whether root holds a modern installation: a readable
// core/VERSION file beside a sites/ directory.
func (v *Variant) ValidRoot(root string) bool {
	if info, err := os.Stat(filepath.Join(root, versionFile)); err != nil || info.IsDir() {
		return false
	}
	info, err := os.Stat(filepath.Join(root, sitesDirName))
	return err == nil && info.IsDir()
}

// Version reads the release string from core/VERSION.
func (v *Variant) Version(root string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(root, versionFile))
	if err != nil {
		return "", LayoutError{Root: root, Reason: "core/VERSION is not readable"}
	}
	version := strings.TrimSpace(string(raw))
	if version == "" {
		return "", LayoutError{Root: root, Reason: "core/VERSION is empty"}
	}
	return version, nil
}

// Phases implements boot.Variant.
func (v *Variant) Phases() boot.PhaseTable {
	return boot.PhaseTable{
		{Index: PhaseRoot, Name: "root", Run: v.runRoot},
		{Index: PhaseSite, Name: "site", Run: v.runSite},
		{Index: PhaseConfiguration, Name: "configuration", Run: v.runConfiguration},
		{Index: PhaseDatabase, Name: "database", Run: v.runDatabase},
		{Index: PhaseFull, Name: "full", Run: v.runFull},
	}
}

// PhaseMap implements boot.Variant.
func (v *Variant) PhaseMap() map[string]int {
	return map[string]int{
		"root":          PhaseRoot,
		"site":          PhaseSite,
		"configuration": PhaseConfiguration,
		"config":        PhaseConfiguration,
		"database":      PhaseDatabase,
		"db":            PhaseDatabase,
		"full":          PhaseFull,
		"max":           PhaseFull,
	}
}

// InitPhases returns the phases cheap enough to run for command discovery
// alone. Database and full bootstrap are excluded.
func (v *Variant) InitPhases() []int {
	return []int{PhaseRoot, PhaseSite, PhaseConfiguration}
}

// CheckRequirements gates dispatch on the installed version: the variant
// floor first, then any command-declared "min-version" default.
func (v *Variant) CheckRequirements(st *boot.State, cmd *boot.Command) boot.RequirementResult {
	var diags []string

	if st.Version == "" {
		diags = append(diags, "installed version could not be determined")
		return boot.RequirementResult{OK: false, Diagnostics: diags}
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

// Terminate removes the site lock, if one was taken.
func (v *Variant) Terminate(st *boot.State) {
	lockPath, ok := boot.Value[string](st, ContextKeyLockFile)
	if !ok {
		return
	}
	if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
		v.logger.Warn().Err(err).Str("lock", lockPath).Msg("failed to remove site lock")
	}
	st.Values.Delete(ContextKeyLockFile)
}

func (v *Variant) runRoot(_ context.Context, st *boot.State) error {
	if !v.ValidRoot(st.Root) {
		return LayoutError{Root: st.Root, Reason: "installation markers disappeared after selection"}
	}
	v.logger.Debug().Str("root", st.Root).Msg("installation root confirmed")
	return nil
}

func (v *Variant) runSite(_ context.Context, st *boot.State) error {
	siteDir, err := v.resolveSiteDir(st)
	if err != nil {
		return err
	}

	lockPath := filepath.Join(siteDir, lockFileName)
	if err := os.WriteFile(lockPath, []byte(fmt.Sprintf("pid=%d\n", os.Getpid())), 0o644); err != nil {
		return SiteError{Site: filepath.Base(siteDir), Reason: "could not take site lock"}
	}

	boot.SetValue(st, ContextKeySiteDir, siteDir)
	boot.SetValue(st, ContextKeyLockFile, lockPath)
	v.logger.Debug().Str("site", filepath.Base(siteDir)).Msg("site selected")
	return nil
}

// resolveSiteDir picks the site the run operates on. An explicit URI wins;
// otherwise a single candidate or the "default" site is used, and remaining
// ambiguity is pushed back to the operator as an input request.
func (v *Variant) resolveSiteDir(st *boot.State) (string, error) {
	sitesDir := filepath.Join(st.Root, sitesDirName)

	if st.SiteURI != "" {
		dir := filepath.Join(sitesDir, st.SiteURI)
		if !siteCandidate(dir) {
			return "", SiteError{Site: st.SiteURI, Reason: "site directory is missing or has no " + settingsFileName}
		}
		return dir, nil
	}

	candidates, err := listSites(sitesDir)
	if err != nil {
		return "", err
	}
	switch len(candidates) {
	case 0:
		return "", SiteError{Site: "", Reason: "no site with a " + settingsFileName + " found under " + sitesDir}
	case 1:
		return filepath.Join(sitesDir, candidates[0]), nil
	}

	for _, name := range candidates {
		if name == defaultSiteName {
			return filepath.Join(sitesDir, name), nil
		}
	}

	if chosen, ok := boot.GetInput(st, PhaseSite, InputSite); ok {
		name := strings.TrimSpace(fmt.Sprint(chosen))
		dir := filepath.Join(sitesDir, name)
		if !siteCandidate(dir) {
			return "", SiteError{Site: name, Reason: "selected site is missing or has no " + settingsFileName}
		}
		return dir, nil
	}

	options := make([]boot.InputOption, 0, len(candidates))
	for _, name := range candidates {
		options = append(options, boot.InputOption{Value: name, Label: name})
	}
	return "", boot.InputRequestError{
		PhaseIndex: PhaseSite,
		PhaseName:  "site",
		Reason:     "multiple sites found and none is named " + defaultSiteName,
		Input: boot.InputDefinition{
			ID:       InputSite,
			Label:    "Site",
			Kind:     boot.InputKindSelect,
			Required: true,
			Options:  options,
		},
	}
}

func (v *Variant) runConfiguration(_ context.Context, st *boot.State) error {
	siteDir, ok := boot.Value[string](st, ContextKeySiteDir)
	if !ok {
		return SiteError{Site: "", Reason: "site phase did not record a site directory"}
	}
	settings, err := LoadSettings(filepath.Join(siteDir, settingsFileName))
	if err != nil {
		return err
	}
	boot.SetValue(st, ContextKeySettings, settings)
	v.logger.Debug().Str("driver", settings.Database.Driver).Msg("site settings loaded")
	return nil
}

func (v *Variant) runDatabase(ctx context.Context, st *boot.State) error {
	settings, ok := boot.Value[*Settings](st, ContextKeySettings)
	if !ok {
		return SiteError{Site: "", Reason: "configuration phase did not record settings"}
	}
	siteDir, _ := boot.Value[string](st, ContextKeySiteDir)
	return v.probe(ctx, siteDir, settings)
}

func (v *Variant) runFull(_ context.Context, st *boot.State) error {
	info, err := os.Stat(filepath.Join(st.Root, modulesDirName))
	if err != nil || !info.IsDir() {
		return LayoutError{Root: st.Root, Reason: modulesDirName + " directory is missing"}
	}
	return nil
}

// defaultDatabaseProbe checks reachability without opening a connection:
// sqlite databases must exist on disk, anything else must at least carry a
// DSN. The sqlite stat retries briefly to ride out files mid-restore.
func defaultDatabaseProbe(ctx context.Context, siteDir string, settings *Settings) error {
	driver := strings.ToLower(strings.TrimSpace(settings.Database.Driver))
	switch driver {
	case "":
		return DatabaseError{Driver: driver, Reason: "no database driver configured"}
	case "sqlite":
		path := settings.Database.Path
		if path == "" {
			return DatabaseError{Driver: driver, Reason: "sqlite database path not configured"}
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(siteDir, path)
		}
		operation := func() (struct{}, error) {
			info, err := os.Stat(path)
			if err != nil {
				return struct{}{}, DatabaseError{Driver: driver, Reason: "database file is not readable: " + path}
			}
			if info.IsDir() {
				return struct{}{}, backoff.Permanent(DatabaseError{Driver: driver, Reason: "database path is a directory: " + path})
			}
			return struct{}{}, nil
		}
		expo := backoff.NewExponentialBackOff()
		expo.InitialInterval = 50 * time.Millisecond
		_, err := backoff.Retry(ctx, operation, backoff.WithBackOff(expo), backoff.WithMaxTries(3))
		return err
	default:
		if strings.TrimSpace(settings.Database.DSN) == "" {
			return DatabaseError{Driver: driver, Reason: "no DSN configured"}
		}
		return nil
	}
}

// siteCandidate reports whether dir is a directory containing settings.yml.
func siteCandidate(dir string) bool {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return false
	}
	fileInfo, err := os.Stat(filepath.Join(dir, settingsFileName))
	return err == nil && !fileInfo.IsDir()
}

// listSites returns the sorted names of site candidates under sitesDir.
func listSites(sitesDir string) ([]string, error) {
	entries, err := os.ReadDir(sitesDir)
	if err != nil {
		return nil, LayoutError{Root: filepath.Dir(sitesDir), Reason: sitesDirName + " directory is not readable"}
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if siteCandidate(filepath.Join(sitesDir, entry.Name())) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
