package legacysite

import "fmt"

// ManifestError indicates the installation root or its system manifest is
// unusable.
type ManifestError struct {
	Root   string
	Reason string
}

func (e ManifestError) Error() string {
	return fmt.Sprintf("invalid legacysite installation at %q: %s", e.Root, e.Reason)
}

// SettingsError indicates the site settings file could not be used.
type SettingsError struct {
	Path   string
	Reason string
}

func (e SettingsError) Error() string {
	return fmt.Sprintf("invalid site settings %q: %s", e.Path, e.Reason)
}

// DatabaseError indicates the configured database is unusable.
type DatabaseError struct {
	Driver string
	Reason string
}

func (e DatabaseError) Error() string {
	if e.Driver == "" {
		return fmt.Sprintf("database check failed: %s", e.Reason)
	}
	return fmt.Sprintf("database check failed (%s): %s", e.Driver, e.Reason)
}
