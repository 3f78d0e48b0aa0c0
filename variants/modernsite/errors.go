package modernsite

import "fmt"

// LayoutError indicates the installation root does not look the way a
// modern installation must.
type LayoutError struct {
	Root   string
	Reason string
}

func (e LayoutError) Error() string {
	return fmt.Sprintf("invalid modernsite installation at %q: %s", e.Root, e.Reason)
}

// SiteError indicates a site could not be selected or prepared.
type SiteError struct {
	Site   string
	Reason string
}

func (e SiteError) Error() string {
	if e.Site == "" {
		return fmt.Sprintf("site bootstrap failed: %s", e.Reason)
	}
	return fmt.Sprintf("site %q bootstrap failed: %s", e.Site, e.Reason)
}

// SettingsError indicates a settings.yml file could not be used.
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
