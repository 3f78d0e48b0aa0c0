package modernsite

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Settings is the per-site configuration read from settings.yml.
type Settings struct {
	SiteName string           `yaml:"site_name"`
	Database DatabaseSettings `yaml:"database"`
}

// DatabaseSettings names the database backing one site. Path is only used
// by the sqlite driver and is resolved relative to the site directory.
type DatabaseSettings struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Path   string `yaml:"path"`
}

// LoadSettings reads and parses a settings.yml file.
func LoadSettings(path string) (*Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, SettingsError{Path: path, Reason: "settings file is not readable"}
	}
	var settings Settings
	if err := yaml.Unmarshal(raw, &settings); err != nil {
		return nil, SettingsError{Path: path, Reason: err.Error()}
	}
	return &settings, nil
}
