// Package settings loads the application settings file that designates
// the current site and the registry it lives in.
package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

var ErrProviderLoad = errors.New("could not load settings provider")

const DefaultSiteID int64 = 1

type Settings struct {
	// Path of the file the settings were read from.
	Module      string `yaml:"-"`
	SiteID      int64  `yaml:"site_id"`
	DatabaseURL string `yaml:"database_url"`
}

// ModulePath resolves module against the project root. Absolute modules
// are returned unchanged.
func ModulePath(projectDir, module string) string {
	if filepath.IsAbs(module) {
		return filepath.Clean(module)
	}
	return filepath.Join(projectDir, module)
}

// Load reads and validates the settings file. dbOverride, when set,
// replaces the file's database_url.
func Load(projectDir, module, dbOverride string, logger *slog.Logger) (*Settings, error) {
	fpath := ModulePath(projectDir, module)
	logger.Debug("loading settings", "module", fpath)

	data, err := os.ReadFile(fpath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderLoad, err)
	}

	st, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrProviderLoad, fpath, err)
	}
	st.Module = fpath

	if dbOverride != "" {
		st.DatabaseURL = dbOverride
	}
	if st.DatabaseURL == "" {
		return nil, fmt.Errorf("%w: %s: database_url is required", ErrProviderLoad, fpath)
	}

	logger.Info("settings loaded", "module", fpath, "siteID", st.SiteID)
	return st, nil
}

// settingsFile tells an omitted site_id apart from an explicit zero.
type settingsFile struct {
	SiteID      *int64 `yaml:"site_id"`
	DatabaseURL string `yaml:"database_url"`
}

func Parse(data []byte) (*Settings, error) {
	raw := &settingsFile{}
	err := yaml.Unmarshal(data, raw)
	if err != nil {
		return nil, err
	}

	st := &Settings{
		SiteID:      DefaultSiteID,
		DatabaseURL: raw.DatabaseURL,
	}
	if raw.SiteID != nil {
		if *raw.SiteID <= 0 {
			return nil, fmt.Errorf("site_id must be positive, got %d", *raw.SiteID)
		}
		st.SiteID = *raw.SiteID
	}

	return st, nil
}
