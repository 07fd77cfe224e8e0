// Package config handles loading and saving mh configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/mh/config.yaml
//   - State:   ~/.local/state/mh/ (progress database)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const appDir = "mh"

// Environment overrides.
const (
	EnvCatalog   = "MH_CATALOG"
	EnvForcePoll = "MH_FORCE_POLL"
)

// DefaultCatalogPath is used when neither flag, env nor config name a catalog.
const DefaultCatalogPath = "content.json"

// Progress backends.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Start sections.
const (
	SectionHome     = "home"
	SectionProgress = "progress"
	SectionRequest  = "request"
)

// CatalogConfig says where the catalog comes from.
type CatalogConfig struct {
	Path           string `yaml:"path,omitempty"`
	URL            string `yaml:"url,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"`
	Watch          *bool  `yaml:"watch,omitempty"` // live reload for file catalogs (default true)
}

// ProgressConfig selects the progress store backend.
type ProgressConfig struct {
	Backend string `yaml:"backend,omitempty"` // sqlite, memory
	Path    string `yaml:"path,omitempty"`
	Key     string `yaml:"key,omitempty"`
}

// RequestConfig holds lesson request settings.
type RequestConfig struct {
	Recipient string `yaml:"recipient,omitempty"`
}

// UIConfig holds UI preference settings.
type UIConfig struct {
	RecentActivity int    `yaml:"recent_activity,omitempty"`
	StartSection   string `yaml:"start_section,omitempty"` // home, progress, request
}

// Config is the top-level configuration for mh.
type Config struct {
	Catalog  CatalogConfig  `yaml:"catalog,omitempty"`
	Progress ProgressConfig `yaml:"progress,omitempty"`
	Request  RequestConfig  `yaml:"request,omitempty"`
	UI       UIConfig       `yaml:"ui,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Catalog: CatalogConfig{
			TimeoutSeconds: 10,
		},
		Progress: ProgressConfig{
			Backend: BackendSQLite,
			Path:    filepath.Join(StateDir(), "progress.db"),
			Key:     "museumProgress",
		},
		Request: RequestConfig{
			Recipient: "lessons@museumhub.example",
		},
		UI: UIConfig{
			RecentActivity: 5,
			StartSection:   SectionHome,
		},
	}
}

// ConfigDir returns the XDG config directory for mh.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appDir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appDir)
}

// StateDir returns the XDG state directory for mh.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appDir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", appDir)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	cfg.Catalog.Path = expandHome(cfg.Catalog.Path)
	cfg.Progress.Path = expandHome(cfg.Progress.Path)

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate rejects unknown enum values.
func (c Config) Validate() error {
	switch c.Progress.Backend {
	case "", BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("progress.backend: unknown backend %q", c.Progress.Backend)
	}
	switch c.UI.StartSection {
	case "", SectionHome, SectionProgress, SectionRequest:
	default:
		return fmt.Errorf("ui.start_section: unknown section %q", c.UI.StartSection)
	}
	if c.Catalog.TimeoutSeconds < 0 {
		return fmt.Errorf("catalog.timeout_seconds: must not be negative")
	}
	return nil
}

// CatalogLocation picks the catalog to load: flag, then MH_CATALOG, then
// the configured URL or path, then ./content.json.
func (c Config) CatalogLocation(flag string) string {
	if flag != "" {
		return expandHome(flag)
	}
	if env := os.Getenv(EnvCatalog); env != "" {
		return expandHome(env)
	}
	if c.Catalog.URL != "" {
		return c.Catalog.URL
	}
	if c.Catalog.Path != "" {
		return c.Catalog.Path
	}
	return DefaultCatalogPath
}

// Timeout is the catalog fetch timeout.
func (c CatalogConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// WatchEnabled reports whether file catalogs should be live-reloaded.
func (c CatalogConfig) WatchEnabled() bool {
	return c.Watch == nil || *c.Watch
}

// ForcePoll reports whether MH_FORCE_POLL asks the watcher to poll.
func ForcePoll() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(EnvForcePoll)))
	return v == "1" || v == "true" || v == "yes"
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
