// Package config loads the operational settings for the core: database
// location, cache freshness windows, holiday feed endpoint, and cleanup
// whitelist extensions.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that decodes from Go duration syntax
// ("90s", "5m") in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the duration as a plain time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full configuration. Zero values are filled with
// defaults by Load; a missing file yields Default() unchanged.
type Config struct {
	// DBPath is the SQLite database location.
	DBPath string `yaml:"db_path"`

	// VolatileTTL bounds cache entries for frequently-changing tables.
	VolatileTTL Duration `yaml:"volatile_ttl"`

	// StaticTTL bounds cache entries for reference data.
	StaticTTL Duration `yaml:"static_ttl"`

	Holiday HolidayConfig `yaml:"holiday"`
	Cleanup CleanupConfig `yaml:"cleanup"`
}

// HolidayConfig configures the external holiday feed.
type HolidayConfig struct {
	// BaseURL is the feed endpoint without the year segment.
	BaseURL string `yaml:"base_url"`
}

// CleanupConfig extends the built-in cleanup whitelist.
type CleanupConfig struct {
	// WhitelistKeys are extra exact key names exempt from removal.
	WhitelistKeys []string `yaml:"whitelist_keys"`

	// WhitelistPrefixes are extra key prefixes exempt from removal.
	WhitelistPrefixes []string `yaml:"whitelist_prefixes"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		DBPath:      "schoolcore.db",
		VolatileTTL: Duration(5 * time.Minute),
		StaticTTL:   Duration(30 * time.Minute),
		Holiday: HolidayConfig{
			BaseURL: "https://date.nager.at/api/v3/PublicHolidays",
		},
	}
}

// Load reads a YAML config file and overlays it on the defaults.
// Unknown fields are rejected. path == "" or a missing file returns
// Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.VolatileTTL <= 0 {
		cfg.VolatileTTL = Default().VolatileTTL
	}
	if cfg.StaticTTL <= 0 {
		cfg.StaticTTL = Default().StaticTTL
	}
	if cfg.DBPath == "" {
		cfg.DBPath = Default().DBPath
	}
	return cfg, nil
}
