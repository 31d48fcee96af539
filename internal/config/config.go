// Package config loads embermoor's server configuration from a YAML file,
// layering environment variable overrides on top, in the style
// udisondev-la2go/internal/config loads its login/game server configs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds everything the server needs to start a pulse loop and a
// login listener.
type Config struct {
	ListenAddress string `yaml:"listen_address"`

	PulseRateMS int `yaml:"pulse_rate_ms"`

	AreaDir   string `yaml:"area_dir"`
	PlayerDir string `yaml:"player_dir"`

	TLSCertFile string `yaml:"tls_cert_file"`
	TLSKeyFile  string `yaml:"tls_key_file"`

	AdminAccount string `yaml:"admin_account"`

	MaxConcurrentLogins int `yaml:"max_concurrent_logins"`

	// LogFormat is "text" or "json"; anything else falls back to text.
	LogFormat string `yaml:"log_format"`
}

// Default returns the built-in configuration, the same values
// writeDefaultFile writes to disk.
func Default() Config {
	return Config{
		ListenAddress:       ":4000",
		PulseRateMS:         250,
		AreaDir:             "data/areas",
		PlayerDir:           "data/players",
		AdminAccount:        "",
		MaxConcurrentLogins: 16,
		LogFormat:           "text",
	}
}

// Load reads path, falling back to Default() and writing path as a sample
// file if it doesn't exist yet (1kaius1-MUD-Engine/internal/config.go's
// create-default-if-absent behavior). Environment variables prefixed
// EMBERMOOR_ override whatever the file (or the defaults) set.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		}
		if werr := writeDefaultFile(path, cfg); werr != nil {
			return cfg, fmt.Errorf("writing default config %s: %w", path, werr)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func writeDefaultFile(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// applyEnvOverrides layers EMBERMOOR_* environment variables over cfg, the
// same key-by-key override shape udisondev-la2go's config layer uses.
func applyEnvOverrides(cfg *Config) {
	if v, ok := lookupEnv("LISTEN_ADDRESS"); ok {
		cfg.ListenAddress = v
	}
	if v, ok := lookupEnvInt("PULSE_RATE_MS"); ok {
		cfg.PulseRateMS = v
	}
	if v, ok := lookupEnv("AREA_DIR"); ok {
		cfg.AreaDir = v
	}
	if v, ok := lookupEnv("PLAYER_DIR"); ok {
		cfg.PlayerDir = v
	}
	if v, ok := lookupEnv("TLS_CERT_FILE"); ok {
		cfg.TLSCertFile = v
	}
	if v, ok := lookupEnv("TLS_KEY_FILE"); ok {
		cfg.TLSKeyFile = v
	}
	if v, ok := lookupEnv("ADMIN_ACCOUNT"); ok {
		cfg.AdminAccount = v
	}
	if v, ok := lookupEnvInt("MAX_CONCURRENT_LOGINS"); ok {
		cfg.MaxConcurrentLogins = v
	}
	if v, ok := lookupEnv("LOG_FORMAT"); ok {
		cfg.LogFormat = v
	}
}

const envPrefix = "EMBERMOOR_"

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok {
		return "", false
	}
	return v, true
}

func lookupEnvInt(key string) (int, bool) {
	v, ok := lookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func validate(cfg *Config) error {
	if cfg.PulseRateMS <= 0 {
		return fmt.Errorf("pulse_rate_ms must be positive, got %d", cfg.PulseRateMS)
	}
	if cfg.MaxConcurrentLogins <= 0 {
		return fmt.Errorf("max_concurrent_logins must be positive, got %d", cfg.MaxConcurrentLogins)
	}
	if cfg.AreaDir == "" {
		return fmt.Errorf("area_dir cannot be empty")
	}
	if cfg.PlayerDir == "" {
		return fmt.Errorf("player_dir cannot be empty")
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		cfg.LogFormat = "text"
	}
	return nil
}
