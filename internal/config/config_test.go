package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileWritesDefaultsAndReturnsThem(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddress != ":4000" {
		t.Fatalf("ListenAddress = %q, want default", cfg.ListenAddress)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected Load to write a default file: %v", err)
	}
}

func TestLoadParsesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("listen_address: \":5000\"\npulse_rate_ms: 100\narea_dir: areas\nplayer_dir: players\nmax_concurrent_logins: 4\n"), 0o644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddress != ":5000" || cfg.PulseRateMS != 100 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("listen_address: \":5000\"\npulse_rate_ms: 100\narea_dir: areas\nplayer_dir: players\nmax_concurrent_logins: 4\n"), 0o644)

	t.Setenv("EMBERMOOR_LISTEN_ADDRESS", ":9999")
	t.Setenv("EMBERMOOR_PULSE_RATE_MS", "50")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddress != ":9999" {
		t.Fatalf("ListenAddress = %q, want env override", cfg.ListenAddress)
	}
	if cfg.PulseRateMS != 50 {
		t.Fatalf("PulseRateMS = %d, want env override", cfg.PulseRateMS)
	}
}

func TestInvalidPulseRateRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("pulse_rate_ms: 0\narea_dir: areas\nplayer_dir: players\nmax_concurrent_logins: 4\n"), 0o644)

	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for a zero pulse rate")
	}
}

func TestUnknownLogFormatFallsBackToText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("pulse_rate_ms: 100\narea_dir: areas\nplayer_dir: players\nmax_concurrent_logins: 4\nlog_format: xml\n"), 0o644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogFormat != "text" {
		t.Fatalf("LogFormat = %q, want fallback to text", cfg.LogFormat)
	}
}
