package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("HARVESTIQ_CONFIG")
	os.Unsetenv("HARVESTIQ_PORT")
	os.Unsetenv("HARVESTIQ_API_KEYS")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != DefaultPort {
		t.Errorf("port: got %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.APIPrefix != DefaultAPIPrefix {
		t.Errorf("api prefix: got %q", cfg.APIPrefix)
	}
	if _, ok := cfg.Sources["crop_yield"]; !ok {
		t.Error("default sources must include crop_yield")
	}
	if cfg.EnableAuth {
		t.Error("auth must default to disabled")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HARVESTIQ_PORT", "9090")
	t.Setenv("HARVESTIQ_DB_PATH", "/tmp/other.db")
	t.Setenv("HARVESTIQ_API_KEYS", "k1,k2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("port: got %d", cfg.Port)
	}
	if cfg.DBPath != "/tmp/other.db" {
		t.Errorf("db path: got %q", cfg.DBPath)
	}
	if len(cfg.APIKeys) != 2 || !cfg.EnableAuth {
		t.Errorf("api keys must enable auth: keys=%v auth=%v", cfg.APIKeys, cfg.EnableAuth)
	}
}

func TestLoadJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"port": 8080, "log_level": "debug", "pii_keywords": ["ssn"]}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HARVESTIQ_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 || cfg.LogLevel != "debug" {
		t.Errorf("file values not applied: port=%d level=%q", cfg.Port, cfg.LogLevel)
	}
	if len(cfg.PIIKeywords) != 1 || cfg.PIIKeywords[0] != "ssn" {
		t.Errorf("pii keywords: got %v", cfg.PIIKeywords)
	}
}

func TestLoadBadConfigFile(t *testing.T) {
	t.Setenv("HARVESTIQ_CONFIG", filepath.Join(t.TempDir(), "missing.json"))
	if _, err := Load(); err == nil {
		t.Error("missing config file must be an error")
	}
}
