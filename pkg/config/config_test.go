package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigOptional_EmptyPath(t *testing.T) {
	t.Setenv("PORT", "9999")

	cfg, err := LoadConfigOptional("")
	if err != nil {
		t.Fatalf("LoadConfigOptional with empty path should not error: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected non-nil config")
	}
	if cfg.Port != 9999 {
		t.Errorf("Expected Port=9999 from env, got %d", cfg.Port)
	}
}

func TestLoadConfigOptional_FileNotExist(t *testing.T) {
	nonExistentPath := filepath.Join(t.TempDir(), "config-does-not-exist.yaml")

	cfg, err := LoadConfigOptional(nonExistentPath)
	if err != nil {
		t.Fatalf("LoadConfigOptional with non-existent file should not error: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected non-nil config")
	}
	if cfg.MaxConcurrentTasks != 10 {
		t.Errorf("Expected default MaxConcurrentTasks=10, got %d", cfg.MaxConcurrentTasks)
	}
}

func TestLoadConfig_YAMLAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
port: 8181
maxConcurrentTasks: 4
estimates:
  baseMinutes: 20
bandit:
  minShareFloor: 0.1
  windowMaxSize: 25
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != 8181 {
		t.Errorf("Port = %d, want 8181", cfg.Port)
	}
	if cfg.MaxConcurrentTasks != 4 {
		t.Errorf("MaxConcurrentTasks = %d, want 4", cfg.MaxConcurrentTasks)
	}
	if cfg.Estimates.BaseMinutes != 20 {
		t.Errorf("Estimates.BaseMinutes = %d, want 20", cfg.Estimates.BaseMinutes)
	}
	if cfg.Bandit.MinShareFloor != 0.1 {
		t.Errorf("Bandit.MinShareFloor = %v, want 0.1", cfg.Bandit.MinShareFloor)
	}
	// Unset bandit knobs still pick up defaults.
	if cfg.Bandit.ExplorationCoeff != 1.5 {
		t.Errorf("Bandit.ExplorationCoeff = %v, want default 1.5", cfg.Bandit.ExplorationCoeff)
	}
	if cfg.Estimates.RevenuePerPost != 12.5 {
		t.Errorf("Estimates.RevenuePerPost = %v, want default 12.5", cfg.Estimates.RevenuePerPost)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"dev without auth secret", func(c *Config) { c.Env = "dev" }, false},
		{"prod without auth secret", func(c *Config) { c.Env = "prod" }, true},
		{"prod with auth secret", func(c *Config) { c.Env = "prod"; c.AuthSecret = "s3cret" }, false},
		{"floor at one", func(c *Config) { c.Bandit.MinShareFloor = 1.0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfigOptional("")
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			err = cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
