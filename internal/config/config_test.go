package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"SERVICE_URL", "HEALTH_URL", "FRAME_RATE", "CANVAS_WIDTH", "CANVAS_HEIGHT"} {
		t.Setenv(key, "")
	}

	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))

	if cfg.ServiceURL != "http://localhost:8000" {
		t.Errorf("ServiceURL = %q", cfg.ServiceURL)
	}
	if cfg.HealthURL != cfg.ServiceURL {
		t.Errorf("HealthURL should default to ServiceURL, got %q", cfg.HealthURL)
	}
	if cfg.CanvasWidth != 500 || cfg.CanvasHeight != 300 {
		t.Errorf("canvas = %dx%d, expected 500x300", cfg.CanvasWidth, cfg.CanvasHeight)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SERVICE_URL", "http://detector:9000")
	t.Setenv("HEALTH_URL", "")
	t.Setenv("FRAME_RATE", "5")
	t.Setenv("HEALTH_INTERVAL_MS", "250")

	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))

	if cfg.ServiceURL != "http://detector:9000" || cfg.HealthURL != "http://detector:9000" {
		t.Errorf("unexpected urls %q %q", cfg.ServiceURL, cfg.HealthURL)
	}
	if cfg.FrameRate != 5 {
		t.Errorf("FrameRate = %d, expected 5", cfg.FrameRate)
	}
	if cfg.HealthInterval().Milliseconds() != 250 {
		t.Errorf("HealthInterval = %v", cfg.HealthInterval())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero frame rate", func(c *Config) { c.FrameRate = 0 }},
		{"negative canvas", func(c *Config) { c.CanvasWidth = -1 }},
		{"zero interval", func(c *Config) { c.HealthIntervalMS = 0 }},
		{"empty url", func(c *Config) { c.ServiceURL = "" }},
	}

	for _, tt := range tests {
		cfg := &Config{ServiceURL: "http://x", FrameRate: 1, CanvasWidth: 1, CanvasHeight: 1, HealthIntervalMS: 1, RequestTimeoutMS: 1}
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestSave_PreservesOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("PORT=9090\nSERVICE_URL=http://old\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Save(path, Editable{ServiceURL: "http://new:8000", DatabasePath: "db/new.db"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	values, err := godotenv.Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if values["SERVICE_URL"] != "http://new:8000" || values["DB_PATH"] != "db/new.db" {
		t.Errorf("editable values not written: %v", values)
	}
	if values["PORT"] != "9090" {
		t.Errorf("PORT should be preserved, got %q", values["PORT"])
	}
}

func TestSave_RejectsEmpty(t *testing.T) {
	if err := Save(filepath.Join(t.TempDir(), ".env"), Editable{}); err == nil {
		t.Error("expected error for empty settings")
	}
}
