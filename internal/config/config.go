package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             int
	ServiceURL       string // base URL of the remote recognition service
	HealthURL        string // base URL probed by the watchdog, defaults to ServiceURL
	HealthIntervalMS int    // pause between watchdog probes
	RequestTimeoutMS int
	FrameRate        int // keep every N-th decoded video frame (1 = every frame)
	CanvasWidth      int
	CanvasHeight     int
	DatabasePath     string
	FrameDirectory   string
	LogDirectory     string
	LegendPath       string // optional YAML override of the class legend
}

// Load reads .env files (a missing file is not an error) and builds the
// configuration from the environment, falling back to defaults.
func Load(paths ...string) *Config {
	_ = godotenv.Load(paths...)

	serviceURL := getEnv("SERVICE_URL", "http://localhost:8000")

	return &Config{
		Port:             getEnvAsInt("PORT", 8080),
		ServiceURL:       serviceURL,
		HealthURL:        getEnv("HEALTH_URL", serviceURL),
		HealthIntervalMS: getEnvAsInt("HEALTH_INTERVAL_MS", 5000),
		RequestTimeoutMS: getEnvAsInt("REQUEST_TIMEOUT_MS", 30000),
		FrameRate:        getEnvAsInt("FRAME_RATE", 25),
		CanvasWidth:      getEnvAsInt("CANVAS_WIDTH", 500),
		CanvasHeight:     getEnvAsInt("CANVAS_HEIGHT", 300),
		DatabasePath:     getEnv("DB_PATH", filepath.Join(".", "data", "recognition.db")),
		FrameDirectory:   getEnv("FRAME_DIR", filepath.Join(".", "frames")),
		LogDirectory:     getEnv("LOG_DIR", filepath.Join(".", "logs")),
		LegendPath:       getEnv("LEGEND_PATH", ""),
	}
}

// Validate rejects values the core cannot work with.
func (c *Config) Validate() error {
	if c.ServiceURL == "" {
		return fmt.Errorf("SERVICE_URL must not be empty")
	}
	if c.FrameRate < 1 {
		return fmt.Errorf("FRAME_RATE must be >= 1, got %d", c.FrameRate)
	}
	if c.CanvasWidth <= 0 || c.CanvasHeight <= 0 {
		return fmt.Errorf("canvas size must be positive, got %dx%d", c.CanvasWidth, c.CanvasHeight)
	}
	if c.HealthIntervalMS <= 0 {
		return fmt.Errorf("HEALTH_INTERVAL_MS must be positive, got %d", c.HealthIntervalMS)
	}
	if c.RequestTimeoutMS <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_MS must be positive, got %d", c.RequestTimeoutMS)
	}
	return nil
}

// HealthInterval returns the watchdog pause as a duration.
func (c *Config) HealthInterval() time.Duration {
	return time.Duration(c.HealthIntervalMS) * time.Millisecond
}

// RequestTimeout returns the per-request timeout for the remote service.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// Editable is the subset of settings the configuration screen can change.
type Editable struct {
	ServiceURL   string `json:"service_url"`
	DatabasePath string `json:"database_path"`
}

// Editable returns the current editable settings.
func (c *Config) Editable() Editable {
	return Editable{ServiceURL: c.ServiceURL, DatabasePath: c.DatabasePath}
}

// Save merges the editable settings into the .env file at path. Other keys
// already present in the file are preserved. Changes apply on next start.
func Save(path string, e Editable) error {
	if e.ServiceURL == "" || e.DatabasePath == "" {
		return fmt.Errorf("service url and database path are required")
	}

	values := map[string]string{}
	if _, err := os.Stat(path); err == nil {
		existing, err := godotenv.Read(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		values = existing
	}

	values["SERVICE_URL"] = e.ServiceURL
	values["DB_PATH"] = e.DatabasePath

	if err := godotenv.Write(values, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
