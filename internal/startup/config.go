package startup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"media-library/internal/bootstrap"
	"media-library/internal/logging"
)

// Config holds all application configuration
type Config struct {
	MediaDir        string
	CacheDir        string
	DatabaseDir     string
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	LogHealthChecks bool
	FaceDetection   bootstrap.FaceDetectionMode
	WatchEnabled    bool
	WatchDebounce   time.Duration
	TaskWarnAfter   time.Duration
	SettingsFile    string

	// Derived paths
	DatabasePath string
}

// fileSettings is the TOML overlay. Empty or nil fields leave the default
// in place.
type fileSettings struct {
	MediaDir       string `toml:"media_dir,omitempty"`
	CacheDir       string `toml:"cache_dir,omitempty"`
	Port           string `toml:"port,omitempty"`
	MetricsPort    string `toml:"metrics_port,omitempty"`
	MetricsEnabled *bool  `toml:"metrics_enabled,omitempty"`
	FaceDetection  string `toml:"face_detection,omitempty"`
	WatchEnabled   *bool  `toml:"watch_enabled,omitempty"`
	WatchDebounce  string `toml:"watch_debounce,omitempty"`
	TaskWarnAfter  string `toml:"task_warn_after,omitempty"`
}

func defaultConfig() *Config {
	return &Config{
		MediaDir:       "/media",
		CacheDir:       "/cache",
		DatabaseDir:    "/database",
		Port:           "8080",
		MetricsPort:    "9090",
		MetricsEnabled: true,
		FaceDetection:  bootstrap.FaceDetectionOff,
		WatchEnabled:   true,
		WatchDebounce:  10 * time.Second,
		TaskWarnAfter:  30 * time.Minute,
	}
}

// LoadConfig loads and validates configuration from the settings file and
// environment variables, and prepares the directories.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	cfg, err := readConfig()
	if err != nil {
		return nil, err
	}

	logging.Info("  SETTINGS_FILE:       %s", cfg.SettingsFile)
	logging.Info("  MEDIA_DIR:           %s", cfg.MediaDir)
	logging.Info("  CACHE_DIR:           %s", cfg.CacheDir)
	logging.Info("  DATABASE_DIR:        %s", cfg.DatabaseDir)
	logging.Info("  PORT:                %s", cfg.Port)
	logging.Info("  METRICS_PORT:        %s", cfg.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", cfg.MetricsEnabled)
	logging.Info("  FACE_DETECTION:      %s", cfg.FaceDetection)
	logging.Info("  WATCH_ENABLED:       %v", cfg.WatchEnabled)
	logging.Info("  WATCH_DEBOUNCE:      %v", cfg.WatchDebounce)
	logging.Info("  TASK_WARN_AFTER:     %v", cfg.TaskWarnAfter)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	if err := ensureDirectory(cfg.MediaDir, "media"); err != nil {
		logging.Warn("  Media directory issue: %v", err)
	}
	if err := ensureDirectory(cfg.DatabaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}
	if err := testWriteAccess(cfg.DatabaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	if err := ensureDirectory(cfg.CacheDir, "cache"); err != nil {
		return nil, fmt.Errorf("cache directory error: %w", err)
	}
	if err := testWriteAccess(cfg.CacheDir); err != nil {
		return nil, fmt.Errorf("cache directory is not writable (required for thumbnails): %w", err)
	}
	logging.Info("  [OK] Cache directory is writable")

	return cfg, nil
}

// readConfig resolves the configuration without touching the filesystem
// beyond reading the settings file.
func readConfig() (*Config, error) {
	cfg := defaultConfig()
	cfg.DatabaseDir = getEnv("DATABASE_DIR", cfg.DatabaseDir)
	cfg.SettingsFile = getEnv("SETTINGS_FILE", filepath.Join(cfg.DatabaseDir, "settings.toml"))

	if err := cfg.applyFile(cfg.SettingsFile); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	var err error
	for _, dir := range []*string{&cfg.MediaDir, &cfg.CacheDir, &cfg.DatabaseDir} {
		if *dir, err = filepath.Abs(*dir); err != nil {
			return nil, fmt.Errorf("failed to resolve directory path: %w", err)
		}
	}
	cfg.DatabasePath = filepath.Join(cfg.DatabaseDir, "media.db")
	return cfg, nil
}

// applyFile overlays the TOML settings file. A missing file is not an
// error.
func (c *Config) applyFile(path string) error {
	var file fileSettings
	if _, err := toml.DecodeFile(path, &file); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to decode settings file %s: %w", path, err)
	}

	setString(&c.MediaDir, file.MediaDir)
	setString(&c.CacheDir, file.CacheDir)
	setString(&c.Port, file.Port)
	setString(&c.MetricsPort, file.MetricsPort)
	if file.MetricsEnabled != nil {
		c.MetricsEnabled = *file.MetricsEnabled
	}
	if file.WatchEnabled != nil {
		c.WatchEnabled = *file.WatchEnabled
	}
	if file.FaceDetection != "" {
		mode, err := bootstrap.ParseFaceDetectionMode(file.FaceDetection)
		if err != nil {
			return fmt.Errorf("settings file %s: %w", path, err)
		}
		c.FaceDetection = mode
	}
	if err := parseDuration(&c.WatchDebounce, "watch_debounce", file.WatchDebounce); err != nil {
		return fmt.Errorf("settings file %s: %w", path, err)
	}
	if err := parseDuration(&c.TaskWarnAfter, "task_warn_after", file.TaskWarnAfter); err != nil {
		return fmt.Errorf("settings file %s: %w", path, err)
	}
	return nil
}

// applyEnv applies environment overrides. Invalid values are logged and
// ignored.
func (c *Config) applyEnv() {
	c.MediaDir = getEnv("MEDIA_DIR", c.MediaDir)
	c.CacheDir = getEnv("CACHE_DIR", c.CacheDir)
	c.Port = getEnv("PORT", c.Port)
	c.MetricsPort = getEnv("METRICS_PORT", c.MetricsPort)
	c.MetricsEnabled = getEnvBool("METRICS_ENABLED", c.MetricsEnabled)
	c.WatchEnabled = getEnvBool("WATCH_ENABLED", c.WatchEnabled)
	c.LogHealthChecks = getEnvBool("LOG_HEALTH_CHECKS", c.LogHealthChecks)

	if v := os.Getenv("FACE_DETECTION"); v != "" {
		if mode, err := bootstrap.ParseFaceDetectionMode(v); err != nil {
			logging.Warn("Invalid FACE_DETECTION %q, using %s", v, c.FaceDetection)
		} else {
			c.FaceDetection = mode
		}
	}
	for name, d := range map[string]*time.Duration{"WATCH_DEBOUNCE": &c.WatchDebounce, "TASK_WARN_AFTER": &c.TaskWarnAfter} {
		if err := parseDuration(d, name, os.Getenv(name)); err != nil {
			logging.Warn("%v, using default: %v", err, *d)
		}
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseDuration sets *dst from s. Empty s leaves *dst alone; "0" disables.
func parseDuration(dst *time.Duration, name, s string) error {
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fmt.Errorf("invalid %s %q", name, s)
	}
	*dst = d
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}
