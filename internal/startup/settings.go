package startup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"media-library/internal/bootstrap"
	"media-library/internal/logging"
)

// Settings holds configuration that can change at runtime. It implements
// bootstrap.Settings.
type Settings struct {
	mu    sync.RWMutex
	faces bootstrap.FaceDetectionMode
	path  string
}

// NewSettings creates runtime settings from the loaded configuration.
// Changes are persisted to path; an empty path keeps them in memory.
func NewSettings(cfg *Config) *Settings {
	return &Settings{faces: cfg.FaceDetection, path: cfg.SettingsFile}
}

// FaceDetection returns the current face-detection mode.
func (s *Settings) FaceDetection() bootstrap.FaceDetectionMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.faces
}

// SetFaceDetection changes the face-detection mode and writes it to the
// settings file. The new mode applies even if saving fails.
func (s *Settings) SetFaceDetection(mode bootstrap.FaceDetectionMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.faces = mode
	logging.Info("Face detection set to %s", mode)
	if s.path == "" {
		return nil
	}
	return s.save()
}

// save rewrites the settings file, keeping the keys it does not own.
func (s *Settings) save() error {
	var file fileSettings
	if _, err := toml.DecodeFile(s.path, &file); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read settings file: %w", err)
	}
	file.FaceDetection = s.faces.String()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".settings-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create settings file: %w", err)
	}
	defer os.Remove(tmp.Name())

	fmt.Fprintln(tmp, "# media-library settings")
	fmt.Fprintln(tmp, "# Environment variables override values set here.")
	fmt.Fprintln(tmp, "")
	if err := toml.NewEncoder(tmp).Encode(file); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
