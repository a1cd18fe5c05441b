/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	applog "stickyboard/internal/log"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

type StorageConfig struct {
	Backend    string `yaml:"backend"` // "file" | "sqlite" | "memory"
	Dir        string `yaml:"dir"`
	QuotaBytes int64  `yaml:"quota_bytes"` // 0 = unlimited
	MaxBackups int    `yaml:"max_backups"`
}

type CanvasConfig struct {
	ZoomMin         float64 `yaml:"zoom_min"`
	ZoomMax         float64 `yaml:"zoom_max"`
	SaveDebounceMs  int     `yaml:"save_debounce_ms"`
	DragThresholdPx float64 `yaml:"drag_threshold_px"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Storage       StorageConfig `yaml:"storage"`
	Canvas        CanvasConfig  `yaml:"canvas"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Storage:       StorageConfig{Backend: "file", Dir: "", QuotaBytes: 5 << 20, MaxBackups: 5},
		Canvas:        CanvasConfig{ZoomMin: 0.1, ZoomMax: 5, SaveDebounceMs: 500, DragThresholdPx: 5},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvConfigFile     = "SB_CONFIG"
	EnvDataDir        = "SB_DATA_DIR"
	EnvStorageBackend = "SB_STORAGE_BACKEND"
	EnvStorageQuota   = "SB_STORAGE_QUOTA_BYTES"
	EnvSaveDebounceMs = "SB_SAVE_DEBOUNCE_MS"
	EnvLogLevel       = applog.EnvLevel
	EnvLogFormat      = applog.EnvFormat
	EnvLogSource      = applog.EnvSource
	EnvLogFile        = applog.EnvFile
)

func userBaseDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "StickyBoard")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "StickyBoard")
	default:
		base = filepath.Join(os.Getenv("HOME"), ".config", "stickyboard")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// ConfigPath returns the per-user config file path. SB_CONFIG wins when set.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	base, err := userBaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "config.yaml"), nil
}

// DataDir resolves where board data lives: the configured dir or <user base>/data.
func (c AppConfig) DataDir() (string, error) {
	if d := strings.TrimSpace(c.Storage.Dir); d != "" {
		return d, nil
	}
	base, err := userBaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "data"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// A malformed file is reported but the defaults plus env overrides are still returned.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	var loadErr error
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			loadErr = fmt.Errorf("parse %s: %w", path, err)
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	cfg.normalize()
	return cfg, loadErr
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// storage
	if v := strings.ToLower(strings.TrimSpace(src.Storage.Backend)); v != "" {
		dst.Storage.Backend = v
	}
	if v := strings.TrimSpace(src.Storage.Dir); v != "" {
		dst.Storage.Dir = v
	}
	if src.Storage.QuotaBytes != 0 {
		dst.Storage.QuotaBytes = src.Storage.QuotaBytes
	}
	if src.Storage.MaxBackups != 0 {
		dst.Storage.MaxBackups = src.Storage.MaxBackups
	}
	// canvas
	if src.Canvas.ZoomMin != 0 {
		dst.Canvas.ZoomMin = src.Canvas.ZoomMin
	}
	if src.Canvas.ZoomMax != 0 {
		dst.Canvas.ZoomMax = src.Canvas.ZoomMax
	}
	if src.Canvas.SaveDebounceMs != 0 {
		dst.Canvas.SaveDebounceMs = src.Canvas.SaveDebounceMs
	}
	if src.Canvas.DragThresholdPx != 0 {
		dst.Canvas.DragThresholdPx = src.Canvas.DragThresholdPx
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		cfg.Storage.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorageBackend)); v != "" {
		cfg.Storage.Backend = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorageQuota)); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Storage.QuotaBytes = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvSaveDebounceMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Canvas.SaveDebounceMs = n
		}
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// normalize repairs values that would break the canvas core.
func (c *AppConfig) normalize() {
	d := Defaults()
	switch c.Storage.Backend {
	case "file", "sqlite", "memory":
	default:
		c.Storage.Backend = d.Storage.Backend
	}
	if c.Storage.QuotaBytes < 0 {
		c.Storage.QuotaBytes = 0
	}
	if c.Storage.MaxBackups <= 0 {
		c.Storage.MaxBackups = d.Storage.MaxBackups
	}
	if c.Canvas.ZoomMin <= 0 || c.Canvas.ZoomMax <= c.Canvas.ZoomMin {
		c.Canvas.ZoomMin, c.Canvas.ZoomMax = d.Canvas.ZoomMin, d.Canvas.ZoomMax
	}
	if c.Canvas.SaveDebounceMs <= 0 {
		c.Canvas.SaveDebounceMs = d.Canvas.SaveDebounceMs
	}
	if c.Canvas.DragThresholdPx <= 0 {
		c.Canvas.DragThresholdPx = d.Canvas.DragThresholdPx
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	var env string
	switch key {
	case "storage.dir":
		env = EnvDataDir
	case "storage.backend":
		env = EnvStorageBackend
	case "storage.quota_bytes":
		env = EnvStorageQuota
	case "canvas.save_debounce_ms":
		env = EnvSaveDebounceMs
	case "logging.level":
		env = EnvLogLevel
	case "logging.format":
		env = EnvLogFormat
	case "logging.source":
		env = EnvLogSource
	case "logging.file":
		env = EnvLogFile
	default:
		return "", false
	}
	if os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}

// SaveDebounce returns the debounce window as a duration.
func (c CanvasConfig) SaveDebounce() time.Duration {
	if c.SaveDebounceMs <= 0 {
		return time.Duration(Defaults().Canvas.SaveDebounceMs) * time.Millisecond
	}
	return time.Duration(c.SaveDebounceMs) * time.Millisecond
}

// LogOptions maps the logging section onto logger options.
func (l LoggingConfig) LogOptions() applog.Options {
	return applog.Options{Level: l.Level, Format: l.Format, AddSource: l.Source, File: l.File}
}
