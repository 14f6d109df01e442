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

	"gopkg.in/yaml.v3"
)

type EditorConfig struct {
	DefaultWidth   int  `yaml:"default_width"`
	DefaultHeight  int  `yaml:"default_height"`
	Backups        bool `yaml:"backups"`
	ValidateOnOpen bool `yaml:"validate_on_open"`
}

// LoggingConfig selects the log level and format. MaxSizeMB is the size at which
// File is rotated; zero keeps the logger's default.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	Source    bool   `yaml:"source"`
	File      string `yaml:"file"`
	MaxSizeMB int    `yaml:"max_size_mb"`
}

// IndexConfig controls the recent-documents index. An empty Path means the
// default location next to the config file.
type IndexConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// ConfigVersion is bumped when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Editor        EditorConfig  `yaml:"editor"`
	Logging       LoggingConfig `yaml:"logging"`
	Index         IndexConfig   `yaml:"index"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Editor:        EditorConfig{DefaultWidth: 1920, DefaultHeight: 1080, Backups: true, ValidateOnOpen: false},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: "", MaxSizeMB: 10},
		Index:         IndexConfig{Enabled: true},
	}
}

// Env var names used as overrides.
const (
	EnvConfigFile     = "KME_CONFIG"
	EnvDefaultWidth   = "KME_DEFAULT_WIDTH"
	EnvDefaultHeight  = "KME_DEFAULT_HEIGHT"
	EnvBackups        = "KME_BACKUPS"
	EnvValidateOnOpen = "KME_VALIDATE_ON_OPEN"
	EnvIndexEnabled   = "KME_INDEX"
	EnvIndexPath      = "KME_INDEX_PATH"
	// EnvLogLevel Logging envs
	EnvLogLevel   = "KME_LOG_LEVEL"
	EnvLogFormat  = "KME_LOG_FORMAT"
	EnvLogSource  = "KME_LOG_SOURCE"
	EnvLogFile    = "KME_LOG_FILE"
	EnvLogMaxSize = "KME_LOG_MAX_SIZE_MB"
)

const (
	appDirName      = "KeyMapEditor"
	unixAppDirName  = "keymapeditor"
	configFileName  = "config.yaml"
	recentIndexName = "recent.sqlite"
)

// ConfigPath returns the per-user config file path. KME_CONFIG replaces it entirely.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, appDirName)
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", appDirName)
	default: // linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, unixAppDirName)
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", unixAppDirName)
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, configFileName), nil
}

// IndexPath resolves the recent-documents database location.
func (c AppConfig) IndexPath() (string, error) {
	if p := strings.TrimSpace(c.Index.Path); p != "" {
		return p, nil
	}
	cp, err := ConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(cp), recentIndexName), nil
}

// Load reads the user config file (if present), applies defaults, and merges
// environment overrides. A file that cannot be parsed is reported but the returned
// config is still usable (defaults plus env).
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	var parseErr error
	if data, err := os.ReadFile(path); err == nil {
		fileCfg := Defaults()
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		} else {
			parseErr = fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, parseErr
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
	if src.Editor.DefaultWidth > 0 {
		dst.Editor.DefaultWidth = src.Editor.DefaultWidth
	}
	if src.Editor.DefaultHeight > 0 {
		dst.Editor.DefaultHeight = src.Editor.DefaultHeight
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.Editor.Backups = src.Editor.Backups
	dst.Editor.ValidateOnOpen = src.Editor.ValidateOnOpen
	dst.Index.Enabled = src.Index.Enabled
	if strings.TrimSpace(src.Index.Path) != "" {
		dst.Index.Path = strings.TrimSpace(src.Index.Path)
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
	if src.Logging.MaxSizeMB > 0 {
		dst.Logging.MaxSizeMB = src.Logging.MaxSizeMB
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvDefaultWidth)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Editor.DefaultWidth = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvDefaultHeight)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Editor.DefaultHeight = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackups)); v != "" {
		cfg.Editor.Backups = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvValidateOnOpen)); v != "" {
		cfg.Editor.ValidateOnOpen = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvIndexEnabled)); v != "" {
		cfg.Index.Enabled = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvIndexPath)); v != "" {
		cfg.Index.Path = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogMaxSize)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Logging.MaxSizeMB = n
		}
	}
}

var envByKey = map[string]string{
	"editor.default_width":    EnvDefaultWidth,
	"editor.default_height":   EnvDefaultHeight,
	"editor.backups":          EnvBackups,
	"editor.validate_on_open": EnvValidateOnOpen,
	"index.enabled":           EnvIndexEnabled,
	"index.path":              EnvIndexPath,
	"logging.level":           EnvLogLevel,
	"logging.format":          EnvLogFormat,
	"logging.source":          EnvLogSource,
	"logging.file":            EnvLogFile,
	"logging.max_size_mb":     EnvLogMaxSize,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := envByKey[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}
