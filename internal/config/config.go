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
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type GeneralConfig struct {
	Theme        string `yaml:"theme"` // "system" | "light" | "dark"
	EnableServer bool   `yaml:"enable_server"`
}

// CanvasConfig describes the room canvas in pixels.
type CanvasConfig struct {
	Width         float64 `yaml:"width"`
	Height        float64 `yaml:"height"`
	FloorHeight   float64 `yaml:"floor_height"`
	Padding       float64 `yaml:"padding"`
	MinItemSize   float64 `yaml:"min_item_size"`
	MaxItemSize   float64 `yaml:"max_item_size"`
	SnapThreshold float64 `yaml:"snap_threshold"` // 0 disables smart guides while dragging
}

type HistoryConfig struct {
	Limit      int `yaml:"limit"`
	CoalesceMs int `yaml:"coalesce_ms"`
}

// StorageConfig selects where the room record lives.
// Driver is one of file, sqlite, postgres, redis.
// The password for postgres/redis is not stored on disk; it lives in the OS keychain.
type StorageConfig struct {
	Driver    string `yaml:"driver"`
	Path      string `yaml:"path"` // file path or sqlite database path
	DSN       string `yaml:"dsn"`  // postgres connection string
	RedisAddr string `yaml:"redis_addr"`
	RedisDB   int    `yaml:"redis_db"`
	Key       string `yaml:"key"`
	KeepSaves int    `yaml:"keep_saves"`
}

type ServerConfig struct {
	Addr           string `yaml:"addr"`
	ReadTimeoutMs  int    `yaml:"read_timeout_ms"`
	WriteTimeoutMs int    `yaml:"write_timeout_ms"`
	// CORSOrigins lists browser origins allowed to call the API. Empty
	// disables CORS handling.
	CORSOrigins []string `yaml:"cors_origins,omitempty"`
}

type ExportConfig struct {
	Dir   string `yaml:"dir"`
	Scale int    `yaml:"scale"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Canvas        CanvasConfig  `yaml:"canvas"`
	History       HistoryConfig `yaml:"history"`
	Storage       StorageConfig `yaml:"storage"`
	Server        ServerConfig  `yaml:"server"`
	Export        ExportConfig  `yaml:"export"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{Theme: "system", EnableServer: false},
		Canvas: CanvasConfig{
			Width: 800, Height: 600, FloorHeight: 120, Padding: 5,
			MinItemSize: 20, MaxItemSize: 300, SnapThreshold: 0,
		},
		History: HistoryConfig{Limit: 10, CoalesceMs: 0},
		Storage: StorageConfig{Driver: "file", Path: "", Key: "inmyroom_state", KeepSaves: 5},
		Server:  ServerConfig{Addr: "127.0.0.1:8765", ReadTimeoutMs: 10000, WriteTimeoutMs: 10000},
		Export:  ExportConfig{Dir: "", Scale: 2},
		Logging: LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvEnableServer  = "IMR_ENABLE_SERVER"
	EnvStorageDriver = "IMR_STORAGE_DRIVER"
	EnvStoragePath   = "IMR_STORAGE_PATH"
	EnvStorageDSN    = "IMR_PG_DSN"
	EnvRedisAddr     = "IMR_REDIS_ADDR"
	EnvServerAddr    = "IMR_ADDR"
	EnvCanvasWidth   = "IMR_CANVAS_WIDTH"
	EnvCanvasHeight  = "IMR_CANVAS_HEIGHT"
	EnvHistoryLimit  = "IMR_HISTORY_LIMIT"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "IMR_LOG_LEVEL"
	EnvLogFormat = "IMR_LOG_FORMAT"
	EnvLogSource = "IMR_LOG_SOURCE"
	EnvLogFile   = "IMR_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService = "InMyRoom"
	keyringSecret  = "storage_password"
)

// secretStore abstracts keyring, so we can stub in tests.
var secretStore SecretStore = &osKeyring{}

type SecretStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements SecretStore using the OS keyring; the concrete functions
// live in keyring_real.go or keyring_stub.go depending on build tags.
type osKeyring struct{}

func (k *osKeyring) Get(service, key string) (string, error) { return keyringGet(service, key) }
func (k *osKeyring) Set(service, key, value string) error    { return keyringSet(service, key, value) }
func (k *osKeyring) Delete(service, key string) error        { return keyringDelete(service, key) }

// ConfigDir returns the per-user directory holding config.yaml and, by default, the room file.
func ConfigDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "InMyRoom")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "InMyRoom")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "inmyroom")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "inmyroom")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads user config file (if present), applies defaults, and merges environment overrides.
// The storage password is read from the keyring and returned separately.
func Load() (AppConfig, string, error) {
	path, err := ConfigPath()
	if err != nil {
		return Defaults(), "", err
	}
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit file path.
func LoadFrom(path string) (AppConfig, string, error) {
	cfg := Defaults()
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	resolveStoragePath(&cfg, filepath.Dir(path))
	secret, _ := secretStore.Get(keyringService, keyringSecret)
	return cfg, secret, nil
}

// Save writes the user config YAML and persists the secret into OS keyring (if non-empty).
func Save(cfg AppConfig, secret string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg, secret)
}

// SaveTo is Save with an explicit file path.
func SaveTo(path string, cfg AppConfig, secret string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if secret != "" {
		if err := secretStore.Set(keyringService, keyringSecret, secret); err != nil {
			return err
		}
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.Theme != "" {
		dst.General.Theme = src.General.Theme
	}
	dst.General.EnableServer = src.General.EnableServer

	// canvas: zero means "not set" for every dimension
	mergeFloat(&dst.Canvas.Width, src.Canvas.Width)
	mergeFloat(&dst.Canvas.Height, src.Canvas.Height)
	mergeFloat(&dst.Canvas.FloorHeight, src.Canvas.FloorHeight)
	mergeFloat(&dst.Canvas.Padding, src.Canvas.Padding)
	mergeFloat(&dst.Canvas.MinItemSize, src.Canvas.MinItemSize)
	mergeFloat(&dst.Canvas.MaxItemSize, src.Canvas.MaxItemSize)
	mergeFloat(&dst.Canvas.SnapThreshold, src.Canvas.SnapThreshold)

	if src.History.Limit > 0 {
		dst.History.Limit = src.History.Limit
	}
	if src.History.CoalesceMs > 0 {
		dst.History.CoalesceMs = src.History.CoalesceMs
	}

	if s := strings.ToLower(strings.TrimSpace(src.Storage.Driver)); s != "" {
		dst.Storage.Driver = s
	}
	if s := strings.TrimSpace(src.Storage.Path); s != "" {
		dst.Storage.Path = s
	}
	if s := strings.TrimSpace(src.Storage.DSN); s != "" {
		dst.Storage.DSN = s
	}
	if s := strings.TrimSpace(src.Storage.RedisAddr); s != "" {
		dst.Storage.RedisAddr = s
	}
	dst.Storage.RedisDB = src.Storage.RedisDB
	if s := strings.TrimSpace(src.Storage.Key); s != "" {
		dst.Storage.Key = s
	}
	if src.Storage.KeepSaves > 0 {
		dst.Storage.KeepSaves = src.Storage.KeepSaves
	}

	if s := strings.TrimSpace(src.Server.Addr); s != "" {
		dst.Server.Addr = s
	}
	if src.Server.ReadTimeoutMs > 0 {
		dst.Server.ReadTimeoutMs = src.Server.ReadTimeoutMs
	}
	if src.Server.WriteTimeoutMs > 0 {
		dst.Server.WriteTimeoutMs = src.Server.WriteTimeoutMs
	}

	if s := strings.TrimSpace(src.Export.Dir); s != "" {
		dst.Export.Dir = s
	}
	if src.Export.Scale > 0 {
		dst.Export.Scale = src.Export.Scale
	}

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

func mergeFloat(dst *float64, v float64) {
	if v > 0 {
		*dst = v
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvEnableServer)); v != "" {
		cfg.General.EnableServer = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorageDriver)); v != "" {
		cfg.Storage.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvStoragePath)); v != "" {
		cfg.Storage.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorageDSN)); v != "" {
		cfg.Storage.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRedisAddr)); v != "" {
		cfg.Storage.RedisAddr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvServerAddr)); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCanvasWidth)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Canvas.Width = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvCanvasHeight)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Canvas.Height = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistoryLimit)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.History.Limit = n
		}
	}
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
}

// resolveStoragePath fills a default location next to the config file for the
// file and sqlite drivers.
func resolveStoragePath(cfg *AppConfig, dir string) {
	if cfg.Storage.Path != "" {
		return
	}
	switch cfg.Storage.Driver {
	case "file", "":
		cfg.Storage.Path = filepath.Join(dir, "room.json")
	case "sqlite":
		cfg.Storage.Path = filepath.Join(dir, "room.sqlite")
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(strings.TrimSpace(v))
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	names := map[string]string{
		"general.enable_server": EnvEnableServer,
		"storage.driver":        EnvStorageDriver,
		"storage.path":          EnvStoragePath,
		"storage.dsn":           EnvStorageDSN,
		"storage.redis_addr":    EnvRedisAddr,
		"server.addr":           EnvServerAddr,
		"canvas.width":          EnvCanvasWidth,
		"canvas.height":         EnvCanvasHeight,
		"history.limit":         EnvHistoryLimit,
		"logging.level":         EnvLogLevel,
		"logging.format":        EnvLogFormat,
		"logging.source":        EnvLogSource,
		"logging.file":          EnvLogFile,
	}
	env, ok := names[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}

// ReadTimeout returns the server read timeout, falling back to the default.
func (s ServerConfig) ReadTimeout() time.Duration {
	if s.ReadTimeoutMs <= 0 {
		return time.Duration(Defaults().Server.ReadTimeoutMs) * time.Millisecond
	}
	return time.Duration(s.ReadTimeoutMs) * time.Millisecond
}

// WriteTimeout returns the server write timeout, falling back to the default.
func (s ServerConfig) WriteTimeout() time.Duration {
	if s.WriteTimeoutMs <= 0 {
		return time.Duration(Defaults().Server.WriteTimeoutMs) * time.Millisecond
	}
	return time.Duration(s.WriteTimeoutMs) * time.Millisecond
}

// CoalesceWindow converts the history coalescing setting to a duration.
func (h HistoryConfig) CoalesceWindow() time.Duration {
	return time.Duration(h.CoalesceMs) * time.Millisecond
}
