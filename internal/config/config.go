// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete tariel configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Endpoint EndpointConfig `toml:"endpoint" json:"endpoint"`
	Retry    RetryConfig    `toml:"retry" json:"retry"`
	Quota    QuotaConfig    `toml:"quota" json:"quota"`
	Session  SessionConfig  `toml:"session" json:"session"`
	Render   RenderConfig   `toml:"render" json:"render"`
	System   SystemConfig   `toml:"system" json:"system"`
	Log      LogConfig      `toml:"log" json:"log"`
}

// EndpointConfig describes the remote conversational endpoint.
type EndpointConfig struct {
	URL       string `toml:"url" json:"url"`
	TimeoutMS int    `toml:"timeout_ms" json:"timeout_ms"`
	UseTools  bool   `toml:"use_tools" json:"use_tools"`
}

// Timeout returns the per-request timeout.
func (e EndpointConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutMS) * time.Millisecond
}

// RetryConfig controls caller-level retries of failed sends.
type RetryConfig struct {
	MaxAttempts    int `toml:"max_attempts" json:"max_attempts"`
	InitialDelayMS int `toml:"initial_delay_ms" json:"initial_delay_ms"`
	MaxDelayMS     int `toml:"max_delay_ms" json:"max_delay_ms"`
}

// InitialDelay returns the first backoff delay.
func (r RetryConfig) InitialDelay() time.Duration {
	return time.Duration(r.InitialDelayMS) * time.Millisecond
}

// MaxDelay returns the backoff cap.
func (r RetryConfig) MaxDelay() time.Duration {
	return time.Duration(r.MaxDelayMS) * time.Millisecond
}

// QuotaConfig holds the per-session call ceiling.
type QuotaConfig struct {
	MaxCalls int `toml:"max_calls" json:"max_calls"`
}

// Session storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// SessionConfig selects the key-value medium that holds the session identity.
type SessionConfig struct {
	Backend string `toml:"backend" json:"backend"`
	Path    string `toml:"path" json:"path"`
}

// RenderConfig controls progressive reveal and scrolling.
type RenderConfig struct {
	Speed        int  `toml:"speed" json:"speed"`
	TickMS       int  `toml:"tick_ms" json:"tick_ms"`
	AutoScroll   bool `toml:"auto_scroll" json:"auto_scroll"`
	ScrollMargin int  `toml:"scroll_margin" json:"scroll_margin"`
	WordWrap     int  `toml:"word_wrap" json:"word_wrap"`
}

// Tick returns the reveal cadence.
func (r RenderConfig) Tick() time.Duration {
	return time.Duration(r.TickMS) * time.Millisecond
}

// SystemConfig describes the assistant. It is static per deployment.
type SystemConfig struct {
	Identity     string   `toml:"identity" json:"identity"`
	Capabilities []string `toml:"capabilities" json:"capabilities"`
	Constraints  []string `toml:"constraints" json:"constraints"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level string `toml:"level" json:"level"`
	File  string `toml:"file" json:"file"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a configuration with built-in defaults.
func Default() *Config {
	return &Config{
		Version: "1",
		Endpoint: EndpointConfig{
			URL:       "https://yieldmind.guru/chat",
			TimeoutMS: 15000,
			UseTools:  true,
		},
		Retry: RetryConfig{
			MaxAttempts:    2,
			InitialDelayMS: 1500,
			MaxDelayMS:     5000,
		},
		Quota: QuotaConfig{MaxCalls: 30},
		Session: SessionConfig{
			Backend: BackendFile,
		},
		Render: RenderConfig{
			Speed:        60,
			TickMS:       16,
			AutoScroll:   true,
			ScrollMargin: 2,
			WordWrap:     100,
		},
		System: SystemConfig{
			Identity: "Tariel, a concise research assistant",
			Capabilities: []string{
				"answer questions conversationally",
				"present comparisons as tables",
			},
			Constraints: []string{
				"limited number of calls per session",
			},
		},
		Log: LogConfig{Level: "info"},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the tariel configuration directory.
// TARIEL_HOME overrides the default of ~/.tariel.
func ConfigDir() (string, error) {
	if dir := os.Getenv("TARIEL_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "could not determine home directory")
	}
	return filepath.Join(home, ".tariel"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// SessionPath returns the medium path for the configured backend.
// An explicit session.path wins.
func (c *Config) SessionPath() (string, error) {
	if c.Session.Path != "" {
		return c.Session.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if c.Session.Backend == BackendSQLite {
		return filepath.Join(dir, "session.db"), nil
	}
	return filepath.Join(dir, "session.json"), nil
}

// HistoryDir returns the directory holding archived transcripts.
func HistoryDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history"), nil
}

// LogPath returns the log file path, defaulting to tariel.log in the config dir.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "tariel.log"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration. An explicit path is used as-is; otherwise
// config.toml, then config.json in ConfigDir, then defaults.
// A .env file in the working directory is loaded before env overrides apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
		return finish(cfg)
	}

	for _, candidate := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		p, err := candidate()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(p); statErr != nil {
			continue
		}
		if err := loadFile(cfg, p); err != nil {
			return nil, err
		}
		break
	}

	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(errors.Cause(err)) {
		log.Warn().Err(err).Msg("could not load .env")
	}
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	if strings.HasSuffix(path, ".json") {
		return errors.Wrapf(LoadJSON(cfg, path), "load JSON config from %s", path)
	}
	return errors.Wrapf(LoadTOML(cfg, path), "load TOML config from %s", path)
}

// LoadTOML decodes a TOML file over cfg. Keys absent from the file keep
// their current values.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return errors.Wrap(err, "decode TOML file")
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read JSON file")
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return errors.Wrap(err, "decode JSON file")
	}
	return nil
}

// SetDefaults fills zero values that have no meaningful zero.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Endpoint.URL == "" {
		c.Endpoint.URL = defaults.Endpoint.URL
	}
	if c.Endpoint.TimeoutMS == 0 {
		c.Endpoint.TimeoutMS = defaults.Endpoint.TimeoutMS
	}
	if c.Quota.MaxCalls == 0 {
		c.Quota.MaxCalls = defaults.Quota.MaxCalls
	}
	if c.Session.Backend == "" {
		c.Session.Backend = defaults.Session.Backend
	}
	c.Session.Backend = strings.ToLower(c.Session.Backend)
	if c.Render.Speed == 0 {
		c.Render.Speed = defaults.Render.Speed
	}
	if c.Render.TickMS == 0 {
		c.Render.TickMS = defaults.Render.TickMS
	}
	if c.Render.WordWrap == 0 {
		c.Render.WordWrap = defaults.Render.WordWrap
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns all problems at once.
func (c *Config) Validate() error {
	var errs ValidateErrors

	u, err := url.Parse(c.Endpoint.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "endpoint.url",
			Message: fmt.Sprintf("invalid URL '%s', must be http or https", c.Endpoint.URL),
		})
	}
	if c.Endpoint.TimeoutMS <= 0 {
		errs = append(errs, ValidationError{Field: "endpoint.timeout_ms", Message: "must be positive"})
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, ValidationError{Field: "retry.max_attempts", Message: "must be at least 1"})
	}
	if c.Retry.InitialDelayMS < 0 {
		errs = append(errs, ValidationError{Field: "retry.initial_delay_ms", Message: "cannot be negative"})
	}
	if c.Retry.InitialDelayMS > c.Retry.MaxDelayMS {
		errs = append(errs, ValidationError{
			Field:   "retry.initial_delay_ms",
			Message: fmt.Sprintf("initial delay %dms exceeds max delay %dms", c.Retry.InitialDelayMS, c.Retry.MaxDelayMS),
		})
	}

	if c.Quota.MaxCalls <= 0 {
		errs = append(errs, ValidationError{Field: "quota.max_calls", Message: "must be positive"})
	}

	switch c.Session.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		errs = append(errs, ValidationError{
			Field:   "session.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: file, sqlite, memory", c.Session.Backend),
		})
	}

	if c.Render.Speed <= 0 {
		errs = append(errs, ValidationError{Field: "render.speed", Message: "must be positive"})
	}
	if c.Render.TickMS <= 0 {
		errs = append(errs, ValidationError{Field: "render.tick_ms", Message: "must be positive"})
	}
	if c.Render.ScrollMargin < 0 {
		errs = append(errs, ValidationError{Field: "render.scroll_margin", Message: "cannot be negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - TARIEL_ENDPOINT: overrides endpoint.url
//   - TARIEL_TIMEOUT_MS: overrides endpoint.timeout_ms
//   - TARIEL_USE_TOOLS: "1"/"true" or "0"/"false"
//   - TARIEL_MAX_CALLS: overrides quota.max_calls
//   - TARIEL_SESSION_BACKEND: overrides session.backend
//   - TARIEL_REVEAL_SPEED: overrides render.speed
//   - TARIEL_LOG_LEVEL: overrides log.level
//
// Unparseable numbers are logged and ignored.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("TARIEL_ENDPOINT"); v != "" {
		c.Endpoint.URL = v
	}
	envInt("TARIEL_TIMEOUT_MS", &c.Endpoint.TimeoutMS)
	if v := os.Getenv("TARIEL_USE_TOOLS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Endpoint.UseTools = b
		} else {
			log.Warn().Str("var", "TARIEL_USE_TOOLS").Str("value", v).Msg("ignoring invalid boolean")
		}
	}
	envInt("TARIEL_MAX_CALLS", &c.Quota.MaxCalls)
	if v := os.Getenv("TARIEL_SESSION_BACKEND"); v != "" {
		c.Session.Backend = strings.ToLower(v)
	}
	envInt("TARIEL_REVEAL_SPEED", &c.Render.Speed)
	if v := os.Getenv("TARIEL_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func envInt(name string, dst *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		log.Warn().Str("var", name).Str("value", v).Msg("ignoring invalid integer")
		return
	}
	*dst = n
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance, loading it on first access.
// Load failures fall back to defaults.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load("")
		if err != nil {
			log.Warn().Err(err).Msg("using default configuration")
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
