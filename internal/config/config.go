// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/language"

	"github.com/jeranaias/docchat-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete docchat configuration.
type Config struct {
	// Chat service connection
	API APIConfig `toml:"api" json:"api"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`

	// Export configuration
	Export ExportConfig `toml:"export" json:"export"`

	// Log configuration
	Log LogConfig `toml:"log" json:"log"`
}

// APIConfig contains the chat service connection settings.
type APIConfig struct {
	// BaseURL is the service base URL
	BaseURL string `toml:"base_url" json:"base_url"`
	// RequestTimeoutSecs bounds non-streaming requests such as health checks
	RequestTimeoutSecs int `toml:"request_timeout_secs" json:"request_timeout_secs"`
	// StreamTimeoutSecs bounds the wait for chat response headers
	StreamTimeoutSecs int `toml:"stream_timeout_secs" json:"stream_timeout_secs"`
	// RequestsPerMinute paces chat requests (0 = unlimited)
	RequestsPerMinute int `toml:"requests_per_minute" json:"requests_per_minute"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Language is a BCP 47 tag for user-facing text: "en", "es"
	Language string `toml:"language" json:"language"`
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// SingleFreshConversation selects an existing empty conversation
	// instead of creating another one
	SingleFreshConversation bool `toml:"single_fresh_conversation" json:"single_fresh_conversation"`
	// KeepLastConversation refuses to delete the only conversation
	KeepLastConversation bool `toml:"keep_last_conversation" json:"keep_last_conversation"`
	// ShowStats displays exchange timing in the status line
	ShowStats bool `toml:"show_stats" json:"show_stats"`
}

// ExportConfig contains export configuration.
type ExportConfig struct {
	// OutputDir is where exports are written
	OutputDir string `toml:"output_dir" json:"output_dir"`
	// Format is the export format: "markdown", "json"
	Format string `toml:"format" json:"format"`
}

// LogConfig contains log configuration.
type LogConfig struct {
	// Level is the minimum level: "debug", "info", "warn", "error", "off"
	Level string `toml:"level" json:"level"`
	// File is the log file path (default: docchat.log in the config directory)
	File string `toml:"file" json:"file"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:            "http://127.0.0.1:8000",
			RequestTimeoutSecs: 10,
			StreamTimeoutSecs:  120,
			RequestsPerMinute:  0, // unlimited
		},

		UI: UIConfig{
			Language:                "en",
			Theme:                   "dark",
			SingleFreshConversation: true,
			KeepLastConversation:    true,
			ShowStats:               false,
		},

		Export: ExportConfig{
			OutputDir: ".",
			Format:    "markdown",
		},

		Log: LogConfig{
			Level: "info",
		},
	}
}

// RequestTimeout returns the non-streaming request timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.API.RequestTimeoutSecs) * time.Second
}

// StreamTimeout returns the chat response header timeout.
func (c *Config) StreamTimeout() time.Duration {
	return time.Duration(c.API.StreamTimeoutSecs) * time.Second
}

// LogFile returns the log file path, resolving the default location.
func (c *Config) LogFile() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "docchat.log"), nil
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the docchat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".docchat"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the default config file, falling back to
// defaults when it does not exist. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPathTOML()
	if err != nil {
		return finish(Default())
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return finish(Default())
	}
	return LoadFromPath(path)
}

// LoadTOML decodes a TOML file over cfg. Keys absent from the file keep
// their current values.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return finish(cfg)
}

// finish applies environment overrides, defaults and validation.
func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML writes cfg to path atomically with a short header comment.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# docchat configuration file")
	fmt.Fprintln(&buf, "# Generated by docchat - edit with care")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError is one rejected setting.
type ValidationError struct {
	Field   string // dotted key, e.g. "ui.theme"
	Message string
}

func (e ValidationError) Error() string { return e.Field + ": " + e.Message }

// ValidateErrors lists every rejected setting of one Validate call.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	parts := make([]string, len(e))
	for i, v := range e {
		parts[i] = v.Error()
	}
	return strings.Join(parts, "; ")
}

// oneOf reports whether v (case-insensitive) is among allowed.
func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return true
		}
	}
	return false
}

// Validate checks every setting and returns ValidateErrors listing all
// problems, or nil.
func (c *Config) Validate() error {
	var errs ValidateErrors
	reject := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}
	inRange := func(field string, v, lo, hi int) {
		if v < lo || v > hi {
			reject(field, "must be %d-%d, got %d", lo, hi, v)
		}
	}

	u, err := url.Parse(c.API.BaseURL)
	switch {
	case err != nil:
		reject("api.base_url", "invalid URL: %v", err)
	case (u.Scheme != "http" && u.Scheme != "https") || u.Host == "":
		reject("api.base_url", "must be an absolute http or https URL, got %q", c.API.BaseURL)
	}
	inRange("api.request_timeout_secs", c.API.RequestTimeoutSecs, 1, 600)
	inRange("api.stream_timeout_secs", c.API.StreamTimeoutSecs, 1, 3600)
	inRange("api.requests_per_minute", c.API.RequestsPerMinute, 0, 600)

	if _, err := language.Parse(normalizeLanguage(c.UI.Language)); err != nil {
		reject("ui.language", "not a language tag: %q", c.UI.Language)
	}
	if !oneOf(c.UI.Theme, "dark", "light", "auto") {
		reject("ui.theme", "%q is not dark, light or auto", c.UI.Theme)
	}
	if !oneOf(c.Export.Format, "markdown", "json") {
		reject("export.format", "%q is not markdown or json", c.Export.Format)
	}
	if !oneOf(c.Log.Level, "debug", "info", "warn", "error", "off") {
		reject("log.level", "%q is not debug, info, warn, error or off", c.Log.Level)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// normalizeLanguage turns POSIX locale names like "es_ES.UTF-8" into tags.
func normalizeLanguage(lang string) string {
	if i := strings.IndexAny(lang, ".@"); i >= 0 {
		lang = lang[:i]
	}
	return strings.ReplaceAll(lang, "_", "-")
}

// SetDefaults sets default values for any missing or zero-value fields.
// Booleans are left alone; an explicit false is meaningful.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.API.BaseURL == "" {
		c.API.BaseURL = defaults.API.BaseURL
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.RequestTimeoutSecs == 0 {
		c.API.RequestTimeoutSecs = defaults.API.RequestTimeoutSecs
	}
	if c.API.StreamTimeoutSecs == 0 {
		c.API.StreamTimeoutSecs = defaults.API.StreamTimeoutSecs
	}

	if c.UI.Language == "" {
		c.UI.Language = defaults.UI.Language
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}

	if c.Export.OutputDir == "" {
		c.Export.OutputDir = defaults.Export.OutputDir
	}
	if c.Export.Format == "" {
		c.Export.Format = defaults.Export.Format
	}

	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - DOCCHAT_API_BASE_URL: overrides api.base_url
//   - DOCCHAT_LANG: overrides ui.language
//   - DOCCHAT_LOG_LEVEL: overrides log.level
func (c *Config) ApplyEnvOverrides() {
	if baseURL := os.Getenv("DOCCHAT_API_BASE_URL"); baseURL != "" {
		c.API.BaseURL = baseURL
	}

	if lang := os.Getenv("DOCCHAT_LANG"); lang != "" {
		c.UI.Language = lang
	}

	if level := os.Getenv("DOCCHAT_LOG_LEVEL"); level != "" {
		c.Log.Level = strings.ToLower(level)
	}
}

// =============================================================================
// KEYS
// =============================================================================

// setting binds a dotted key to one field of a Config.
type setting struct {
	key   string
	field func(c *Config) any // pointer to the field: *string, *int or *bool
}

var settings = []setting{
	{"api.base_url", func(c *Config) any { return &c.API.BaseURL }},
	{"api.request_timeout_secs", func(c *Config) any { return &c.API.RequestTimeoutSecs }},
	{"api.stream_timeout_secs", func(c *Config) any { return &c.API.StreamTimeoutSecs }},
	{"api.requests_per_minute", func(c *Config) any { return &c.API.RequestsPerMinute }},
	{"ui.language", func(c *Config) any { return &c.UI.Language }},
	{"ui.theme", func(c *Config) any { return &c.UI.Theme }},
	{"ui.single_fresh_conversation", func(c *Config) any { return &c.UI.SingleFreshConversation }},
	{"ui.keep_last_conversation", func(c *Config) any { return &c.UI.KeepLastConversation }},
	{"ui.show_stats", func(c *Config) any { return &c.UI.ShowStats }},
	{"export.output_dir", func(c *Config) any { return &c.Export.OutputDir }},
	{"export.format", func(c *Config) any { return &c.Export.Format }},
	{"log.level", func(c *Config) any { return &c.Log.Level }},
	{"log.file", func(c *Config) any { return &c.Log.File }},
}

// GetAllKeys returns every key Get and Set accept, in file order.
func GetAllKeys() []string {
	keys := make([]string, len(settings))
	for i, s := range settings {
		keys[i] = s.key
	}
	return keys
}

func (c *Config) fieldFor(key string) (any, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return nil, errors.New("empty key")
	}
	for _, s := range settings {
		if s.key == key {
			return s.field(c), nil
		}
	}
	return nil, fmt.Errorf("unknown key %q (see 'docchat config keys')", key)
}

// Get returns the value stored under a dotted key such as "ui.language".
func (c *Config) Get(key string) (any, error) {
	ptr, err := c.fieldFor(key)
	if err != nil {
		return nil, err
	}
	switch p := ptr.(type) {
	case *string:
		return *p, nil
	case *int:
		return *p, nil
	case *bool:
		return *p, nil
	}
	return nil, fmt.Errorf("unsupported key %q", key)
}

// Set parses value for the field under key and stores it. Booleans also
// accept "yes" and "no". The result is not validated.
func (c *Config) Set(key, value string) error {
	ptr, err := c.fieldFor(key)
	if err != nil {
		return err
	}
	switch p := ptr.(type) {
	case *string:
		*p = value
	case *int:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", key, value)
		}
		*p = n
	case *bool:
		b, ok := parseBool(value)
		if !ok {
			return fmt.Errorf("%s: %q is not a boolean", key, value)
		}
		*p = b
	}
	return nil
}

func parseBool(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "y", "on":
		return true, true
	case "no", "n", "off":
		return false, true
	}
	b, err := strconv.ParseBool(v)
	return b, err == nil
}
