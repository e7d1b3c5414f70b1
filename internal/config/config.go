package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	// ShareTimeoutMS is how long a shared id stays remembered after success.
	ShareTimeoutMS int `json:"share_timeout_ms"`

	// PreferNative tries the native share channel before the fallback.
	PreferNative *bool `json:"prefer_native,omitempty"`

	// Fallback names the fallback strategy: "clipboard" or "none".
	Fallback string `json:"fallback,omitempty"`

	// FallbackToWeb arms the web fallback after a native deep link attempt.
	FallbackToWeb *bool `json:"fallback_to_web,omitempty"`

	// FallbackDelayMS is the wait before the web fallback fires.
	FallbackDelayMS int `json:"fallback_delay_ms"`

	// OpenInNewTab opens web URLs in a new window.
	OpenInNewTab *bool `json:"open_in_new_tab,omitempty"`

	// Messages overrides toast text.
	Messages Messages `json:"messages,omitempty"`

	// UserAgent is reported by the system host. The system host has no
	// browser, so this decides how links are opened from the CLI.
	UserAgent string `json:"user_agent,omitempty"`

	// HistoryEnabled records share outcomes in the local database.
	HistoryEnabled *bool `json:"history_enabled,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default (unlimited). Only set if you experience contention.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of type names to disable entirely.
	// All tools belonging to disabled types are excluded from registration.
	// Known types: "share", "history". Unknown type names are logged as warnings.
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// Messages holds toast text overrides. Empty strings keep the defaults.
type Messages struct {
	Success        string `json:"success,omitempty"`
	FallbackCopied string `json:"fallback_copied,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ShareTimeoutMS:  2000,
		PreferNative:    Bool(true),
		Fallback:        "clipboard",
		FallbackToWeb:   Bool(true),
		FallbackDelayMS: 2500,
		OpenInNewTab:    Bool(true),
		HistoryEnabled:  Bool(true),
	}
}

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// BoolValue dereferences p, returning def when p is nil.
func BoolValue(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// ShareTimeout returns ShareTimeoutMS as a duration.
func (c *Config) ShareTimeout() time.Duration {
	return time.Duration(c.ShareTimeoutMS) * time.Millisecond
}

// FallbackDelay returns FallbackDelayMS as a duration.
func (c *Config) FallbackDelay() time.Duration {
	return time.Duration(c.FallbackDelayMS) * time.Millisecond
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.handoff.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.handoff) and repo (.handoff) directories.
// Repo config is found by walking upward from startDir to find the nearest .handoff/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	// Walk upward from startDir to find repo config
	repoConfigPath := FindRepoConfig(startDir)
	repo, err := loadFileRaw(repoConfigPath)
	if err != nil {
		return nil, err
	}

	// Apply defaults, then global, then repo
	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .handoff/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".handoff", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
// Booleans are pointers, so an explicit false in overlay overrides a true base.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		ShareTimeoutMS:  mergeInt(base.ShareTimeoutMS, overlay.ShareTimeoutMS),
		FallbackDelayMS: mergeInt(base.FallbackDelayMS, overlay.FallbackDelayMS),
		DBMaxOpenConns:  mergeInt(base.DBMaxOpenConns, overlay.DBMaxOpenConns),
		DBMaxIdleConns:  mergeInt(base.DBMaxIdleConns, overlay.DBMaxIdleConns),

		Fallback:  mergeString(base.Fallback, overlay.Fallback),
		UserAgent: mergeString(base.UserAgent, overlay.UserAgent),
		Messages: Messages{
			Success:        mergeString(base.Messages.Success, overlay.Messages.Success),
			FallbackCopied: mergeString(base.Messages.FallbackCopied, overlay.Messages.FallbackCopied),
		},

		PreferNative:   mergeBool(base.PreferNative, overlay.PreferNative),
		FallbackToWeb:  mergeBool(base.FallbackToWeb, overlay.FallbackToWeb),
		OpenInNewTab:   mergeBool(base.OpenInNewTab, overlay.OpenInNewTab),
		HistoryEnabled: mergeBool(base.HistoryEnabled, overlay.HistoryEnabled),
	}

	// Arrays: merge and deduplicate
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func mergeInt(base, overlay int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

func mergeString(base, overlay string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

func mergeBool(base, overlay *bool) *bool {
	if overlay != nil {
		return Bool(*overlay)
	}
	if base != nil {
		return Bool(*base)
	}
	return nil
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
