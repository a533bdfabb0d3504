// Package config loads and merges agent configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (CRA_PROVIDER, CRA_MODEL, CRA_TOKEN_BUDGET, etc.)
//  3. Config file ($XDG_CONFIG_HOME/code-review-agent/config.json)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config] and [Save] to persist one.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// Config is the agent configuration.
type Config struct {
	Provider      string        `json:"provider"`
	Model         string        `json:"model"`
	FixModel      string        `json:"fixModel,omitempty"`
	TokenBudget   int           `json:"tokenBudget"`
	MaxLinkLength int           `json:"maxLinkLength"`
	InlineFixes   bool          `json:"inlineFixes"`
	Format        string        `json:"format"`
	Cache         CacheConfig   `json:"cache"`
	Privacy       PrivacyConfig `json:"privacy"`
}

// CacheConfig controls response caching.
type CacheConfig struct {
	Enabled    bool   `json:"enabled"`
	Path       string `json:"path,omitempty"`
	TTLSeconds int    `json:"ttlSeconds"`
}

// PrivacyConfig controls secret redaction.
type PrivacyConfig struct {
	RedactSecrets bool     `json:"redactSecrets"`
	RedactPaths   []string `json:"redactPaths,omitempty"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Provider:      "anthropic",
		Model:         "claude-sonnet-4-20250514",
		TokenBudget:   120000,
		MaxLinkLength: 2048,
		InlineFixes:   true,
		Format:        "text",
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 86400,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*secrets*"},
		},
	}
}

// ConfigDir returns the platform-appropriate config directory.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "code-review-agent"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "code-review-agent"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "code-review-agent"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "code-review-agent"), nil
	default:
		return filepath.Join(home, ".config", "code-review-agent"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadFile loads config from the config file. Returns zero Config and nil
// error if the file doesn't exist.
func LoadFile() (Config, error) {
	data, err := readConfigFile()
	if err != nil || data == nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

func readConfigFile() ([]byte, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return data, nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <-
// overrides. The overrides map comes from CLI flags (only set values).
func Load(overrides map[string]string) (Config, error) {
	cfg := Default()

	data, err := readConfigFile()
	if err != nil {
		return Config{}, err
	}
	if data != nil {
		var fileCfg fileConfig
		if err := json.Unmarshal(data, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
		mergeFile(&cfg, fileCfg)
	}
	mergeEnv(&cfg)
	mergeOverrides(&cfg, overrides)

	return cfg, nil
}

// fileConfig mirrors Config with pointer booleans so a persisted false is
// distinguishable from an absent field during the merge.
type fileConfig struct {
	Provider      string `json:"provider"`
	Model         string `json:"model"`
	FixModel      string `json:"fixModel"`
	TokenBudget   int    `json:"tokenBudget"`
	MaxLinkLength int    `json:"maxLinkLength"`
	InlineFixes   *bool  `json:"inlineFixes"`
	Format        string `json:"format"`
	Cache         struct {
		Enabled    *bool  `json:"enabled"`
		Path       string `json:"path"`
		TTLSeconds int    `json:"ttlSeconds"`
	} `json:"cache"`
	Privacy struct {
		RedactSecrets *bool    `json:"redactSecrets"`
		RedactPaths   []string `json:"redactPaths"`
	} `json:"privacy"`
}

func mergeFile(dst *Config, src fileConfig) {
	if src.Provider != "" {
		dst.Provider = src.Provider
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.FixModel != "" {
		dst.FixModel = src.FixModel
	}
	if src.TokenBudget > 0 {
		dst.TokenBudget = src.TokenBudget
	}
	if src.MaxLinkLength > 0 {
		dst.MaxLinkLength = src.MaxLinkLength
	}
	if src.InlineFixes != nil {
		dst.InlineFixes = *src.InlineFixes
	}
	if src.Format != "" {
		dst.Format = src.Format
	}
	if src.Cache.Enabled != nil {
		dst.Cache.Enabled = *src.Cache.Enabled
	}
	if src.Cache.Path != "" {
		dst.Cache.Path = src.Cache.Path
	}
	if src.Cache.TTLSeconds > 0 {
		dst.Cache.TTLSeconds = src.Cache.TTLSeconds
	}
	if src.Privacy.RedactSecrets != nil {
		dst.Privacy.RedactSecrets = *src.Privacy.RedactSecrets
	}
	if len(src.Privacy.RedactPaths) > 0 {
		dst.Privacy.RedactPaths = src.Privacy.RedactPaths
	}
}

func mergeEnv(cfg *Config) {
	if v := os.Getenv("CRA_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("CRA_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("CRA_FIX_MODEL"); v != "" {
		cfg.FixModel = v
	}
	if v := os.Getenv("CRA_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("CRA_TOKEN_BUDGET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TokenBudget = n
		}
	}
	if v := os.Getenv("CRA_INLINE_FIXES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.InlineFixes = b
		}
	}
}

func mergeOverrides(cfg *Config, overrides map[string]string) {
	for key, value := range overrides {
		if value == "" {
			continue
		}
		_ = SetField(cfg, key, value)
	}
}

// SetField sets a single config field by key name. Returns an error for
// unknown keys or malformed values.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "provider":
		cfg.Provider = value
	case "model":
		cfg.Model = value
	case "fixModel":
		cfg.FixModel = value
	case "format":
		cfg.Format = value
	case "tokenBudget":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("tokenBudget must be an integer: %w", err)
		}
		cfg.TokenBudget = n
	case "maxLinkLength":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("maxLinkLength must be an integer: %w", err)
		}
		cfg.MaxLinkLength = n
	case "inlineFixes":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("inlineFixes must be a boolean: %w", err)
		}
		cfg.InlineFixes = b
	case "cacheEnabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("cacheEnabled must be a boolean: %w", err)
		}
		cfg.Cache.Enabled = b
	case "redactSecrets":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("redactSecrets must be a boolean: %w", err)
		}
		cfg.Privacy.RedactSecrets = b
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}
