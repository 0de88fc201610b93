package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the root configuration for ingestbot.
type Config struct {
	General   GeneralConfig             `json:"general"`
	Providers map[string]ProviderConfig `json:"providers"`
	Store     StoreConfig               `json:"store"`
	Agents    AgentsConfig              `json:"agents"`
}

type GeneralConfig struct {
	Workspace       string `json:"workspace"`
	LogLevel        string `json:"logLevel"`
	DefaultProvider string `json:"defaultProvider"`
	MaxSteps        int    `json:"maxSteps"` // cap on graph nodes executed per run
}

type ProviderConfig struct {
	Enabled      bool   `json:"enabled"`
	APIBase      string `json:"apiBase,omitempty"`
	APIKey       string `json:"apiKey,omitempty"`
	DefaultModel string `json:"defaultModel,omitempty"`
}

type StoreConfig struct {
	DBPath string `json:"dbPath"`
}

type AgentsConfig struct {
	// ProfilesPath optionally points at an agents.yaml overriding per-agent
	// model and system prompt.
	ProfilesPath string `json:"profilesPath,omitempty"`
}

// DefaultConfigDir returns the default config directory (~/.ingestbot).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ingestbot"
	}
	return filepath.Join(home, ".ingestbot")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	path = expandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.General.Workspace = expandPath(cfg.General.Workspace)
	cfg.Store.DBPath = expandPath(cfg.Store.DBPath)
	cfg.Agents.ProfilesPath = expandPath(cfg.Agents.ProfilesPath)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func Validate(cfg *Config) error {
	if cfg.General.DefaultProvider == "" {
		return fmt.Errorf("general.defaultProvider must be set")
	}
	if _, ok := cfg.Providers[cfg.General.DefaultProvider]; !ok {
		return fmt.Errorf("default provider %q has no providers entry", cfg.General.DefaultProvider)
	}
	if cfg.Store.DBPath == "" {
		return fmt.Errorf("store.dbPath must be set")
	}
	if cfg.General.MaxSteps < 0 {
		return fmt.Errorf("general.maxSteps must not be negative")
	}
	return nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // keep original when unset and no default
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// expandPath resolves a leading ~/ to the user home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
