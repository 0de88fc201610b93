package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// AgentProfile overrides the built-in prompt and model binding of one agent.
// Agents are keyed by name: classifier, email, json.
type AgentProfile struct {
	Model        string `yaml:"model,omitempty"`
	SystemPrompt string `yaml:"systemPrompt,omitempty"`
}

// LoadProfiles reads per-agent overrides from a YAML file. A missing path or
// missing file yields an empty map; the built-in prompts apply.
func LoadProfiles(path string, logger *slog.Logger) (map[string]AgentProfile, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Debug("agent profiles file does not exist, skipping", "path", path)
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agent profiles: %w", err)
	}

	var profiles map[string]AgentProfile
	if err := yaml.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("parse agent profiles %s: %w", path, err)
	}

	for name := range profiles {
		logger.Info("loaded agent profile", "agent", name)
	}
	return profiles, nil
}
