package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PromptsFileName is the optional template override file checked next to
// config.json. Keys match the system_prompts map; unknown keys are rejected
// so typos surface instead of silently using the built-in template.
const PromptsFileName = "prompts.yaml"

var knownPromptKeys = map[string]bool{
	PromptInitialRound:   true,
	PromptDebateRound:    true,
	PromptSkepticRound:   true,
	PromptSkepticInitial: true,
	PromptFinalSynthesis: true,
}

// ApplyPromptOverrides merges templates from a YAML file over the configured
// system prompts. A missing file is not an error.
func (c *Config) ApplyPromptOverrides(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	overrides := make(map[string]string)
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for key, tmpl := range overrides {
		if !knownPromptKeys[key] {
			return fmt.Errorf("unknown prompt key %q in %s", key, path)
		}
		if tmpl == "" {
			continue
		}
		if c.SystemPrompts == nil {
			c.SystemPrompts = make(map[string]string)
		}
		c.SystemPrompts[key] = tmpl
	}
	return nil
}
