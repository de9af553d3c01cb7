// Package config provides configuration loading, validation, and per-run snapshots.
//
// Two layers are kept strictly apart:
//
//   - Config: the mutable on-disk settings (config.json), owned by the CLI.
//     Edits are validated and persisted atomically via Save.
//   - RunConfig: an immutable value snapshot taken once per debate run.
//     Settings changed mid-session apply to the next run, never to one in
//     progress.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"conclave/pkg/logx"
)

// ContextStrategy selects how over-budget context is reduced.
type ContextStrategy string

const (
	// StrategySlidingWindow keeps the reserved head plus the most recent
	// messages that fit the budget.
	StrategySlidingWindow ContextStrategy = "sliding_window"
	// StrategySummary condenses the transcript with a summarizer model,
	// falling back to the sliding window if the result still overflows.
	StrategySummary ContextStrategy = "summary"
)

// Prompt template keys. The skeptic variants fall back to the debater
// variants when a user config omits them.
const (
	PromptInitialRound    = "initial_round"
	PromptDebateRound     = "debate_round"
	PromptSkepticRound    = "skeptic_round"
	PromptSkepticInitial  = "skeptic_initial_round"
	PromptFinalSynthesis  = "final_synthesis"
	defaultFillerModel    = "llama3.2"
	defaultConfigFileName = "config.json"
)

// Config holds the persisted settings. Field shapes mirror config.json.
//
//nolint:govet // fieldalignment: JSON shape grouping preferred
type Config struct {
	Instances          int               `json:"instances"`
	Rounds             int               `json:"rounds"`
	Models             []string          `json:"models"`
	ContextLimit       int               `json:"context_limit"`
	ContextStrategy    ContextStrategy   `json:"context_strategy"`
	SummaryModel       string            `json:"summary_model,omitempty"`
	StreamOutput       bool              `json:"stream_output"`
	SaveLogs           bool              `json:"save_logs"`
	LogDirectory       string            `json:"log_directory"`
	HistoryDB          string            `json:"history_db"`
	SkepticAgent       bool              `json:"skeptic_agent"`
	AccurateTokenCount bool              `json:"accurate_token_count"`
	OllamaHost         string            `json:"ollama_host"`
	SystemPrompts      map[string]string `json:"system_prompts"`

	path   string
	logger *logx.Logger
}

// RunConfig is the read-only snapshot handed to the debate engine.
// Invariant: len(Models) == Instances (Snapshot reconciles this).
//
//nolint:govet // fieldalignment: logical grouping preferred
type RunConfig struct {
	Models             []string
	Instances          int
	Rounds             int
	ContextLimit       int
	ContextStrategy    ContextStrategy
	SummaryModel       string
	SkepticEnabled     bool
	StreamOutput       bool
	AccurateTokenCount bool
	SystemPrompts      map[string]string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Instances:       3,
		Rounds:          3,
		Models:          []string{"llama3.2", "qwen2.5", "mistral"},
		ContextLimit:    4096,
		ContextStrategy: StrategySlidingWindow,
		StreamOutput:    true,
		SaveLogs:        true,
		LogDirectory:    "logs",
		HistoryDB:       filepath.Join("logs", "history.db"),
		SkepticAgent:    true,
		OllamaHost:      "",
		SystemPrompts: map[string]string{
			PromptInitialRound: "You are an expert analyst participating in a multi-agent debate. " +
				"Provide your independent, well-reasoned perspective on the user's query. " +
				"Be thorough, specific, and support your arguments with clear reasoning.",
			PromptDebateRound: "You are an expert analyst participating in a multi-agent debate. " +
				"Review the full transcript of the debate so far. You MUST specifically " +
				"refute, clarify, or expand on points raised by other participants. " +
				"Reference their arguments directly. Do not simply repeat what has been " +
				"said — add genuine value.",
			PromptSkepticRound: "You are the SKEPTIC in a multi-agent debate. Your sole role is to " +
				"challenge, question, and actively refute the arguments made by the other " +
				"participants in the transcript. Find logical flaws, missing evidence, " +
				"hidden assumptions, and counter-examples. Be direct and adversarial. " +
				"Do NOT simply agree — your job is to stress-test every claim.",
			PromptSkepticInitial: "You are the SKEPTIC in a multi-agent debate. Since this is the opening round " +
				"and no other participant has spoken yet, your job is to challenge the USER'S " +
				"QUERY ITSELF. Identify hidden assumptions, ambiguous language, missing context, " +
				"or logical traps embedded in the question. Present an adversarial perspective " +
				"that forces the debate to confront potential flaws from the very start. " +
				"Do NOT give a straightforward answer — question whether the question is even " +
				"well-formed.",
			PromptFinalSynthesis: "You are the final synthesizer in a multi-agent debate. Review the entire " +
				"debate transcript carefully. Produce a single, comprehensive, high-quality " +
				"answer that integrates the best insights from all participants. Resolve any " +
				"contradictions and present the strongest possible consensus answer to the " +
				"user's original query.",
		},
	}
}

// DefaultPath returns the config file location next to the working directory.
func DefaultPath() string {
	return defaultConfigFileName
}

// Load reads the config file at path, merging user values over defaults.
// A missing file is created with defaults. An unreadable file falls back to
// defaults with a warning, matching the forgiving startup behavior users
// expect from an interactive tool.
func Load(path string) (*Config, error) {
	cfg := Default()
	cfg.path = path
	cfg.logger = logx.NewLogger("config")

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if saveErr := cfg.Save(); saveErr != nil {
			return nil, fmt.Errorf("failed to write default config: %w", saveErr)
		}
		return cfg, nil
	}
	if err != nil {
		cfg.logger.Warn("failed to read %s: %v. Using defaults.", path, err)
		return cfg, nil
	}

	// Unmarshal over the populated defaults: absent keys keep their default
	// value, and the prompt map merges key-by-key.
	if err := json.Unmarshal(data, cfg); err != nil {
		cfg.logger.Warn("failed to parse %s: %v. Using defaults.", path, err)
		fresh := Default()
		fresh.path = path
		fresh.logger = cfg.logger
		return fresh, nil
	}

	cfg.clampValues()
	return cfg, nil
}

// Save persists the current configuration atomically.
func (c *Config) Save() error {
	if c.path == "" {
		c.path = DefaultPath()
	}

	payload, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(c.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, append(payload, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}

// clampValues enforces sane lower bounds after a user edit or load.
func (c *Config) clampValues() {
	if c.Instances < 1 {
		c.Instances = 1
	}
	if c.Rounds < 1 {
		c.Rounds = 1
	}
	if c.ContextLimit < 512 {
		c.ContextLimit = 512
	}
	if c.ContextStrategy != StrategySummary {
		c.ContextStrategy = StrategySlidingWindow
	}
	if c.SystemPrompts == nil {
		c.SystemPrompts = Default().SystemPrompts
	}
}

// EnsureModelsMatchInstances pads or trims the model list so it matches the
// instance count. Padding repeats the last configured model.
func (c *Config) EnsureModelsMatchInstances() {
	if len(c.Models) < c.Instances {
		filler := defaultFillerModel
		if len(c.Models) > 0 {
			filler = c.Models[len(c.Models)-1]
		}
		for len(c.Models) < c.Instances {
			c.Models = append(c.Models, filler)
		}
	} else if len(c.Models) > c.Instances {
		c.Models = c.Models[:c.Instances]
	}
}

// SetModelAt sets a specific agent's model, growing the list as needed.
func (c *Config) SetModelAt(index int, model string) {
	filler := defaultFillerModel
	if len(c.Models) > 0 {
		filler = c.Models[len(c.Models)-1]
	}
	for len(c.Models) <= index {
		c.Models = append(c.Models, filler)
	}
	c.Models[index] = model
}

// Snapshot builds the immutable per-run configuration. The model list is
// reconciled to the instance count and copied so later edits cannot leak
// into a running debate.
func (c *Config) Snapshot() RunConfig {
	c.clampValues()
	c.EnsureModelsMatchInstances()

	models := make([]string, len(c.Models))
	copy(models, c.Models)

	prompts := make(map[string]string, len(c.SystemPrompts))
	for k, v := range c.SystemPrompts {
		prompts[k] = v
	}

	summaryModel := c.SummaryModel
	if summaryModel == "" && len(models) > 0 {
		summaryModel = models[0]
	}

	return RunConfig{
		Models:             models,
		Instances:          c.Instances,
		Rounds:             c.Rounds,
		ContextLimit:       c.ContextLimit,
		ContextStrategy:    c.ContextStrategy,
		SummaryModel:       summaryModel,
		SkepticEnabled:     c.SkepticAgent,
		StreamOutput:       c.StreamOutput,
		AccurateTokenCount: c.AccurateTokenCount,
		SystemPrompts:      prompts,
	}
}

// Prompt returns the template for a key, walking the fallback chain so a
// partially overridden prompt map still yields usable instructions.
func (rc RunConfig) Prompt(key string) string {
	if v, ok := rc.SystemPrompts[key]; ok && v != "" {
		return v
	}
	switch key {
	case PromptSkepticInitial:
		return rc.Prompt(PromptSkepticRound)
	case PromptSkepticRound:
		return rc.Prompt(PromptDebateRound)
	default:
		return ""
	}
}
