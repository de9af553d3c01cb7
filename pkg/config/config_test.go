package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Instances)
	assert.Equal(t, 3, cfg.Rounds)
	assert.Equal(t, StrategySlidingWindow, cfg.ContextStrategy)
	assert.True(t, cfg.SkepticAgent)
	assert.FileExists(t, path)
}

func TestLoadMergesUserValuesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	user := map[string]any{
		"instances": 2,
		"models":    []string{"llama3.2", "mistral"},
		"system_prompts": map[string]string{
			"final_synthesis": "custom synthesis prompt",
		},
	}
	data, err := json.Marshal(user)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Instances)
	assert.Equal(t, []string{"llama3.2", "mistral"}, cfg.Models)
	// Untouched keys keep defaults.
	assert.Equal(t, 3, cfg.Rounds)
	assert.Equal(t, 4096, cfg.ContextLimit)
	// Prompt map merges key-by-key.
	assert.Equal(t, "custom synthesis prompt", cfg.SystemPrompts[PromptFinalSynthesis])
	assert.NotEmpty(t, cfg.SystemPrompts[PromptInitialRound])
}

func TestLoadCorruptFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Instances)
}

func TestEnsureModelsMatchInstances(t *testing.T) {
	cfg := Default()

	cfg.Instances = 5
	cfg.Models = []string{"llama3.2", "mistral"}
	cfg.EnsureModelsMatchInstances()
	assert.Equal(t, []string{"llama3.2", "mistral", "mistral", "mistral", "mistral"}, cfg.Models)

	cfg.Instances = 1
	cfg.EnsureModelsMatchInstances()
	assert.Equal(t, []string{"llama3.2"}, cfg.Models)
}

func TestSnapshotIsImmutable(t *testing.T) {
	cfg := Default()
	cfg.Instances = 2
	cfg.Models = []string{"llama3.2", "mistral"}

	snap := cfg.Snapshot()
	require.Len(t, snap.Models, 2)

	// Later edits must not leak into the snapshot.
	cfg.SetModelAt(0, "qwen2.5")
	cfg.SystemPrompts[PromptInitialRound] = "changed"

	assert.Equal(t, "llama3.2", snap.Models[0])
	assert.NotEqual(t, "changed", snap.SystemPrompts[PromptInitialRound])
}

func TestSnapshotReconcilesModelCount(t *testing.T) {
	cfg := Default()
	cfg.Instances = 4
	cfg.Models = []string{"llama3.2"}

	snap := cfg.Snapshot()
	assert.Len(t, snap.Models, 4)
	assert.Equal(t, 4, snap.Instances)
}

func TestSnapshotDefaultsSummaryModel(t *testing.T) {
	cfg := Default()
	cfg.SummaryModel = ""
	snap := cfg.Snapshot()
	assert.Equal(t, snap.Models[0], snap.SummaryModel)

	cfg.SummaryModel = "qwen2.5"
	snap = cfg.Snapshot()
	assert.Equal(t, "qwen2.5", snap.SummaryModel)
}

func TestPromptFallbackChain(t *testing.T) {
	cfg := Default()
	snap := cfg.Snapshot()

	// Fully populated defaults resolve directly.
	assert.NotEmpty(t, snap.Prompt(PromptSkepticInitial))

	// Skeptic variants fall back when missing.
	delete(snap.SystemPrompts, PromptSkepticInitial)
	assert.Equal(t, snap.SystemPrompts[PromptSkepticRound], snap.Prompt(PromptSkepticInitial))

	delete(snap.SystemPrompts, PromptSkepticRound)
	assert.Equal(t, snap.SystemPrompts[PromptDebateRound], snap.Prompt(PromptSkepticInitial))
}

func TestApplyPromptOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, PromptsFileName)
	yaml := "final_synthesis: |\n  Summarize it all.\ninitial_round: opening statement\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg := Default()
	require.NoError(t, cfg.ApplyPromptOverrides(path))

	assert.Equal(t, "opening statement", cfg.SystemPrompts[PromptInitialRound])
	assert.Contains(t, cfg.SystemPrompts[PromptFinalSynthesis], "Summarize it all.")
}

func TestApplyPromptOverridesRejectsUnknownKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, PromptsFileName)
	require.NoError(t, os.WriteFile(path, []byte("not_a_prompt: x\n"), 0o644))

	cfg := Default()
	assert.Error(t, cfg.ApplyPromptOverrides(path))
}

func TestApplyPromptOverridesMissingFile(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.ApplyPromptOverrides(filepath.Join(t.TempDir(), PromptsFileName)))
}

func TestClampValues(t *testing.T) {
	cfg := Default()
	cfg.Instances = 0
	cfg.Rounds = -2
	cfg.ContextLimit = 10
	cfg.ContextStrategy = "bogus"
	cfg.clampValues()

	assert.Equal(t, 1, cfg.Instances)
	assert.Equal(t, 1, cfg.Rounds)
	assert.Equal(t, 512, cfg.ContextLimit)
	assert.Equal(t, StrategySlidingWindow, cfg.ContextStrategy)
}
