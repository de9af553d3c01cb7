package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderForModel(t *testing.T) {
	tests := []struct {
		model string
		want  Provider
	}{
		{"claude-sonnet-4-20250514", ProviderAnthropic},
		{"Claude-3-Haiku", ProviderAnthropic},
		{"gpt-4o", ProviderOpenAI},
		{"o3-mini", ProviderOpenAI},
		{"llama3.2", ProviderOllama},
		{"qwen2.5:7b", ProviderOllama},
		{"mistral", ProviderOllama},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, ProviderForModel(tt.model))
		})
	}
}

func TestClientForCachesByModel(t *testing.T) {
	f := New("")

	first, err := f.ClientFor("llama3.2")
	require.NoError(t, err)
	second, err := f.ClientFor("llama3.2")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, "llama3.2", first.GetModelName())
}

func TestClientForRequiresAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	f := New("")

	_, err := f.ClientFor("claude-sonnet-4-20250514")
	assert.Error(t, err)

	_, err = f.ClientFor("gpt-4o")
	assert.Error(t, err)
}
