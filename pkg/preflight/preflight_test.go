package preflight

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conclave/pkg/llm/factory"
)

type fakeLister struct {
	local []string
	err   error
}

func (f *fakeLister) ListLocalModels(context.Context) ([]string, error) {
	return f.local, f.err
}

func (f *fakeLister) ValidateModels(_ context.Context, required []string) ([]string, []string, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	localSet := make(map[string]bool, len(f.local))
	for _, m := range f.local {
		localSet[m] = true
	}
	var available, missing []string
	for _, m := range required {
		if localSet[m] {
			available = append(available, m)
		} else {
			missing = append(missing, m)
		}
	}
	return available, missing, nil
}

func TestRunAllLocalModelsAvailable(t *testing.T) {
	lister := &fakeLister{local: []string{"llama3.2", "mistral"}}

	results := Run(context.Background(), []string{"llama3.2", "mistral"}, lister)

	assert.True(t, results.Passed)
	assert.Empty(t, results.MissingOllamaModels)
	require.Len(t, results.Checks, 1)
	assert.Equal(t, factory.ProviderOllama, results.Checks[0].Provider)
}

func TestRunReportsMissingModels(t *testing.T) {
	lister := &fakeLister{local: []string{"llama3.2"}}

	results := Run(context.Background(), []string{"llama3.2", "qwen2.5", "mistral"}, lister)

	assert.False(t, results.Passed)
	assert.Equal(t, []string{"qwen2.5", "mistral"}, results.MissingOllamaModels)
	assert.Equal(t, []string{"llama3.2"}, results.AvailableModels)
}

func TestRunUnreachableServer(t *testing.T) {
	lister := &fakeLister{err: errors.New("connection refused")}

	results := Run(context.Background(), []string{"llama3.2"}, lister)

	assert.False(t, results.Passed)
	require.Len(t, results.Checks, 1)
	assert.Contains(t, results.Checks[0].Message, "unreachable")
}

func TestRunCloudKeyChecks(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	results := Run(context.Background(), []string{"claude-sonnet-4-5", "gpt-4o"}, nil)

	assert.False(t, results.Passed)
	require.Len(t, results.Checks, 2)

	byProvider := make(map[factory.Provider]CheckResult)
	for _, c := range results.Checks {
		byProvider[c.Provider] = c
	}
	assert.False(t, byProvider[factory.ProviderAnthropic].Passed)
	assert.Contains(t, byProvider[factory.ProviderAnthropic].Message, "ANTHROPIC_API_KEY")
	assert.True(t, byProvider[factory.ProviderOpenAI].Passed)
}

func TestValidateCollapsesFailures(t *testing.T) {
	lister := &fakeLister{local: nil}

	err := Validate(context.Background(), []string{"llama3.2"}, lister)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llama3.2")

	lister.local = []string{"llama3.2"}
	assert.NoError(t, Validate(context.Background(), []string{"llama3.2"}, lister))
}
