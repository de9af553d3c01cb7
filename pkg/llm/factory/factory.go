// Package factory resolves model names to llm.Client implementations.
package factory

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"conclave/pkg/llm"
	"conclave/pkg/llm/anthropic"
	"conclave/pkg/llm/ollama"
	"conclave/pkg/llm/openai"
)

// Provider identifies an LLM backend.
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// ProviderForModel infers the backend from the model name. Cloud models are
// recognized by well-known prefixes; everything else is assumed to be a local
// Ollama model.
func ProviderForModel(model string) Provider {
	name := strings.ToLower(model)
	switch {
	case strings.HasPrefix(name, "claude"):
		return ProviderAnthropic
	case strings.HasPrefix(name, "gpt"), strings.HasPrefix(name, "o3"), strings.HasPrefix(name, "o4"):
		return ProviderOpenAI
	default:
		return ProviderOllama
	}
}

// Factory builds and caches clients per model name.
type Factory struct {
	mu        sync.Mutex
	clients   map[string]llm.Client
	ollamaURL string
}

// New creates a factory. ollamaURL may be empty to use the default host.
func New(ollamaURL string) *Factory {
	return &Factory{
		clients:   make(map[string]llm.Client),
		ollamaURL: ollamaURL,
	}
}

// ClientFor returns a client for the model, constructing it on first use.
// Cloud providers require their API key in the environment.
func (f *Factory) ClientFor(model string) (llm.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if client, ok := f.clients[model]; ok {
		return client, nil
	}

	var client llm.Client
	switch ProviderForModel(model) {
	case ProviderAnthropic:
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("model %s requires ANTHROPIC_API_KEY", model)
		}
		client = anthropic.NewClient(key, model)
	case ProviderOpenAI:
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("model %s requires OPENAI_API_KEY", model)
		}
		client = openai.NewClient(key, model)
	default:
		client = ollama.NewClient(f.ollamaURL, model)
	}

	f.clients[model] = client
	return client, nil
}
