package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/ollama/ollama/api"
)

// Registry exposes model discovery and pull operations against an Ollama server.
type Registry struct {
	client *api.Client
}

// NewRegistry creates a registry client for the given host URL.
func NewRegistry(hostURL string) *Registry {
	parsedURL, err := url.Parse(hostURL)
	if err != nil || hostURL == "" {
		parsedURL, _ = url.Parse(DefaultHostURL)
	}
	return &Registry{client: api.NewClient(parsedURL, http.DefaultClient)}
}

// ListLocalModels returns the sorted names of models available locally.
func (r *Registry) ListLocalModels(ctx context.Context) ([]string, error) {
	resp, err := r.client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot reach ollama server: %w", err)
	}

	names := make([]string, 0, len(resp.Models))
	for i := range resp.Models {
		names = append(names, resp.Models[i].Model)
	}
	sort.Strings(names)
	return names, nil
}

// ValidateModels checks which of the required models are available locally.
// A model matches either exactly or by base name (ollama tags models as
// "llama3.2:latest" while configs often name the bare "llama3.2").
func (r *Registry) ValidateModels(ctx context.Context, required []string) (available, missing []string, err error) {
	local, err := r.ListLocalModels(ctx)
	if err != nil {
		return nil, nil, err
	}

	localSet := make(map[string]bool, len(local))
	localBase := make(map[string]bool, len(local))
	for _, m := range local {
		localSet[m] = true
		localBase[baseName(m)] = true
	}

	for _, model := range required {
		if localSet[model] || localBase[baseName(model)] {
			available = append(available, model)
		} else {
			missing = append(missing, model)
		}
	}
	return available, missing, nil
}

// PullModel downloads a model from the Ollama library, reporting progress
// status lines through the optional callback.
func (r *Registry) PullModel(ctx context.Context, model string, progress func(status string)) error {
	req := &api.PullRequest{Model: model}
	err := r.client.Pull(ctx, req, func(resp api.ProgressResponse) error {
		if progress != nil && resp.Status != "" {
			progress(resp.Status)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to pull %s: %w", model, err)
	}
	return nil
}

func baseName(model string) string {
	if idx := strings.Index(model, ":"); idx >= 0 {
		return model[:idx]
	}
	return model
}
