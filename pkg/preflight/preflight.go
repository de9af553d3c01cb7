// Package preflight validates that every configured model can actually be
// served before a debate starts: API keys present for cloud providers, the
// Ollama server reachable and local models pulled.
package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"conclave/pkg/llm/factory"
	"conclave/pkg/llm/ollama"
)

// CheckResult is the outcome of one provider check.
type CheckResult struct {
	Error    error
	Message  string
	Provider factory.Provider
	Passed   bool
}

// Results aggregates all checks for one model set.
type Results struct {
	Summary string
	Checks  []CheckResult
	// MissingOllamaModels lists configured local models absent from the
	// server, in config order. The CLI resolves these interactively by
	// pulling or substituting.
	MissingOllamaModels []string
	AvailableModels     []string
	Passed              bool
}

// ModelLister is the slice of the Ollama registry the checks need.
type ModelLister interface {
	ValidateModels(ctx context.Context, required []string) (available, missing []string, err error)
	ListLocalModels(ctx context.Context) ([]string, error)
}

// Run checks the given models. registry may be nil when no model routes to
// Ollama.
func Run(ctx context.Context, models []string, registry ModelLister) *Results {
	results := &Results{Passed: true}

	byProvider := make(map[factory.Provider][]string)
	for _, m := range models {
		p := factory.ProviderForModel(m)
		byProvider[p] = append(byProvider[p], m)
	}

	if cloud := byProvider[factory.ProviderAnthropic]; len(cloud) > 0 {
		results.add(checkAPIKey(factory.ProviderAnthropic, "ANTHROPIC_API_KEY", cloud))
	}
	if cloud := byProvider[factory.ProviderOpenAI]; len(cloud) > 0 {
		results.add(checkAPIKey(factory.ProviderOpenAI, "OPENAI_API_KEY", cloud))
	}
	if local := byProvider[factory.ProviderOllama]; len(local) > 0 {
		results.add(checkOllama(ctx, results, local, registry))
	}

	failed := 0
	for i := range results.Checks {
		if !results.Checks[i].Passed {
			failed++
		}
	}
	if failed == 0 {
		results.Summary = fmt.Sprintf("All %d preflight checks passed", len(results.Checks))
	} else {
		results.Summary = fmt.Sprintf("%d of %d preflight checks failed", failed, len(results.Checks))
	}
	return results
}

func (r *Results) add(c CheckResult) {
	r.Checks = append(r.Checks, c)
	if !c.Passed {
		r.Passed = false
	}
}

func checkAPIKey(provider factory.Provider, envVar string, models []string) CheckResult {
	if os.Getenv(envVar) == "" {
		return CheckResult{
			Provider: provider,
			Passed:   false,
			Message:  fmt.Sprintf("%s is not set (required by %s)", envVar, strings.Join(models, ", ")),
			Error:    fmt.Errorf("missing %s", envVar),
		}
	}
	return CheckResult{
		Provider: provider,
		Passed:   true,
		Message:  fmt.Sprintf("%s present", envVar),
	}
}

func checkOllama(ctx context.Context, results *Results, models []string, registry ModelLister) CheckResult {
	if registry == nil {
		return CheckResult{
			Provider: factory.ProviderOllama,
			Passed:   false,
			Message:  "no ollama registry configured",
			Error:    errors.New("nil registry"),
		}
	}

	available, missing, err := registry.ValidateModels(ctx, models)
	if err != nil {
		return CheckResult{
			Provider: factory.ProviderOllama,
			Passed:   false,
			Message:  "ollama server is unreachable",
			Error:    err,
		}
	}

	results.AvailableModels = available
	results.MissingOllamaModels = missing

	if len(missing) > 0 {
		return CheckResult{
			Provider: factory.ProviderOllama,
			Passed:   false,
			Message:  fmt.Sprintf("models not available locally: %s", strings.Join(missing, ", ")),
			Error:    fmt.Errorf("%d missing models", len(missing)),
		}
	}
	return CheckResult{
		Provider: factory.ProviderOllama,
		Passed:   true,
		Message:  fmt.Sprintf("%d local models available", len(available)),
	}
}

// Validate runs the checks and collapses failures into a single error.
func Validate(ctx context.Context, models []string, registry ModelLister) error {
	results := Run(ctx, models, registry)
	if results.Passed {
		return nil
	}

	var failures []string
	for i := range results.Checks {
		if !results.Checks[i].Passed {
			failures = append(failures, fmt.Sprintf("%s: %s", results.Checks[i].Provider, results.Checks[i].Message))
		}
	}
	return errors.New(strings.Join(failures, "\n"))
}

// PullMissing pulls every missing model, reporting progress lines through the
// callback. It stops at the first failure.
func PullMissing(ctx context.Context, registry *ollama.Registry, missing []string, progress func(model, status string)) error {
	for _, model := range missing {
		err := registry.PullModel(ctx, model, func(status string) {
			if progress != nil {
				progress(model, status)
			}
		})
		if err != nil {
			return err
		}
	}
	return nil
}
