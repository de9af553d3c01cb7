// Package tokens provides token estimation for context budgeting.
package tokens

import (
	"github.com/tiktoken-go/tokenizer"

	"conclave/pkg/llm"
)

const (
	// CharsPerToken is the character-to-token ratio used by the heuristic
	// estimator. Conservative enough for English prose.
	CharsPerToken = 4

	// MessageOverhead is the per-message token cost of the role tag.
	MessageOverhead = 4
)

// Estimator reports the approximate token cost of text and messages.
// Estimates are a soft ceiling, never a guarantee of backend acceptance.
type Estimator interface {
	EstimateText(text string) int
	EstimateMessages(messages []llm.CompletionMessage) int
}

// Heuristic estimates tokens from character counts alone.
type Heuristic struct{}

// NewHeuristic returns the default character-ratio estimator.
func NewHeuristic() Heuristic {
	return Heuristic{}
}

// EstimateText returns ceil(len/CharsPerToken), with a floor of one token.
func (Heuristic) EstimateText(text string) int {
	n := (len(text) + CharsPerToken - 1) / CharsPerToken
	if n < 1 {
		return 1
	}
	return n
}

// EstimateMessages sums per-message text cost plus role overhead.
func (h Heuristic) EstimateMessages(messages []llm.CompletionMessage) int {
	total := 0
	for i := range messages {
		total += MessageOverhead + h.EstimateText(messages[i].Content)
	}
	return total
}

// Tiktoken estimates tokens with a real BPE codec. All supported backends
// approximate well enough with the GPT-4 encoding.
type Tiktoken struct {
	codec    tokenizer.Codec
	fallback Heuristic
}

// NewTiktoken creates a tiktoken-backed estimator.
func NewTiktoken() (*Tiktoken, error) {
	codec, err := tokenizer.ForModel(tokenizer.GPT4)
	if err != nil {
		return nil, err
	}
	return &Tiktoken{codec: codec}, nil
}

// EstimateText counts tokens with the codec, falling back to the heuristic on error.
func (t *Tiktoken) EstimateText(text string) int {
	count, err := t.codec.Count(text)
	if err != nil {
		return t.fallback.EstimateText(text)
	}
	return count
}

// EstimateMessages sums per-message text cost plus role overhead.
func (t *Tiktoken) EstimateMessages(messages []llm.CompletionMessage) int {
	total := 0
	for i := range messages {
		total += MessageOverhead + t.EstimateText(messages[i].Content)
	}
	return total
}
