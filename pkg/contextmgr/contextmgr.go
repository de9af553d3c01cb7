// Package contextmgr builds token-budgeted message sets for model calls.
//
// Composition is two-tier: the naive message set is returned untouched when
// it fits the budget, and only over-budget sets are reduced, either by the
// sliding recency window or by model-generated summarization with a
// truncation fallback. Short conversations are therefore never reworded.
package contextmgr

import (
	"context"
	"fmt"
	"strings"

	"conclave/pkg/config"
	"conclave/pkg/llm"
	"conclave/pkg/logx"
	"conclave/pkg/metrics"
	"conclave/pkg/tokens"
)

const (
	// SafetyMarginTokens is reserved headroom subtracted from the window
	// budget so the estimate error cannot push a request over the backend's
	// real limit.
	SafetyMarginTokens = 64

	// TruncationMarker prefixes a transcript tail kept by the naive fallback.
	TruncationMarker = "…[earlier transcript truncated]…\n"

	summarizerSystemPrompt = "You are a concise summarizer. Compress the following debate " +
		"transcript into a brief summary that preserves every key argument, " +
		"point of agreement, and point of contention. Use bullet points."
)

// Turn is one transcript entry as the composer sees it.
type Turn struct {
	Model   string
	Content string
	Round   int
}

// Summarizer condenses prior conversation via a model call. It is an
// optional capability: a nil Summarizer disables the summary strategy.
type Summarizer interface {
	Summarize(ctx context.Context, messages []llm.CompletionMessage) (string, error)
}

// PrepareRequest carries everything needed to compose one turn's messages.
//
//nolint:govet // fieldalignment: logical grouping preferred
type PrepareRequest struct {
	SystemPrompt string
	UserQuery    string
	Turns        []Turn
	ContextLimit int
	Strategy     config.ContextStrategy
	Summarizer   Summarizer
}

// Manager composes and budgets message sets.
type Manager struct {
	est tokens.Estimator
	rec metrics.Recorder
	log *logx.Logger
}

// NewManager creates a manager with the given estimator. A nil recorder
// disables metrics.
func NewManager(est tokens.Estimator, rec metrics.Recorder) *Manager {
	if est == nil {
		est = tokens.NewHeuristic()
	}
	if rec == nil {
		rec = metrics.Nop()
	}
	return &Manager{
		est: est,
		rec: rec,
		log: logx.NewLogger("contextmgr"),
	}
}

// BuildTranscript renders turns as a human-readable block: each entry gets a
// "[model - Round n]:" header followed by its content, separated by blank lines.
func BuildTranscript(turns []Turn) string {
	lines := make([]string, 0, len(turns))
	for i := range turns {
		t := &turns[i]
		lines = append(lines, fmt.Sprintf("[%s - Round %d]:\n%s\n", t.Model, t.Round, t.Content))
	}
	return strings.Join(lines, "\n")
}

// Prepare builds the message list for one model call, respecting the context
// budget. The result always starts with the system prompt and the query
// framing message.
func (m *Manager) Prepare(ctx context.Context, req PrepareRequest) []llm.CompletionMessage {
	messages := []llm.CompletionMessage{
		llm.NewSystemMessage(req.SystemPrompt),
		llm.NewUserMessage(fmt.Sprintf("User Query: %s", req.UserQuery)),
	}

	if len(req.Turns) > 0 {
		transcript := BuildTranscript(req.Turns)
		messages = append(messages,
			llm.NewUserMessage(fmt.Sprintf("Debate transcript so far:\n\n%s", transcript)))
	}

	total := m.est.EstimateMessages(messages)
	if total <= req.ContextLimit {
		return messages
	}

	m.log.Debug("composed %d tokens over limit %d, applying %s", total, req.ContextLimit, req.Strategy)

	if req.Strategy == config.StrategySummary && req.Summarizer != nil {
		summary := m.summarize(ctx, req.Turns, req.Summarizer, req.ContextLimit/2)
		messages = []llm.CompletionMessage{
			llm.NewSystemMessage(req.SystemPrompt),
			llm.NewUserMessage(fmt.Sprintf("User Query: %s", req.UserQuery)),
			llm.NewUserMessage(fmt.Sprintf("Condensed debate summary:\n\n%s", summary)),
		}
		if m.est.EstimateMessages(messages) <= req.ContextLimit {
			m.rec.IncContextTrim(string(config.StrategySummary))
			return messages
		}
		// Second-line guarantee: window over the summarized set.
	}

	m.rec.IncContextTrim(string(config.StrategySlidingWindow))
	return m.SlidingWindow(messages, req.ContextLimit)
}

// SlidingWindow trims messages to fit the limit. The first two messages
// (system instructions and query framing) are always kept, even when they
// alone exceed the budget; the remainder is filled newest-first, stopping at
// the first message that would overflow. Output order stays chronological.
func (m *Manager) SlidingWindow(messages []llm.CompletionMessage, limit int) []llm.CompletionMessage {
	if len(messages) <= 2 {
		return messages
	}

	reserved := messages[:2]
	rest := messages[2:]

	budget := limit - m.est.EstimateMessages(reserved) - SafetyMarginTokens
	if budget <= 0 {
		return reserved
	}

	var included []llm.CompletionMessage
	for i := len(rest) - 1; i >= 0; i-- {
		cost := m.est.EstimateMessages(rest[i : i+1])
		if budget-cost < 0 {
			break
		}
		included = append([]llm.CompletionMessage{rest[i]}, included...)
		budget -= cost
	}

	result := make([]llm.CompletionMessage, 0, 2+len(included))
	result = append(result, reserved...)
	return append(result, included...)
}

// summarize condenses the transcript through the summarizer, falling back to
// keeping the most recent limit×CharsPerToken characters when the call fails.
func (m *Manager) summarize(ctx context.Context, turns []Turn, s Summarizer, limit int) string {
	full := BuildTranscript(turns)
	prompt := []llm.CompletionMessage{
		llm.NewSystemMessage(summarizerSystemPrompt),
		llm.NewUserMessage(full),
	}

	summary, err := s.Summarize(ctx, prompt)
	if err == nil {
		return summary
	}

	m.log.Warn("summarizer failed, truncating transcript: %v", err)
	m.rec.IncSummaryFallback()

	maxChars := limit * tokens.CharsPerToken
	if len(full) > maxChars {
		return TruncationMarker + full[len(full)-maxChars:]
	}
	return full
}
