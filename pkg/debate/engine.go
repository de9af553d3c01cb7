// Package debate orchestrates multi-round, multi-agent debates over an LLM
// backend and synthesizes a single final answer.
package debate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"conclave/pkg/config"
	"conclave/pkg/contextmgr"
	"conclave/pkg/llm"
	"conclave/pkg/logx"
	"conclave/pkg/metrics"
	"conclave/pkg/tokens"
)

// ClientProvider resolves model names to clients. The factory package
// implements it; tests substitute fakes.
type ClientProvider interface {
	ClientFor(model string) (llm.Client, error)
}

// TurnInfo identifies one turn for the display surface.
type TurnInfo struct {
	Model      string
	Role       Role
	AgentIndex int
	Round      int
	TotalRound int
}

// Display receives per-turn attribution and content. Streaming output
// arrives as incremental fragments; sync output as a single fragment.
type Display interface {
	RunHeader(cfg config.RunConfig, query string, lang Language)
	RoundHeader(round, total int)
	BeginTurn(info TurnInfo)
	Fragment(text string)
	EndTurn()
}

// NopDisplay discards all display output.
type NopDisplay struct{}

func (NopDisplay) RunHeader(config.RunConfig, string, Language) {}
func (NopDisplay) RoundHeader(int, int)                         {}
func (NopDisplay) BeginTurn(TurnInfo)                           {}
func (NopDisplay) Fragment(string)                              {}
func (NopDisplay) EndTurn()                                     {}

// Engine runs full debate sessions. It is single-use per Run invocation but
// reusable across runs; the session resets at the start of each run.
type Engine struct {
	cfg      config.RunConfig
	clients  ClientProvider
	composer *contextmgr.Manager
	display  Display
	rec      metrics.Recorder
	log      *logx.Logger
	session  Session
}

// NewEngine validates the run configuration and builds an engine.
// A model list whose length differs from the instance count is a
// construction error, not undefined indexing later.
func NewEngine(cfg config.RunConfig, clients ClientProvider, display Display, rec metrics.Recorder) (*Engine, error) {
	if clients == nil {
		return nil, fmt.Errorf("client provider is required")
	}
	if cfg.Instances < 1 {
		return nil, fmt.Errorf("instance count must be at least 1, got %d", cfg.Instances)
	}
	if cfg.Rounds < 1 {
		return nil, fmt.Errorf("round count must be at least 1, got %d", cfg.Rounds)
	}
	if cfg.ContextLimit < 1 {
		return nil, fmt.Errorf("context limit must be at least 1, got %d", cfg.ContextLimit)
	}
	if len(cfg.Models) != cfg.Instances {
		return nil, fmt.Errorf("model list length %d does not match instance count %d",
			len(cfg.Models), cfg.Instances)
	}
	if display == nil {
		display = NopDisplay{}
	}
	if rec == nil {
		rec = metrics.Nop()
	}

	var est tokens.Estimator = tokens.NewHeuristic()
	if cfg.AccurateTokenCount {
		if tk, err := tokens.NewTiktoken(); err == nil {
			est = tk
		}
	}

	return &Engine{
		cfg:      cfg,
		clients:  clients,
		composer: contextmgr.NewManager(est, rec),
		display:  display,
		rec:      rec,
		log:      logx.NewLogger("debate"),
	}, nil
}

// Session exposes the finished session for persistence collaborators.
func (e *Engine) Session() *Session {
	return &e.session
}

// Run executes the full debate and returns the final synthesized answer.
// Individual model failures are folded into the transcript as diagnostic
// text; once underway a run always completes.
func (e *Engine) Run(ctx context.Context, query string) string {
	e.session.Reset(query)

	lang := DetectLanguage(query)
	directive := LanguageDirective(lang)
	skepticOn := e.cfg.SkepticEnabled && e.cfg.Instances > 1
	summarizer := e.makeSummarizer()

	e.log.Info("debate start: %d agents, %d rounds, language=%s, strategy=%s",
		e.cfg.Instances, e.cfg.Rounds, lang, e.cfg.ContextStrategy)
	e.display.RunHeader(e.cfg, query, lang)

	// Debate rounds: every agent speaks in every round, in ascending index
	// order, each seeing everything appended before its own turn.
	for round := 1; round <= e.cfg.Rounds; round++ {
		e.display.RoundHeader(round, e.cfg.Rounds)
		firstRound := round == 1

		for idx := 0; idx < e.cfg.Instances; idx++ {
			role := RoleFor(idx, e.cfg.Instances, skepticOn)
			prompt := e.cfg.Prompt(PromptKey(role, firstRound)) + directive

			messages := e.composer.Prepare(ctx, contextmgr.PrepareRequest{
				SystemPrompt: prompt,
				UserQuery:    query,
				Turns:        e.session.Turns(),
				ContextLimit: e.cfg.ContextLimit,
				Strategy:     e.cfg.ContextStrategy,
				Summarizer:   summarizer,
			})

			info := TurnInfo{
				Model:      e.cfg.Models[idx],
				Role:       role,
				AgentIndex: idx,
				Round:      round,
				TotalRound: e.cfg.Rounds,
			}
			content, failed := e.generate(ctx, info, messages)
			e.session.Append(Entry{
				Model:   info.Model,
				Round:   round,
				Content: content,
				Failed:  failed,
			})
		}
	}

	// Final synthesis: one extra turn by the first configured agent over the
	// entire transcript.
	synthRound := e.cfg.Rounds + 1
	prompt := e.cfg.Prompt(config.PromptFinalSynthesis) + directive
	messages := e.composer.Prepare(ctx, contextmgr.PrepareRequest{
		SystemPrompt: prompt,
		UserQuery:    query,
		Turns:        e.session.Turns(),
		ContextLimit: e.cfg.ContextLimit,
		Strategy:     e.cfg.ContextStrategy,
		Summarizer:   summarizer,
	})

	info := TurnInfo{
		Model:      e.cfg.Models[0],
		Role:       RoleSynthesizer,
		AgentIndex: 0,
		Round:      synthRound,
		TotalRound: e.cfg.Rounds,
	}
	content, failed := e.generate(ctx, info, messages)
	e.session.Append(Entry{
		Model:   info.Model,
		Round:   synthRound,
		Content: content,
		Failed:  failed,
	})

	e.log.Info("debate complete: %d transcript entries", len(e.session.Transcript))
	return content
}

// generate executes a single model turn, streaming or sync, and folds any
// provider failure into literal diagnostic text.
func (e *Engine) generate(ctx context.Context, info TurnInfo, messages []llm.CompletionMessage) (content string, failed bool) {
	e.display.BeginTurn(info)
	defer e.display.EndTurn()

	start := time.Now()
	defer func() {
		e.rec.ObserveTurn(info.Model, string(info.Role), info.Round, failed, time.Since(start))
	}()

	client, err := e.clients.ClientFor(info.Model)
	if err != nil {
		text := llm.Diagnostic(info.Model, err)
		e.display.Fragment(text)
		return text, true
	}

	req := llm.CompletionRequest{
		Messages: messages,
		NumCtx:   e.cfg.ContextLimit,
	}

	if e.cfg.StreamOutput {
		return e.consumeStream(ctx, client, info.Model, req)
	}

	resp, err := client.Complete(ctx, req)
	if err != nil {
		text := llm.Diagnostic(info.Model, err)
		e.display.Fragment(text)
		return text, true
	}
	e.display.Fragment(resp.Content)
	return resp.Content, false
}

// consumeStream drains a fragment stream to completion, accumulating content
// and forwarding each fragment to the display. Orchestration never acts on a
// partial fragment beyond accumulating it.
func (e *Engine) consumeStream(ctx context.Context, client llm.Client, model string, req llm.CompletionRequest) (string, bool) {
	stream, err := client.Stream(ctx, req)
	if err != nil {
		text := llm.Diagnostic(model, err)
		e.display.Fragment(text)
		return text, true
	}

	var collected strings.Builder
	failed := false
	for chunk := range stream {
		if chunk.Error != nil {
			text := "\n" + llm.Diagnostic(model, chunk.Error) + "\n"
			collected.WriteString(text)
			e.display.Fragment(text)
			failed = true
			continue
		}
		if chunk.Content != "" {
			collected.WriteString(chunk.Content)
			e.display.Fragment(chunk.Content)
		}
	}
	return collected.String(), failed
}

// makeSummarizer builds the optional summarization capability. Absent when
// the strategy does not call for it or the summary model cannot be resolved.
func (e *Engine) makeSummarizer() contextmgr.Summarizer {
	if e.cfg.ContextStrategy != config.StrategySummary {
		return nil
	}
	model := e.cfg.SummaryModel
	if model == "" {
		model = e.cfg.Models[0]
	}
	client, err := e.clients.ClientFor(model)
	if err != nil {
		e.log.Warn("summary model %s unavailable, window strategy will apply: %v", model, err)
		return nil
	}
	return &modelSummarizer{client: client, numCtx: e.cfg.ContextLimit}
}

// modelSummarizer adapts an llm.Client to the composer's Summarizer capability.
type modelSummarizer struct {
	client llm.Client
	numCtx int
}

func (s *modelSummarizer) Summarize(ctx context.Context, messages []llm.CompletionMessage) (string, error) {
	resp, err := s.client.Complete(ctx, llm.CompletionRequest{
		Messages: messages,
		NumCtx:   s.numCtx,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
