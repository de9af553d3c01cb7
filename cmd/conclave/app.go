package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"conclave/pkg/config"
	"conclave/pkg/debate"
	"conclave/pkg/display"
	"conclave/pkg/llm/factory"
	"conclave/pkg/llm/ollama"
	"conclave/pkg/logx"
	"conclave/pkg/metrics"
	"conclave/pkg/persistence"
	"conclave/pkg/preflight"
)

const banner = `
  ██████╗ ██████╗ ███╗   ██╗ ██████╗██╗      █████╗ ██╗   ██╗███████╗
 ██╔════╝██╔═══██╗████╗  ██║██╔════╝██║     ██╔══██╗██║   ██║██╔════╝
 ██║     ██║   ██║██╔██╗ ██║██║     ██║     ███████║██║   ██║█████╗
 ██║     ██║   ██║██║╚██╗██║██║     ██║     ██╔══██║╚██╗ ██╔╝██╔══╝
 ╚██████╗╚██████╔╝██║ ╚████║╚██████╗███████╗██║  ██║ ╚████╔╝ ███████╗
  ╚═════╝ ╚═════╝ ╚═╝  ╚═══╝ ╚═════╝╚══════╝╚═╝  ╚═╝  ╚═══╝  ╚══════╝
`

// App wires the CLI surface: configuration editing, model resolution, and
// debate execution.
type App struct {
	cfg      *config.Config
	console  *display.Console
	registry *ollama.Registry
	clients  *factory.Factory
	store    *persistence.Store
	rec      metrics.Recorder
	log      *logx.Logger

	stdin *bufio.Scanner
}

func (a *App) scanner() *bufio.Scanner {
	if a.stdin == nil {
		a.stdin = bufio.NewScanner(os.Stdin)
		a.stdin.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	}
	return a.stdin
}

// prompt reads one trimmed line, returning false on EOF.
func (a *App) prompt(label string) (string, bool) {
	fmt.Printf("%s: ", label)
	sc := a.scanner()
	if !sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(sc.Text()), true
}

func (a *App) promptInt(label string, current int) int {
	text, ok := a.prompt(fmt.Sprintf("%s [%d]", label, current))
	if !ok || text == "" {
		return current
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		a.console.Error("not a number: %s", text)
		return current
	}
	return n
}

// mainLoop runs the interactive session until /quit or EOF.
func (a *App) mainLoop(ctx context.Context, noPreflight bool) int {
	fmt.Print(banner)
	fmt.Printf("  conclave %s\n\n", version)
	a.console.Status(a.cfg)
	fmt.Println()

	if !noPreflight && !a.resolveModels(ctx) {
		a.console.Error("Cannot start debate until model issues are resolved.")
		a.console.Info("Pull the required models with 'ollama pull <model>' and run again.")
		return 1
	}

	a.cfg.EnsureModelsMatchInstances()
	a.console.Info("System ready.")

	for {
		fmt.Println()
		a.console.Info("Type a query to start a debate, /settings to configure, /quit to exit.")
		input, ok := a.prompt("Enter your query")
		if !ok {
			return 0
		}
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "/quit", "/exit", "/q":
			a.console.Info("Goodbye.")
			return 0
		case "/settings", "/config", "/s":
			a.settingsMenu()
			if !a.resolveModels(ctx) {
				continue
			}
			a.cfg.EnsureModelsMatchInstances()
			continue
		case "/history", "/h":
			a.showHistory(ctx)
			continue
		}

		if _, err := a.runDebate(ctx, input); err != nil {
			a.console.Error("%v", err)
		}
		if ctx.Err() != nil {
			return 0
		}
	}
}

// runDebate snapshots the config, runs one full debate, and persists the
// outcome.
func (a *App) runDebate(ctx context.Context, query string) (string, error) {
	a.cfg.EnsureModelsMatchInstances()
	snap := a.cfg.Snapshot()

	engine, err := debate.NewEngine(snap, a.clients, a.console, a.rec)
	if err != nil {
		return "", err
	}

	answer := engine.Run(ctx, query)

	if a.cfg.SaveLogs && a.cfg.LogDirectory != "" {
		path, err := persistence.WriteSessionLog(a.cfg.LogDirectory, snap, engine.Session(), answer)
		if err != nil {
			a.log.Warn("session log not written: %v", err)
		} else {
			a.console.Info("Session log: %s", path)
		}
	}

	if a.store != nil {
		runID, err := a.store.SaveRun(ctx, snap, engine.Session(), answer)
		if err != nil {
			a.log.Warn("history not saved: %v", err)
		} else {
			a.log.Debug("history saved as run %s", runID)
		}
	}

	return answer, nil
}

// resolveModels checks every configured local model and offers to pull or
// replace the missing ones. Cloud key failures are not fixable interactively.
func (a *App) resolveModels(ctx context.Context) bool {
	models := a.cfg.Models[:min(len(a.cfg.Models), a.cfg.Instances)]

	results := preflight.Run(ctx, models, a.registry)
	if results.Passed {
		a.console.Info("All models available.")
		return true
	}

	for i := range results.Checks {
		check := &results.Checks[i]
		if !check.Passed && check.Provider != factory.ProviderOllama {
			a.console.Error("%s: %s", check.Provider, check.Message)
			return false
		}
	}

	if len(results.MissingOllamaModels) == 0 {
		// Ollama check failed for a non-model reason (server unreachable).
		for i := range results.Checks {
			if !results.Checks[i].Passed {
				a.console.Error("%s", results.Checks[i].Message)
			}
		}
		return false
	}

	a.console.Error("Missing models: %s", strings.Join(results.MissingOllamaModels, ", "))

	local, err := a.registry.ListLocalModels(ctx)
	if err == nil && len(local) > 0 {
		a.console.Info("Locally available models:")
		for _, m := range local {
			fmt.Printf("  • %s\n", m)
		}
	}

	for _, model := range results.MissingOllamaModels {
		choice, ok := a.prompt(fmt.Sprintf("Model %s not found. [P]ull / [R]eplace / [S]kip", model))
		if !ok {
			return false
		}
		switch strings.ToLower(choice) {
		case "", "p":
			err := preflight.PullMissing(ctx, a.registry, []string{model}, func(_, status string) {
				fmt.Printf("\r  %s", status)
			})
			fmt.Println()
			if err != nil {
				a.console.Error("Could not pull %s: %v", model, err)
				return false
			}
		case "r":
			if len(local) == 0 {
				a.console.Error("No local models available to replace with.")
				return false
			}
			replacement, ok := a.pickModel(local, fmt.Sprintf("Replace %s with", model))
			if !ok {
				return false
			}
			for i, m := range a.cfg.Models {
				if m == model {
					a.cfg.SetModelAt(i, replacement)
				}
			}
			a.console.Info("Replaced %s → %s", model, replacement)
		default:
			a.console.Info("Skipping %s.", model)
			return false
		}
	}

	if err := a.cfg.Save(); err != nil {
		a.log.Warn("config not saved: %v", err)
	}
	return true
}

// pickModel shows a numbered list and returns the selected model.
func (a *App) pickModel(models []string, label string) (string, bool) {
	fmt.Println()
	for i, name := range models {
		fmt.Printf("  %3d) %s\n", i+1, name)
	}
	fmt.Println()

	text, ok := a.prompt(label)
	if !ok {
		return "", false
	}
	n, err := strconv.Atoi(text)
	if err != nil || n < 1 || n > len(models) {
		a.console.Error("invalid selection: %s", text)
		return "", false
	}
	return models[n-1], true
}

// showHistory lists recent stored runs.
func (a *App) showHistory(ctx context.Context) {
	if a.store == nil {
		a.console.Info("History is disabled.")
		return
	}
	runs, err := a.store.RecentRuns(ctx, 10)
	if err != nil {
		a.console.Error("cannot load history: %v", err)
		return
	}
	if len(runs) == 0 {
		a.console.Info("No stored debates yet.")
		return
	}
	for i := range runs {
		r := &runs[i]
		query := r.Query
		if len(query) > 60 {
			query = query[:57] + "..."
		}
		fmt.Printf("  %s  %s  (%d×%d)  %s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04"), r.ID[:8], r.Instances, r.Rounds, query)
	}
}
