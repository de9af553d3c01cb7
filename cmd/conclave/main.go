// Command conclave runs multi-model debates against local and cloud LLMs.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"conclave/pkg/config"
	"conclave/pkg/display"
	"conclave/pkg/llm/factory"
	"conclave/pkg/llm/ollama"
	"conclave/pkg/logx"
	"conclave/pkg/metrics"
	"conclave/pkg/persistence"
)

// Version information - set by goreleaser via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", config.DefaultPath(), "Path to config file")
		query       = flag.String("query", "", "Run a single debate for this query and exit")
		metricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
		noPreflight = flag.Bool("no-preflight", false, "Skip model availability checks")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("conclave %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
		os.Exit(0)
	}

	os.Exit(run(*configPath, *query, *metricsAddr, *noPreflight))
}

// run contains the main application logic and returns an exit code. This
// allows defers to execute before os.Exit is called.
func run(configPath, query, metricsAddr string, noPreflight bool) int {
	log := logx.NewLogger("main")
	console := display.NewConsole()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	promptsPath := filepath.Join(filepath.Dir(configPath), config.PromptsFileName)
	if err := cfg.ApplyPromptOverrides(promptsPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to apply prompt overrides: %v\n", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var rec metrics.Recorder = metrics.Nop()
	if metricsAddr != "" {
		rec = metrics.NewPrometheusRecorder()
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				log.Error("metrics server failed: %v", err)
			}
		}()
		log.Info("serving metrics on %s/metrics", metricsAddr)
	}

	var store *persistence.Store
	if cfg.HistoryDB != "" {
		if dir := filepath.Dir(cfg.HistoryDB); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				log.Warn("cannot create history directory: %v", err)
			}
		}
		store, err = persistence.Open(cfg.HistoryDB)
		if err != nil {
			log.Warn("history disabled: %v", err)
			store = nil
		} else {
			defer func() { _ = store.Close() }()
		}
	}

	app := &App{
		cfg:      cfg,
		console:  console,
		registry: ollama.NewRegistry(cfg.OllamaHost),
		clients:  factory.New(cfg.OllamaHost),
		store:    store,
		rec:      rec,
		log:      log,
	}

	if query != "" {
		if !noPreflight && !app.resolveModels(ctx) {
			return 1
		}
		if _, err := app.runDebate(ctx, query); err != nil {
			console.Error("%v", err)
			return 1
		}
		return 0
	}

	return app.mainLoop(ctx, noPreflight)
}
