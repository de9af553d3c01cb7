package main

import (
	"context"
	"fmt"

	"conclave/pkg/config"
)

// settingsMenu edits the live config in place, saving after each change so a
// crash mid-session loses nothing.
func (a *App) settingsMenu() {
	for {
		fmt.Println()
		fmt.Println("Settings")
		fmt.Println("  [1] Set number of instances")
		fmt.Println("  [2] Set number of rounds")
		fmt.Println("  [3] Assign models to instances")
		fmt.Println("  [4] Set context limit")
		fmt.Println("  [5] Toggle context strategy (sliding_window / summary)")
		fmt.Println("  [6] Toggle stream output")
		fmt.Println("  [7] Toggle save logs")
		fmt.Printf("  [8] Toggle skeptic agent (last agent refutes others) — currently %s\n", onOff(a.cfg.SkepticAgent))
		fmt.Println("  [0] Back")
		fmt.Println()

		choice, ok := a.prompt("Select option")
		if !ok {
			return
		}

		switch choice {
		case "", "0":
			a.console.Status(a.cfg)
			return
		case "1":
			n := a.promptInt("Number of instances (agents)", a.cfg.Instances)
			if n < 1 {
				n = 1
			}
			a.cfg.Instances = n
			a.cfg.EnsureModelsMatchInstances()
		case "2":
			r := a.promptInt("Number of rounds", a.cfg.Rounds)
			if r < 1 {
				r = 1
			}
			a.cfg.Rounds = r
		case "3":
			a.assignModels()
		case "4":
			lim := a.promptInt("Context token limit", a.cfg.ContextLimit)
			if lim < 512 {
				lim = 512
			}
			a.cfg.ContextLimit = lim
		case "5":
			if a.cfg.ContextStrategy == config.StrategySlidingWindow {
				a.cfg.ContextStrategy = config.StrategySummary
			} else {
				a.cfg.ContextStrategy = config.StrategySlidingWindow
			}
			a.console.Info("Strategy changed to: %s", a.cfg.ContextStrategy)
		case "6":
			a.cfg.StreamOutput = !a.cfg.StreamOutput
			a.console.Info("Stream output: %t", a.cfg.StreamOutput)
		case "7":
			a.cfg.SaveLogs = !a.cfg.SaveLogs
			a.console.Info("Save logs: %t", a.cfg.SaveLogs)
		case "8":
			a.cfg.SkepticAgent = !a.cfg.SkepticAgent
			a.console.Info("Skeptic agent: %s", onOff(a.cfg.SkepticAgent))
			if a.cfg.SkepticAgent && a.cfg.Instances < 2 {
				a.console.Info("Note: needs at least 2 agents to have a skeptic.")
			}
		default:
			a.console.Error("unknown option: %s", choice)
			continue
		}

		if err := a.cfg.Save(); err != nil {
			a.log.Warn("config not saved: %v", err)
		}
	}
}

// assignModels lets the user pick a local model for each agent slot.
func (a *App) assignModels() {
	local, err := a.registry.ListLocalModels(context.Background())
	if err != nil || len(local) == 0 {
		a.console.Error("No models found in Ollama. Pull some first.")
		return
	}

	for i := 0; i < a.cfg.Instances; i++ {
		current := "—"
		if i < len(a.cfg.Models) {
			current = a.cfg.Models[i]
		}
		fmt.Printf("\n  Agent %d (current: %s)\n", i+1, current)
		picked, ok := a.pickModel(local, fmt.Sprintf("  Agent %d model", i+1))
		if !ok {
			continue
		}
		a.cfg.SetModelAt(i, picked)
		a.console.Info("Agent %d → %s", i+1, picked)
	}
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}
