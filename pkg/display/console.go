// Package display renders debate progress to a terminal.
package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"conclave/pkg/config"
	"conclave/pkg/debate"
)

const (
	defaultWidth = 80
	maxWidth     = 120
)

// Per-agent label colors, cycled by agent index. The skeptic and the
// synthesizer override the cycle so their turns are visually distinct.
var agentPalette = []lipgloss.Color{
	lipgloss.Color("6"), // cyan
	lipgloss.Color("3"), // yellow
	lipgloss.Color("5"), // magenta
	lipgloss.Color("4"), // blue
	lipgloss.Color("2"), // green
	lipgloss.Color("1"), // red
}

var (
	skepticColor  = lipgloss.Color("1")
	synthColor    = lipgloss.Color("2")
	headerStyle   = lipgloss.NewStyle().Bold(true)
	ruleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	metaStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	answerHeading = lipgloss.NewStyle().Bold(true).Foreground(synthColor)
)

// Console writes styled debate output to a terminal or plain writer.
type Console struct {
	out   io.Writer
	width int

	streaming bool
}

// NewConsole builds a console writing to stdout, sized to the terminal.
func NewConsole() *Console {
	width := defaultWidth
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}
	if width > maxWidth {
		width = maxWidth
	}
	return &Console{out: os.Stdout, width: width}
}

// NewConsoleWriter builds a console writing to w with a fixed width.
func NewConsoleWriter(w io.Writer, width int) *Console {
	if width < 1 {
		width = defaultWidth
	}
	return &Console{out: w, width: width}
}

func (c *Console) rule() string {
	return ruleStyle.Render(strings.Repeat("─", c.width))
}

// RunHeader prints the debate banner for one run.
func (c *Console) RunHeader(cfg config.RunConfig, query string, lang debate.Language) {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, c.rule())
	fmt.Fprintln(c.out, headerStyle.Render(fmt.Sprintf("Debate: %d agents × %d rounds", cfg.Instances, cfg.Rounds)))
	fmt.Fprintln(c.out, metaStyle.Render(fmt.Sprintf("Models: %s", strings.Join(cfg.Models, ", "))))
	if lang != debate.English {
		fmt.Fprintln(c.out, metaStyle.Render(fmt.Sprintf("Language: %s", lang)))
	}
	fmt.Fprintln(c.out, c.rule())
}

// RoundHeader prints a round separator.
func (c *Console) RoundHeader(round, total int) {
	label := fmt.Sprintf(" Round %d/%d ", round, total)
	pad := c.width - len(label)
	if pad < 2 {
		pad = 2
	}
	left := pad / 2
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, ruleStyle.Render(strings.Repeat("─", left))+
		headerStyle.Render(label)+
		ruleStyle.Render(strings.Repeat("─", pad-left)))
}

func (c *Console) turnColor(info debate.TurnInfo) lipgloss.Color {
	switch info.Role {
	case debate.RoleSkeptic:
		return skepticColor
	case debate.RoleSynthesizer:
		return synthColor
	default:
		return agentPalette[info.AgentIndex%len(agentPalette)]
	}
}

// BeginTurn prints the attribution line for the turn about to stream.
func (c *Console) BeginTurn(info debate.TurnInfo) {
	style := lipgloss.NewStyle().Bold(true).Foreground(c.turnColor(info))

	var label string
	switch info.Role {
	case debate.RoleSynthesizer:
		label = fmt.Sprintf("%s (final synthesis)", info.Model)
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, c.rule())
		fmt.Fprintln(c.out, answerHeading.Render("Final Answer"))
	case debate.RoleSkeptic:
		label = fmt.Sprintf("%s (skeptic)", info.Model)
	default:
		label = info.Model
	}

	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "%s\n", style.Render(fmt.Sprintf("[%s - Round %d]:", label, info.Round)))
	c.streaming = false
}

// Fragment writes turn content as it arrives. Diagnostic fragments are
// highlighted; everything else passes through unstyled so partial words
// stream cleanly.
func (c *Console) Fragment(text string) {
	if strings.HasPrefix(strings.TrimSpace(text), "[ERROR]") {
		fmt.Fprint(c.out, errorStyle.Render(text))
	} else {
		fmt.Fprint(c.out, text)
	}
	c.streaming = true
}

// EndTurn terminates the turn's output block.
func (c *Console) EndTurn() {
	if c.streaming {
		fmt.Fprintln(c.out)
	}
}

// Status prints the current settings table shown by the CLI.
func (c *Console) Status(cfg *config.Config) {
	keyStyle := lipgloss.NewStyle().Bold(true)

	row := func(key, value string) {
		fmt.Fprintf(c.out, "  %s %s\n", keyStyle.Render(fmt.Sprintf("%-22s", key)), value)
	}

	fmt.Fprintln(c.out, headerStyle.Render("Current settings"))
	row("instances", fmt.Sprintf("%d", cfg.Instances))
	row("rounds", fmt.Sprintf("%d", cfg.Rounds))
	row("models", strings.Join(cfg.Models, ", "))
	row("context_limit", fmt.Sprintf("%d", cfg.ContextLimit))
	row("context_strategy", string(cfg.ContextStrategy))
	if cfg.SummaryModel != "" {
		row("summary_model", cfg.SummaryModel)
	}
	row("skeptic_agent", fmt.Sprintf("%t", cfg.SkepticAgent))
	row("stream_output", fmt.Sprintf("%t", cfg.StreamOutput))
	row("accurate_token_count", fmt.Sprintf("%t", cfg.AccurateTokenCount))
	row("save_logs", fmt.Sprintf("%t", cfg.SaveLogs))
}

// Info prints a neutral informational line.
func (c *Console) Info(format string, args ...any) {
	fmt.Fprintln(c.out, metaStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error line.
func (c *Console) Error(format string, args ...any) {
	fmt.Fprintln(c.out, errorStyle.Render(fmt.Sprintf(format, args...)))
}
