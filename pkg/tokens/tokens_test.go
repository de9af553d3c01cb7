package tokens

import (
	"strings"
	"testing"

	"conclave/pkg/llm"
)

func TestHeuristicEstimateText(t *testing.T) {
	est := NewHeuristic()

	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty floors to one", "", 1},
		{"one char rounds up", "a", 1},
		{"exact multiple", "abcd", 1},
		{"five chars", "abcde", 2},
		{"eighty chars", strings.Repeat("x", 80), 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := est.EstimateText(tt.text); got != tt.want {
				t.Errorf("EstimateText(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestHeuristicEstimateMessages(t *testing.T) {
	est := NewHeuristic()

	msgs := []llm.CompletionMessage{
		llm.NewSystemMessage(strings.Repeat("s", 40)), // 10 + 4
		llm.NewUserMessage(strings.Repeat("u", 20)),   // 5 + 4
	}

	if got := est.EstimateMessages(msgs); got != 23 {
		t.Errorf("EstimateMessages = %d, want 23", got)
	}

	if got := est.EstimateMessages(nil); got != 0 {
		t.Errorf("EstimateMessages(nil) = %d, want 0", got)
	}
}

func TestTiktokenEstimator(t *testing.T) {
	est, err := NewTiktoken()
	if err != nil {
		t.Fatalf("NewTiktoken failed: %v", err)
	}

	if got := est.EstimateText("hello world"); got <= 0 {
		t.Errorf("Expected positive token count, got %d", got)
	}

	// Message overhead must still apply on top of codec counts.
	msg := []llm.CompletionMessage{llm.NewUserMessage("hello")}
	if got := est.EstimateMessages(msg); got < MessageOverhead {
		t.Errorf("Expected at least overhead %d, got %d", MessageOverhead, got)
	}
}
