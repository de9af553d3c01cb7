// Package metrics provides metrics recording for debate orchestration.
package metrics

import "time"

// Recorder defines the interface for recording debate metrics.
type Recorder interface {
	// ObserveTurn records a completed model turn.
	ObserveTurn(model, role string, round int, failed bool, duration time.Duration)

	// IncSummaryFallback counts a summarizer failure that degraded to
	// naive truncation.
	IncSummaryFallback()

	// IncContextTrim counts a composed message set that exceeded budget
	// and was reduced by the named strategy.
	IncContextTrim(strategy string)
}

// NoopRecorder implements Recorder with no-op behavior for when metrics are disabled.
type NoopRecorder struct{}

// Nop returns a no-op metrics recorder that discards all metrics.
func Nop() Recorder {
	return &NoopRecorder{}
}

// ObserveTurn does nothing in the no-op recorder.
func (n *NoopRecorder) ObserveTurn(_, _ string, _ int, _ bool, _ time.Duration) {}

// IncSummaryFallback does nothing in the no-op recorder.
func (n *NoopRecorder) IncSummaryFallback() {}

// IncContextTrim does nothing in the no-op recorder.
func (n *NoopRecorder) IncContextTrim(_ string) {}
