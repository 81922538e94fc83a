package pipeline

import (
	"time"

	"github.com/finxtract/finxtract/internal/model"
)

// Summary is the run-level report handed back to the CLI once a document
// finishes the pipeline: totals plus per-stage timings, supplementing
// the raw AgentState with the aggregate counts an operator actually
// wants to see at a glance.
type Summary struct {
	RunID               string
	DocumentID          string
	FinalState          model.RunState
	TotalCandidates     int
	AdjudicatedCount    int
	ValidatedMetrics    int
	DerivedMetrics      int
	ErrorCount          int
	ExportPaths         []string
	TotalDuration       time.Duration
	StageDurations      map[string]time.Duration
}

// Summarize reduces an AgentState into its Summary. Safe to call at any
// point in a run, not only after RunDone, so a caller can inspect
// progress on a run that aborted partway through.
func Summarize(state *model.AgentState) Summary {
	stageDurations := make(map[string]time.Duration, len(state.Timings))
	var total time.Duration
	for _, t := range state.Timings {
		stageDurations[t.Stage] = t.Duration
		total += t.Duration
	}

	adjudicated := 0
	for _, m := range state.ValidatedMetrics {
		if m.LLMReasoning != "" {
			adjudicated++
		}
	}

	return Summary{
		RunID:            state.RunID,
		DocumentID:       state.Document.DocumentID,
		FinalState:       state.State,
		TotalCandidates:  len(state.Candidates),
		AdjudicatedCount: adjudicated,
		ValidatedMetrics: len(state.ValidatedMetrics),
		DerivedMetrics:   len(state.DerivedMetrics),
		ErrorCount:       len(state.Errors),
		ExportPaths:      state.ExportPaths,
		TotalDuration:    total,
		StageDurations:   stageDurations,
	}
}
