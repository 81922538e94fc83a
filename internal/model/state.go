package model

import (
	"time"

	"github.com/finxtract/finxtract/internal/common"
)

// RunState is the run-level state machine: linear except for one
// conditional branch after Validated.
type RunState string

const (
	RunIngested            RunState = "ingested"
	RunBlockified          RunState = "blockified"
	RunLocated             RunState = "located"
	RunCandidatesGenerated RunState = "candidates_generated"
	RunValidated           RunState = "validated"
	RunAdjudicated         RunState = "adjudicated"
	RunSkippedAdjudication RunState = "skipped"
	RunDerived             RunState = "derived"
	RunDone                RunState = "done"
)

// StageTiming records how long a single stage took.
type StageTiming struct {
	Stage    string
	Duration time.Duration
}

// AgentState is the single-owner record accreting each stage's output. A
// run allocates exactly one AgentState; every stage mutates only its own
// output slot plus the shared Errors/Timings slots. No shared mutable
// pointers cross concurrent stages: the only
// concurrency is within a stage's own fan-out, which always merges back
// into this state serially.
type AgentState struct {
	RunID    string
	Document DocumentMetadata
	State    RunState

	TextBlocks  []TextBlock
	TableBlocks []TableBlock

	Sections []Section

	Candidates []CandidateValue

	ValidationResults map[string][]ValidationResult // keyed by CandidateID

	ValidatedMetrics []FinancialMetric // post-adjudication/passthrough
	DerivedMetrics   []FinancialMetric

	// Commentary is the optional section-key -> narrative-text map an
	// external writer may accept alongside a FinancialMetric set. The
	// pipeline never populates this itself —
	// generating narrative commentary is an external-writer concern, not
	// an extraction/validation one (see DESIGN.md) — but callers that
	// already have commentary text (from whatever source) can attach it
	// here so it travels with the run's output.
	Commentary map[string]string

	// ExportPaths collects the file paths external writers report back
	// after consuming the run's metric set; empty until a writer runs.
	ExportPaths []string

	Errors  []common.StageError
	Timings []StageTiming
}

// NewAgentState allocates a fresh state for one run.
func NewAgentState(runID string, doc DocumentMetadata) *AgentState {
	return &AgentState{
		RunID:             runID,
		Document:          doc,
		State:             RunIngested,
		ValidationResults: make(map[string][]ValidationResult),
	}
}

// RecordError appends a stage error without aborting the run.
func (s *AgentState) RecordError(err common.StageError) {
	s.Errors = append(s.Errors, err)
}

// RecordTiming appends a stage's elapsed duration.
func (s *AgentState) RecordTiming(stage string, d time.Duration) {
	s.Timings = append(s.Timings, StageTiming{Stage: stage, Duration: d})
}

// HasConflicts reports whether any candidate's aggregated validation
// status requires adjudication. It covers rule-status conflicts only;
// the pipeline's branch predicate additionally checks for bare value
// disagreements between same metric/period candidates, which this type
// cannot see (that check lives with the normalization layer).
func (s *AgentState) HasConflicts() bool {
	for _, c := range s.Candidates {
		if NeedsAdjudication(AggregateStatus(s.ValidationResults[c.CandidateID])) {
			return true
		}
	}
	return false
}

// CandidatesNeedingAdjudication returns the ids of every candidate whose
// aggregated status is needs_review or invalid.
func (s *AgentState) CandidatesNeedingAdjudication() []string {
	var ids []string
	for _, c := range s.Candidates {
		if NeedsAdjudication(AggregateStatus(s.ValidationResults[c.CandidateID])) {
			ids = append(ids, c.CandidateID)
		}
	}
	return ids
}
