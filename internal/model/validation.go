package model

// ValidationStatus is the closed sum type a candidate's aggregated rule
// outcome collapses to.
type ValidationStatus string

const (
	StatusValid       ValidationStatus = "valid"
	StatusNeedsReview ValidationStatus = "needs_review"
	StatusInvalid     ValidationStatus = "invalid"
)

// Severity classifies how serious a single rule's finding is.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

// ValidationResult is one rule's finding against one candidate.
type ValidationResult struct {
	CandidateID string
	RuleName    string
	Status      ValidationStatus
	Severity    Severity
	Message     string
	Details     map[string]string
}

// AggregateStatus collapses a candidate's rule findings: zero issues is
// valid, exactly one is needs_review, two or more is invalid. "Issues" here
// means results whose Status is not StatusValid.
func AggregateStatus(results []ValidationResult) ValidationStatus {
	issues := 0
	for _, r := range results {
		if r.Status != StatusValid {
			issues++
		}
	}
	switch {
	case issues == 0:
		return StatusValid
	case issues == 1:
		return StatusNeedsReview
	default:
		return StatusInvalid
	}
}

// NeedsAdjudication reports whether a candidate's aggregated status
// requires routing through the LLM adjudicator.
func NeedsAdjudication(status ValidationStatus) bool {
	return status == StatusNeedsReview || status == StatusInvalid
}
