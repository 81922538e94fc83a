package common

import (
	"fmt"
	"time"
)

// ErrorKind is the closed set of semantic error categories a pipeline stage
// can raise. InputInvalid and Cancelled abort a run; every other kind is
// recovered at the stage boundary and recorded on AgentState.
type ErrorKind string

const (
	// ErrorInputInvalid marks an unrecoverable problem with the input
	// document itself (missing path, oversized file, undecodable PDF).
	ErrorInputInvalid ErrorKind = "input_invalid"
	// ErrorBackendFailure marks a parser backend that threw; the
	// blockification merge simply skips that backend.
	ErrorBackendFailure ErrorKind = "backend_failure"
	// ErrorExtractionEmpty marks a stage that produced zero outputs.
	ErrorExtractionEmpty ErrorKind = "extraction_empty"
	// ErrorRuleViolation marks a deterministic validation rule failure.
	ErrorRuleViolation ErrorKind = "rule_violation"
	// ErrorAdjudicationFailure marks an LLM call error or unparseable response.
	ErrorAdjudicationFailure ErrorKind = "adjudication_failure"
	// ErrorNumericError marks a numeric fault (division by zero, bad range).
	ErrorNumericError ErrorKind = "numeric_error"
	// ErrorConfigInvalid marks an unknown scale/currency or malformed rate.
	ErrorConfigInvalid ErrorKind = "config_invalid"
	// ErrorCancelled marks a run stopped by caller cancellation.
	ErrorCancelled ErrorKind = "cancelled"
)

// StageError is the structured record appended to AgentState.Errors
// whenever a stage recovers from a fault instead of aborting the run.
type StageError struct {
	Stage     string    `json:"stage"`
	Kind      ErrorKind `json:"kind"`
	Message   string    `json:"message"`
	Err       error     `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

func (e StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s[%s]: %s: %v", e.Stage, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s[%s]: %s", e.Stage, e.Kind, e.Message)
}

// NewStageError builds a StageError stamped with the current time.
func NewStageError(stage string, kind ErrorKind, message string, err error) StageError {
	return StageError{
		Stage:     stage,
		Kind:      kind,
		Message:   message,
		Err:       err,
		Timestamp: time.Now(),
	}
}
