package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CandidateSource is the closed sum type for where a candidate's value
// was read from.
type CandidateSource string

const (
	SourceTableCell CandidateSource = "table_cell"
	SourceTextBlock CandidateSource = "text_block"
)

// Evidence is the provenance trail for a candidate: everything needed to
// trace a value back to its exact origin in the source document.
type Evidence struct {
	TableID     string
	RowIndex    int
	ColumnIndex int
	RawLabel    string
	RawValue    string
	Page        int
	PeriodLabel string
	SectionID   string
	BlockID     string
}

// NonNullFieldCount counts populated evidence fields, which feed the
// capped evidence bonus in candidate scoring.
func (e Evidence) NonNullFieldCount() int {
	n := 0
	if e.TableID != "" {
		n++
	}
	if e.RowIndex != 0 {
		n++
	}
	if e.ColumnIndex != 0 {
		n++
	}
	if e.RawLabel != "" {
		n++
	}
	if e.RawValue != "" {
		n++
	}
	if e.Page != 0 {
		n++
	}
	if e.PeriodLabel != "" {
		n++
	}
	if e.SectionID != "" {
		n++
	}
	if e.BlockID != "" {
		n++
	}
	return n
}

// CandidateValue is a tentative metric value with full provenance, not yet
// validated or adjudicated. Value is an exact decimal; binary floating
// point is reserved for confidence scores and weights only.
type CandidateValue struct {
	CandidateID         string
	MetricName          string // canonical label
	Value               decimal.Decimal
	Currency            string
	Scale               string
	PeriodEndDate       *time.Time
	SectionType         SectionType
	Source              CandidateSource
	ConfidenceScore     float64
	Evidence            Evidence
	ExtractionTimestamp time.Time
}
