package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntityType distinguishes whose books a metric describes.
type EntityType string

const (
	EntityConsolidated EntityType = "consolidated"
	EntityParent       EntityType = "parent"
	EntitySubsidiary   EntityType = "subsidiary"
)

// ExtractionMethod records how a FinancialMetric's value was produced.
type ExtractionMethod string

const (
	MethodTable      ExtractionMethod = "table"
	MethodText       ExtractionMethod = "text"
	MethodCalculated ExtractionMethod = "calculated"
)

// ScaleMultiplier maps a scale name to its base-units multiplier. Defined
// here (not in package scale) so FinancialMetric.ToBaseUnits has no import
// cycle back onto the scale package's richer alias-handling logic.
var ScaleMultiplier = map[string]decimal.Decimal{
	"actual":    decimal.NewFromInt(1),
	"thousands": decimal.NewFromInt(1_000),
	"millions":  decimal.NewFromInt(1_000_000),
	"billions":  decimal.NewFromInt(1_000_000_000),
}

// FinancialMetric is an adjudicated or derived metric: a CandidateValue
// stripped of Source/Evidence and enriched with entity/extraction
// provenance and, when the LLM adjudicator chose it, its reasoning.
type FinancialMetric struct {
	CandidateID     string
	MetricName      string
	Value           decimal.Decimal
	Currency        string
	Scale           string
	PeriodEndDate   *time.Time
	SectionType     SectionType
	ConfidenceScore float64

	EntityType       EntityType
	ExtractionMethod ExtractionMethod
	LLMReasoning     string
	LLMConfidence    float64
	Notes            string
}

// ToBaseUnits returns Value × the scale's multiplier, e.g. 1.5 "millions"
// becomes 1,500,000 in actual units. Unknown scales multiply by 1.
func (m FinancialMetric) ToBaseUnits() decimal.Decimal {
	mul, ok := ScaleMultiplier[m.Scale]
	if !ok {
		mul = decimal.NewFromInt(1)
	}
	return m.Value.Mul(mul)
}
