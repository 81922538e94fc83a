package validate

import (
	"fmt"

	"github.com/finxtract/finxtract/internal/model"
)

// validCurrencies is the closed set of currencies normalize.Service's
// converter is expected to know about; a candidate reporting anything
// else has very likely been scale/currency-misdetected upstream.
var validCurrencies = map[string]bool{
	"GBP": true, "USD": true, "EUR": true,
}

var validScales = map[string]bool{
	"actual": true, "thousands": true, "millions": true, "billions": true,
}

// CheckUnit validates that a candidate's currency and scale are both
// members of the known closed sets, catching cases where currency/scale
// detection produced garbage (an empty string always passes: "no scale
// declared" legitimately means actual units, handled upstream by
// package scale's Detect default).
func CheckUnit(c model.CandidateValue) model.ValidationResult {
	if c.Currency != "" && !validCurrencies[c.Currency] {
		return model.ValidationResult{
			CandidateID: c.CandidateID,
			RuleName:    "unit_check",
			Status:      model.StatusInvalid,
			Severity:    model.SeverityCritical,
			Message:     fmt.Sprintf("unrecognized currency %q", c.Currency),
		}
	}
	if c.Scale != "" && !validScales[c.Scale] {
		return model.ValidationResult{
			CandidateID: c.CandidateID,
			RuleName:    "unit_check",
			Status:      model.StatusInvalid,
			Severity:    model.SeverityCritical,
			Message:     fmt.Sprintf("unrecognized scale %q", c.Scale),
		}
	}
	return model.ValidationResult{
		CandidateID: c.CandidateID,
		RuleName:    "unit_check",
		Status:      model.StatusValid,
	}
}
