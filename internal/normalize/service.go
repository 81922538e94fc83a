// Package normalize applies period/label/currency/scale normalization to
// a run's raw candidates, groups them into comparable time series per
// canonical metric, and performs a cross-candidate consistency check:
// when more than one candidate exists for the same metric/period, they
// should agree once currency and scale are aligned, and a persistent
// disagreement is itself evidence worth carrying forward into
// adjudication.
package normalize

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/ternarybob/arbor"

	"github.com/finxtract/finxtract/internal/currency"
	"github.com/finxtract/finxtract/internal/label"
	"github.com/finxtract/finxtract/internal/model"
	"github.com/finxtract/finxtract/internal/scale"
)

// Service normalizes a run's candidates to one target currency/scale.
type Service struct {
	converter    currency.Converter
	baseCurrency string
	baseScale    string
	logger       arbor.ILogger

	// PreserveOriginals, when set, makes Apply record each candidate's
	// pre-normalization value/currency/scale keyed by CandidateID.
	PreserveOriginals bool
}

// Original is the pre-normalization form of one candidate, kept as a
// side record when Service.PreserveOriginals is set.
type Original struct {
	Value    decimal.Decimal
	Currency string
	Scale    string
}

// New builds a normalize Service targeting the given base currency/scale
// (GBP/millions by default, see common.DefaultBaseCurrency).
func New(converter currency.Converter, baseCurrency, baseScale string, logger arbor.ILogger) *Service {
	return &Service{converter: converter, baseCurrency: baseCurrency, baseScale: baseScale, logger: logger}
}

// TimeSeries groups every candidate for one canonical metric across
// periods, ordered chronologically by PeriodEndDate.
type TimeSeries struct {
	MetricName string
	Points     []model.CandidateValue
}

// Apply normalizes currency and scale on every candidate (returning new
// values; CandidateValue is passed by value throughout the pipeline) and
// groups the result into per-metric time series. A candidate whose
// currency has no registered rate to the base is passed through
// unchanged with a warning rather than failing the stage — the unit
// validator will flag it downstream.
func (s *Service) Apply(candidates []model.CandidateValue) ([]model.CandidateValue, []TimeSeries, map[string]Original) {
	var originals map[string]Original
	if s.PreserveOriginals {
		originals = make(map[string]Original, len(candidates))
	}

	normalized := make([]model.CandidateValue, len(candidates))
	for i, c := range candidates {
		if originals != nil {
			originals[c.CandidateID] = Original{Value: c.Value, Currency: c.Currency, Scale: c.Scale}
		}
		normalized[i] = s.normalizeOne(c)
	}

	return normalized, groupByMetric(normalized), originals
}

func (s *Service) normalizeOne(c model.CandidateValue) model.CandidateValue {
	c.MetricName = label.Standardize(c.MetricName)

	if c.Currency != "" && c.Currency != s.baseCurrency {
		converted, err := s.converter.Convert(c.Value, c.Currency, s.baseCurrency)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn().
					Str("metric", c.MetricName).
					Str("currency", c.Currency).
					Err(err).
					Msg("no exchange rate to base currency, keeping original amount")
			}
			return c
		}
		c.Value = converted
		c.Currency = s.baseCurrency
	}

	if c.Scale != "" && c.Scale != s.baseScale {
		c.Value = scale.Convert(c.Value, c.Scale, s.baseScale)
		c.Scale = s.baseScale
	}

	return c
}

func groupByMetric(candidates []model.CandidateValue) []TimeSeries {
	byMetric := make(map[string][]model.CandidateValue)
	var order []string
	for _, c := range candidates {
		if _, seen := byMetric[c.MetricName]; !seen {
			order = append(order, c.MetricName)
		}
		byMetric[c.MetricName] = append(byMetric[c.MetricName], c)
	}

	series := make([]TimeSeries, 0, len(order))
	for _, name := range order {
		points := byMetric[name]
		sort.SliceStable(points, func(i, j int) bool {
			if points[i].PeriodEndDate == nil || points[j].PeriodEndDate == nil {
				return false
			}
			return points[i].PeriodEndDate.Before(*points[j].PeriodEndDate)
		})
		series = append(series, TimeSeries{MetricName: name, Points: points})
	}
	return series
}

// PeriodGroup collects every candidate sharing one fiscal-year key.
type PeriodGroup struct {
	Key        string // "FY2023"
	Candidates []model.CandidateValue
}

// GroupByPeriod buckets candidates by fiscal year ("FY<year>" from the
// period end date), in first-seen order. Candidates with no period end
// date are grouped under an empty key, which takes its first-seen place
// like any other key.
func GroupByPeriod(candidates []model.CandidateValue) []PeriodGroup {
	byKey := make(map[string][]model.CandidateValue)
	var order []string
	for _, c := range candidates {
		key := ""
		if c.PeriodEndDate != nil {
			key = fmt.Sprintf("FY%d", c.PeriodEndDate.Year())
		}
		if _, seen := byKey[key]; !seen {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], c)
	}

	groups := make([]PeriodGroup, 0, len(order))
	for _, key := range order {
		groups = append(groups, PeriodGroup{Key: key, Candidates: byKey[key]})
	}
	return groups
}

// IsConsistent reports whether every metric in the set already shares
// the service's base currency and base scale — the §4.G consistency
// predicate consumers use to decide whether a metric set can be compared
// without further conversion.
func (s *Service) IsConsistent(metrics []model.FinancialMetric) bool {
	for _, m := range metrics {
		if m.Currency != "" && m.Currency != s.baseCurrency {
			return false
		}
		if m.Scale != "" && m.Scale != s.baseScale {
			return false
		}
	}
	return true
}

// ConsistencyGroup is a set of candidates that describe the same metric
// for the same period (after normalization) but disagree in value beyond
// tolerance — the signal the pipeline's adjudication routing and the
// adjudicator both consume.
type ConsistencyGroup struct {
	MetricName string
	Candidates []model.CandidateValue
}

// FindConflicts groups normalized candidates by (metric, period) and
// returns only the groups with more than one member whose values differ
// by more than tolerance (a fraction of the larger magnitude) — the kind
// of same-fact-different-number conflict that routes to adjudication.
func FindConflicts(candidates []model.CandidateValue, tolerance float64) []ConsistencyGroup {
	type key struct {
		metric string
		period string
	}
	groups := make(map[key][]model.CandidateValue)
	var order []key

	for _, c := range candidates {
		periodKey := ""
		if c.PeriodEndDate != nil {
			periodKey = c.PeriodEndDate.Format("2006-01-02")
		}
		k := key{metric: c.MetricName, period: periodKey}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], c)
	}

	var conflicts []ConsistencyGroup
	for _, k := range order {
		members := groups[k]
		if len(members) < 2 {
			continue
		}
		if valuesDisagree(members, tolerance) {
			conflicts = append(conflicts, ConsistencyGroup{
				MetricName: k.metric,
				Candidates: members,
			})
		}
	}
	return conflicts
}

func valuesDisagree(members []model.CandidateValue, tolerance float64) bool {
	if len(members) < 2 {
		return false
	}
	first := members[0].Value
	for _, m := range members[1:] {
		diff := first.Sub(m.Value).Abs()
		denom := first.Abs()
		if m.Value.Abs().GreaterThan(denom) {
			denom = m.Value.Abs()
		}
		if denom.IsZero() {
			if !diff.IsZero() {
				return true
			}
			continue
		}
		ratio, _ := diff.Div(denom).Float64()
		if ratio > tolerance {
			return true
		}
	}
	return false
}
