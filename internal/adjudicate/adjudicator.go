package adjudicate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	"github.com/ternarybob/arbor"

	"github.com/finxtract/finxtract/internal/candidate"
	"github.com/finxtract/finxtract/internal/model"
	"github.com/finxtract/finxtract/internal/normalize"
)

// verdict is the structured shape an adjudication prompt asks the LLM to
// return. Responses are frequently wrapped in markdown code fences or
// preceded by conversational text; decode tolerates both.
type verdict struct {
	SelectedCandidateID string   `json:"selected_candidate_id"`
	AlternativeValue    string   `json:"alternative_value"`
	Confidence          float64  `json:"confidence"`
	Reasoning           string   `json:"reasoning"`
	Flags               []string `json:"flags"`
}

// Adjudicator resolves normalize.ConsistencyGroup conflicts by prompting
// each configured provider in turn until one returns a parseable verdict,
// falling back to the highest-confidence candidate in the group when
// every provider fails outright. Adjudication failure never aborts a
// run.
type Adjudicator struct {
	providers []Provider
	pool      *Pool
	logger    arbor.ILogger
}

// New builds an Adjudicator over the given providers, tried in order.
func New(providers []Provider, pool *Pool, logger arbor.ILogger) *Adjudicator {
	return &Adjudicator{providers: providers, pool: pool, logger: logger}
}

// AdjudicateAll resolves every conflict group concurrently (bounded by
// the Pool) and returns one FinancialMetric per group, in group order.
// issues carries each candidate's deterministic-validation findings so
// the prompt can show the LLM why a group is in front of it.
func (a *Adjudicator) AdjudicateAll(ctx context.Context, groups []normalize.ConsistencyGroup, issues map[string][]model.ValidationResult) []model.FinancialMetric {
	results := make([]model.FinancialMetric, len(groups))
	var mu sync.Mutex

	for i, group := range groups {
		i, group := i, group
		a.pool.Submit(ctx, fmt.Sprintf("adjudicate-%d", i), func() {
			metric := a.adjudicateOne(ctx, group, issues)
			mu.Lock()
			results[i] = metric
			mu.Unlock()
		})
	}
	a.pool.Wait()

	return results
}

func (a *Adjudicator) adjudicateOne(ctx context.Context, group normalize.ConsistencyGroup, issues map[string][]model.ValidationResult) model.FinancialMetric {
	prompt := buildPrompt(group, issues)

	for _, provider := range a.providers {
		raw, err := provider.Generate(ctx, prompt)
		if err != nil {
			if a.logger != nil {
				a.logger.Warn().Str("provider", provider.Name()).Err(err).Msg("adjudication provider call failed")
			}
			continue
		}

		v, err := parseVerdict(raw)
		if err != nil {
			if a.logger != nil {
				a.logger.Warn().Str("provider", provider.Name()).Err(err).Msg("adjudication response unparseable")
			}
			continue
		}

		if metric, ok := resolveVerdict(group, v); ok {
			return metric
		}
	}

	return fallbackMetric(group)
}

func buildPrompt(group normalize.ConsistencyGroup, issues map[string][]model.ValidationResult) string {
	var b strings.Builder
	b.WriteString("You are adjudicating between conflicting extracted values for one financial metric.\n")
	fmt.Fprintf(&b, "Metric: %s\n", group.MetricName)
	if len(group.Candidates) > 0 && group.Candidates[0].PeriodEndDate != nil {
		fmt.Fprintf(&b, "Period end: %s\n", group.Candidates[0].PeriodEndDate.Format("2006-01-02"))
	}
	b.WriteString("\nCandidates:\n")
	for _, c := range group.Candidates {
		fmt.Fprintf(&b, "- id=%s value=%s currency=%s scale=%s source=%s confidence=%.2f raw_label=%q raw_value=%q page=%d\n",
			c.CandidateID, c.Value, c.Currency, c.Scale, c.Source, c.ConfidenceScore, c.Evidence.RawLabel, c.Evidence.RawValue, c.Evidence.Page)
		for _, issue := range issues[c.CandidateID] {
			if issue.Status == model.StatusValid {
				continue
			}
			fmt.Fprintf(&b, "    issue[%s/%s]: %s\n", issue.RuleName, issue.Severity, issue.Message)
		}
	}
	b.WriteString("\nReturn ONLY a JSON object with keys: selected_candidate_id, confidence (0-1), reasoning, and optionally alternative_value, flags.\n")
	b.WriteString("Pick the candidate whose raw evidence most plausibly reflects the filing's true reported figure. Only set alternative_value if every candidate's literal value is wrong but the correct figure can still be inferred from the evidence; otherwise omit it and reuse the selected candidate's own value. Explain your choice in reasoning.\n")
	return b.String()
}

// parseVerdict tolerates markdown code fences around the JSON payload
// and, failing a strict decode, falls through to json-repair's tolerant
// parser before giving up.
func parseVerdict(raw string) (verdict, error) {
	cleaned := stripCodeFences(raw)

	var v verdict
	if err := strictUnmarshal(cleaned, &v); err == nil {
		return v, nil
	}

	repaired, err := jsonrepair.RepairJSON(cleaned)
	if err != nil {
		return verdict{}, fmt.Errorf("adjudicate: json-repair failed: %w", err)
	}
	if err := strictUnmarshal(repaired, &v); err != nil {
		return verdict{}, fmt.Errorf("adjudicate: repaired JSON still unparseable: %w", err)
	}
	return v, nil
}

func strictUnmarshal(s string, v *verdict) error {
	return json.Unmarshal([]byte(s), v)
}

func stripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// resolveVerdict looks up the verdict's chosen candidate within the
// group and builds the emitted metric from it. When the verdict carries
// a parseable alternative_value, that value replaces the candidate's own
// value in the emitted metric; every other field (currency, scale,
// period, label) still comes from the chosen candidate, never from the
// LLM.
func resolveVerdict(group normalize.ConsistencyGroup, v verdict) (model.FinancialMetric, bool) {
	for _, c := range group.Candidates {
		if c.CandidateID != v.SelectedCandidateID {
			continue
		}

		value := c.Value
		if alt := strings.TrimSpace(v.AlternativeValue); alt != "" {
			if parsed, ok := candidate.ParseNumericToken(alt); ok {
				value = parsed.Value
			}
		}

		method := model.MethodText
		if c.Source == model.SourceTableCell {
			method = model.MethodTable
		}

		return model.FinancialMetric{
			CandidateID:      c.CandidateID,
			MetricName:       c.MetricName,
			Value:            value,
			Currency:         c.Currency,
			Scale:            c.Scale,
			PeriodEndDate:    c.PeriodEndDate,
			SectionType:      c.SectionType,
			ConfidenceScore:  c.ConfidenceScore,
			EntityType:       model.EntityConsolidated,
			ExtractionMethod: method,
			LLMReasoning:     v.Reasoning,
			LLMConfidence:    v.Confidence,
		}, true
	}
	return model.FinancialMetric{}, false
}

// fallbackMetric is used when every provider either failed or returned an
// unusable verdict: the highest-confidence candidate in the group wins,
// annotated so downstream consumers know adjudication did not actually run.
func fallbackMetric(group normalize.ConsistencyGroup) model.FinancialMetric {
	best := group.Candidates[0]
	for _, c := range group.Candidates[1:] {
		if c.ConfidenceScore > best.ConfidenceScore {
			best = c
		}
	}
	method := model.MethodText
	if best.Source == model.SourceTableCell {
		method = model.MethodTable
	}
	return model.FinancialMetric{
		CandidateID:      best.CandidateID,
		MetricName:       best.MetricName,
		Value:            best.Value,
		Currency:         best.Currency,
		Scale:            best.Scale,
		PeriodEndDate:    best.PeriodEndDate,
		SectionType:      best.SectionType,
		ConfidenceScore:  best.ConfidenceScore,
		EntityType:       model.EntityConsolidated,
		ExtractionMethod: method,
		Notes:            "adjudication unavailable: fell back to highest-confidence candidate",
	}
}
