package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/finxtract/finxtract/internal/adjudicate"
	"github.com/finxtract/finxtract/internal/blockify"
	"github.com/finxtract/finxtract/internal/candidate"
	"github.com/finxtract/finxtract/internal/common"
	"github.com/finxtract/finxtract/internal/derive"
	"github.com/finxtract/finxtract/internal/model"
	"github.com/finxtract/finxtract/internal/normalize"
	"github.com/finxtract/finxtract/internal/parse"
	"github.com/finxtract/finxtract/internal/section"
	"github.com/finxtract/finxtract/internal/validate"
)

// ConflictTolerance is the fractional disagreement above which two
// normalized candidates for the same metric/period are treated as
// conflicting and routed to adjudication.
const ConflictTolerance = 0.02

// Orchestrator wires every stage together over one AgentState per
// document: a fixed ordered list of steps, each tolerant of its own
// failure, threading one accreting record from start to finish.
type Orchestrator struct {
	parsers     []parse.Parser
	blockifier  *blockify.Service
	locator     *section.Locator
	normalizer  *normalize.Service
	validator   *validate.Validator
	adjudicator *adjudicate.Adjudicator
	deriver     *derive.Deriver
	logger      arbor.ILogger
}

// New builds an Orchestrator from its fully-constructed collaborators.
// adjudicator may be nil when no LLM provider is configured; in that
// case conflicted groups resolve by the highest-confidence fallback rule
// rather than the run failing outright.
func New(
	parsers []parse.Parser,
	blockifier *blockify.Service,
	locator *section.Locator,
	normalizer *normalize.Service,
	validator *validate.Validator,
	adjudicator *adjudicate.Adjudicator,
	deriver *derive.Deriver,
	logger arbor.ILogger,
) *Orchestrator {
	return &Orchestrator{
		parsers:     parsers,
		blockifier:  blockifier,
		locator:     locator,
		normalizer:  normalizer,
		validator:   validator,
		adjudicator: adjudicator,
		deriver:     deriver,
		logger:      logger,
	}
}

// Run executes every stage over a freshly allocated AgentState for
// pdfPath and returns the final state regardless of how many individual
// stages recovered from errors along the way — only ErrorInputInvalid
// and a cancelled ctx (checked by runStage at each stage boundary) abort
// early.
func (o *Orchestrator) Run(ctx context.Context, runID string, pdfPath string, doc model.DocumentMetadata) *model.AgentState {
	state := model.NewAgentState(runID, doc)

	if err := runStage(ctx, "parse_and_blockify", state, o.parseAndBlockify(pdfPath)); err != nil {
		return state
	}
	state.State = model.RunBlockified

	if err := runStage(ctx, "locate_sections", state, o.locateSections); err != nil {
		return state
	}
	state.State = model.RunLocated

	if err := runStage(ctx, "generate_candidates", state, o.generateCandidates); err != nil {
		return state
	}
	state.State = model.RunCandidatesGenerated

	if err := runStage(ctx, "normalize_and_validate", state, o.normalizeAndValidate); err != nil {
		return state
	}
	state.State = model.RunValidated

	if o.needsAdjudication(state) && o.adjudicator != nil {
		_ = runStage(ctx, "adjudicate", state, o.adjudicateConflicts)
		state.State = model.RunAdjudicated
	} else {
		o.passThroughMetrics(state)
		state.State = model.RunSkippedAdjudication
	}

	_ = runStage(ctx, "derive", state, o.derive)
	state.State = model.RunDerived

	state.State = model.RunDone
	return state
}

// parseAndBlockify fans out across every configured parser backend
// concurrently, merges their results, and populates state's
// TextBlocks/TableBlocks.
func (o *Orchestrator) parseAndBlockify(pdfPath string) Stage {
	return func(ctx context.Context, state *model.AgentState) error {
		results := make([]parse.Result, len(o.parsers))
		var wg sync.WaitGroup

		for i, p := range o.parsers {
			i, p := i, p
			wg.Add(1)
			common.SafeGoWithContext(ctx, o.logger, "parse-"+p.Name(), func() {
				defer wg.Done()
				r, err := p.Parse(ctx, pdfPath)
				if err != nil {
					if o.logger != nil {
						o.logger.Warn().Str("backend", p.Name()).Err(err).Msg("parser backend failed, continuing without it")
					}
					return
				}
				results[i] = r
			})
		}
		wg.Wait()

		var nonEmpty []parse.Result
		for _, r := range results {
			if r.Backend != "" {
				nonEmpty = append(nonEmpty, r)
			}
		}

		textBlocks, tableBlocks, errs := o.blockifier.Merge(nonEmpty)
		state.TextBlocks = textBlocks
		state.TableBlocks = tableBlocks
		for _, e := range errs {
			state.RecordError(e)
		}
		return nil
	}
}

func (o *Orchestrator) locateSections(ctx context.Context, state *model.AgentState) error {
	state.Sections = o.locator.Locate(state.TextBlocks)

	if ok, missing := section.ValidateSections(state.Sections); !ok && o.logger != nil {
		o.logger.Warn().
			Str("document", state.Document.DocumentID).
			Str("missing", fmt.Sprintf("%v", missing)).
			Msg("critical statement sections not located, continuing with what was found")
	}
	return nil
}

func (o *Orchestrator) generateCandidates(ctx context.Context, state *model.AgentState) error {
	var all []model.CandidateValue

	for _, sec := range state.Sections {
		textInSection := blocksInPageRange(state.TextBlocks, sec.StartPage, sec.EndPage)
		tablesInSection := tablesInPageRange(state.TableBlocks, sec.StartPage, sec.EndPage)

		all = append(all, candidate.FromText(textInSection, sec.SectionID, sec.SectionType)...)
		for _, table := range tablesInSection {
			all = append(all, candidate.FromTable(table, sec.SectionID, sec.SectionType)...)
		}
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].ConfidenceScore > all[j].ConfidenceScore })
	state.Candidates = all
	return nil
}

func blocksInPageRange(blocks []model.TextBlock, start, end int) []model.TextBlock {
	var out []model.TextBlock
	for _, b := range blocks {
		if b.PageNumber >= start && b.PageNumber <= end {
			out = append(out, b)
		}
	}
	return out
}

func tablesInPageRange(tables []model.TableBlock, start, end int) []model.TableBlock {
	var out []model.TableBlock
	for _, t := range tables {
		if t.PageNumber >= start && t.PageNumber <= end {
			out = append(out, t)
		}
	}
	return out
}

// needsAdjudication is the conditional-branch predicate, matching the
// flagging rule groupsNeedingAdjudication applies: a candidate whose
// aggregated validation status needs review routes the run through the
// adjudicator, and so does a bare value disagreement between same
// metric/period candidates that no individual rule flagged.
func (o *Orchestrator) needsAdjudication(state *model.AgentState) bool {
	if state.HasConflicts() {
		return true
	}
	return len(normalize.FindConflicts(state.Candidates, ConflictTolerance)) > 0
}

func (o *Orchestrator) normalizeAndValidate(ctx context.Context, state *model.AgentState) error {
	normalized, _, _ := o.normalizer.Apply(state.Candidates)
	state.Candidates = normalized
	state.ValidationResults = o.validator.Validate(normalized)
	return nil
}

func (o *Orchestrator) adjudicateConflicts(ctx context.Context, state *model.AgentState) error {
	groups := groupsNeedingAdjudication(state.Candidates, state.ValidationResults)
	resolved := o.adjudicator.AdjudicateAll(ctx, groups, state.ValidationResults)
	state.ValidatedMetrics = append(state.ValidatedMetrics, resolved...)

	adjudicated := make(map[metricPeriodKey]bool, len(groups))
	for _, g := range groups {
		if len(g.Candidates) > 0 {
			adjudicated[keyOf(g.Candidates[0])] = true
		}
	}

	// every group the adjudicator didn't touch resolves by the same rule
	// as the skip branch: its highest-confidence member wins.
	for _, winner := range bestPerGroup(state.Candidates) {
		if adjudicated[keyOf(winner)] {
			continue
		}
		state.ValidatedMetrics = append(state.ValidatedMetrics, candidateToMetric(winner))
	}
	return nil
}

// metricPeriodKey identifies one (metric, period) group, the same
// granularity normalize.ConsistencyGroup and the validator's per-period
// rules (range, YoY, arithmetic) operate over.
type metricPeriodKey struct {
	metric string
	period string
}

func keyOf(c model.CandidateValue) metricPeriodKey {
	periodKey := ""
	if c.PeriodEndDate != nil {
		periodKey = c.PeriodEndDate.Format("2006-01-02")
	}
	return metricPeriodKey{metric: c.MetricName, period: periodKey}
}

// groupsNeedingAdjudication groups candidates by (metric, period) and
// keeps only the groups that need a winner chosen: either a member's
// aggregated validation status is needs_review/invalid (the routing
// predicate), or the group's values disagree beyond
// normalize.FindConflicts' tolerance even though no single rule flagged
// either candidate (two sources reporting different numbers is itself
// adjudication-worthy). A single flagged candidate with no sibling for
// the same period still forms a degenerate group of one so it reaches
// the adjudicator — and, failing that, the fallback rule — rather than
// being silently dropped from the run's output.
func groupsNeedingAdjudication(candidates []model.CandidateValue, results map[string][]model.ValidationResult) []normalize.ConsistencyGroup {
	members := make(map[metricPeriodKey][]model.CandidateValue)
	var order []metricPeriodKey

	for _, c := range candidates {
		k := keyOf(c)
		if _, seen := members[k]; !seen {
			order = append(order, k)
		}
		members[k] = append(members[k], c)
	}

	valueConflicts := make(map[metricPeriodKey]bool)
	for _, g := range normalize.FindConflicts(candidates, ConflictTolerance) {
		if len(g.Candidates) == 0 {
			continue
		}
		valueConflicts[keyOf(g.Candidates[0])] = true
	}

	var groups []normalize.ConsistencyGroup
	for _, k := range order {
		group := members[k]
		flagged := valueConflicts[k]
		if !flagged {
			for _, c := range group {
				if model.NeedsAdjudication(model.AggregateStatus(results[c.CandidateID])) {
					flagged = true
					break
				}
			}
		}
		if flagged {
			groups = append(groups, normalize.ConsistencyGroup{MetricName: k.metric, Candidates: group})
		}
	}
	return groups
}

// passThroughMetrics is the skip-adjudication branch: each (metric,
// period) group resolves to its highest-confidence candidate with no LLM
// call, the same rule the adjudicator applies to all-valid groups.
func (o *Orchestrator) passThroughMetrics(state *model.AgentState) {
	for _, winner := range bestPerGroup(state.Candidates) {
		state.ValidatedMetrics = append(state.ValidatedMetrics, candidateToMetric(winner))
	}
}

// bestPerGroup reduces candidates to one winner per (metric, period)
// group — the highest-confidence member — in first-seen group order.
func bestPerGroup(candidates []model.CandidateValue) []model.CandidateValue {
	best := make(map[metricPeriodKey]model.CandidateValue)
	var order []metricPeriodKey
	for _, c := range candidates {
		k := keyOf(c)
		existing, seen := best[k]
		if !seen {
			order = append(order, k)
			best[k] = c
			continue
		}
		if c.ConfidenceScore > existing.ConfidenceScore {
			best[k] = c
		}
	}

	winners := make([]model.CandidateValue, 0, len(order))
	for _, k := range order {
		winners = append(winners, best[k])
	}
	return winners
}

func candidateToMetric(c model.CandidateValue) model.FinancialMetric {
	extractionMethod := model.MethodText
	if c.Source == model.SourceTableCell {
		extractionMethod = model.MethodTable
	}
	return model.FinancialMetric{
		CandidateID:      c.CandidateID,
		MetricName:       c.MetricName,
		Value:            c.Value,
		Currency:         c.Currency,
		Scale:            c.Scale,
		PeriodEndDate:    c.PeriodEndDate,
		SectionType:      c.SectionType,
		ConfidenceScore:  c.ConfidenceScore,
		EntityType:       model.EntityConsolidated,
		ExtractionMethod: extractionMethod,
	}
}

func (o *Orchestrator) derive(ctx context.Context, state *model.AgentState) error {
	state.DerivedMetrics = o.deriver.All(state.ValidatedMetrics)
	return nil
}
