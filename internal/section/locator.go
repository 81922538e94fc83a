// Package section locates the financial-statement sections (income
// statement, balance sheet, cash flow statement, notes, revenue and
// EBITDA schedules) within a document's merged blocks. Like the label
// standardizer, it walks a priority-ordered list of heading patterns and
// takes the first match; an optional embedding rescorer (see
// embedding.go) can re-rank ambiguous boundary candidates when enabled.
package section

import (
	"regexp"
	"sort"
	"strings"

	"github.com/finxtract/finxtract/internal/model"
)

// patternConfidence is the confidence assigned to a pure regex match; the
// remaining headroom to 1.0 is reserved for the embedding rescorer.
const patternConfidence = 0.9

// maxHeaderLength bounds how long a block can be and still plausibly be
// a section header rather than body prose.
const maxHeaderLength = 200

// sectionRule pairs a heading pattern with the SectionType it signals.
// Ordered most-specific first, matching the label package's convention.
type sectionRule struct {
	sectionType model.SectionType
	pattern     *regexp.Regexp
}

var sectionRules = []sectionRule{
	{model.SectionIncomeStatement, regexp.MustCompile(`(?i)consolidated\s+(income\s+statement|statement\s+of\s+(comprehensive\s+)?income|statement\s+of\s+profit\s+(and|&)\s+loss)`)},
	{model.SectionIncomeStatement, regexp.MustCompile(`(?i)^income\s+statement$|^profit\s+(and|&)\s+loss\s+account$`)},
	{model.SectionBalanceSheet, regexp.MustCompile(`(?i)consolidated\s+(statement\s+of\s+)?(balance\s+sheet|financial\s+position)`)},
	{model.SectionBalanceSheet, regexp.MustCompile(`(?i)^balance\s+sheet$|^statement\s+of\s+financial\s+position$`)},
	{model.SectionCashFlow, regexp.MustCompile(`(?i)consolidated\s+(statement\s+of\s+)?cash\s+flow`)},
	{model.SectionCashFlow, regexp.MustCompile(`(?i)^cash\s+flow\s+statement$`)},
	{model.SectionBorrowings, regexp.MustCompile(`(?i)borrowings\s+and\s+(other\s+)?(loans|debt)|net\s+debt\s+schedule`)},
	{model.SectionEBITDA, regexp.MustCompile(`(?i)adjusted\s+EBITDA|EBITDA\s+reconciliation`)},
	{model.SectionRevenue, regexp.MustCompile(`(?i)revenue\s+(by\s+segment|analysis|disaggregation)`)},
	{model.SectionNotes, regexp.MustCompile(`(?i)^notes\s+to\s+the\s+(consolidated\s+)?financial\s+statements$`)},
}

// Locator detects section boundaries in an ordered slice of TextBlocks.
type Locator struct {
	rescorer EmbeddingScorer // optional, nil disables rescoring
}

// New builds a Locator. Pass a nil EmbeddingScorer to run pattern matching
// alone; the rescorer is an optional extension point, not a hard
// dependency.
func New(rescorer EmbeddingScorer) *Locator {
	return &Locator{rescorer: rescorer}
}

// Locate scans blocks in page order, matches each plausible-header block
// against sectionRules, and emits one Section per detected heading
// running until the page before the next detected heading (or the last
// text-block page for the final one). Blocks before the first detected
// heading belong to no section and are omitted.
func (l *Locator) Locate(blocks []model.TextBlock) []model.Section {
	ordered := make([]model.TextBlock, len(blocks))
	copy(ordered, blocks)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].PageNumber < ordered[j].PageNumber })

	var candidates []model.Section
	for _, b := range ordered {
		if !plausibleHeader(b) {
			continue
		}
		st, ok := matchSection(b.Text)
		if !ok {
			continue
		}
		candidates = append(candidates, model.Section{
			SectionID:       model.NewID("sec"),
			SectionType:     st,
			SectionName:     strings.TrimSpace(b.Text),
			StartPage:       b.PageNumber,
			DetectionMethod: model.DetectionRegex,
			Confidence:      patternConfidence,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].StartPage < candidates[j].StartPage })

	lastPage := 0
	if len(ordered) > 0 {
		lastPage = ordered[len(ordered)-1].PageNumber
	}
	for i := range candidates {
		if i+1 < len(candidates) {
			end := candidates[i+1].StartPage - 1
			if end < candidates[i].StartPage {
				end = candidates[i].StartPage
			}
			candidates[i].EndPage = end
		} else {
			end := lastPage
			if end < candidates[i].StartPage {
				end = candidates[i].StartPage
			}
			candidates[i].EndPage = end
		}
	}

	if l.rescorer != nil {
		candidates = l.rescorer.Rescore(ordered, candidates)
	}

	return mergeTouchingSameType(candidates)
}

// plausibleHeader gates blocks before pattern matching: short enough to
// be a title, and either already classified as a heading by the parser
// or visually title-like (all caps / title case) with finance vocabulary
// somewhere in it.
func plausibleHeader(b model.TextBlock) bool {
	text := strings.TrimSpace(b.Text)
	if text == "" || len(text) > maxHeaderLength {
		return false
	}
	if b.BlockType == model.BlockHeading {
		return true
	}
	return looksLikeTitle(text) && containsFinanceVocabulary(text)
}

func looksLikeTitle(text string) bool {
	if text == strings.ToUpper(text) {
		return true
	}
	words := strings.Fields(text)
	titled := 0
	for _, w := range words {
		r := rune(w[0])
		if r >= 'A' && r <= 'Z' {
			titled++
		}
	}
	return len(words) > 0 && titled*2 >= len(words)
}

var reFinanceVocabulary = regexp.MustCompile(`(?i)\b(income|balance|cash|statement|profit|loss|revenue|ebitda|borrowings|notes|assets|liabilities|equity)\b`)

func containsFinanceVocabulary(text string) bool {
	return reFinanceVocabulary.MatchString(text)
}

func matchSection(headingText string) (model.SectionType, bool) {
	normalized := strings.TrimSpace(headingText)
	for _, r := range sectionRules {
		if r.pattern.MatchString(normalized) {
			return r.sectionType, true
		}
	}
	return "", false
}

// mergeTouchingSameType collapses consecutive same-type sections whose
// page ranges touch or overlap (previous end >= next start - 1) into one
// — the common case of a heading repeated at the top of every page as a
// running header — taking the max end page and max confidence. Same-type
// sections more than a page apart stay separate.
func mergeTouchingSameType(sections []model.Section) []model.Section {
	if len(sections) == 0 {
		return sections
	}
	out := []model.Section{sections[0]}
	for _, s := range sections[1:] {
		last := &out[len(out)-1]
		if s.SectionType == last.SectionType && last.EndPage >= s.StartPage-1 {
			if s.EndPage > last.EndPage {
				last.EndPage = s.EndPage
			}
			if s.Confidence > last.Confidence {
				last.Confidence = s.Confidence
			}
			continue
		}
		out = append(out, s)
	}
	return out
}

// ValidateSections reports whether every critical statement type
// (income statement, balance sheet, cash flow) was located, and which
// are missing. A run with missing criticals still proceeds — the
// candidate generator simply has fewer sections to mine.
func ValidateSections(sections []model.Section) (bool, []model.SectionType) {
	present := make(map[model.SectionType]bool, len(sections))
	for _, s := range sections {
		present[s.SectionType] = true
	}

	var missing []model.SectionType
	for _, required := range model.CriticalSectionTypes {
		if !present[required] {
			missing = append(missing, required)
		}
	}
	return len(missing) == 0, missing
}
