package model

// SectionType is the closed set of financial-statement region kinds the
// locator recognizes.
type SectionType string

const (
	SectionIncomeStatement SectionType = "income_statement"
	SectionCashFlow        SectionType = "cash_flow"
	SectionBalanceSheet    SectionType = "balance_sheet"
	SectionBorrowings      SectionType = "borrowings"
	SectionNotes           SectionType = "notes"
	SectionRevenue         SectionType = "revenue"
	SectionEBITDA          SectionType = "ebitda"
)

// DetectionMethod records how a Section's confidence was produced.
type DetectionMethod string

const (
	DetectionRegex     DetectionMethod = "regex"
	DetectionEmbedding DetectionMethod = "embedding"
	DetectionHybrid    DetectionMethod = "hybrid"
)

// CriticalSectionTypes are the three statement types a complete filing
// extraction is expected to locate.
var CriticalSectionTypes = []SectionType{
	SectionIncomeStatement,
	SectionBalanceSheet,
	SectionCashFlow,
}

// Section is a contiguous page range classified as one statement type.
type Section struct {
	SectionID       string
	SectionType     SectionType
	SectionName     string
	StartPage       int
	EndPage         int
	Confidence      float64
	DetectionMethod DetectionMethod
}

// Overlaps reports whether two sections' page ranges touch or overlap,
// i.e. end of the earlier one is >= start of the later one minus one.
func Overlaps(a, b Section) bool {
	lo, hi := a, b
	if lo.StartPage > hi.StartPage {
		lo, hi = hi, lo
	}
	return lo.EndPage >= hi.StartPage-1
}
