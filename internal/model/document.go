package model

import (
	"regexp"
	"strings"
	"time"
)

// ReportType is the closed set of filing kinds this system targets.
type ReportType string

const (
	ReportAnnual   ReportType = "annual"
	ReportHalfYear ReportType = "half_year"
	ReportQuarter  ReportType = "quarterly"
	ReportRNS      ReportType = "rns"
)

// DocumentMetadata describes the filing as a whole; populated at ingestion
// and read-only downstream.
type DocumentMetadata struct {
	DocumentID         string
	CompanyName        string
	CompanyIdentifier  string
	ReportType         ReportType
	FiscalPeriodEnd    *time.Time
	Currency           string
	FilingDate         *time.Time
	PageCount          int
	FileSize           int64
}

// MetadataExtractor is the interface boundary for first-page ingestion
// heuristics. The default implementation below is intentionally simple
// and replaceable: it scrapes a title line and sniffs a currency symbol,
// nothing more.
type MetadataExtractor interface {
	Extract(documentID string, firstPageText string) DocumentMetadata
}

// TitlePageExtractor is the default MetadataExtractor: a first-page title
// scrape plus a currency-symbol sniff and report-type keyword match.
type TitlePageExtractor struct{}

var (
	reAnnualHint   = regexp.MustCompile(`(?i)\bannual\s+report\b`)
	reHalfYearHint = regexp.MustCompile(`(?i)\bhalf[-\s]year\b|\binterim\s+report\b`)
	reQuarterHint  = regexp.MustCompile(`(?i)\bquarterly\b|\bQ[1-4]\b`)
	reRNSHint      = regexp.MustCompile(`(?i)\bregulatory\s+news\b|\bRNS\b`)
)

// Extract builds a DocumentMetadata from the first page's text alone. It
// never errors: on a blank or unrecognized page it returns zero values for
// everything it cannot determine.
func (TitlePageExtractor) Extract(documentID string, firstPageText string) DocumentMetadata {
	meta := DocumentMetadata{DocumentID: documentID}

	lines := strings.Split(strings.TrimSpace(firstPageText), "\n")
	if len(lines) > 0 {
		meta.CompanyName = strings.TrimSpace(lines[0])
	}

	meta.Currency = sniffCurrency(firstPageText)
	meta.ReportType = classifyReportType(firstPageText)

	return meta
}

func sniffCurrency(text string) string {
	switch {
	case strings.ContainsAny(text, "£") || strings.Contains(text, "GBP"):
		return "GBP"
	case strings.ContainsAny(text, "$") || strings.Contains(text, "USD"):
		return "USD"
	case strings.ContainsAny(text, "€") || strings.Contains(text, "EUR"):
		return "EUR"
	default:
		return ""
	}
}

func classifyReportType(text string) ReportType {
	switch {
	case reRNSHint.MatchString(text):
		return ReportRNS
	case reHalfYearHint.MatchString(text):
		return ReportHalfYear
	case reQuarterHint.MatchString(text):
		return ReportQuarter
	case reAnnualHint.MatchString(text):
		return ReportAnnual
	default:
		return ReportAnnual
	}
}
