// Package period parses free-text period labels ("FY2023", "Year ended 31
// December 2023", "Q1 2024", "2023-24", "Six months ended 30 June 2023")
// into structured date ranges, and detects a company's fiscal-year-end
// convention from a corpus of such labels.
package period

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Type is the closed set of period shapes this parser recognizes.
type Type string

const (
	FiscalYear Type = "fiscal_year"
	HalfYear   Type = "half_year"
	Quarter    Type = "quarter"
)

// Period is the parsed result of a period-label string.
type Period struct {
	Type          Type
	StartDate     time.Time
	EndDate       time.Time
	FiscalYear    int
	Quarter       int // 1-4, zero when Type != Quarter
	Half          int // 1-2, zero when Type != HalfYear
	OriginalLabel string
}

var monthByName = func() map[string]time.Month {
	m := make(map[string]time.Month)
	for i := time.January; i <= time.December; i++ {
		full := strings.ToLower(i.String())
		m[full] = i
		m[full[:3]] = i
	}
	return m
}()

var (
	// "FY2023", "FY 2023", "FY23"
	reFY = regexp.MustCompile(`(?i)\bFY\s?(\d{4}|\d{2})\b`)

	// "Year ended 31 December 2023", "year ended December 31, 2023"
	reYearEndedDMY = regexp.MustCompile(`(?i)year\s+end(?:ed|ing)\s+(\d{1,2})\s+([A-Za-z]+)\.?\s+(\d{4})`)
	reYearEndedMDY = regexp.MustCompile(`(?i)year\s+end(?:ed|ing)\s+([A-Za-z]+)\.?\s+(\d{1,2}),?\s+(\d{4})`)

	// "Six months ended 30 June 2023", "6 months ended June 30, 2023"
	reHalfYearDMY = regexp.MustCompile(`(?i)(?:six|6)\s+months?\s+end(?:ed|ing)\s+(\d{1,2})\s+([A-Za-z]+)\.?\s+(\d{4})`)
	reHalfYearMDY = regexp.MustCompile(`(?i)(?:six|6)\s+months?\s+end(?:ed|ing)\s+([A-Za-z]+)\.?\s+(\d{1,2}),?\s+(\d{4})`)

	// "H1 2023", "H2 2023", "H1-2023"
	reHLabel = regexp.MustCompile(`(?i)\bH([12])\s?-?\s?(?:FY)?\s?(\d{4}|\d{2})\b`)

	// "Q1 2024", "Q1-2024", "Q1FY24"
	reQLabel = regexp.MustCompile(`(?i)\bQ([1-4])\s?-?\s?(?:FY)?\s?(\d{4}|\d{2})\b`)

	// "2023-24", "2023/24"
	reFYShortRange = regexp.MustCompile(`^(\d{4})[-/](\d{2})$`)

	// bare "2023" — the common form of a statement's period column header
	reBareYear = regexp.MustCompile(`^(19|20)\d{2}$`)
)

// Parse attempts every known pattern in a fixed order and returns the first
// match. It returns ok=false when no pattern matches at all.
func Parse(label string) (Period, bool) {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return Period{}, false
	}

	if p, ok := parseFYShortRange(trimmed); ok {
		return p, true
	}
	if p, ok := parseYearEnded(trimmed); ok {
		return p, true
	}
	if p, ok := parseHalfYearEnded(trimmed); ok {
		return p, true
	}
	if p, ok := parseHLabel(trimmed); ok {
		return p, true
	}
	if p, ok := parseQLabel(trimmed); ok {
		return p, true
	}
	if p, ok := parseFYLabel(trimmed); ok {
		return p, true
	}
	if reBareYear.MatchString(trimmed) {
		year, _ := strconv.Atoi(trimmed)
		return fiscalYearPeriod(year, trimmed), true
	}
	return Period{}, false
}

func parseFYLabel(label string) (Period, bool) {
	m := reFY.FindStringSubmatch(label)
	if m == nil {
		return Period{}, false
	}
	year := expandYear(m[1])
	return fiscalYearPeriod(year, label), true
}

func parseFYShortRange(label string) (Period, bool) {
	m := reFYShortRange.FindStringSubmatch(label)
	if m == nil {
		return Period{}, false
	}
	longYear, _ := strconv.Atoi(m[1])
	shortYear := expandYearAgainst(m[2], longYear)
	// "2023-24" names the fiscal year ending in the short (later) year.
	return fiscalYearPeriod(shortYear, label), true
}

func parseYearEnded(label string) (Period, bool) {
	if m := reYearEndedDMY.FindStringSubmatch(label); m != nil {
		day, month, year, ok := parseDMY(m[1], m[2], m[3])
		if !ok {
			return Period{}, false
		}
		end := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		return Period{
			Type:          FiscalYear,
			StartDate:     end.AddDate(-1, 0, 1),
			EndDate:       end,
			FiscalYear:    year,
			OriginalLabel: label,
		}, true
	}
	if m := reYearEndedMDY.FindStringSubmatch(label); m != nil {
		day, month, year, ok := parseDMY(m[2], m[1], m[3])
		if !ok {
			return Period{}, false
		}
		end := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		return Period{
			Type:          FiscalYear,
			StartDate:     end.AddDate(-1, 0, 1),
			EndDate:       end,
			FiscalYear:    year,
			OriginalLabel: label,
		}, true
	}
	return Period{}, false
}

func parseHalfYearEnded(label string) (Period, bool) {
	var day int
	var monthName, yearStr string
	if m := reHalfYearDMY.FindStringSubmatch(label); m != nil {
		day, monthName, yearStr = atoiOrZero(m[1]), m[2], m[3]
	} else if m := reHalfYearMDY.FindStringSubmatch(label); m != nil {
		day, monthName, yearStr = atoiOrZero(m[2]), m[1], m[3]
	} else {
		return Period{}, false
	}

	d, month, year, ok := parseDMY(fmt.Sprintf("%d", day), monthName, yearStr)
	if !ok {
		return Period{}, false
	}
	end := time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
	half := 1
	if int(end.Month()) > 6 {
		half = 2
	}
	return Period{
		Type:          HalfYear,
		StartDate:     end.AddDate(0, -5, -int(end.Day())+1),
		EndDate:       end,
		FiscalYear:    year,
		Half:          half,
		OriginalLabel: label,
	}, true
}

func parseHLabel(label string) (Period, bool) {
	m := reHLabel.FindStringSubmatch(label)
	if m == nil {
		return Period{}, false
	}
	half, _ := strconv.Atoi(m[1])
	year := expandYear(m[2])

	var start, end time.Time
	if half == 1 {
		start = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		end = time.Date(year, time.June, 30, 0, 0, 0, 0, time.UTC)
	} else {
		start = time.Date(year, time.July, 1, 0, 0, 0, 0, time.UTC)
		end = time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	}
	return Period{
		Type:          HalfYear,
		StartDate:     start,
		EndDate:       end,
		FiscalYear:    year,
		Half:          half,
		OriginalLabel: label,
	}, true
}

func parseQLabel(label string) (Period, bool) {
	m := reQLabel.FindStringSubmatch(label)
	if m == nil {
		return Period{}, false
	}
	quarter, _ := strconv.Atoi(m[1])
	year := expandYear(m[2])

	startMonth := time.Month((quarter-1)*3 + 1)
	start := time.Date(year, startMonth, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 3, -1)
	return Period{
		Type:          Quarter,
		StartDate:     start,
		EndDate:       end,
		FiscalYear:    year,
		Quarter:       quarter,
		OriginalLabel: label,
	}, true
}

func fiscalYearPeriod(year int, label string) Period {
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return Period{
		Type:          FiscalYear,
		StartDate:     start,
		EndDate:       end,
		FiscalYear:    year,
		OriginalLabel: label,
	}
}

func parseDMY(dayStr, monthStr, yearStr string) (int, time.Month, int, bool) {
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return 0, 0, 0, false
	}
	month, ok := monthByName[strings.ToLower(monthStr)]
	if !ok {
		return 0, 0, 0, false
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return 0, 0, 0, false
	}
	return day, month, year, true
}

func atoiOrZero(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// expandYear turns a 2 or 4 digit year string into a 4 digit year. A 2-digit
// form is expanded against the current century, then rolled back a century
// if that would place it implausibly far in the future (mirrors the
// rollover expandYearAgainst applies against a known long year).
func expandYear(s string) int {
	n, _ := strconv.Atoi(s)
	if len(s) != 2 {
		return n
	}
	currentYear := time.Now().Year()
	century := (currentYear / 100) * 100
	expanded := century + n
	if expanded > currentYear+20 {
		expanded -= 100
	}
	return expanded
}

// expandYearAgainst expands a short (2-digit) year against a known long
// year's century, for "YYYY-YY" labels like "2023-24".
func expandYearAgainst(shortStr string, longYear int) int {
	shortYear, _ := strconv.Atoi(shortStr)
	century := (longYear / 100) * 100
	expanded := century + shortYear
	if expanded < longYear {
		// handles century rollover, e.g. "2099-00" -> 2100
		expanded += 100
	}
	return expanded
}

// NormalizeLabel reduces a parsed Period to its canonical label form:
// FY{YYYY}, Q{n}-{YYYY}, or H{n}-{YYYY}.
func NormalizeLabel(p Period) string {
	switch p.Type {
	case Quarter:
		return fmt.Sprintf("Q%d-%d", p.Quarter, p.FiscalYear)
	case HalfYear:
		return fmt.Sprintf("H%d-%d", p.Half, p.FiscalYear)
	default:
		return fmt.Sprintf("FY%d", p.FiscalYear)
	}
}

// FiscalYearEnd returns the (month, day) most frequent among the labels
// that parse successfully, which is how a company's fiscal-year-end
// convention is inferred from a set of period labels in one filing.
func FiscalYearEnd(labels []string) (time.Month, int, bool) {
	type monthDay struct {
		month time.Month
		day   int
	}
	counts := make(map[monthDay]int)

	for _, label := range labels {
		p, ok := Parse(label)
		if !ok || p.Type != FiscalYear {
			continue
		}
		key := monthDay{p.EndDate.Month(), p.EndDate.Day()}
		counts[key]++
	}

	best := monthDay{}
	bestCount := 0
	for key, count := range counts {
		if count > bestCount ||
			(count == bestCount && (key.month < best.month || (key.month == best.month && key.day < best.day))) {
			best = key
			bestCount = count
		}
	}
	if bestCount == 0 {
		return 0, 0, false
	}
	return best.month, best.day, true
}
