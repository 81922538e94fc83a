package parse

import "regexp"

var (
	reNumericCell   = regexp.MustCompile(`^[£$€]?\(?-?[\d,]+(\.\d+)?\)?%?$`)
	reWhitespaceRun = regexp.MustCompile(`\s{2,}`)
)

// mostlyNonNumeric reports whether fewer than half of a row's nonempty
// cells look numeric — the signature of a header row rather than a data
// row.
func mostlyNonNumeric(cells []string) bool {
	nonEmpty, numeric := 0, 0
	for _, c := range cells {
		if c == "" {
			continue
		}
		nonEmpty++
		if reNumericCell.MatchString(c) {
			numeric++
		}
	}
	return nonEmpty > 0 && numeric*2 < nonEmpty
}

// promoteHeaders splits raw rows into header rows and data rows: the
// first row becomes a header when it is mostly non-numeric, and the
// second row joins the header under the same test when at least one data
// row remains after it (the two-line header convention of "£m / FY2023"
// over column groups). Rows are assumed
// already padded to a uniform width.
func promoteHeaders(rows [][]string) (headers [][]string, data [][]string) {
	if len(rows) == 0 {
		return nil, nil
	}
	if !mostlyNonNumeric(rows[0]) {
		return nil, rows
	}
	headers = [][]string{rows[0]}
	rest := rows[1:]
	if len(rest) > 0 && mostlyNonNumeric(rest[0]) && len(rest) > 1 {
		headers = append(headers, rest[0])
		rest = rest[1:]
	}
	return headers, rest
}

// padRows right-pads every row with empty cells to the widest row's
// length, preserving the rectangular invariant TableBlock requires.
func padRows(rows [][]string) [][]string {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	for i := range rows {
		for len(rows[i]) < width {
			rows[i] = append(rows[i], "")
		}
	}
	return rows
}
