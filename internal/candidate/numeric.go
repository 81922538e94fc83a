// Package candidate generates CandidateValue records from TableBlocks and
// TextBlocks within a located Section, the numeric parser being the
// shared core both the table-path and text-path generators call.
package candidate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/finxtract/finxtract/internal/scale"
)

// ParsedNumber is a raw numeric token resolved to an exact decimal plus
// the sign/unit conventions the parser had to interpret to get there.
type ParsedNumber struct {
	Value        decimal.Decimal
	WasNegative  bool // parenthesized or leading-minus negative
	WasPercent   bool
	CurrencyHint string // symbol or code seen adjacent to the token, if any
	ScaleHint    string // scale suffix seen adjacent to the token, if any
}

var (
	reCurrencySymbol = regexp.MustCompile(`[£$€¥]`)
	reCurrencyWord   = regexp.MustCompile(`(?i)^(GBP|USD|EUR)\s*`)
	reScaleSuffix    = regexp.MustCompile(`(?i)\s*(million|mn|m|billion|bn|b|thousand|k)\s*$`)
	reParenNegative  = regexp.MustCompile(`^\((.*)\)$`)
	reThousandsComma = regexp.MustCompile(`,`)
	rePlainNumber    = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

// ParseNumericToken runs the tiered numeric parsing strategy over a raw
// table cell or inline text token:
//  1. strip a currency symbol ("£120.5") or code prefix ("GBP 120.5"),
//     recording it as a hint rather than discarding the information;
//  2. strip a trailing percent sign;
//  3. strip a trailing scale suffix ("1.2m", "250 thousand", "3bn"),
//     likewise recorded as a hint;
//  4. recognize parenthesized values as negative, the convention UK/US
//     filings use instead of a leading minus sign;
//  5. strip thousands-separator commas;
//  6. parse what remains as an exact decimal, rejecting anything that
//     still contains letters or stray punctuation (those are not numeric
//     tokens at all and ParseNumericToken returns ok=false rather than
//     guessing).
func ParseNumericToken(raw string) (ParsedNumber, bool) {
	token := strings.TrimSpace(raw)
	if token == "" || token == "-" || strings.EqualFold(token, "n/a") || strings.EqualFold(token, "nil") {
		return ParsedNumber{}, false
	}

	var result ParsedNumber

	if sym := reCurrencySymbol.FindString(token); sym != "" {
		result.CurrencyHint = symbolToCurrency(sym)
		token = reCurrencySymbol.ReplaceAllString(token, "")
	} else if m := reCurrencyWord.FindString(token); m != "" {
		result.CurrencyHint = strings.ToUpper(strings.TrimSpace(m))
		token = strings.TrimPrefix(token, m)
	}

	token = strings.TrimSpace(token)
	if strings.HasSuffix(token, "%") {
		result.WasPercent = true
		token = strings.TrimSuffix(token, "%")
	}

	token = strings.TrimSpace(token)
	if m := reScaleSuffix.FindString(token); m != "" && len(m) < len(token) {
		result.ScaleHint = scale.Detect(strings.TrimSpace(m))
		token = strings.TrimSuffix(token, m)
	}

	token = strings.TrimSpace(token)
	if m := reParenNegative.FindStringSubmatch(token); m != nil {
		result.WasNegative = true
		token = strings.TrimSpace(m[1])
	}

	token = reThousandsComma.ReplaceAllString(token, "")
	token = strings.TrimSpace(token)

	if !rePlainNumber.MatchString(token) {
		return ParsedNumber{}, false
	}

	value, err := decimal.NewFromString(token)
	if err != nil {
		return ParsedNumber{}, false
	}
	if result.WasNegative {
		// Parentheses always mean negative, even if the enclosed text also
		// carries its own leading minus sign (e.g. "(-100)"): take the
		// magnitude first so the two negative conventions don't cancel
		// each other out.
		value = value.Abs().Neg()
	}
	result.Value = value
	return result, true
}

func symbolToCurrency(symbol string) string {
	switch symbol {
	case "£":
		return "GBP"
	case "$":
		return "USD"
	case "€":
		return "EUR"
	case "¥":
		return "JPY"
	default:
		return ""
	}
}

// Validate is a convenience wrapper returning an error instead of ok=false,
// used by generators that need to log why a token was rejected.
func Validate(raw string) (ParsedNumber, error) {
	p, ok := ParseNumericToken(raw)
	if !ok {
		return ParsedNumber{}, fmt.Errorf("candidate: %q is not a numeric token", raw)
	}
	return p, nil
}
