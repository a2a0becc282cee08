// Package money parses loosely formatted hryvnia prices and formats amounts
// for display in the uk-UA locale.
package money

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Suffix is appended to every formatted amount.
const Suffix = " ₴"

// maxAmount bounds parsed prices so exponent notation cannot produce
// unrenderable values.
var maxAmount = decimal.New(1, 15)

var currencyTokens = []string{"грн.", "грн", "₴", "$", "UAH", "uah"}

var (
	printer              = message.NewPrinter(language.Ukrainian)
	groupSep, decimalSep = localeMarks()
)

// Parse converts a price as it appears in markup ("15 000 ₴", "1.234,50",
// "99.9 грн", "1e5") into a decimal amount. Empty input, letters other than
// currency tokens, and malformed numbers are errors.
func Parse(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if d, err := decimal.NewFromString(s); err == nil {
		return bounded(raw, d)
	}

	for _, tok := range currencyTokens {
		s = strings.ReplaceAll(s, tok, "")
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			b.WriteRune(r)
		default:
			return decimal.Zero, fmt.Errorf("price %q contains %q", raw, r)
		}
	}
	cleaned := normalizeSeparators(b.String())
	if strings.IndexFunc(cleaned, unicode.IsDigit) < 0 {
		return decimal.Zero, fmt.Errorf("price %q has no digits", raw)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q: %w", raw, err)
	}
	return bounded(raw, d)
}

func bounded(raw string, d decimal.Decimal) (decimal.Decimal, error) {
	if d.Abs().GreaterThanOrEqual(maxAmount) {
		return decimal.Zero, fmt.Errorf("price %q is out of range", raw)
	}
	return d, nil
}

// normalizeSeparators rewrites grouping and decimal marks so the result is
// a plain dot-decimal number. With both marks present the last one is the
// decimal separator; a lone comma is decimal unless it is repeated.
func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		return strings.ReplaceAll(s, ".", "")
	default:
		return s
	}
}

// Format renders amount with uk-UA digit grouping, at most two fraction
// digits and the hryvnia suffix. Digits come from the decimal itself, so
// large amounts are exact.
func Format(amount decimal.Decimal) string {
	r := amount.Round(2)
	whole, frac, _ := strings.Cut(r.Abs().StringFixed(2), ".")
	frac = strings.TrimRight(frac, "0")

	var b strings.Builder
	if r.IsNegative() {
		b.WriteString("-")
	}
	for i, d := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(groupSep)
		}
		b.WriteRune(d)
	}
	if frac != "" {
		b.WriteString(decimalSep)
		b.WriteString(frac)
	}
	return b.String() + Suffix
}

// localeMarks reads the uk-UA grouping and decimal separators from x/text.
func localeMarks() (group, dec string) {
	group = firstNonDigit(printer.Sprint(number.Decimal(1000000)))
	dec = firstNonDigit(printer.Sprint(number.Decimal(1.5, number.MinFractionDigits(1))))
	if dec == "" {
		dec = ","
	}
	return group, dec
}

func firstNonDigit(s string) string {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return string(r)
		}
	}
	return ""
}
