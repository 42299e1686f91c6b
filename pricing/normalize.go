package pricing

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Magnitude bounds for a raw parsed amount. Values outside this window are
// rejected as parse noise rather than prices.
const (
	minParsable = 0.01
	maxParsable = 10_000_000
)

// ErrNotAPrice is returned by Normalize when the input cannot be read as a
// plausible monetary amount.
var ErrNotAPrice = errors.New("pricing: not a plausible price")

// Normalize turns a raw numeric substring into a canonical decimal value,
// resolving the thousands/decimal separator ambiguity between Turkish
// ("16.000,50") and international ("16,000.50") formats.
//
// When both separators are present, whichever occurs later in the string is
// the decimal separator and every occurrence of the other is stripped as
// thousands grouping. A lone separator is decimal only when it is followed
// by 1-2 digits and preceded by at most 4 digits ("483,12"); otherwise it is
// thousands grouping ("16.000").
func Normalize(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, ErrNotAPrice
	}

	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")

	switch {
	case hasDot && hasComma:
		lastDot := strings.LastIndex(s, ".")
		lastComma := strings.LastIndex(s, ",")
		if lastComma > lastDot {
			// Turkish style: dots group thousands, comma is decimal.
			s = strings.ReplaceAll(s[:lastComma], ".", "") + "." + s[lastComma+1:]
		} else {
			// International style: commas group thousands, dot is decimal.
			s = strings.ReplaceAll(s[:lastDot], ",", "") + "." + s[lastDot+1:]
		}
	case hasComma:
		if isLoneDecimal(s, ",") {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasDot:
		if !isLoneDecimal(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrNotAPrice
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, ErrNotAPrice
	}
	if v < minParsable || v > maxParsable {
		return 0, ErrNotAPrice
	}
	return v, nil
}

// isLoneDecimal reports whether a single-separator number like "483,12"
// should be read as a decimal amount rather than thousands grouping.
func isLoneDecimal(s, sep string) bool {
	parts := strings.Split(s, sep)
	if len(parts) != 2 {
		return false
	}
	frac := len(parts[1])
	return frac >= 1 && frac <= 2 && len(parts[0]) <= 4
}
