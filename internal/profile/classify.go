package profile

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	minDateYear = 1900
	maxDateYear = 2100
)

// currencyPrefixes lists the symbols stripped from the front of numeric text.
var currencyPrefixes = []string{"$", "€", "£", "¥", "₹"}

var plainNumber = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"2006/1/2",
	"2006-1-2",
	"01/02/2006",
	"1/2/2006",
	"02/01/2006",
	"01-02-2006",
	"02-01-2006",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	time.RFC3339Nano,
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"January 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"02-Jan-2006",
	"Mon, 02 Jan 2006",
	time.RFC1123,
	time.RFC1123Z,
	time.RFC850,
	time.ANSIC,
}

// IsNumeric reports whether v is a finite number, tolerating thousands
// commas and one leading currency symbol in text.
func IsNumeric(v any) bool {
	_, ok := coerceNumber(v)
	return ok
}

// coerceNumber converts v to a finite float64 using the same rules as IsNumeric.
func coerceNumber(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	if f, ok := asFloat(v); ok {
		return f, !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	raw := strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	for _, sym := range currencyPrefixes {
		if strings.HasPrefix(raw, sym) {
			raw = strings.TrimSpace(strings.TrimPrefix(raw, sym))
			break
		}
	}
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// IsDate reports whether v looks like a calendar date in a plausible year.
// Short text and bare integers/decimals are rejected so numeric columns are
// not read as dates.
func IsDate(v any) bool {
	if v == nil {
		return false
	}
	if t, ok := v.(time.Time); ok {
		return plausibleYear(t)
	}
	s := strings.TrimSpace(Stringify(v))
	if len(s) <= 5 || plainNumber.MatchString(s) {
		return false
	}
	t, ok := parseDate(s)
	return ok && plausibleYear(t)
}

func parseDate(s string) (time.Time, bool) {
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func plausibleYear(t time.Time) bool {
	y := t.Year()
	return y >= minDateYear && y <= maxDateYear
}

// IsBooleanLiteral reports whether v reads as true or false.
func IsBooleanLiteral(v any) bool {
	if v == nil {
		return false
	}
	switch strings.ToLower(Stringify(v)) {
	case "true", "false":
		return true
	}
	return false
}

// inferType picks the column type from classifier tallies over defined cells.
func inferType(defined, numeric, dates, booleans int, threshold float64) ColumnType {
	if defined == 0 {
		return TypeString
	}
	n := float64(defined)
	switch {
	case float64(numeric)/n > threshold:
		return TypeNumber
	case float64(dates)/n > threshold:
		return TypeDate
	case float64(booleans)/n > threshold:
		return TypeBoolean
	}
	return TypeString
}
