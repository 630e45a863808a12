package dataprocessing

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/xuri/excelize/v2"
)

// nullTokens are cell values treated as missing.
var nullTokens = map[string]struct{}{
	"":     {},
	"na":   {},
	"n/a":  {},
	"#n/a": {},
	"nan":  {},
	"null": {},
	"none": {},
	"-":    {},
}

// dateLayouts are tried in order when parsing the Date column.
var dateLayouts = []string{
	time.DateOnly,
	"2006/01/02",
	time.RFC3339,
	time.DateTime,
	"2006-01-02T15:04:05",
	"01/02/2006",
	"1/2/2006",
}

// IsNull reports whether a raw cell represents a missing value.
func IsNull(cell string) bool {
	_, ok := nullTokens[strings.ToLower(strings.TrimSpace(cell))]
	return ok
}

// ParseNumber parses a plain numeric cell. NaN and infinities are rejected.
func ParseNumber(cell string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", cell)
	}
	return v, nil
}

// ParseCurrency parses a currency-formatted amount such as "$16,174.00".
// The dollar sign, thousands separators and surrounding spaces are stripped;
// a bare number is accepted as-is.
func ParseCurrency(cell string) (float64, error) {
	s := strings.TrimSpace(cell)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if s == "" {
		return 0, errors.New("empty currency amount")
	}
	v, err := ParseNumber(s)
	if err != nil {
		return 0, err
	}
	if negative {
		v = -v
	}
	return v, nil
}

// ParseDate parses a calendar date. When excelSerial is set a bare number is
// read as an Excel serial date.
func ParseDate(cell string, excelSerial bool) (time.Time, error) {
	s := strings.TrimSpace(cell)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if excelSerial {
		if serial, err := strconv.ParseFloat(s, 64); err == nil {
			return excelize.ExcelDateToTime(serial, false)
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", cell)
}

// ParseDurationDays extracts the leading integer of a duration such as
// "30 days". A bare number is truncated to whole days. ok is false when no
// number can be found.
func ParseDurationDays(text string) (days int, ok bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return int(v), true
	}
	end := 0
	for end < len(s) && unicode.IsDigit(rune(s[end])) {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
