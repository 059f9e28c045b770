package core

import (
	"strconv"
	"strings"
	"unicode"
)

// CleanCell trims whitespace and strips the Excel formula prefix (="value")
// that spreadsheet exports sometimes wrap around phone numbers.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

// NormalizePhone returns the comparison key for a phone number.
//
// Separators (space, dash, dot, slash, parentheses) are dropped, a single
// leading '+' is kept and letters are lower-cased, so "+1 (888) 000-0001"
// and "+1-888-000-0001" compare equal. An input with no digits or letters
// normalizes to "".
func NormalizePhone(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	if s[0] == '+' {
		b.WriteByte('+')
		s = s[1:]
	}
	body := 0
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
			body++
		case unicode.IsLetter(r):
			b.WriteRune(unicode.ToLower(r))
			body++
		}
	}
	if body == 0 {
		return ""
	}
	return b.String()
}

// parseAge converts an age cell to a non-negative int.
// Empty, non-numeric and negative values are treated as absent.
func parseAge(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	age, err := strconv.Atoi(s)
	if err != nil || age < 0 {
		return nil
	}
	return &age
}

// isEmptyRow reports whether every field of a row is blank.
func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// FormatAge renders an optional age for display and export.
func FormatAge(age *int) string {
	if age == nil {
		return ""
	}
	return strconv.Itoa(*age)
}
