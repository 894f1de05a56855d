// Package display renders numbers for metric cards. Formatting never fails:
// a value that cannot be rendered becomes an empty string.
package display

import (
	"math"
	"strconv"
	"strings"
)

// Format renders a finite number.
type Format func(float64) string

// Delta colours understood by the frontend.
const (
	Normal  = "normal"
	Inverse = "inverse"
	Off     = "off"
)

// Metric is one scorecard card.
type Metric struct {
	Label      string `json:"label"`
	Value      string `json:"value"`
	Delta      string `json:"delta,omitempty"`
	DeltaColor string `json:"delta_color"`
}

// NewMetric formats value and delta independently, so a bad delta only
// blanks the delta. A nil deltaFormat means the card has no delta.
func NewMetric(label string, value *float64, valueFormat Format, delta *float64, deltaFormat Format, color string) Metric {
	m := Metric{Label: label, Value: Safe(value, valueFormat), DeltaColor: color}
	if deltaFormat != nil {
		m.Delta = Safe(delta, deltaFormat)
	}
	return m
}

// Safe returns "" for nil, NaN and infinite values.
func Safe(v *float64, f Format) string {
	if v == nil || f == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return ""
	}
	return f(*v)
}

// Comma groups thousands. Whole numbers print without a fraction, other
// values keep their shortest representation.
func Comma(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e21 {
		return group(strconv.FormatFloat(v, 'f', 0, 64))
	}
	return group(strconv.FormatFloat(v, 'f', -1, 64))
}

// CommaFixed groups thousands and keeps n decimals.
func CommaFixed(n int) Format {
	return func(v float64) string {
		return group(strconv.FormatFloat(v, 'f', n, 64))
	}
}

// Percent renders a ratio as a percentage with n decimals: 0.1234 is "12.3%"
// for n = 1.
func Percent(n int) Format {
	return func(v float64) string {
		return strconv.FormatFloat(v*100, 'f', n, 64) + "%"
	}
}

// Significant keeps n significant digits followed by suffix. Plain
// notation always carries a fractional digit, so 1 renders as "1.0".
func Significant(n int, suffix string) Format {
	return func(v float64) string {
		s := strconv.FormatFloat(v, 'g', n, 64)
		if !strings.ContainsAny(s, ".e") {
			s += ".0"
		}
		return s + suffix
	}
}

// Millions divides by one million and renders with n decimals and an M.
func Millions(n int) Format {
	fixed := CommaFixed(n)
	return func(v float64) string {
		return fixed(v/1e6) + "M"
	}
}

// group inserts thousands separators into the integer part of a plain
// decimal string.
func group(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	if len(intPart) <= 3 {
		return sign + intPart + frac
	}

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return sign + b.String() + frac
}
