package excel

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind discriminates the raw shapes a spreadsheet cell can arrive in.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindString
	KindNumber
	KindDate
	KindRichText
	KindFormula
)

// Value is the tagged variant the engine sees for one raw cell. Rich-text and
// formula-result wrappers carry an inner value and are unwrapped by the
// normalization functions before any interpretation happens.
type Value struct {
	kind    Kind
	str     string
	num     float64
	date    time.Time
	formula string
	inner   *Value
}

// Empty returns the zero cell value.
func Empty() Value { return Value{kind: KindEmpty} }

// String wraps a plain string cell value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number wraps a plain numeric cell value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Date wraps a native date cell value.
func Date(t time.Time) Value { return Value{kind: KindDate, date: t} }

// RichText wraps a rich-text cell around its flattened text.
func RichText(text Value) Value {
	return Value{kind: KindRichText, inner: &text}
}

// Formula wraps a formula cell around its cached result.
func Formula(formula string, result Value) Value {
	return Value{kind: KindFormula, formula: formula, inner: &result}
}

// FromRaw classifies one raw string produced by a sequential worksheet read.
// Numeric-looking text becomes a number unless it carries leading zeros that a
// numeric round-trip would destroy (asset and serial identifiers).
func FromRaw(raw string) Value {
	if raw == "" {
		return Empty()
	}
	if f, ok := rawNumber(raw); ok {
		return Number(f)
	}
	return String(raw)
}

// rawNumber reports whether raw is a faithful decimal representation of a
// number. Strings such as "0012" stay strings.
func rawNumber(raw string) (float64, bool) {
	s := raw
	neg := strings.HasPrefix(s, "-")
	body := strings.TrimPrefix(s, "-")
	if body == "" {
		return 0, false
	}
	if len(body) > 1 && body[0] == '0' && body[1] != '.' {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	_ = neg
	return f, true
}

// Kind returns the outermost kind, wrappers included.
func (v Value) Kind() Kind { return v.kind }

// unwrap follows rich-text and formula wrappers until a primitive is reached.
func (v Value) unwrap() Value {
	for v.kind == KindRichText || v.kind == KindFormula {
		if v.inner == nil {
			return Empty()
		}
		v = *v.inner
	}
	return v
}

// FormulaText returns the literal formula text for formula cells, "" otherwise.
func (v Value) FormulaText() string {
	if v.kind == KindFormula {
		return v.formula
	}
	return ""
}

// IsEmpty reports whether the value normalizes to nothing at all.
func (v Value) IsEmpty() bool {
	p := v.unwrap()
	switch p.kind {
	case KindEmpty:
		return true
	case KindString:
		return strings.TrimSpace(p.str) == ""
	}
	return false
}

// IsFalsy reports whether the value counts as unfilled for the purposes of
// blank-row detection: empty, a placeholder string, or an exact zero.
func (v Value) IsFalsy() bool {
	p := v.unwrap()
	switch p.kind {
	case KindEmpty:
		return true
	case KindString:
		return NormalizeString(v) == ""
	case KindNumber:
		return p.num == 0
	case KindDate:
		return p.date.IsZero()
	}
	return true
}

// Interface converts the value to the concrete type handed to the worksheet
// writer: nil, string, float64, or time.Time.
func (v Value) Interface() interface{} {
	p := v.unwrap()
	switch p.kind {
	case KindString:
		return p.str
	case KindNumber:
		return p.num
	case KindDate:
		return p.date
	}
	return nil
}

// placeholders are domain markers for "not filled in". They never normalize
// to 0 or "0", which would be indistinguishable from an explicit zero.
func isPlaceholder(s string) bool {
	switch s {
	case "", "-", "/":
		return true
	}
	return false
}

// NormalizeString flattens any cell value into a trimmed string. Placeholder
// markers normalize to the empty string; dates normalize to yyyymmdd.
func NormalizeString(v Value) string {
	p := v.unwrap()
	switch p.kind {
	case KindString:
		s := strings.TrimSpace(p.str)
		if isPlaceholder(s) {
			return ""
		}
		return s
	case KindNumber:
		if math.IsNaN(p.num) || math.IsInf(p.num, 0) {
			return ""
		}
		return strconv.FormatFloat(p.num, 'f', -1, 64)
	case KindDate:
		return FormatYMD(p.date)
	}
	return ""
}

// ToNumber interprets a cell as a number, stripping thousands separators.
// Unparseable content reports false rather than leaking NaN into arithmetic.
func ToNumber(v Value) (float64, bool) {
	p := v.unwrap()
	switch p.kind {
	case KindNumber:
		if math.IsNaN(p.num) || math.IsInf(p.num, 0) {
			return 0, false
		}
		return p.num, true
	case KindString:
		s := strings.TrimSpace(strings.ReplaceAll(p.str, ",", ""))
		if isPlaceholder(s) {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// serialEpoch is day zero of the spreadsheet date system. The conversion is
// done in UTC: source files are authored in a fixed timezone and the host
// timezone must not shift the calendar day.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// dateLayouts are tried in order for string-typed date cells.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"20060102",
	time.RFC3339,
}

// ParseDate interprets a cell as a calendar date: native dates pass through,
// positive day-serials convert against the 1899-12-30 epoch, and strings are
// tried against the common layouts.
func ParseDate(v Value) (time.Time, bool) {
	p := v.unwrap()
	switch p.kind {
	case KindDate:
		if p.date.IsZero() {
			return time.Time{}, false
		}
		return p.date, true
	case KindNumber:
		return serialToDate(p.num)
	case KindString:
		s := strings.TrimSpace(p.str)
		if isPlaceholder(s) {
			return time.Time{}, false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return serialToDate(f)
		}
		for _, layout := range dateLayouts {
			if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func serialToDate(serial float64) (time.Time, bool) {
	if serial <= 0 || math.IsNaN(serial) || math.IsInf(serial, 0) {
		return time.Time{}, false
	}
	days := int(serial)
	frac := serial - float64(days)
	t := serialEpoch.AddDate(0, 0, days)
	sec := int64(frac*86400 + 0.5)
	return t.Add(time.Duration(sec) * time.Second), true
}

// FormatYMD renders a date as yyyymmdd.
func FormatYMD(t time.Time) string {
	return t.Format("20060102")
}
