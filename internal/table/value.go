// Package table holds the in-memory tabular structure shared by ingestion,
// cleaning and export: ordered named columns and ordered rows of typed cells.
package table

import (
	"strconv"
	"time"
)

// Kind identifies what a cell holds.
type Kind uint8

const (
	KindMissing Kind = iota
	KindText
	KindNumber
	KindTime
)

// String returns the kind name used in reports and JSON.
func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindTime:
		return "datetime"
	default:
		return "unknown"
	}
}

// Value is a single cell. The zero Value is Missing, which is distinct from
// a Text cell holding "".
type Value struct {
	kind     Kind
	text     string
	integral bool
	i        int64
	f        float64
	t        time.Time
}

// Missing returns the missing-value marker.
func Missing() Value { return Value{} }

// Text returns a text cell.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Int returns an integer number cell.
func Int(i int64) Value {
	return Value{kind: KindNumber, integral: true, i: i, f: float64(i)}
}

// Float returns a floating point number cell. Negative zero is stored as
// zero so equal numbers share one row key and one export form.
func Float(f float64) Value {
	if f == 0 {
		f = 0
	}
	return Value{kind: KindNumber, f: f}
}

// Time returns a date/time cell.
func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }

func (v Value) Kind() Kind        { return v.kind }
func (v Value) IsMissing() bool   { return v.kind == KindMissing }
func (v Value) IsInteger() bool   { return v.kind == KindNumber && v.integral }
func (v Value) Str() string       { return v.text }
func (v Value) Int64() int64      { return v.i }
func (v Value) Float64() float64  { return v.f }
func (v Value) TimeOf() time.Time { return v.t }

// Equal reports value equality. Two Missing values are equal. Integer and
// float numbers compare numerically; times compare as instants.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindMissing:
		return true
	case KindText:
		return v.text == o.text
	case KindNumber:
		if v.integral && o.integral {
			return v.i == o.i
		}
		return v.f == o.f
	case KindTime:
		return v.t.Equal(o.t)
	}
	return false
}

// String renders the value the way it is exported. Missing renders as "".
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		if v.integral {
			return strconv.FormatInt(v.i, 10)
		}
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindTime:
		if needsPrecise(v.t) {
			return v.t.Format(PreciseLayout)
		}
		return v.t.Format(DateTimeLayout)
	}
	return ""
}

// key is a collision-free encoding used for row hashing.
func (v Value) key() string {
	switch v.kind {
	case KindMissing:
		return "\x00"
	case KindText:
		return "s" + v.text
	case KindNumber:
		if v.integral {
			return "n" + strconv.FormatFloat(float64(v.i), 'g', -1, 64) + "|" + strconv.FormatInt(v.i, 10)
		}
		if v.f == float64(int64(v.f)) {
			return "n" + strconv.FormatFloat(v.f, 'g', -1, 64) + "|" + strconv.FormatInt(int64(v.f), 10)
		}
		return "n" + strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindTime:
		return "t" + v.t.UTC().Format(time.RFC3339Nano)
	}
	return "?"
}
