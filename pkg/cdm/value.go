package cdm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

type valueKind uint8

const (
	kindNull valueKind = iota
	kindString
	kindNumber
	kindInteger
	kindBool
	kindDate
	kindDatetime
)

// Value is an immutable typed field value. The zero Value is null.
type Value struct {
	kind valueKind
	str  string
	num  float64
	i    int64
	b    bool
	t    time.Time
}

// Null returns the null value.
func Null() Value { return Value{} }

// String returns a string-kinded value.
func String(s string) Value { return Value{kind: kindString, str: s} }

// Number returns a floating point value.
func Number(f float64) Value { return Value{kind: kindNumber, num: f} }

// Integer returns an integer value.
func Integer(i int64) Value { return Value{kind: kindInteger, i: i} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: kindBool, b: b} }

// Date returns a calendar date value; the time-of-day portion is dropped.
func Date(t time.Time) Value {
	y, m, d := t.Date()
	return Value{kind: kindDate, t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Datetime returns a timestamp value in UTC.
func Datetime(t time.Time) Value { return Value{kind: kindDatetime, t: t.UTC()} }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == kindNull }

// AsString returns the string payload when the value is string-kinded.
func (v Value) AsString() (string, bool) { return v.str, v.kind == kindString }

// AsNumber returns the numeric payload for number and integer values.
func (v Value) AsNumber() (float64, bool) {
	switch v.kind {
	case kindNumber:
		return v.num, true
	case kindInteger:
		return float64(v.i), true
	}
	return 0, false
}

// AsInteger returns the integer payload when the value is integer-kinded.
func (v Value) AsInteger() (int64, bool) { return v.i, v.kind == kindInteger }

// AsBool returns the boolean payload when the value is bool-kinded.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == kindBool }

// AsTime returns the time payload for date and datetime values.
func (v Value) AsTime() (time.Time, bool) {
	return v.t, v.kind == kindDate || v.kind == kindDatetime
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case kindNull:
		return true
	case kindString:
		return v.str == o.str
	case kindNumber:
		return v.num == o.num
	case kindInteger:
		return v.i == o.i
	case kindBool:
		return v.b == o.b
	default:
		return v.t.Equal(o.t)
	}
}

// Text renders the value as the plain string used for join keys and
// synthesized identifiers. Null renders as the empty string.
func (v Value) Text() string {
	switch v.kind {
	case kindNull:
		return ""
	case kindString:
		return v.str
	case kindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case kindInteger:
		return strconv.FormatInt(v.i, 10)
	case kindBool:
		return strconv.FormatBool(v.b)
	case kindDate:
		return v.t.Format("2006-01-02")
	default:
		return v.t.Format(time.RFC3339)
	}
}

// MarshalJSON renders null, JSON string, JSON number, JSON bool, or an
// ISO 8601 string for dates and datetimes.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindNull:
		return []byte("null"), nil
	case kindString:
		return json.Marshal(v.str)
	case kindNumber:
		return json.Marshal(v.num)
	case kindInteger:
		return json.Marshal(v.i)
	case kindBool:
		return json.Marshal(v.b)
	case kindDate, kindDatetime:
		return json.Marshal(v.Text())
	default:
		return nil, fmt.Errorf("cdm: unknown value kind %d", v.kind)
	}
}
