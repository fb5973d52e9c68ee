package ingest

import (
	"math"
	"strconv"
	"strings"
	"time"

	"retentionos/pkg/cdm"
)

func (m *Mapper) coerce(ft cdm.FieldType, raw string) cdm.Value {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return cdm.Null()
	}
	switch ft {
	case cdm.TypeNumber:
		f, err := strconv.ParseFloat(stripAmount(raw), 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return cdm.Null()
		}
		return cdm.Number(f)
	case cdm.TypeInteger:
		f, err := strconv.ParseFloat(stripAmount(raw), 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return cdm.Null()
		}
		return cdm.Integer(int64(f))
	case cdm.TypeBoolean:
		switch strings.ToLower(raw) {
		case "true", "yes", "1":
			return cdm.Bool(true)
		case "false", "no", "0":
			return cdm.Bool(false)
		}
		return cdm.Null()
	case cdm.TypeDate:
		if t, ok := m.parseTime(raw, m.doc.DateFormats(), m.doc.DatetimeFormats()); ok {
			return cdm.Date(t)
		}
		return cdm.Null()
	case cdm.TypeDatetime:
		if t, ok := m.parseTime(raw, m.doc.DatetimeFormats(), m.doc.DateFormats()); ok {
			return cdm.Datetime(t)
		}
		return cdm.Null()
	case cdm.TypePhone:
		return cdm.String(normalizePhone(raw))
	default:
		return cdm.String(raw)
	}
}

func (m *Mapper) parseTime(raw string, layouts ...[]string) (time.Time, bool) {
	for _, set := range layouts {
		for _, layout := range set {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// stripAmount drops currency symbols and thousands separators that
// Boulevard puts in money columns.
func stripAmount(raw string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '$', ',', ' ':
			return -1
		}
		return r
	}, raw)
}

// normalizePhone keeps only digits, preserving one leading plus.
func normalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return raw
	}
	if strings.HasPrefix(strings.TrimSpace(raw), "+") {
		return "+" + digits
	}
	return digits
}
