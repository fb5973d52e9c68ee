// Package validate checks canonical records against the adapter's
// validation rules. Violations are collected, never raised as errors, so
// one bad record cannot abort a run.
package validate

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"retentionos/internal/adapter"
	"retentionos/pkg/cdm"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
)

// Validator applies per-entity field rules from the mapping document.
type Validator struct {
	doc *adapter.Document
}

// New builds a Validator over a validated mapping document.
func New(doc *adapter.Document) *Validator { return &Validator{doc: doc} }

// Validate checks one record. Rules are applied in sorted field order so
// violation lists are deterministic.
func (v *Validator) Validate(rec cdm.Record) cdm.ValidationResult {
	res := cdm.ValidationResult{Entity: rec.Entity, SourceID: rec.SourceID}
	rules := v.doc.RulesFor(rec.Entity)
	if len(rules) == 0 {
		return res
	}
	fields := make([]string, 0, len(rules))
	for f := range rules {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	for _, field := range fields {
		rule := rules[field]
		val := rec.Field(field)
		if val.IsNull() {
			if rule.Required {
				res.Violations = append(res.Violations, cdm.Violation{
					Field: field,
					Code:  cdm.MissingRequiredField,
				})
			}
			continue
		}
		if !typeOK(rule.Type, val) {
			res.Violations = append(res.Violations, cdm.Violation{
				Field: field,
				Code:  cdm.TypeMismatch,
				Raw:   val.Text(),
			})
			continue
		}
		if len(rule.Allowed) > 0 && !allowed(rule.Allowed, val.Text()) {
			res.Violations = append(res.Violations, cdm.Violation{
				Field: field,
				Code:  cdm.InvalidEnumValue,
				Raw:   val.Text(),
			})
		}
	}
	return res
}

func typeOK(ft cdm.FieldType, val cdm.Value) bool {
	switch ft {
	case cdm.TypeString:
		_, ok := val.AsString()
		return ok
	case cdm.TypeEmail:
		s, ok := val.AsString()
		return ok && emailPattern.MatchString(s)
	case cdm.TypePhone:
		s, ok := val.AsString()
		return ok && phonePattern.MatchString(strings.TrimSpace(s))
	case cdm.TypeNumber:
		f, ok := val.AsNumber()
		return ok && !math.IsInf(f, 0) && !math.IsNaN(f)
	case cdm.TypeInteger:
		_, ok := val.AsInteger()
		return ok
	case cdm.TypeBoolean:
		_, ok := val.AsBool()
		return ok
	case cdm.TypeDate, cdm.TypeDatetime:
		_, ok := val.AsTime()
		return ok
	}
	return false
}

func allowed(values []string, text string) bool {
	for _, v := range values {
		if v == text {
			return true
		}
	}
	return false
}
