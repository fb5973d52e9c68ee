// Package derive assembles derived entities by joining two mapped base
// tables. The join key is inferred from the adapter's field mappings:
// a shared identifier column when one exists, otherwise a composite
// natural key over name, location, and date fields.
package derive

import (
	"sort"
	"strings"

	"retentionos/internal/adapter"
	"retentionos/pkg/cdm"
)

// fieldPair binds one primary-side field to the secondary-side field it is
// compared against.
type fieldPair struct {
	primary   string
	secondary string
}

type joinKey struct {
	strategy cdm.JoinStrategy
	pairs    []fieldPair
}

// identifierShaped reports whether a source column header names an
// identifier. Boulevard id columns end in "id" with a space or underscore
// separator.
func identifierShaped(column string) bool {
	lower := strings.ToLower(column)
	return lower == "id" || strings.HasSuffix(lower, " id") || strings.HasSuffix(lower, "_id")
}

func keyFieldShaped(field string) bool {
	lower := strings.ToLower(field)
	if lower == "source_id" {
		return false
	}
	return strings.Contains(lower, "name") ||
		strings.Contains(lower, "location") ||
		strings.Contains(lower, "date") ||
		strings.HasSuffix(lower, "_at")
}

// inferKey derives the join key for one derivation from the two sides'
// field mappings. An identifier pair always wins over natural keys.
func inferKey(d adapter.Derivation, primary, secondary adapter.FieldMapping) (joinKey, bool) {
	if pair, ok := sharedIdentifier(primary, secondary); ok {
		return joinKey{strategy: cdm.JoinIdentifier, pairs: []fieldPair{pair}}, true
	}

	// Entity-qualified names: a "<other>_name" field on one side matches
	// the plain "name" field on the other. A qualified pair supersedes the
	// plain name/name pair, since "name" means a different thing on each
	// side.
	var pairs []fieldPair
	qualifiedName := false
	if _, ok := secondary["name"]; ok {
		qualified := string(d.Secondary()) + "_name"
		if _, ok := primary[qualified]; ok {
			pairs = append(pairs, fieldPair{primary: qualified, secondary: "name"})
			qualifiedName = true
		}
	}
	if _, ok := primary["name"]; ok {
		qualified := string(d.Primary()) + "_name"
		if _, ok := secondary[qualified]; ok {
			pairs = append(pairs, fieldPair{primary: "name", secondary: qualified})
			qualifiedName = true
		}
	}
	for field := range primary {
		if _, ok := secondary[field]; !ok || !keyFieldShaped(field) {
			continue
		}
		if field == "name" && qualifiedName {
			continue
		}
		pairs = append(pairs, fieldPair{primary: field, secondary: field})
	}
	if len(pairs) == 0 {
		return joinKey{}, false
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].primary < pairs[j].primary })
	return joinKey{strategy: cdm.JoinNaturalKey, pairs: pairs}, true
}

func sharedIdentifier(primary, secondary adapter.FieldMapping) (fieldPair, bool) {
	pFields := sortedFields(primary)
	sFields := sortedFields(secondary)
	for _, pf := range pFields {
		if !identifierShaped(primary[pf]) {
			continue
		}
		for _, sf := range sFields {
			if primary[pf] == secondary[sf] {
				return fieldPair{primary: pf, secondary: sf}, true
			}
		}
	}
	return fieldPair{}, false
}

func sortedFields(fm adapter.FieldMapping) []string {
	out := make([]string, 0, len(fm))
	for f := range fm {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// keyOf renders a record's join key: each part lower-cased with
// whitespace collapsed, parts joined with "|". Empty when every part is
// null.
func keyOf(rec cdm.Record, fields []string) string {
	parts := make([]string, len(fields))
	empty := true
	for i, f := range fields {
		parts[i] = normalizeKeyPart(rec.Field(f).Text())
		if parts[i] != "" {
			empty = false
		}
	}
	if empty {
		return ""
	}
	return strings.Join(parts, "|")
}

func normalizeKeyPart(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
