package ingest

import (
	"sort"
	"strings"

	"retentionos/internal/adapter"
	"retentionos/pkg/cdm"
)

// Mapper converts raw source rows into canonical records using the loaded
// mapping document. A Mapper is safe for concurrent use.
type Mapper struct {
	doc *adapter.Document
}

// NewMapper builds a Mapper over a validated mapping document.
func NewMapper(doc *adapter.Document) *Mapper { return &Mapper{doc: doc} }

// MapRow maps one source row to a canonical record. Mapping never fails on
// well-formed rows: uncoercible cells become null. The only errors are
// lookups of unregistered entity types.
func (m *Mapper) MapRow(entity cdm.EntityType, row map[string]string) (cdm.Record, error) {
	fm, err := m.doc.FieldMappingFor(entity)
	if err != nil {
		return cdm.Record{}, err
	}
	rules := m.doc.RulesFor(entity)

	fields := make(map[string]cdm.Value, len(fm))
	names := make([]string, 0, len(fm))
	for field := range fm {
		names = append(names, field)
	}
	sort.Strings(names)

	for _, field := range names {
		raw, ok := lookupColumn(row, fm[field])
		if !ok {
			fields[field] = cdm.Null()
			continue
		}
		raw = m.doc.Alias(entity, field, strings.TrimSpace(raw))
		ft := cdm.TypeString
		if rule, ok := rules[field]; ok {
			ft = rule.Type
		}
		fields[field] = m.coerce(ft, raw)
	}

	rec := cdm.Record{Entity: entity, Fields: fields}
	if id := fields["source_id"].Text(); id != "" {
		rec.SourceID = id
	} else {
		rec.SourceID = synthesizeID(names, fields)
	}
	return rec, nil
}

// MapTable maps a whole table, preserving row order.
func (m *Mapper) MapTable(entity cdm.EntityType, t *Table) ([]cdm.Record, error) {
	records := make([]cdm.Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec, err := m.MapRow(entity, row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// lookupColumn finds a cell by header name: exact, then case-insensitive,
// then ignoring spaces. Boulevard exports are inconsistent about header
// casing between report versions.
func lookupColumn(row map[string]string, column string) (string, bool) {
	if v, ok := row[column]; ok {
		return v, true
	}
	lower := strings.ToLower(column)
	for k, v := range row {
		if strings.ToLower(k) == lower {
			return v, true
		}
	}
	squashed := strings.ReplaceAll(lower, " ", "")
	for k, v := range row {
		if strings.ReplaceAll(strings.ToLower(k), " ", "") == squashed {
			return v, true
		}
	}
	return "", false
}

// synthesizeID builds a deterministic identifier for rows whose export
// carries no identifier column: every mapped value in canonical field
// order.
func synthesizeID(sortedNames []string, fields map[string]cdm.Value) string {
	parts := make([]string, 0, len(sortedNames))
	for _, n := range sortedNames {
		if n == "source_id" {
			continue
		}
		parts = append(parts, fields[n].Text())
	}
	return strings.Join(parts, "|")
}
