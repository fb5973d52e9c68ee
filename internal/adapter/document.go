package adapter

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"os"
	"strings"

	"retentionos/pkg/cdm"
)

//go:embed boulevard.json
var boulevardJSON []byte

// Document is one validated adapter mapping document.
type Document struct {
	kind            Kind
	files           map[cdm.EntityType]string
	mappings        map[cdm.EntityType]FieldMapping
	derivations     []Derivation
	rules           map[cdm.EntityType]map[string]FieldRule
	aliases         map[cdm.EntityType]map[string]map[string]string
	dateFormats     []string
	datetimeFormats []string
}

type rawDocument struct {
	Adapter         string                                  `json:"adapter"`
	FileMapping     map[string]string                       `json:"file_mapping"`
	EntityMappings  map[string]json.RawMessage              `json:"entity_mappings"`
	ValidationRules map[string]map[string]FieldRule         `json:"validation_rules"`
	ValueAliases    map[string]map[string]map[string]string `json:"value_aliases"`
	DateFormats     []string                                `json:"date_formats"`
	DatetimeFormats []string                                `json:"datetime_formats"`
}

type rawDerivation struct {
	Derived bool     `json:"derived"`
	Sources []string `json:"sources"`
}

var knownEntities = func() map[cdm.EntityType]bool {
	m := make(map[cdm.EntityType]bool)
	for _, t := range cdm.BaseTypes() {
		m[t] = true
	}
	for _, t := range cdm.DerivedTypes() {
		m[t] = true
	}
	return m
}()

func parseEntity(name string) (cdm.EntityType, error) {
	t := cdm.EntityType(name)
	if !knownEntities[t] {
		return "", cdm.Configf("unknown entity type %q", name)
	}
	return t, nil
}

// Boulevard loads the embedded default Boulevard mapping document.
func Boulevard() (*Document, error) { return Load(boulevardJSON) }

// LoadFile loads a mapping document from an external JSON file.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cdm.Configf("read mapping document: %v", err)
	}
	return Load(data)
}

// Load parses and validates a mapping document. Any structural defect is a
// ConfigError; a loaded document never fails a lookup for a registered
// entity.
func Load(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var raw rawDocument
	if err := dec.Decode(&raw); err != nil {
		return nil, cdm.Configf("decode mapping document: %v", err)
	}
	kind, err := ParseKind(raw.Adapter)
	if err != nil {
		return nil, err
	}
	doc := &Document{
		kind:            kind,
		files:           make(map[cdm.EntityType]string, len(raw.FileMapping)),
		mappings:        make(map[cdm.EntityType]FieldMapping, len(raw.EntityMappings)),
		rules:           make(map[cdm.EntityType]map[string]FieldRule, len(raw.ValidationRules)),
		aliases:         make(map[cdm.EntityType]map[string]map[string]string, len(raw.ValueAliases)),
		dateFormats:     raw.DateFormats,
		datetimeFormats: raw.DatetimeFormats,
	}

	derived := make(map[cdm.EntityType]Derivation)
	for name, body := range raw.EntityMappings {
		entity, err := parseEntity(name)
		if err != nil {
			return nil, err
		}
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(body, &probe); err != nil {
			return nil, cdm.Configf("entity %q: mapping is not an object", name)
		}
		if _, ok := probe["derived"]; ok {
			var rd rawDerivation
			if err := json.Unmarshal(body, &rd); err != nil || !rd.Derived {
				return nil, cdm.Configf("entity %q: malformed derivation", name)
			}
			d, err := buildDerivation(entity, rd.Sources)
			if err != nil {
				return nil, err
			}
			derived[entity] = d
			continue
		}
		var fm FieldMapping
		if err := json.Unmarshal(body, &fm); err != nil {
			return nil, cdm.Configf("entity %q: field mapping values must be column names", name)
		}
		if len(fm) == 0 {
			return nil, cdm.Configf("entity %q: empty field mapping", name)
		}
		for field, column := range fm {
			if strings.TrimSpace(column) == "" {
				return nil, cdm.Configf("entity %q: field %q maps to an empty column", name, field)
			}
		}
		doc.mappings[entity] = fm
	}

	for name, file := range raw.FileMapping {
		entity, err := parseEntity(name)
		if err != nil {
			return nil, err
		}
		if _, ok := doc.mappings[entity]; !ok {
			return nil, cdm.Configf("file %q maps entity %q which has no field mapping", file, name)
		}
		doc.files[entity] = file
	}

	// Validate derivation sources against the loaded base mappings.
	for _, entity := range cdm.DerivedTypes() {
		d, ok := derived[entity]
		if !ok {
			continue
		}
		for _, src := range d.Sources {
			if src.IsDerived() {
				return nil, cdm.Configf("derived entity %q: source %q is itself derived", entity, src)
			}
			if _, ok := doc.mappings[src]; !ok {
				return nil, cdm.Configf("derived entity %q: source %q has no field mapping", entity, src)
			}
		}
		doc.derivations = append(doc.derivations, d)
	}
	for entity := range derived {
		if !entity.IsDerived() {
			return nil, cdm.Configf("entity %q declared derived but is a base type", entity)
		}
	}

	for name, fields := range raw.ValidationRules {
		entity, err := parseEntity(name)
		if err != nil {
			return nil, err
		}
		fm, ok := doc.mappings[entity]
		if !ok && !entity.IsDerived() {
			return nil, cdm.Configf("validation rules for %q but entity has no field mapping", name)
		}
		for field, rule := range fields {
			if !rule.Type.Known() {
				return nil, cdm.Configf("entity %q field %q: unknown type %q", name, field, rule.Type)
			}
			if ok {
				if _, mapped := fm[field]; !mapped {
					return nil, cdm.Configf("entity %q: rule for unmapped field %q", name, field)
				}
			}
		}
		doc.rules[entity] = fields
	}

	for name, fields := range raw.ValueAliases {
		entity, err := parseEntity(name)
		if err != nil {
			return nil, err
		}
		doc.aliases[entity] = fields
	}
	return doc, nil
}

func buildDerivation(entity cdm.EntityType, sources []string) (Derivation, error) {
	if len(sources) != 2 {
		return Derivation{}, cdm.Configf("derived entity %q: needs exactly two sources, got %d", entity, len(sources))
	}
	d := Derivation{Entity: entity}
	for i, s := range sources {
		src, err := parseEntity(s)
		if err != nil {
			return Derivation{}, cdm.Configf("derived entity %q: %v", entity, err)
		}
		d.Sources[i] = src
	}
	return d, nil
}

// Kind returns the adapter kind the document was written for.
func (d *Document) Kind() Kind { return d.kind }

// FieldMappingFor returns the base entity's canonical-field to source-column
// mapping.
func (d *Document) FieldMappingFor(entity cdm.EntityType) (FieldMapping, error) {
	fm, ok := d.mappings[entity]
	if !ok {
		return nil, &cdm.UnknownEntityError{Entity: entity}
	}
	return fm, nil
}

// FileFor returns the export file name for a base entity type.
func (d *Document) FileFor(entity cdm.EntityType) (string, bool) {
	f, ok := d.files[entity]
	return f, ok
}

// MappedEntities returns every base entity type with a file binding, in
// canonical order.
func (d *Document) MappedEntities() []cdm.EntityType {
	out := make([]cdm.EntityType, 0, len(d.files))
	for _, t := range cdm.BaseTypes() {
		if _, ok := d.files[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Derivations returns the derived entity declarations in canonical order.
func (d *Document) Derivations() []Derivation { return d.derivations }

// RulesFor returns the entity's validation rules; entities without rules
// return an empty map.
func (d *Document) RulesFor(entity cdm.EntityType) map[string]FieldRule {
	return d.rules[entity]
}

// Alias resolves a raw source value through the entity's alias table. The
// lookup is case-insensitive on the raw value; unmatched values pass
// through unchanged.
func (d *Document) Alias(entity cdm.EntityType, field, raw string) string {
	table, ok := d.aliases[entity][field]
	if !ok {
		return raw
	}
	if v, ok := table[raw]; ok {
		return v
	}
	if v, ok := table[strings.ToLower(raw)]; ok {
		return v
	}
	return raw
}

// DateFormats returns the adapter's date layout list.
func (d *Document) DateFormats() []string { return d.dateFormats }

// DatetimeFormats returns the adapter's datetime layout list.
func (d *Document) DatetimeFormats() []string { return d.datetimeFormats }
