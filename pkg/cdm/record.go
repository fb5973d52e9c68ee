package cdm

import (
	"encoding/json"
	"sort"
)

// JoinStrategy names how a derived record's two sides were matched.
type JoinStrategy string

const (
	// JoinIdentifier means an exact equality match on a shared identifier.
	JoinIdentifier JoinStrategy = "identifier"
	// JoinNaturalKey means a match on a normalized composite natural key.
	JoinNaturalKey JoinStrategy = "natural_key"
	// JoinUnmatched marks a degenerate record whose secondary side was
	// never found.
	JoinUnmatched JoinStrategy = "unmatched"
)

// Join records how a derived record was assembled.
type Join struct {
	Strategy JoinStrategy `json:"strategy"`
	Key      string       `json:"key,omitempty"`
	Sources  []EntityType `json:"sources,omitempty"`
}

// Record is one canonical entity instance. Fields is treated as immutable
// once the record leaves the mapper.
type Record struct {
	Entity   EntityType
	SourceID string
	Fields   map[string]Value
	Join     *Join
}

// Field returns the named field value; missing fields read as null.
func (r Record) Field(name string) Value { return r.Fields[name] }

// FieldNames returns the record's field names in sorted order.
func (r Record) FieldNames() []string {
	names := make([]string, 0, len(r.Fields))
	for n := range r.Fields {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// MarshalJSON emits the record as a flat object: source_id, every mapped
// field, and join provenance for derived records. Key order is
// deterministic.
func (r Record) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(r.Fields)+2)
	for name, v := range r.Fields {
		obj[name] = v
	}
	obj["source_id"] = r.SourceID
	if r.Join != nil {
		obj["join"] = r.Join
	}
	return json.Marshal(obj)
}
