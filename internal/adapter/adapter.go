// Package adapter loads and validates CRM adapter mapping documents. A
// document binds source export files to canonical entity types, canonical
// fields to source columns, and carries per-field validation rules and
// value alias tables. Documents are read-only after Load.
package adapter

import "retentionos/pkg/cdm"

// Kind identifies a supported source CRM.
type Kind string

// KindBoulevard is the Boulevard CRM export adapter.
const KindBoulevard Kind = "boulevard"

// ParseKind validates an adapter name from config or CLI flags.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindBoulevard:
		return KindBoulevard, nil
	}
	return "", cdm.Configf("unsupported adapter %q", s)
}

// FieldMapping maps canonical field names to source column headers for one
// base entity type.
type FieldMapping map[string]string

// Derivation declares a derived entity assembled from two base tables.
// The primary source is listed first and wins field collisions.
type Derivation struct {
	Entity  cdm.EntityType
	Sources [2]cdm.EntityType
}

// Primary returns the derivation's primary source entity type.
func (d Derivation) Primary() cdm.EntityType { return d.Sources[0] }

// Secondary returns the derivation's secondary source entity type.
func (d Derivation) Secondary() cdm.EntityType { return d.Sources[1] }

// FieldRule is one validation rule attached to a canonical field.
type FieldRule struct {
	Type     cdm.FieldType `json:"type"`
	Required bool          `json:"required"`
	Allowed  []string      `json:"allowed_values,omitempty"`
}
