// Package cdm defines the canonical data model produced by the ingest
// pipeline: entity type identifiers, semantic field types, typed values,
// immutable records, and validation primitives.
package cdm

// EntityType identifies one canonical record schema.
type EntityType string

// Base entity types, each backed by one source export file.
const (
	// EntityBusiness identifies the owning business/location record.
	EntityBusiness EntityType = "business"
	// EntityClient identifies a client (patient/customer) record.
	EntityClient EntityType = "client"
	// EntityProfessional identifies a staff member record.
	EntityProfessional EntityType = "professional"
	// EntityService identifies a bookable service record.
	EntityService EntityType = "service"
	// EntityPackage identifies a sold service bundle record.
	EntityPackage EntityType = "package"
	// EntityAppointment identifies a scheduled appointment record.
	EntityAppointment EntityType = "appointment"
	// EntityPayment identifies a payment transaction record.
	EntityPayment EntityType = "payment"
	// EntityProductSale identifies a retail product sale record.
	EntityProductSale EntityType = "product_sale"
	// EntityClientSale identifies a per-client sale summary record.
	EntityClientSale EntityType = "client_sale"
	// EntityDetailedLineItem identifies the detailed line item export.
	// It is a source-only table: consumed by derivations, never emitted
	// as a top-level output key.
	EntityDetailedLineItem EntityType = "detailed_line_item"
)

// Derived entity types, assembled by joining two base tables.
const (
	EntityPackageComponent EntityType = "package_component"
	EntityAppointmentLine  EntityType = "appointment_line"
	EntityClientPackage    EntityType = "client_package"
	EntityProductSaleLine  EntityType = "product_sale_line"
)

var derivedTypes = map[EntityType]bool{
	EntityPackageComponent: true,
	EntityAppointmentLine:  true,
	EntityClientPackage:    true,
	EntityProductSaleLine:  true,
}

// IsDerived reports whether the entity type is built by a derivation join
// rather than mapped directly from a source file.
func (t EntityType) IsDerived() bool { return derivedTypes[t] }

// IsOutput reports whether the entity type appears as a top-level key in the
// canonical output document.
func (t EntityType) IsOutput() bool { return t != EntityDetailedLineItem }

// BaseTypes returns the source-backed entity types in canonical order.
func BaseTypes() []EntityType {
	return []EntityType{
		EntityBusiness,
		EntityClient,
		EntityProfessional,
		EntityService,
		EntityPackage,
		EntityAppointment,
		EntityPayment,
		EntityProductSale,
		EntityClientSale,
		EntityDetailedLineItem,
	}
}

// DerivedTypes returns the derived entity types in canonical order.
func DerivedTypes() []EntityType {
	return []EntityType{
		EntityPackageComponent,
		EntityAppointmentLine,
		EntityClientPackage,
		EntityProductSaleLine,
	}
}

// OutputTypes returns the thirteen entity types emitted in the canonical
// document, base types first, in a stable order.
func OutputTypes() []EntityType {
	out := make([]EntityType, 0, 13)
	for _, t := range BaseTypes() {
		if t.IsOutput() {
			out = append(out, t)
		}
	}
	return append(out, DerivedTypes()...)
}

// FieldType tags the semantic type of a canonical field. Email and phone
// coerce as strings; their grammar is checked by the validator.
type FieldType string

// Semantic field types recognised by the record mapper and validator.
const (
	TypeString   FieldType = "string"
	TypeNumber   FieldType = "number"
	TypeInteger  FieldType = "integer"
	TypeBoolean  FieldType = "boolean"
	TypeDate     FieldType = "date"
	TypeDatetime FieldType = "datetime"
	TypeEmail    FieldType = "email"
	TypePhone    FieldType = "phone"
)

// Known reports whether t is a recognised semantic field type.
func (t FieldType) Known() bool {
	switch t {
	case TypeString, TypeNumber, TypeInteger, TypeBoolean, TypeDate, TypeDatetime, TypeEmail, TypePhone:
		return true
	}
	return false
}
