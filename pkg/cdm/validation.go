package cdm

// ViolationCode classifies one per-record validation failure.
type ViolationCode string

const (
	// MissingRequiredField flags a required field that is null or absent.
	MissingRequiredField ViolationCode = "missing_required_field"
	// TypeMismatch flags a value that failed semantic type checks.
	TypeMismatch ViolationCode = "type_mismatch"
	// InvalidEnumValue flags a value outside a declared allowed set.
	InvalidEnumValue ViolationCode = "invalid_enum_value"
)

// Violation is one field-level validation failure. Violations never abort
// a run; they are collected into the validation report.
type Violation struct {
	Field string        `json:"field"`
	Code  ViolationCode `json:"code"`
	Raw   string        `json:"raw_value,omitempty"`
}

// ValidationResult holds every violation found on one record.
type ValidationResult struct {
	Entity     EntityType  `json:"entity"`
	SourceID   string      `json:"source_id"`
	Violations []Violation `json:"violations"`
}

// Valid reports whether the record passed every check.
func (r ValidationResult) Valid() bool { return len(r.Violations) == 0 }
