package cdm

import "fmt"

// ConfigError reports a fatal defect in the adapter mapping document.
// The run aborts before any file is read.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "mapping config: " + e.Reason }

// Configf builds a ConfigError from a format string.
func Configf(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// UnknownEntityError reports a request for an entity type the mapping
// registry does not define.
type UnknownEntityError struct {
	Entity EntityType
}

func (e *UnknownEntityError) Error() string {
	return fmt.Sprintf("unknown entity type %q", string(e.Entity))
}

// MalformedRowError reports a structurally unreadable source row, such as
// a column count that disagrees with the header.
type MalformedRowError struct {
	File   string
	Line   int
	Reason string
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("%s:%d: malformed row: %s", e.File, e.Line, e.Reason)
}
