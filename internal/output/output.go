// Package output assembles the canonical document and validation report
// for one run and stores them as JSON artifacts. Neither artifact carries
// a timestamp, so re-running the same input produces byte-identical
// output.
package output

import (
	"strings"

	"retentionos/internal/derive"
	"retentionos/internal/resolve"
	"retentionos/pkg/cdm"
)

// Document is the canonical output: all thirteen entity types keyed by
// name, with per-type counts.
type Document struct {
	SourceSystem string                          `json:"source_system"`
	BusinessName string                          `json:"business_name"`
	EntityCounts map[cdm.EntityType]int          `json:"entity_counts"`
	Entities     map[cdm.EntityType][]cdm.Record `json:"entities"`
}

// Summary totals what a run produced, flagged, and skipped.
type Summary struct {
	TotalRecords       int `json:"total_records"`
	FlaggedRecords     int `json:"flagged_records"`
	ExcludedRecords    int `json:"excluded_records"`
	SkippedDerivations int `json:"skipped_derivations"`
	UnlinkedRecords    int `json:"unlinked_records"`
}

// Report is the validation report artifact.
type Report struct {
	BusinessName       string                                    `json:"business_name"`
	Summary            Summary                                   `json:"summary"`
	Violations         map[cdm.EntityType][]cdm.ValidationResult `json:"violations"`
	SkippedDerivations []derive.Warning                          `json:"skipped_derivations"`
	UnlinkedRecords    []derive.Unlinked                         `json:"unlinked_records"`
	FileWarnings       []resolve.FileWarning                     `json:"file_warnings"`
}

// BuildDocument shapes a finished resolution into the canonical document.
func BuildDocument(sourceSystem, business string, res *resolve.Resolution) Document {
	doc := Document{
		SourceSystem: sourceSystem,
		BusinessName: business,
		EntityCounts: make(map[cdm.EntityType]int, len(res.Entities)),
		Entities:     res.Entities,
	}
	for entity, recs := range res.Entities {
		doc.EntityCounts[entity] = len(recs)
	}
	return doc
}

// BuildReport shapes a finished resolution into the validation report.
func BuildReport(business string, res *resolve.Resolution) Report {
	total := 0
	for _, recs := range res.Entities {
		total += len(recs)
	}
	violations := make(map[cdm.EntityType][]cdm.ValidationResult)
	for _, vr := range res.Invalid {
		violations[vr.Entity] = append(violations[vr.Entity], vr)
	}
	return Report{
		BusinessName: business,
		Summary: Summary{
			TotalRecords:       total,
			FlaggedRecords:     res.Flagged,
			ExcludedRecords:    res.Excluded,
			SkippedDerivations: len(res.Skipped),
			UnlinkedRecords:    len(res.Unlinked),
		},
		Violations:         violations,
		SkippedDerivations: res.Skipped,
		UnlinkedRecords:    res.Unlinked,
		FileWarnings:       res.FileWarnings,
	}
}

// Slug derives the artifact key prefix from a business name.
func Slug(business string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(business)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
