package resolve

import (
	"errors"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"retentionos/internal/ingest"
	"retentionos/pkg/cdm"
)

// LoadTables reads every mapped export file under inputDir. A missing or
// malformed file halts only its own entity: the table is omitted, a
// FileWarning is recorded for the next Run's Resolution, and the rest of
// the run proceeds.
func (o *Orchestrator) LoadTables(inputDir string) map[cdm.EntityType]*ingest.Table {
	tables := make(map[cdm.EntityType]*ingest.Table)
	var warnings []FileWarning
	for _, entity := range o.doc.MappedEntities() {
		file, _ := o.doc.FileFor(entity)
		path := filepath.Join(inputDir, file)
		table, err := ingest.ReadFile(path)
		if err != nil {
			reason := err.Error()
			if errors.Is(err, os.ErrNotExist) {
				reason = "file not found"
			}
			warnings = append(warnings, FileWarning{Entity: entity, File: file, Reason: reason})
			o.log.Warn("source file skipped",
				zap.String("entity", string(entity)),
				zap.String("file", file),
				zap.String("reason", reason))
			continue
		}
		tables[entity] = table
	}
	o.fileWarnings = warnings
	return tables
}
