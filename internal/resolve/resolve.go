// Package resolve orchestrates one ingest run: load tables, map base
// entities, run derivations, validate every record, and aggregate the
// outcome. Identical inputs always produce an identical Resolution.
package resolve

import (
	"context"
	"time"

	"go.uber.org/zap"

	"retentionos/internal/adapter"
	"retentionos/internal/derive"
	"retentionos/internal/ingest"
	"retentionos/internal/metrics"
	"retentionos/internal/validate"
	"retentionos/pkg/cdm"
)

// Config tunes one run.
type Config struct {
	// Strict excludes flagged records from the output document. They are
	// still reported.
	Strict bool
	// Workers bounds the mapping pool; zero means GOMAXPROCS.
	Workers int
	Logger  *zap.Logger
}

// FileWarning records a source file that could not be loaded. The entity
// keeps an empty record set and the run continues.
type FileWarning struct {
	Entity cdm.EntityType `json:"entity"`
	File   string         `json:"file"`
	Reason string         `json:"reason"`
}

// Resolution is the aggregated outcome of one run.
type Resolution struct {
	// Entities holds the output record sets. All thirteen output entity
	// types are present, possibly empty, in input row order.
	Entities map[cdm.EntityType][]cdm.Record
	// Invalid lists the validation results of every flagged record.
	Invalid      []cdm.ValidationResult
	FileWarnings []FileWarning
	Skipped      []derive.Warning
	Unlinked     []derive.Unlinked
	Flagged      int
	Excluded     int
}

// Orchestrator wires the mapper, derivation engine, and validator for a
// loaded mapping document.
type Orchestrator struct {
	doc       *adapter.Document
	mapper    *ingest.Mapper
	engine    *derive.Engine
	validator *validate.Validator
	cfg       Config
	log       *zap.Logger

	// fileWarnings carries LoadTables outcomes into the next Run.
	fileWarnings []FileWarning
}

// New builds an Orchestrator. A nil Config.Logger disables logging.
func New(doc *adapter.Document, cfg Config) *Orchestrator {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		doc:       doc,
		mapper:    ingest.NewMapper(doc),
		engine:    derive.New(doc),
		validator: validate.New(doc),
		cfg:       cfg,
		log:       log,
	}
}

// Run executes both passes over loaded tables: base mapping behind a
// barrier, then derivations, then validation of every record.
func (o *Orchestrator) Run(ctx context.Context, tables map[cdm.EntityType]*ingest.Table) (*Resolution, error) {
	start := time.Now()
	defer func() { metrics.RunDuration.Observe(time.Since(start).Seconds()) }()

	mapped, err := o.mapper.MapAll(ctx, tables, o.cfg.Workers)
	if err != nil {
		return nil, err
	}
	for entity, recs := range mapped {
		metrics.RowsMapped.WithLabelValues(string(entity)).Add(float64(len(recs)))
	}

	res := &Resolution{
		Entities:     make(map[cdm.EntityType][]cdm.Record, 13),
		FileWarnings: o.fileWarnings,
	}
	for _, t := range cdm.OutputTypes() {
		res.Entities[t] = []cdm.Record{}
	}

	for _, t := range cdm.BaseTypes() {
		recs, ok := mapped[t]
		if !ok {
			continue
		}
		o.collect(res, t, recs)
		o.log.Info("mapped base entity",
			zap.String("entity", string(t)),
			zap.Int("records", len(recs)))
	}

	for _, d := range o.doc.Derivations() {
		out := o.engine.Derive(d, mapped)
		if out.Warning != nil {
			res.Skipped = append(res.Skipped, *out.Warning)
			metrics.DerivationsSkipped.WithLabelValues(string(d.Entity)).Inc()
			o.log.Warn("derivation skipped",
				zap.String("entity", string(d.Entity)),
				zap.String("reason", out.Warning.Reason))
			continue
		}
		res.Unlinked = append(res.Unlinked, out.Unlinked...)
		metrics.Unlinked.WithLabelValues(string(d.Entity)).Add(float64(len(out.Unlinked)))
		o.collect(res, d.Entity, out.Records)
		o.log.Info("derived entity",
			zap.String("entity", string(d.Entity)),
			zap.Int("records", len(out.Records)),
			zap.Int("unlinked", len(out.Unlinked)))
	}

	o.log.Info("run resolved",
		zap.Int("flagged", res.Flagged),
		zap.Int("excluded", res.Excluded),
		zap.Int("skipped_derivations", len(res.Skipped)),
		zap.Int("unlinked", len(res.Unlinked)))
	return res, nil
}

// collect validates records in order and places them in the output set.
// Strict mode drops flagged records from the document only; every
// violation is still reported.
func (o *Orchestrator) collect(res *Resolution, entity cdm.EntityType, recs []cdm.Record) {
	kept := make([]cdm.Record, 0, len(recs))
	for _, rec := range recs {
		vr := o.validator.Validate(rec)
		if !vr.Valid() {
			res.Invalid = append(res.Invalid, vr)
			res.Flagged++
			for _, viol := range vr.Violations {
				metrics.Violations.WithLabelValues(string(entity), string(viol.Code)).Inc()
			}
			if o.cfg.Strict {
				if entity.IsOutput() {
					res.Excluded++
				}
				continue
			}
		}
		kept = append(kept, rec)
	}
	if entity.IsOutput() {
		res.Entities[entity] = kept
	}
}
