package derive

import (
	"fmt"

	"retentionos/internal/adapter"
	"retentionos/pkg/cdm"
)

// Unlinked records one parent row that produced a degenerate derived
// record because the other side never matched.
type Unlinked struct {
	Entity   cdm.EntityType `json:"entity"`
	Side     cdm.EntityType `json:"side"`
	SourceID string         `json:"source_id"`
}

// Warning records a derivation that was skipped entirely.
type Warning struct {
	Entity cdm.EntityType `json:"entity"`
	Reason string         `json:"reason"`
}

// Result is the outcome of one derivation.
type Result struct {
	Records  []cdm.Record
	Unlinked []Unlinked
	Warning  *Warning
}

// Engine runs derivations against mapped base tables.
type Engine struct {
	doc *adapter.Document
}

// New builds an Engine over a validated mapping document.
func New(doc *adapter.Document) *Engine { return &Engine{doc: doc} }

// Derive runs one derivation. A source table that is missing or has no
// rows, or an uninferable join key, skips the derivation with a warning;
// derivation itself never fails the run.
func (e *Engine) Derive(d adapter.Derivation, tables map[cdm.EntityType][]cdm.Record) Result {
	primaryRecs := tables[d.Primary()]
	secondaryRecs := tables[d.Secondary()]
	if len(primaryRecs) == 0 || len(secondaryRecs) == 0 {
		missing := d.Primary()
		if len(primaryRecs) > 0 {
			missing = d.Secondary()
		}
		return Result{Warning: &Warning{
			Entity: d.Entity,
			Reason: fmt.Sprintf("source %s was not loaded", missing),
		}}
	}

	primaryFM, err := e.doc.FieldMappingFor(d.Primary())
	if err != nil {
		return Result{Warning: &Warning{Entity: d.Entity, Reason: err.Error()}}
	}
	secondaryFM, err := e.doc.FieldMappingFor(d.Secondary())
	if err != nil {
		return Result{Warning: &Warning{Entity: d.Entity, Reason: err.Error()}}
	}
	key, ok := inferKey(d, primaryFM, secondaryFM)
	if !ok {
		return Result{Warning: &Warning{
			Entity: d.Entity,
			Reason: "no join key shared by " + string(d.Primary()) + " and " + string(d.Secondary()),
		}}
	}

	pFields := make([]string, len(key.pairs))
	sFields := make([]string, len(key.pairs))
	for i, p := range key.pairs {
		pFields[i] = p.primary
		sFields[i] = p.secondary
	}

	index := make(map[string][]int, len(secondaryRecs))
	for i, rec := range secondaryRecs {
		k := keyOf(rec, sFields)
		if k == "" {
			continue
		}
		index[k] = append(index[k], i)
	}

	var res Result
	matched := make([]bool, len(secondaryRecs))
	for _, p := range primaryRecs {
		k := keyOf(p, pFields)
		hits := index[k]
		if k == "" || len(hits) == 0 {
			res.Records = append(res.Records, degenerate(d, p, true))
			res.Unlinked = append(res.Unlinked, Unlinked{Entity: d.Entity, Side: d.Primary(), SourceID: p.SourceID})
			continue
		}
		for _, i := range hits {
			matched[i] = true
			res.Records = append(res.Records, merge(d, key.strategy, k, p, secondaryRecs[i]))
		}
	}
	for i, s := range secondaryRecs {
		if matched[i] {
			continue
		}
		res.Records = append(res.Records, degenerate(d, s, false))
		res.Unlinked = append(res.Unlinked, Unlinked{Entity: d.Entity, Side: d.Secondary(), SourceID: s.SourceID})
	}
	return res
}

// merge builds a matched derived record. The primary side wins field
// collisions.
func merge(d adapter.Derivation, strategy cdm.JoinStrategy, key string, p, s cdm.Record) cdm.Record {
	fields := make(map[string]cdm.Value, len(p.Fields)+len(s.Fields))
	for name, v := range s.Fields {
		fields[name] = v
	}
	for name, v := range p.Fields {
		fields[name] = v
	}
	delete(fields, "source_id")
	return cdm.Record{
		Entity:   d.Entity,
		SourceID: p.SourceID + ":" + s.SourceID,
		Fields:   fields,
		Join: &cdm.Join{
			Strategy: strategy,
			Key:      key,
			Sources:  []cdm.EntityType{d.Primary(), d.Secondary()},
		},
	}
}

// degenerate builds the lossless record for an unmatched parent row.
func degenerate(d adapter.Derivation, parent cdm.Record, isPrimary bool) cdm.Record {
	fields := make(map[string]cdm.Value, len(parent.Fields))
	for name, v := range parent.Fields {
		fields[name] = v
	}
	delete(fields, "source_id")
	id := parent.SourceID + ":"
	if !isPrimary {
		id = ":" + parent.SourceID
	}
	return cdm.Record{
		Entity:   d.Entity,
		SourceID: id,
		Fields:   fields,
		Join: &cdm.Join{
			Strategy: cdm.JoinUnmatched,
			Sources:  []cdm.EntityType{d.Primary(), d.Secondary()},
		},
	}
}
