package resolve

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"retentionos/internal/adapter"
	"retentionos/internal/ingest"
	"retentionos/pkg/cdm"
)

func mustDoc(t *testing.T) *adapter.Document {
	t.Helper()
	doc, err := adapter.Boulevard()
	if err != nil {
		t.Fatalf("load document: %v", err)
	}
	return doc
}

func sampleTables() map[cdm.EntityType]*ingest.Table {
	return map[cdm.EntityType]*ingest.Table{
		cdm.EntityClient: {
			File: "clients.csv",
			Rows: []map[string]string{
				{"ClientRecord id": "c1", "Client name": "Jane Doe", "First Name": "Jane", "Last Name": "Doe", "Client email": "jane@example.com"},
				{"ClientRecord id": "c2", "Client name": "Ann Lee", "First Name": "Ann", "Last Name": "Lee"},
			},
		},
		cdm.EntityClientSale: {
			File: "client_sales.csv",
			Rows: []map[string]string{
				{"ClientSaleRecord id": "cs1", "Client name": "Jane Doe", "Gross Sales": "300"},
			},
		},
	}
}

func TestRunAllOutputKeysPresent(t *testing.T) {
	o := New(mustDoc(t), Config{})
	res, err := o.Run(context.Background(), sampleTables())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Entities) != 13 {
		t.Fatalf("entity keys = %d, want 13", len(res.Entities))
	}
	for _, ty := range cdm.OutputTypes() {
		if _, ok := res.Entities[ty]; !ok {
			t.Errorf("missing output key %q", ty)
		}
	}
	if len(res.Entities[cdm.EntityClient]) != 2 {
		t.Fatalf("clients = %d", len(res.Entities[cdm.EntityClient]))
	}
	if len(res.Entities[cdm.EntityService]) != 0 {
		t.Fatalf("services should be empty")
	}
}

func TestRunDerivesClientPackage(t *testing.T) {
	o := New(mustDoc(t), Config{})
	res, err := o.Run(context.Background(), sampleTables())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	cps := res.Entities[cdm.EntityClientPackage]
	if len(cps) != 2 {
		t.Fatalf("client packages = %d, want 1 match + 1 degenerate", len(cps))
	}
	if cps[0].SourceID != "cs1:c1" {
		t.Errorf("matched id = %q", cps[0].SourceID)
	}
	if cps[1].SourceID != ":c2" {
		t.Errorf("degenerate id = %q", cps[1].SourceID)
	}
	// Ann Lee never bought a package; her row is reported unlinked.
	found := false
	for _, u := range res.Unlinked {
		if u.Entity == cdm.EntityClientPackage && u.SourceID == "c2" {
			found = true
		}
	}
	if !found {
		t.Errorf("unlinked entries = %+v, want one for c2", res.Unlinked)
	}
}

func TestRunSkipsDerivationsWithMissingSources(t *testing.T) {
	o := New(mustDoc(t), Config{})
	res, err := o.Run(context.Background(), sampleTables())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// package, service, appointment, product_sale, detailed_line_item are
	// all absent, so the other three derivations skip.
	if len(res.Skipped) != 3 {
		t.Fatalf("skipped = %+v, want 3", res.Skipped)
	}
	for _, w := range res.Skipped {
		if w.Entity == cdm.EntityClientPackage {
			t.Errorf("client_package should not be skipped")
		}
	}
}

func TestRunStrictExcludesFlaggedRecords(t *testing.T) {
	tables := map[cdm.EntityType]*ingest.Table{
		cdm.EntityClient: {
			File: "clients.csv",
			Rows: []map[string]string{
				{"ClientRecord id": "c1", "Client name": "Jane Doe", "First Name": "Jane"},
				{"ClientRecord id": "c2", "Client email": "ann@example.com"},
			},
		},
	}
	strict := New(mustDoc(t), Config{Strict: true})
	res, err := strict.Run(context.Background(), tables)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Entities[cdm.EntityClient]) != 1 {
		t.Fatalf("clients = %d, want flagged record excluded", len(res.Entities[cdm.EntityClient]))
	}
	if res.Flagged != 1 || res.Excluded != 1 {
		t.Fatalf("flagged = %d, excluded = %d", res.Flagged, res.Excluded)
	}
	if len(res.Invalid) != 1 || res.Invalid[0].SourceID != "c2" {
		t.Fatalf("invalid = %+v", res.Invalid)
	}

	lax := New(mustDoc(t), Config{})
	res, err = lax.Run(context.Background(), tables)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Entities[cdm.EntityClient]) != 2 {
		t.Fatalf("non-strict should keep flagged records")
	}
	if res.Flagged != 1 || res.Excluded != 0 {
		t.Fatalf("flagged = %d, excluded = %d", res.Flagged, res.Excluded)
	}
}

func TestRunStrictNeverExcludesLineItems(t *testing.T) {
	docJSON := `{
	  "adapter": "boulevard",
	  "entity_mappings": {
	    "detailed_line_item": {
	      "source_id": "LineItemRecord id",
	      "name": "Line Item name"
	    }
	  },
	  "validation_rules": {
	    "detailed_line_item": {
	      "name": {"type": "string", "required": true}
	    }
	  }
	}`
	doc, err := adapter.Load([]byte(docJSON))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	tables := map[cdm.EntityType]*ingest.Table{
		cdm.EntityDetailedLineItem: {
			File: "detailed_line_items.csv",
			Rows: []map[string]string{
				{"LineItemRecord id": "l1"},
			},
		},
	}
	o := New(doc, Config{Strict: true})
	res, err := o.Run(context.Background(), tables)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// Line items never enter the document, so there is nothing for strict
	// mode to exclude; the violation is still reported.
	if res.Flagged != 1 || res.Excluded != 0 {
		t.Fatalf("flagged = %d, excluded = %d", res.Flagged, res.Excluded)
	}
	if len(res.Invalid) != 1 || res.Invalid[0].Entity != cdm.EntityDetailedLineItem {
		t.Fatalf("invalid = %+v", res.Invalid)
	}
	if _, ok := res.Entities[cdm.EntityDetailedLineItem]; ok {
		t.Fatalf("detailed_line_item must not be an output key")
	}
}

func TestRunDeterministic(t *testing.T) {
	o := New(mustDoc(t), Config{Workers: 4})
	a, err := o.Run(context.Background(), sampleTables())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	b, err := o.Run(context.Background(), sampleTables())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, ty := range cdm.OutputTypes() {
		ra, rb := a.Entities[ty], b.Entities[ty]
		if len(ra) != len(rb) {
			t.Fatalf("%s count differs: %d vs %d", ty, len(ra), len(rb))
		}
		for i := range ra {
			if ra[i].SourceID != rb[i].SourceID {
				t.Fatalf("%s[%d] differs: %q vs %q", ty, i, ra[i].SourceID, rb[i].SourceID)
			}
		}
	}
}

func TestLoadTables(t *testing.T) {
	dir := t.TempDir()
	writeFile := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	writeFile("clients.csv", "ClientRecord id,Client name,First Name\nc1,Jane Doe,Jane\n")
	writeFile("services.csv", "ServiceRecord id,Service name\ns1,Cut,extra\n")

	o := New(mustDoc(t), Config{})
	tables := o.LoadTables(dir)
	if _, ok := tables[cdm.EntityClient]; !ok {
		t.Fatalf("clients table missing")
	}
	if _, ok := tables[cdm.EntityService]; ok {
		t.Fatalf("malformed services table should be skipped")
	}

	res, err := o.Run(context.Background(), tables)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	byEntity := make(map[cdm.EntityType]FileWarning)
	for _, w := range res.FileWarnings {
		byEntity[w.Entity] = w
	}
	if w, ok := byEntity[cdm.EntityService]; !ok || w.Reason == "file not found" {
		t.Fatalf("service warning = %+v, want malformed reason", w)
	}
	if w, ok := byEntity[cdm.EntityAppointment]; !ok || w.Reason != "file not found" {
		t.Fatalf("appointment warning = %+v", w)
	}
}
