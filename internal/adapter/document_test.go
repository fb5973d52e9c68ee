package adapter

import (
	"errors"
	"testing"

	"retentionos/pkg/cdm"
)

func TestBoulevardDocumentLoads(t *testing.T) {
	doc, err := Boulevard()
	if err != nil {
		t.Fatalf("load embedded document: %v", err)
	}
	if doc.Kind() != KindBoulevard {
		t.Fatalf("kind = %q", doc.Kind())
	}
	if got := len(doc.MappedEntities()); got != 10 {
		t.Fatalf("mapped base entities = %d, want 10", got)
	}
	derivs := doc.Derivations()
	if len(derivs) != 4 {
		t.Fatalf("derivations = %d, want 4", len(derivs))
	}
	want := []cdm.EntityType{
		cdm.EntityPackageComponent,
		cdm.EntityAppointmentLine,
		cdm.EntityClientPackage,
		cdm.EntityProductSaleLine,
	}
	for i, d := range derivs {
		if d.Entity != want[i] {
			t.Errorf("derivation %d = %q, want %q", i, d.Entity, want[i])
		}
	}
	fm, err := doc.FieldMappingFor(cdm.EntityClient)
	if err != nil {
		t.Fatalf("client mapping: %v", err)
	}
	if fm["source_id"] != "ClientRecord id" {
		t.Fatalf("client source_id column = %q", fm["source_id"])
	}
	if fm["first_name"] != "First Name" {
		t.Fatalf("client first_name column = %q", fm["first_name"])
	}
}

func TestLoadConfigErrors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"malformed json", `{"adapter": "boulevard"`},
		{"unknown adapter", `{"adapter": "acuity"}`},
		{"unknown entity", `{"adapter": "boulevard", "entity_mappings": {"invoice": {"source_id": "Id"}}}`},
		{"empty column", `{"adapter": "boulevard", "entity_mappings": {"client": {"name": " "}}}`},
		{
			"file without mapping",
			`{"adapter": "boulevard", "file_mapping": {"client": "clients.csv"}, "entity_mappings": {}}`,
		},
		{
			"rule for unmapped field",
			`{"adapter": "boulevard",
			  "entity_mappings": {"client": {"name": "Client name"}},
			  "validation_rules": {"client": {"email": {"type": "email"}}}}`,
		},
		{
			"rule with unknown type",
			`{"adapter": "boulevard",
			  "entity_mappings": {"client": {"name": "Client name"}},
			  "validation_rules": {"client": {"name": {"type": "decimal"}}}}`,
		},
		{
			"one-source derivation",
			`{"adapter": "boulevard",
			  "entity_mappings": {
			    "package": {"name": "Sale package_name"},
			    "package_component": {"derived": true, "sources": ["package"]}}}`,
		},
		{
			"derivation with unmapped source",
			`{"adapter": "boulevard",
			  "entity_mappings": {
			    "package": {"name": "Sale package_name"},
			    "package_component": {"derived": true, "sources": ["package", "service"]}}}`,
		},
		{
			"derivation sourcing a derived entity",
			`{"adapter": "boulevard",
			  "entity_mappings": {
			    "package": {"name": "Sale package_name"},
			    "package_component": {"derived": true, "sources": ["package", "client_package"]}}}`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load([]byte(tc.doc))
			var ce *cdm.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("err = %v, want ConfigError", err)
			}
		})
	}
}

func TestFieldMappingForUnknownEntity(t *testing.T) {
	doc, err := Boulevard()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	_, err = doc.FieldMappingFor(cdm.EntityType("invoice"))
	var ue *cdm.UnknownEntityError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %v, want UnknownEntityError", err)
	}
}

func TestAliasNormalization(t *testing.T) {
	doc, err := Boulevard()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := doc.Alias(cdm.EntityAppointment, "state", "booked"); got != "confirmed" {
		t.Fatalf("alias booked = %q, want confirmed", got)
	}
	if got := doc.Alias(cdm.EntityAppointment, "state", "Booked"); got != "confirmed" {
		t.Fatalf("alias Booked = %q, want confirmed", got)
	}
	if got := doc.Alias(cdm.EntityAppointment, "state", "cancelled"); got != "cancelled" {
		t.Fatalf("alias cancelled = %q, want pass-through", got)
	}
	if got := doc.Alias(cdm.EntityClient, "name", "Jane"); got != "Jane" {
		t.Fatalf("alias without table = %q, want pass-through", got)
	}
}
