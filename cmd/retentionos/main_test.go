package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeInput(t *testing.T, dir string) {
	t.Helper()
	files := map[string]string{
		"clients.csv": "ClientRecord id,Client name,First Name,Last Name,Client email\n" +
			"All,,,,\n" +
			"c1,Jane Doe,Jane,Doe,jane@example.com\n" +
			"c2,Ann Lee,Ann,Lee,\n",
		"client_sales.csv": "ClientSaleRecord id,Client name,Sale package_name,Gross Sales,Sale date\n" +
			"cs1,Jane Doe,Glow Up,300,2024-03-09\n",
		"appointments.csv": "AppointmentServiceRecord id,Appointment Id,Client name,Appointment State,Appointment at\n" +
			"a1,APT-100,Jane Doe,booked,2024-03-09 10:00:00\n",
		"detailed_line_items.csv": "LineItemRecord id,Appointment Id,Sale id,Line Item name,Unit price\n" +
			"l1,APT-100,S1,Signature Facial,120\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestRunEndToEnd(t *testing.T) {
	input := t.TempDir()
	outDir := t.TempDir()
	writeInput(t, input)

	err := run([]string{
		"-input", input,
		"-output", outDir,
		"-business", "Glow Studio",
		"-log-level", "error",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	docPath := filepath.Join(outDir, "glow-studio", "canonical.json")
	data, err := os.ReadFile(docPath)
	if err != nil {
		t.Fatalf("read document: %v", err)
	}
	var doc struct {
		SourceSystem string                     `json:"source_system"`
		BusinessName string                     `json:"business_name"`
		EntityCounts map[string]int             `json:"entity_counts"`
		Entities     map[string]json.RawMessage `json:"entities"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if doc.SourceSystem != "boulevard" || doc.BusinessName != "Glow Studio" {
		t.Fatalf("header = %+v", doc)
	}
	if len(doc.Entities) != 13 {
		t.Fatalf("entity keys = %d", len(doc.Entities))
	}
	if doc.EntityCounts["client"] != 2 {
		t.Fatalf("client count = %d", doc.EntityCounts["client"])
	}
	if doc.EntityCounts["appointment_line"] != 1 {
		t.Fatalf("appointment_line count = %d", doc.EntityCounts["appointment_line"])
	}

	repPath := filepath.Join(outDir, "glow-studio", "validation_report.json")
	repData, err := os.ReadFile(repPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var rep struct {
		Summary struct {
			SkippedDerivations int `json:"skipped_derivations"`
		} `json:"summary"`
		FileWarnings []struct {
			Entity string `json:"entity"`
		} `json:"file_warnings"`
	}
	if err := json.Unmarshal(repData, &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	// business, staff, services, package_sales, payments, product_sales
	// are not on disk.
	if len(rep.FileWarnings) != 6 {
		t.Fatalf("file warnings = %d", len(rep.FileWarnings))
	}
	if rep.Summary.SkippedDerivations != 2 {
		t.Fatalf("skipped derivations = %d", rep.Summary.SkippedDerivations)
	}

	// Re-running must reproduce the document byte for byte.
	if err := run([]string{
		"-input", input,
		"-output", outDir,
		"-business", "Glow Studio",
		"-log-level", "error",
	}); err != nil {
		t.Fatalf("rerun: %v", err)
	}
	again, err := os.ReadFile(docPath)
	if err != nil {
		t.Fatalf("reread: %v", err)
	}
	if string(again) != string(data) {
		t.Fatalf("document changed across identical runs")
	}
}

func TestRunRequiresBusiness(t *testing.T) {
	if err := run([]string{"-input", t.TempDir()}); err == nil {
		t.Fatalf("missing -business should fail")
	}
}

func TestRunRejectsUnknownAdapter(t *testing.T) {
	err := run([]string{"-business", "X", "-adapter", "acuity", "-input", t.TempDir(), "-output", t.TempDir()})
	if err == nil {
		t.Fatalf("unknown adapter should fail")
	}
}
