// Package ingest reads source CSV exports and maps their rows into
// canonical records according to an adapter mapping document.
package ingest

import (
	"encoding/csv"
	"errors"
	"io"
	"os"

	"retentionos/pkg/cdm"
)

// Table is one fully read source file: a header and ordered rows keyed by
// header name. Empty cells read as empty strings.
type Table struct {
	File   string
	Header []string
	Rows   []map[string]string
}

// ReadFile reads a CSV export from disk.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTable(f, path)
}

// ReadTable reads a CSV export. The first record is the header; a leading
// data row whose first cell is "All" is a report summary row and is
// skipped. Ragged rows fail the whole file with MalformedRowError.
func ReadTable(r io.Reader, file string) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &cdm.MalformedRowError{File: file, Line: 1, Reason: "missing header row"}
	}
	if err != nil {
		return nil, rowError(file, err)
	}

	t := &Table{File: file, Header: header}
	first := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return t, nil
		}
		if err != nil {
			return nil, rowError(file, err)
		}
		if first {
			first = false
			if len(rec) > 0 && rec[0] == "All" {
				continue
			}
		}
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(rec) {
				row[name] = rec[i]
			}
		}
		t.Rows = append(t.Rows, row)
	}
}

func rowError(file string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &cdm.MalformedRowError{File: file, Line: pe.Line, Reason: pe.Err.Error()}
	}
	return &cdm.MalformedRowError{File: file, Line: 0, Reason: err.Error()}
}
