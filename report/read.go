package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"
)

// Kind is the detected type of an uploaded file.
type Kind string

const (
	KindUnknown Kind = ""
	KindCSV     Kind = "csv"
	KindXLSX    Kind = "xlsx"
	KindPDF     Kind = "pdf"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sniff classifies an upload by content, falling back to the file name
// extension for plain-text formats that have no magic bytes.
func Sniff(name string, data []byte) Kind {
	m := mimetype.Detect(data)
	switch {
	case m.Is("application/pdf"):
		return KindPDF
	case m.Is(xlsxMIME):
		return KindXLSX
	case m.Is("text/csv"):
		return KindCSV
	}

	switch ext := strings.ToLower(filepath.Ext(name)); {
	case ext == ".csv" && (m.Is("text/plain") || len(data) == 0):
		return KindCSV
	case ext == ".xlsx" && m.Is("application/zip"):
		return KindXLSX
	}
	return KindUnknown
}

// ReadCSV parses a comma-separated report. The first record is the header.
// Ragged rows are accepted; an empty input yields an empty table.
func ReadCSV(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Table{}, nil
	}
	if err != nil {
		return Table{}, fmt.Errorf("reading csv header: %w", err)
	}
	header = cleanHeader(header)

	t := Table{Header: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("reading csv row %d: %w", len(t.Rows)+2, err)
		}
		if blankRecord(rec) {
			continue
		}
		t.Rows = append(t.Rows, NewRow(header, rec))
	}
	return t, nil
}

// ReadXLSX parses the first sheet that has a header row.
func ReadXLSX(r io.Reader) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, fmt.Errorf("opening xlsx: %w", err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		if len(rows) == 0 || blankRecord(rows[0]) {
			continue
		}

		header := cleanHeader(rows[0])
		t := Table{Header: header}
		for _, rec := range rows[1:] {
			if blankRecord(rec) {
				continue
			}
			t.Rows = append(t.Rows, NewRow(header, rec))
		}
		return t, nil
	}
	return Table{}, nil
}

// Read dispatches on kind. PDF and unknown kinds are rejected.
func Read(kind Kind, data []byte) (Table, error) {
	switch kind {
	case KindCSV:
		return ReadCSV(bytes.NewReader(data))
	case KindXLSX:
		return ReadXLSX(bytes.NewReader(data))
	default:
		return Table{}, fmt.Errorf("unsupported report type %q", kind)
	}
}

func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		out[i] = strings.TrimSpace(h)
	}
	return out
}

func blankRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
