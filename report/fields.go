// Package report turns accessibility scan reports into typed per-document
// issue records.
//
// A scan report is a table with one row per scanned document. The columns
// that carry issue counts are named "<Category>:<Weight>"; the weight is
// informational only and is never multiplied into the totals.
package report

import (
	"strconv"
	"strings"
)

// FieldSpec describes one issue column the scanner emits.
type FieldSpec struct {
	Key      string // column header, e.g. "AlternativeText:2"
	Category string // e.g. "AlternativeText"
	Weight   int
	Critical bool
}

// Fields is the static table of recognized issue columns, in report order.
var Fields = []FieldSpec{
	field("AlternativeText:2", true),
	field("Contrast:2", true),
	field("ImageSeizure:1", false),
	field("LanguageCorrect:3", false),
	field("LanguagePresence:3", false),
	field("Ocred:2", false),
	field("Parsable:1", false),
	field("Scanned:1", false),
	field("Security:1", false),
	field("TableHeaders:2", false),
	field("Tagged:2", false),
	field("Title:3", false),
}

// Well-known non-issue columns.
const (
	ColumnName  = "Name"
	ColumnURL   = "Url"
	ColumnScore = "Score"
)

// AuxColumnStart is the index of the first column passed through verbatim
// as analysis context.
const AuxColumnStart = 8

func field(key string, critical bool) FieldSpec {
	category, weight := splitKey(key)
	return FieldSpec{Key: key, Category: category, Weight: weight, Critical: critical}
}

// splitKey splits "Name:Weight". A missing or malformed weight yields 1.
func splitKey(key string) (string, int) {
	i := strings.LastIndexByte(key, ':')
	if i < 0 {
		return key, 1
	}
	w, err := strconv.Atoi(key[i+1:])
	if err != nil || w <= 0 {
		w = 1
	}
	return key[:i], w
}

// LookupField returns the field for a column key.
func LookupField(key string) (FieldSpec, bool) {
	for _, f := range Fields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// CriticalCategories returns the categories flagged as critical.
func CriticalCategories() []string {
	var out []string
	for _, f := range Fields {
		if f.Critical {
			out = append(out, f.Category)
		}
	}
	return out
}
