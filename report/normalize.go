package report

import (
	"math"
	"strconv"
	"strings"
)

// Record is the normalized view of one scanned document.
type Record struct {
	Name           string      `json:"name"`
	URL            string      `json:"url"`
	TotalIssues    int         `json:"total_issues"`
	CriticalIssues int         `json:"critical_issues"`
	Score          float64     `json:"score"` // percent, 0..100
	Aux            []Attribute `json:"aux,omitempty"`
}

// Attribute is one pass-through column kept as analysis context.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// NeedsAttention reports whether the document has any issue at all.
func (r Record) NeedsAttention() bool { return r.TotalIssues > 0 }

// IssueContext serializes the auxiliary columns as "key= value" pairs in
// column order.
func (r Record) IssueContext() string {
	parts := make([]string, len(r.Aux))
	for i, a := range r.Aux {
		parts[i] = a.Key + "= " + a.Value
	}
	return strings.Join(parts, ", ")
}

// Normalize converts raw rows into records, one per row and in the same
// order. Malformed or missing cells count as zero; nothing is filtered.
func Normalize(rows []Row) []Record {
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, normalizeRow(row))
	}
	return out
}

func normalizeRow(row Row) Record {
	rec := Record{
		Name: "Untitled",
		URL:  "#",
	}
	if v, _ := row.Get(ColumnName); strings.TrimSpace(v) != "" {
		rec.Name = v
	}
	if v, _ := row.Get(ColumnURL); strings.TrimSpace(v) != "" {
		rec.URL = v
	}

	for _, f := range Fields {
		raw, _ := row.Get(f.Key)
		n := parseCount(raw)
		rec.TotalIssues += n
		if f.Critical {
			rec.CriticalIssues += n
		}
	}

	if raw, ok := row.Get(ColumnScore); ok {
		rec.Score = parseScore(raw)
	}

	cols := row.columns
	if len(cols) > AuxColumnStart {
		rec.Aux = make([]Attribute, 0, len(cols)-AuxColumnStart)
		for _, c := range cols[AuxColumnStart:] {
			v, _ := row.Get(c)
			rec.Aux = append(rec.Aux, Attribute{Key: c, Value: v})
		}
	}
	return rec
}

// parseCount reads an issue count the way spreadsheet exports encode it:
// "3", " 3 ", "3.0", "3 issues". Anything unparseable or negative is 0.
func parseCount(raw string) int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return max(n, 0)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
			return 0
		}
		if f > math.MaxInt32 {
			return math.MaxInt32
		}
		return int(f)
	}
	// Leading integer prefix, e.g. "12abc".
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return max(n, 0)
}

// parseScore converts the raw [0,1] fraction into a percentage clamped to
// [0,100].
func parseScore(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	pct := f * 100
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}
