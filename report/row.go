package report

// Row is one raw report row: an ordered set of column/value pairs.
// The column set is not fixed; lookups of absent columns return "".
type Row struct {
	columns []string
	values  map[string]string
}

// NewRow builds a row from parallel column and value slices. Values past
// the end of columns are ignored; columns past the end of values are absent.
// When a column name repeats, the first occurrence wins.
func NewRow(columns, values []string) Row {
	r := Row{values: make(map[string]string, len(columns))}
	seen := make(map[string]bool, len(columns))
	for i, c := range columns {
		if seen[c] {
			continue
		}
		seen[c] = true
		r.columns = append(r.columns, c)
		if i < len(values) {
			r.values[c] = values[i]
		}
	}
	return r
}

// RowFromMap builds a row from a map, with column order given by columns.
// Map keys not listed in columns are appended in no particular order, so
// callers that care about auxiliary context should list every column.
func RowFromMap(columns []string, m map[string]string) Row {
	r := Row{values: make(map[string]string, len(m))}
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c] {
			continue
		}
		seen[c] = true
		r.columns = append(r.columns, c)
		if v, ok := m[c]; ok {
			r.values[c] = v
		}
	}
	for k, v := range m {
		if seen[k] {
			continue
		}
		r.columns = append(r.columns, k)
		r.values[k] = v
	}
	return r
}

// Get returns the raw cell for column and whether the row has it.
func (r Row) Get(column string) (string, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Columns returns the row's columns in report order.
func (r Row) Columns() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)
	return out
}

// Table is a parsed report: the header plus its rows.
type Table struct {
	Header []string
	Rows   []Row
}
