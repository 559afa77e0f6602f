package ranking

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunobiangulo/docremedy/report"
)

func rec(name string, total, critical int) report.Record {
	return report.Record{Name: name, URL: "#", TotalIssues: total, CriticalIssues: critical}
}

func names(rs []report.Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Name
	}
	return out
}

func TestPaginate_Empty(t *testing.T) {
	for _, in := range [][]report.Record{nil, {rec("clean", 0, 0)}} {
		p := Paginate(in, false, 10, 1)
		assert.Equal(t, 1, p.TotalPages)
		assert.NotNil(t, p.Items)
		assert.Empty(t, p.Items)
	}
}

func TestPaginate_SortAndFilter(t *testing.T) {
	in := []report.Record{
		rec("a", 3, 0),
		rec("b", 7, 2),
		rec("c", 0, 0),
		rec("d", 3, 3),
		rec("e", 7, 0),
	}

	p := Paginate(in, false, 10, 1)
	assert.Equal(t, []string{"b", "e", "a", "d"}, names(p.Items))
	assert.Equal(t, 4, p.Total)

	p = Paginate(in, true, 10, 1)
	assert.Equal(t, []string{"d", "b"}, names(p.Items))
}

func TestPaginate_DoesNotReorderInput(t *testing.T) {
	in := []report.Record{rec("a", 1, 0), rec("b", 2, 0)}
	Paginate(in, false, 10, 1)
	assert.Equal(t, []string{"a", "b"}, names(in))
}

func TestPaginate_Pages(t *testing.T) {
	var in []report.Record
	for i := 0; i < 23; i++ {
		in = append(in, rec(fmt.Sprintf("doc%02d", i), 30-i, 0))
	}

	p := Paginate(in, false, 10, 1)
	assert.Equal(t, 3, p.TotalPages)
	require.Len(t, p.Items, 10)
	assert.Equal(t, "doc00", p.Items[0].Name)

	p = Paginate(in, false, 10, 3)
	assert.Equal(t, []string{"doc20", "doc21", "doc22"}, names(p.Items))

	for _, page := range []int{0, -1, 4} {
		p = Paginate(in, false, 10, page)
		assert.Empty(t, p.Items, "page %d", page)
		assert.Equal(t, 3, p.TotalPages)
	}
}

func TestPages_DefaultSize(t *testing.T) {
	items := make([]int, 25)
	got, total := Pages(items, 0, 3)
	assert.Len(t, got, 5)
	assert.Equal(t, 3, total)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1, Clamp(0, 3))
	assert.Equal(t, 3, Clamp(9, 3))
	assert.Equal(t, 2, Clamp(2, 3))
	assert.Equal(t, 1, Clamp(5, 0))
}
