// Package ranking orders documents by how much remediation they need and
// slices the result into pages.
package ranking

import (
	"slices"

	"github.com/brunobiangulo/docremedy/report"
)

// DefaultPageSize is used when a caller passes a non-positive page size.
const DefaultPageSize = 10

// Page is one page of ranked records.
type Page struct {
	Items      []report.Record `json:"items"`
	Page       int             `json:"page"`
	TotalPages int             `json:"total_pages"`
	Total      int             `json:"total"`
}

// Paginate keeps records with at least one issue (at least one critical issue
// when filterCritical is set), sorts them by that count in descending order
// and returns the requested 1-based page. Ties keep input order. The page is
// not clamped: an out-of-range page has no items.
func Paginate(records []report.Record, filterCritical bool, pageSize, page int) Page {
	count := func(r report.Record) int {
		if filterCritical {
			return r.CriticalIssues
		}
		return r.TotalIssues
	}

	ranked := make([]report.Record, 0, len(records))
	for _, r := range records {
		if count(r) > 0 {
			ranked = append(ranked, r)
		}
	}
	slices.SortStableFunc(ranked, func(a, b report.Record) int {
		return count(b) - count(a)
	})

	items, total := Pages(ranked, pageSize, page)
	return Page{
		Items:      items,
		Page:       page,
		TotalPages: total,
		Total:      len(ranked),
	}
}

// Pages returns the 1-based page of items and the page count, which is at
// least 1. A non-positive size means DefaultPageSize.
func Pages[T any](items []T, size, page int) ([]T, int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := max(1, (len(items)+size-1)/size)
	if page < 1 || page > total {
		return []T{}, total
	}
	start := (page - 1) * size
	end := min(start+size, len(items))
	return slices.Clone(items[start:end]), total
}

// Clamp limits page to [1, totalPages] for callers that want to render the
// nearest valid page.
func Clamp(page, totalPages int) int {
	return max(1, min(page, max(totalPages, 1)))
}
