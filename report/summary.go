package report

// Summary aggregates a whole report for the upload overview.
type Summary struct {
	Documents      int     `json:"documents"`
	NeedsAttention int     `json:"needs_attention"`
	TotalIssues    int     `json:"total_issues"`
	CriticalIssues int     `json:"critical_issues"`
	OverallScore   float64 `json:"overall_score"` // mean of non-zero scores
}

// Summarize totals the records. Documents without a score (score 0) are
// left out of the overall score average.
func Summarize(records []Record) Summary {
	s := Summary{Documents: len(records)}
	var scoreSum float64
	var scored int
	for _, r := range records {
		s.TotalIssues += r.TotalIssues
		s.CriticalIssues += r.CriticalIssues
		if r.NeedsAttention() {
			s.NeedsAttention++
		}
		if r.Score > 0 {
			scoreSum += r.Score
			scored++
		}
	}
	if scored > 0 {
		s.OverallScore = scoreSum / float64(scored)
	}
	return s
}

// FindByName returns the first record whose name matches exactly.
func FindByName(records []Record, name string) (Record, bool) {
	for _, r := range records {
		if r.Name == name {
			return r, true
		}
	}
	return Record{}, false
}
