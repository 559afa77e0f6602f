// Package feedback turns a free-form remediation answer back into numbered
// issues.
//
// The answer follows a loose markdown layout:
//
//	# Issue 1: Missing Alt Text
//	## Description
//	Images on page 2 have no text alternative.
//	## Solution
//	Add alt text to each figure.
//
// Nothing guarantees that layout, so the parser never fails. Text it cannot
// place is dropped and an answer with no issue headings yields no issues.
package feedback

import (
	"regexp"
	"strconv"
	"strings"
)

// Issue is one numbered section of an answer, in order of appearance.
type Issue struct {
	Number      int    `json:"number"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Solution    string `json:"solution"`
}

var sectionRe = regexp.MustCompile(`^#[ \t]+Issue[ \t]+(\d+)[ \t]*:[ \t]*(.*)$`)

type field int

const (
	fieldNone field = iota
	fieldDescription
	fieldSolution
)

// ParseSections scans text line by line. A "# Issue <n>: <title>" line opens
// a section. Inside a section "## Description" and "## Solution" headings
// select the subfield that following lines append to; lines that arrive
// before either heading are dropped. Issue numbers are kept as written, gaps
// and repeats included.
func ParseSections(text string) []Issue {
	issues := []Issue{}

	var (
		cur    *Issue
		active field
		desc   []string
		sol    []string
	)
	closeSection := func() {
		if cur == nil {
			return
		}
		cur.Description = strings.TrimSpace(strings.Join(desc, "\n"))
		cur.Solution = strings.TrimSpace(strings.Join(sol, "\n"))
		issues = append(issues, *cur)
		cur, active, desc, sol = nil, fieldNone, nil, nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)

		if m := sectionRe.FindStringSubmatch(trimmed); m != nil {
			n, err := strconv.Atoi(m[1])
			if err == nil && n >= 1 {
				closeSection()
				cur = &Issue{Number: n, Title: strings.TrimSpace(m[2])}
				continue
			}
		}
		if cur == nil {
			continue
		}

		if f, ok := subheading(trimmed); ok {
			active = f
			continue
		}
		if trimmed == "" {
			continue
		}
		switch active {
		case fieldDescription:
			desc = append(desc, trimmed)
		case fieldSolution:
			sol = append(sol, trimmed)
		}
	}
	closeSection()
	return issues
}

// subheading recognizes the "## Description" and "## Solution" variants,
// including suffixes such as "## Solution Steps". Any other level-two heading
// is ordinary content.
func subheading(line string) (field, bool) {
	if !strings.HasPrefix(line, "##") || strings.HasPrefix(line, "###") {
		return fieldNone, false
	}
	label := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, "##")))
	label = strings.TrimRight(label, ": ")
	switch {
	case strings.HasPrefix(label, "description"):
		return fieldDescription, true
	case strings.HasPrefix(label, "solution"):
		return fieldSolution, true
	}
	return fieldNone, false
}
