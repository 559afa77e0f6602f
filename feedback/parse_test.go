package feedback

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSections_SingleSection(t *testing.T) {
	text := "# Issue 1: Missing Alt Text\n## Description\nImages lack alt text.\n## Solution\nAdd alt text to every image."

	got := ParseSections(text)
	require.Len(t, got, 1)
	assert.Equal(t, Issue{
		Number:      1,
		Title:       "Missing Alt Text",
		Description: "Images lack alt text.",
		Solution:    "Add alt text to every image.",
	}, got[0])
}

func TestParseSections_NoSections(t *testing.T) {
	for _, text := range []string{"", "no issues found", "No issues found.\n\n## Description\nnothing"} {
		got := ParseSections(text)
		assert.NotNil(t, got)
		assert.Empty(t, got, "input %q", text)
	}
}

func TestParseSections_MultipleSections(t *testing.T) {
	text := strings.Join([]string{
		"Here is what I found:",
		"",
		"# Issue 1: Low contrast",
		"## Description",
		"Grey text on white in the footer.",
		"It fails the 4.5:1 ratio.",
		"## Solution Steps",
		"1. Darken the footer text.",
		"2. Re-check with a contrast analyzer.",
		"",
		"# Issue 2: Missing document title",
		"## Description:",
		"The title property is empty.",
		"## Solution",
		"Set the title in document properties.",
	}, "\r\n")

	got := ParseSections(text)
	require.Len(t, got, 2)

	assert.Equal(t, 1, got[0].Number)
	assert.Equal(t, "Low contrast", got[0].Title)
	assert.Equal(t, "Grey text on white in the footer.\nIt fails the 4.5:1 ratio.", got[0].Description)
	assert.Equal(t, "1. Darken the footer text.\n2. Re-check with a contrast analyzer.", got[0].Solution)

	assert.Equal(t, 2, got[1].Number)
	assert.Equal(t, "The title property is empty.", got[1].Description)
	assert.Equal(t, "Set the title in document properties.", got[1].Solution)
}

func TestParseSections_LinesBeforeSubheadingDropped(t *testing.T) {
	text := "# Issue 3: Untagged PDF\nThis line has no subfield yet.\n## Solution\nTag the document."

	got := ParseSections(text)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Description)
	assert.Equal(t, "Tag the document.", got[0].Solution)
}

func TestParseSections_NumbersKeptAsWritten(t *testing.T) {
	text := "# Issue 2: B\n## Description\nb\n# Issue 2: B again\n# Issue 7: G\n# Issue 1: A"

	got := ParseSections(text)
	require.Len(t, got, 4)
	nums := make([]int, len(got))
	for i, is := range got {
		nums[i] = is.Number
	}
	assert.Equal(t, []int{2, 2, 7, 1}, nums)
	assert.Equal(t, "b", got[0].Description)
	assert.Empty(t, got[1].Description)
}

func TestParseSections_HeadingVariants(t *testing.T) {
	tests := []struct {
		line  string
		opens bool
	}{
		{"# Issue 1: Title", true},
		{"#Issue 1: Title", false},
		{"## Issue 1: Title", false},
		{"# issue 1: Title", false},
		{"# Issue 0: Title", false},
		{"# Issue one: Title", false},
		{"# Issue 12:", true},
		{"   # Issue 4 : Spaced", true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := ParseSections(tt.line)
			if tt.opens {
				assert.Len(t, got, 1)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestParseSections_UnknownSubheadingIsContent(t *testing.T) {
	text := "# Issue 1: Tables\n## Description\nHeader rows missing.\n## Affected pages\n3, 4\n### Solution\nnot a subheading"

	got := ParseSections(text)
	require.Len(t, got, 1)
	assert.Equal(t, "Header rows missing.\n## Affected pages\n3, 4\n### Solution\nnot a subheading", got[0].Description)
	assert.Empty(t, got[0].Solution)
}
