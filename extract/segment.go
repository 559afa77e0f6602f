// Package extract reconstructs paragraphs and headings from the positioned
// text runs of a PDF.
//
// PDF content streams carry no paragraph or heading markup. Paragraphs are
// recovered with a single vertical-gap rule and headings with a single
// glyph-height rule; both thresholds are fixed rather than calibrated per
// document, which is adequate for single-column office and academic files
// but splits paragraphs at large gaps and ignores column layout.
package extract

import (
	"math"
	"strings"
)

const (
	// LineGapThreshold is the baseline distance above which a run starts a
	// new paragraph.
	LineGapThreshold = 12.0

	// HeadingHeightThreshold is the glyph height above which a run is also
	// recorded as a heading.
	HeadingHeightThreshold = 12.0
)

// TextRun is a span of glyphs sharing one baseline.
type TextRun struct {
	Text   string  `json:"text"`
	Y      float64 `json:"y"`
	Height float64 `json:"height"`
}

// Document is the structural text of one PDF.
type Document struct {
	RawText    string   `json:"raw_text"`
	Paragraphs []string `json:"paragraphs"`
	Headings   []string `json:"headings"`
	Pages      int      `json:"pages"`
}

// Segment applies the paragraph and heading rules to pages of runs, in page
// order. Headings are not removed from paragraph text.
func Segment(pages [][]TextRun) *Document {
	doc := &Document{
		Paragraphs: []string{},
		Headings:   []string{},
		Pages:      len(pages),
	}

	var raw strings.Builder
	for _, runs := range pages {
		var (
			buf      []string
			pageText = make([]string, 0, len(runs))
			prevY    float64
			havePrev bool
		)
		flush := func() {
			if p := strings.TrimSpace(strings.Join(buf, " ")); p != "" {
				doc.Paragraphs = append(doc.Paragraphs, p)
			}
			buf = buf[:0]
		}

		for _, run := range runs {
			pageText = append(pageText, run.Text)

			if run.Height > HeadingHeightThreshold {
				if h := strings.TrimSpace(run.Text); h != "" {
					doc.Headings = append(doc.Headings, h)
				}
			}

			if havePrev && math.Abs(run.Y-prevY) > LineGapThreshold {
				flush()
			}
			buf = append(buf, run.Text)
			prevY, havePrev = run.Y, true
		}
		flush()

		raw.WriteString(strings.Join(pageText, " "))
		raw.WriteByte('\n')
	}
	doc.RawText = raw.String()
	return doc
}

// Text returns the paragraphs joined by blank lines.
func (d *Document) Text() string {
	return strings.Join(d.Paragraphs, "\n\n")
}
