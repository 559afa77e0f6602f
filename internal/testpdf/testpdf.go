// Package testpdf writes small single-font PDFs for tests.
package testpdf

import (
	"bytes"
	"fmt"
	"strings"
)

// Line is one text run placed with an absolute text matrix.
type Line struct {
	Text string
	X, Y float64
	Size float64
}

// Build writes a minimal PDF with one content stream per page and a
// byte-exact cross-reference table.
func Build(pages ...[]Line) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	nobj := 3 + 2*len(pages)
	offsets := make([]int, nobj+1)
	writeObj := func(n int, body string) {
		offsets[n] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, body)
	}

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	writeObj(3, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	esc := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)
	for i, lines := range pages {
		var cs strings.Builder
		for _, l := range lines {
			fmt.Fprintf(&cs, "BT /F1 %g Tf 1 0 0 1 %g %g Tm (%s) Tj ET\n", l.Size, l.X, l.Y, esc.Replace(l.Text))
		}
		stream := cs.String()
		pageObj, contentObj := 4+2*i, 5+2*i
		writeObj(pageObj, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			contentObj))
		writeObj(contentObj, fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(stream), stream))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", nobj+1)
	buf.WriteString("0000000000 65535 f \n")
	for n := 1; n <= nobj; n++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[n])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", nobj+1, xref)
	return buf.Bytes()
}

// Syllabus is a two-page document with two headings.
func Syllabus() []byte {
	return Build(
		[]Line{
			{"Course Syllabus", 72, 750, 18},
			{"Week one covers", 72, 700, 10},
			{"the basics.", 72, 695, 10},
			{"Assessment", 72, 650, 14},
			{"Final exam in April.", 72, 636, 10},
		},
		[]Line{
			{"Contact the office.", 72, 700, 10},
		},
	)
}
