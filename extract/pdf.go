package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrUnreadable is returned for input that is not a readable PDF: corrupt,
// encrypted, or not a PDF at all. No partial text accompanies it.
var ErrUnreadable = errors.New("extract: unreadable document")

// Options configures an Extractor.
type Options struct {
	// Validate runs a structural pdfcpu validation before decoding.
	Validate bool
	Logger   *slog.Logger
}

// Extractor turns PDF bytes into a Document.
type Extractor struct {
	validate bool
	logger   *slog.Logger
}

// New creates an Extractor.
func New(opts Options) *Extractor {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Extractor{validate: opts.Validate, logger: opts.Logger}
}

// Extract decodes every page in order and segments the result. Any page
// failure aborts the whole extraction.
func (e *Extractor) Extract(ctx context.Context, data []byte) (*Document, error) {
	start := time.Now()
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrUnreadable)
	}

	if e.validate {
		if err := validatePDF(data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
	}

	reader, err := openReader(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	total, err := pageCount(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: document has no pages", ErrUnreadable)
	}

	pages := make([][]TextRun, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		runs, err := pageRuns(reader, i)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrUnreadable, i, err)
		}
		pages = append(pages, runs)
	}

	doc := Segment(pages)
	e.logger.Debug("extract: document segmented",
		"pages", doc.Pages,
		"paragraphs", len(doc.Paragraphs),
		"headings", len(doc.Headings),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return doc, nil
}

// The pdf package reports many malformed inputs by panicking, so every entry
// point into it is guarded.

func openReader(data []byte) (r *pdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			r, err = nil, fmt.Errorf("malformed pdf: %v", p)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

func pageCount(r *pdf.Reader) (n int, err error) {
	defer func() {
		if p := recover(); p != nil {
			n, err = 0, fmt.Errorf("malformed page tree: %v", p)
		}
	}()
	return r.NumPage(), nil
}

func pageRuns(r *pdf.Reader, num int) (runs []TextRun, err error) {
	defer func() {
		if p := recover(); p != nil {
			runs, err = nil, fmt.Errorf("malformed content: %v", p)
		}
	}()

	page := r.Page(num)
	if page.V.IsNull() {
		return nil, errors.New("page object missing")
	}
	return groupGlyphs(page.Content().Text), nil
}

// groupGlyphs merges consecutive glyphs that share a baseline, font and size
// into runs. A space is inserted where the horizontal gap between glyphs is
// wider than a fraction of the font size.
func groupGlyphs(glyphs []pdf.Text) []TextRun {
	var (
		runs []TextRun
		sb   strings.Builder
		cur  pdf.Text
		open bool
	)
	emit := func() {
		if open && sb.Len() > 0 {
			runs = append(runs, TextRun{Text: sb.String(), Y: cur.Y, Height: cur.FontSize})
		}
		sb.Reset()
		open = false
	}

	var prev pdf.Text
	for _, g := range glyphs {
		if g.S == "" {
			continue
		}
		if open && !sameRun(cur, g) {
			emit()
		}
		if !open {
			cur = g
			open = true
		} else if gap := g.X - (prev.X + prev.W); gap > 0.25*g.FontSize &&
			!strings.HasSuffix(sb.String(), " ") && !strings.HasPrefix(g.S, " ") {
			sb.WriteByte(' ')
		}
		sb.WriteString(g.S)
		prev = g
	}
	emit()
	return runs
}

func sameRun(a, b pdf.Text) bool {
	return math.Abs(a.Y-b.Y) < 0.5 &&
		math.Abs(a.FontSize-b.FontSize) < 0.01 &&
		a.Font == b.Font
}

var disableConfigDir sync.Once

// validatePDF checks the cross-reference structure and object graph.
func validatePDF(data []byte) error {
	disableConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.Validate(bytes.NewReader(data), conf)
}
