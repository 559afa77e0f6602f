// Package docremedy turns accessibility scan reports and the scanned PDFs
// into ordered remediation plans.
//
// A report (CSV or XLSX) is normalized into per-document issue records, the
// PDF is reduced to paragraphs and headings, and both are combined into one
// prompt for a completion service whose answer is parsed back into numbered
// issues.
package docremedy

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/brunobiangulo/docremedy/compose"
	"github.com/brunobiangulo/docremedy/extract"
	"github.com/brunobiangulo/docremedy/feedback"
	"github.com/brunobiangulo/docremedy/history"
	"github.com/brunobiangulo/docremedy/llm"
	"github.com/brunobiangulo/docremedy/ranking"
	"github.com/brunobiangulo/docremedy/report"
)

// Engine is the main entry point.
type Engine interface {
	// LoadReport reads and normalizes a CSV or XLSX scan report.
	LoadReport(ctx context.Context, name string, data []byte) (*Report, error)

	// ExtractDocument reduces PDF bytes to paragraphs and headings.
	ExtractDocument(ctx context.Context, data []byte) (*extract.Document, error)

	// Analyze runs one document through extraction, composition, a single
	// completion call and section parsing.
	Analyze(ctx context.Context, in AnalyzeInput) (*Analysis, error)

	// Ask answers a free-form accessibility question.
	Ask(ctx context.Context, question string) (string, error)

	// Rank filters, orders and pages records. A non-positive page size uses
	// the configured default.
	Rank(records []report.Record, critical bool, pageSize, page int) ranking.Page

	// SaveReport stores every record of a report in the user's history.
	SaveReport(ctx context.Context, userID string, rep *Report) ([]history.Entry, error)

	// History lists the user's stored records, newest upload first.
	History(ctx context.Context, userID string) ([]history.Entry, error)

	// DeleteHistory removes one stored record.
	DeleteHistory(ctx context.Context, userID string, id uuid.UUID) error

	// Close releases the history store and the completion provider.
	Close() error
}

// Report is a normalized scan report.
type Report struct {
	Name    string          `json:"name"`
	Records []report.Record `json:"records"`
	Summary report.Summary  `json:"summary"`
}

// AnalyzeInput describes one analysis.
type AnalyzeInput struct {
	// DocumentName identifies the PDF's row in the report.
	DocumentName string
	// Document holds the PDF bytes.
	Document []byte

	// Record supplies the issue record directly. When nil it is looked up by
	// DocumentName in Report.
	Record *report.Record
	// ReportName and Report optionally carry the scan report bytes.
	ReportName string
	Report     []byte

	// Instruction overrides the configured preamble.
	Instruction string
}

// Analysis is the outcome of Analyze. An empty Issues slice is a valid
// result.
type Analysis struct {
	Document         string           `json:"document"`
	Record           report.Record    `json:"record"`
	Pages            int              `json:"pages"`
	Headings         []string         `json:"headings"`
	Truncated        bool             `json:"truncated"`
	Issues           []feedback.Issue `json:"issues"`
	Response         string           `json:"response"`
	Model            string           `json:"model"`
	PromptTokens     int              `json:"prompt_tokens"`
	CompletionTokens int              `json:"completion_tokens"`
	ElapsedMs        int64            `json:"elapsed_ms"`
}

// Option configures New.
type Option func(*options)

type options struct {
	provider llm.Provider
	history  history.Store
	logger   *slog.Logger
}

// WithProvider uses p instead of building a provider from Config.LLM.
func WithProvider(p llm.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithHistory uses s instead of opening Config.HistoryDSN.
func WithHistory(s history.Store) Option {
	return func(o *options) { o.history = s }
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

type engine struct {
	cfg       Config
	provider  llm.Provider
	history   history.Store
	extractor *extract.Extractor
	logger    *slog.Logger
}

// New validates cfg and wires the engine.
func New(ctx context.Context, cfg Config, opts ...Option) (Engine, error) {
	o := &options{}
	for _, fn := range opts {
		fn(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	if o.provider == nil {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		p, err := llm.NewProvider(ctx, cfg.LLM.provider())
		if err != nil {
			return nil, fmt.Errorf("%w: creating llm provider: %v", ErrInvalidConfig, err)
		}
		o.provider = p
	}

	if o.history == nil && cfg.HistoryDSN != "" {
		s, err := history.Open(ctx, cfg.HistoryDSN, o.logger)
		if err != nil {
			return nil, fmt.Errorf("opening history: %w", err)
		}
		o.history = s
	}

	if cfg.PageSize <= 0 {
		cfg.PageSize = ranking.DefaultPageSize
	}

	return &engine{
		cfg:       cfg,
		provider:  o.provider,
		history:   o.history,
		extractor: extract.New(extract.Options{Validate: cfg.ValidatePDF, Logger: o.logger}),
		logger:    o.logger,
	}, nil
}

// LoadReport sniffs, reads and normalizes a report.
func (e *engine) LoadReport(ctx context.Context, name string, data []byte) (*Report, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: report %q has no content", ErrEmptyInput, name)
	}
	kind := report.Sniff(name, data)
	if kind != report.KindCSV && kind != report.KindXLSX {
		return nil, fmt.Errorf("%w: %q is not a CSV or XLSX report", ErrInputFormat, name)
	}

	tbl, err := report.Read(kind, data)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %q: %v", ErrInputFormat, name, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := report.Normalize(tbl.Rows)
	sum := report.Summarize(records)
	e.logger.Info("report: loaded",
		"file", name,
		"format", string(kind),
		"documents", sum.Documents,
		"needs_attention", sum.NeedsAttention)
	return &Report{Name: name, Records: records, Summary: sum}, nil
}

// ExtractDocument rejects non-PDF input before decoding.
func (e *engine) ExtractDocument(ctx context.Context, data []byte) (*extract.Document, error) {
	if len(data) == 0 {
		return nil, ErrNoDocument
	}
	if kind := report.Sniff("", data); kind != report.KindPDF {
		return nil, fmt.Errorf("%w: document is not a PDF", ErrInputFormat)
	}
	return e.extractor.Extract(ctx, data)
}

// Analyze reads the report and the PDF concurrently, then makes exactly one
// completion call.
func (e *engine) Analyze(ctx context.Context, in AnalyzeInput) (*Analysis, error) {
	start := time.Now()
	if len(in.Document) == 0 {
		return nil, ErrNoDocument
	}

	var (
		doc *extract.Document
		rep *Report
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := e.ExtractDocument(gctx, in.Document)
		if err != nil {
			return fmt.Errorf("extracting %q: %w", in.DocumentName, err)
		}
		doc = d
		return nil
	})
	if in.Record == nil && len(in.Report) > 0 {
		g.Go(func() error {
			r, err := e.LoadReport(gctx, in.ReportName, in.Report)
			if err != nil {
				return err
			}
			rep = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rec := e.selectRecord(in, rep)

	text, truncated := clipText(doc.RawText, e.cfg.MaxDocumentChars)
	if truncated {
		e.logger.Warn("analyze: document text clipped",
			"file", in.DocumentName,
			"chars", len(doc.RawText),
			"limit", e.cfg.MaxDocumentChars)
	}
	clipped := *doc
	clipped.RawText = text

	instruction := in.Instruction
	if instruction == "" {
		instruction = e.cfg.Instruction
	}
	req := compose.Compose(rec, &clipped, instruction)

	resp, err := e.provider.Chat(ctx, llm.ChatRequest{
		Messages:    []llm.Message{{Role: "user", Content: req.Prompt()}},
		Temperature: e.cfg.LLM.Temperature,
		MaxTokens:   e.cfg.LLM.MaxTokens,
	})
	if err != nil {
		return nil, &CompletionError{Provider: e.providerName(), Err: err}
	}

	issues := feedback.ParseSections(resp.Content)
	elapsed := time.Since(start)
	e.logger.Info("analyze: complete",
		"file", in.DocumentName,
		"pages", doc.Pages,
		"issues", len(issues),
		"model", resp.Model,
		"elapsed", elapsed.Round(time.Millisecond))

	return &Analysis{
		Document:         rec.Name,
		Record:           rec,
		Pages:            doc.Pages,
		Headings:         doc.Headings,
		Truncated:        truncated,
		Issues:           issues,
		Response:         resp.Content,
		Model:            resp.Model,
		PromptTokens:     resp.PromptTokens,
		CompletionTokens: resp.CompletionTokens,
		ElapsedMs:        elapsed.Milliseconds(),
	}, nil
}

// selectRecord prefers an explicit record, then the report row named like
// the document. Without either the analysis runs with no scan context.
func (e *engine) selectRecord(in AnalyzeInput, rep *Report) report.Record {
	if in.Record != nil {
		return *in.Record
	}
	if rep != nil {
		if r, ok := report.FindByName(rep.Records, in.DocumentName); ok {
			return r
		}
		e.logger.Warn("analyze: document not listed in report",
			"file", in.DocumentName,
			"report", rep.Name)
	}
	name := in.DocumentName
	if strings.TrimSpace(name) == "" {
		name = "Untitled"
	}
	return report.Record{Name: name, URL: "#"}
}

// Ask sends the question with the assistant instruction as system prompt.
func (e *engine) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("%w: question", ErrEmptyInput)
	}
	resp, err := llm.Complete(ctx, e.provider, compose.AssistantInstruction(), question)
	if err != nil {
		return "", &CompletionError{Provider: e.providerName(), Err: err}
	}
	return strings.TrimSpace(resp.Content), nil
}

// Rank delegates to ranking.Paginate.
func (e *engine) Rank(records []report.Record, critical bool, pageSize, page int) ranking.Page {
	if pageSize <= 0 {
		pageSize = e.cfg.PageSize
	}
	return ranking.Paginate(records, critical, pageSize, page)
}

// SaveReport stores the report's records as one upload.
func (e *engine) SaveReport(ctx context.Context, userID string, rep *Report) ([]history.Entry, error) {
	if e.history == nil {
		return nil, ErrHistoryDisabled
	}
	if rep == nil || len(rep.Records) == 0 {
		return nil, fmt.Errorf("%w: report has no records", ErrEmptyInput)
	}
	entries, err := e.history.Create(ctx, history.FromRecords(userID, rep.Name, rep.Records)...)
	if err != nil {
		return nil, fmt.Errorf("saving history: %w", err)
	}
	e.logger.Info("history: report saved", "report", rep.Name, "entries", len(entries))
	return entries, nil
}

// History lists the user's entries.
func (e *engine) History(ctx context.Context, userID string) ([]history.Entry, error) {
	if e.history == nil {
		return nil, ErrHistoryDisabled
	}
	return e.history.List(ctx, userID)
}

// DeleteHistory removes one entry.
func (e *engine) DeleteHistory(ctx context.Context, userID string, id uuid.UUID) error {
	if e.history == nil {
		return ErrHistoryDisabled
	}
	return e.history.Delete(ctx, userID, id)
}

// Close shuts down the engine.
func (e *engine) Close() error {
	var firstErr error
	if e.history != nil {
		firstErr = e.history.Close()
	}
	if c, ok := e.provider.(io.Closer); ok {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (e *engine) providerName() string {
	return llm.NameOf(e.provider)
}

// clipText cuts text to at most limit bytes, backing off to the last
// whitespace so no word or rune is split. A non-positive limit disables
// clipping.
func clipText(text string, limit int) (string, bool) {
	if limit <= 0 || len(text) <= limit {
		return text, false
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	if !isSpace(text[cut]) {
		if i := strings.LastIndexAny(text[:cut], " \n\t"); i > 0 {
			cut = i
		}
	}
	return text[:cut], true
}

func isSpace(c byte) bool { return c == ' ' || c == '\n' || c == '\t' }
