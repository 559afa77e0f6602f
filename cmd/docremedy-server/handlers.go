package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/brunobiangulo/docremedy"
	"github.com/brunobiangulo/docremedy/export"
	"github.com/brunobiangulo/docremedy/history"
	"github.com/brunobiangulo/docremedy/report"
)

const (
	// userHeader carries the opaque user identifier set by the
	// authenticating proxy in front of this server.
	userHeader = "X-User-ID"

	maxUpload = 50 << 20
	xlsxType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type handler struct {
	engine   docremedy.Engine
	validate *validator.Validate
}

func newHandler(e docremedy.Engine) *handler {
	return &handler{engine: e, validate: validator.New()}
}

func newRouter(h *handler, apiKey, corsOrigins string) http.Handler {
	r := chi.NewRouter()

	// Middleware chain: recovery -> cors -> request id -> logging -> auth
	r.Use(recoveryMiddleware)
	r.Use(corsMiddleware(corsOrigins))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logMiddleware)
	r.Use(authMiddleware(apiKey))

	r.Post("/reports", h.handleUploadReport)
	r.Post("/reports/rank", h.handleRank)
	r.Post("/documents/extract", h.handleExtract)
	r.Post("/analyze", h.handleAnalyze)
	r.Post("/ask", h.handleAsk)
	r.Get("/history", h.handleListHistory)
	r.Delete("/history/{id}", h.handleDeleteHistory)
	r.Get("/health", h.handleHealth)
	return r
}

// POST /reports
// Multipart upload of a CSV or XLSX report in field "file". With ?save=true
// the records are added to the caller's history.
func (h *handler) handleUploadReport(w http.ResponseWriter, r *http.Request) {
	data, name, err := readUpload(w, r, "file")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := h.engine.LoadReport(r.Context(), name, data)
	if err != nil {
		h.fail(w, r, "load report", err)
		return
	}

	resp := map[string]any{"report": rep}
	if r.URL.Query().Get("save") == "true" {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}
		saved, err := h.engine.SaveReport(r.Context(), user, rep)
		if err != nil {
			h.fail(w, r, "save report", err)
			return
		}
		resp["saved"] = len(saved)
	}
	writeJSON(w, http.StatusOK, resp)
}

type rankRequest struct {
	Records  []report.Record `json:"records"`
	Critical bool            `json:"critical"`
	PageSize int             `json:"page_size" validate:"gte=0,lte=500"`
	Page     int             `json:"page" validate:"gte=0"`
}

// POST /reports/rank
func (h *handler) handleRank(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Page == 0 {
		req.Page = 1
	}

	page := h.engine.Rank(req.Records, req.Critical, req.PageSize, req.Page)
	if r.URL.Query().Get("format") == "xlsx" {
		h.writeXLSX(w, r, "ranked.xlsx", func() ([]byte, error) { return export.RecordsXLSX(page.Items) })
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// POST /documents/extract
func (h *handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	data, name, err := readUpload(w, r, "file")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.engine.ExtractDocument(r.Context(), data)
	if err != nil {
		h.fail(w, r, "extract "+name, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// POST /analyze
// Multipart: "document" (PDF, required), "report" (CSV or XLSX, optional),
// "name" to pick the report row (defaults to the PDF file name) and
// "instruction" to override the preamble.
func (h *handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 4*time.Minute)
	defer cancel()

	doc, docName, err := readUpload(w, r, "document")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in := docremedy.AnalyzeInput{
		DocumentName: docName,
		Document:     doc,
		Instruction:  r.FormValue("instruction"),
	}
	if name := strings.TrimSpace(r.FormValue("name")); name != "" {
		in.DocumentName = name
	}
	if rep, repName, err := formFile(r, "report"); err == nil {
		in.Report, in.ReportName = rep, repName
	} else if !errors.Is(err, http.ErrMissingFile) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.engine.Analyze(ctx, in)
	if err != nil {
		h.fail(w, r, "analyze "+in.DocumentName, err)
		return
	}
	if r.URL.Query().Get("format") == "xlsx" {
		h.writeXLSX(w, r, "remediation.xlsx", func() ([]byte, error) { return export.PlanXLSX(a.Document, a.Issues) })
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// POST /ask
func (h *handler) handleAsk(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	var req struct {
		Question string `json:"question" validate:"required,max=4000"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	answer, err := h.engine.Ask(ctx, req.Question)
	if err != nil {
		h.fail(w, r, "ask", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

// GET /history
func (h *handler) handleListHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	entries, err := h.engine.History(r.Context(), user)
	if err != nil {
		h.fail(w, r, "list history", err)
		return
	}
	if r.URL.Query().Get("format") == "xlsx" {
		recs := make([]report.Record, len(entries))
		for i, e := range entries {
			recs[i] = e.Record
		}
		h.writeXLSX(w, r, "history.xlsx", func() ([]byte, error) { return export.RecordsXLSX(recs) })
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// DELETE /history/{id}
func (h *handler) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid history id")
		return
	}
	if err := h.engine.DeleteHistory(r.Context(), user, id); err != nil {
		h.fail(w, r, "delete history", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// decode reads a JSON body into v and validates it.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpload)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (h *handler) writeXLSX(w http.ResponseWriter, r *http.Request, filename string, build func() ([]byte, error)) {
	data, err := build()
	if err != nil {
		h.fail(w, r, "export", err)
		return
	}
	w.Header().Set("Content-Type", xlsxType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// fail maps engine errors to HTTP statuses. Internal errors are logged and
// reported without detail.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := errorStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error(op+" failed",
			"error", err,
			"request_id", middleware.GetReqID(r.Context()))
	}
	writeError(w, status, msg)
}

func errorStatus(err error) (int, string) {
	var ce *docremedy.CompletionError
	switch {
	case errors.Is(err, docremedy.ErrInputFormat):
		return http.StatusUnsupportedMediaType, err.Error()
	case errors.Is(err, docremedy.ErrUnreadable):
		return http.StatusUnprocessableEntity, "document could not be read"
	case errors.Is(err, docremedy.ErrNoDocument),
		errors.Is(err, docremedy.ErrEmptyInput),
		errors.Is(err, history.ErrNoUser):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, docremedy.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, docremedy.ErrHistoryDisabled):
		return http.StatusNotImplemented, "history is not enabled"
	case errors.As(err, &ce):
		return http.StatusBadGateway, "completion service failed"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	user := strings.TrimSpace(r.Header.Get(userHeader))
	if user == "" {
		writeError(w, http.StatusBadRequest, userHeader+" header is required")
		return "", false
	}
	return user, true
}

// readUpload parses the multipart form and returns one required file.
func readUpload(w http.ResponseWriter, r *http.Request, field string) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		return nil, "", fmt.Errorf("expected multipart upload with field %q", field)
	}
	data, name, err := formFile(r, field)
	if err != nil {
		return nil, "", fmt.Errorf("field %q: %w", field, err)
	}
	return data, name, nil
}

func formFile(r *http.Request, field string) ([]byte, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}
	// Sanitise filename to prevent path traversal in logs and lookups.
	return data, filepath.Base(header.Filename), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
