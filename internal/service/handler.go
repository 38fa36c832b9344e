// Package service serves the upload form, runs submitted documents through
// the pipeline and hands back the rendered response PDF.
package service

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/castlemilk/regresponse/internal/blob"
	"github.com/castlemilk/regresponse/internal/extraction"
	"github.com/castlemilk/regresponse/internal/pipeline"
	"github.com/castlemilk/regresponse/internal/render"
	"github.com/castlemilk/regresponse/internal/store"
)

// User-facing messages.
const (
	MsgMissingFile    = "Please upload a regulatory query."
	MsgNoText         = "Unable to extract text. Please upload a valid regulatory document."
	MsgProcessingFail = "The document could not be processed."
)

const multipartMemory = 8 << 20

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Options tunes the handler.
type Options struct {
	MaxUploadBytes int64
}

// Handler implements the HTTP surface.
type Handler struct {
	pipeline *pipeline.Pipeline
	uploads  blob.Bucket
	outputs  blob.Bucket
	store    store.Store
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
}

// NewHandler wires a handler. st may be nil to skip submission records.
func NewHandler(p *pipeline.Pipeline, uploads, outputs blob.Bucket, st store.Store, opts Options, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		pipeline: p,
		uploads:  uploads,
		outputs:  outputs,
		store:    st,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// Register adds the routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("POST /upload", h.Upload)
	mux.HandleFunc("GET /download/{filename}", h.Download)
	mux.HandleFunc("GET /api/submissions", h.ListSubmissions)
	mux.HandleFunc("GET /api/submissions/{id}", h.GetSubmission)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

// Routes returns a mux with every route registered.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

type indexView struct {
	Error  string
	Accept string
}

type resultView struct {
	Filename     string
	RiskLevel    string
	Preview      string
	Response     string
	PDFFile      string
	SubmissionID string
}

// Home renders the upload form.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.renderIndex(w, http.StatusOK, "")
}

// Upload stores the document, runs the pipeline and renders the result.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.opts.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.renderIndex(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("File too large (max %d MB).", h.opts.MaxUploadBytes>>20))
			return
		}
		h.renderIndex(w, http.StatusOK, MsgMissingFile)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil || strings.TrimSpace(header.Filename) == "" {
		h.renderIndex(w, http.StatusOK, MsgMissingFile)
		return
	}
	defer file.Close()

	ctx := r.Context()
	filename := header.Filename
	queryType := strings.TrimSpace(r.FormValue("query_type"))
	log := h.logger.With(zap.String("filename", filename))

	data, err := io.ReadAll(file)
	if err != nil {
		h.fail(w, log, "read upload", err)
		return
	}

	key := uploadKey(filename)
	if err := h.uploads.Put(ctx, key, bytes.NewReader(data)); err != nil {
		h.fail(w, log, "store upload", err)
		return
	}

	var pdf bytes.Buffer
	analysis, err := h.pipeline.Run(ctx, pipeline.Input{Filename: filename, Data: data, QueryType: queryType}, &pdf)
	if errors.Is(err, pipeline.ErrNoText) {
		log.Info("no text extracted", zap.String("upload_key", key))
		h.renderIndex(w, http.StatusOK, MsgNoText)
		return
	}
	if err != nil {
		var xerr *extraction.ExtractionError
		if errors.As(err, &xerr) {
			log = log.With(zap.String("code", string(xerr.Code)))
		}
		h.fail(w, log, "process document", err)
		return
	}
	pdfKey := render.NewFilename()
	if err := h.outputs.Put(ctx, pdfKey, &pdf); err != nil {
		h.fail(w, log, "store pdf", err)
		return
	}

	submissionID := h.record(ctx, &store.Submission{
		OriginalFilename: filename,
		UploadKey:        key,
		PDFKey:           pdfKey,
		QueryType:        queryType,
		RiskLevel:        string(analysis.RiskLevel),
		Preview:          analysis.Preview,
		Response:         analysis.Generation.Text,
		GenerationSource: string(analysis.Generation.Source),
	})

	log.Info("response generated",
		zap.String("submission_id", submissionID),
		zap.String("risk_level", string(analysis.RiskLevel)),
		zap.String("generation_source", string(analysis.Generation.Source)),
		zap.String("pdf_key", pdfKey),
	)

	h.render(w, http.StatusOK, "result.html", resultView{
		Filename:     filename,
		RiskLevel:    string(analysis.RiskLevel),
		Preview:      analysis.Preview,
		Response:     analysis.Generation.Text,
		PDFFile:      pdfKey,
		SubmissionID: submissionID,
	})
}

// record persists the submission and returns its ID, or "" if there is no
// store or the write failed. The response is still served either way.
func (h *Handler) record(ctx context.Context, s *store.Submission) string {
	if h.store == nil {
		return ""
	}
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	s.ID = id.String()
	s.CreatedAt = h.now().UTC()
	if err := h.store.CreateSubmission(ctx, s); err != nil {
		h.logger.Error("failed to record submission", zap.String("submission_id", s.ID), zap.Error(err))
		return ""
	}
	return s.ID
}

// Download streams a generated PDF as an attachment.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	if !blob.ValidKey(name) {
		http.NotFound(w, r)
		return
	}

	rc, err := h.outputs.Open(r.Context(), name)
	if errors.Is(err, blob.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.logger.Error("failed to open pdf", zap.String("pdf_key", name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("download interrupted", zap.String("pdf_key", name), zap.Error(err))
	}
}

// GetSubmission returns one submission record as JSON.
func (h *Handler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		http.NotFound(w, r)
		return
	}
	sub, err := h.store.GetSubmission(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "submission not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to get submission", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

type listResponse struct {
	Submissions   []*store.Submission `json:"submissions"`
	NextPageToken string              `json:"next_page_token,omitempty"`
}

// ListSubmissions pages through submission records.
func (h *Handler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusOK, listResponse{Submissions: []*store.Submission{}})
		return
	}

	q := r.URL.Query()
	var pageSize int64
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid page_size"})
			return
		}
		pageSize = n
	}

	subs, next, err := h.store.ListSubmissions(r.Context(), int32(pageSize), q.Get("page_token"))
	if errors.Is(err, store.ErrInvalidPageToken) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid page_token"})
		return
	}
	if err != nil {
		h.logger.Error("failed to list submissions", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if subs == nil {
		subs = []*store.Submission{}
	}
	writeJSON(w, http.StatusOK, listResponse{Submissions: subs, NextPageToken: next})
}

func (h *Handler) fail(w http.ResponseWriter, log *zap.Logger, op string, err error) {
	log.Error("upload failed", zap.String("op", op), zap.Error(err))
	h.renderIndex(w, http.StatusInternalServerError, MsgProcessingFail)
}

func (h *Handler) renderIndex(w http.ResponseWriter, status int, msg string) {
	h.render(w, status, "index.html", indexView{Error: msg, Accept: h.accept()})
}

func (h *Handler) accept() string {
	exts := []string{".pdf", ".txt"}
	if h.pipeline.Extractor().Capabilities().Docx {
		exts = append(exts, ".docx")
	}
	return strings.Join(exts, ",")
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("template failed", zap.String("template", name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// uploadKey names a stored upload: a fresh UUID plus the original extension.
func uploadKey(filename string) string {
	key := uuid.NewString() + extraction.Format(filename)
	if !blob.ValidKey(key) {
		return uuid.NewString()
	}
	return key
}
