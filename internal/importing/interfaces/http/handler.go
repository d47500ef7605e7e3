package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pipeline-dashboard/internal/auth"
	importapp "pipeline-dashboard/internal/importing/application"
	"pipeline-dashboard/internal/importing/infrastructure/spreadsheet"
	"pipeline-dashboard/internal/observability/logging"
	"pipeline-dashboard/internal/observability/metrics"
)

// HeaderImportFilename names the uploaded file on signed ingest requests.
const HeaderImportFilename = "X-Import-Filename"

const contentXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler serves /api/v1/imports and /api/v1/imports/template.xlsx.
type Handler struct {
	service  *importapp.Service
	logger   *logging.Logger
	maxBytes int64
}

// NewHandler constructs an import handler.
func NewHandler(service *importapp.Service, maxBytes int64, logger *logging.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("import handler: nil service")
	}
	return &Handler{service: service, logger: logger, maxBytes: maxBytes}, nil
}

// ServeHTTP routes import requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch strings.TrimSuffix(r.URL.Path, "/") {
	case "/api/v1/imports":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleUpload(w, r)
	case "/api/v1/imports/template.xlsx":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleTemplate(w)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+1<<20)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, importapp.ErrFileTooLarge.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	dryRun, err := parseBool(firstNonEmpty(r.FormValue("dry_run"), r.URL.Query().Get("dry_run")))
	if err != nil {
		http.Error(w, "dry_run must be a boolean", http.StatusBadRequest)
		return
	}
	report, err := h.service.Import(r.Context(), importapp.Request{
		Filename: header.Filename,
		Body:     file,
		DryRun:   dryRun,
		Actor:    auth.SubjectFromContext(r.Context()),
	})
	if err != nil {
		respondImportError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleTemplate(w http.ResponseWriter) {
	w.Header().Set("Content-Type", contentXLSX)
	w.Header().Set("Content-Disposition", `attachment; filename="pipeline-import-template.xlsx"`)
	if err := h.service.WriteTemplate(w); err != nil {
		h.logger.Error("write import template failed", "error", err)
	}
}

// IngestHandler serves POST /ingest/assets: a signed raw file upload.
type IngestHandler struct {
	service *importapp.Service
}

// NewIngestHandler constructs an ingest handler.
func NewIngestHandler(service *importapp.Service) (*IngestHandler, error) {
	if service == nil {
		return nil, errors.New("ingest handler: nil service")
	}
	return &IngestHandler{service: service}, nil
}

// ServeHTTP imports the request body as the file named by X-Import-Filename.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveIngest(result, time.Since(start))
	}()

	filename := strings.TrimSpace(r.Header.Get(HeaderImportFilename))
	if filename == "" {
		result = metrics.ResultError
		http.Error(w, HeaderImportFilename+" is required", http.StatusBadRequest)
		return
	}
	dryRun, err := parseBool(r.URL.Query().Get("dry_run"))
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "dry_run must be a boolean", http.StatusBadRequest)
		return
	}
	report, err := h.service.Import(r.Context(), importapp.Request{
		Filename: filename,
		Body:     r.Body,
		DryRun:   dryRun,
		Actor:    auth.SubjectFromContext(r.Context()),
	})
	if err != nil {
		result = metrics.ResultError
		respondImportError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func parseBool(value string) (bool, error) {
	if value == "" {
		return false, nil
	}
	return strconv.ParseBool(value)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondImportError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, importapp.ErrFileTooLarge):
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, spreadsheet.ErrUnsupportedFormat),
		errors.Is(err, spreadsheet.ErrNoHeader),
		errors.Is(err, spreadsheet.ErrUnreadable):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "import error", http.StatusInternalServerError)
	}
}
