package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	assetsapp "pipeline-dashboard/internal/assets/application"
	assets "pipeline-dashboard/internal/assets/domain"
	assetexport "pipeline-dashboard/internal/assets/interfaces"
	"pipeline-dashboard/internal/audit"
	"pipeline-dashboard/internal/auth"
	"pipeline-dashboard/internal/observability/logging"
	"pipeline-dashboard/internal/observability/metrics"
)

const (
	assetsPath  = "/api/v1/assets"
	maxBodySize = 1 << 20
	contentXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Handler serves the asset API under /api/v1/assets.
type Handler struct {
	service     *assetsapp.Service
	auditLogger audit.Logger
	logger      *logging.Logger
}

// NewHandler constructs a handler.
func NewHandler(service *assetsapp.Service, auditLogger audit.Logger, logger *logging.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("assets handler: nil service")
	}
	return &Handler{service: service, auditLogger: auditLogger, logger: logger}, nil
}

// ServeHTTP routes asset requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	switch path {
	case assetsPath:
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleCreate(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	case assetsPath + "/stats":
		if r.Method == http.MethodGet {
			h.handleStats(w, r)
			return
		}
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	case assetsPath + "/recalculate":
		if r.Method == http.MethodPost {
			h.handleRecalculate(w, r)
			return
		}
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	case assetsPath + "/export.xlsx":
		if r.Method == http.MethodGet {
			h.handleExport(w, r, "xlsx")
			return
		}
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	case assetsPath + "/export.csv":
		if r.Method == http.MethodGet {
			h.handleExport(w, r, "csv")
			return
		}
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if strings.HasPrefix(path, assetsPath+"/") {
		h.handleByID(w, r, strings.TrimPrefix(path, assetsPath+"/"))
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *Handler) handleByID(w http.ResponseWriter, r *http.Request, rest string) {
	parts := strings.Split(rest, "/")
	id := parts[0]
	if id == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if len(parts) == 2 && parts[1] == "scorecard.pdf" && r.Method == http.MethodGet {
		h.handleScorecard(w, r, id)
		return
	}
	if len(parts) != 1 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodGet:
		asset, err := h.service.Get(r.Context(), id)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, asset)
	case http.MethodPut, http.MethodPatch:
		fields, ok := decodeFields(w, r)
		if !ok {
			return
		}
		update := h.service.Patch
		if r.Method == http.MethodPut {
			update = h.service.Replace
		}
		asset, err := update(r.Context(), id, fields, actorOf(r))
		if err != nil {
			respondServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, asset)
	case http.MethodDelete:
		if err := h.service.Delete(r.Context(), id, actorOf(r)); err != nil {
			respondServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	result, err := h.service.List(r.Context(), filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}
	asset, err := h.service.Create(r.Context(), fields, actorOf(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.RecalculateAll(r.Context(), actorOf(r))
	if err != nil {
		h.logger.Error("recalculate request failed", "error", err)
		http.Error(w, "recalculate error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request, format string) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport(format, result, time.Since(start))
	}()

	filter, err := parseFilter(r)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	list, err := h.service.All(r.Context(), filter)
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	now := h.service.Now()
	filename := fmt.Sprintf("assets-%s.%s", now.Format("20060102"), format)
	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		if err := assetexport.WriteAssetsCSV(w, list); err != nil {
			result = metrics.ResultError
			h.logger.Warn("csv export interrupted", "error", err)
			return
		}
	default:
		data, err := assetexport.BuildAssetsXLSX(list, assets.Summarize(list), now)
		if err != nil {
			result = metrics.ResultError
			http.Error(w, "export xlsx error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentXLSX)
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
	h.logAudit(r, "", map[string]any{"format": format, "count": len(list)})
}

func (h *Handler) handleScorecard(w http.ResponseWriter, r *http.Request, id string) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport("pdf", result, time.Since(start))
	}()

	asset, err := h.service.Get(r.Context(), id)
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	data, err := assetexport.BuildScorecardPDF(asset, h.service.Now())
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export pdf error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, asset.ID, map[string]any{"format": "pdf"})
}

func (h *Handler) logAudit(r *http.Request, assetID string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	err := h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       audit.ActionExport,
		ResourceType: "asset",
		ResourceID:   assetID,
		Metadata:     audit.Metadata(meta),
	})
	if err != nil {
		h.logger.Warn("audit log failed", "action", audit.ActionExport, "error", err)
	}
}

func parseFilter(r *http.Request) (assets.ListFilter, error) {
	q := r.URL.Query()
	filter := assets.ListFilter{
		ISO:    q.Get("iso"),
		Status: q.Get("status"),
		Rating: q.Get("rating"),
		Owner:  q.Get("owner"),
		Tech:   q.Get("tech"),
		Query:  q.Get("q"),
		SortBy: q.Get("sort_by"),
	}
	var err error
	if filter.Limit, err = intQuery(q.Get("limit")); err != nil {
		return filter, errors.New("limit must be an integer")
	}
	if filter.Offset, err = intQuery(q.Get("offset")); err != nil {
		return filter, errors.New("offset must be an integer")
	}
	switch strings.ToLower(q.Get("sort_order")) {
	case "", "asc":
	case "desc":
		filter.Descending = true
	default:
		return filter, errors.New("sort_order must be asc or desc")
	}
	return filter, nil
}

func intQuery(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func decodeFields(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		http.Error(w, "read body error", http.StatusBadRequest)
		return nil, false
	}
	defer r.Body.Close()

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return nil, false
	}
	return fields, true
}

func actorOf(r *http.Request) string {
	if subject := auth.SubjectFromContext(r.Context()); subject != "" {
		return subject
	}
	return "anonymous"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondServiceError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	if verr, ok := assetsapp.IsValidation(err); ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":             "validation failed",
			"validation_errors": verr.Fields,
		})
		return
	}
	switch {
	case errors.Is(err, assets.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, assets.ErrInvalidSort),
		errors.Is(err, assets.ErrUnknownField),
		errors.Is(err, assets.ErrEmptyID),
		errors.Is(err, assets.ErrEmptyName):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
