package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/kashf-sd/kashf/engine/domain"
	"github.com/kashf-sd/kashf/engine/listing"
	"github.com/kashf-sd/kashf/engine/registry"
	"github.com/kashf-sd/kashf/engine/upload"
	"github.com/kashf-sd/kashf/pkg/metrics"
	"github.com/kashf-sd/kashf/pkg/mid"
	"github.com/kashf-sd/kashf/pkg/repo"
)

// User-facing error messages.
const (
	msgBadBody       = "طلب غير صالح"
	msgNoVehicles    = "لا توجد عربات للحفظ"
	msgBadWhatsApp   = "رقم الواتساب غير صحيح"
	msgQueryRequired = "رقم الشاسي أو اللوحة مطلوب"
	msgSearchFailed  = "حدث خطأ في البحث، الرجاء المحاولة مرة أخرى"
	msgUploadFailed  = "حدث خطأ في الرفع"
	msgNotFound      = "لم يتم العثور على نتائج"
	msgNoVehicle     = "العربة غير موجودة"
	msgListFailed    = "حدث خطأ في جلب العربات"
	msgDeleteFailed  = "حدث خطأ في الحذف"
	msgFoundTemplate = "تم العثور على %d نتيجة"
)

type server struct {
	svc    *upload.Service
	store  registry.Store
	reg    *metrics.Registry
	logger *slog.Logger
}

func newServer(svc *upload.Service, store registry.Store, reg *metrics.Registry, logger *slog.Logger) *server {
	return &server{svc: svc, store: store, reg: reg, logger: logger}
}

func (s *server) routes(cfg Config) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/admin/listings/preview", s.handlePreview)
	mux.HandleFunc("POST /api/admin/listings/duplicates", s.handleDuplicates)
	mux.HandleFunc("POST /api/admin/listings/confirm", s.handleConfirm)
	mux.HandleFunc("GET /api/admin/vehicles", s.handleRecent)
	mux.HandleFunc("DELETE /api/admin/vehicles/{id}", s.handleDelete)
	mux.Handle("POST /api/search", mid.Chain(http.HandlerFunc(s.handleSearch),
		mid.RateLimit(cfg.Search.RatePerSecond, cfg.Search.Burst),
	))
	mux.Handle("GET /metrics", s.reg.Handler())

	return mid.Chain(mux,
		mid.Recover(s.logger),
		mid.RequestID(),
		mid.Logger(s.logger),
		mid.Instrument(s.reg),
		mid.CORS(cfg.CORSOrigin),
		mid.OTel("kashf-api"),
		mid.MaxBody(cfg.MaxBodyBytes),
	)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		status := http.StatusBadRequest
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, msgBadBody)
		return false
	}
	return true
}

// --- Handlers ---

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Count(r.Context())
	breaker := s.svc.StoreState().String()
	if err != nil {
		s.logger.Error("health: count vehicles", "err", err, "store_breaker", breaker)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "store_breaker": breaker})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "vehicles": n, "store_breaker": breaker})
}

// PreviewRequest is the JSON body for POST /api/admin/listings/preview.
type PreviewRequest struct {
	Text string `json:"text"`
}

func (s *server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if !decode(w, r, &req) {
		return
	}
	rep, err := s.svc.Preview(r.Context(), req.Text)
	if err != nil {
		s.logger.Error("preview failed", "err", err, "request_id", mid.GetRequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, msgUploadFailed)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// DuplicatesRequest is the JSON body for POST /api/admin/listings/duplicates.
type DuplicatesRequest struct {
	Vehicles []listing.ParsedVehicle `json:"vehicles"`
}

func (s *server) handleDuplicates(w http.ResponseWriter, r *http.Request) {
	var req DuplicatesRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"duplicates": s.svc.Duplicates(req.Vehicles)})
}

// ConfirmResponse is the JSON response for POST /api/admin/listings/confirm.
type ConfirmResponse struct {
	Success bool `json:"success"`
	upload.Report
}

func (s *server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var batch upload.Batch
	if !decode(w, r, &batch) {
		return
	}
	rep, err := s.svc.Confirm(r.Context(), batch)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, ConfirmResponse{Success: true, Report: rep})
	case errors.Is(err, domain.ErrEmptyBatch):
		writeError(w, http.StatusBadRequest, msgNoVehicles)
	case errors.Is(err, domain.ErrInvalidWhatsApp):
		writeError(w, http.StatusBadRequest, msgBadWhatsApp)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusServiceUnavailable, ConfirmResponse{Report: rep})
	default:
		s.logger.Error("confirm failed", "err", err, "request_id", mid.GetRequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, msgUploadFailed)
	}
}

// handleRecent lists stored vehicles newest first. Accepts ?offset= and ?limit=.
func (s *server) handleRecent(w http.ResponseWriter, r *http.Request) {
	var page repo.ListOpts
	for key, dst := range map[string]*int{"offset": &page.Offset, "limit": &page.Limit} {
		raw := r.URL.Query().Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, msgBadBody)
			return
		}
		*dst = n
	}
	page.Limit = min(page.Limit, registry.DefaultPageSize)

	vehicles, err := s.store.Recent(r.Context(), page)
	if err != nil {
		s.logger.Error("list vehicles failed", "err", err, "request_id", mid.GetRequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, msgListFailed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"vehicles": vehicles})
}

func (s *server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := s.store.Delete(r.Context(), id)
	switch {
	case err == nil:
		s.logger.Info("vehicle deleted", "id", id, "request_id", mid.GetRequestID(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, msgNoVehicle)
	default:
		s.logger.Error("delete vehicle failed", "err", err, "id", id, "request_id", mid.GetRequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, msgDeleteFailed)
	}
}

// SearchRequest is the JSON body for POST /api/search. WhatsApp is optional
// but must be a valid Sudanese number when given.
type SearchRequest struct {
	WhatsApp string `json:"whatsapp,omitempty"`
	Chassis  string `json:"chassis,omitempty"`
	Plate    string `json:"plate,omitempty"`
	CarName  string `json:"car_name,omitempty"`
}

// SearchResponse is the JSON response for POST /api/search.
type SearchResponse struct {
	Found          bool                  `json:"found"`
	Message        string                `json:"message"`
	Results        []domain.FoundVehicle `json:"results"`
	ResponseTimeMS int64                 `json:"response_time_ms"`
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decode(w, r, &req) {
		return
	}
	if req.WhatsApp != "" {
		if err := domain.ValidateWhatsApp(req.WhatsApp); err != nil {
			writeError(w, http.StatusBadRequest, msgBadWhatsApp)
			return
		}
	}
	q := domain.SearchQuery{Chassis: req.Chassis, Plate: req.Plate}
	if err := domain.ValidateSearchQuery(q); err != nil {
		writeError(w, http.StatusBadRequest, msgQueryRequired)
		return
	}

	start := time.Now()
	results, err := s.store.Search(r.Context(), q)
	if err != nil {
		s.logger.Error("search failed", "err", err, "request_id", mid.GetRequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, msgSearchFailed)
		return
	}
	elapsed := time.Since(start)

	found := len(results) > 0
	s.reg.Counter("kashf_searches_total", "Registry searches by kind and outcome",
		"kind", searchKind(q.Normalized()), "found", fmt.Sprint(found)).Inc()

	resp := SearchResponse{
		Found:          found,
		Message:        msgNotFound,
		Results:        results,
		ResponseTimeMS: elapsed.Milliseconds(),
	}
	if found {
		resp.Message = fmt.Sprintf(msgFoundTemplate, len(results))
	} else {
		resp.Results = []domain.FoundVehicle{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func searchKind(q domain.SearchQuery) string {
	switch {
	case q.Chassis != "" && q.Plate != "":
		return "both"
	case q.Chassis != "":
		return "chassis"
	default:
		return "plate"
	}
}
