// Package api exposes the circulation engine to the UI layer as a JSON
// HTTP interface.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"circulation/internal/circulation"
	"circulation/internal/models"
	"circulation/internal/storage"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circulation_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "circulation_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "endpoint"})
)

// Handler holds the engine behind the HTTP surface.
type Handler struct {
	svc    *circulation.Service
	logger *zap.Logger
}

// NewHandler creates the HTTP handler set.
func NewHandler(svc *circulation.Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type borrowRequest struct {
	UserID string `json:"userId"`
}

type returnRequest struct {
	UserID string `json:"userId"`
	CopyID string `json:"copyId"`
}

type extendRequest struct {
	CopyID string `json:"copyId"`
	Days   int    `json:"days"`
}

type reserveRequest struct {
	UserID string `json:"userId"`
}

// Borrow handles POST /api/v1/books/{bookID}/borrow.
func (h *Handler) Borrow(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/books/{bookID}/borrow"
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", endpoint))
	defer timer.ObserveDuration()

	var req borrowRequest
	if !h.decode(w, r, &req, endpoint) {
		return
	}
	if req.UserID == "" {
		h.respondError(w, http.StatusBadRequest, "userId is required", "POST", endpoint)
		return
	}

	book, tx, err := h.svc.Borrow(r.Context(), mux.Vars(r)["bookID"], req.UserID)
	if err != nil {
		h.respondDomainError(w, err, "POST", endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"book": book, "transaction": tx}, "POST", endpoint)
}

// Return handles POST /api/v1/books/{bookID}/return.
func (h *Handler) Return(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/books/{bookID}/return"
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", endpoint))
	defer timer.ObserveDuration()

	var req returnRequest
	if !h.decode(w, r, &req, endpoint) {
		return
	}
	if req.UserID == "" || req.CopyID == "" {
		h.respondError(w, http.StatusBadRequest, "userId and copyId are required", "POST", endpoint)
		return
	}

	result, err := h.svc.Return(r.Context(), mux.Vars(r)["bookID"], req.UserID, req.CopyID)
	if err != nil {
		h.respondDomainError(w, err, "POST", endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, result, "POST", endpoint)
}

// Extend handles POST /api/v1/books/{bookID}/extend.
func (h *Handler) Extend(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/books/{bookID}/extend"
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", endpoint))
	defer timer.ObserveDuration()

	var req extendRequest
	if !h.decode(w, r, &req, endpoint) {
		return
	}
	if req.CopyID == "" {
		h.respondError(w, http.StatusBadRequest, "copyId is required", "POST", endpoint)
		return
	}
	if req.Days < 0 {
		h.respondError(w, http.StatusBadRequest, "days must not be negative", "POST", endpoint)
		return
	}

	book, tx, err := h.svc.Extend(r.Context(), mux.Vars(r)["bookID"], req.CopyID, req.Days)
	if err != nil {
		h.respondDomainError(w, err, "POST", endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"book": book, "transaction": tx}, "POST", endpoint)
}

// Reserve handles POST /api/v1/books/{bookID}/reserve.
func (h *Handler) Reserve(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/books/{bookID}/reserve"
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", endpoint))
	defer timer.ObserveDuration()

	var req reserveRequest
	if !h.decode(w, r, &req, endpoint) {
		return
	}
	if req.UserID == "" {
		h.respondError(w, http.StatusBadRequest, "userId is required", "POST", endpoint)
		return
	}

	book, tx, err := h.svc.Reserve(r.Context(), mux.Vars(r)["bookID"], req.UserID)
	if err != nil {
		h.respondDomainError(w, err, "POST", endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"book": book, "transaction": tx}, "POST", endpoint)
}

// Transactions handles GET /api/v1/transactions.
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/transactions"
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("GET", endpoint))
	defer timer.ObserveDuration()

	q := r.URL.Query()
	filter := circulation.Filter{
		UserID:    q.Get("userId"),
		BookID:    q.Get("bookId"),
		LibraryID: q.Get("libraryId"),
		Type:      models.TransactionType(q.Get("type")),
		Status:    models.TransactionStatus(q.Get("status")),
	}

	txs, err := h.svc.Transactions(r.Context(), filter)
	if err != nil {
		h.respondDomainError(w, err, "GET", endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"transactions": txs}, "GET", endpoint)
}

// PayFine handles POST /api/v1/fines/{fineID}/pay.
func (h *Handler) PayFine(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/fines/{fineID}/pay"
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", endpoint))
	defer timer.ObserveDuration()

	paid, err := h.svc.PayFine(r.Context(), mux.Vars(r)["fineID"])
	if err != nil {
		h.respondDomainError(w, err, "POST", endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"transaction": paid}, "POST", endpoint)
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"}, "GET", "/health")
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, req any, endpoint string) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "malformed JSON body", r.Method, endpoint)
		return false
	}
	return true
}

func (h *Handler) respondDomainError(w http.ResponseWriter, err error, method, endpoint string) {
	switch {
	case errors.Is(err, circulation.ErrBookNotFound),
		errors.Is(err, circulation.ErrCopyNotFound),
		errors.Is(err, circulation.ErrTransactionNotFound):
		h.respondError(w, http.StatusNotFound, err.Error(), method, endpoint)
	case errors.Is(err, circulation.ErrCopyAlreadyBorrowed),
		errors.Is(err, circulation.ErrCopyNotBorrowed),
		errors.Is(err, circulation.ErrCopyNotBorrowedByUser),
		errors.Is(err, circulation.ErrDuplicateReservation),
		errors.Is(err, circulation.ErrFineNotPayable):
		h.respondError(w, http.StatusConflict, err.Error(), method, endpoint)
	case errors.Is(err, circulation.ErrNoAvailableCopy):
		h.respondError(w, http.StatusUnprocessableEntity, err.Error(), method, endpoint)
	case errors.Is(err, storage.ErrPersistence):
		h.logger.Error("store failure", zap.String("endpoint", endpoint), zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "storage error", method, endpoint)
	default:
		h.logger.Error("unexpected failure", zap.String("endpoint", endpoint), zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal error", method, endpoint)
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, code int, payload any, method, endpoint string) {
	httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(code)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func (h *Handler) respondError(w http.ResponseWriter, code int, msg, method, endpoint string) {
	h.respondJSON(w, code, map[string]string{"error": msg}, method, endpoint)
}
