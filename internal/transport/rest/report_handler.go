package rest

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kibranpharma/pharmastock/internal/service"
	"github.com/kibranpharma/pharmastock/pkg/web"
)

type ReportHandler struct {
	service service.ReportService
	logger  *slog.Logger
}

// NewReportHandler creates a new instance of ReportHandler with the provided service.
func NewReportHandler(service service.ReportService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,

		logger: logger.With("component", "rest.report"),
	}
}

// RegisterRoutes registers the HTTP routes for reports.
func (h *ReportHandler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/reports", func(r chi.Router) {
		r.Get("/sales-summary", h.SalesSummary)
		r.Get("/dashboard", h.Dashboard)
	})
}

// SalesSummary returns per-day sales totals for an inclusive date range.
func (h *ReportHandler) SalesSummary(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	from, ok := h.parseDate(w, r, mLogger, "from")
	if !ok {
		return
	}
	to, ok := h.parseDate(w, r, mLogger, "to")
	if !ok {
		return
	}
	if to.Before(from) {
		web.RespondError(w, mLogger, http.StatusBadRequest, "Parameter 'to' must not be before 'from'")
		return
	}

	mLogger.DebugContext(r.Context(), "Received request for sales summary", "from", from, "to", to)
	summary, err := h.service.SalesSummary(r.Context(), from, to)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error building sales summary", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to build sales summary")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, summary)
}

// Dashboard returns the headline inventory figures.
func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	dashboard, err := h.service.Dashboard(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error building dashboard", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to build dashboard")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, dashboard)
}

func (h *ReportHandler) parseDate(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, key string) (time.Time, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		web.RespondError(w, mLogger, http.StatusBadRequest, fmt.Sprintf("Missing required parameter: %s", key))
		return time.Time{}, false
	}
	parsed, err := time.Parse(service.DateFormat, raw)
	if err != nil {
		web.RespondError(w, mLogger, http.StatusBadRequest, fmt.Sprintf("Invalid date for parameter %s: %s", key, raw))
		return time.Time{}, false
	}
	return parsed, true
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *ReportHandler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := web.RequestIDFrom(r.Context())
	return h.logger.With("request_id", reqID)
}
