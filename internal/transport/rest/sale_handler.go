package rest

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	pherrors "github.com/kibranpharma/pharmastock/internal/errors"
	"github.com/kibranpharma/pharmastock/internal/service"
	"github.com/kibranpharma/pharmastock/pkg/web"
)

type SaleHandler struct {
	service  service.SaleService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewSaleHandler creates a new instance of SaleHandler with the provided service.
func NewSaleHandler(service service.SaleService, logger *slog.Logger) *SaleHandler {
	return &SaleHandler{
		service:  service,
		validate: validator.New(),

		logger: logger.With("component", "rest.sale"),
	}
}

// RegisterRoutes registers the HTTP routes for sales.
func (h *SaleHandler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/sales", func(r chi.Router) {
		r.Get("/", h.FindAll)
		r.Post("/", h.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.FindByID)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
		})
	})
}

// FindByID retrieves a sale by its ID.
func (h *SaleHandler) FindByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to find sale by ID", "ID", id)
	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pherrors.ErrSaleNotFound) {
			mLogger.WarnContext(r.Context(), "Sale not found", "ID", id)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Sale with ID %d not found", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error retrieving sale", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve sale with ID %d", id))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// FindAll retrieves a paginated list of sales, newest first.
func (h *SaleHandler) FindAll(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	limit, ok := web.ParseValidateGt(r, w, mLogger, "limit", 0)
	if !ok {
		return
	}
	offset, ok := web.ParseValidateGte(r, w, mLogger, "offset", 0)
	if !ok {
		return
	}

	list, err := h.service.FindAll(r.Context(), offset, limit)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving sale list", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch sales")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// Create records a sale. Stock is validated and decreased in the same
// transaction as the record insert, so an oversell leaves no record behind.
func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	dto, ok := decodeAndValidate[service.SaleCreateDto](w, r, h.validate, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to create sale", "sale", dto)
	created, err := h.service.Create(r.Context(), dto)
	if err != nil {
		h.respondMutationError(w, r, mLogger, err, dto.MedicineID, "create sale")
		return
	}
	mLogger.InfoContext(r.Context(), "Sale created successfully", slog.Int64("ID", created.ID))
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// Update rewrites a sale. The net quantity change is applied to stock
// atomically with the record update.
func (h *SaleHandler) Update(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	dto, ok := decodeAndValidate[service.SaleCreateDto](w, r, h.validate, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to update sale", "ID", id)
	updated, err := h.service.Update(r.Context(), id, dto)
	if err != nil {
		if errors.Is(err, pherrors.ErrSaleNotFound) {
			mLogger.WarnContext(r.Context(), "Sale not found for update", "ID", id)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Sale with ID %d not found", id))
			return
		}
		h.respondMutationError(w, r, mLogger, err, dto.MedicineID, "update sale")
		return
	}
	mLogger.InfoContext(r.Context(), "Sale updated successfully", slog.Int64("ID", updated.ID))
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// Delete removes a sale and returns its quantity to stock.
func (h *SaleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to delete sale", "ID", id)
	if err := h.service.DeleteByID(r.Context(), id); err != nil {
		if errors.Is(err, pherrors.ErrSaleNotFound) {
			mLogger.WarnContext(r.Context(), "Sale not found for deletion", "ID", id)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Sale with ID %d not found", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error deleting sale", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to delete sale with ID %d", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Sale deleted successfully", slog.Int64("ID", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *SaleHandler) respondMutationError(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, err error, medicineID int64, op string) {
	switch {
	case errors.Is(err, pherrors.ErrMedicineNotFound):
		mLogger.WarnContext(r.Context(), "Medicine not found", "medicine_id", medicineID)
		web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Medicine with ID %d not found", medicineID))
	case errors.Is(err, pherrors.ErrInsufficientStock):
		mLogger.WarnContext(r.Context(), "Insufficient stock for sale", "medicine_id", medicineID)
		web.RespondError(w, mLogger, http.StatusConflict, fmt.Sprintf("Insufficient stock for medicine with ID %d", medicineID))
	default:
		mLogger.ErrorContext(r.Context(), "Error handling sale mutation", "op", op, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to "+op)
	}
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *SaleHandler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := web.RequestIDFrom(r.Context())
	return h.logger.With("request_id", reqID)
}
