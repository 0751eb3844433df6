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

type PurchaseHandler struct {
	service  service.PurchaseService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewPurchaseHandler creates a new instance of PurchaseHandler with the provided service.
func NewPurchaseHandler(service service.PurchaseService, logger *slog.Logger) *PurchaseHandler {
	return &PurchaseHandler{
		service:  service,
		validate: validator.New(),

		logger: logger.With("component", "rest.purchase"),
	}
}

// RegisterRoutes registers the HTTP routes for purchases.
func (h *PurchaseHandler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/purchases", func(r chi.Router) {
		r.Get("/", h.FindAll)
		r.Post("/", h.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.FindByID)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
		})
	})
}

// FindByID retrieves a purchase by its ID.
func (h *PurchaseHandler) FindByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to find purchase by ID", "ID", id)
	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pherrors.ErrPurchaseNotFound) {
			mLogger.WarnContext(r.Context(), "Purchase not found", "ID", id)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Purchase with ID %d not found", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error retrieving purchase", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve purchase with ID %d", id))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// FindAll retrieves a paginated list of purchases, newest first.
func (h *PurchaseHandler) FindAll(w http.ResponseWriter, r *http.Request) {
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
		mLogger.ErrorContext(r.Context(), "Error retrieving purchase list", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch purchases")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// Create records a purchase. The paired stock increase is applied in the
// same transaction as the record insert.
func (h *PurchaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	dto, ok := decodeAndValidate[service.PurchaseCreateDto](w, r, h.validate, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to create purchase", "purchase", dto)
	created, err := h.service.Create(r.Context(), dto)
	if err != nil {
		h.respondMutationError(w, r, mLogger, err, dto.MedicineID, "create purchase")
		return
	}
	mLogger.InfoContext(r.Context(), "Purchase created successfully", slog.Int64("ID", created.ID))
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// Update rewrites a purchase. The net quantity change is applied to stock
// atomically with the record update.
func (h *PurchaseHandler) Update(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	dto, ok := decodeAndValidate[service.PurchaseCreateDto](w, r, h.validate, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to update purchase", "ID", id)
	updated, err := h.service.Update(r.Context(), id, dto)
	if err != nil {
		if errors.Is(err, pherrors.ErrPurchaseNotFound) {
			mLogger.WarnContext(r.Context(), "Purchase not found for update", "ID", id)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Purchase with ID %d not found", id))
			return
		}
		h.respondMutationError(w, r, mLogger, err, dto.MedicineID, "update purchase")
		return
	}
	mLogger.InfoContext(r.Context(), "Purchase updated successfully", slog.Int64("ID", updated.ID))
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// Delete removes a purchase and reverses its stock contribution. The
// reversal is rejected when the stock has since been sold.
func (h *PurchaseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to delete purchase", "ID", id)
	if err := h.service.DeleteByID(r.Context(), id); err != nil {
		if errors.Is(err, pherrors.ErrPurchaseNotFound) {
			mLogger.WarnContext(r.Context(), "Purchase not found for deletion", "ID", id)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Purchase with ID %d not found", id))
			return
		} else if errors.Is(err, pherrors.ErrInsufficientStock) {
			mLogger.WarnContext(r.Context(), "Purchase reversal would drive stock negative", "ID", id)
			web.RespondError(w, mLogger, http.StatusConflict, "Cannot delete purchase: its stock has already been sold")
			return
		}
		mLogger.ErrorContext(r.Context(), "Error deleting purchase", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to delete purchase with ID %d", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Purchase deleted successfully", slog.Int64("ID", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *PurchaseHandler) respondMutationError(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, err error, medicineID int64, op string) {
	switch {
	case errors.Is(err, pherrors.ErrMedicineNotFound):
		mLogger.WarnContext(r.Context(), "Medicine not found", "medicine_id", medicineID)
		web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Medicine with ID %d not found", medicineID))
	case errors.Is(err, pherrors.ErrSupplierNotFound):
		mLogger.WarnContext(r.Context(), "Supplier not found", "error", err)
		web.RespondError(w, mLogger, http.StatusNotFound, "Supplier not found")
	case errors.Is(err, pherrors.ErrInsufficientStock):
		mLogger.WarnContext(r.Context(), "Insufficient stock", "medicine_id", medicineID)
		web.RespondError(w, mLogger, http.StatusConflict, fmt.Sprintf("Insufficient stock for medicine with ID %d", medicineID))
	default:
		mLogger.ErrorContext(r.Context(), "Error handling purchase mutation", "op", op, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to "+op)
	}
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *PurchaseHandler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := web.RequestIDFrom(r.Context())
	return h.logger.With("request_id", reqID)
}
