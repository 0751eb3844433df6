package rest

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	pherrors "github.com/kibranpharma/pharmastock/internal/errors"
	"github.com/kibranpharma/pharmastock/internal/ledger"
	"github.com/kibranpharma/pharmastock/internal/service"
	"github.com/kibranpharma/pharmastock/pkg/web"
)

type MedicineHandler struct {
	service  service.MedicineService
	ledger   *ledger.Ledger
	validate *validator.Validate
	logger   *slog.Logger
}

// NewMedicineHandler creates a new instance of MedicineHandler with the provided service.
func NewMedicineHandler(service service.MedicineService, ledger *ledger.Ledger, logger *slog.Logger) *MedicineHandler {
	return &MedicineHandler{
		service:  service,
		ledger:   ledger,
		validate: validator.New(),

		logger: logger.With("component", "rest.medicine"),
	}
}

// RegisterRoutes registers the HTTP routes for the medicine catalog.
func (h *MedicineHandler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/medicines", func(r chi.Router) {
		r.Get("/", h.FindAll)
		r.Post("/", h.Create)
		r.Get("/options", h.Options)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.FindByID)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
			r.Post("/stock-adjustments", h.AdjustStock)
		})
	})
	r.Get("/healthz", h.HealthCheck)
}

// FindByID retrieves a medicine by its ID.
func (h *MedicineHandler) FindByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to find medicine by ID", "ID", id)
	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pherrors.ErrMedicineNotFound) {
			mLogger.WarnContext(r.Context(), "Medicine not found", "ID", id)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Medicine with ID %d not found", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error retrieving medicine", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve medicine with ID %d", id))
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved medicine", slog.Int64("ID", found.ID))
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// FindAll retrieves a paginated list of medicines.
func (h *MedicineHandler) FindAll(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	limit, ok := web.ParseValidateGt(r, w, mLogger, "limit", 0)
	if !ok {
		return
	}
	offset, ok := web.ParseValidateGte(r, w, mLogger, "offset", 0)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to find all medicines", "limit", limit, "offset", offset)
	list, err := h.service.FindAll(r.Context(), offset, limit)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving medicine list", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch medicines")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved medicine list", "count", len(list))
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// Options returns the fixed dropdown value lists used by medicine forms.
func (h *MedicineHandler) Options(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	web.RespondJSON(w, mLogger, http.StatusOK, h.service.Options(r.Context()))
}

// Create handles the creation of a new medicine.
func (h *MedicineHandler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	dto, ok := decodeAndValidate[service.MedicineCreateDto](w, r, h.validate, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to create medicine", "medicine", dto)
	created, err := h.service.Create(r.Context(), dto)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error creating medicine", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to create medicine")
		return
	}
	mLogger.InfoContext(r.Context(), "Medicine created successfully", slog.Int64("ID", created.ID))
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// Update modifies a medicine's catalog attributes. Stock is not writable
// here; it only moves through purchases, sales and stock adjustments.
func (h *MedicineHandler) Update(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	dto, ok := decodeAndValidate[service.MedicineUpdateDto](w, r, h.validate, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to update medicine", "ID", id)
	updated, err := h.service.Update(r.Context(), id, dto)
	if err != nil {
		if errors.Is(err, pherrors.ErrMedicineNotFound) {
			mLogger.WarnContext(r.Context(), "Medicine not found for update", "ID", id)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Medicine with ID %d not found", id))
			return
		} else if errors.Is(err, pherrors.ErrConcurrentModification) {
			mLogger.WarnContext(r.Context(), "Optimistic lock error during medicine update", "ID", id)
			web.RespondError(w, mLogger, http.StatusConflict, fmt.Sprintf("Medicine with ID %d has been modified by another user", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error updating medicine", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to update medicine with ID %d", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Medicine updated successfully", slog.Int64("ID", updated.ID))
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// Delete removes a medicine from the catalog. The version query parameter
// carries the optimistic lock token.
func (h *MedicineHandler) Delete(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	version, ok := web.ParseValidateGt(r, w, mLogger, "version", 0)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to delete medicine", "ID", id)
	if err := h.service.DeleteByID(r.Context(), id, version); err != nil {
		if errors.Is(err, pherrors.ErrMedicineNotFound) {
			mLogger.WarnContext(r.Context(), "Medicine not found for deletion", "ID", id)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Medicine with ID %d not found", id))
			return
		} else if errors.Is(err, pherrors.ErrConcurrentModification) {
			mLogger.WarnContext(r.Context(), "Optimistic lock error during medicine deletion", "ID", id)
			web.RespondError(w, mLogger, http.StatusConflict, fmt.Sprintf("Medicine with ID %d has been modified by another user", id))
			return
		} else if errors.Is(err, pherrors.ErrMedicineInUse) {
			mLogger.WarnContext(r.Context(), "Medicine still referenced by records", "ID", id)
			web.RespondError(w, mLogger, http.StatusConflict, fmt.Sprintf("Medicine with ID %d is referenced by purchases or sales", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error deleting medicine", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to delete medicine with ID %d", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Medicine deleted successfully", slog.Int64("ID", id))
	w.WriteHeader(http.StatusNoContent)
}

// StockAdjustmentDto is the request body for a manual stock correction.
// ReferenceID links the adjustment to whatever caused it, e.g. a stocktake
// sheet; when omitted the medicine's own ID is used.
type StockAdjustmentDto struct {
	Delta       int32  `json:"delta"        validate:"required"`
	Reason      string `json:"reason"       validate:"required"`
	ReferenceID string `json:"reference_id" validate:"max=100"`
}

// AdjustStock applies a signed stock delta to a medicine outside the
// purchase/sale lifecycle, e.g. for breakage or a stocktake correction.
func (h *MedicineHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	dto, ok := decodeAndValidate[StockAdjustmentDto](w, r, h.validate, mLogger)
	if !ok {
		return
	}
	reason, err := ledger.ParseReason(dto.Reason)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Unknown stock adjustment reason", "reason", dto.Reason)
		web.RespondError(w, mLogger, http.StatusBadRequest, fmt.Sprintf("Unknown adjustment reason: %s", dto.Reason))
		return
	}

	refID := dto.ReferenceID
	if refID == "" {
		refID = strconv.FormatInt(id, 10)
	}

	mLogger.DebugContext(r.Context(), "Received request to adjust stock", "ID", id, "delta", dto.Delta, "reason", reason, "reference_id", refID)
	newStock, err := h.ledger.ApplyDelta(r.Context(), id, dto.Delta, reason, refID)
	if err != nil {
		if errors.Is(err, pherrors.ErrMedicineNotFound) {
			mLogger.WarnContext(r.Context(), "Medicine not found for stock adjustment", "ID", id)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Medicine with ID %d not found", id))
			return
		} else if errors.Is(err, pherrors.ErrInsufficientStock) {
			mLogger.WarnContext(r.Context(), "Insufficient stock for adjustment", "ID", id, "delta", dto.Delta)
			web.RespondError(w, mLogger, http.StatusConflict, fmt.Sprintf("Insufficient stock for medicine with ID %d", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error adjusting stock", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to adjust stock for medicine with ID %d", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Stock adjusted successfully", slog.Int64("ID", id), slog.Int("new_stock", int(newStock)))
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]int32{"new_stock": newStock})
}

// HealthCheck is a simple health check endpoint.
func (h *MedicineHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *MedicineHandler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := web.RequestIDFrom(r.Context())
	return h.logger.With("request_id", reqID)
}
