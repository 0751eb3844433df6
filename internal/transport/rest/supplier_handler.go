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

type SupplierHandler struct {
	service  service.SupplierService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewSupplierHandler creates a new instance of SupplierHandler with the provided service.
func NewSupplierHandler(service service.SupplierService, logger *slog.Logger) *SupplierHandler {
	return &SupplierHandler{
		service:  service,
		validate: validator.New(),

		logger: logger.With("component", "rest.supplier"),
	}
}

// RegisterRoutes registers the HTTP routes for suppliers.
func (h *SupplierHandler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/suppliers", func(r chi.Router) {
		r.Get("/", h.FindAll)
		r.Post("/", h.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.FindByID)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
		})
	})
}

// FindByID retrieves a supplier by its ID.
func (h *SupplierHandler) FindByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to find supplier by ID", "ID", id)
	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pherrors.ErrSupplierNotFound) {
			mLogger.WarnContext(r.Context(), "Supplier not found", "ID", id)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Supplier with ID %d not found", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error retrieving supplier", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve supplier with ID %d", id))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// FindAll retrieves all suppliers.
func (h *SupplierHandler) FindAll(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	list, err := h.service.FindAll(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving supplier list", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch suppliers")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// Create handles the creation of a new supplier.
func (h *SupplierHandler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	dto, ok := decodeAndValidate[service.SupplierCreateDto](w, r, h.validate, mLogger)
	if !ok {
		return
	}

	created, err := h.service.Create(r.Context(), dto)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error creating supplier", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to create supplier")
		return
	}
	mLogger.InfoContext(r.Context(), "Supplier created successfully", slog.Int64("ID", created.ID))
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// Update renames an existing supplier.
func (h *SupplierHandler) Update(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	dto, ok := decodeAndValidate[service.SupplierCreateDto](w, r, h.validate, mLogger)
	if !ok {
		return
	}

	updated, err := h.service.Update(r.Context(), id, dto)
	if err != nil {
		if errors.Is(err, pherrors.ErrSupplierNotFound) {
			mLogger.WarnContext(r.Context(), "Supplier not found for update", "ID", id)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Supplier with ID %d not found", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error updating supplier", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to update supplier with ID %d", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Supplier updated successfully", slog.Int64("ID", updated.ID))
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// Delete removes a supplier. Suppliers referenced by purchases cannot be
// removed.
func (h *SupplierHandler) Delete(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	if err := h.service.DeleteByID(r.Context(), id); err != nil {
		if errors.Is(err, pherrors.ErrSupplierNotFound) {
			mLogger.WarnContext(r.Context(), "Supplier not found for deletion", "ID", id)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Supplier with ID %d not found", id))
			return
		} else if errors.Is(err, pherrors.ErrSupplierInUse) {
			mLogger.WarnContext(r.Context(), "Supplier still referenced by purchases", "ID", id)
			web.RespondError(w, mLogger, http.StatusConflict, fmt.Sprintf("Supplier with ID %d is referenced by purchases", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error deleting supplier", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to delete supplier with ID %d", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Supplier deleted successfully", slog.Int64("ID", id))
	w.WriteHeader(http.StatusNoContent)
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *SupplierHandler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := web.RequestIDFrom(r.Context())
	return h.logger.With("request_id", reqID)
}
