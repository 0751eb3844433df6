package service

import (
	"context"
	"fmt"
	"time"

	"github.com/kibranpharma/pharmastock/internal/store"
)

// SupplierService defines the methods for managing the supplier directory.
type SupplierService interface {
	// FindByID retrieves a single supplier by its unique identifier.
	// Returns ErrSupplierNotFound if no supplier exists with the given ID.
	FindByID(ctx context.Context, id int64) (*SupplierDto, error)

	// FindAll returns all suppliers.
	FindAll(ctx context.Context) ([]SupplierDto, error)

	// Create adds a new supplier.
	Create(ctx context.Context, supplier SupplierCreateDto) (*SupplierDto, error)

	// Update renames an existing supplier.
	Update(ctx context.Context, id int64, supplier SupplierCreateDto) (*SupplierDto, error)

	// DeleteByID removes a supplier. Returns ErrSupplierInUse when the
	// supplier still has recorded purchases.
	DeleteByID(ctx context.Context, id int64) error
}

// Suppliers implements SupplierService.
type Suppliers struct {
	repository store.SupplierStore
}

// NewSuppliers creates a new instance of SupplierService with the provided repository.
func NewSuppliers(repo store.SupplierStore) *Suppliers {
	return &Suppliers{
		repository: repo,
	}
}

// SupplierCreateDto represents the data transfer object for creating or renaming a supplier.
type SupplierCreateDto struct {
	Name string `json:"name" validate:"required,max=100"`
}

// SupplierDto represents the data transfer object for a supplier.
type SupplierDto struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

func (s *Suppliers) FindByID(ctx context.Context, id int64) (*SupplierDto, error) {
	supplier, err := s.repository.FindSupplierByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch supplier by ID %d: %w", id, err)
	}
	return toSupplierDto(supplier), nil
}

func (s *Suppliers) FindAll(ctx context.Context) ([]SupplierDto, error) {
	suppliers, err := s.repository.FindAllSuppliers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch suppliers: %w", err)
	}
	supplierDtos := make([]SupplierDto, len(suppliers))

	for i, item := range suppliers {
		supplierDtos[i] = *toSupplierDto(&item)
	}

	return supplierDtos, nil
}

func (s *Suppliers) Create(ctx context.Context, supplier SupplierCreateDto) (*SupplierDto, error) {
	created, err := s.repository.CreateSupplier(ctx, supplier.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}
	return toSupplierDto(created), nil
}

func (s *Suppliers) Update(ctx context.Context, id int64, supplier SupplierCreateDto) (*SupplierDto, error) {
	updated, err := s.repository.UpdateSupplier(ctx, id, supplier.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to update supplier with ID %d: %w", id, err)
	}
	return toSupplierDto(updated), nil
}

func (s *Suppliers) DeleteByID(ctx context.Context, id int64) error {
	return s.repository.DeleteSupplierByID(ctx, id)
}

// toSupplierDto converts a store.Supplier to a SupplierDto.
func toSupplierDto(s *store.Supplier) *SupplierDto {
	return &SupplierDto{
		ID:        s.ID,
		Name:      s.Name,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
}
