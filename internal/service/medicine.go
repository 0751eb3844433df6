// Package service provides the implementation of inventory business logic.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/kibranpharma/pharmastock/internal/store"
)

// DateFormat is the wire format for calendar dates (expiry, purchase, sale).
const DateFormat = "2006-01-02"

// MedicineService defines the methods for managing the medicine catalog.
// It abstracts the underlying business logic and data access.
type MedicineService interface {
	// FindByID retrieves a single medicine by its unique identifier.
	// Returns ErrMedicineNotFound if no medicine exists with the given ID.
	FindByID(ctx context.Context, id int64) (*MedicineDto, error)

	// FindAll returns all medicines.
	// Returns an empty slice if no medicines exist.
	FindAll(ctx context.Context, offset, limit int32) ([]MedicineDto, error)

	// Create adds a new medicine to the catalog.
	Create(ctx context.Context, medicine MedicineCreateDto) (*MedicineDto, error)

	// Update modifies an existing medicine's catalog attributes. Stock is
	// not among them; it only moves through the stock ledger.
	// Returns ErrMedicineNotFound or ErrConcurrentModification.
	Update(ctx context.Context, id int64, medicine MedicineUpdateDto) (*MedicineDto, error)

	// DeleteByID removes a medicine by its ID and version.
	DeleteByID(ctx context.Context, id int64, version int32) error

	// Options returns the fixed dropdown option sets for catalog forms.
	Options(ctx context.Context) *DropdownOptionsDto
}

// Medicines implements MedicineService.
type Medicines struct {
	repository store.MedicineStore
}

// NewMedicines creates a new instance of MedicineService with the provided repository.
func NewMedicines(repo store.MedicineStore) *Medicines {
	return &Medicines{
		repository: repo,
	}
}

// MedicineCreateDto represents the data transfer object for creating a new medicine.
type MedicineCreateDto struct {
	Name         string `json:"name"          validate:"required,max=100"`
	Category     string `json:"category"      validate:"required,max=50"`
	DosageForm   string `json:"dosage_form"   validate:"required,max=50"`
	BatchNumber  string `json:"batch_number"  validate:"required,max=50"`
	Manufacturer string `json:"manufacturer"  validate:"required,max=100"`
	ExpiryDate   string `json:"expiry_date"   validate:"required,datetime=2006-01-02"`
	Unit         string `json:"unit"          validate:"required,max=20"`
	BuyingPrice  int64  `json:"buying_price"  validate:"min=0"`
	SellingPrice int64  `json:"selling_price" validate:"min=0"`
	Country      string `json:"country"       validate:"required,max=50"`
	Stock        int32  `json:"stock"         validate:"min=0"`
}

// MedicineUpdateDto represents the data transfer object for updating a medicine.
// Version is required for optimistic concurrency control. There is no stock
// field: catalog edits cannot move stock.
type MedicineUpdateDto struct {
	Name         string `json:"name"          validate:"required,max=100"`
	Category     string `json:"category"      validate:"required,max=50"`
	DosageForm   string `json:"dosage_form"   validate:"required,max=50"`
	BatchNumber  string `json:"batch_number"  validate:"required,max=50"`
	Manufacturer string `json:"manufacturer"  validate:"required,max=100"`
	ExpiryDate   string `json:"expiry_date"   validate:"required,datetime=2006-01-02"`
	Unit         string `json:"unit"          validate:"required,max=20"`
	BuyingPrice  int64  `json:"buying_price"  validate:"min=0"`
	SellingPrice int64  `json:"selling_price" validate:"min=0"`
	Country      string `json:"country"       validate:"required,max=50"`
	Version      int32  `json:"version"       validate:"required,min=1"`
}

// MedicineDto represents the data transfer object for a medicine.
// Version is read-only and used for optimistic concurrency control.
type MedicineDto struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	DosageForm   string `json:"dosage_form"`
	BatchNumber  string `json:"batch_number"`
	Manufacturer string `json:"manufacturer"`
	ExpiryDate   string `json:"expiry_date"`
	Unit         string `json:"unit"`
	BuyingPrice  int64  `json:"buying_price"`
	SellingPrice int64  `json:"selling_price"`
	Country      string `json:"country"`
	Stock        int32  `json:"stock"`
	Version      int32  `json:"version"`
}

// DropdownOptionsDto carries the option sets for the catalog form selects.
type DropdownOptionsDto struct {
	Categories  []string `json:"categories"`
	DosageForms []string `json:"dosage_forms"`
	Units       []string `json:"units"`
	Countries   []string `json:"countries"`
}

// FindByID retrieves a medicine by its ID and returns it as a MedicineDto.
// Returns ErrMedicineNotFound if no medicine exists with the given ID.
func (s *Medicines) FindByID(ctx context.Context, id int64) (*MedicineDto, error) {
	medicine, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch medicine by ID %d: %w", id, err)
	}

	return toMedicineDto(medicine), nil
}

// FindAll retrieves a list of all medicines and returns them as MedicineDtos.
// Returns an empty slice if no medicines exist or error if the retrieval fails.
func (s *Medicines) FindAll(ctx context.Context, offset, limit int32) ([]MedicineDto, error) {
	medicines, err := s.repository.FindAll(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch medicines: %w", err)
	}
	medicineDtos := make([]MedicineDto, len(medicines))

	for i, item := range medicines {
		medicineDtos[i] = *toMedicineDto(&item)
	}

	return medicineDtos, nil
}

// Create creates a new medicine and returns it as a MedicineDto.
func (s *Medicines) Create(ctx context.Context, medicine MedicineCreateDto) (*MedicineDto, error) {
	expiry, err := time.Parse(DateFormat, medicine.ExpiryDate)
	if err != nil {
		return nil, fmt.Errorf("invalid expiry date %q: %w", medicine.ExpiryDate, err)
	}

	created, err := s.repository.Create(ctx, &store.Medicine{
		Name:         medicine.Name,
		Category:     medicine.Category,
		DosageForm:   medicine.DosageForm,
		BatchNumber:  medicine.BatchNumber,
		Manufacturer: medicine.Manufacturer,
		ExpiryDate:   expiry,
		Unit:         medicine.Unit,
		BuyingPrice:  medicine.BuyingPrice,
		SellingPrice: medicine.SellingPrice,
		Country:      medicine.Country,
		Stock:        medicine.Stock,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create medicine: %w", err)
	}

	return toMedicineDto(created), nil
}

// Update modifies a medicine's catalog attributes and returns the updated medicine.
func (s *Medicines) Update(ctx context.Context, id int64, medicine MedicineUpdateDto) (*MedicineDto, error) {
	expiry, err := time.Parse(DateFormat, medicine.ExpiryDate)
	if err != nil {
		return nil, fmt.Errorf("invalid expiry date %q: %w", medicine.ExpiryDate, err)
	}

	updated, err := s.repository.Update(ctx, &store.Medicine{
		ID:           id,
		Name:         medicine.Name,
		Category:     medicine.Category,
		DosageForm:   medicine.DosageForm,
		BatchNumber:  medicine.BatchNumber,
		Manufacturer: medicine.Manufacturer,
		ExpiryDate:   expiry,
		Unit:         medicine.Unit,
		BuyingPrice:  medicine.BuyingPrice,
		SellingPrice: medicine.SellingPrice,
		Country:      medicine.Country,
		Version:      medicine.Version,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update medicine with ID %d: %w", id, err)
	}

	return toMedicineDto(updated), nil
}

// DeleteByID deletes a medicine by its ID.
func (s *Medicines) DeleteByID(ctx context.Context, id int64, version int32) error {
	return s.repository.DeleteByID(ctx, id, version)
}

// Options returns the fixed dropdown option sets for catalog forms.
func (s *Medicines) Options(_ context.Context) *DropdownOptionsDto {
	return &DropdownOptionsDto{
		Categories:  []string{"Analgesic", "Antibiotic", "Vitamin", "Antihistamine", "Other"},
		DosageForms: []string{"Tablet", "Capsule", "Syrup", "Injection"},
		Units:       []string{"Strip", "Box", "Bottle", "Vial"},
		Countries:   []string{"India", "USA", "Ethiopia", "Germany", "China"},
	}
}

// toMedicineDto converts a store.Medicine to a MedicineDto.
func toMedicineDto(m *store.Medicine) *MedicineDto {
	return &MedicineDto{
		ID:           m.ID,
		Name:         m.Name,
		Category:     m.Category,
		DosageForm:   m.DosageForm,
		BatchNumber:  m.BatchNumber,
		Manufacturer: m.Manufacturer,
		ExpiryDate:   m.ExpiryDate.Format(DateFormat),
		Unit:         m.Unit,
		BuyingPrice:  m.BuyingPrice,
		SellingPrice: m.SellingPrice,
		Country:      m.Country,
		Stock:        m.Stock,
		Version:      m.Version,
	}
}
