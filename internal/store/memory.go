package store

import (
	"context"
	"sync"
	"time"

	perrors "github.com/kibranpharma/pharmastock/internal/errors"
)

// memory implements Store using in-memory maps. A single mutex serializes
// every mutation, which gives the same pairing guarantee as the PostgreSQL
// transactions: a record write and its stock delta commit together or not
// at all.
type memory struct {
	mu             sync.RWMutex
	medicines      map[int64]Medicine
	suppliers      map[int64]Supplier
	purchases      map[int64]Purchase
	sales          map[int64]Sale
	nextMedicineID int64
	nextSupplierID int64
	nextPurchaseID int64
	nextSaleID     int64
}

// NewMemoryStore creates a new in-memory Store. Used by tests and local
// development without a database.
func NewMemoryStore() Store {
	return &memory{
		medicines:      make(map[int64]Medicine),
		suppliers:      make(map[int64]Supplier),
		purchases:      make(map[int64]Purchase),
		sales:          make(map[int64]Sale),
		nextMedicineID: 1,
		nextSupplierID: 1,
		nextPurchaseID: 1,
		nextSaleID:     1,
	}
}

// applyDelta is the single write path for stock in the memory store. The
// caller must hold the write lock.
func (s *memory) applyDelta(medicineID int64, delta int32) (int32, error) {
	m, ok := s.medicines[medicineID]
	if !ok {
		return 0, perrors.ErrMedicineNotFound
	}
	candidate := m.Stock + delta
	if candidate < 0 {
		return 0, perrors.ErrInsufficientStock
	}
	m.Stock = candidate
	m.Version++
	m.UpdatedAt = time.Now().UTC()
	s.medicines[medicineID] = m
	return candidate, nil
}

func (s *memory) FindByID(_ context.Context, id int64) (*Medicine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.medicines[id]
	if !ok {
		return nil, perrors.ErrMedicineNotFound
	}
	return &m, nil
}

func (s *memory) FindAll(_ context.Context, offset, limit int32) ([]Medicine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Medicine, 0, len(s.medicines))
	for id := int64(1); id < s.nextMedicineID; id++ {
		if m, ok := s.medicines[id]; ok {
			list = append(list, m)
		}
	}
	return paginate(list, offset, limit), nil
}

func (s *memory) Create(_ context.Context, m *Medicine) (*Medicine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	created := *m
	created.ID = s.nextMedicineID
	created.Version = 1
	created.CreatedAt = now
	created.UpdatedAt = now
	s.nextMedicineID++
	s.medicines[created.ID] = created
	return &created, nil
}

func (s *memory) Update(_ context.Context, m *Medicine) (*Medicine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.medicines[m.ID]
	if !ok {
		return nil, perrors.ErrMedicineNotFound
	}
	if existing.Version != m.Version {
		return nil, perrors.ErrConcurrentModification
	}

	updated := *m
	updated.Stock = existing.Stock // stock is owned by applyDelta
	updated.Version = existing.Version + 1
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	s.medicines[m.ID] = updated
	return &updated, nil
}

func (s *memory) DeleteByID(_ context.Context, id int64, version int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.medicines[id]
	if !ok {
		return perrors.ErrMedicineNotFound
	}
	if existing.Version != version {
		return perrors.ErrConcurrentModification
	}
	for _, p := range s.purchases {
		if p.MedicineID == id {
			return perrors.ErrMedicineInUse
		}
	}
	for _, sl := range s.sales {
		if sl.MedicineID == id {
			return perrors.ErrMedicineInUse
		}
	}
	delete(s.medicines, id)
	return nil
}

func (s *memory) AdjustStock(_ context.Context, id int64, delta int32) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.applyDelta(id, delta)
}

func (s *memory) FindSupplierByID(_ context.Context, id int64) (*Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sp, ok := s.suppliers[id]
	if !ok {
		return nil, perrors.ErrSupplierNotFound
	}
	return &sp, nil
}

func (s *memory) FindAllSuppliers(_ context.Context) ([]Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Supplier, 0, len(s.suppliers))
	for id := int64(1); id < s.nextSupplierID; id++ {
		if sp, ok := s.suppliers[id]; ok {
			list = append(list, sp)
		}
	}
	return list, nil
}

func (s *memory) CreateSupplier(_ context.Context, name string) (*Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := Supplier{
		ID:        s.nextSupplierID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	s.nextSupplierID++
	s.suppliers[created.ID] = created
	return &created, nil
}

func (s *memory) UpdateSupplier(_ context.Context, id int64, name string) (*Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, ok := s.suppliers[id]
	if !ok {
		return nil, perrors.ErrSupplierNotFound
	}
	sp.Name = name
	s.suppliers[id] = sp
	return &sp, nil
}

func (s *memory) DeleteSupplierByID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.suppliers[id]; !ok {
		return perrors.ErrSupplierNotFound
	}
	for _, p := range s.purchases {
		if p.SupplierID == id {
			return perrors.ErrSupplierInUse
		}
	}
	delete(s.suppliers, id)
	return nil
}

func (s *memory) FindPurchaseByID(_ context.Context, id int64) (*Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.purchases[id]
	if !ok {
		return nil, perrors.ErrPurchaseNotFound
	}
	return &p, nil
}

func (s *memory) FindAllPurchases(_ context.Context, offset, limit int32) ([]Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Purchase, 0, len(s.purchases))
	for id := s.nextPurchaseID - 1; id >= 1; id-- {
		if p, ok := s.purchases[id]; ok {
			list = append(list, p)
		}
	}
	return paginate(list, offset, limit), nil
}

func (s *memory) CreatePurchase(_ context.Context, p *Purchase) (*Purchase, int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	newStock, err := s.applyDelta(p.MedicineID, p.Quantity)
	if err != nil {
		return nil, 0, err
	}
	if _, ok := s.suppliers[p.SupplierID]; !ok {
		// undo the delta; the record write failed
		_, _ = s.applyDelta(p.MedicineID, -p.Quantity)
		return nil, 0, perrors.ErrSupplierNotFound
	}

	created := *p
	created.ID = s.nextPurchaseID
	created.CreatedAt = time.Now().UTC()
	s.nextPurchaseID++
	s.purchases[created.ID] = created
	return &created, newStock, nil
}

func (s *memory) UpdatePurchase(_ context.Context, p *Purchase) (*Purchase, int32, int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.purchases[p.ID]
	if !ok {
		return nil, 0, 0, perrors.ErrPurchaseNotFound
	}

	newStock, err := s.applyDelta(existing.MedicineID, p.Quantity-existing.Quantity)
	if err != nil {
		return nil, 0, 0, err
	}

	updated := *p
	updated.MedicineID = existing.MedicineID
	updated.CreatedAt = existing.CreatedAt
	s.purchases[p.ID] = updated
	return &updated, existing.Quantity, newStock, nil
}

func (s *memory) DeletePurchaseByID(_ context.Context, id int64) (*Purchase, int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.purchases[id]
	if !ok {
		return nil, 0, perrors.ErrPurchaseNotFound
	}

	newStock, err := s.applyDelta(p.MedicineID, -p.Quantity)
	if err != nil {
		return nil, 0, err
	}

	delete(s.purchases, id)
	return &p, newStock, nil
}

func (s *memory) FindSaleByID(_ context.Context, id int64) (*Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sl, ok := s.sales[id]
	if !ok {
		return nil, perrors.ErrSaleNotFound
	}
	return &sl, nil
}

func (s *memory) FindAllSales(_ context.Context, offset, limit int32) ([]Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Sale, 0, len(s.sales))
	for id := s.nextSaleID - 1; id >= 1; id-- {
		if sl, ok := s.sales[id]; ok {
			list = append(list, sl)
		}
	}
	return paginate(list, offset, limit), nil
}

func (s *memory) CreateSale(_ context.Context, sale *Sale) (*Sale, int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	newStock, err := s.applyDelta(sale.MedicineID, -sale.Quantity)
	if err != nil {
		return nil, 0, err
	}

	created := *sale
	created.ID = s.nextSaleID
	created.CreatedAt = time.Now().UTC()
	s.nextSaleID++
	s.sales[created.ID] = created
	return &created, newStock, nil
}

func (s *memory) UpdateSale(_ context.Context, sale *Sale) (*Sale, int32, int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.sales[sale.ID]
	if !ok {
		return nil, 0, 0, perrors.ErrSaleNotFound
	}

	newStock, err := s.applyDelta(existing.MedicineID, -(sale.Quantity - existing.Quantity))
	if err != nil {
		return nil, 0, 0, err
	}

	updated := *sale
	updated.MedicineID = existing.MedicineID
	updated.CreatedAt = existing.CreatedAt
	s.sales[sale.ID] = updated
	return &updated, existing.Quantity, newStock, nil
}

func (s *memory) DeleteSaleByID(_ context.Context, id int64) (*Sale, int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.sales[id]
	if !ok {
		return nil, 0, perrors.ErrSaleNotFound
	}

	newStock, err := s.applyDelta(sl.MedicineID, sl.Quantity)
	if err != nil {
		return nil, 0, err
	}

	delete(s.sales, id)
	return &sl, newStock, nil
}

func (s *memory) SalesSummary(_ context.Context, from, to time.Time) ([]DailySales, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byDay := make(map[time.Time]DailySales)
	for _, sl := range s.sales {
		day := sl.SaleDate.Truncate(24 * time.Hour)
		if day.Before(from) || day.After(to) {
			continue
		}
		d := byDay[day]
		d.Day = day
		d.Transactions++
		d.UnitsSold += int64(sl.Quantity)
		d.Revenue += sl.TotalAmount
		byDay[day] = d
	}

	summary := make([]DailySales, 0, len(byDay))
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if d, ok := byDay[day.Truncate(24*time.Hour)]; ok {
			summary = append(summary, d)
		}
	}
	return summary, nil
}

func (s *memory) Dashboard(_ context.Context, lowStockThreshold int32) (*Dashboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := Dashboard{
		MedicineCount: int64(len(s.medicines)),
		SupplierCount: int64(len(s.suppliers)),
		LowStock:      make([]Medicine, 0, 16),
	}
	for id := int64(1); id < s.nextMedicineID; id++ {
		if m, ok := s.medicines[id]; ok && m.Stock <= lowStockThreshold {
			d.LowStock = append(d.LowStock, m)
		}
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	d.TodaySales.Day = today
	for _, sl := range s.sales {
		if sl.SaleDate.Truncate(24 * time.Hour).Equal(today) {
			d.TodaySales.Transactions++
			d.TodaySales.UnitsSold += int64(sl.Quantity)
			d.TodaySales.Revenue += sl.TotalAmount
		}
	}
	return &d, nil
}

func paginate[T any](list []T, offset, limit int32) []T {
	if int(offset) >= len(list) {
		return []T{}
	}
	end := int(offset) + int(limit)
	if end > len(list) {
		end = len(list)
	}
	return list[offset:end]
}
