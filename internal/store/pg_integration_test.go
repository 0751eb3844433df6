package store

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	perrors "github.com/kibranpharma/pharmastock/internal/errors"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"
)

const skipIntegrationTests = "PHARMASTOCK_SKIP_INTEGRATION_TESTS"

// PgStoreSuite is a test suite for the PostgreSQL Store implementation.
type PgStoreSuite struct {
	suite.Suite                             // Embedding testify suite for structured testing
	pgContainer *postgres.PostgresContainer // PostgreSQL container for integration tests
	dbPool      *pgxpool.Pool               // PostgreSQL connection pool
	store       *PgStore                    //
	logger      *slog.Logger                // Logger for the test suite
	ctx         context.Context             // Context for the test suite, used for cancellation and timeouts
}

// SetupSuite initializes the test suite by setting up a PostgreSQL container.
func (s *PgStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	dbName := "pharmastock_db"
	dbUser := "user"
	dbPassword := "password"

	// 1. Start a PostgreSQL container with the specified configuration. Wait for the container to be ready.
	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		// Wait for a specific log message indicating the database service is ready.
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
		// Ensure the container is ready to accept connections on the default PostgreSQL port.
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")

	// 2. Get the connection string from the container
	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get connection string from container")

	// 3. create a new pgxpool instance using the connection string
	s.dbPool, err = pgxpool.New(s.ctx, connStr)
	require.NoError(s.T(), err, "Failed to create pgxpool")

	// 3.1 Ping the database to ensure the connection is established
	for i := range 10 {
		s.logger.Info("Pinging PostgreSQL database", "attempt", i+1)
		err = s.dbPool.Ping(s.ctx)
		if err == nil {
			break
		}
		time.Sleep(time.Second * 2)
	}
	require.NoError(s.T(), err, "Failed to connect to PostgreSQL after retries")

	// 4. Apply the embedded schema migrations
	require.NoError(s.T(), Migrate(connStr), "Failed to apply migrations")
	s.logger.Info("Migrations applied for integration tests")

	s.store = NewPgStore(s.dbPool)
	s.logger.Info("Initialization complete for PgStoreSuite")
}

// TearDownSuite cleans up resources after all tests in the suite have run.
func (s *PgStoreSuite) TearDownSuite() {
	s.logger.Info("Tearing down suite...")
	if s.dbPool != nil {
		s.dbPool.Close()
		s.logger.Info("DB pool closed.")
	}
	if s.pgContainer != nil {
		s.logger.Info("Terminating PostgreSQL container...")
		err := s.pgContainer.Terminate(s.ctx)
		if err != nil {
			s.logger.Warn("failed to terminate PostgreSQL container", "error", err)
		} else {
			s.logger.Info("PostgreSQL container terminated.")
		}
	}
}

// SetupTest prepares the database for each test by truncating all tables.
func (s *PgStoreSuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE sales, purchases, suppliers, medicines RESTART IDENTITY CASCADE")
	require.NoError(s.T(), err, "Failed to truncate tables")
}

// TestPgStoreIntegration runs the PgStore integration tests.
func TestPgStoreIntegration(t *testing.T) {
	// Skip integration tests if the environment variable is set
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	// Run the test suite
	suite.Run(t, new(PgStoreSuite))
}

// createTestMedicine is a helper to seed one catalog entry.
func (s *PgStoreSuite) createTestMedicine(stock int32) *Medicine {
	s.T().Helper()
	created, err := s.store.Create(s.ctx, &Medicine{
		Name:         "Paracetamol",
		Category:     "Analgesic",
		DosageForm:   "Tablet",
		BatchNumber:  "B-1001",
		Manufacturer: "Acme Pharma",
		ExpiryDate:   time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		Unit:         "Box",
		BuyingPrice:  500,
		SellingPrice: 800,
		Country:      "Ethiopia",
		Stock:        stock,
	})
	require.NoError(s.T(), err, "createTestMedicine helper failed")
	return created
}

func (s *PgStoreSuite) createTestSupplier() *Supplier {
	s.T().Helper()
	created, err := s.store.CreateSupplier(s.ctx, "MedSupply Ltd")
	require.NoError(s.T(), err, "createTestSupplier helper failed")
	return created
}

func (s *PgStoreSuite) TestCreateMedicine() {
	s.SetupTest()
	// when
	created := s.createTestMedicine(10)

	// then
	require.NotZero(s.T(), created.ID)
	require.Equal(s.T(), int32(1), created.Version, "Version should be 1 for a newly created medicine")
	require.Equal(s.T(), int32(10), created.Stock)
	require.NotZero(s.T(), created.CreatedAt)
}

func (s *PgStoreSuite) TestAdjustStock() {
	s.SetupTest()
	m := s.createTestMedicine(10)

	// a valid delta moves the stock and bumps the version
	newStock, err := s.store.AdjustStock(s.ctx, m.ID, -4)
	require.NoError(s.T(), err)
	require.Equal(s.T(), int32(6), newStock)

	found, err := s.store.FindByID(s.ctx, m.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), int32(6), found.Stock)
	require.Equal(s.T(), int32(2), found.Version)

	// a delta below zero is rejected and leaves the row untouched
	_, err = s.store.AdjustStock(s.ctx, m.ID, -7)
	require.ErrorIs(s.T(), err, perrors.ErrInsufficientStock)

	found, err = s.store.FindByID(s.ctx, m.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), int32(6), found.Stock)
}

func (s *PgStoreSuite) TestMedicineOptimisticLock() {
	s.SetupTest()
	m := s.createTestMedicine(10)

	stale := *m
	stale.Version = 99
	_, err := s.store.Update(s.ctx, &stale)
	require.ErrorIs(s.T(), err, perrors.ErrConcurrentModification)

	fresh := *m
	fresh.Name = "Paracetamol 500mg"
	updated, err := s.store.Update(s.ctx, &fresh)
	require.NoError(s.T(), err)
	require.Equal(s.T(), "Paracetamol 500mg", updated.Name)
	require.Equal(s.T(), m.Version+1, updated.Version)
	require.Equal(s.T(), int32(10), updated.Stock, "catalog update must not move stock")
}

func (s *PgStoreSuite) TestPurchasePairsRecordAndStock() {
	s.SetupTest()
	m := s.createTestMedicine(10)
	sp := s.createTestSupplier()
	purchaseDate := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	// create pairs the insert with a +quantity delta
	created, newStock, err := s.store.CreatePurchase(s.ctx, &Purchase{
		MedicineID: m.ID, SupplierID: sp.ID, Quantity: 5,
		PurchasePrice: 500, TotalCost: 2500, PurchaseDate: purchaseDate,
	})
	require.NoError(s.T(), err)
	require.Equal(s.T(), int32(15), newStock)

	// a purchase against a missing supplier rolls back the delta too
	_, _, err = s.store.CreatePurchase(s.ctx, &Purchase{
		MedicineID: m.ID, SupplierID: sp.ID + 100, Quantity: 5, PurchaseDate: purchaseDate,
	})
	require.ErrorIs(s.T(), err, perrors.ErrSupplierNotFound)
	found, err := s.store.FindByID(s.ctx, m.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), int32(15), found.Stock, "failed purchase must not move stock")

	// delete reverses the contribution
	_, newStock, err = s.store.DeletePurchaseByID(s.ctx, created.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), int32(10), newStock)
}

func (s *PgStoreSuite) TestPurchaseDeleteBlockedWhenSold() {
	s.SetupTest()
	m := s.createTestMedicine(0)
	sp := s.createTestSupplier()
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	created, _, err := s.store.CreatePurchase(s.ctx, &Purchase{
		MedicineID: m.ID, SupplierID: sp.ID, Quantity: 5, PurchaseDate: day,
	})
	require.NoError(s.T(), err)

	_, _, err = s.store.CreateSale(s.ctx, &Sale{
		MedicineID: m.ID, Quantity: 4, SellingPrice: 800, TotalAmount: 3200, SaleDate: day,
	})
	require.NoError(s.T(), err)

	_, _, err = s.store.DeletePurchaseByID(s.ctx, created.ID)
	require.ErrorIs(s.T(), err, perrors.ErrInsufficientStock)

	// the record survives a blocked reversal
	kept, err := s.store.FindPurchaseByID(s.ctx, created.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), int32(5), kept.Quantity)
}

func (s *PgStoreSuite) TestSalePairsRecordAndStock() {
	s.SetupTest()
	m := s.createTestMedicine(10)
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	created, newStock, err := s.store.CreateSale(s.ctx, &Sale{
		MedicineID: m.ID, Quantity: 4, SellingPrice: 800, TotalAmount: 3200,
		CustomerName: "Walk-in", SaleDate: day,
	})
	require.NoError(s.T(), err)
	require.Equal(s.T(), int32(6), newStock)

	// oversell is rejected as a whole: no record, no delta
	_, _, err = s.store.CreateSale(s.ctx, &Sale{
		MedicineID: m.ID, Quantity: 7, SaleDate: day,
	})
	require.ErrorIs(s.T(), err, perrors.ErrInsufficientStock)

	sales, err := s.store.FindAllSales(s.ctx, 0, 10)
	require.NoError(s.T(), err)
	require.Len(s.T(), sales, 1)

	// delete restocks
	_, newStock, err = s.store.DeleteSaleByID(s.ctx, created.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), int32(10), newStock)
}

// Concurrent single-unit sales against a small stock must leave the stock
// at exactly zero with one sale row per successful decrement.
func (s *PgStoreSuite) TestConcurrentSalesNeverOversell() {
	s.SetupTest()
	m := s.createTestMedicine(5)
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	var g errgroup.Group
	const attempts = 12
	for range attempts {
		g.Go(func() error {
			_, _, err := s.store.CreateSale(s.ctx, &Sale{
				MedicineID: m.ID, Quantity: 1, SellingPrice: 800, TotalAmount: 800, SaleDate: day,
			})
			if err != nil && !errors.Is(err, perrors.ErrInsufficientStock) {
				return err
			}
			return nil
		})
	}
	require.NoError(s.T(), g.Wait())

	found, err := s.store.FindByID(s.ctx, m.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), int32(0), found.Stock)

	sales, err := s.store.FindAllSales(s.ctx, 0, attempts)
	require.NoError(s.T(), err)
	require.Len(s.T(), sales, 5)
}

func (s *PgStoreSuite) TestSupplierDeleteBlockedWhileReferenced() {
	s.SetupTest()
	m := s.createTestMedicine(0)
	sp := s.createTestSupplier()
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	created, _, err := s.store.CreatePurchase(s.ctx, &Purchase{
		MedicineID: m.ID, SupplierID: sp.ID, Quantity: 5, PurchaseDate: day,
	})
	require.NoError(s.T(), err)

	err = s.store.DeleteSupplierByID(s.ctx, sp.ID)
	require.ErrorIs(s.T(), err, perrors.ErrSupplierInUse)

	_, _, err = s.store.DeletePurchaseByID(s.ctx, created.ID)
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.store.DeleteSupplierByID(s.ctx, sp.ID))
}

func (s *PgStoreSuite) TestMedicineDeleteBlockedWhileReferenced() {
	s.SetupTest()
	m := s.createTestMedicine(10)
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	_, _, err := s.store.CreateSale(s.ctx, &Sale{
		MedicineID: m.ID, Quantity: 2, SellingPrice: 800, TotalAmount: 1600, SaleDate: day,
	})
	require.NoError(s.T(), err)

	// the sale's delta bumped the version
	current, err := s.store.FindByID(s.ctx, m.ID)
	require.NoError(s.T(), err)

	err = s.store.DeleteByID(s.ctx, m.ID, current.Version)
	require.ErrorIs(s.T(), err, perrors.ErrMedicineInUse)

	found, err := s.store.FindByID(s.ctx, m.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), int32(8), found.Stock)
}

func (s *PgStoreSuite) TestSalesSummary() {
	s.SetupTest()
	m := s.createTestMedicine(100)
	day1 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)

	for _, sale := range []Sale{
		{MedicineID: m.ID, Quantity: 2, SellingPrice: 800, TotalAmount: 1600, SaleDate: day1},
		{MedicineID: m.ID, Quantity: 1, SellingPrice: 800, TotalAmount: 800, SaleDate: day1},
		{MedicineID: m.ID, Quantity: 5, SellingPrice: 800, TotalAmount: 4000, SaleDate: day2},
	} {
		_, _, err := s.store.CreateSale(s.ctx, &sale)
		require.NoError(s.T(), err)
	}

	summary, err := s.store.SalesSummary(s.ctx, day1, day2)
	require.NoError(s.T(), err)
	require.Len(s.T(), summary, 2)
	require.Equal(s.T(), int64(2), summary[0].Transactions)
	require.Equal(s.T(), int64(2400), summary[0].Revenue)
	require.Equal(s.T(), int64(4000), summary[1].Revenue)
}
