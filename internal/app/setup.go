// Package app contains the application setup for the pharmastock service.
package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kibranpharma/pharmastock/internal/cache"
	"github.com/kibranpharma/pharmastock/internal/config"
	"github.com/kibranpharma/pharmastock/internal/ledger"
	"github.com/kibranpharma/pharmastock/internal/service"
	"github.com/kibranpharma/pharmastock/internal/store"
	"github.com/kibranpharma/pharmastock/internal/transport/rest"
	"github.com/kibranpharma/pharmastock/pkg/messaging"
	"github.com/kibranpharma/pharmastock/pkg/server"
)

type Dependencies struct {
	MedicineService service.MedicineService
	SupplierService service.SupplierService
	PurchaseService service.PurchaseService
	SaleService     service.SaleService
	ReportService   service.ReportService
	Ledger          *ledger.Ledger
	Logger          *slog.Logger
}

// SetupDependencies wires the store, ledger and services together.
func SetupDependencies(dbPool *pgxpool.Pool, publisher messaging.Publisher, reportCache cache.ReportCache, cfg *config.Config, logger *slog.Logger) *Dependencies {
	pgStore := store.NewPgStore(dbPool)
	stockLedger := ledger.NewLedger(pgStore, publisher, logger)

	return &Dependencies{
		MedicineService: service.NewMedicines(pgStore),
		SupplierService: service.NewSuppliers(pgStore),
		PurchaseService: service.NewPurchases(pgStore, stockLedger, publisher, logger),
		SaleService:     service.NewSales(pgStore, stockLedger, publisher, logger),
		ReportService:   service.NewReports(pgStore, reportCache, cfg.Redis.TTL, cfg.Reports.LowStockThreshold, logger),
		Ledger:          stockLedger,
		Logger:          logger,
	}
}

// SetupHttpHandler initializes the HTTP routes and middleware.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the pharmastock application.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	rest.NewMedicineHandler(deps.MedicineService, deps.Ledger, deps.Logger).RegisterRoutes(mux)
	rest.NewSupplierHandler(deps.SupplierService, deps.Logger).RegisterRoutes(mux)
	rest.NewPurchaseHandler(deps.PurchaseService, deps.Logger).RegisterRoutes(mux)
	rest.NewSaleHandler(deps.SaleService, deps.Logger).RegisterRoutes(mux)
	rest.NewReportHandler(deps.ReportService, deps.Logger).RegisterRoutes(mux)
}

// SetupHttpServer creates and configures an HTTP server for the pharmastock application.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {

	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}
