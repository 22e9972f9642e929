package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ruialonso/taxilog-backend/api/controllers"
	"github.com/ruialonso/taxilog-backend/api/middleware"
	"github.com/ruialonso/taxilog-backend/internal/activation"
	"github.com/ruialonso/taxilog-backend/internal/backup"
	"github.com/ruialonso/taxilog-backend/internal/cycles"
	"github.com/ruialonso/taxilog-backend/internal/extraction"
	"github.com/ruialonso/taxilog-backend/internal/reports"
	"github.com/ruialonso/taxilog-backend/internal/trips"
	"github.com/ruialonso/taxilog-backend/pkg/config"
	"github.com/ruialonso/taxilog-backend/pkg/logger"
	pkgredis "github.com/ruialonso/taxilog-backend/pkg/redis"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP pinger,
	redisP pinger,
	idempotencyStore pkgredis.IdempotencyStore,
	activationService activation.Service,
	cyclesService cycles.Service,
	tripsService trips.Service,
	backupService backup.Service,
	reportsService reports.Service,
	extractionService extraction.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/activation", func(r chi.Router) {
			r.Get("/status", controllers.ActivationStatus(activationService, logg))
			r.Post("/redeem", controllers.ActivationRedeem(activationService, logg))
			r.Post("/trial", controllers.ActivationTrial(activationService, logg))
			r.Post("/format", controllers.ActivationFormatCode(logg))
		})

		r.Route("/cycles", func(r chi.Router) {
			r.Post("/", controllers.CycleOpen(cyclesService, logg))
			r.Get("/", controllers.CycleListClosed(cyclesService, logg))
			r.Get("/active", controllers.CycleActive(cyclesService, logg))
			r.Post("/{cycleID}/close", controllers.CycleClose(cyclesService, logg))
			r.Delete("/{cycleID}", controllers.CycleDelete(cyclesService, logg))
			r.Get("/{cycleID}/trips", controllers.TripList(tripsService, logg))
			r.Get("/{cycleID}/report", controllers.CycleReport(reportsService, logg))
		})

		r.Post("/trips", controllers.TripRecord(tripsService, logg))

		r.Route("/recurring", func(r chi.Router) {
			r.Get("/clients", controllers.RecurringClients(tripsService, logg))
			r.Get("/clients/{clientName}/routes", controllers.RecurringRoutes(tripsService, logg))
		})

		r.Post("/scan", controllers.TicketScan(extractionService, logg))

		r.Route("/backup", func(r chi.Router) {
			r.Get("/", controllers.BackupExport(backupService, logg))
			r.Post("/restore", controllers.BackupRestore(backupService, logg))
		})
	})

	return r
}
