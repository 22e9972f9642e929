package trips

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ruialonso/taxilog-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecurringRepository persists the re-entry memory: known clients and their
// usual routes. Both tables are upsert-only from the trip flow.
type RecurringRepository struct {
	db *gorm.DB
}

// NewRecurringRepository constructs the recurring-memory repository.
func NewRecurringRepository(db *gorm.DB) *RecurringRepository {
	return &RecurringRepository{db: db}
}

// UpsertClient creates or refreshes the client row keyed by name, bumping its
// trip counter.
func (r *RecurringRepository) UpsertClient(ctx context.Context, name string, lastTrip time.Time) error {
	client := models.RecurringClient{
		Name:      name,
		TripCount: 1,
		LastTrip:  lastTrip,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}},
			DoUpdates: clause.Assignments(map[string]any{
				"trip_count": gorm.Expr("trip_count + 1"),
				"last_trip":  lastTrip,
			}),
		}).
		Create(&client).Error
}

// UpsertRoute records or overwrites the memorized route for a client. The
// latest confirmed price and discount win.
func (r *RecurringRepository) UpsertRoute(ctx context.Context, route *models.RecurringRoute) error {
	if route.ID == uuid.Nil {
		route.ID = uuid.New()
	}
	if route.TimesUsed == 0 {
		route.TimesUsed = 1
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "client_name"}, {Name: "origin"}, {Name: "destination"}},
			DoUpdates: clause.Assignments(map[string]any{
				"price":            route.Price,
				"discount_percent": route.DiscountPercent,
				"times_used":       gorm.Expr("times_used + 1"),
			}),
		}).
		Create(route).Error
}

// RoutesByClient returns the memorized routes for a client, most used first.
func (r *RecurringRepository) RoutesByClient(ctx context.Context, clientName string) ([]models.RecurringRoute, error) {
	var rows []models.RecurringRoute
	err := r.db.WithContext(ctx).
		Where("client_name = ?", clientName).
		Order("times_used DESC").Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Clients returns every remembered client, most recently used first.
func (r *RecurringRepository) Clients(ctx context.Context) ([]models.RecurringClient, error) {
	var rows []models.RecurringClient
	err := r.db.WithContext(ctx).
		Order("last_trip DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
