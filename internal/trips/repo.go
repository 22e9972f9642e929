package trips

import (
	"context"

	"github.com/google/uuid"
	"github.com/ruialonso/taxilog-backend/pkg/db/models"
	"github.com/ruialonso/taxilog-backend/pkg/pagination"
	"gorm.io/gorm"
)

type listQuery struct {
	cycleID uuid.UUID
	cursor  *pagination.Cursor
	limit   int
}

// Repository exposes trip persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a trip repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new trip row.
func (r *Repository) Create(ctx context.Context, trip *models.Trip) (*models.Trip, error) {
	if err := r.db.WithContext(ctx).Create(trip).Error; err != nil {
		return nil, err
	}
	return trip, nil
}

// List returns cycle-scoped trips using cursor pagination, newest first.
func (r *Repository) List(ctx context.Context, opts listQuery) ([]models.Trip, error) {
	query := r.db.WithContext(ctx).Model(&models.Trip{}).Where("cycle_id = ?", opts.cycleID)

	if opts.cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", opts.cursor.CreatedAt, opts.cursor.CreatedAt, opts.cursor.ID)
	}

	query = query.Order("created_at DESC").Order("id DESC").Limit(opts.limit)

	var rows []models.Trip
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// AllByCycle returns every trip of a cycle in service-date order. Reports
// render a whole cycle at once, so no pagination here.
func (r *Repository) AllByCycle(ctx context.Context, cycleID uuid.UUID) ([]models.Trip, error) {
	var rows []models.Trip
	err := r.db.WithContext(ctx).
		Where("cycle_id = ?", cycleID).
		Order("date ASC").Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
