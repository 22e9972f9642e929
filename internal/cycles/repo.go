package cycles

import (
	"context"

	"github.com/google/uuid"
	"github.com/ruialonso/taxilog-backend/pkg/db/models"
	"github.com/ruialonso/taxilog-backend/pkg/enums"
	"github.com/ruialonso/taxilog-backend/pkg/pagination"
	"gorm.io/gorm"
)

type listQuery struct {
	status enums.CycleStatus
	cursor *pagination.Cursor
	limit  int
}

// Repository exposes billing cycle persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a billing cycle repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new cycle row.
func (r *Repository) Create(ctx context.Context, cycle *models.BillingCycle) (*models.BillingCycle, error) {
	if err := r.db.WithContext(ctx).Create(cycle).Error; err != nil {
		return nil, err
	}
	return cycle, nil
}

// FindByID returns one cycle by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.BillingCycle, error) {
	var cycle models.BillingCycle
	if err := r.db.WithContext(ctx).First(&cycle, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cycle, nil
}

// FindOpen returns the currently open cycle, or gorm.ErrRecordNotFound when
// every cycle is closed.
func (r *Repository) FindOpen(ctx context.Context) (*models.BillingCycle, error) {
	var cycle models.BillingCycle
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.CycleStatusOpen).
		Order("created_at DESC").
		First(&cycle).Error
	if err != nil {
		return nil, err
	}
	return &cycle, nil
}

// Update persists cycle mutations.
func (r *Repository) Update(ctx context.Context, cycle *models.BillingCycle) error {
	return r.db.WithContext(ctx).Save(cycle).Error
}

// Delete removes a cycle row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.BillingCycle{}, "id = ?", id).Error
}

// List returns cycles in the given status using cursor pagination, newest
// first.
func (r *Repository) List(ctx context.Context, opts listQuery) ([]models.BillingCycle, error) {
	query := r.db.WithContext(ctx).Model(&models.BillingCycle{}).Where("status = ?", opts.status)

	if opts.cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", opts.cursor.CreatedAt, opts.cursor.CreatedAt, opts.cursor.ID)
	}

	query = query.Order("created_at DESC").Order("id DESC").Limit(opts.limit)

	var rows []models.BillingCycle
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
