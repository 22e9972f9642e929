package cycles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ruialonso/taxilog-backend/pkg/db"
	"github.com/ruialonso/taxilog-backend/pkg/db/models"
	"github.com/ruialonso/taxilog-backend/pkg/enums"
	pkgerrors "github.com/ruialonso/taxilog-backend/pkg/errors"
	pkgpagination "github.com/ruialonso/taxilog-backend/pkg/pagination"
	"gorm.io/gorm"
)

type cyclesRepository interface {
	Create(ctx context.Context, cycle *models.BillingCycle) (*models.BillingCycle, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.BillingCycle, error)
	FindOpen(ctx context.Context) (*models.BillingCycle, error)
	Update(ctx context.Context, cycle *models.BillingCycle) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, opts listQuery) ([]models.BillingCycle, error)
}

// OpenInput holds the fields needed to open a new billing cycle.
type OpenInput struct {
	Name      string
	StartDate time.Time
}

// ListParams holds the cursor pagination inputs for closed-cycle listings.
type ListParams struct {
	pkgpagination.Params
}

// ListResult is one page of closed cycles, newest first.
type ListResult struct {
	Items  []models.BillingCycle `json:"items"`
	Cursor string                `json:"cursor"`
}

// Service enforces the billing cycle lifecycle: open one cycle at a time,
// close it with an end date, and delete only closed cycles.
type Service interface {
	Open(ctx context.Context, input OpenInput) (*models.BillingCycle, error)
	Close(ctx context.Context, cycleID uuid.UUID, endDate time.Time) (*models.BillingCycle, error)
	Delete(ctx context.Context, cycleID uuid.UUID) error
	Active(ctx context.Context) (*models.BillingCycle, error)
	ListClosed(ctx context.Context, params ListParams) (*ListResult, error)
}

type service struct {
	repo cyclesRepository
}

// NewService builds a billing cycle service backed by the provided repository.
func NewService(repo cyclesRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cycles repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Open(ctx context.Context, input OpenInput) (*models.BillingCycle, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cycle name is required")
	}
	if input.StartDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "start_date is required")
	}

	// The single-open-cycle invariant is checked before any write.
	if _, err := s.repo.FindOpen(ctx); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot open: an active cycle exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup open cycle")
	}

	cycle := &models.BillingCycle{
		ID:        uuid.New(),
		Name:      name,
		StartDate: input.StartDate,
		Status:    enums.CycleStatusOpen,
	}

	created, err := s.repo.Create(ctx, cycle)
	if err != nil {
		// The partial unique index catches the race the FindOpen check misses.
		if db.IsUniqueViolation(err, "idx_billing_cycles_single_open") {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot open: an active cycle exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cycle")
	}
	return created, nil
}

func (s *service) Close(ctx context.Context, cycleID uuid.UUID, endDate time.Time) (*models.BillingCycle, error) {
	if cycleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cycle id required")
	}
	if endDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end_date is required")
	}

	cycle, err := s.findCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	if cycle.Status != enums.CycleStatusOpen {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cycle is already closed")
	}
	if endDate.Before(cycle.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end_date cannot precede start_date")
	}

	cycle.Status = enums.CycleStatusClosed
	cycle.EndDate = &endDate

	if err := s.repo.Update(ctx, cycle); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close cycle")
	}
	return cycle, nil
}

func (s *service) Delete(ctx context.Context, cycleID uuid.UUID) error {
	if cycleID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "cycle id required")
	}

	cycle, err := s.findCycle(ctx, cycleID)
	if err != nil {
		return err
	}
	if cycle.Status != enums.CycleStatusClosed {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only closed cycles can be deleted")
	}

	if err := s.repo.Delete(ctx, cycleID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cycle")
	}
	return nil
}

func (s *service) Active(ctx context.Context) (*models.BillingCycle, error) {
	cycle, err := s.repo.FindOpen(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no open billing cycle")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup open cycle")
	}
	return cycle, nil
}

func (s *service) ListClosed(ctx context.Context, params ListParams) (*ListResult, error) {
	limit := pkgpagination.NormalizeLimit(params.Limit)
	query := listQuery{
		status: enums.CycleStatusClosed,
		limit:  pkgpagination.LimitWithBuffer(params.Limit),
	}
	if params.Cursor != "" {
		cursor, err := pkgpagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.cursor = cursor
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list closed cycles")
	}

	result := &ListResult{Items: rows}
	if len(rows) > limit {
		result.Items = rows[:limit]
		last := result.Items[len(result.Items)-1]
		result.Cursor = pkgpagination.EncodeCursor(pkgpagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}

func (s *service) findCycle(ctx context.Context, cycleID uuid.UUID) (*models.BillingCycle, error) {
	cycle, err := s.repo.FindByID(ctx, cycleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cycle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup cycle")
	}
	return cycle, nil
}
