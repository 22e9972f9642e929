package trips

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ruialonso/taxilog-backend/pkg/db/models"
	"github.com/ruialonso/taxilog-backend/pkg/enums"
	pkgerrors "github.com/ruialonso/taxilog-backend/pkg/errors"
	pkgpagination "github.com/ruialonso/taxilog-backend/pkg/pagination"
	"github.com/shopspring/decimal"
)

type tripsRepository interface {
	Create(ctx context.Context, trip *models.Trip) (*models.Trip, error)
	List(ctx context.Context, opts listQuery) ([]models.Trip, error)
	AllByCycle(ctx context.Context, cycleID uuid.UUID) ([]models.Trip, error)
}

type recurringRepository interface {
	UpsertClient(ctx context.Context, name string, lastTrip time.Time) error
	UpsertRoute(ctx context.Context, route *models.RecurringRoute) error
	RoutesByClient(ctx context.Context, clientName string) ([]models.RecurringRoute, error)
	Clients(ctx context.Context) ([]models.RecurringClient, error)
}

type activeCycleProvider interface {
	Active(ctx context.Context) (*models.BillingCycle, error)
}

// RecordInput carries the entry-form fields. Price and discount arrive as the
// raw strings the driver typed; parsing is part of validation.
type RecordInput struct {
	Date            time.Time
	Origin          string
	Destination     string
	ClientName      string
	Price           string
	DiscountPercent string
	Observations    string
	PaymentMethod   string
}

// ListParams holds cursor pagination inputs for cycle-scoped trip listings.
type ListParams struct {
	CycleID uuid.UUID
	pkgpagination.Params
}

// ListResult is one page of trips, newest first.
type ListResult struct {
	Items  []models.Trip `json:"items"`
	Cursor string        `json:"cursor"`
}

// Service records trips against the open billing cycle and serves
// cycle-scoped listings plus the recurring re-entry memory.
type Service interface {
	Record(ctx context.Context, input RecordInput) (*models.Trip, error)
	ListByCycle(ctx context.Context, params ListParams) (*ListResult, error)
	AllByCycle(ctx context.Context, cycleID uuid.UUID) ([]models.Trip, error)
	RecurringClients(ctx context.Context) ([]models.RecurringClient, error)
	RecurringRoutes(ctx context.Context, clientName string) ([]models.RecurringRoute, error)
}

type service struct {
	repo      tripsRepository
	recurring recurringRepository
	cycles    activeCycleProvider
	now       func() time.Time
}

// NewService builds the trip service.
func NewService(repo tripsRepository, recurring recurringRepository, cycles activeCycleProvider) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("trips repository required")
	}
	if recurring == nil {
		return nil, fmt.Errorf("recurring repository required")
	}
	if cycles == nil {
		return nil, fmt.Errorf("cycle provider required")
	}
	return &service{
		repo:      repo,
		recurring: recurring,
		cycles:    cycles,
		now:       time.Now,
	}, nil
}

// Record validates and stores one trip. The open-cycle precondition is
// checked before any field validation, and the three writes (client memo,
// route memo, trip) run in sequence without rollback of earlier steps.
func (s *service) Record(ctx context.Context, input RecordInput) (*models.Trip, error) {
	cycle, err := s.cycles.Active(ctx)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "open a billing cycle before recording trips")
		}
		return nil, err
	}

	trip, err := s.buildTrip(cycle.ID, input)
	if err != nil {
		return nil, err
	}

	if err := s.recurring.UpsertClient(ctx, trip.ClientName, trip.Date); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record recurring client")
	}
	if err := s.recurring.UpsertRoute(ctx, &models.RecurringRoute{
		ClientName:      trip.ClientName,
		Origin:          trip.Origin,
		Destination:     trip.Destination,
		Price:           trip.Price,
		DiscountPercent: trip.DiscountPercent,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record recurring route")
	}

	created, err := s.repo.Create(ctx, trip)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record trip")
	}
	return created, nil
}

func (s *service) buildTrip(cycleID uuid.UUID, input RecordInput) (*models.Trip, error) {
	origin := strings.TrimSpace(input.Origin)
	destination := strings.TrimSpace(input.Destination)
	clientName := strings.TrimSpace(input.ClientName)
	rawPrice := strings.TrimSpace(input.Price)

	if origin == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "origin is required")
	}
	if destination == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "destination is required")
	}
	if clientName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client name is required")
	}
	if rawPrice == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price is required")
	}

	price, err := decimal.NewFromString(rawPrice)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid price")
	}
	if price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}

	discount := decimal.Zero
	if raw := strings.TrimSpace(input.DiscountPercent); raw != "" {
		discount, err = decimal.NewFromString(raw)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid discount")
		}
		if discount.IsNegative() || discount.GreaterThan(decimal.NewFromInt(100)) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount must be between 0 and 100")
		}
	}

	method := enums.PaymentMethodSubscriber
	if raw := strings.TrimSpace(input.PaymentMethod); raw != "" {
		method, err = enums.ParsePaymentMethod(raw)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
		}
	}

	date := input.Date
	if date.IsZero() {
		date = s.now()
	}

	return &models.Trip{
		ID:              uuid.New(),
		CycleID:         cycleID,
		Date:            date,
		Origin:          origin,
		Destination:     destination,
		ClientName:      clientName,
		Price:           price,
		DiscountPercent: discount,
		Observations:    strings.TrimSpace(input.Observations),
		PaymentMethod:   method,
	}, nil
}

func (s *service) ListByCycle(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.CycleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cycle id required")
	}

	limit := pkgpagination.NormalizeLimit(params.Limit)
	query := listQuery{
		cycleID: params.CycleID,
		limit:   pkgpagination.LimitWithBuffer(params.Limit),
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list trips")
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

func (s *service) AllByCycle(ctx context.Context, cycleID uuid.UUID) ([]models.Trip, error) {
	if cycleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cycle id required")
	}
	rows, err := s.repo.AllByCycle(ctx, cycleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cycle trips")
	}
	return rows, nil
}

func (s *service) RecurringClients(ctx context.Context) ([]models.RecurringClient, error) {
	rows, err := s.recurring.Clients(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recurring clients")
	}
	return rows, nil
}

func (s *service) RecurringRoutes(ctx context.Context, clientName string) ([]models.RecurringRoute, error) {
	trimmed := strings.TrimSpace(clientName)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client name is required")
	}
	rows, err := s.recurring.RoutesByClient(ctx, trimmed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recurring routes")
	}
	return rows, nil
}
