package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ruialonso/taxilog-backend/pkg/db/models"
	pkgerrors "github.com/ruialonso/taxilog-backend/pkg/errors"
	"github.com/ruialonso/taxilog-backend/pkg/logger"
	"go.uber.org/multierr"
)

const staleOpenCycleDays = 45

type openCycleReader interface {
	Active(ctx context.Context) (*models.BillingCycle, error)
}

type cycleTripsReader interface {
	AllByCycle(ctx context.Context, cycleID uuid.UUID) ([]models.Trip, error)
}

// CycleWatchdogJobParams configure the billing cycle health check.
type CycleWatchdogJobParams struct {
	Logger *logger.Logger
	Cycles openCycleReader
	Trips  cycleTripsReader
}

type cycleWatchdogJob struct {
	logg   *logger.Logger
	cycles openCycleReader
	trips  cycleTripsReader
	now    func() time.Time
}

// NewCycleWatchdogJob constructs the daily open-cycle health check. A cycle
// left open past the usual invoicing window is almost always a cycle the
// driver forgot to close.
func NewCycleWatchdogJob(params CycleWatchdogJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Cycles == nil {
		return nil, fmt.Errorf("cycles service required")
	}
	if params.Trips == nil {
		return nil, fmt.Errorf("trips service required")
	}
	return &cycleWatchdogJob{
		logg:   params.Logger,
		cycles: params.Cycles,
		trips:  params.Trips,
		now:    time.Now,
	}, nil
}

func (j *cycleWatchdogJob) Name() string {
	return "cycle_watchdog"
}

func (j *cycleWatchdogJob) Run(ctx context.Context) error {
	cycle, err := j.cycles.Active(ctx)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			j.logg.Info(ctx, "no open billing cycle")
			return nil
		}
		return fmt.Errorf("lookup open cycle: %w", err)
	}

	ctx = j.logg.WithCycleID(ctx, cycle.ID.String())

	var errs error

	openDays := int(j.now().Sub(cycle.StartDate).Hours() / 24)
	ctx = j.logg.WithField(ctx, "open_days", openDays)
	if openDays > staleOpenCycleDays {
		j.logg.Warn(ctx, "billing cycle open past the usual invoicing window")
	}

	rows, err := j.trips.AllByCycle(ctx, cycle.ID)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("count cycle trips: %w", err))
	} else {
		j.logg.Info(j.logg.WithField(ctx, "trip_count", len(rows)), "open cycle checked")
	}

	return errs
}
