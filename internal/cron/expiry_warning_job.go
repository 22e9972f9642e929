package cron

import (
	"context"
	"fmt"

	"github.com/ruialonso/taxilog-backend/internal/activation"
	pkgerrors "github.com/ruialonso/taxilog-backend/pkg/errors"
	"github.com/ruialonso/taxilog-backend/pkg/logger"
)

type activationStatusReader interface {
	Status(ctx context.Context) (*activation.Status, error)
}

// ExpiryWarningJobParams configure the subscription expiry check.
type ExpiryWarningJobParams struct {
	Logger      *logger.Logger
	Activation  activationStatusReader
	WarningDays int
}

type expiryWarningJob struct {
	logg        *logger.Logger
	activation  activationStatusReader
	warningDays int
}

// NewExpiryWarningJob constructs the daily subscription expiry check. It only
// observes and logs; renewal stays a driver-initiated action.
func NewExpiryWarningJob(params ExpiryWarningJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Activation == nil {
		return nil, fmt.Errorf("activation service required")
	}
	warningDays := params.WarningDays
	if warningDays <= 0 {
		warningDays = 5
	}
	return &expiryWarningJob{
		logg:        params.Logger,
		activation:  params.Activation,
		warningDays: warningDays,
	}, nil
}

func (j *expiryWarningJob) Name() string {
	return "subscription_expiry_warning"
}

func (j *expiryWarningJob) Run(ctx context.Context) error {
	status, err := j.activation.Status(ctx)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			j.logg.Info(ctx, "no subscription info yet; nothing to check")
			return nil
		}
		return fmt.Errorf("read subscription status: %w", err)
	}

	ctx = j.logg.WithFields(ctx, map[string]any{
		"kind":           status.Kind.String(),
		"days_remaining": status.DaysRemaining,
		"expires_at":     status.ExpirationDate,
	})

	switch {
	case status.DaysRemaining == 0:
		j.logg.Warn(ctx, "subscription expired")
	case status.DaysRemaining <= j.warningDays:
		j.logg.Warn(ctx, "subscription expiring soon")
	default:
		j.logg.Info(ctx, "subscription healthy")
	}
	return nil
}
