package activation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ruialonso/taxilog-backend/pkg/config"
	"github.com/ruialonso/taxilog-backend/pkg/enums"
	pkgerrors "github.com/ruialonso/taxilog-backend/pkg/errors"
)

// Storage keys for the activation record. The flat names are a compatibility
// surface: backups produced before this backend existed carry the same keys.
const (
	keyActivationDate       = "activation_date"
	keyActivationExpiration = "activation_expiration"
	keyActivationType       = "activation_type"
	keyActivationCode       = "activation_code"
	keyDeviceID             = "device_id"
	codeDevicePrefix        = "code_device_"
)

const dayMillis = 24 * 60 * 60 * 1000

type kvRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Status describes the current subscription window.
type Status struct {
	ActivationDate time.Time            `json:"activation_date"`
	ExpirationDate time.Time            `json:"expiration_date"`
	Kind           enums.ActivationKind `json:"kind"`
	DaysRemaining  int                  `json:"days_remaining"`
}

// Service exposes subscription status, trial bootstrap, and renewal-code
// redemption.
type Service interface {
	Status(ctx context.Context) (*Status, error)
	EnsureTrial(ctx context.Context) (*Status, error)
	Redeem(ctx context.Context, code string) (*Status, error)
}

type service struct {
	kv          kvRepository
	trialDays   int
	renewalDays int
	now         func() time.Time
}

// NewService builds the activation service over the key/value store.
func NewService(kv kvRepository, cfg config.ActivationConfig) (Service, error) {
	if kv == nil {
		return nil, fmt.Errorf("key/value repository required")
	}
	if cfg.TrialDays <= 0 || cfg.RenewalDays <= 0 {
		return nil, fmt.Errorf("trial and renewal windows must be positive")
	}

	return &service{
		kv:          kv,
		trialDays:   cfg.TrialDays,
		renewalDays: cfg.RenewalDays,
		now:         time.Now,
	}, nil
}

// Status reads the stored activation record. A store without all three
// activation fields yields a not-found error, never a partial record.
func (s *service) Status(ctx context.Context) (*Status, error) {
	rawDate, okDate, err := s.kv.Get(ctx, keyActivationDate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read activation date")
	}
	rawExpiration, okExp, err := s.kv.Get(ctx, keyActivationExpiration)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read activation expiration")
	}
	rawKind, okKind, err := s.kv.Get(ctx, keyActivationType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read activation type")
	}

	if !okDate || !okExp || !okKind {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no subscription info")
	}

	activationDate, err := time.Parse(time.RFC3339, rawDate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse activation date")
	}
	expirationDate, err := time.Parse(time.RFC3339, rawExpiration)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse activation expiration")
	}
	kind, err := enums.ParseActivationKind(rawKind)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse activation kind")
	}

	return &Status{
		ActivationDate: activationDate,
		ExpirationDate: expirationDate,
		Kind:           kind,
		DaysRemaining:  daysRemaining(expirationDate, s.now()),
	}, nil
}

// EnsureTrial writes the first-run trial record. An existing record is
// returned untouched; trials never shorten or extend an active subscription.
func (s *service) EnsureTrial(ctx context.Context) (*Status, error) {
	existing, err := s.Status(ctx)
	if err == nil {
		return existing, nil
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		return nil, err
	}

	now := s.now()
	expiration := now.AddDate(0, 0, s.trialDays)

	if err := s.writeRecord(ctx, now, expiration, enums.ActivationKindTrial); err != nil {
		return nil, err
	}

	return &Status{
		ActivationDate: now,
		ExpirationDate: expiration,
		Kind:           enums.ActivationKindTrial,
		DaysRemaining:  daysRemaining(expiration, now),
	}, nil
}

// Redeem validates a renewal code, binds it to this device, and resets the
// subscription window. Re-redeeming the same code from the owning device
// resets the window again.
func (s *service) Redeem(ctx context.Context, code string) (*Status, error) {
	cleaned := NormalizeCode(code)
	if len(cleaned) != 16 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "renewal code must contain 16 characters")
	}
	if !isAllowedCode(cleaned) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid code")
	}

	deviceID, err := s.ensureDeviceID(ctx)
	if err != nil {
		return nil, err
	}

	boundDevice, bound, err := s.kv.Get(ctx, codeDevicePrefix+cleaned)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read code binding")
	}
	if bound && boundDevice != deviceID {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "code already in use on another device")
	}

	now := s.now()
	expiration := now.AddDate(0, 0, s.renewalDays)

	if err := s.kv.Set(ctx, codeDevicePrefix+cleaned, deviceID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "bind code to device")
	}
	if err := s.kv.Set(ctx, keyActivationCode, FormatCode(cleaned)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store activation code")
	}
	if err := s.writeRecord(ctx, now, expiration, enums.ActivationKindRenewal); err != nil {
		return nil, err
	}

	return &Status{
		ActivationDate: now,
		ExpirationDate: expiration,
		Kind:           enums.ActivationKindRenewal,
		DaysRemaining:  daysRemaining(expiration, now),
	}, nil
}

func (s *service) ensureDeviceID(ctx context.Context) (string, error) {
	deviceID, found, err := s.kv.Get(ctx, keyDeviceID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read device id")
	}
	if found && deviceID != "" {
		return deviceID, nil
	}

	deviceID = uuid.NewString()
	if err := s.kv.Set(ctx, keyDeviceID, deviceID); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store device id")
	}
	return deviceID, nil
}

func (s *service) writeRecord(ctx context.Context, activation, expiration time.Time, kind enums.ActivationKind) error {
	if err := s.kv.Set(ctx, keyActivationDate, activation.Format(time.RFC3339)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store activation date")
	}
	if err := s.kv.Set(ctx, keyActivationExpiration, expiration.Format(time.RFC3339)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store activation expiration")
	}
	if err := s.kv.Set(ctx, keyActivationType, kind.String()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store activation type")
	}
	return nil
}

// daysRemaining rounds the remaining window up to whole days and floors the
// result at zero once the expiration has passed.
func daysRemaining(expiration, now time.Time) int {
	ms := expiration.Sub(now).Milliseconds()
	if ms <= 0 {
		return 0
	}
	return int((ms + dayMillis - 1) / dayMillis)
}
