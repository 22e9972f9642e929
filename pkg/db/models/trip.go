package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ruialonso/taxilog-backend/pkg/enums"
)

// Trip is a single logged taxi service attributed to a billing cycle.
type Trip struct {
	ID              uuid.UUID           `gorm:"column:id;primaryKey"`
	CycleID         uuid.UUID           `gorm:"column:cycle_id;not null;index"`
	Date            time.Time           `gorm:"column:date;not null"`
	Origin          string              `gorm:"column:origin;not null"`
	Destination     string              `gorm:"column:destination;not null"`
	ClientName      string              `gorm:"column:client_name;not null"`
	Price           decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	DiscountPercent decimal.Decimal     `gorm:"column:discount_percent;type:numeric(5,2);not null;default:0"`
	Observations    string              `gorm:"column:observations"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;not null"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectivePrice returns price reduced by the discount percentage.
func (t Trip) EffectivePrice() decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(t.DiscountPercent.Div(decimal.NewFromInt(100)))
	return t.Price.Mul(factor).Round(2)
}
