package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecurringRoute memorizes a client's prior trip pattern (route, price,
// discount) so the entry form can be pre-filled next time. One row per
// client+origin+destination, overwritten on every confirmation.
type RecurringRoute struct {
	ID              uuid.UUID       `gorm:"column:id;primaryKey"`
	ClientName      string          `gorm:"column:client_name;not null;uniqueIndex:idx_recurring_routes_client_route"`
	Origin          string          `gorm:"column:origin;not null;uniqueIndex:idx_recurring_routes_client_route"`
	Destination     string          `gorm:"column:destination;not null;uniqueIndex:idx_recurring_routes_client_route"`
	Price           decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	DiscountPercent decimal.Decimal `gorm:"column:discount_percent;type:numeric(5,2);not null;default:0"`
	TimesUsed       int             `gorm:"column:times_used;not null;default:0"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
