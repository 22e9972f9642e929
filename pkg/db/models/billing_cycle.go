package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ruialonso/taxilog-backend/pkg/enums"
)

// BillingCycle is a named invoicing window for subscriber trips. At most one
// cycle is open at any time; closing is terminal.
type BillingCycle struct {
	ID        uuid.UUID         `gorm:"column:id;primaryKey"`
	Name      string            `gorm:"column:name;not null"`
	StartDate time.Time         `gorm:"column:start_date;not null"`
	EndDate   *time.Time        `gorm:"column:end_date"`
	Status    enums.CycleStatus `gorm:"column:status;not null;default:'open'"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
