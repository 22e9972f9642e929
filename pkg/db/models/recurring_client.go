package models

import "time"

// RecurringClient remembers a subscriber company so repeat entry is faster.
// Rows are upserted by name every time a trip for that client is confirmed.
type RecurringClient struct {
	Name      string    `gorm:"column:name;primaryKey"`
	TripCount int       `gorm:"column:trip_count;not null;default:0"`
	LastTrip  time.Time `gorm:"column:last_trip;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
