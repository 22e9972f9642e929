package kvstore

import (
	"context"
	"errors"

	"github.com/ruialonso/taxilog-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists flat key/value pairs. Activation state and legacy
// settings live here; everything else has its own table.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a key/value repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the value for key. The second return reports whether the key
// exists.
func (r *Repository) Get(ctx context.Context, key string) (string, bool, error) {
	var entry models.KVEntry
	err := r.db.WithContext(ctx).First(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

// Set writes key to value, overwriting any existing entry.
func (r *Repository) Set(ctx context.Context, key, value string) error {
	entry := models.KVEntry{Key: key, Value: value}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(&entry).Error
}

// Delete removes key. Deleting a missing key is not an error.
func (r *Repository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Delete(&models.KVEntry{}, "key = ?", key).Error
}

// All returns every stored pair as a flat map.
func (r *Repository) All(ctx context.Context) (map[string]string, error) {
	var entries []models.KVEntry
	if err := r.db.WithContext(ctx).Find(&entries).Error; err != nil {
		return nil, err
	}

	out := make(map[string]string, len(entries))
	for _, entry := range entries {
		out[entry.Key] = entry.Value
	}
	return out, nil
}

// BulkSet upserts every provided pair in one transaction, so a failed restore
// leaves the store as it was. Keys absent from pairs are left untouched;
// restore overwrites, it does not merge or prune.
func (r *Repository) BulkSet(ctx context.Context, pairs map[string]string) error {
	if len(pairs) == 0 {
		return nil
	}

	entries := make([]models.KVEntry, 0, len(pairs))
	for key, value := range pairs {
		entries = append(entries, models.KVEntry{Key: key, Value: value})
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value"}),
			}).
			Create(&entries).Error
	})
}
