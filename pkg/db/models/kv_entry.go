package models

// KVEntry is one row of the flat key-value store backing activation state and
// backups. Values are opaque strings; writers own their key namespace.
type KVEntry struct {
	Key   string `gorm:"column:key;primaryKey"`
	Value string `gorm:"column:value;not null"`
}

// TableName overrides the default pluralization.
func (KVEntry) TableName() string {
	return "kv_entries"
}
