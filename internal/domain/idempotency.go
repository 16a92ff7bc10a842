package domain

import "time"

// ProcessedUpdate records that a transport update has already been handled,
// keyed by the transport's update id. Telegram redelivers webhook updates on
// failure and re-sends polled updates after a restart; a claimed row makes
// the second delivery a no-op.
//
// Column types are left to the dialect (datetime on SQLite, timestamptz on
// PostgreSQL).
type ProcessedUpdate struct {
	UpdateID  int64     `gorm:"column:update_id;primaryKey;autoIncrement:false"`
	Kind      string    `gorm:"column:kind;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index"`
}

// TableName implements the GORM tabler interface.
func (ProcessedUpdate) TableName() string { return "processed_updates" }
