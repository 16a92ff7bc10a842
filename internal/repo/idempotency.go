// Package repo implements the data persistence layer for the relay bot,
// backed by GORM. This file provides helpers for the ProcessedUpdate model
// that makes update handling at-most-once across redeliveries.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-relay-bot/internal/domain"
)

// ErrDuplicate indicates that the update id was already claimed.
var ErrDuplicate = errors.New("duplicate")

// ClaimUpdate records updateID as processed. It returns ErrDuplicate when a
// claim for the id already exists.
func ClaimUpdate(ctx context.Context, db *gorm.DB, updateID int64, kind string, ttl time.Duration, now time.Time) error {
	rec := &domain.ProcessedUpdate{
		UpdateID:  updateID,
		Kind:      kind,
		CreatedAt: now.UTC(),
		ExpiresAt: now.UTC().Add(ttl),
	}
	res := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(rec)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDuplicate
	}
	return nil
}

// PurgeUpdates deletes claims that expired at or before now and reports how
// many rows were removed.
func PurgeUpdates(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("expires_at <= ?", now.UTC()).
		Delete(&domain.ProcessedUpdate{})
	return res.RowsAffected, res.Error
}
