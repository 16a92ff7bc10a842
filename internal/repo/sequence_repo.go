// Package repo implements the data persistence layer for the relay bot,
// backed by GORM. This file provides the functions that own the single-row
// `sequence` counter.
//
// IncrementSequence must run inside a transaction opened by the caller; it
// writes before it reads so the database write lock is taken up front and
// concurrent transactions against the same row serialize.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-relay-bot/internal/domain"
)

// EnsureSequence inserts the counter row (next_id = 1) unless it exists.
func EnsureSequence(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.Sequence{ID: domain.SequenceRowID, NextID: 1}).Error
}

// IncrementSequence bumps next_id by one and returns the value it held
// before the bump, i.e. the issued code. A missing row is recreated and
// code 1 is issued.
func IncrementSequence(ctx context.Context, tx *gorm.DB) (int64, error) {
	res := tx.WithContext(ctx).
		Model(&domain.Sequence{}).
		Where("id = ?", domain.SequenceRowID).
		UpdateColumn("next_id", gorm.Expr("next_id + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		if err := tx.WithContext(ctx).Create(&domain.Sequence{ID: domain.SequenceRowID, NextID: 2}).Error; err != nil {
			return 0, err
		}
		return 1, nil
	}

	var seq domain.Sequence
	if err := tx.WithContext(ctx).First(&seq, "id = ?", domain.SequenceRowID).Error; err != nil {
		return 0, err
	}
	return seq.NextID - 1, nil
}

// CurrentSequence returns the code the next allocation would issue.
func CurrentSequence(ctx context.Context, db *gorm.DB) (int64, error) {
	var seq domain.Sequence
	if err := db.WithContext(ctx).First(&seq, "id = ?", domain.SequenceRowID).Error; err != nil {
		return 0, err
	}
	return seq.NextID, nil
}

// SetSequence overwrites next_id, creating the row when needed.
func SetSequence(ctx context.Context, db *gorm.DB, next int64) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"next_id"}),
		}).
		Create(&domain.Sequence{ID: domain.SequenceRowID, NextID: next}).Error
}
