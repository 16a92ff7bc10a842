// Package repo implements the data persistence layer for the relay bot,
// backed by GORM. This file provides repository functions for the Post model.
//
// Error semantics:
//   - When a post is not found, GetPost returns gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors the raw gorm error is propagated.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-relay-bot/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// UpsertPost inserts p or replaces every column of the existing row with the
// same post_id. The last write for a code wins.
func UpsertPost(ctx context.Context, db *gorm.DB, p *domain.Post) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}},
			UpdateAll: true,
		}).
		Create(p).Error
}

// GetPost fetches a post by code, or ErrNotFound.
func GetPost(ctx context.Context, db *gorm.DB, code int64) (*domain.Post, error) {
	var p domain.Post
	if err := db.WithContext(ctx).Where("post_id = ?", code).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}
