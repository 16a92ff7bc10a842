// Package repo implements the data persistence layer for the relay bot,
// backed by GORM. This file provides small aggregate queries used by the ops
// API and the registry gauges.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-relay-bot/internal/domain"
)

// Stats summarizes the registry.
type Stats struct {
	Posts   int64 `json:"posts"`
	MaxCode int64 `json:"max_code"`
	NextID  int64 `json:"next_id"`
}

// RegistryStats returns the number of posts, the highest stored code and the
// counter value. A missing counter row reports NextID = 0.
func RegistryStats(ctx context.Context, db *gorm.DB) (Stats, error) {
	var s Stats
	if err := db.WithContext(ctx).Model(&domain.Post{}).Count(&s.Posts).Error; err != nil {
		return Stats{}, err
	}
	if s.Posts > 0 {
		var row struct{ PostID int64 }
		if err := db.WithContext(ctx).Model(&domain.Post{}).Select("post_id").Order("post_id DESC").Limit(1).Scan(&row).Error; err != nil {
			return Stats{}, err
		}
		s.MaxCode = row.PostID
	}

	next, err := CurrentSequence(ctx, db)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return Stats{}, err
	default:
		s.NextID = next
	}
	return s, nil
}
