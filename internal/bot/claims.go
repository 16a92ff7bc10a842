package bot

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-relay-bot/internal/repo"
)

// DBClaims stores update claims in the processed_updates table.
type DBClaims struct {
	DB  *gorm.DB
	TTL time.Duration
	Now func() time.Time
}

func (c *DBClaims) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Claim records updateID, or returns repo.ErrDuplicate.
func (c *DBClaims) Claim(ctx context.Context, updateID int64, kind string) error {
	return repo.ClaimUpdate(ctx, c.DB, updateID, kind, c.TTL, c.now())
}

// PurgeLoop deletes expired claims every interval until ctx is done.
func (c *DBClaims) PurgeLoop(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := repo.PurgeUpdates(ctx, c.DB, c.now())
			if err != nil {
				log.Warn().Err(err).Msg("purge processed updates failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("rows", n).Msg("expired update claims purged")
			}
		}
	}
}
