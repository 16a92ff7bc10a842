// Package legacyimport bulk-loads a historical registry dump into the store
// before the bot starts taking updates.
//
// The document looks like
//
//	{"next_id": 120, "posts": {"7": {"channel": "@chan", "message_id": 31, "timestamp": "..."}}}
//
// and is validated against an embedded JSON Schema before anything is
// written. Posts are upserted, so applying the same document twice leaves
// the same final state. RunOnce renames the file afterwards so a restart
// does not import it again.
package legacyimport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"gorm.io/gorm"

	"github.com/tbourn/go-relay-bot/internal/domain"
	"github.com/tbourn/go-relay-bot/internal/repo"
)

// ImportedSuffix is appended to the file name after a successful import.
const ImportedSuffix = ".imported"

const schemaURL = "mem://legacyimport/document.json"

const schemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["next_id", "posts"],
  "properties": {
    "next_id": {"type": "integer", "minimum": 1},
    "posts": {
      "type": "object",
      "propertyNames": {"pattern": "^[0-9]+$"},
      "additionalProperties": {
        "type": "object",
        "required": ["channel", "message_id"],
        "properties": {
          "channel":    {"type": ["string", "integer"]},
          "message_id": {"type": "integer", "minimum": 1},
          "timestamp":  {"type": "string"}
        }
      }
    }
  }
}`

var schema = mustCompile()

func mustCompile() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(schemaJSON))
	if err != nil {
		panic(err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		panic(err)
	}
	return c.MustCompile(schemaURL)
}

// Entry is one historical post.
type Entry struct {
	Channel   json.RawMessage `json:"channel"`
	MessageID int64           `json:"message_id"`
	Timestamp string          `json:"timestamp"`
}

// Document is a decoded import file.
type Document struct {
	NextID int64            `json:"next_id"`
	Posts  map[string]Entry `json:"posts"`
}

// Parse validates raw against the schema and decodes it.
func Parse(raw []byte) (*Document, error) {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("legacy import: invalid json: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		return nil, fmt.Errorf("legacy import: schema: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("legacy import: decode: %w", err)
	}
	return &doc, nil
}

// Load reads and parses the file at path.
func Load(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Records converts the document into registry rows ordered by code.
func (d *Document) Records() ([]*domain.Post, error) {
	out := make([]*domain.Post, 0, len(d.Posts))
	for key, e := range d.Posts {
		code, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("legacy import: code %q: %w", key, err)
		}
		loc, err := location(e.Channel)
		if err != nil {
			return nil, fmt.Errorf("legacy import: code %d: %w", code, err)
		}
		p := &domain.Post{
			PostID:     code,
			ChannelRef: loc.Ref,
			ChannelID:  loc.ID,
			MessageID:  e.MessageID,
			Timestamp:  e.Timestamp,
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PostID < out[j].PostID })
	return out, nil
}

// location accepts "@name", "-100123" or -100123. Numeric values fill the
// id as well as the reference.
func location(raw json.RawMessage) (domain.Location, error) {
	var ref string
	if err := json.Unmarshal(raw, &ref); err != nil {
		var id int64
		if err := json.Unmarshal(raw, &id); err != nil {
			return domain.Location{}, errors.New("channel must be a string or an integer")
		}
		ref = strconv.FormatInt(id, 10)
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return domain.Location{}, errors.New("empty channel")
	}
	loc := domain.Location{Ref: ref}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		loc.ID = &id
	}
	return loc, nil
}

// ErrConflict reports imported codes that are already live with a different
// source post. The whole import is rolled back.
var ErrConflict = errors.New("legacy import: code already points at another post")

// Apply writes doc in one transaction and moves the counter forward.
//
// The counter ends at the largest of next_id, the highest imported code + 1,
// the live counter and the highest stored code + 1, so an import never
// rewinds it. A code already stored with the same channel and message is
// rewritten; one stored with a different post fails with ErrConflict.
func Apply(ctx context.Context, db *gorm.DB, doc *Document) error {
	posts, err := doc.Records()
	if err != nil {
		return err
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		live, err := repo.RegistryStats(ctx, tx)
		if err != nil {
			return fmt.Errorf("legacy import: read live state: %w", err)
		}

		var conflicts []string
		for _, p := range posts {
			cur, err := repo.GetPost(ctx, tx, p.PostID)
			switch {
			case errors.Is(err, repo.ErrNotFound):
			case err != nil:
				return fmt.Errorf("legacy import: post %d: %w", p.PostID, err)
			case cur.ChannelRef != p.ChannelRef || cur.MessageID != p.MessageID:
				conflicts = append(conflicts, strconv.FormatInt(p.PostID, 10))
			}
		}
		if len(conflicts) > 0 {
			return fmt.Errorf("%w: codes %s", ErrConflict, strings.Join(conflicts, ","))
		}

		for _, p := range posts {
			if err := repo.UpsertPost(ctx, tx, p); err != nil {
				return fmt.Errorf("legacy import: post %d: %w", p.PostID, err)
			}
		}

		next := doc.NextID
		floor := max(live.NextID, live.MaxCode+1)
		if n := len(posts); n > 0 {
			floor = max(floor, posts[n-1].PostID+1)
		}
		if floor > next {
			log.Warn().Int64("next_id", next).Int64("raised_to", floor).
				Msg("legacy next_id below issued codes; raising")
			next = floor
		}
		return repo.SetSequence(ctx, tx, next)
	})
}

// RunOnce imports path if it exists and renames it with ImportedSuffix.
// It reports whether an import happened. A missing file is not an error.
func RunOnce(ctx context.Context, db *gorm.DB, path string) (bool, error) {
	if strings.TrimSpace(path) == "" {
		return false, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, err
	}

	start := time.Now()
	doc, err := Load(path)
	if err != nil {
		return false, err
	}
	if err := Apply(ctx, db, doc); err != nil {
		return false, err
	}
	if err := os.Rename(path, path+ImportedSuffix); err != nil {
		return true, fmt.Errorf("legacy import: applied but not renamed: %w", err)
	}
	log.Info().Str("file", path).Int("posts", len(doc.Posts)).Int64("next_id", doc.NextID).
		Dur("took", time.Since(start)).Msg("legacy data imported")
	return true, nil
}
