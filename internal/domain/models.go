// Package domain defines the persistence models of the relay bot and the
// chat-side value types exchanged between the transport and the services.
// The models are mapped with GORM and keep the historical table layout
// (`sequence`, `posts`) so existing databases open unchanged.
package domain

import (
	"strconv"
	"time"
)

// SequenceRowID is the only valid primary key of the sequence table.
const SequenceRowID = 1

// TimestampLayout is the text layout used for Post.Timestamp.
const TimestampLayout = time.RFC3339Nano

// Sequence is the single-row counter holding the next code to issue.
//
// Fields:
//   - ID: always SequenceRowID (enforced by a CHECK constraint).
//   - NextID: the code the next allocation will return. Starts at 1.
type Sequence struct {
	ID     int   `gorm:"column:id;primaryKey;autoIncrement:false;check:id = 1"`
	NextID int64 `gorm:"column:next_id;not null;default:1"`
}

// TableName returns the database table name for Sequence.
func (Sequence) TableName() string { return "sequence" }

// Post maps an allocated code to the location of the original channel post.
//
// Fields:
//   - PostID: the public code (primary key, never auto-generated).
//   - ChannelRef: the channel reference as configured (e.g. "@mychannel").
//   - ChannelID: numeric channel id when it was known at ingestion time.
//   - MessageID: id of the post inside the source channel.
//   - Timestamp: allocation time as text. Legacy rows keep whatever format
//     they were imported with.
type Post struct {
	PostID     int64  `json:"post_id"              gorm:"column:post_id;primaryKey;autoIncrement:false"`
	ChannelRef string `json:"channel_ref"          gorm:"column:channel_ref;type:text"`
	ChannelID  *int64 `json:"channel_id,omitempty" gorm:"column:channel_id"`
	MessageID  int64  `json:"message_id"           gorm:"column:message_id;not null"`
	Timestamp  string `json:"timestamp"            gorm:"column:timestamp;type:text"`
}

// TableName returns the database table name for Post.
func (Post) TableName() string { return "posts" }

// NewPost builds a Post stamped with now (UTC).
func NewPost(code int64, loc Location, messageID int64, now time.Time) *Post {
	return &Post{
		PostID:     code,
		ChannelRef: loc.Ref,
		ChannelID:  loc.ID,
		MessageID:  messageID,
		Timestamp:  now.UTC().Format(TimestampLayout),
	}
}

// Location returns where the original post lives.
func (p *Post) Location() Location {
	return Location{Ref: p.ChannelRef, ID: p.ChannelID}
}

// RecordedAt parses Timestamp. Legacy values without a zone are read as UTC.
func (p *Post) RecordedAt() (time.Time, bool) {
	for _, layout := range []string{TimestampLayout, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, p.Timestamp); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Location identifies a chat either by numeric id or by reference.
type Location struct {
	Ref string
	ID  *int64
}

// Resolve returns the chat identifier to address the Bot API with. The
// numeric id wins when present, otherwise the reference is used verbatim.
func (l Location) Resolve() string {
	if l.ID != nil {
		return strconv.FormatInt(*l.ID, 10)
	}
	return l.Ref
}
