package telegram

import (
	"encoding/json"
	"strconv"
)

// Update is one inbound event from getUpdates or a webhook call. Only the
// fields the bot acts on are decoded.
type Update struct {
	UpdateID    int64    `json:"update_id"`
	Message     *Message `json:"message,omitempty"`
	ChannelPost *Message `json:"channel_post,omitempty"`
}

// Kind names the update for logs and metrics.
func (u Update) Kind() string {
	switch {
	case u.ChannelPost != nil:
		return "channel_post"
	case u.Message != nil:
		return "message"
	default:
		return "other"
	}
}

type Chat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title,omitempty"`
	Username string `json:"username,omitempty"`
}

// IsPrivate reports a one-to-one chat with a user.
func (c Chat) IsPrivate() bool { return c.Type == "private" }

type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username,omitempty"`
}

type PhotoSize struct {
	FileID string `json:"file_id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Message is the subset of the Bot API message object the bot reads.
type Message struct {
	MessageID int64  `json:"message_id"`
	Date      int64  `json:"date"`
	Chat      Chat   `json:"chat"`
	From      *User  `json:"from,omitempty"`
	Text      string `json:"text,omitempty"`

	NewChatTitle      string          `json:"new_chat_title,omitempty"`
	NewChatPhoto      []PhotoSize     `json:"new_chat_photo,omitempty"`
	DeleteChatPhoto   bool            `json:"delete_chat_photo,omitempty"`
	ChannelChatCreate bool            `json:"channel_chat_created,omitempty"`
	PinnedMessage     json.RawMessage `json:"pinned_message,omitempty"`
	NewChatMembers    []User          `json:"new_chat_members,omitempty"`
	LeftChatMember    *User           `json:"left_chat_member,omitempty"`
	MigrateToChatID   int64           `json:"migrate_to_chat_id,omitempty"`
	MigrateFromChatID int64           `json:"migrate_from_chat_id,omitempty"`
	VideoChatStarted  json.RawMessage `json:"video_chat_started,omitempty"`
	VideoChatEnded    json.RawMessage `json:"video_chat_ended,omitempty"`
}

// IsService reports administrative events that carry no content.
func (m *Message) IsService() bool {
	return m.NewChatTitle != "" ||
		len(m.NewChatPhoto) > 0 ||
		m.DeleteChatPhoto ||
		m.ChannelChatCreate ||
		len(m.PinnedMessage) > 0 ||
		len(m.NewChatMembers) > 0 ||
		m.LeftChatMember != nil ||
		m.MigrateToChatID != 0 ||
		m.MigrateFromChatID != 0 ||
		len(m.VideoChatStarted) > 0 ||
		len(m.VideoChatEnded) > 0
}

// MessageRef is what copyMessage returns.
type MessageRef struct {
	MessageID int64 `json:"message_id"`
}

// ChatRef is a chat_id parameter: a numeric id or an @username. Numeric
// references are encoded as JSON numbers.
type ChatRef string

func (c ChatRef) MarshalJSON() ([]byte, error) {
	if id, err := strconv.ParseInt(string(c), 10, 64); err == nil {
		return []byte(strconv.FormatInt(id, 10)), nil
	}
	return json.Marshal(string(c))
}

// ChatID builds a ChatRef from a numeric id.
func ChatID(id int64) ChatRef { return ChatRef(strconv.FormatInt(id, 10)) }

type response struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters,omitempty"`
}
