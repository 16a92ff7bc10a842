package domain

// Content is an original post as fetched from the transport: its source
// coordinates. Relaying copies the message server-side, which keeps media
// and caption and drops the forward header.
type Content struct {
	Source    Location
	MessageID int64
}

// ChannelPost is a new message observed in a channel.
type ChannelPost struct {
	UpdateID  int64
	ChatID    int64
	Username  string
	MessageID int64
	// Service is true for administrative actions (join, pin, title change)
	// that carry no content.
	Service bool
}

// Request is an incoming private message that may ask for a code.
type Request struct {
	UpdateID  int64
	ChatID    int64
	MessageID int64
	Text      string
}
