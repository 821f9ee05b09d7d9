package domain

import "strings"

// Update is the subset of a Telegram Bot API update the bot reacts to.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// Message is an incoming chat message.
type Message struct {
	MessageID int64       `json:"message_id"`
	Chat      Chat        `json:"chat"`
	From      *User       `json:"from,omitempty"`
	Text      *string     `json:"text,omitempty"`
	Caption   string      `json:"caption,omitempty"`
	Document  *Document   `json:"document,omitempty"`
	Photo     []PhotoSize `json:"photo,omitempty"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID int64 `json:"id"`
}

// User is the sender of a message.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Document is a general file attached to a message.
type Document struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
}

// PhotoSize is one resolution of an attached photo.
type PhotoSize struct {
	FileID   string `json:"file_id"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	FileSize int64  `json:"file_size,omitempty"`
}

// HasFile reports whether the message carries a document or a photo.
func (m *Message) HasFile() bool {
	return m.Document != nil || len(m.Photo) > 0
}

// LargestPhoto returns the last photo size; Telegram orders them ascending.
func LargestPhoto(photos []PhotoSize) (PhotoSize, bool) {
	if len(photos) == 0 {
		return PhotoSize{}, false
	}
	return photos[len(photos)-1], true
}

// Command is the action requested by a text message.
type Command int

const (
	CommandUnknown Command = iota
	CommandStart
	CommandTemplate
)

// ParseCommand classifies a text message.
func ParseCommand(text string) Command {
	text = strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(text, "/start"):
		return CommandStart
	case strings.HasPrefix(text, "/document"), strings.HasPrefix(text, "/doc"):
		return CommandTemplate
	default:
		return CommandUnknown
	}
}

func (c Command) String() string {
	switch c {
	case CommandStart:
		return "start"
	case CommandTemplate:
		return "template"
	default:
		return "unknown"
	}
}
