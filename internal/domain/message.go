package domain

import "time"

// SelfSender is the literal sender stored for messages sent from this device.
const SelfSender = "self"

type Message struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Sender    string    `json:"sender"`
	ChatJID   string    `json:"chat_jid"`
	Content   string    `json:"content"`
	IsFromMe  bool      `json:"is_from_me"`
	MediaType string    `json:"media_type,omitempty"`
	ChatName  string    `json:"chat_name,omitempty"`

	// SenderName is resolved from the chats table at read time.
	SenderName string `json:"sender_name,omitempty"`
}

// MessageContext is a pivot message with its chronological neighbours.
type MessageContext struct {
	Message Message   `json:"message"`
	Before  []Message `json:"before"`
	After   []Message `json:"after"`
}

// MessageFilter selects messages for listing. Times are parsed by the caller.
type MessageFilter struct {
	After   *time.Time
	Before  *time.Time
	Sender  string
	ChatJID string
	Query   string
}

func (f MessageFilter) IsEmpty() bool {
	return f.After == nil && f.Before == nil && f.Sender == "" && f.ChatJID == "" && f.Query == ""
}

// MessageHit is one listed message, optionally expanded with its context.
type MessageHit struct {
	Message Message   `json:"message"`
	Before  []Message `json:"before,omitempty"`
	After   []Message `json:"after,omitempty"`
}

// DownloadResult is the bridge's reply to a media download. Path is on the
// bridge's filesystem.
type DownloadResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}
