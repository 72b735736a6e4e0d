package domain

import "time"

type Chat struct {
	JID             string     `json:"jid"`
	Name            string     `json:"name,omitempty"`
	LastMessageTime *time.Time `json:"last_message_time,omitempty"`
	LastMessage     *string    `json:"last_message,omitempty"`
	LastSender      *string    `json:"last_sender,omitempty"`
	LastIsFromMe    *bool      `json:"last_is_from_me,omitempty"`
}

// IsGroup is derived from the JID suffix and never stored.
func (c *Chat) IsGroup() bool {
	return IsGroupJID(c.JID)
}

type ChatSort string

const (
	ChatSortLastActive ChatSort = "last_active"
	ChatSortName       ChatSort = "name"
)

type ChatFilter struct {
	Query              string
	Limit              int
	Page               int
	IncludeLastMessage bool
	SortBy             ChatSort
}
