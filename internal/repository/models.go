package repository

import (
	"strings"
	"time"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/domain"
)

// MessageModel mirrors the bridge's messages table.
type MessageModel struct {
	ID        string    `gorm:"primaryKey;column:id"`
	ChatJID   string    `gorm:"primaryKey;column:chat_jid;index:idx_chat_timestamp"`
	Sender    *string   `gorm:"column:sender"`
	Content   *string   `gorm:"column:content"`
	Timestamp time.Time `gorm:"column:timestamp;index:idx_chat_timestamp"`
	IsFromMe  bool      `gorm:"column:is_from_me"`
	MediaType *string   `gorm:"column:media_type"`
	Filename  *string   `gorm:"column:filename"`
}

func (MessageModel) TableName() string { return "messages" }

// ChatModel mirrors the bridge's chats table.
type ChatModel struct {
	JID             string     `gorm:"primaryKey;column:jid"`
	Name            *string    `gorm:"column:name"`
	LastMessageTime *time.Time `gorm:"column:last_message_time;index"`
}

func (ChatModel) TableName() string { return "chats" }

// DirectoryContactModel mirrors whatsmeow's contact store in the directory
// database.
type DirectoryContactModel struct {
	OurJID       string  `gorm:"primaryKey;column:our_jid"`
	TheirJID     string  `gorm:"primaryKey;column:their_jid"`
	FirstName    *string `gorm:"column:first_name"`
	FullName     *string `gorm:"column:full_name"`
	PushName     *string `gorm:"column:push_name"`
	BusinessName *string `gorm:"column:business_name"`
}

func (DirectoryContactModel) TableName() string { return "whatsmeow_contacts" }

// messageRow is a messages row joined with its chat name.
type messageRow struct {
	ID        string    `gorm:"column:id"`
	ChatJID   string    `gorm:"column:chat_jid"`
	Sender    *string   `gorm:"column:sender"`
	Content   *string   `gorm:"column:content"`
	Timestamp time.Time `gorm:"column:timestamp"`
	IsFromMe  bool      `gorm:"column:is_from_me"`
	MediaType *string   `gorm:"column:media_type"`
	ChatName  *string   `gorm:"column:chat_name"`
}

// chatRow is a chats row joined with its last message.
type chatRow struct {
	JID             string     `gorm:"column:jid"`
	Name            *string    `gorm:"column:name"`
	LastMessageTime *time.Time `gorm:"column:last_message_time"`
	LastMessage     *string    `gorm:"column:last_message"`
	LastSender      *string    `gorm:"column:last_sender"`
	LastIsFromMe    *bool      `gorm:"column:last_is_from_me"`
}

// Conversion functions
func messageRowToDomain(r *messageRow) domain.Message {
	return domain.Message{
		ID:        r.ID,
		Timestamp: r.Timestamp,
		Sender:    deref(r.Sender),
		ChatJID:   r.ChatJID,
		Content:   deref(r.Content),
		IsFromMe:  r.IsFromMe,
		MediaType: deref(r.MediaType),
		ChatName:  deref(r.ChatName),
	}
}

func chatRowToDomain(r *chatRow) domain.Chat {
	return domain.Chat{
		JID:             r.JID,
		Name:            deref(r.Name),
		LastMessageTime: r.LastMessageTime,
		LastMessage:     r.LastMessage,
		LastSender:      r.LastSender,
		LastIsFromMe:    r.LastIsFromMe,
	}
}

func DirectoryModelToDomain(m *DirectoryContactModel) domain.DirectoryEntry {
	return domain.DirectoryEntry{
		JID:       m.TheirJID,
		FullName:  strings.TrimSpace(deref(m.FullName)),
		FirstName: strings.TrimSpace(deref(m.FirstName)),
		PushName:  strings.TrimSpace(deref(m.PushName)),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Ptr is a convenience for building models with nullable columns.
func Ptr[T any](v T) *T {
	return &v
}
