package repository

import (
	"context"
	"time"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/domain"
)

type MessageRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Message, error)
	List(ctx context.Context, filter domain.MessageFilter, limit, offset int) ([]domain.Message, error)
	ListBefore(ctx context.Context, chatJID string, ts time.Time, limit int) ([]domain.Message, error)
	ListAfter(ctx context.Context, chatJID string, ts time.Time, limit int) ([]domain.Message, error)
	LastInteraction(ctx context.Context, jid string) (*domain.Message, error)
}

type ChatRepository interface {
	GetByJID(ctx context.Context, jid string, includeLastMessage bool) (*domain.Chat, error)
	List(ctx context.Context, filter domain.ChatFilter) ([]domain.Chat, error)
	ListNamed(ctx context.Context) ([]domain.ContactRecord, error)
	FindDirectByPhone(ctx context.Context, phone string) (*domain.Chat, error)
	ListForContact(ctx context.Context, jid string, limit, offset int) ([]domain.Chat, error)
	NameForSender(ctx context.Context, sender string) (string, error)
}

type ContactRepository interface {
	GetByJID(ctx context.Context, jid string) (*domain.DirectoryEntry, error)
	ListNamed(ctx context.Context) ([]domain.DirectoryEntry, error)
}
