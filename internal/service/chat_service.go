package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/config"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/domain"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/repository"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/textmatch"
)

type ChatService struct {
	stores repository.Opener
	query  config.QueryConfig
}

func NewChatService(stores repository.Opener, query config.QueryConfig) *ChatService {
	return &ChatService{stores: stores, query: query}
}

func (s *ChatService) ListChats(ctx context.Context, filter domain.ChatFilter) ([]domain.Chat, error) {
	if filter.Page < 0 {
		return nil, fmt.Errorf("%w: page must not be negative", domain.ErrInvalidInput)
	}
	switch filter.SortBy {
	case "":
		filter.SortBy = domain.ChatSortLastActive
	case domain.ChatSortLastActive, domain.ChatSortName:
	default:
		return nil, fmt.Errorf("%w: unknown sort_by %q", domain.ErrInvalidInput, filter.SortBy)
	}
	if filter.Limit <= 0 {
		filter.Limit = s.query.DefaultChatListLimit
	}
	filter.Limit = min(filter.Limit, s.query.DefaultMaxResults)
	filter.Query = strings.TrimSpace(filter.Query)

	var chats []domain.Chat
	err := s.withChats(ctx, func(repo repository.ChatRepository) (err error) {
		chats, err = repo.List(ctx, filter)
		return err
	})
	return chats, err
}

func (s *ChatService) GetChat(ctx context.Context, jid string, includeLastMessage bool) (*domain.Chat, error) {
	jid = strings.TrimSpace(jid)
	if jid == "" {
		return nil, fmt.Errorf("%w: chat_jid is required", domain.ErrInvalidInput)
	}

	var chat *domain.Chat
	err := s.withChats(ctx, func(repo repository.ChatRepository) (err error) {
		chat, err = repo.GetByJID(ctx, jid, includeLastMessage)
		return err
	})
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, fmt.Errorf("%w: chat %s", domain.ErrNotFound, jid)
	}
	return chat, nil
}

// GetDirectChatByContact finds the most recent direct chat whose JID holds
// the given phone digits.
func (s *ChatService) GetDirectChatByContact(ctx context.Context, phone string) (*domain.Chat, error) {
	digits, ok := textmatch.Digits(strings.TrimSpace(phone))
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a phone number", domain.ErrInvalidInput, phone)
	}

	var chat *domain.Chat
	err := s.withChats(ctx, func(repo repository.ChatRepository) (err error) {
		chat, err = repo.FindDirectByPhone(ctx, digits)
		return err
	})
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, fmt.Errorf("%w: no direct chat for %s", domain.ErrNotFound, digits)
	}
	return chat, nil
}

// GetContactChats lists chats jid took part in, most recently active first.
func (s *ChatService) GetContactChats(ctx context.Context, jid string, limit, page int) ([]domain.Chat, error) {
	jid = strings.TrimSpace(jid)
	if jid == "" {
		return nil, fmt.Errorf("%w: jid is required", domain.ErrInvalidInput)
	}
	if page < 0 {
		return nil, fmt.Errorf("%w: page must not be negative", domain.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = s.query.DefaultChatListLimit
	}

	var chats []domain.Chat
	err := s.withChats(ctx, func(repo repository.ChatRepository) (err error) {
		chats, err = repo.ListForContact(ctx, jid, limit, page*limit)
		return err
	})
	return chats, err
}

func (s *ChatService) withChats(ctx context.Context, fn func(repository.ChatRepository) error) error {
	conn, err := s.stores.OpenMessages(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := fn(repository.NewChatRepository(conn.DB)); err != nil {
		return storeError(conn.Path, err)
	}
	return nil
}
