package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/config"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/domain"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/logger"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/repository"
)

// ListMessagesRequest carries list_messages arguments as received. Dates are
// ISO-8601 strings; zero numeric fields take the configured defaults.
type ListMessagesRequest struct {
	After          string
	Before         string
	Sender         string
	ChatJID        string
	Query          string
	Limit          int
	Page           int
	MaxResults     int
	IncludeContext bool
	ContextBefore  int
	ContextAfter   int
	ForceLoad      bool
}

type MessageList struct {
	Messages []domain.MessageHit `json:"messages"`
}

type MessageService struct {
	stores repository.Opener
	query  config.QueryConfig
	log    zerolog.Logger
}

func NewMessageService(stores repository.Opener, query config.QueryConfig) *MessageService {
	return &MessageService{
		stores: stores,
		query:  query,
		log:    logger.Module("messages"),
	}
}

// ListMessages returns matching messages newest first. With no filter and
// ForceLoad unset it returns an empty list without opening the store.
func (s *MessageService) ListMessages(ctx context.Context, req ListMessagesRequest) (*MessageList, error) {
	filter, err := buildFilter(req)
	if err != nil {
		return nil, err
	}
	if req.Page < 0 {
		return nil, fmt.Errorf("%w: page must not be negative", domain.ErrInvalidInput)
	}
	if filter.IsEmpty() && !req.ForceLoad {
		s.log.Debug().Msg("no filter given and force_load unset, returning empty list")
		return &MessageList{Messages: []domain.MessageHit{}}, nil
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.query.DefaultListLimit
	}
	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = s.query.DefaultMaxResults
	}
	actualLimit := min(limit, maxResults, s.query.RowCeiling)
	offset := req.Page * limit

	conn, err := s.stores.OpenMessages(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	msgRepo := repository.NewMessageRepository(conn.DB)
	chatRepo := repository.NewChatRepository(conn.DB)

	messages, err := msgRepo.List(ctx, filter, actualLimit, offset)
	if err != nil {
		return nil, storeError(conn.Path, err)
	}

	names := newSenderNames(chatRepo)
	hits := make([]domain.MessageHit, len(messages))
	for i := range messages {
		hits[i] = domain.MessageHit{Message: names.annotate(ctx, messages[i])}
	}

	if req.IncludeContext {
		before := defaultIfNegative(req.ContextBefore, s.query.ListContextBefore)
		after := defaultIfNegative(req.ContextAfter, s.query.ListContextAfter)
		expand := min(len(hits), s.query.ContextExpansionCap)
		if expand < len(hits) {
			s.log.Debug().Int("matches", len(hits)).Int("expanded", expand).Msg("context expansion capped")
		}
		for i := 0; i < expand; i++ {
			mc, err := s.contextFor(ctx, msgRepo, names, hits[i].Message.ID, before, after)
			if err != nil {
				s.log.Warn().Err(err).Str("message_id", hits[i].Message.ID).Msg("could not load context, returning message alone")
				continue
			}
			hits[i].Before = mc.Before
			hits[i].After = mc.After
		}
	}

	return &MessageList{Messages: hits}, nil
}

// GetMessageContext returns the pivot message with up to before/after
// neighbours from the same chat. Messages sharing the pivot's exact timestamp
// belong to neither window.
func (s *MessageService) GetMessageContext(ctx context.Context, messageID string, before, after int) (*domain.MessageContext, error) {
	messageID = strings.TrimSpace(messageID)
	if messageID == "" {
		return nil, fmt.Errorf("%w: message_id is required", domain.ErrInvalidInput)
	}
	before = defaultIfNegative(before, s.query.PivotContextBefore)
	after = defaultIfNegative(after, s.query.PivotContextAfter)

	conn, err := s.stores.OpenMessages(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	msgRepo := repository.NewMessageRepository(conn.DB)
	names := newSenderNames(repository.NewChatRepository(conn.DB))

	mc, err := s.contextFor(ctx, msgRepo, names, messageID, before, after)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, storeError(conn.Path, err)
	}
	return mc, nil
}

func (s *MessageService) contextFor(ctx context.Context, msgRepo repository.MessageRepository, names *senderNames, messageID string, before, after int) (*domain.MessageContext, error) {
	pivot, err := msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if pivot == nil {
		return nil, fmt.Errorf("%w: message %s", domain.ErrNotFound, messageID)
	}

	earlier, err := msgRepo.ListBefore(ctx, pivot.ChatJID, pivot.Timestamp, before)
	if err != nil {
		return nil, err
	}
	later, err := msgRepo.ListAfter(ctx, pivot.ChatJID, pivot.Timestamp, after)
	if err != nil {
		return nil, err
	}

	// earlier comes back newest first.
	chronological := make([]domain.Message, len(earlier))
	for i := range earlier {
		chronological[len(earlier)-1-i] = names.annotate(ctx, earlier[i])
	}
	for i := range later {
		later[i] = names.annotate(ctx, later[i])
	}
	if later == nil {
		later = []domain.Message{}
	}

	return &domain.MessageContext{
		Message: names.annotate(ctx, *pivot),
		Before:  chronological,
		After:   later,
	}, nil
}

// LastInteraction returns the newest message sent by or to jid.
func (s *MessageService) LastInteraction(ctx context.Context, jid string) (*domain.Message, error) {
	jid = strings.TrimSpace(jid)
	if jid == "" {
		return nil, fmt.Errorf("%w: jid is required", domain.ErrInvalidInput)
	}

	conn, err := s.stores.OpenMessages(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	msg, err := repository.NewMessageRepository(conn.DB).LastInteraction(ctx, jid)
	if err != nil {
		return nil, storeError(conn.Path, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: no messages with %s", domain.ErrNotFound, jid)
	}
	annotated := newSenderNames(repository.NewChatRepository(conn.DB)).annotate(ctx, *msg)
	return &annotated, nil
}

func buildFilter(req ListMessagesRequest) (domain.MessageFilter, error) {
	filter := domain.MessageFilter{
		Sender:  strings.TrimSpace(req.Sender),
		ChatJID: strings.TrimSpace(req.ChatJID),
		Query:   req.Query,
	}
	if strings.TrimSpace(req.Query) == "" {
		filter.Query = ""
	}

	var err error
	if filter.After, err = parseTimestamp("after", req.After); err != nil {
		return filter, err
	}
	if filter.Before, err = parseTimestamp("before", req.Before); err != nil {
		return filter, err
	}
	return filter, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseTimestamp accepts ISO-8601 dates and datetimes. Values without an
// offset are taken as UTC.
func parseTimestamp(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s is not an ISO-8601 date: %q", domain.ErrInvalidInput, field, value)
}

func defaultIfNegative(v, def int) int {
	if v < 0 {
		return def
	}
	return v
}

// storeError marks a failed query against an opened store as unavailability.
func storeError(path string, err error) error {
	return fmt.Errorf("%w: query %s: %v", domain.ErrStoreUnavailable, path, err)
}

// senderNames memoizes chat-name lookups for senders within one request.
type senderNames struct {
	chats repository.ChatRepository
	cache map[string]string
}

func newSenderNames(chats repository.ChatRepository) *senderNames {
	return &senderNames{chats: chats, cache: make(map[string]string)}
}

func (n *senderNames) annotate(ctx context.Context, msg domain.Message) domain.Message {
	if msg.IsFromMe || msg.Sender == "" || msg.Sender == domain.SelfSender {
		return msg
	}
	name, ok := n.cache[msg.Sender]
	if !ok {
		var err error
		name, err = n.chats.NameForSender(ctx, msg.Sender)
		if err != nil {
			name = ""
		}
		n.cache[msg.Sender] = name
	}
	msg.SenderName = name
	return msg
}
