package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/domain"
)

// Timestamps are compared through julianday() because the bridge stores them
// as text carrying the writer's zone offset.
const messageColumns = "messages.id, messages.chat_jid, messages.sender, messages.content, " +
	"messages.timestamp, messages.is_from_me, messages.media_type, chats.name AS chat_name"

type gormMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &gormMessageRepository{db: db}
}

func (r *gormMessageRepository) base(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("messages").
		Select(messageColumns).
		Joins("LEFT JOIN chats ON messages.chat_jid = chats.jid")
}

func (r *gormMessageRepository) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	var row messageRow
	err := r.base(ctx).Where("messages.id = ?", id).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	msg := messageRowToDomain(&row)
	return &msg, nil
}

func (r *gormMessageRepository) List(ctx context.Context, filter domain.MessageFilter, limit, offset int) ([]domain.Message, error) {
	query := r.base(ctx)

	if filter.After != nil {
		query = query.Where("julianday(messages.timestamp) > julianday(?)", *filter.After)
	}
	if filter.Before != nil {
		query = query.Where("julianday(messages.timestamp) < julianday(?)", *filter.Before)
	}
	if filter.Sender != "" {
		query = query.Where("messages.sender = ?", filter.Sender)
	}
	if filter.ChatJID != "" {
		query = query.Where("messages.chat_jid = ?", filter.ChatJID)
	}
	if filter.Query != "" {
		query = query.Where("LOWER(messages.content) LIKE LOWER(?) ESCAPE '\\'", likePattern(filter.Query))
	}

	return r.find(query.
		Order("julianday(messages.timestamp) DESC").
		Order("messages.id").
		Limit(limit).
		Offset(offset))
}

func (r *gormMessageRepository) ListBefore(ctx context.Context, chatJID string, ts time.Time, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		return nil, nil
	}
	return r.find(r.base(ctx).
		Where("messages.chat_jid = ? AND julianday(messages.timestamp) < julianday(?)", chatJID, ts).
		Order("julianday(messages.timestamp) DESC").
		Order("messages.id DESC").
		Limit(limit))
}

func (r *gormMessageRepository) ListAfter(ctx context.Context, chatJID string, ts time.Time, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		return nil, nil
	}
	return r.find(r.base(ctx).
		Where("messages.chat_jid = ? AND julianday(messages.timestamp) > julianday(?)", chatJID, ts).
		Order("julianday(messages.timestamp) ASC").
		Order("messages.id ASC").
		Limit(limit))
}

func (r *gormMessageRepository) LastInteraction(ctx context.Context, jid string) (*domain.Message, error) {
	var row messageRow
	err := r.base(ctx).
		Where("messages.sender = ? OR messages.chat_jid = ?", jid, jid).
		Order("julianday(messages.timestamp) DESC").
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	msg := messageRowToDomain(&row)
	return &msg, nil
}

func (r *gormMessageRepository) find(query *gorm.DB) ([]domain.Message, error) {
	var rows []messageRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	messages := make([]domain.Message, len(rows))
	for i := range rows {
		messages[i] = messageRowToDomain(&rows[i])
	}
	return messages, nil
}

// likePattern escapes LIKE wildcards in s and wraps it for a contains match.
func likePattern(s string) string {
	escaped := strings.ReplaceAll(s, "\\", "\\\\")
	escaped = strings.ReplaceAll(escaped, "%", "\\%")
	escaped = strings.ReplaceAll(escaped, "_", "\\_")
	return "%" + escaped + "%"
}
