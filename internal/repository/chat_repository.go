package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/domain"
)

// placeholderJID is a bridge artifact that never names a real contact.
const placeholderJID = "0@" + domain.UserServer

const chatColumns = "chats.jid, chats.name, chats.last_message_time"

const lastMessageColumns = ", messages.content AS last_message, messages.sender AS last_sender, " +
	"messages.is_from_me AS last_is_from_me"

type gormChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &gormChatRepository{db: db}
}

func (r *gormChatRepository) base(ctx context.Context, includeLastMessage bool) *gorm.DB {
	query := r.db.WithContext(ctx).Table("chats")
	if !includeLastMessage {
		return query.Select(chatColumns)
	}
	return query.
		Select(chatColumns + lastMessageColumns).
		Joins("LEFT JOIN messages ON chats.jid = messages.chat_jid AND julianday(chats.last_message_time) = julianday(messages.timestamp)")
}

func (r *gormChatRepository) GetByJID(ctx context.Context, jid string, includeLastMessage bool) (*domain.Chat, error) {
	var rows []chatRow
	err := r.base(ctx, includeLastMessage).
		Where("chats.jid = ?", jid).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	chat := chatRowToDomain(&rows[0])
	return &chat, nil
}

func (r *gormChatRepository) List(ctx context.Context, filter domain.ChatFilter) ([]domain.Chat, error) {
	query := r.base(ctx, filter.IncludeLastMessage)

	if filter.Query != "" {
		pattern := likePattern(filter.Query)
		query = query.Where("(LOWER(chats.name) LIKE LOWER(?) ESCAPE '\\' OR chats.jid LIKE ? ESCAPE '\\')", pattern, pattern)
	}

	if filter.SortBy == domain.ChatSortName {
		query = query.Order("chats.name COLLATE NOCASE").Order("chats.jid")
	} else {
		query = query.Order("julianday(chats.last_message_time) DESC").Order("chats.jid")
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Page * filter.Limit)
	}

	return r.find(query)
}

// ListNamed returns every chat with a usable name as a chat-sourced contact.
func (r *gormChatRepository) ListNamed(ctx context.Context) ([]domain.ContactRecord, error) {
	var models []ChatModel
	err := r.db.WithContext(ctx).
		Where("jid != ? AND name IS NOT NULL AND TRIM(name) != ''", placeholderJID).
		Order("jid").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	records := make([]domain.ContactRecord, 0, len(models))
	for i := range models {
		records = append(records, domain.ContactRecord{
			JID:         models[i].JID,
			DisplayName: deref(models[i].Name),
			Source:      domain.SourceChat,
		})
	}
	return records, nil
}

func (r *gormChatRepository) FindDirectByPhone(ctx context.Context, phone string) (*domain.Chat, error) {
	var rows []chatRow
	err := r.base(ctx, true).
		Where("chats.jid LIKE ? ESCAPE '\\' AND chats.jid NOT LIKE ?", likePattern(phone), "%@"+domain.GroupServer).
		Order("julianday(chats.last_message_time) DESC").
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	chat := chatRowToDomain(&rows[0])
	return &chat, nil
}

// ListForContact returns chats where jid sent a message, plus the direct chat
// with jid itself.
func (r *gormChatRepository) ListForContact(ctx context.Context, jid string, limit, offset int) ([]domain.Chat, error) {
	query := r.base(ctx, true).
		Where("chats.jid = ? OR chats.jid IN (SELECT DISTINCT chat_jid FROM messages WHERE sender = ?)", jid, jid).
		Order("julianday(chats.last_message_time) DESC").
		Order("chats.jid")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	return r.find(query)
}

// NameForSender looks up a display name for a sender, first by exact JID and
// then by any chat JID containing the sender's phone part. It returns "" when
// nothing matches.
func (r *gormChatRepository) NameForSender(ctx context.Context, sender string) (string, error) {
	var model ChatModel
	err := r.db.WithContext(ctx).Where("jid = ?", sender).Take(&model).Error
	if name := strings.TrimSpace(deref(model.Name)); err == nil && name != "" {
		return name, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	phone := domain.LocalPart(sender)
	if phone == "" {
		return "", nil
	}
	var models []ChatModel
	err = r.db.WithContext(ctx).
		Where("jid LIKE ? ESCAPE '\\' AND name IS NOT NULL AND TRIM(name) != ''", likePattern(phone)).
		Order("jid").
		Limit(1).
		Find(&models).Error
	if err != nil {
		return "", err
	}
	if len(models) == 0 {
		return "", nil
	}
	return deref(models[0].Name), nil
}

func (r *gormChatRepository) find(query *gorm.DB) ([]domain.Chat, error) {
	var rows []chatRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	chats := make([]domain.Chat, len(rows))
	for i := range rows {
		chats[i] = chatRowToDomain(&rows[i])
	}
	return chats, nil
}
