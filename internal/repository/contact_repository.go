package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/domain"
)

const namedContactCondition = "their_jid IS NOT NULL AND (" +
	"(full_name IS NOT NULL AND TRIM(full_name) != '') OR " +
	"(first_name IS NOT NULL AND TRIM(first_name) != '') OR " +
	"(push_name IS NOT NULL AND TRIM(push_name) != ''))"

// gormContactRepository reads the directory store, which whatsmeow's
// contact store owns.
type gormContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) ContactRepository {
	return &gormContactRepository{db: db}
}

func (r *gormContactRepository) GetByJID(ctx context.Context, jid string) (*domain.DirectoryEntry, error) {
	var model DirectoryContactModel
	err := r.db.WithContext(ctx).
		Where("their_jid = ?", jid).
		Order("our_jid").
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	entry := DirectoryModelToDomain(&model)
	return &entry, nil
}

// ListNamed returns one entry per JID that has at least one non-blank name.
// When several linked devices know the same JID, the first our_jid wins.
func (r *gormContactRepository) ListNamed(ctx context.Context) ([]domain.DirectoryEntry, error) {
	var models []DirectoryContactModel
	err := r.db.WithContext(ctx).
		Where(namedContactCondition).
		Order("their_jid").
		Order("our_jid").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(models))
	entries := make([]domain.DirectoryEntry, 0, len(models))
	for i := range models {
		if _, ok := seen[models[i].TheirJID]; ok {
			continue
		}
		seen[models[i].TheirJID] = struct{}{}
		entries = append(entries, DirectoryModelToDomain(&models[i]))
	}
	return entries, nil
}
