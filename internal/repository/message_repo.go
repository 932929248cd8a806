package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/tinderito/internal/db"
)

// MessageRepository provides data access methods for the Message model.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new repository bound to the given DB connection.
func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

// Create persists msg; id and created_at are assigned by the store.
func (r *MessageRepository) Create(ctx context.Context, msg *db.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// ListByMatch returns the conversation of matchID, oldest first.
// Ties on created_at are broken by id so the order is total.
func (r *MessageRepository) ListByMatch(ctx context.Context, matchID uint64) ([]db.Message, error) {
	var msgs []db.Message
	err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	return msgs, err
}

// DeleteForMatches removes the conversations of the given matches.
func (r *MessageRepository) DeleteForMatches(ctx context.Context, matchIDs []uint64) error {
	if len(matchIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("match_id IN ?", matchIDs).
		Delete(&db.Message{}).Error
}
