package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/tinderito/internal/db"
	"github.com/oggyb/tinderito/internal/utils/pagination"
)

// LikeRepository provides data access methods for the Like model.
// It encapsulates all queries related to likes/dislikes between users.
type LikeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new repository bound to the given DB connection
// (or transaction).
func NewLikeRepository(database *gorm.DB) *LikeRepository {
	return &LikeRepository{db: database}
}

// Upsert records emitter's latest like or dislike of target. A second
// reaction on the same pair replaces the first and bumps updated_at, which
// moves the liker back to the top of target's liked-you list.
//
//	repo.Upsert(ctx, 1, 2, true)  // 1 likes 2
//	repo.Upsert(ctx, 1, 2, false) // 1 changes their mind
func (r *LikeRepository) Upsert(
	ctx context.Context,
	emitterID, targetID uint64,
	reaction bool,
) error {
	like := db.Like{
		EmitterID: emitterID,
		TargetID:  targetID,
		Reaction:  reaction,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "emitter_id"}, {Name: "target_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"reaction", "updated_at"}),
		}).
		Create(&like).Error
}

// Get returns the emitter -> target row, or gorm.ErrRecordNotFound.
func (r *LikeRepository) Get(ctx context.Context, emitterID, targetID uint64) (db.Like, error) {
	var like db.Like
	err := r.db.WithContext(ctx).
		Where("emitter_id = ? AND target_id = ?", emitterID, targetID).
		Take(&like).Error
	return like, err
}

// HasLiked checks whether emitter has a positive reaction on target.
//
// Used for mutual-like detection in react.
//
// Example:
//
//	repo.HasLiked(ctx, 1, 2) // -> true if user 1 liked user 2
func (r *LikeRepository) HasLiked(
	ctx context.Context,
	emitterID, targetID uint64,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("emitter_id = ? AND target_id = ? AND reaction = ?", emitterID, targetID, true).
		Count(&count).Error
	return count > 0, err
}

// likersQuery selects positive likes on target, minus emitters the target
// has disliked back.
func (r *LikeRepository) likersQuery(ctx context.Context, targetID uint64) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("likes l").
		Where("l.target_id = ? AND l.reaction = ?", targetID, true).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM likes l2
				WHERE l2.emitter_id = ?
				  AND l2.target_id = l.emitter_id
				  AND l2.reaction = ?
			)`, targetID, false)
}

// GetLikers returns the likes received by target.
//
// Behavior:
//   - Only rows where target_id = X and reaction = true are returned.
//   - Excludes users that the target explicitly disliked.
//   - Ordered by updated_at DESC, emitter_id DESC.
//   - Supports cursor-based pagination via paginationToken.
//
// Example:
//
//	repo.GetLikers(ctx, 42, "", 20) // first 20 people who liked user 42
func (r *LikeRepository) GetLikers(
	ctx context.Context,
	targetID uint64,
	paginationToken string,
	limit int,
) ([]db.Like, *string, error) {
	var likes []db.Like

	// decode cursor if provided
	cursor, err := pagination.Decode(paginationToken)
	if err != nil {
		return nil, nil, err
	}

	query := r.likersQuery(ctx, targetID).
		Select("l.*").
		Order("l.updated_at DESC, l.emitter_id DESC").
		Limit(limit + 1)

	// apply cursor
	if !cursor.IsZero() {
		ts := time.UnixMilli(cursor.UpdatedUnix).UTC()
		query = query.Where(
			"(l.updated_at < ? OR (l.updated_at = ? AND l.emitter_id < ?))",
			ts, ts, cursor.EmitterID,
		)
	}

	if err := query.Find(&likes).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(likes) > limit {
		last := likes[limit-1]
		token, err := pagination.Encode(pagination.Cursor{
			EmitterID:   last.EmitterID,
			UpdatedUnix: last.UpdatedAt.UnixMilli(),
		})
		if err != nil {
			return nil, nil, err
		}
		nextToken = &token
		likes = likes[:limit]
	}

	return likes, nextToken, nil
}

// CountLikers returns how many users liked target, with the same exclusions
// as GetLikers. Used behind the Redis counter (DB is the fallback).
func (r *LikeRepository) CountLikers(
	ctx context.Context,
	targetID uint64,
) (int64, error) {
	var count int64
	if err := r.likersQuery(ctx, targetID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteForUser removes every like emitted or received by userID.
func (r *LikeRepository) DeleteForUser(ctx context.Context, userID uint64) error {
	return r.db.WithContext(ctx).
		Where("emitter_id = ? OR target_id = ?", userID, userID).
		Delete(&db.Like{}).Error
}

// TargetsLikedBy returns the users emitterID currently likes.
// Their liked-you counters change when emitterID goes away.
func (r *LikeRepository) TargetsLikedBy(ctx context.Context, emitterID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("emitter_id = ? AND reaction = ?", emitterID, true).
		Order("target_id ASC").
		Pluck("target_id", &ids).Error
	return ids, err
}
