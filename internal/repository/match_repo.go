package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/tinderito/internal/db"
)

// representativePhoto selects the lowest-id photo of the user aliased as u.
const representativePhoto = `(
	SELECT p.url FROM photos p
	WHERE p.user_id = u.id
	ORDER BY p.id ASC
	LIMIT 1
) AS photo`

// MatchRepository provides data access methods for the Match model.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// MatchSummary is a match seen from one member: the other member's public fields.
type MatchSummary struct {
	MatchID   uint64
	CreatedAt time.Time
	UserID    uint64
	Name      string
	Username  string
	Bio       string
	Photo     *string
}

// CreateIfAbsent inserts the match for the unordered pair (a, b).
//
// Behavior:
//   - The pair is normalised (low, high) so (a,b) and (b,a) hit the same unique index.
//   - An existing row is left untouched (ON CONFLICT DO NOTHING), which makes
//     concurrent mutual likes converge on a single row.
//   - Returns true when this call inserted the row.
func (r *MatchRepository) CreateIfAbsent(ctx context.Context, a, b uint64) (bool, error) {
	low, high := db.OrderedPair(a, b)
	match := db.Match{UserLowID: low, UserHighID: high}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_low_id"}, {Name: "user_high_id"}},
			DoNothing: true,
		}).
		Create(&match)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindByPair returns the match for the unordered pair, or gorm.ErrRecordNotFound.
func (r *MatchRepository) FindByPair(ctx context.Context, a, b uint64) (db.Match, error) {
	low, high := db.OrderedPair(a, b)

	var match db.Match
	err := r.db.WithContext(ctx).
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		Take(&match).Error
	return match, err
}

// IsMember reports whether userID is one of the two members of matchID.
// An unknown match simply yields false.
func (r *MatchRepository) IsMember(ctx context.Context, matchID, userID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("id = ? AND (user_low_id = ? OR user_high_id = ?)", matchID, userID, userID).
		Count(&count).Error
	return count > 0, err
}

// ListForUser returns every match userID is part of, each annotated with the
// other member's profile summary. Ordered by match id.
func (r *MatchRepository) ListForUser(ctx context.Context, userID uint64) ([]MatchSummary, error) {
	var rows []MatchSummary
	err := r.db.WithContext(ctx).
		Table("matches m").
		Select("m.id AS match_id, m.created_at, u.id AS user_id, u.name, u.username, u.bio, "+representativePhoto).
		Joins(`JOIN users u ON u.id = CASE
			WHEN m.user_low_id = ? THEN m.user_high_id
			ELSE m.user_low_id END`, userID).
		Where("m.user_low_id = ? OR m.user_high_id = ?", userID, userID).
		Order("m.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MatchIDsForUser returns the ids of every match userID is part of.
func (r *MatchRepository) MatchIDsForUser(ctx context.Context, userID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("user_low_id = ? OR user_high_id = ?", userID, userID).
		Pluck("id", &ids).Error
	return ids, err
}

// DeleteForUser removes every match userID is part of.
func (r *MatchRepository) DeleteForUser(ctx context.Context, userID uint64) error {
	return r.db.WithContext(ctx).
		Where("user_low_id = ? OR user_high_id = ?", userID, userID).
		Delete(&db.Match{}).Error
}
