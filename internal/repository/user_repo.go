package repository

import (
	"context"
	"errors"
	"slices"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/tinderito/internal/db"
)

// Conflict fields reported by FindConflict.
const (
	ConflictNone     = ""
	ConflictUsername = "username"
	ConflictEmail    = "email"
)

// UserRepository provides data access methods for the User model.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// Candidate is a user row as shown in discovery, with one representative photo.
type Candidate struct {
	ID       uint64
	Name     string
	Username string
	Gender   string
	Bio      string
	Photo    *string
}

// Create inserts u. Unique indexes on username/email reject duplicates
// (gorm.ErrDuplicatedKey) even when two registrations race.
func (r *UserRepository) Create(ctx context.Context, u *db.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

// GetByID returns the user or gorm.ErrRecordNotFound.
func (r *UserRepository) GetByID(ctx context.Context, id uint64) (db.User, error) {
	var u db.User
	err := r.db.WithContext(ctx).Take(&u, id).Error
	return u, err
}

// GetByUsername returns the user or gorm.ErrRecordNotFound.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (db.User, error) {
	var u db.User
	err := r.db.WithContext(ctx).Where("username = ?", username).Take(&u).Error
	return u, err
}

// Exists reports whether a user with the given id exists.
func (r *UserRepository) Exists(ctx context.Context, id uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// LockForUpdate row-locks the given users until the surrounding transaction
// ends and returns the ids that exist. Rows are locked in ascending id order,
// so two transactions locking the same pair queue instead of deadlocking.
// SQLite has no row locks; there the single writer serializes instead.
func (r *UserRepository) LockForUpdate(ctx context.Context, ids ...uint64) ([]uint64, error) {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)

	var found []uint64
	err := r.db.WithContext(ctx).
		Model(&db.User{}).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Where("id IN ?", slices.Compact(sorted)).
		Order("id ASC").
		Pluck("id", &found).Error
	return found, err
}

// FindConflict reports which of username/email is already taken by a user
// other than excludeID (0 excludes nobody). Username is checked first.
func (r *UserRepository) FindConflict(ctx context.Context, username, email string, excludeID uint64) (string, error) {
	taken := func(column, value string) (bool, error) {
		var count int64
		q := r.db.WithContext(ctx).Model(&db.User{}).Where(column+" = ?", value)
		if excludeID != 0 {
			q = q.Where("id <> ?", excludeID)
		}
		err := q.Count(&count).Error
		return count > 0, err
	}

	if ok, err := taken("username", username); err != nil {
		return ConflictNone, err
	} else if ok {
		return ConflictUsername, nil
	}

	if ok, err := taken("email", email); err != nil {
		return ConflictNone, err
	} else if ok {
		return ConflictEmail, nil
	}

	return ConflictNone, nil
}

// UpdateAccount writes the account fields (name, email, username, password hash).
func (r *UserRepository) UpdateAccount(ctx context.Context, u *db.User) error {
	return r.db.WithContext(ctx).
		Model(u).
		Select("name", "email", "username", "password_hash").
		Updates(u).Error
}

// UpdateProfile sets bio and gender preference for id.
// Returns gorm.ErrRecordNotFound when no row matched.
func (r *UserRepository) UpdateProfile(ctx context.Context, id uint64, bio, pref string) error {
	res := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"bio": bio, "gender_preference": pref})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the user row. Returns gorm.ErrRecordNotFound when absent.
func (r *UserRepository) Delete(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Delete(&db.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindCandidates returns up to limit users mutually eligible for requester.
//
// Behavior:
//   - Candidate gender matches the requester's preference (any gender when "both").
//   - Candidate preference is "both" or the requester's gender.
//   - Users the requester already reacted to (like or dislike) are excluded.
//   - The requester is never included.
//   - Ordered by candidate id ascending.
func (r *UserRepository) FindCandidates(ctx context.Context, requester db.User, limit int) ([]Candidate, error) {
	query := r.db.WithContext(ctx).
		Table("users u").
		Select("u.id, u.name, u.username, u.gender, u.bio, "+representativePhoto).
		Where("u.id <> ?", requester.ID).
		Where("(u.gender_preference = ? OR u.gender_preference = ?)", db.PrefBoth, requester.Gender).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM likes l
				WHERE l.emitter_id = ?
				  AND l.target_id = u.id
			)`, requester.ID)

	if requester.GenderPreference != db.PrefBoth {
		// an unset preference matches no gender
		query = query.Where("u.gender = ?", requester.GenderPreference)
	}

	var out []Candidate
	if err := query.Order("u.id ASC").Limit(limit).Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// IsNotFound is a small helper for callers branching on missing rows.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
