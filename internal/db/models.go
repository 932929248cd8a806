package db

import (
	"time"
)

// Gender and preference values stored in users.gender / users.gender_preference.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	PrefBoth     = "both"
)

// MinProfilePhotos is how many photos a profile needs to count as complete.
const MinProfilePhotos = 3

// User table
type User struct {
	ID               uint64    `gorm:"primaryKey;autoIncrement"`
	Username         string    `gorm:"uniqueIndex;size:64;not null"`
	Email            string    `gorm:"uniqueIndex;size:128;not null"`
	Name             string    `gorm:"size:128;not null"`
	PasswordHash     string    `gorm:"size:255;not null"`
	Gender           string    `gorm:"size:16;not null;index:idx_gender_pref,priority:1"`
	GenderPreference string    `gorm:"size:16;not null;default:'';index:idx_gender_pref,priority:2"`
	Bio              string    `gorm:"type:text"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

// Photo belongs to a user. The lowest id is the user's representative photo.
type Photo struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserID    uint64    `gorm:"not null;index:idx_photo_user_id,priority:1"`
	URL       string    `gorm:"size:512;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Like represents an emitter's like/dislike reaction to a target.
//
// Composite PK: (EmitterID, TargetID)
//   - Ensures a single row per pair (a repeated reaction overwrites).
//
// Indexes:
//   - idx_target_reaction_updated(target_id, reaction, updated_at DESC)
//     Optimizes "who liked me" lists and counts.
//   - The PK itself serves the reverse-like lookup in react.
type Like struct {
	EmitterID uint64    `gorm:"primaryKey;autoIncrement:false"`
	TargetID  uint64    `gorm:"primaryKey;autoIncrement:false;index:idx_target_reaction_updated,priority:1"`
	Reaction  bool      `gorm:"not null;index:idx_target_reaction_updated,priority:2"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;index:idx_target_reaction_updated,priority:3,sort:desc"`
}

// Match is an undirected pairing. The pair is normalised so that
// UserLowID < UserHighID; the unique index makes (A,B) and (B,A) collide.
type Match struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	UserLowID  uint64    `gorm:"not null;uniqueIndex:idx_match_pair,priority:1"`
	UserHighID uint64    `gorm:"not null;uniqueIndex:idx_match_pair,priority:2;index:idx_match_high"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// Other returns the member of the match that is not userID.
func (m Match) Other(userID uint64) uint64 {
	if m.UserLowID == userID {
		return m.UserHighID
	}
	return m.UserLowID
}

// Has reports whether userID is one of the two members.
func (m Match) Has(userID uint64) bool {
	return m.UserLowID == userID || m.UserHighID == userID
}

// Message is immutable once written.
type Message struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	MatchID   uint64    `gorm:"not null;index:idx_message_match_created,priority:1"`
	EmitterID uint64    `gorm:"not null;index"`
	Text      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_message_match_created,priority:2"`
}

// AllModels lists every table, in migration order.
func AllModels() []any {
	return []any{&User{}, &Photo{}, &Like{}, &Match{}, &Message{}}
}

// OrderedPair normalises two user ids the way matches are stored.
func OrderedPair(a, b uint64) (low, high uint64) {
	if a < b {
		return a, b
	}
	return b, a
}
