package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedTestData resets the database and populates it with demo data.
//
// Behavior:
//  1. Clears messages, matches, likes, photos and users.
//  2. Creates 20 users (10 male, 10 female) with hashed passwords, bios,
//     mixed gender preferences and 3 placeholder photos each.
//  3. Generates reactions with ~70% likes; every 3rd pair is made mutual.
//     Every mutual pair gets a match plus an opening message.
//
// Compatible with MySQL, Postgres and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	for _, table := range []string{"messages", "matches", "likes", "photos", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	// Reset auto-increment sequences
	switch db.Dialector.Name() {
	case "mysql":
		for _, table := range []string{"messages", "matches", "photos", "users"} {
			db.Exec("ALTER TABLE " + table + " AUTO_INCREMENT = 1")
		}
	case "postgres":
		for _, table := range []string{"messages", "matches", "photos", "users"} {
			db.Exec("ALTER SEQUENCE " + table + "_id_seq RESTART WITH 1")
		}
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name IN ('messages', 'matches', 'photos', 'users')")
	}

	log.Println("Cleared existing data")

	// one hash for everyone, bcrypt is slow on purpose
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// --- Seed Users (10 male, 10 female) ---
	prefs := []string{GenderFemale, GenderMale, PrefBoth}
	users := make([]User, 0, 20)
	for i := 1; i <= 20; i++ {
		gender := GenderMale
		pref := GenderFemale
		if i > 10 {
			gender = GenderFemale
			pref = GenderMale
		}
		if i%5 == 0 {
			pref = prefs[r.Intn(len(prefs))]
		}

		user := User{
			Username:         fmt.Sprintf("user%d", i),
			Email:            fmt.Sprintf("user%d@example.com", i),
			Name:             fmt.Sprintf("User %d", i),
			PasswordHash:     string(hash),
			Gender:           gender,
			GenderPreference: pref,
			Bio:              fmt.Sprintf("Hi, I'm user %d.", i),
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
		for p := 1; p <= MinProfilePhotos; p++ {
			photo := Photo{UserID: user.ID, URL: fmt.Sprintf("/uploads/seed-%d-%d.jpg", user.ID, p)}
			if err := db.Create(&photo).Error; err != nil {
				return fmt.Errorf("failed to seed photo: %w", err)
			}
		}
		users = append(users, user)
	}
	log.Println("Seeded 20 users.")

	upsertLike := func(emitter, target uint64, reaction bool) error {
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "emitter_id"}, {Name: "target_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"reaction", "updated_at"}),
		}).Create(&Like{EmitterID: emitter, TargetID: target, Reaction: reaction}).Error
	}

	// --- Seed Likes ---
	// each directed pair is written once, so a seeded match is never
	// contradicted by a later random dislike
	reacted := make(map[[2]uint64]bool)
	liked := make(map[[2]uint64]bool)
	counter := 0
	for _, actor := range users {
		for j := 0; j < 6; j++ {
			target := users[r.Intn(len(users))]
			fwd := [2]uint64{actor.ID, target.ID}
			rev := [2]uint64{target.ID, actor.ID}
			if actor.ID == target.ID || actor.Gender == target.Gender || reacted[fwd] {
				continue
			}

			// like probability 70%
			reaction := r.Intn(100) < 70

			// guarantee mutual likes every 3rd pair
			if counter%3 == 0 && !reacted[rev] {
				reaction = true
				if err := upsertLike(target.ID, actor.ID, true); err != nil {
					return fmt.Errorf("failed to seed like: %w", err)
				}
				reacted[rev], liked[rev] = true, true
			}

			if err := upsertLike(actor.ID, target.ID, reaction); err != nil {
				return fmt.Errorf("failed to seed like: %w", err)
			}
			reacted[fwd], liked[fwd] = true, reaction

			if reaction && liked[rev] {
				low, high := OrderedPair(actor.ID, target.ID)
				match := Match{UserLowID: low, UserHighID: high}
				if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&match).Error; err != nil {
					return fmt.Errorf("failed to seed match: %w", err)
				}
				if match.ID != 0 {
					msg := Message{MatchID: match.ID, EmitterID: actor.ID, Text: "Hey " + target.Name + "!"}
					if err := db.Create(&msg).Error; err != nil {
						return fmt.Errorf("failed to seed message: %w", err)
					}
				}
			}
			counter++
		}
	}
	log.Printf("Seeded %d reactions.", counter)

	return nil
}
