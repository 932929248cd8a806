// Package dbtest opens isolated in-memory SQLite databases for tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/tinderito/internal/db"
)

// Open spins up a fresh in-memory SQLite DB named after the test and applies
// migrations. Each test gets its own isolated database.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:                db.Now,
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// one connection: shared-cache SQLite reports SQLITE_LOCKED under concurrent writers
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(database); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

// CreateUser inserts a user with the given gender/preference and returns it.
func CreateUser(t *testing.T, gdb *gorm.DB, username, gender, pref string) db.User {
	t.Helper()

	u := db.User{
		Username:         username,
		Email:            username + "@test.com",
		Name:             strings.ToUpper(username[:1]) + username[1:],
		PasswordHash:     "x",
		Gender:           gender,
		GenderPreference: pref,
	}
	if err := gdb.Create(&u).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return u
}
