package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oggyb/tinderito/internal/config"
	"github.com/oggyb/tinderito/internal/db"
	"github.com/oggyb/tinderito/internal/db/dbtest"
	"github.com/oggyb/tinderito/internal/repository"
)

func TestUpsertOverwritesReaction(t *testing.T) {
	ctx := context.Background()
	dbase := dbtest.Open(t)
	repo := repository.NewLikeRepository(dbase)

	// insert like
	require.NoError(t, repo.Upsert(ctx, 1, 2, true))

	// overwrite with dislike
	require.NoError(t, repo.Upsert(ctx, 1, 2, false))

	var likes []db.Like
	require.NoError(t, dbase.Find(&likes).Error)
	require.Len(t, likes, 1)
	assert.False(t, likes[0].Reaction)
}

func TestHasLiked(t *testing.T) {
	ctx := context.Background()
	dbase := dbtest.Open(t)
	repo := repository.NewLikeRepository(dbase)

	require.NoError(t, repo.Upsert(ctx, 1, 2, true))
	require.NoError(t, repo.Upsert(ctx, 3, 2, false))

	ok, err := repo.HasLiked(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.HasLiked(ctx, 2, 1) // direction matters
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.HasLiked(ctx, 3, 2) // dislike is not a like
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetLikersExcludesDisliked(t *testing.T) {
	ctx := context.Background()
	dbase := dbtest.Open(t)
	repo := repository.NewLikeRepository(dbase)

	// emitters 1,2 liked target 99
	require.NoError(t, repo.Upsert(ctx, 1, 99, true))
	require.NoError(t, repo.Upsert(ctx, 2, 99, true))
	// target disliked emitter 2 → exclude
	require.NoError(t, repo.Upsert(ctx, 99, 2, false))

	likes, next, err := repo.GetLikers(ctx, 99, "", 10)
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, likes, 1)
	assert.Equal(t, uint64(1), likes[0].EmitterID)

	count, err := repo.CountLikers(ctx, 99)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGetLikersPagination(t *testing.T) {
	ctx := context.Background()
	dbase := dbtest.Open(t)
	repo := repository.NewLikeRepository(dbase)

	for emitter := uint64(1); emitter <= 5; emitter++ {
		require.NoError(t, repo.Upsert(ctx, emitter, 99, true))
		time.Sleep(2 * time.Millisecond) // distinct updated_at values
	}

	page1, next, err := repo.GetLikers(ctx, 99, "", 2)
	require.NoError(t, err)
	require.NotNil(t, next)
	require.Len(t, page1, 2)
	assert.Equal(t, uint64(5), page1[0].EmitterID)
	assert.Equal(t, uint64(4), page1[1].EmitterID)

	page2, next, err := repo.GetLikers(ctx, 99, *next, 2)
	require.NoError(t, err)
	require.NotNil(t, next)
	require.Len(t, page2, 2)
	assert.Equal(t, uint64(3), page2[0].EmitterID)
	assert.Equal(t, uint64(2), page2[1].EmitterID)

	page3, next, err := repo.GetLikers(ctx, 99, *next, 2)
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, page3, 1)
	assert.Equal(t, uint64(1), page3[0].EmitterID)
}

func TestGetLikersRejectsBadToken(t *testing.T) {
	dbase := dbtest.Open(t)
	repo := repository.NewLikeRepository(dbase)

	_, _, err := repo.GetLikers(context.Background(), 1, "!!", 10)
	assert.Error(t, err)
}

func TestTargetsLikedBy(t *testing.T) {
	ctx := context.Background()
	dbase := dbtest.Open(t)
	repo := repository.NewLikeRepository(dbase)

	require.NoError(t, repo.Upsert(ctx, 1, 3, true))
	require.NoError(t, repo.Upsert(ctx, 1, 2, true))
	require.NoError(t, repo.Upsert(ctx, 1, 4, false))
	require.NoError(t, repo.Upsert(ctx, 5, 1, true))

	ids, err := repo.TargetsLikedBy(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 3}, ids)

	require.NoError(t, repo.DeleteForUser(ctx, 1))
	ids, err = repo.TargetsLikedBy(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, ids)

	var left int64
	require.NoError(t, dbase.Model(&db.Like{}).Count(&left).Error)
	assert.Zero(t, left)
}

// openFileDB goes through db.NewDB so the production clock is in play.
func openFileDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := &config.Config{}
	cfg.DB.Driver = "sqlite"
	cfg.DB.DSN = filepath.Join(t.TempDir(), "likes.db")
	cfg.Log.Level = "error"

	database, err := db.NewDB(cfg)
	require.NoError(t, err)
	sqlDB, err := database.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return database
}

func pageAllLikers(t *testing.T, repo *repository.LikeRepository, targetID uint64) []uint64 {
	t.Helper()

	var emitters []uint64
	token := ""
	for i := 0; i < 10; i++ {
		likes, next, err := repo.GetLikers(context.Background(), targetID, token, 1)
		require.NoError(t, err)
		for _, l := range likes {
			emitters = append(emitters, l.EmitterID)
		}
		if next == nil {
			return emitters
		}
		token = *next
	}
	t.Fatalf("pagination did not terminate: %v", emitters)
	return nil
}

func TestGetLikersPagesEveryRowWithProductionClock(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewLikeRepository(openFileDB(t))

	for _, emitter := range []uint64{1, 2, 3} {
		require.NoError(t, repo.Upsert(ctx, emitter, 99, true))

		like, err := repo.Get(ctx, emitter, 99)
		require.NoError(t, err)
		assert.True(t, like.UpdatedAt.Equal(like.UpdatedAt.Truncate(time.Millisecond)),
			"updated_at stored below millisecond precision: %s", like.UpdatedAt)
	}
	assert.Equal(t, []uint64{3, 2, 1}, pageAllLikers(t, repo, 99))
}

func TestGetLikersPagesRowsSharingAMillisecond(t *testing.T) {
	ctx := context.Background()
	database := openFileDB(t)
	repo := repository.NewLikeRepository(database)

	for _, emitter := range []uint64{1, 2, 3} {
		require.NoError(t, repo.Upsert(ctx, emitter, 99, true))
	}
	// same instant for everyone, the emitter id breaks the tie
	require.NoError(t, database.Model(&db.Like{}).
		Where("target_id = ?", 99).
		Update("updated_at", db.Now()).Error)

	assert.Equal(t, []uint64{3, 2, 1}, pageAllLikers(t, repo, 99))
}
