package db_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/tinderito/internal/db"
	"github.com/oggyb/tinderito/internal/db/dbtest"
)

func TestSeedTestDataKeepsMatchInvariant(t *testing.T) {
	gdb := dbtest.Open(t)

	// run twice: the second run must start from a clean slate
	require.NoError(t, db.SeedTestData(gdb))
	require.NoError(t, db.SeedTestData(gdb))

	var users, photos int64
	require.NoError(t, gdb.Model(&db.User{}).Count(&users).Error)
	require.NoError(t, gdb.Model(&db.Photo{}).Count(&photos).Error)
	assert.Equal(t, int64(20), users)
	assert.Equal(t, int64(20*db.MinProfilePhotos), photos)

	var likes []db.Like
	require.NoError(t, gdb.Find(&likes).Error)
	reaction := make(map[[2]uint64]bool, len(likes))
	for _, l := range likes {
		assert.NotEqual(t, l.EmitterID, l.TargetID)
		reaction[[2]uint64{l.EmitterID, l.TargetID}] = l.Reaction
	}

	var matches []db.Match
	require.NoError(t, gdb.Find(&matches).Error)
	assert.NotEmpty(t, matches)
	matched := make(map[[2]uint64]bool, len(matches))
	for _, m := range matches {
		assert.Less(t, m.UserLowID, m.UserHighID)
		assert.True(t, reaction[[2]uint64{m.UserLowID, m.UserHighID}], "match %d lacks low->high like", m.ID)
		assert.True(t, reaction[[2]uint64{m.UserHighID, m.UserLowID}], "match %d lacks high->low like", m.ID)
		matched[[2]uint64{m.UserLowID, m.UserHighID}] = true
	}

	// and every mutual like pair is matched
	for pair, r := range reaction {
		if !r || !reaction[[2]uint64{pair[1], pair[0]}] {
			continue
		}
		low, high := db.OrderedPair(pair[0], pair[1])
		assert.True(t, matched[[2]uint64{low, high}], "mutual pair %v has no match", pair)
	}
}

func TestOrderedPair(t *testing.T) {
	low, high := db.OrderedPair(9, 3)
	assert.Equal(t, uint64(3), low)
	assert.Equal(t, uint64(9), high)

	m := db.Match{UserLowID: 3, UserHighID: 9}
	assert.Equal(t, uint64(9), m.Other(3))
	assert.Equal(t, uint64(3), m.Other(9))
	assert.True(t, m.Has(9))
	assert.False(t, m.Has(4))
}
