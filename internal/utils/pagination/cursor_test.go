package pagination_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/tinderito/internal/utils/pagination"
)

func TestDecodeEmptyTokenIsFirstPage(t *testing.T) {
	c, err := pagination.Decode("")
	require.NoError(t, err)
	assert.True(t, c.IsZero())
}

func TestEncodeDecode(t *testing.T) {
	token, err := pagination.Encode(pagination.Cursor{EmitterID: 7, UpdatedUnix: 1700000000123})
	require.NoError(t, err)

	c, err := pagination.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), c.EmitterID)
	assert.Equal(t, int64(1700000000123), c.UpdatedUnix)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := pagination.Decode("%%%not-base64")
	assert.ErrorIs(t, err, pagination.ErrInvalidToken)

	_, err = pagination.Decode("bm90LWpzb24=") // "not-json"
	assert.ErrorIs(t, err, pagination.ErrInvalidToken)
}
