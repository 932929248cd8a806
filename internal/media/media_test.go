package media

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h)), nil))
	return buf.Bytes()
}

// hugePNG is a tiny valid PNG whose IHDR claims w x h pixels.
func hugePNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	data := testPNG(t, 1, 1)
	// signature(8) length(4) "IHDR"(4) width(4) height(4) ... crc at 29
	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestSniff(t *testing.T) {
	mime, err := Sniff(testPNG(t, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, MIMETypePNG, mime)

	mime, err = Sniff(testJPEG(t, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, MIMETypeJPEG, mime)

	mime, err = Sniff([]byte("RIFF\x00\x00\x00\x00WEBPVP8 "))
	require.NoError(t, err)
	assert.Equal(t, MIMETypeWEBP, mime)

	_, err = Sniff([]byte("GIF89a"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestNormalizeDownscales(t *testing.T) {
	out, ext, err := Normalize(testPNG(t, 400, 200), 100, 0)
	require.NoError(t, err)
	assert.Equal(t, ".png", ext)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}

func TestNormalizeKeepsSmallImages(t *testing.T) {
	out, ext, err := Normalize(testJPEG(t, 40, 30), 100, 0)
	require.NoError(t, err)
	assert.Equal(t, ".jpg", ext)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
}

func TestPhotoStoreSaveRemove(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPhotoStore(dir, "/uploads", 100, 0)
	require.NoError(t, err)

	url, err := store.Save(context.Background(), testJPEG(t, 10, 10))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".jpg"))

	name := filepath.Base(url)
	_, err = os.Stat(filepath.Join(dir, name))
	require.NoError(t, err)

	require.NoError(t, store.Remove(url))
	_, err = os.Stat(filepath.Join(dir, name))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Remove("/elsewhere/x.jpg"))
}

func TestPhotoStoreRejectsNonImage(t *testing.T) {
	store, err := NewPhotoStore(t.TempDir(), "/uploads", 100, 0)
	require.NoError(t, err)

	_, err = store.Save(context.Background(), []byte("hello"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestNormalizeRejectsOversizedHeader(t *testing.T) {
	forged := hugePNG(t, 60000, 60000)

	cfg, err := png.DecodeConfig(bytes.NewReader(forged))
	require.NoError(t, err)
	require.Equal(t, 60000, cfg.Width)

	_, _, err = Normalize(forged, 100, 1_000_000)
	assert.ErrorIs(t, err, ErrUnsupportedImage)
	assert.Contains(t, err.Error(), "60000x60000")
}

func TestNormalizePixelBudgetBoundary(t *testing.T) {
	_, _, err := Normalize(testPNG(t, 100, 100), 200, 10_000)
	require.NoError(t, err)

	_, _, err = Normalize(testPNG(t, 101, 100), 200, 10_000)
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestPhotoStoreRejectsOversizedImage(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPhotoStore(dir, "/uploads", 100, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, "/uploads", store.URLPrefix())

	_, err = store.Save(context.Background(), hugePNG(t, 60000, 60000))
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
