package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

const (
	MIMETypeJPEG = "image/jpeg"
	MIMETypePNG  = "image/png"
	MIMETypeTIFF = "image/tiff"
	MIMETypeWEBP = "image/webp"
)

// ErrUnsupportedImage is returned for payloads that are not a supported image.
var ErrUnsupportedImage = errors.New("unsupported image type")

var (
	magicHeaders = map[string][]string{
		MIMETypeJPEG: {"\xFF\xD8\xFF"},
		MIMETypePNG:  {"\x89\x50\x4E\x47\x0D\x0A\x1A\x0A"},
		MIMETypeTIFF: {"\x49\x49\x2A\x00", "\x4D\x4D\x00\x2A"},
	}

	configDecoders = map[string]func(io.Reader) (image.Config, error){
		MIMETypeJPEG: jpeg.DecodeConfig,
		MIMETypePNG:  png.DecodeConfig,
		MIMETypeTIFF: tiff.DecodeConfig,
		MIMETypeWEBP: webp.DecodeConfig,
	}

	decoders = map[string]func(io.Reader) (image.Image, error){
		MIMETypeJPEG: jpeg.Decode,
		MIMETypePNG:  png.Decode,
		MIMETypeTIFF: tiff.Decode,
		MIMETypeWEBP: webp.Decode,
	}
)

// Sniff detects the image type from the leading bytes.
func Sniff(data []byte) (string, error) {
	// RIFF....WEBP
	if len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP" {
		return MIMETypeWEBP, nil
	}
	for mime, headers := range magicHeaders {
		for _, h := range headers {
			if bytes.HasPrefix(data, []byte(h)) {
				return mime, nil
			}
		}
	}
	return "", ErrUnsupportedImage
}

// Normalize decodes an uploaded photo, scales it down to maxWidth (keeping
// the aspect ratio) and re-encodes it. PNG stays PNG; everything else
// becomes JPEG. Returns the encoded bytes and the file extension to use.
//
// The header is read first: images declaring more than maxPixels pixels
// (0 means no limit) are rejected before any pixel buffer is allocated.
func Normalize(data []byte, maxWidth, maxPixels int) ([]byte, string, error) {
	mime, err := Sniff(data)
	if err != nil {
		return nil, "", err
	}

	cfg, err := configDecoders[mime](bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode %s header: %w", mime, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, "", fmt.Errorf("%w: empty %dx%d image", ErrUnsupportedImage, cfg.Width, cfg.Height)
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, "", fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrUnsupportedImage, cfg.Width, cfg.Height, maxPixels)
	}

	src, err := decoders[mime](bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", mime, err)
	}

	img := resize(src, maxWidth)

	var buf bytes.Buffer
	if mime == MIMETypePNG {
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", fmt.Errorf("encode png: %w", err)
		}
		return buf.Bytes(), ".png", nil
	}
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, "", fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), ".jpg", nil
}

// resize scales src to width maxWidth when it is wider; smaller images are
// returned unchanged.
func resize(src image.Image, maxWidth int) image.Image {
	b := src.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return src
	}

	ratio := float64(maxWidth) / float64(b.Dx())
	height := int(float64(b.Dy()) * ratio)
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
