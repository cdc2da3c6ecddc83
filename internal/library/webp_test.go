package library

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xwebp "golang.org/x/image/webp"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	return img
}

func writeFixture(t *testing.T, name string, encode func(*bytes.Buffer) error) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, encode(&buf))
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestWebpSession_FormatsIncludeWebp(t *testing.T) {
	sess, err := NewWebpLibrary().Open()
	require.NoError(t, err)
	defer sess.Close()

	formats, err := sess.Formats()
	require.NoError(t, err)
	assert.Contains(t, formats, FormatWebp)
	assert.Contains(t, formats, "JPEG")
	assert.Contains(t, formats, "PNG")
}

func TestWebpSession_EncodesJpegAndPng(t *testing.T) {
	src := gradient(64, 48)
	fixtures := map[string]string{
		"jpeg": writeFixture(t, "a.jpg", func(b *bytes.Buffer) error { return jpeg.Encode(b, src, &jpeg.Options{Quality: 90}) }),
		"png":  writeFixture(t, "a.png", func(b *bytes.Buffer) error { return png.Encode(b, src) }),
	}

	for name, path := range fixtures {
		t.Run(name, func(t *testing.T) {
			sess, err := NewWebpLibrary().Open()
			require.NoError(t, err)
			defer sess.Close()

			require.NoError(t, sess.Load(path))
			require.NoError(t, sess.Strip())

			var out bytes.Buffer
			require.NoError(t, sess.EncodeWebp(&out, 80))

			cfg, err := xwebp.DecodeConfig(bytes.NewReader(out.Bytes()))
			require.NoError(t, err)
			assert.Equal(t, 64, cfg.Width)
			assert.Equal(t, 48, cfg.Height)
		})
	}
}

func TestWebpSession_LoadRejectsOtherContent(t *testing.T) {
	gifPath := writeFixture(t, "a.png", func(b *bytes.Buffer) error {
		return gif.Encode(b, gradient(8, 8), nil)
	})

	sess, err := NewWebpLibrary().Open()
	require.NoError(t, err)
	defer sess.Close()

	assert.ErrorIs(t, sess.Load(gifPath), ErrUnsupportedSource)
}

func TestWebpSession_LoadRejectsTruncatedJpeg(t *testing.T) {
	path := writeFixture(t, "a.jpg", func(b *bytes.Buffer) error {
		if err := jpeg.Encode(b, gradient(32, 32), nil); err != nil {
			return err
		}
		b.Truncate(b.Len() / 3)
		return nil
	})

	sess, err := NewWebpLibrary().Open()
	require.NoError(t, err)
	defer sess.Close()

	assert.Error(t, sess.Load(path))
}

func TestWebpSession_EncodeWithoutImage(t *testing.T) {
	sess, err := NewWebpLibrary().Open()
	require.NoError(t, err)

	sess.Close()
	assert.Error(t, sess.Strip())
	assert.Error(t, sess.EncodeWebp(&bytes.Buffer{}, 80))
}

// pngHeaderOnly builds a PNG whose IHDR declares width x height but which
// carries no pixel data at all.
func pngHeaderOnly(width, height uint32) []byte {
	chunk := func(tag string, data []byte) []byte {
		out := binary.BigEndian.AppendUint32(nil, uint32(len(data)))
		out = append(out, tag...)
		out = append(out, data...)
		return binary.BigEndian.AppendUint32(out, crc32.ChecksumIEEE(append([]byte(tag), data...)))
	}

	ihdr := binary.BigEndian.AppendUint32(nil, width)
	ihdr = binary.BigEndian.AppendUint32(ihdr, height)
	ihdr = append(ihdr, 8, 2, 0, 0, 0)

	out := []byte("\x89PNG\r\n\x1a\n")
	out = append(out, chunk("IHDR", ihdr)...)
	return append(out, chunk("IEND", nil)...)
}

func TestWebpSession_LoadRejectsOversizedHeader(t *testing.T) {
	path := writeFixture(t, "bomb.png", func(b *bytes.Buffer) error {
		_, err := b.Write(pngHeaderOnly(60000, 60000))
		return err
	})

	sess, err := NewWebpLibrary().Open()
	require.NoError(t, err)
	defer sess.Close()

	assert.ErrorIs(t, sess.Load(path), ErrImageTooLarge)
	assert.Error(t, sess.EncodeWebp(&bytes.Buffer{}, 80), "nothing was decoded")
}

func TestWebpSession_MaxPixelsOption(t *testing.T) {
	src := gradient(64, 48)
	path := writeFixture(t, "a.jpg", func(b *bytes.Buffer) error { return jpeg.Encode(b, src, nil) })

	tests := []struct {
		name      string
		maxPixels int64
		tooLarge  bool
	}{
		{name: "exact fit", maxPixels: 64 * 48},
		{name: "one pixel short", maxPixels: 64*48 - 1, tooLarge: true},
		{name: "non-positive keeps default", maxPixels: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, err := NewWebpLibrary(WithMaxPixels(tt.maxPixels)).Open()
			require.NoError(t, err)
			defer sess.Close()

			err = sess.Load(path)
			if tt.tooLarge {
				assert.ErrorIs(t, err, ErrImageTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
