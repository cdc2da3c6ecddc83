//go:build vips

package library

import (
	"bytes"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xwebp "golang.org/x/image/webp"
)

func openVips(t *testing.T, opts ...Option) Session {
	t.Helper()
	lib := NewVipsLibrary(opts...)
	require.True(t, lib.Loaded())

	sess, err := lib.Open()
	require.NoError(t, err)
	t.Cleanup(sess.Close)
	return sess
}

func TestVipsSession_FormatsFromExport(t *testing.T) {
	formats, err := openVips(t).Formats()
	require.NoError(t, err)
	assert.Contains(t, formats, FormatWebp)
	assert.Contains(t, formats, "JPEG")
}

func TestVipsSession_StripAndEncode(t *testing.T) {
	path := writeFixture(t, "a.jpg", func(b *bytes.Buffer) error {
		return jpeg.Encode(b, gradient(40, 20), nil)
	})

	sess := openVips(t)
	require.NoError(t, sess.Load(path))
	require.NoError(t, sess.Strip())

	var out bytes.Buffer
	require.NoError(t, sess.EncodeWebp(&out, 80))

	cfg, err := xwebp.DecodeConfig(&out)
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 20, cfg.Height)
}

func TestVipsSession_LoadRejectsOversizedHeader(t *testing.T) {
	path := writeFixture(t, "bomb.png", func(b *bytes.Buffer) error {
		_, err := b.Write(pngHeaderOnly(60000, 60000))
		return err
	})

	assert.ErrorIs(t, openVips(t).Load(path), ErrImageTooLarge)
}

func TestVipsSession_StripWithoutImage(t *testing.T) {
	assert.Error(t, openVips(t).Strip())
}
