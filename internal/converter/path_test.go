package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeductOutputPath(t *testing.T) {
	tests := map[string]string{
		"/tmp/photo.JPG":         "/tmp/photo.webp",
		"/tmp/photo.jpg":         "/tmp/photo.webp",
		"/tmp/photo.jpeg":        "/tmp/photo.webp",
		"/tmp/photo.JpEg":        "/tmp/photo.webp",
		"/tmp/photo.png":         "/tmp/photo.webp",
		"/tmp/photo.PNG":         "/tmp/photo.webp",
		"/tmp/archive.tar.png":   "/tmp/archive.tar.webp",
		"/tmp/v1.2/photo":        "/tmp/v1.2/photo.webp",
		"/tmp/phpA1b2C3":         "/tmp/phpA1b2C3.webp",
		"/tmp/animation.gif":     "/tmp/animation.gif.webp",
		"/tmp/photo.jpg.bak":     "/tmp/photo.jpg.bak.webp",
		"relative/photo.png":     "relative/photo.webp",
		"/tmp/photo.jpgx":        "/tmp/photo.jpgx.webp",
		"/tmp/already.webp":      "/tmp/already.webp.webp",
		"/tmp/dir.with.dots/a.b": "/tmp/dir.with.dots/a.b.webp",
	}

	for in, want := range tests {
		got := DeductOutputPath(in)
		assert.Equal(t, want, got, in)
		assert.NotEqual(t, in, got, "output must never alias the source")
	}
}
