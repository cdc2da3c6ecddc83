package library

import (
	"errors"
	"fmt"
	"io"
)

// FormatWebp is the canonical tag a Session reports when it can encode WebP.
const FormatWebp = "WEBP"

// DefaultMaxPixels bounds decoded images to roughly 160 MiB of RGBA.
const DefaultMaxPixels int64 = 40_000_000

var (
	ErrUnsupportedSource = errors.New("source is neither jpeg nor png")
	ErrImageTooLarge     = errors.New("image exceeds the pixel limit")
)

type options struct {
	maxPixels int64
}

type Option func(*options)

// WithMaxPixels rejects sources whose width*height exceeds n before their
// pixels are decoded. Non-positive values keep DefaultMaxPixels.
func WithMaxPixels(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxPixels = n
		}
	}
}

func newOptions(opts []Option) options {
	o := options{maxPixels: DefaultMaxPixels}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func checkDimensions(width, height int, maxPixels int64) error {
	if pixels := int64(width) * int64(height); pixels > maxPixels {
		return fmt.Errorf("%w: %dx%d is over %d pixels", ErrImageTooLarge, width, height, maxPixels)
	}
	return nil
}

// Library is an image-processing backend that may or may not be present in
// the running environment.
type Library interface {
	Name() string
	// Loaded reports whether the backend is linked in and its entry point can be
	// instantiated. It must not panic.
	Loaded() bool
	// Open acquires a Session. The caller owns it and must Close it.
	Open() (Session, error)
}

// Session is an owned handle on the backend holding at most one image.
type Session interface {
	// Formats lists the canonical upper-case tags of the formats the session
	// is able to encode.
	Formats() ([]string, error)
	Load(path string) error
	// Strip drops every non-pixel chunk (EXIF, ICC, XMP, comments) from the
	// loaded image.
	Strip() error
	EncodeWebp(w io.Writer, quality int) error
	Close()
}

var NewLibraryMap = map[string]func(opts ...Option) Library{
	"webp": NewWebpLibrary,
	"vips": NewVipsLibrary,
}
