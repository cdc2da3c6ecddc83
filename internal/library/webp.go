package library

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	xwebp "golang.org/x/image/webp"
)

var _ Library = (*WebpLibrary)(nil)
var _ Session = (*webpSession)(nil)

// WebpLibrary decodes with the standard codecs and encodes through libwebp,
// which is linked at build time.
type WebpLibrary struct {
	opts options
}

func NewWebpLibrary(opts ...Option) Library {
	return &WebpLibrary{opts: newOptions(opts)}
}

func (l *WebpLibrary) Name() string {
	return "webp"
}

func (l *WebpLibrary) Loaded() bool {
	return true
}

func (l *WebpLibrary) Open() (Session, error) {
	return &webpSession{maxPixels: l.opts.maxPixels}, nil
}

type webpSession struct {
	maxPixels int64
	src       image.Image
}

// Formats encodes a single pixel and decodes it back; libwebp builds that
// cannot produce a readable bitstream do not report WEBP.
func (s *webpSession) Formats() ([]string, error) {
	formats := []string{"JPEG", "PNG"}

	probe := image.NewRGBA(image.Rect(0, 0, 1, 1))
	probe.Set(0, 0, color.RGBA{R: 255, A: 255})

	opts, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, 75)
	if err != nil {
		return formats, fmt.Errorf("create webp encoder options: %w", err)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, probe, opts); err != nil {
		return formats, fmt.Errorf("encode webp probe: %w", err)
	}
	if _, err := xwebp.DecodeConfig(&buf); err != nil {
		return formats, fmt.Errorf("decode webp probe: %w", err)
	}

	return append(formats, FormatWebp), nil
}

func (s *webpSession) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("fail to open source: %w", err)
	}
	defer f.Close()

	// Sniff the signature instead of trusting the extension.
	var header [8]byte
	if _, err := io.ReadFull(f, header[:]); err != nil {
		return fmt.Errorf("fail to read source header: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("fail to rewind source: %w", err)
	}

	var (
		decode       func(io.Reader) (image.Image, error)
		decodeConfig func(io.Reader) (image.Config, error)
	)
	switch {
	case bytes.HasPrefix(header[:], []byte{0xFF, 0xD8, 0xFF}):
		decode, decodeConfig = jpeg.Decode, jpeg.DecodeConfig
	case bytes.Equal(header[:], []byte("\x89PNG\r\n\x1a\n")):
		decode, decodeConfig = png.Decode, png.DecodeConfig
	default:
		return ErrUnsupportedSource
	}

	// The header alone declares the dimensions; check them before allocating.
	cfg, err := decodeConfig(f)
	if err != nil {
		return fmt.Errorf("decode image header: %w", err)
	}
	if err := checkDimensions(cfg.Width, cfg.Height, s.maxPixels); err != nil {
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("fail to rewind source: %w", err)
	}

	s.src, err = decode(f)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	return nil
}

// Strip is satisfied by construction: decoding keeps only the pixel buffer,
// and libwebp writes a bare VP8 bitstream without EXIF, ICCP or XMP chunks.
func (s *webpSession) Strip() error {
	if s.src == nil {
		return fmt.Errorf("no image loaded")
	}
	return nil
}

func (s *webpSession) EncodeWebp(w io.Writer, quality int) error {
	if s.src == nil {
		return fmt.Errorf("no image loaded")
	}

	opts, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(quality))
	if err != nil {
		return fmt.Errorf("create webp encoder options: %w", err)
	}

	return webp.Encode(w, s.src, opts)
}

func (s *webpSession) Close() {
	s.src = nil
}
