//go:build vips

package library

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	govips "github.com/davidbyttow/govips/v2/vips"
	xwebp "golang.org/x/image/webp"
)

var _ Library = (*VipsLibrary)(nil)
var _ Session = (*vipsSession)(nil)

// VipsLibrary drives libvips. libvips is started lazily on first use and
// stays up for the lifetime of the process; call Shutdown at exit.
type VipsLibrary struct {
	opts    options
	once    sync.Once
	started bool
}

func NewVipsLibrary(opts ...Option) Library {
	return &VipsLibrary{opts: newOptions(opts)}
}

func (l *VipsLibrary) Name() string {
	return "vips"
}

func (l *VipsLibrary) Loaded() bool {
	l.once.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("fail to start libvips", slog.Any("panic", r))
				l.started = false
			}
		}()
		govips.LoggingSettings(nil, govips.LogLevelWarning)
		govips.Startup(&govips.Config{ConcurrencyLevel: runtime.NumCPU()})
		l.started = true
	})
	return l.started
}

func (l *VipsLibrary) Open() (Session, error) {
	if !l.Loaded() {
		return nil, fmt.Errorf("libvips is not started")
	}
	return &vipsSession{maxPixels: l.opts.maxPixels}, nil
}

func (l *VipsLibrary) Shutdown() {
	if l.started {
		govips.Shutdown()
	}
}

type vipsSession struct {
	maxPixels int64
	ref       *govips.ImageRef
}

// Formats lists the loadable types. IsTypeSupported only looks for a loader,
// so WEBP is decided by exporting a single pixel instead.
func (s *vipsSession) Formats() ([]string, error) {
	formats := make([]string, 0, len(govips.ImageTypes))
	for imageType, name := range govips.ImageTypes {
		if imageType == govips.ImageTypeWEBP {
			continue
		}
		if govips.IsTypeSupported(imageType) {
			formats = append(formats, strings.ToUpper(name))
		}
	}

	if err := exportWebpPixel(); err != nil {
		return formats, err
	}
	return append(formats, FormatWebp), nil
}

func exportWebpPixel() error {
	pixel := image.NewRGBA(image.Rect(0, 0, 1, 1))
	pixel.Set(0, 0, color.RGBA{R: 255, A: 255})

	var src bytes.Buffer
	if err := png.Encode(&src, pixel); err != nil {
		return fmt.Errorf("encode png probe: %w", err)
	}

	ref, err := govips.NewImageFromBuffer(src.Bytes())
	if err != nil {
		return fmt.Errorf("load png probe: %w", err)
	}
	defer ref.Close()

	buf, _, err := ref.ExportWebp(govips.NewWebpExportParams())
	if err != nil {
		return fmt.Errorf("export webp probe: %w", err)
	}
	if _, err := xwebp.DecodeConfig(bytes.NewReader(buf)); err != nil {
		return fmt.Errorf("decode webp probe: %w", err)
	}
	return nil
}

func (s *vipsSession) Load(path string) error {
	ref, err := govips.NewImageFromFile(path)
	if err != nil {
		return fmt.Errorf("fail to load image: %w", err)
	}

	switch ref.Format() {
	case govips.ImageTypeJPEG, govips.ImageTypePNG:
	default:
		ref.Close()
		return ErrUnsupportedSource
	}

	// libvips reads pixels lazily, so the header dimensions are known here.
	if err := checkDimensions(ref.Width(), ref.Height(), s.maxPixels); err != nil {
		ref.Close()
		return err
	}

	s.ref = ref
	return nil
}

func (s *vipsSession) Strip() error {
	if s.ref == nil {
		return fmt.Errorf("no image loaded")
	}
	if err := s.ref.RemoveMetadata(); err != nil {
		return fmt.Errorf("fail to remove metadata: %w", err)
	}
	return nil
}

func (s *vipsSession) EncodeWebp(w io.Writer, quality int) error {
	if s.ref == nil {
		return fmt.Errorf("no image loaded")
	}

	ep := govips.NewWebpExportParams()
	ep.Quality = quality
	ep.StripMetadata = true
	buf, _, err := s.ref.ExportWebp(ep)
	if err != nil {
		return fmt.Errorf("export webp: %w", err)
	}

	_, err = w.Write(buf)
	return err
}

func (s *vipsSession) Close() {
	if s.ref != nil {
		s.ref.Close()
		s.ref = nil
	}
}
