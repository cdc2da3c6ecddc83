// Package probe answers whether the running environment can turn JPEG and
// PNG uploads into WebP. Every check is total: backend faults, including
// panics raised while a native library initialises, come back as false.
package probe

import (
	"log/slog"
	"slices"

	"github.com/SayaAndy/saya-today-webp-converter/internal/library"
)

type Result int

const (
	Indeterminate Result = iota
	Supported
	Unsupported
)

func (r Result) String() string {
	switch r {
	case Supported:
		return "supported"
	case Unsupported:
		return "unsupported"
	default:
		return "indeterminate"
	}
}

type CapabilityProbe struct {
	lib library.Library
}

func NewCapabilityProbe(lib library.Library) *CapabilityProbe {
	return &CapabilityProbe{lib: lib}
}

func (p *CapabilityProbe) LibraryName() string {
	return p.lib.Name()
}

func (p *CapabilityProbe) LibraryAvailable() bool {
	ok, _ := p.loaded()
	return ok
}

func (p *CapabilityProbe) loaded() (ok, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("image library availability check panicked", slog.String("library", p.lib.Name()), slog.Any("panic", r))
			ok, panicked = false, true
		}
	}()
	return p.lib.Loaded(), false
}

func (p *CapabilityProbe) WebpEncodingSupported() bool {
	return p.check() == Supported
}

// ConversionSupported only opens a session when the library is present.
func (p *CapabilityProbe) ConversionSupported() bool {
	if !p.LibraryAvailable() {
		return false
	}
	return p.WebpEncodingSupported()
}

// Check is the tri-state form of ConversionSupported. Unsupported is only
// returned for a definite answer; a backend that faulted while loading or
// answering the format query is Indeterminate.
func (p *CapabilityProbe) Check() Result {
	ok, panicked := p.loaded()
	switch {
	case panicked:
		return Indeterminate
	case !ok:
		return Unsupported
	}
	return p.check()
}

func (p *CapabilityProbe) check() (result Result) {
	logger := slog.With(slog.String("library", p.lib.Name()))

	defer func() {
		if r := recover(); r != nil {
			logger.Warn("webp capability query panicked", slog.Any("panic", r))
			result = Indeterminate
		}
	}()

	sess, err := p.lib.Open()
	if err != nil {
		logger.Debug("fail to open image library session", slog.String("error", err.Error()))
		return Indeterminate
	}
	defer sess.Close()

	formats, err := sess.Formats()
	if err != nil {
		logger.Debug("fail to query supported formats", slog.String("error", err.Error()))
		return Indeterminate
	}

	if slices.Contains(formats, library.FormatWebp) {
		return Supported
	}
	return Unsupported
}
