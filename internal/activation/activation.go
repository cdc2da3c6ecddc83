package activation

import (
	"log/slog"
	"time"

	"github.com/SayaAndy/saya-today-webp-converter/internal/transient"
)

const SupportKey = "webp_conversion_supported"

type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

const (
	readyMessage       = "Ready to convert images to WebP format!"
	unsupportedMessage = "The image library is not available on this server or the WebP format is not supported. " +
		"Conversion will not work properly. Install libwebp (or libvips built with WebP) and restart."
)

type Prober interface {
	ConversionSupported() bool
}

// Activate records the capability check for the operator. It runs once per
// process start.
func Activate(prober Prober, store transient.Store, ttl time.Duration) bool {
	supported := prober.ConversionSupported()

	value := "no"
	if supported {
		value = "yes"
	}
	store.Put(SupportKey, value, ttl)

	slog.Info("checked webp conversion support", slog.Bool("supported", supported), slog.Duration("notice_ttl", ttl))
	return supported
}

// PopNotice returns the pending capability notice and clears it, so each
// notice is shown at most once even to concurrent readers. An unrecognised
// value is cleared without producing a notice.
func PopNotice(store transient.Store) (*Notice, bool) {
	value, ok := store.Pop(SupportKey)
	if !ok {
		return nil, false
	}

	switch value {
	case "yes":
		return &Notice{Level: LevelInfo, Message: readyMessage}, true
	case "no":
		return &Notice{Level: LevelError, Message: unsupportedMessage}, true
	default:
		slog.Warn("dropping unrecognised capability notice", slog.String("value", value))
		return nil, false
	}
}
