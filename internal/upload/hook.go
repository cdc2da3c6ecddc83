// Package upload intercepts freshly received files before the host persists
// them and swaps JPEG and PNG content for a WebP rendition.
package upload

import (
	"log/slog"
	"os"

	"github.com/gabriel-vasile/mimetype"

	"github.com/SayaAndy/saya-today-webp-converter/internal/converter"
)

const WebpContentType = "image/webp"

// Descriptor describes an upload that has been spooled to local disk.
type Descriptor struct {
	Name    string
	TmpPath string
	Type    string
	Size    int64
}

type Hook struct {
	converter converter.Converter
	quality   int
}

func NewHook(c converter.Converter, quality int) *Hook {
	return &Hook{converter: c, quality: quality}
}

// HandleUpload returns d untouched unless the file content is JPEG or PNG and
// conversion succeeds. On success TmpPath points at the WebP file; the
// original temp file is left for the caller to clean up.
func (h *Hook) HandleUpload(d Descriptor) Descriptor {
	logger := slog.With(slog.String("name", d.Name), slog.String("tmp_path", d.TmpPath))

	mtype, err := mimetype.DetectFile(d.TmpPath)
	if err != nil {
		logger.Error("fail to detect content type of upload", slog.String("error", err.Error()))
		return d
	}

	if !mtype.Is("image/jpeg") && !mtype.Is("image/png") {
		logger.Debug("skip upload that is not jpeg or png", slog.String("detected_type", mtype.String()))
		return d
	}

	webpPath, err := h.converter.Convert(d.TmpPath, h.quality)
	if err != nil {
		logger.Error("fail to convert upload, keeping original", slog.String("error", err.Error()))
		return d
	}

	info, err := os.Stat(webpPath)
	if err != nil {
		logger.Error("converted file is missing, keeping original", slog.String("output_path", webpPath), slog.String("error", err.Error()))
		return d
	}

	converted := Descriptor{
		Name:    converter.DeductOutputPath(d.Name),
		TmpPath: webpPath,
		Type:    WebpContentType,
		Size:    info.Size(),
	}
	logger.Info("converted upload to webp",
		slog.String("detected_type", mtype.String()),
		slog.Int64("original_size", d.Size),
		slog.Int64("webp_size", converted.Size),
	)
	return converted
}
