package converter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/SayaAndy/saya-today-webp-converter/internal/library"
)

var _ Converter = (*WebpConverter)(nil)

// WebpConverter holds no per-call state; concurrent calls on distinct paths
// are independent.
type WebpConverter struct {
	prober   Prober
	lib      library.Library
	fileMode os.FileMode
}

func NewWebpConverter(prober Prober, lib library.Library) *WebpConverter {
	return &WebpConverter{prober: prober, lib: lib, fileMode: 0o644}
}

func (c *WebpConverter) DeductOutputPath(inputPath string) string {
	return DeductOutputPath(inputPath)
}

func (c *WebpConverter) Convert(sourcePath string, quality int) (string, error) {
	if quality < 0 || quality > 100 {
		return "", newError(KindInvalidRequest, "convert.quality", fmt.Errorf("%w: got %d", ErrQualityOutOfRange, quality))
	}

	if !c.prober.ConversionSupported() {
		return "", newError(KindEnvironmentUnsupported, "convert.probe", ErrEnvironmentUnsupported)
	}

	return c.convert(sourcePath, quality)
}

func (c *WebpConverter) convert(sourcePath string, quality int) (outputPath string, err error) {
	sess, err := c.lib.Open()
	if err != nil {
		return "", newError(KindEnvironmentUnsupported, "convert.open", err)
	}
	defer sess.Close()

	defer func() {
		if r := recover(); r != nil {
			outputPath = ""
			err = newError(KindEncode, "convert", fmt.Errorf("image library panicked: %v", r))
		}
	}()

	if err := sess.Load(sourcePath); err != nil {
		return "", newError(KindSourceRead, "convert.load", err)
	}

	if err := sess.Strip(); err != nil {
		return "", newError(KindEncode, "convert.strip", err)
	}

	outputPath = DeductOutputPath(sourcePath)
	if err := c.writeAtomically(outputPath, func(w io.Writer) error {
		return sess.EncodeWebp(w, quality)
	}); err != nil {
		return "", err
	}

	slog.Debug("converted image to webp",
		slog.String("input_path", sourcePath),
		slog.String("output_path", outputPath),
		slog.Int("quality", quality),
	)
	return outputPath, nil
}

// writeAtomically encodes into a hidden temp file beside the target and
// renames it into place, so a failed call never leaves bytes at outputPath.
func (c *WebpConverter) writeAtomically(outputPath string, encode func(io.Writer) error) error {
	dir, base := filepath.Split(outputPath)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return newError(KindSinkWrite, "convert.create", err)
	}

	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	sink := &sinkWriter{w: tmp}
	if err := encode(sink); err != nil {
		if sink.err != nil {
			return newError(KindSinkWrite, "convert.write", sink.err)
		}
		return newError(KindEncode, "convert.encode", err)
	}
	if sink.err != nil {
		return newError(KindSinkWrite, "convert.write", sink.err)
	}

	if err := tmp.Chmod(c.fileMode); err != nil {
		return newError(KindSinkWrite, "convert.chmod", err)
	}
	if err := tmp.Close(); err != nil {
		return newError(KindSinkWrite, "convert.close", err)
	}
	if err := os.Rename(tmp.Name(), outputPath); err != nil {
		return newError(KindSinkWrite, "convert.rename", err)
	}

	committed = true
	return nil
}

// sinkWriter remembers the first write error so that a disk failure is not
// reported as an encoder failure.
type sinkWriter struct {
	w   io.Writer
	err error
}

func (s *sinkWriter) Write(p []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	n, err := s.w.Write(p)
	if err != nil {
		s.err = err
	}
	return n, err
}
