package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/SayaAndy/saya-today-webp-converter/internal/activation"
	"github.com/SayaAndy/saya-today-webp-converter/internal/client/output"
	"github.com/SayaAndy/saya-today-webp-converter/internal/transient"
	"github.com/SayaAndy/saya-today-webp-converter/internal/upload"
)

const defaultContentType = "application/octet-stream"

type Prober interface {
	ConversionSupported() bool
}

type Server struct {
	hook           *upload.Hook
	output         output.OutputClient
	notices        transient.Store
	prober         Prober
	uploadDir      string
	maxUploadBytes int64
}

func New(hook *upload.Hook, outputClient output.OutputClient, notices transient.Store, prober Prober, uploadDir string, maxUploadBytes int64) *Server {
	return &Server{
		hook:           hook,
		output:         outputClient,
		notices:        notices,
		prober:         prober,
		uploadDir:      uploadDir,
		maxUploadBytes: maxUploadBytes,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("GET /admin/notices", s.handleNotices)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

type uploadResponse struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Size      int64  `json:"size"`
	Location  string `json:"location"`
	Converted bool   `json:"converted"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", maxErr.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Errorf("fail to read form file: %w", err))
		return
	}
	defer file.Close()

	tmpPath, size, err := s.spool(file)
	if err != nil {
		slog.Error("fail to spool upload", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, errors.New("fail to spool upload"))
		return
	}
	defer os.Remove(tmpPath)

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}

	d := s.hook.HandleUpload(upload.Descriptor{
		Name:    uploadName(header.Filename),
		TmpPath: tmpPath,
		Type:    contentType,
		Size:    size,
	})
	converted := d.TmpPath != tmpPath
	if converted {
		defer os.Remove(d.TmpPath)
	}

	logger := slog.With(slog.String("name", d.Name), slog.String("content_type", d.Type))
	if err := s.output.Store(r.Context(), d.Name, d.TmpPath, d.Type); err != nil {
		logger.Error("fail to store upload", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, errors.New("fail to store upload"))
		return
	}
	logger.Info("stored upload", slog.Int64("size", d.Size), slog.Bool("converted", converted))

	writeJSON(w, http.StatusCreated, uploadResponse{
		Name:      d.Name,
		Type:      d.Type,
		Size:      d.Size,
		Location:  s.output.ID(d.Name),
		Converted: converted,
	})
}

func (s *Server) spool(src io.Reader) (string, int64, error) {
	tmp, err := os.CreateTemp(s.uploadDir, "upload-*")
	if err != nil {
		return "", 0, fmt.Errorf("fail to create temp file: %w", err)
	}

	n, err := io.Copy(tmp, src)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", 0, fmt.Errorf("fail to write temp file: %w", err)
	}

	return tmp.Name(), n, nil
}

func (s *Server) handleNotices(w http.ResponseWriter, r *http.Request) {
	notice, ok := activation.PopNotice(s.notices)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, notice)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"conversion_supported": s.prober.ConversionSupported()})
}

func uploadName(filename string) string {
	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) {
		return "upload"
	}
	return name
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Debug("fail to write response", slog.String("error", err.Error()))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
