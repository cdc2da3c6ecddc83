package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SayaAndy/saya-today-webp-converter/config"
	"github.com/SayaAndy/saya-today-webp-converter/internal/activation"
	"github.com/SayaAndy/saya-today-webp-converter/internal/client/output"
	"github.com/SayaAndy/saya-today-webp-converter/internal/converter"
	"github.com/SayaAndy/saya-today-webp-converter/internal/library"
	"github.com/SayaAndy/saya-today-webp-converter/internal/probe"
	"github.com/SayaAndy/saya-today-webp-converter/internal/server"
	"github.com/SayaAndy/saya-today-webp-converter/internal/transient"
	"github.com/SayaAndy/saya-today-webp-converter/internal/upload"
)

var (
	configPath = flag.String("c", "config.json", "Path to the configuration file")
)

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func main() {
	flag.Parse()

	slog.Info("starting webp upload converter...")

	cfg, err := config.InitConfig(*configPath)
	if err != nil {
		panic(err)
	}
	slog.SetLogLoggerLevel(logLevels[cfg.LogLevel])

	lib := library.NewLibraryMap[cfg.Converter.Library](library.WithMaxPixels(cfg.Converter.MaxPixels))
	if shutdowner, ok := lib.(interface{ Shutdown() }); ok {
		defer shutdowner.Shutdown()
	}

	outputClient, err := output.NewOutputClient(&cfg.Output)
	if err != nil {
		panic(err)
	}

	capability := probe.NewCapabilityProbe(lib)
	notices := transient.NewMemoryStore()
	defer notices.Close()

	generalLogger := slog.With(
		slog.String("library", lib.Name()),
		slog.String("output_storage", cfg.Output.Storage.Type),
		slog.Int("quality", cfg.Converter.Quality),
	)

	if !activation.Activate(capability, notices, cfg.Notice.TTL()) {
		generalLogger.Warn("webp conversion is not available, uploads will be stored unchanged")
	}

	hook := upload.NewHook(converter.NewWebpConverter(capability, lib), cfg.Converter.Quality)
	srv := server.New(hook, outputClient, notices, capability, cfg.UploadDir, cfg.MaxUploadBytes)

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			generalLogger.Error("fail to shut down http server", slog.String("error", err.Error()))
		}
	}()

	generalLogger.Info("listening for uploads", slog.String("listen", cfg.Listen))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		generalLogger.Error("http server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
	generalLogger.Info("stopped")
}
