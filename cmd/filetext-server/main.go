package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/metcalfc/filetext/internal/extract"
	"github.com/metcalfc/filetext/internal/server"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cfg := server.DefaultConfig()

	addr := flag.String("addr", cfg.Addr, "Listen address (default from PORT)")
	uploadDir := flag.String("upload-dir", cfg.UploadDir, "Directory for uploads awaiting extraction")
	workers := flag.Int("workers", cfg.Workers, "Files extracted concurrently per request")
	bodyLimit := flag.String("body-limit", cfg.BodyLimit, "Maximum request body size")
	origins := flag.String("origins", strings.Join(cfg.AllowOrigins, ","), "Comma-separated CORS origins")
	debug := flag.Bool("debug", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("filetext-server %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	logCfg := zap.NewProductionConfig()
	if *debug {
		logCfg = zap.NewDevelopmentConfig()
		logCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := logCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	extract.SetLogger(logger.Named("extract"))

	cfg.Addr = *addr
	cfg.UploadDir = *uploadDir
	cfg.Workers = *workers
	cfg.BodyLimit = *bodyLimit
	cfg.AllowOrigins = splitList(*origins)

	e, err := server.New(cfg, logger.Named("http"))
	if err != nil {
		logger.Fatal("failed to build server", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server is running",
			zap.String("addr", cfg.Addr),
			zap.String("upload_dir", cfg.UploadDir),
			zap.Strings("formats", extract.SupportedFormats()))
		if err := e.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
