// Package server exposes text extraction over HTTP.
package server

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Config holds server settings.
type Config struct {
	Addr         string
	UploadDir    string
	Workers      int
	BodyLimit    string
	AllowOrigins []string
}

// DefaultConfig returns settings matching the upload API defaults, with PORT and
// FILETEXT_UPLOAD_DIR taken from the environment when set.
func DefaultConfig() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "5001"
	}
	dir := os.Getenv("FILETEXT_UPLOAD_DIR")
	if dir == "" {
		dir = "uploads"
	}
	return Config{
		Addr:         ":" + port,
		UploadDir:    dir,
		Workers:      4,
		BodyLimit:    "50M",
		AllowOrigins: []string{"*"},
	}
}

// New builds the echo instance with routes and middleware.
func New(cfg Config, log *zap.Logger) (*echo.Echo, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	h := NewHandler(cfg.UploadDir, cfg.Workers, log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				log.Warn("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			log.Info("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	e.GET("/health", h.HandleHealth)
	e.POST("/upload", h.HandleUpload)

	return e, nil
}

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 10 * time.Second
