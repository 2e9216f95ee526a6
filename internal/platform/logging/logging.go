package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"fitbusiness/internal/requestctx"
)

type Options struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Setup installs the default slog logger. When File is set, output is also
// written to a size-rotated file. The returned closer releases the file.
func Setup(opts Options) (io.Closer, error) {
	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, err
		}
		rotate := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotate)
		closer = rotate
	}
	slog.SetDefault(slog.New(NewHandler(out, opts.Level, opts.Format)))
	return closer, nil
}

func NewHandler(w io.Writer, level, format string) slog.Handler {
	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, handlerOpts)
	}
	return slog.NewTextHandler(w, handlerOpts)
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FromContext returns the default logger tagged with the request ID and the
// acting user, when present.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if id := requestctx.GetRequestID(ctx); id != "" {
		logger = logger.With("requestId", id)
	}
	if actor, ok := requestctx.GetActor(ctx); ok {
		logger = logger.With("userId", actor.UserID)
		if actor.CompanyID != "" {
			logger = logger.With("companyId", actor.CompanyID)
		}
	}
	return logger
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
