// Package logger wraps log/slog with a per-request logger carried in the
// request context.
//
//	log := logger.WithCtx(r.Context())
//	log.Info("order placed", "order_number", 1001)
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

var base = slog.Default()

// Init builds the process logger: JSON for production, text otherwise.
func Init(appEnv string) *slog.Logger {
	base = New(os.Stdout, appEnv)
	slog.SetDefault(base)
	return base
}

func New(w io.Writer, appEnv string) *slog.Logger {
	switch appEnv {
	case "production", "prod":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func L() *slog.Logger { return base }

type ctxKey struct{}

// WithCtx returns the logger stored by Inject, or the base logger.
func WithCtx(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return base
}

func Inject(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}
