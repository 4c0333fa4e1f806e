// File: internal/infra/logging/logging.go
package logging

import (
	"context"
	"os"
	"strings"
	"time"

	"whatsapp-ai-assistant/internal/config"

	"github.com/rs/zerolog"
)

// Past this many entries the sampler keeps one in the same amount.
const sampleEvery = 100

// New builds the process logger from cfg. An unparseable level falls
// back to info rather than failing startup; dev mode forces the console
// writer regardless of cfg.Format so local runs stay readable.
func New(cfg config.LogConfig, dev bool) *zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var base zerolog.Logger
	if strings.ToLower(cfg.Format) == "console" || dev {
		out := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		base = zerolog.New(out).With().Timestamp().Logger()
	} else {
		base = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	if cfg.Sampling && !dev {
		sampled := base.Sample(&zerolog.BasicSampler{N: sampleEvery})
		return &sampled
	}
	return &base
}

type ctxKey string

const (
	ctxTraceID ctxKey = "trace_id"
	ctxUserID  ctxKey = "user_id"
	ctxConvID  ctxKey = "conversation_id"
)

// With attaches common context fields such as trace_id, user_id and
// conversation_id when they are present on the context.
func With(ctx context.Context, base *zerolog.Logger) *zerolog.Logger {
	l := base.With()
	if v := ctx.Value(ctxTraceID); v != nil {
		l = l.Str("trace_id", v.(string))
	}
	if v := ctx.Value(ctxUserID); v != nil {
		l = l.Str("user_id", v.(string))
	}
	if v := ctx.Value(ctxConvID); v != nil {
		l = l.Str("conversation_id", v.(string))
	}
	logger := l.Logger()
	return &logger
}

// TraceDuration emits paired enter/exit events at TRACE level so slow
// turns show up without a profiler attached.
// Usage: defer logging.TraceDuration(logger, "ChatUC.ProcessMessage")()
func TraceDuration(logger *zerolog.Logger, name string) func() {
	start := time.Now()
	logger.Trace().Str("op", name).Msg("enter")
	return func() {
		logger.Trace().Str("op", name).Dur("took", time.Since(start)).Msg("done")
	}
}

// Redact masks the middle of a phone number. User ids here are patient
// phone numbers and must not appear whole in log output.
func Redact(s string) string {
	if len(s) <= 6 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-2:]
}

// Setters for the request-scoped IDs that With reads back.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxTraceID, id)
}
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxUserID, id)
}
func WithConversationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxConvID, id)
}
