package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Logger is the process-wide logger. It is usable before Init and writes JSON to stdout.
var Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

type ctxKey struct{}

// Fields attached to a request context and copied into every line logged with it.
type Fields struct {
	RequestID string
	TenantID  uint
	Actor     string
}

// Init configures the global logger for the given service.
func Init(serviceName string, pretty bool) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var output io.Writer = os.Stdout
	if pretty {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}

	Logger = zerolog.New(output).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()
	log.Logger = Logger
}

// SetLevel sets the global level; unknown names fall back to info.
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// IntoContext stores request fields on ctx.
func IntoContext(ctx context.Context, f Fields) context.Context {
	return context.WithValue(ctx, ctxKey{}, f)
}

// FieldsFrom returns the request fields stored on ctx, if any.
func FieldsFrom(ctx context.Context) (Fields, bool) {
	f, ok := ctx.Value(ctxKey{}).(Fields)
	return f, ok
}

// WithContext returns a logger carrying trace and request information from ctx.
func WithContext(ctx context.Context) *zerolog.Logger {
	lc := Logger.With()

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		lc = lc.
			Str("trace_id", span.SpanContext().TraceID().String()).
			Str("span_id", span.SpanContext().SpanID().String())
	}
	if f, ok := FieldsFrom(ctx); ok {
		if f.RequestID != "" {
			lc = lc.Str("request_id", f.RequestID)
		}
		if f.TenantID != 0 {
			lc = lc.Uint("tenant_id", f.TenantID)
		}
	}

	l := lc.Logger()
	return &l
}

func Info(ctx context.Context) *zerolog.Event  { return WithContext(ctx).Info() }
func Error(ctx context.Context) *zerolog.Event { return WithContext(ctx).Error() }
func Debug(ctx context.Context) *zerolog.Event { return WithContext(ctx).Debug() }
func Warn(ctx context.Context) *zerolog.Event  { return WithContext(ctx).Warn() }

// Audit writes the structured line recorded for every admin mutation.
func Audit(ctx context.Context, actor, action string, targets ...uint) {
	if targets == nil {
		targets = []uint{}
	}
	WithContext(ctx).Info().
		Str("actor", actor).
		Str("action", action).
		Uints("targets", targets).
		Msg("mutation")
}
