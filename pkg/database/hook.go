package database

import (
	"context"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/utafrali/storefront/pkg/database"

// TracingHook is a redis.Hook that wraps every command and pipeline in a
// client span and warns about commands slower than the threshold.
// redis.Nil is a normal miss, not an error.
type TracingHook struct {
	tracer    trace.Tracer
	threshold time.Duration
	logger    *slog.Logger
}

var _ redis.Hook = (*TracingHook)(nil)

// NewTracingHook returns a hook. A zero threshold disables slow command logging.
func NewTracingHook(threshold time.Duration, logger *slog.Logger) *TracingHook {
	return &TracingHook{
		tracer:    otel.Tracer(tracerName),
		threshold: threshold,
		logger:    logger,
	}
}

func (h *TracingHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *TracingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		ctx, span := h.tracer.Start(ctx, "redis."+cmd.Name(),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("db.system", "redis"),
				attribute.String("db.operation", cmd.Name()),
			),
		)
		err := next(ctx, cmd)
		h.finish(ctx, span, cmd.Name(), start, err)
		return err
	}
}

func (h *TracingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		names := make([]string, 0, len(cmds))
		for _, c := range cmds {
			names = append(names, c.Name())
		}
		op := "pipeline " + strings.Join(names, " ")

		start := time.Now()
		ctx, span := h.tracer.Start(ctx, "redis.pipeline",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("db.system", "redis"),
				attribute.String("db.operation", op),
				attribute.Int("db.redis.num_cmd", len(cmds)),
			),
		)
		err := next(ctx, cmds)
		h.finish(ctx, span, op, start, err)
		return err
	}
}

func (h *TracingHook) finish(ctx context.Context, span trace.Span, op string, start time.Time, err error) {
	if err != nil && err != redis.Nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	if h.threshold <= 0 || h.logger == nil {
		return
	}
	if elapsed := time.Since(start); elapsed >= h.threshold {
		attrs := []any{
			slog.String("operation", op),
			slog.Duration("duration", elapsed),
		}
		if err != nil && err != redis.Nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		h.logger.WarnContext(ctx, "slow redis command", attrs...)
	}
}
