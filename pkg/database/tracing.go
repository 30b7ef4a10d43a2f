package database

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/flexfit/storefront/pkg/database"

// QueryTracer starts spans around repository queries and logs the ones slower
// than SlowThreshold. The zero value traces without slow-query logging.
type QueryTracer struct {
	SlowThreshold time.Duration
	Logger        *slog.Logger
}

// Trace starts a span for a database operation. Call the returned function
// with the operation's error when it completes:
//
//	ctx, end := tracer.Trace(ctx, "GetByID", query)
//	defer func() { end(err) }()
func (t QueryTracer) Trace(ctx context.Context, operation, statement string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "db."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", operation),
			attribute.String("db.statement", statement),
		),
	)

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		if t.SlowThreshold <= 0 || t.Logger == nil {
			return
		}
		if elapsed := time.Since(start); elapsed >= t.SlowThreshold {
			attrs := []any{
				slog.String("operation", operation),
				slog.Duration("duration", elapsed),
			}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
			}
			t.Logger.WarnContext(ctx, "slow query detected", attrs...)
		}
	}
}
