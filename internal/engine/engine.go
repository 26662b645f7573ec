package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pgdapi/internal/engine/auth"
	"pgdapi/internal/logging"
	"pgdapi/internal/metrics"
	"pgdapi/internal/repo"
	"pgdapi/internal/rules"
)

const (
	planWork     = "work_plan"
	planDelivery = "delivery_plan"
)

var (
	ErrWorkPlanNotFound     = fmt.Errorf("work plan %w", repo.ErrNotFound)
	ErrDeliveryPlanNotFound = fmt.Errorf("delivery plan %w", repo.ErrNotFound)
)

// Outcome tells a create from a replace.
type Outcome int

const (
	Created Outcome = iota + 1
	Updated
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return "unknown"
	}
}

// Engine validates plan submissions and writes them through a Store.
type Engine struct {
	Store Store
	Now   func() time.Time

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.Now = now
	}
}

func New(store Store, opts ...Option) Engine {
	e := Engine{
		Store:  store,
		Now:    time.Now,
		logger: logging.Discard(),
		tracer: otel.Tracer("pgdapi/engine"),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

func (e Engine) log() *slog.Logger {
	if e.logger == nil {
		return logging.Discard()
	}
	return e.logger
}

func (e Engine) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := e.tracer
	if tracer == nil {
		tracer = otel.Tracer("pgdapi/engine")
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// rejectionKind returns the rule kind behind a validation failure, or false
// when err is not a rejection of the payload.
func rejectionKind(err error) (rules.Kind, bool) {
	var violations rules.Violations
	if errors.As(err, &violations) && len(violations) > 0 {
		return violations[0].Kind, true
	}
	var ruleErr *rules.RuleError
	if errors.As(err, &ruleErr) {
		return ruleErr.Kind, true
	}
	return "", false
}

// finishUpsert records the result of an upsert on the span, the metrics and
// the log.
func (e Engine) finishUpsert(ctx context.Context, span trace.Span, plan, key string, start time.Time, outcome Outcome, err error) {
	defer span.End()
	e.metrics.ObserveUpsertLatency(plan, time.Since(start))
	if err == nil {
		span.SetAttributes(attribute.String("outcome", outcome.String()))
		e.metrics.IncrementOutcome(plan, outcome.String())
		e.log().InfoContext(ctx, plan+" "+outcome.String(), "key", key)
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if kind, ok := rejectionKind(err); ok {
		e.metrics.IncrementOutcome(plan, "rejected")
		e.metrics.IncrementValidationFailure(plan, string(kind))
		e.log().DebugContext(ctx, plan+" rejected", "key", key, "kind", kind, "error", err)
		return
	}
	var forbidden auth.ForbiddenError
	if errors.As(err, &forbidden) {
		e.metrics.IncrementOutcome(plan, "rejected")
		e.log().DebugContext(ctx, plan+" forbidden", "key", key, "error", err)
		return
	}
	e.metrics.IncrementOutcome(plan, "failed")
	e.log().ErrorContext(ctx, plan+" upsert failed", "key", key, "error", err)
}
