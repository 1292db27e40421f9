package workflow

import (
	"context"
	"log/slog"
	"visaworkflow-backend/lib/visa"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type Query struct {
	Country    string
	VisaType   string
	Categories []visa.CategoryKey
}

// Agent runs the workflow pipeline: it identifies the processing post,
// retrieves its record and projects it onto the requested categories.
// it holds no mutable state and is safe for concurrent use.
type Agent struct {
	provider   visa.Provider
	executions metric.Int64Counter
}

func NewAgent(provider visa.Provider) Agent {
	executions, err := meter.Int64Counter(
		"workflow.executions",
		metric.WithDescription("number of workflow pipeline executions"),
	)
	if err != nil {
		slog.Warn("failed to create executions counter", "err", err)
		executions = noop.Int64Counter{}
	}
	return Agent{
		provider:   provider,
		executions: executions,
	}
}

func (a Agent) Execute(ctx context.Context, query Query) (visa.Result, error) {
	ctx, span := tracer.Start(ctx, "Execute")
	defer span.End()

	span.SetAttributes(
		attribute.String("country", query.Country),
		attribute.String("visa_type", query.VisaType),
		attribute.Int("requested", len(query.Categories)),
	)
	slog.DebugContext(
		ctx, "executing workflow",
		"country", query.Country,
		"visa_type", query.VisaType,
		"categories", query.Categories,
	)

	record, err := a.provider.Resolve(ctx, query.Country, query.VisaType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to resolve record")
		a.executions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "error")))
		return visa.Result{}, err
	}

	result := visa.Filter(record, query.Categories)
	slog.DebugContext(ctx, "filtered record", "returned", result.Categories())

	outcome := "found"
	if result.IsEmpty() {
		outcome = "empty"
	}
	a.executions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	span.SetAttributes(attribute.Int("returned", result.Len()))

	return result, nil
}
