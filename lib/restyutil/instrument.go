package restyutil

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/semconv/v1.13.0/httpconv"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentOutput receives a plain text dump of every exchanged message.
type InstrumentOutput interface {
	Write(id string, contents string)
}

type instrumenter struct {
	output  InstrumentOutput
	tracer  trace.Tracer
	counter *atomic.Uint64
}

type messageIdKey struct{}

// InstrumentClient traces every request made by client. a nil tracer falls
// back to the global "resty" tracer. with a nil output messages are only
// traced and logged, otherwise they are also dumped while debug logging is on.
func InstrumentClient(client *resty.Client, tracer trace.Tracer, output InstrumentOutput) {
	if tracer == nil {
		tracer = otel.Tracer("resty")
	}
	i := instrumenter{
		output:  output,
		tracer:  tracer,
		counter: &atomic.Uint64{},
	}
	client.OnBeforeRequest(i.before)
	client.OnAfterResponse(i.after)
	client.OnError(i.failed)
}

func (i instrumenter) before(_ *resty.Client, req *resty.Request) error {
	ctx, _ := i.tracer.Start(req.Context(), "http "+req.Method)

	if i.output != nil && slog.Default().Enabled(ctx, slog.LevelDebug) {
		id := strconv.FormatUint(i.counter.Add(1), 10)
		ctx = context.WithValue(ctx, messageIdKey{}, id)
	}
	slog.DebugContext(ctx, "start request", requestAttrs(ctx, req)...)

	req.SetContext(ctx)
	return nil
}

func (i instrumenter) after(_ *resty.Client, res *resty.Response) error {
	ctx := res.Request.Context()
	span := trace.SpanFromContext(ctx)
	defer span.End()

	// RawRequest is only populated once the request has been sent
	if res.Request.RawRequest != nil {
		span.SetAttributes(httpconv.ClientRequest(res.Request.RawRequest)...)
	}
	if res.RawResponse != nil {
		span.SetAttributes(httpconv.ClientResponse(res.RawResponse)...)
	}
	span.SetAttributes(
		attribute.Int("http.attempt", res.Request.Attempt),
		attribute.Int64("http.response_size", res.Size()),
	)
	if res.StatusCode() >= http.StatusBadRequest {
		span.SetStatus(codes.Error, res.Status())
	}

	if id, ok := ctx.Value(messageIdKey{}).(string); ok {
		i.output.Write(id, formatHttpMessage(res))
	}
	slog.DebugContext(
		ctx, "request finished",
		append(requestAttrs(ctx, res.Request), "status", res.StatusCode())...,
	)
	return nil
}

func (i instrumenter) failed(req *resty.Request, err error) {
	ctx := req.Context()
	span := trace.SpanFromContext(ctx)
	defer span.End()

	if req.RawRequest != nil {
		span.SetAttributes(httpconv.ClientRequest(req.RawRequest)...)
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "request failed")

	slog.ErrorContext(ctx, "request failed", append(requestAttrs(ctx, req), "err", err)...)
}

func requestAttrs(ctx context.Context, req *resty.Request) []any {
	attrs := []any{"method", req.Method, "url", req.URL}
	if id, ok := ctx.Value(messageIdKey{}).(string); ok {
		attrs = append(attrs, "message_id", id)
	}
	return attrs
}
