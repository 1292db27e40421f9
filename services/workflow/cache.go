package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"
	"visaworkflow-backend/lib/posts"
	"visaworkflow-backend/lib/recordstore"
	"visaworkflow-backend/lib/visa"

	"go.opentelemetry.io/otel/attribute"
)

// CachedSource serves records from the record store while they are younger
// than TTL and reads through to Upstream otherwise. when upstream fails a
// stale snapshot is served instead of the error.
type CachedSource struct {
	Upstream DataSource
	Store    recordstore.Store
	TTL      time.Duration
	// Source labels the snapshots written by this cache.
	Source string

	now func() time.Time
}

func NewCachedSource(upstream DataSource, store recordstore.Store, ttl time.Duration, source string) CachedSource {
	return CachedSource{
		Upstream: upstream,
		Store:    store,
		TTL:      ttl,
		Source:   source,
		now:      time.Now,
	}
}

func (c CachedSource) currentTime() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}

func (c CachedSource) Lookup(ctx context.Context, post posts.ID, visaType string) (visa.Record, error) {
	ctx, span := tracer.Start(ctx, "CachedSource.Lookup")
	defer span.End()

	visaType = visa.NormalizeVisaType(visaType)

	cached, err := c.Store.Latest(ctx, post, visaType)
	hasCached := err == nil
	if err != nil && !errors.Is(err, recordstore.ErrNotFound) {
		slog.WarnContext(ctx, "failed to read cached record", "post", post, "visa_type", visaType, "err", err)
	}
	if hasCached && c.currentTime().Sub(cached.CheckedAt) < c.TTL {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return cached.Record, nil
	}
	span.SetAttributes(attribute.Bool("cache_hit", false))

	record, err := c.Upstream.Lookup(ctx, post, visaType)
	if err != nil {
		if hasCached {
			slog.WarnContext(
				ctx, "upstream lookup failed, serving stale record",
				"post", post,
				"visa_type", visaType,
				"fetched_at", cached.FetchedAt,
				"err", err,
			)
			return cached.Record, nil
		}
		span.RecordError(err)
		return visa.Record{}, err
	}

	_, err = c.Store.Put(ctx, recordstore.Snapshot{
		Post:      post,
		VisaType:  visaType,
		Record:    record,
		Source:    c.Source,
		FetchedAt: c.currentTime(),
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to cache record", "post", post, "visa_type", visaType, "err", err)
	}
	return record, nil
}
