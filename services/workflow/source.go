package workflow

import (
	"context"
	"log/slog"
	"visaworkflow-backend/lib/posts"
	"visaworkflow-backend/lib/visa"

	"go.opentelemetry.io/otel/attribute"
)

// DataSource retrieves the record a processing post publishes for a visa
// type. like visa.Provider, a missing record is an empty Record and a nil
// error.
type DataSource interface {
	Lookup(ctx context.Context, post posts.ID, visaType string) (visa.Record, error)
}

// Resolver identifies the processing post of a country and retrieves its
// record from Source.
type Resolver struct {
	Directory posts.Directory
	Source    DataSource
}

func NewResolver(directory posts.Directory, source DataSource) Resolver {
	return Resolver{Directory: directory, Source: source}
}

func (r Resolver) Resolve(ctx context.Context, country, visaType string) (visa.Record, error) {
	ctx, span := tracer.Start(ctx, "Resolve")
	defer span.End()

	visaType = visa.NormalizeVisaType(visaType)

	post, known := r.Directory.Lookup(country)
	span.SetAttributes(
		attribute.String("country", country),
		attribute.String("visa_type", visaType),
		attribute.String("post", string(post.ID)),
		attribute.Bool("known_country", known),
	)
	if !known {
		suggestion, similarity := r.Directory.Suggest(country)
		slog.WarnContext(
			ctx, "no processing post known for country, using default post",
			"country", country,
			"post", post.ID,
			"did_you_mean", suggestion,
			"similarity", similarity,
		)
	}
	slog.DebugContext(ctx, "identified processing post", "country", country, "post", post.ID)

	record, err := r.Source.Lookup(ctx, post.ID, visaType)
	if err != nil {
		span.RecordError(err)
		return visa.Record{}, err
	}
	slog.DebugContext(
		ctx, "retrieved record",
		"post", post.ID,
		"visa_type", visaType,
		"categories", record.Len(),
	)
	return record, nil
}

// StaticSource serves records from memory, keyed by post then visa type.
type StaticSource struct {
	records map[posts.ID]map[string]visa.Record
}

func NewStaticSource(records map[posts.ID]map[string]visa.Record) StaticSource {
	s := StaticSource{records: make(map[posts.ID]map[string]visa.Record, len(records))}
	for post, byVisa := range records {
		copied := make(map[string]visa.Record, len(byVisa))
		for visaType, record := range byVisa {
			copied[visa.NormalizeVisaType(visaType)] = record
		}
		s.records[post] = copied
	}
	return s
}

func (s StaticSource) Lookup(ctx context.Context, post posts.ID, visaType string) (visa.Record, error) {
	return s.records[post][visa.NormalizeVisaType(visaType)], nil
}
