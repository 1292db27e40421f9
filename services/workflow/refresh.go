package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"visaworkflow-backend/lib/posts"
	"visaworkflow-backend/lib/recordstore"
	"visaworkflow-backend/lib/visa"
	"visaworkflow-backend/lib/workflowdiff"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var ErrUnknownCountry = errors.New("no processing post known for country")

type Notifier interface {
	SendReport(ctx context.Context, subject string, report workflowdiff.Report) error
}

type Target struct {
	Country  string `json:"country"`
	VisaType string `json:"visa_type"`
}

type RefreshResult struct {
	Post        posts.ID
	VisaType    string
	SnapshotID  string
	IsDuplicate bool
	// IsFirst is set when no snapshot was stored before this refresh.
	IsFirst bool
	Report  workflowdiff.Report
}

// Refresher pulls records from upstream into the record store and reports
// how they changed since the last stored snapshot.
type Refresher struct {
	Directory posts.Directory
	Upstream  DataSource
	Store     recordstore.Store
	// Notifier may be nil.
	Notifier Notifier
	Source   string
}

func (r Refresher) Refresh(ctx context.Context, country, visaType string) (RefreshResult, error) {
	ctx, span := tracer.Start(ctx, "Refresh")
	defer span.End()

	visaType = visa.NormalizeVisaType(visaType)
	post, known := r.Directory.Lookup(country)
	if !known {
		err := fmt.Errorf("%w: %q", ErrUnknownCountry, country)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return RefreshResult{}, err
	}
	span.SetAttributes(
		attribute.String("post", string(post.ID)),
		attribute.String("visa_type", visaType),
	)

	record, err := r.Upstream.Lookup(ctx, post.ID, visaType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch upstream record")
		return RefreshResult{}, fmt.Errorf("fetch %s/%s: %w", post.ID, visaType, err)
	}

	var previous visa.Record
	isFirst := false
	latest, err := r.Store.Latest(ctx, post.ID, visaType)
	switch {
	case err == nil:
		previous = latest.Record
	case errors.Is(err, recordstore.ErrNotFound):
		isFirst = true
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read latest snapshot")
		return RefreshResult{}, err
	}

	report := workflowdiff.Diff(previous, record)
	put, err := r.Store.Put(ctx, recordstore.Snapshot{
		Post:      post.ID,
		VisaType:  visaType,
		Record:    record,
		Source:    r.Source,
		FetchedAt: time.Now(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store snapshot")
		return RefreshResult{}, err
	}

	result := RefreshResult{
		Post:        post.ID,
		VisaType:    visaType,
		SnapshotID:  put.ID,
		IsDuplicate: put.IsDuplicate,
		IsFirst:     isFirst,
		Report:      report,
	}
	span.SetAttributes(
		attribute.Bool("duplicate", put.IsDuplicate),
		attribute.Int("changes", report.TotalChanges()),
	)
	slog.InfoContext(
		ctx, "refreshed record",
		"post", post.ID,
		"visa_type", visaType,
		"snapshot", put.ID,
		"duplicate", put.IsDuplicate,
		"changes", report.TotalChanges(),
	)

	if r.Notifier != nil && !put.IsDuplicate && !report.IsEmpty() {
		subject := fmt.Sprintf("Visa workflow changed: %s / %s", post.Name, visaType)
		err = r.Notifier.SendReport(ctx, subject, report)
		if err != nil {
			slog.WarnContext(ctx, "failed to send change report", "post", post.ID, "visa_type", visaType, "err", err)
		}
	}

	return result, nil
}

// RunDaemon refreshes every target once per interval until ctx is done.
func (r Refresher) RunDaemon(ctx context.Context, interval time.Duration, targets []Target) {
	if len(targets) == 0 || interval <= 0 {
		return
	}

	refreshAll := func() {
		// serial, upstream pages are on the same few hosts
		for _, target := range targets {
			if ctx.Err() != nil {
				return
			}
			_, err := r.Refresh(ctx, target.Country, target.VisaType)
			if err != nil {
				slog.ErrorContext(ctx, "refresh target", "country", target.Country, "visa_type", target.VisaType, "err", err)
			}
		}
	}

	refreshAll()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refreshAll()
		}
	}
}
