package workflow

import (
	"context"
	"sync"
	"visaworkflow-backend/lib/posts"
	"visaworkflow-backend/lib/visa"
	"visaworkflow-backend/lib/workflowdiff"
)

// fakeUpstream serves a swappable record and counts lookups.
type fakeUpstream struct {
	mu      sync.Mutex
	record  visa.Record
	err     error
	lookups int
}

func (f *fakeUpstream) set(record visa.Record, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record = record
	f.err = err
}

func (f *fakeUpstream) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups
}

func (f *fakeUpstream) Lookup(ctx context.Context, post posts.ID, visaType string) (visa.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	return f.record, f.err
}

type sentReport struct {
	subject string
	report  workflowdiff.Report
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentReport
}

func (f *fakeNotifier) SendReport(ctx context.Context, subject string, report workflowdiff.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentReport{subject: subject, report: report})
	return nil
}

func (f *fakeNotifier) reports() []sentReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentReport, len(f.sent))
	copy(out, f.sent)
	return out
}

func stepsRecord(lines ...string) visa.Record {
	return visa.NewRecord(map[visa.CategoryKey]visa.Content{
		visa.Steps: visa.TextContent(lines...),
	})
}
