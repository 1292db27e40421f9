package workflow

import (
	"context"
	"errors"
	"testing"
	"time"
	"visaworkflow-backend/lib/posts"
	"visaworkflow-backend/lib/recordstore"
	"visaworkflow-backend/lib/recordstore/db"
	"visaworkflow-backend/lib/testutil"
	"visaworkflow-backend/lib/visa"

	"github.com/stretchr/testify/require"
)

func newTestRefresher(t *testing.T) (Refresher, *fakeUpstream, *fakeNotifier, func()) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/workflow",
		DbSchema: db.Schema,
	})
	upstream := &fakeUpstream{}
	notifier := &fakeNotifier{}
	return Refresher{
		Directory: posts.DefaultDirectory(),
		Upstream:  upstream,
		Store:     recordstore.NewStore(setup.DB),
		Notifier:  notifier,
		Source:    "embassy",
	}, upstream, notifier, cleanup
}

func TestRefresh(t *testing.T) {
	refresher, upstream, notifier, cleanup := newTestRefresher(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	upstream.set(stepsRecord("1. File Petition: I-130.", "2. Pay Fees: online."), nil)
	res, err := refresher.Refresh(ctx, "Andorra", "IR-1")
	require.NoError(t, err)
	require.True(t, res.IsFirst)
	require.False(t, res.IsDuplicate)
	require.EqualValues(t, "barcelona", res.Post)
	require.Equal(t, 2, res.Report.TotalChanges())
	require.Len(t, notifier.reports(), 1)
	require.Contains(t, notifier.reports()[0].subject, "U.S. Consulate General Barcelona")

	res, err = refresher.Refresh(ctx, "Andorra", "IR-1")
	require.NoError(t, err)
	require.False(t, res.IsFirst)
	require.True(t, res.IsDuplicate)
	require.True(t, res.Report.IsEmpty())
	require.Len(t, notifier.reports(), 1)

	upstream.set(stepsRecord("1. File Petition: I-130.", "2. Pay Fees: by wire."), nil)
	res, err = refresher.Refresh(ctx, "andorra", "IR-1")
	require.NoError(t, err)
	require.False(t, res.IsDuplicate)
	require.Equal(t, 1, res.Report.TotalChanges())
	require.Len(t, res.Report.Categories, 1)
	require.Equal(t, visa.Steps, res.Report.Categories[0].Category)
	require.Len(t, notifier.reports(), 2)

	history, err := refresher.Store.History(ctx, "barcelona", "IR-1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, res.SnapshotID, history[0].ID)
	require.Equal(t, "embassy", history[0].Source)
}

func TestRefreshErrors(t *testing.T) {
	refresher, upstream, notifier, cleanup := newTestRefresher(t)
	defer cleanup()
	ctx := context.Background()

	_, err := refresher.Refresh(ctx, "Atlantis", "IR-1")
	require.ErrorIs(t, err, ErrUnknownCountry)

	failure := errors.New("503")
	upstream.set(visa.Record{}, failure)
	_, err = refresher.Refresh(ctx, "Andorra", "IR-1")
	require.ErrorIs(t, err, failure)

	_, err = refresher.Store.Latest(ctx, "barcelona", "IR-1")
	require.ErrorIs(t, err, recordstore.ErrNotFound)
	require.Empty(t, notifier.reports())
}

func TestRunDaemon(t *testing.T) {
	refresher, upstream, _, cleanup := newTestRefresher(t)
	defer cleanup()

	upstream.set(stepsRecord("1. Interview"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		refresher.RunDaemon(ctx, 10*time.Millisecond, []Target{
			{Country: "Andorra", VisaType: "IR-1"},
			{Country: "Portugal", VisaType: "IR-1"},
		})
		close(done)
	}()

	require.Eventually(t, func() bool {
		return upstream.calls() >= 4
	}, 5*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop after cancellation")
	}

	targets, err := refresher.Store.Targets(context.Background())
	require.NoError(t, err)
	require.Len(t, targets, 2)
	require.EqualValues(t, "barcelona", targets[0].Post)
	require.EqualValues(t, "lisbon", targets[1].Post)
	require.Equal(t, 1, targets[0].Snapshots)
}

func TestRefreshTrimsVisaType(t *testing.T) {
	refresher, _, _, cleanup := newTestRefresher(t)
	defer cleanup()
	ctx := context.Background()

	refresher.Upstream = MockSource()
	res, err := refresher.Refresh(ctx, "Andorra", " IR-1 ")
	require.NoError(t, err)
	require.Equal(t, "IR-1", res.VisaType)
	require.False(t, res.Report.IsEmpty())

	latest, err := refresher.Store.Latest(ctx, "barcelona", "IR-1")
	require.NoError(t, err)
	require.Equal(t, res.SnapshotID, latest.ID)
	require.Equal(t, 5, latest.Record.Len())

	// the padded and plain forms address the same snapshot history
	res, err = refresher.Refresh(ctx, "Andorra", "IR-1")
	require.NoError(t, err)
	require.True(t, res.IsDuplicate)

	targets, err := refresher.Store.Targets(ctx)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	require.Equal(t, "IR-1", targets[0].VisaType)
}
