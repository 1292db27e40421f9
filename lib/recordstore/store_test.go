package recordstore

import (
	"context"
	"testing"
	"time"
	"visaworkflow-backend/lib/recordstore/db"
	"visaworkflow-backend/lib/testutil"
	"visaworkflow-backend/lib/visa"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (Store, func()) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "lib/recordstore",
		DbSchema: db.Schema,
	})
	return NewStore(setup.DB), cleanup
}

func record(steps ...string) visa.Record {
	return visa.NewRecord(map[visa.CategoryKey]visa.Content{
		visa.Steps: visa.TextContent(steps...),
		visa.Doctors: visa.EntryContent(visa.Entry{
			Name:    "Clinic",
			Address: "Street 1",
		}),
	})
}

func TestStore(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	_, err := store.Latest(ctx, "barcelona", "IR-1")
	require.ErrorIs(t, err, ErrNotFound)

	start := time.Unix(1_700_000_000, 0)

	first, err := store.Put(ctx, Snapshot{
		Post:      "barcelona",
		VisaType:  "IR-1",
		Record:    record("1. File: petition."),
		Source:    "embassy",
		FetchedAt: start,
	})
	require.NoError(t, err)
	require.False(t, first.IsDuplicate)
	require.NotEmpty(t, first.ID)

	dup, err := store.Put(ctx, Snapshot{
		Post:      "barcelona",
		VisaType:  "IR-1",
		Record:    record("1. File: petition."),
		Source:    "embassy",
		FetchedAt: start.Add(time.Hour),
	})
	require.NoError(t, err)
	require.True(t, dup.IsDuplicate)
	require.Equal(t, first.ID, dup.ID)

	touched, err := store.Latest(ctx, "barcelona", "IR-1")
	require.NoError(t, err)
	require.Equal(t, start.Unix(), touched.FetchedAt.Unix())
	require.Equal(t, start.Add(time.Hour).Unix(), touched.CheckedAt.Unix())

	second, err := store.Put(ctx, Snapshot{
		Post:      "barcelona",
		VisaType:  "IR-1",
		Record:    record("1. File: petition.", "2. Pay: fees."),
		Source:    "embassy",
		FetchedAt: start.Add(2 * time.Hour),
	})
	require.NoError(t, err)
	require.False(t, second.IsDuplicate)
	require.NotEqual(t, first.ID, second.ID)

	_, err = store.Put(ctx, Snapshot{
		Post:      "madrid",
		VisaType:  "IR-1",
		Record:    record("1. File: petition."),
		Source:    "file",
		FetchedAt: start,
	})
	require.NoError(t, err)

	latest, err := store.Latest(ctx, "barcelona", "IR-1")
	require.NoError(t, err)
	require.Equal(t, second.ID, latest.ID)
	require.True(t, latest.Record.Equal(record("1. File: petition.", "2. Pay: fees.")))
	require.Equal(t, start.Add(2*time.Hour).Unix(), latest.FetchedAt.Unix())

	hash, err := Hash(latest.Record)
	require.NoError(t, err)
	require.Equal(t, hash, latest.Hash)

	history, err := store.History(ctx, "barcelona", "IR-1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, second.ID, history[0].ID)
	require.Equal(t, first.ID, history[1].ID)

	history, err = store.History(ctx, "barcelona", "IR-1", 1)
	require.NoError(t, err)
	require.Len(t, history, 1)

	targets, err := store.Targets(ctx)
	require.NoError(t, err)
	require.Len(t, targets, 2)
	require.EqualValues(t, "barcelona", targets[0].Post)
	require.Equal(t, 2, targets[0].Snapshots)
	require.EqualValues(t, "madrid", targets[1].Post)
}

func TestPutEmptyRecord(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	res, err := store.Put(ctx, Snapshot{Post: "lisbon", VisaType: "K-1"})
	require.NoError(t, err)
	require.False(t, res.IsDuplicate)

	latest, err := store.Latest(ctx, "lisbon", "K-1")
	require.NoError(t, err)
	require.True(t, latest.Record.IsEmpty())
}

func TestVisaTypeIsTrimmed(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	first, err := store.Put(ctx, Snapshot{
		Post:      "barcelona",
		VisaType:  "IR-1 ",
		Record:    record("1. Interview"),
		FetchedAt: time.Unix(100, 0),
	})
	require.NoError(t, err)

	latest, err := store.Latest(ctx, "barcelona", " IR-1")
	require.NoError(t, err)
	require.Equal(t, first.ID, latest.ID)
	require.Equal(t, "IR-1", latest.VisaType)

	second, err := store.Put(ctx, Snapshot{
		Post:      "barcelona",
		VisaType:  "IR-1",
		Record:    record("1. Interview"),
		FetchedAt: time.Unix(200, 0),
	})
	require.NoError(t, err)
	require.True(t, second.IsDuplicate)

	history, err := store.History(ctx, "barcelona", "IR-1", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
}
