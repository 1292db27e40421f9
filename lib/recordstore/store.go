package recordstore

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"visaworkflow-backend/lib/posts"
	"visaworkflow-backend/lib/recordstore/db"
	"visaworkflow-backend/lib/telemetry"
	"visaworkflow-backend/lib/visa"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("visaworkflow.lib.recordstore")

var ErrNotFound = errors.New("no snapshot stored")

type Snapshot struct {
	ID        string
	Post      posts.ID
	VisaType  string
	Record    visa.Record
	Hash      string
	Source    string
	FetchedAt time.Time
	// CheckedAt is the last time upstream served this content, it is
	// only ever later than FetchedAt.
	CheckedAt time.Time
}

type PutResult struct {
	ID          string
	IsDuplicate bool
}

type Target struct {
	Post          posts.ID
	VisaType      string
	Snapshots     int
	LastFetchedAt time.Time
}

type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

// Hash is the hex SHA-256 of the record's canonical JSON form.
func Hash(record visa.Record) (string, error) {
	_, hash, err := encode(record)
	return hash, err
}

func encode(record visa.Record) ([]byte, string, error) {
	serialized, err := json.Marshal(record)
	if err != nil {
		return nil, "", err
	}
	sum := sha256.Sum256(serialized)
	return serialized, hex.EncodeToString(sum[:]), nil
}

// Put stores a snapshot unless its content is identical to the latest
// snapshot of the same post and visa type, in which case only the check
// time of that snapshot is moved forward and its id is returned.
func (s Store) Put(ctx context.Context, snapshot Snapshot) (PutResult, error) {
	ctx, span := tracer.Start(ctx, "Put")
	defer span.End()

	snapshot.VisaType = visa.NormalizeVisaType(snapshot.VisaType)
	span.SetAttributes(
		attribute.String("post", string(snapshot.Post)),
		attribute.String("visa_type", snapshot.VisaType),
	)

	serialized, hash, err := encode(snapshot.Record)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return PutResult{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return PutResult{}, err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	latest, err := txqry.GetLatestSnapshot(ctx, db.GetLatestSnapshotParams{
		Post:     string(snapshot.Post),
		VisaType: snapshot.VisaType,
	})
	fetchedAt := snapshot.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	switch {
	case err == nil:
		if latest.ContentHash == hash {
			span.SetAttributes(attribute.Bool("duplicate", true))
			if fetchedAt.Unix() > latest.CheckedAt {
				err = txqry.TouchSnapshot(ctx, db.TouchSnapshotParams{
					CheckedAt: fetchedAt.Unix(),
					ID:        latest.ID,
				})
				if err != nil {
					span.RecordError(err)
					span.SetStatus(codes.Error, err.Error())
					return PutResult{}, err
				}
				err = tx.Commit()
				if err != nil {
					span.RecordError(err)
					span.SetStatus(codes.Error, err.Error())
					return PutResult{}, err
				}
			}
			return PutResult{ID: latest.ID, IsDuplicate: true}, nil
		}
	case errors.Is(err, sql.ErrNoRows):
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return PutResult{}, err
	}

	id := snapshot.ID
	if id == "" {
		id = uuid.NewString()
	}

	err = txqry.CreateSnapshot(ctx, db.CreateSnapshotParams{
		ID:          id,
		Post:        string(snapshot.Post),
		VisaType:    snapshot.VisaType,
		ContentHash: hash,
		ContentJson: string(serialized),
		Source:      snapshot.Source,
		FetchedAt:   fetchedAt.Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return PutResult{}, err
	}
	err = tx.Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return PutResult{}, err
	}

	return PutResult{ID: id}, nil
}

func fromRow(row db.RecordSnapshot) (Snapshot, error) {
	var record visa.Record
	err := json.Unmarshal([]byte(row.ContentJson), &record)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot %s: %w", row.ID, err)
	}
	return Snapshot{
		ID:        row.ID,
		Post:      posts.ID(row.Post),
		VisaType:  row.VisaType,
		Record:    record,
		Hash:      row.ContentHash,
		Source:    row.Source,
		FetchedAt: time.Unix(row.FetchedAt, 0),
		CheckedAt: time.Unix(row.CheckedAt, 0),
	}, nil
}

func (s Store) Latest(ctx context.Context, post posts.ID, visaType string) (Snapshot, error) {
	ctx, span := tracer.Start(ctx, "Latest")
	defer span.End()

	visaType = visa.NormalizeVisaType(visaType)

	row, err := s.qry.GetLatestSnapshot(ctx, db.GetLatestSnapshotParams{
		Post:     string(post),
		VisaType: visaType,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Snapshot{}, err
	}
	return fromRow(row)
}

// History lists up to limit snapshots, newest first. a limit <= 0 lists
// every snapshot.
func (s Store) History(ctx context.Context, post posts.ID, visaType string, limit int) ([]Snapshot, error) {
	ctx, span := tracer.Start(ctx, "History")
	defer span.End()

	visaType = visa.NormalizeVisaType(visaType)

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.qry.ListSnapshots(ctx, db.ListSnapshotsParams{
		Post:     string(post),
		VisaType: visaType,
		Limit:    int64(limit),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	snapshots := make([]Snapshot, 0, len(rows))
	for _, r := range rows {
		snapshot, err := fromRow(r)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}

// Targets lists every post and visa type with at least one snapshot.
func (s Store) Targets(ctx context.Context) ([]Target, error) {
	rows, err := s.qry.ListTargets(ctx)
	if err != nil {
		return nil, err
	}
	targets := make([]Target, len(rows))
	for i, r := range rows {
		targets[i] = Target{
			Post:          posts.ID(r.Post),
			VisaType:      r.VisaType,
			Snapshots:     int(r.Snapshots),
			LastFetchedAt: time.Unix(r.LastFetchedAt, 0),
		}
	}
	return targets, nil
}
