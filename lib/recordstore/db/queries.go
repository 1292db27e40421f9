package db

import (
	"context"
)

type RecordSnapshot struct {
	ID          string
	Post        string
	VisaType    string
	ContentHash string
	ContentJson string
	Source      string
	FetchedAt   int64
	CheckedAt   int64
}

const createSnapshot = `
insert into record_snapshot(id, post, visa_type, content_hash, content_json, source, fetched_at, checked_at)
values (?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateSnapshotParams struct {
	ID          string
	Post        string
	VisaType    string
	ContentHash string
	ContentJson string
	Source      string
	FetchedAt   int64
}

func (q *Queries) CreateSnapshot(ctx context.Context, arg CreateSnapshotParams) error {
	_, err := q.db.ExecContext(ctx, createSnapshot,
		arg.ID,
		arg.Post,
		arg.VisaType,
		arg.ContentHash,
		arg.ContentJson,
		arg.Source,
		arg.FetchedAt,
		arg.FetchedAt,
	)
	return err
}

const touchSnapshot = `
update record_snapshot set checked_at = ? where id = ?
`

type TouchSnapshotParams struct {
	CheckedAt int64
	ID        string
}

func (q *Queries) TouchSnapshot(ctx context.Context, arg TouchSnapshotParams) error {
	_, err := q.db.ExecContext(ctx, touchSnapshot, arg.CheckedAt, arg.ID)
	return err
}

// rowid breaks ties between snapshots fetched in the same second.
const getLatestSnapshot = `
select id, post, visa_type, content_hash, content_json, source, fetched_at, checked_at
from record_snapshot
where post = ? and visa_type = ?
order by fetched_at desc, rowid desc
limit 1
`

type GetLatestSnapshotParams struct {
	Post     string
	VisaType string
}

func (q *Queries) GetLatestSnapshot(ctx context.Context, arg GetLatestSnapshotParams) (RecordSnapshot, error) {
	row := q.db.QueryRowContext(ctx, getLatestSnapshot, arg.Post, arg.VisaType)
	var i RecordSnapshot
	err := row.Scan(
		&i.ID,
		&i.Post,
		&i.VisaType,
		&i.ContentHash,
		&i.ContentJson,
		&i.Source,
		&i.FetchedAt,
		&i.CheckedAt,
	)
	return i, err
}

const listSnapshots = `
select id, post, visa_type, content_hash, content_json, source, fetched_at, checked_at
from record_snapshot
where post = ? and visa_type = ?
order by fetched_at desc, rowid desc
limit ?
`

type ListSnapshotsParams struct {
	Post     string
	VisaType string
	Limit    int64
}

func (q *Queries) ListSnapshots(ctx context.Context, arg ListSnapshotsParams) ([]RecordSnapshot, error) {
	rows, err := q.db.QueryContext(ctx, listSnapshots, arg.Post, arg.VisaType, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RecordSnapshot
	for rows.Next() {
		var i RecordSnapshot
		if err := rows.Scan(
			&i.ID,
			&i.Post,
			&i.VisaType,
			&i.ContentHash,
			&i.ContentJson,
			&i.Source,
			&i.FetchedAt,
			&i.CheckedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listTargets = `
select post, visa_type, count(*) as snapshots, max(fetched_at) as last_fetched_at
from record_snapshot
group by post, visa_type
order by post, visa_type
`

type ListTargetsRow struct {
	Post          string
	VisaType      string
	Snapshots     int64
	LastFetchedAt int64
}

func (q *Queries) ListTargets(ctx context.Context) ([]ListTargetsRow, error) {
	rows, err := q.db.QueryContext(ctx, listTargets)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListTargetsRow
	for rows.Next() {
		var i ListTargetsRow
		if err := rows.Scan(
			&i.Post,
			&i.VisaType,
			&i.Snapshots,
			&i.LastFetchedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
