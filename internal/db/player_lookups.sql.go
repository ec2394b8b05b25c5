package db

import (
	"context"
	"time"
)

const insertPlayerLookup = `
INSERT INTO player_lookups (id, account_id, found, viewed_at)
VALUES (?, ?, ?, ?)
`

type InsertPlayerLookupParams struct {
	ID        string
	AccountID int64
	Found     bool
	ViewedAt  time.Time
}

func (q *Queries) InsertPlayerLookup(ctx context.Context, arg InsertPlayerLookupParams) error {
	_, err := q.db.ExecContext(ctx, insertPlayerLookup,
		arg.ID,
		arg.AccountID,
		arg.Found,
		arg.ViewedAt,
	)
	return err
}

const listRecentLookups = `
SELECT id, account_id, found, viewed_at
FROM player_lookups
ORDER BY viewed_at DESC, id ASC
LIMIT ?
`

func (q *Queries) ListRecentLookups(ctx context.Context, limit int64) ([]PlayerLookup, error) {
	rows, err := q.db.QueryContext(ctx, listRecentLookups, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PlayerLookup
	for rows.Next() {
		var i PlayerLookup
		if err := rows.Scan(
			&i.ID,
			&i.AccountID,
			&i.Found,
			&i.ViewedAt,
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

const countPlayerLookups = `
SELECT COUNT(*) FROM player_lookups WHERE account_id = ?
`

func (q *Queries) CountPlayerLookups(ctx context.Context, accountID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, countPlayerLookups, accountID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
