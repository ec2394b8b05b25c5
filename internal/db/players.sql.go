package db

import (
	"context"
	"database/sql"
	"time"
)

const getPlayer = `
SELECT account_id, display_name, rank, matches_played, wins, win_rate, top_hero_id, last_fetch_at, created_at, updated_at
FROM players
WHERE account_id = ?
`

func (q *Queries) GetPlayer(ctx context.Context, accountID int64) (Player, error) {
	row := q.db.QueryRowContext(ctx, getPlayer, accountID)
	var i Player
	err := row.Scan(
		&i.AccountID,
		&i.DisplayName,
		&i.Rank,
		&i.MatchesPlayed,
		&i.Wins,
		&i.WinRate,
		&i.TopHeroID,
		&i.LastFetchAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const upsertPlayerStats = `
INSERT INTO players (account_id, rank, matches_played, wins, win_rate, top_hero_id, last_fetch_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (account_id) DO UPDATE SET
    rank = excluded.rank,
    matches_played = excluded.matches_played,
    wins = excluded.wins,
    win_rate = excluded.win_rate,
    top_hero_id = excluded.top_hero_id,
    last_fetch_at = excluded.last_fetch_at,
    updated_at = excluded.updated_at
`

type UpsertPlayerStatsParams struct {
	AccountID     int64
	Rank          sql.NullInt64
	MatchesPlayed int64
	Wins          int64
	WinRate       float64
	TopHeroID     sql.NullInt64
	LastFetchAt   sql.NullTime
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (q *Queries) UpsertPlayerStats(ctx context.Context, arg UpsertPlayerStatsParams) error {
	_, err := q.db.ExecContext(ctx, upsertPlayerStats,
		arg.AccountID,
		arg.Rank,
		arg.MatchesPlayed,
		arg.Wins,
		arg.WinRate,
		arg.TopHeroID,
		arg.LastFetchAt,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const upsertPlayerName = `
INSERT INTO players (account_id, display_name, created_at, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (account_id) DO UPDATE SET
    display_name = excluded.display_name,
    updated_at = excluded.updated_at
`

type UpsertPlayerNameParams struct {
	AccountID   int64
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (q *Queries) UpsertPlayerName(ctx context.Context, arg UpsertPlayerNameParams) error {
	_, err := q.db.ExecContext(ctx, upsertPlayerName,
		arg.AccountID,
		arg.DisplayName,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const searchPlayers = `
SELECT account_id, display_name, rank, matches_played, wins, win_rate, top_hero_id, last_fetch_at, created_at, updated_at
FROM players
WHERE display_name LIKE ? ESCAPE '\' OR CAST(account_id AS TEXT) LIKE ?
ORDER BY updated_at DESC, account_id ASC
LIMIT ?
`

type SearchPlayersParams struct {
	DisplayName string
	AccountID   string
	Limit       int64
}

func (q *Queries) SearchPlayers(ctx context.Context, arg SearchPlayersParams) ([]Player, error) {
	rows, err := q.db.QueryContext(ctx, searchPlayers, arg.DisplayName, arg.AccountID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Player
	for rows.Next() {
		var i Player
		if err := rows.Scan(
			&i.AccountID,
			&i.DisplayName,
			&i.Rank,
			&i.MatchesPlayed,
			&i.Wins,
			&i.WinRate,
			&i.TopHeroID,
			&i.LastFetchAt,
			&i.CreatedAt,
			&i.UpdatedAt,
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
