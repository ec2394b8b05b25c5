package db

import (
	"database/sql"
	"time"
)

type Player struct {
	AccountID     int64
	DisplayName   string
	Rank          sql.NullInt64
	MatchesPlayed int64
	Wins          int64
	WinRate       float64
	TopHeroID     sql.NullInt64
	LastFetchAt   sql.NullTime
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type PlayerLookup struct {
	ID        string
	AccountID int64
	Found     bool
	ViewedAt  time.Time
}
