package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"deadlock-tracker/internal/db"
	"deadlock-tracker/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

var ErrPlayerNotFound = errors.New("player not found")

type PlayerRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
	now     func() time.Time
}

func NewPlayerRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *PlayerRepository) Get(ctx context.Context, accountID int64) (*domain.PlayerSummary, error) {
	player, err := r.queries.GetPlayer(ctx, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}
	summary := toSummary(player)
	return &summary, nil
}

// Upsert stores the latest profile figures. A stored display name is kept.
func (r *PlayerRepository) Upsert(ctx context.Context, player *domain.PlayerSummary) error {
	now := r.now()
	return r.queries.UpsertPlayerStats(ctx, db.UpsertPlayerStatsParams{
		AccountID:     player.AccountID,
		Rank:          nullInt(player.Rank),
		MatchesPlayed: player.MatchesPlayed,
		Wins:          player.Wins,
		WinRate:       player.WinRate,
		TopHeroID:     nullInt(player.TopHeroID),
		LastFetchAt:   nullTime(player.LastFetchAt),
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

// UpsertNames records display names seen on a region leaderboard in one transaction.
func (r *PlayerRepository) UpsertNames(ctx context.Context, names map[int64]string) error {
	if len(names) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)
	now := r.now()
	for accountID, name := range names {
		err := qtx.UpsertPlayerName(ctx, db.UpsertPlayerNameParams{
			AccountID:   accountID,
			DisplayName: name,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("failed to upsert player name %d: %w", accountID, err)
		}
	}

	r.logger.Debug().Int("count", len(names)).Msg("player names stored")
	return tx.Commit()
}

// Search matches query against display names and account ids, most recently updated first.
func (r *PlayerRepository) Search(ctx context.Context, query string, limit int) ([]domain.PlayerSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.PlayerSummary{}, nil
	}
	pattern := "%" + escapeLike(query) + "%"
	idPattern := "-"
	if _, err := strconv.ParseInt(query, 10, 64); err == nil {
		idPattern = query + "%"
	}

	players, err := r.queries.SearchPlayers(ctx, db.SearchPlayersParams{
		DisplayName: pattern,
		AccountID:   idPattern,
		Limit:       int64(limit),
	})
	if err != nil {
		return nil, err
	}

	result := make([]domain.PlayerSummary, len(players))
	for i, p := range players {
		result[i] = toSummary(p)
	}
	return result, nil
}

// RecordLookup appends one row to the lookup history.
func (r *PlayerRepository) RecordLookup(ctx context.Context, accountID int64, found bool) (*domain.PlayerLookup, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate nanoid: %w", err)
	}
	lookup := &domain.PlayerLookup{
		ID:        id,
		AccountID: accountID,
		Found:     found,
		ViewedAt:  r.now(),
	}
	err = r.queries.InsertPlayerLookup(ctx, db.InsertPlayerLookupParams{
		ID:        lookup.ID,
		AccountID: lookup.AccountID,
		Found:     lookup.Found,
		ViewedAt:  lookup.ViewedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert player lookup: %w", err)
	}
	return lookup, nil
}

func (r *PlayerRepository) RecentLookups(ctx context.Context, limit int) ([]domain.PlayerLookup, error) {
	rows, err := r.queries.ListRecentLookups(ctx, int64(limit))
	if err != nil {
		return nil, err
	}
	result := make([]domain.PlayerLookup, len(rows))
	for i, l := range rows {
		result[i] = domain.PlayerLookup{
			ID:        l.ID,
			AccountID: l.AccountID,
			Found:     l.Found,
			ViewedAt:  l.ViewedAt,
		}
	}
	return result, nil
}

func (r *PlayerRepository) LookupCount(ctx context.Context, accountID int64) (int64, error) {
	return r.queries.CountPlayerLookups(ctx, accountID)
}

func toSummary(p db.Player) domain.PlayerSummary {
	s := domain.PlayerSummary{
		AccountID:     p.AccountID,
		DisplayName:   p.DisplayName,
		MatchesPlayed: p.MatchesPlayed,
		Wins:          p.Wins,
		WinRate:       p.WinRate,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.Rank.Valid {
		s.Rank = &p.Rank.Int64
	}
	if p.TopHeroID.Valid {
		s.TopHeroID = &p.TopHeroID.Int64
	}
	if p.LastFetchAt.Valid {
		s.LastFetchAt = p.LastFetchAt.Time
	}
	return s
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`%`, `\%`, `_`, `\_`).Replace(s)
}
