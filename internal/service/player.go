package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"deadlock-tracker/internal/api"
	"deadlock-tracker/internal/constants"
	"deadlock-tracker/internal/domain"
	"deadlock-tracker/internal/ranking"
	"deadlock-tracker/internal/refdata"
	"deadlock-tracker/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type ProfileHero struct {
	ranking.HeroRow
	Name string `json:"name"`
	Tier string `json:"tier,omitempty"`
}

// PlayerProfile is the assembled view of one account. Found is false when the
// upstream has no data for the account; every other field is then empty.
type PlayerProfile struct {
	AccountID   int64              `json:"account_id"`
	DisplayName string             `json:"display_name,omitempty"`
	Found       bool               `json:"found"`
	Heroes      []ProfileHero      `json:"heroes"`
	TopHeroes   []ProfileHero      `json:"top_heroes"`
	Record      ranking.Record     `json:"record"`
	MMR         *api.MMREntry      `json:"mmr,omitempty"`
	MMRHistory  []ranking.MMRPoint `json:"mmr_history"`
}

type PlayerService struct {
	client  *api.Client
	repo    *repository.PlayerRepository
	retrier *Retrier
	logger  zerolog.Logger
}

func NewPlayerService(client *api.Client, repo *repository.PlayerRepository, retrier *Retrier, logger zerolog.Logger) *PlayerService {
	return &PlayerService{client: client, repo: repo, retrier: retrier, logger: logger}
}

// fetchOptional treats an upstream 404 as "no data" rather than a failure.
func fetchOptional[T any](ctx context.Context, r *Retrier, endpoint string, fn func(context.Context) (T, error)) (T, bool, error) {
	v, err := Fetch(ctx, r, endpoint, func(ctx context.Context) (T, error) {
		ctx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
		defer cancel()
		return fn(ctx)
	})
	if api.IsNotFound(err) {
		var zero T
		return zero, false, nil
	}
	if err != nil {
		var zero T
		return zero, false, err
	}
	return v, true, nil
}

func (s *PlayerService) Profile(ctx context.Context, accountID int64) (*PlayerProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	s.logger.Info().Int64("account_id", accountID).Msg("getting player profile")

	var (
		stats   []api.PlayerHeroStat
		mmr     *api.MMREntry
		history []api.MMREntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, _, err = fetchOptional(gctx, s.retrier, api.EndpointPlayerHeroStats, func(ctx context.Context) ([]api.PlayerHeroStat, error) {
			return s.client.PlayerHeroStats(ctx, accountID)
		})
		return err
	})
	g.Go(func() error {
		var err error
		mmr, _, err = fetchOptional(gctx, s.retrier, api.EndpointPlayerMMR, func(ctx context.Context) (*api.MMREntry, error) {
			return s.client.PlayerMMR(ctx, accountID)
		})
		return err
	})
	g.Go(func() error {
		var err error
		history, _, err = fetchOptional(gctx, s.retrier, api.EndpointPlayerMMRHistory, func(ctx context.Context) ([]api.MMREntry, error) {
			return s.client.PlayerMMRHistory(ctx, accountID, 0)
		})
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Int64("account_id", accountID).Msg("failed to fetch player profile")
		return nil, fmt.Errorf("failed to fetch player profile: %w", err)
	}

	profile := &PlayerProfile{
		AccountID:  accountID,
		Found:      len(stats) > 0 || mmr != nil || len(history) > 0,
		Heroes:     []ProfileHero{},
		TopHeroes:  []ProfileHero{},
		MMRHistory: []ranking.MMRPoint{},
	}
	if profile.Found {
		rows := ranking.BuildHeroRows(stats)
		profile.Heroes = profileHeroes(rows)
		profile.TopHeroes = profileHeroes(ranking.TopHeroes(rows, constants.TopHeroesLimit))
		profile.Record = ranking.OverallRecord(rows)
		profile.MMR = mmr
		profile.MMRHistory = ranking.MMRTimeline(history)
	}

	s.remember(ctx, profile)

	s.logger.Info().
		Int64("account_id", accountID).
		Bool("found", profile.Found).
		Int("heroes", len(profile.Heroes)).
		Msg("player profile fetched")
	return profile, nil
}

func profileHeroes(rows []ranking.HeroRow) []ProfileHero {
	out := make([]ProfileHero, len(rows))
	for i, r := range rows {
		out[i] = ProfileHero{HeroRow: r, Name: refdata.HeroName(r.HeroID)}
		if t, ok := ranking.ResolveTier(&r.WinRate); ok && r.Matches > 0 {
			out[i].Tier = string(t)
		}
	}
	return out
}

// remember writes the lookup history. Storage failures never fail the profile.
func (s *PlayerService) remember(ctx context.Context, profile *PlayerProfile) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.DatabaseTimeout)
	defer cancel()

	if profile.Found {
		summary := &domain.PlayerSummary{
			AccountID:     profile.AccountID,
			MatchesPlayed: profile.Record.Matches,
			Wins:          profile.Record.Wins,
			WinRate:       profile.Record.WinRate,
			LastFetchAt:   time.Now().UTC(),
		}
		if profile.MMR != nil {
			summary.Rank = profile.MMR.Rank
		}
		if len(profile.TopHeroes) > 0 {
			id := profile.TopHeroes[0].HeroID
			summary.TopHeroID = &id
		}
		if err := s.repo.Upsert(ctx, summary); err != nil {
			s.logger.Warn().Err(err).Int64("account_id", profile.AccountID).Msg("failed to upsert player")
		}
		if stored, err := s.repo.Get(ctx, profile.AccountID); err == nil {
			profile.DisplayName = stored.DisplayName
		}
	}

	if _, err := s.repo.RecordLookup(ctx, profile.AccountID, profile.Found); err != nil {
		s.logger.Warn().Err(err).Int64("account_id", profile.AccountID).Msg("failed to record player lookup")
	}
}

// PlayerLeaderboard fetches a regional leaderboard and stores the display
// names of entries that resolve to exactly one account.
func (s *PlayerService) PlayerLeaderboard(ctx context.Context, region string) ([]api.LeaderboardEntry, error) {
	entries, err := Fetch(ctx, s.retrier, api.EndpointLeaderboard, func(ctx context.Context) ([]api.LeaderboardEntry, error) {
		ctx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
		defer cancel()
		return s.client.Leaderboard(ctx, region)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("region", region).Msg("failed to fetch leaderboard")
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}

	names := make(map[int64]string)
	for _, e := range entries {
		if len(e.PossibleAccountIDs) == 1 && e.AccountName != constants.UnknownPlayerName {
			names[e.PossibleAccountIDs[0]] = e.AccountName
		}
	}
	dbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.DatabaseTimeout)
	defer cancel()
	if err := s.repo.UpsertNames(dbCtx, names); err != nil {
		s.logger.Warn().Err(err).Str("region", region).Msg("failed to store leaderboard names")
	}

	s.logger.Info().Str("region", region).Int("entries", len(entries)).Msg("leaderboard fetched")
	return entries, nil
}

func (s *PlayerService) SearchSuggestions(ctx context.Context, query string) ([]domain.PlayerSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	s.logger.Debug().Str("query", query).Msg("searching players")

	players, err := s.repo.Search(ctx, query, constants.SearchSuggestionLimit)
	if err != nil {
		s.logger.Error().Err(err).Str("query", query).Msg("failed to search players")
		return nil, err
	}
	return players, nil
}

func (s *PlayerService) RecentLookups(ctx context.Context) ([]domain.PlayerLookup, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.repo.RecentLookups(ctx, constants.SearchSuggestionLimit)
}

// IsNoData reports whether err means the upstream has nothing for the request.
func IsNoData(err error) bool {
	return api.IsNotFound(err) || errors.Is(err, repository.ErrPlayerNotFound)
}
