package service

import (
	"context"
	"fmt"

	"deadlock-tracker/internal/api"
	"deadlock-tracker/internal/config"
	"deadlock-tracker/internal/constants"
	"deadlock-tracker/internal/domain"
	"deadlock-tracker/internal/ranking"
	"deadlock-tracker/internal/refdata"

	"github.com/rs/zerolog"
)

type LeaderboardRow struct {
	ranking.JoinedEntry
	Name     string  `json:"name"`
	PickRate float64 `json:"pick_rate"`
	IconURL  string  `json:"icon_url,omitempty"`
}

type Leaderboard struct {
	Entity       domain.EntityKind `json:"entity"`
	Mode         ranking.Mode      `json:"mode"`
	Filters      domain.DateRange  `json:"filters"`
	Entries      []LeaderboardRow  `json:"entries"`
	TotalMatches int64             `json:"total_matches"`
}

type HeroOverviewEntry struct {
	ranking.HeroOverviewRow
	Name string `json:"name"`
}

type LeaderboardService struct {
	client  *api.Client
	retrier *Retrier
	logger  zerolog.Logger
}

func NewLeaderboardService(client *api.Client, retrier *Retrier, logger zerolog.Logger) *LeaderboardService {
	return &LeaderboardService{client: client, retrier: retrier, logger: logger}
}

func (s *LeaderboardService) heroStats(ctx context.Context, filters domain.DateRange) ([]api.HeroStatsEntry, error) {
	return Fetch(ctx, s.retrier, api.EndpointHeroStats, func(ctx context.Context) ([]api.HeroStatsEntry, error) {
		ctx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
		defer cancel()
		return s.client.HeroStats(ctx, filters)
	})
}

func (s *LeaderboardService) itemStats(ctx context.Context, filters domain.DateRange) ([]api.AggregateEntry, error) {
	return Fetch(ctx, s.retrier, api.EndpointItemStats, func(ctx context.Context) ([]api.AggregateEntry, error) {
		ctx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
		defer cancel()
		return s.client.ItemStats(ctx, filters)
	})
}

func heroAggregates(stats []api.HeroStatsEntry) []ranking.RawEntry {
	raw := make([]ranking.RawEntry, len(stats))
	for i, s := range stats {
		raw[i] = s.AggregateEntry
	}
	return raw
}

func (s *LeaderboardService) FetchHeroWinrateLeaderboard(ctx context.Context, limit int, filters domain.DateRange) (*Leaderboard, error) {
	stats, err := s.heroStats(ctx, filters)
	if err != nil {
		s.logger.Error().Err(err).Str("filters", filters.Signature()).Msg("failed to fetch hero stats")
		return nil, fmt.Errorf("failed to fetch hero stats: %w", err)
	}
	raw := heroAggregates(stats)
	ranked := ranking.Rank(raw, ranking.ModeWinrate, ranking.WithLimit(limit), ranking.WithNameTieBreak(refdata.HeroName))
	return s.build(domain.EntityHero, ranking.ModeWinrate, filters, ranking.SelfJoin(ranked), raw), nil
}

// FetchHeroPopularityLeaderboard annotates every popularity entry with its
// position in the full win-rate ranking of the same data.
func (s *LeaderboardService) FetchHeroPopularityLeaderboard(ctx context.Context, limit int, filters domain.DateRange) (*Leaderboard, error) {
	stats, err := s.heroStats(ctx, filters)
	if err != nil {
		s.logger.Error().Err(err).Str("filters", filters.Signature()).Msg("failed to fetch hero stats")
		return nil, fmt.Errorf("failed to fetch hero stats: %w", err)
	}
	raw := heroAggregates(stats)
	popularity := ranking.Rank(raw, ranking.ModePopularity, ranking.WithLimit(limit))
	winrate := ranking.Rank(raw, ranking.ModeWinrate, ranking.WithNameTieBreak(refdata.HeroName))
	return s.build(domain.EntityHero, ranking.ModePopularity, filters, ranking.JoinWinrate(popularity, winrate), raw), nil
}

func (s *LeaderboardService) FetchItemWinrateLeaderboard(ctx context.Context, limit int, filters domain.DateRange) (*Leaderboard, error) {
	return s.itemLeaderboard(ctx, ranking.ModeWinrate, limit, filters)
}

func (s *LeaderboardService) FetchItemPopularityLeaderboard(ctx context.Context, limit int, filters domain.DateRange) (*Leaderboard, error) {
	return s.itemLeaderboard(ctx, ranking.ModePopularity, limit, filters)
}

func (s *LeaderboardService) itemLeaderboard(ctx context.Context, mode ranking.Mode, limit int, filters domain.DateRange) (*Leaderboard, error) {
	raw, err := s.itemStats(ctx, filters)
	if err != nil {
		s.logger.Error().Err(err).Str("filters", filters.Signature()).Msg("failed to fetch item stats")
		return nil, fmt.Errorf("failed to fetch item stats: %w", err)
	}
	ranked := ranking.Rank(raw, mode, ranking.WithLimit(limit))
	return s.build(domain.EntityItem, mode, filters, ranking.JoinWinrate(ranked, nil), raw), nil
}

func (s *LeaderboardService) build(entity domain.EntityKind, mode ranking.Mode, filters domain.DateRange, entries []ranking.JoinedEntry, raw []ranking.RawEntry) *Leaderboard {
	total := ranking.TotalMatches(raw)
	name, icon := refdata.HeroName, refdata.HeroIconURL
	if entity == domain.EntityItem {
		name, icon = refdata.ItemName, refdata.ItemIconURL
	}

	rows := make([]LeaderboardRow, len(entries))
	for i, e := range entries {
		url, _ := icon(e.ID, refdata.FormatWebP)
		rows[i] = LeaderboardRow{
			JoinedEntry: e,
			Name:        name(e.ID),
			PickRate:    ranking.PickRate(e.Matches, total),
			IconURL:     url,
		}
	}

	s.logger.Info().
		Str("entity", string(entity)).
		Str("mode", string(mode)).
		Str("filters", filters.Signature()).
		Int("entries", len(rows)).
		Int64("total_matches", total).
		Msg("leaderboard ranked")

	return &Leaderboard{
		Entity:       entity,
		Mode:         mode,
		Filters:      filters,
		Entries:      rows,
		TotalMatches: total,
	}
}

// Fetch dispatches a configured panel to its leaderboard fetcher.
func (s *LeaderboardService) Fetch(ctx context.Context, def config.PanelDefinition, filters domain.DateRange) (*Leaderboard, error) {
	mode, err := ranking.ParseMode(def.Mode)
	if err != nil {
		return nil, err
	}
	switch {
	case def.Entity == string(domain.EntityHero) && mode == ranking.ModeWinrate:
		return s.FetchHeroWinrateLeaderboard(ctx, def.Limit, filters)
	case def.Entity == string(domain.EntityHero):
		return s.FetchHeroPopularityLeaderboard(ctx, def.Limit, filters)
	case def.Entity == string(domain.EntityItem) && mode == ranking.ModeWinrate:
		return s.FetchItemWinrateLeaderboard(ctx, def.Limit, filters)
	case def.Entity == string(domain.EntityItem):
		return s.FetchItemPopularityLeaderboard(ctx, def.Limit, filters)
	}
	return nil, fmt.Errorf("unknown panel entity %q", def.Entity)
}

func (s *LeaderboardService) HeroOverview(ctx context.Context, filters domain.DateRange) ([]HeroOverviewEntry, error) {
	stats, err := s.heroStats(ctx, filters)
	if err != nil {
		s.logger.Error().Err(err).Str("filters", filters.Signature()).Msg("failed to fetch hero stats")
		return nil, fmt.Errorf("failed to fetch hero stats: %w", err)
	}
	rows := ranking.HeroOverview(stats)
	out := make([]HeroOverviewEntry, len(rows))
	for i, r := range rows {
		out[i] = HeroOverviewEntry{HeroOverviewRow: r, Name: refdata.HeroName(r.HeroID)}
	}
	return out, nil
}

func (s *LeaderboardService) RankDistribution(ctx context.Context, filters domain.DateRange) ([]ranking.DistributionBucket, error) {
	entries, err := Fetch(ctx, s.retrier, api.EndpointRankDistribution, func(ctx context.Context) ([]api.RankDistributionEntry, error) {
		ctx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
		defer cancel()
		return s.client.RankDistribution(ctx, filters)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("filters", filters.Signature()).Msg("failed to fetch rank distribution")
		return nil, fmt.Errorf("failed to fetch rank distribution: %w", err)
	}
	return ranking.RankDistribution(entries), nil
}
