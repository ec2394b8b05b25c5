package service

import (
	"context"

	"deadlock-tracker/internal/config"
	"deadlock-tracker/internal/domain"
	"deadlock-tracker/internal/metrics"
	"deadlock-tracker/internal/refresh"

	"github.com/rs/zerolog"
)

// PanelRegistry holds one refresh session per configured leaderboard panel.
type PanelRegistry = refresh.Registry[*Leaderboard]

type PanelSnapshot = refresh.Snapshot[*Leaderboard]

func NewPanelRegistry(cfg *config.Config, svc *LeaderboardService, m *metrics.Metrics, logger zerolog.Logger) (*PanelRegistry, error) {
	return refresh.NewRegistry(cfg.Panels, func(def config.PanelDefinition) (refresh.Fetcher[*Leaderboard], error) {
		return func(ctx context.Context, filters domain.DateRange) (*Leaderboard, error) {
			return svc.Fetch(ctx, def, filters)
		}, nil
	}, logger, refresh.WithMetrics(m))
}
