package fx

import (
	"context"
	"database/sql"

	"deadlock-tracker/internal/api"
	"deadlock-tracker/internal/config"
	"deadlock-tracker/internal/constants"
	"deadlock-tracker/internal/database"
	"deadlock-tracker/internal/db"
	"deadlock-tracker/internal/logger"
	"deadlock-tracker/internal/metrics"
	"deadlock-tracker/internal/ratelimit"
	"deadlock-tracker/internal/repository"
	"deadlock-tracker/internal/server"
	"deadlock-tracker/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideQueries(sqlDB *sql.DB) *db.Queries {
	return db.New(sqlDB)
}

// ProvideBucket builds the single process-wide token bucket shared by every upstream call.
func ProvideBucket(lc fx.Lifecycle, logger zerolog.Logger) *ratelimit.TokenBucket {
	bucket := ratelimit.New(constants.BucketCapacity, constants.BucketRefillPeriod, logger)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return bucket.Close()
		},
	})
	return bucket
}

func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

func ProvideMetrics(reg *prometheus.Registry, bucket *ratelimit.TokenBucket) *metrics.Metrics {
	return metrics.New(reg, bucket)
}

func ProvideAPIClient(cfg *config.Config, bucket *ratelimit.TokenBucket, m *metrics.Metrics, logger zerolog.Logger) *api.Client {
	return api.NewClient(cfg, bucket, m, logger)
}

// ProvidePanels starts every configured panel's initial load with the app and
// cancels in-flight fetches on shutdown.
func ProvidePanels(lc fx.Lifecycle, cfg *config.Config, svc *service.LeaderboardService, m *metrics.Metrics, logger zerolog.Logger) (*service.PanelRegistry, error) {
	panels, err := service.NewPanelRegistry(cfg, svc, m, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return panels.StartAll()
		},
		OnStop: func(context.Context) error {
			panels.Close()
			return nil
		},
	})
	return panels, nil
}

func applyLogLevel(cfg *config.Config) error {
	return logger.ApplyLevel(cfg.LogLevel)
}

// Core is everything that talks to the statistics service: config, the
// shared rate limiter, the executor, ranking services and the panel sessions.
var Core = fx.Options(
	config.Module,
	fx.Invoke(applyLogLevel),
	fx.Provide(ProvideBucket),
	fx.Provide(ProvideRegistry),
	fx.Provide(ProvideMetrics),
	fx.Provide(ProvideAPIClient),
	// svc
	fx.Provide(service.NewRetrier),
	fx.Provide(service.NewLeaderboardService),
	fx.Provide(ProvidePanels),
)

var Storage = fx.Options(
	fx.Provide(database.New),
	fx.Provide(ProvideQueries),
	// repos
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(service.NewPlayerService),
)

var Module = fx.Options(
	logger.Module,
	Core,
	Storage,
	// server
	fx.Provide(server.NewTrackerServer),
)
