package main

import (
	"context"
	"os"

	"deadlock-tracker/internal/constants"
	fxmodules "deadlock-tracker/internal/fx"
	"deadlock-tracker/internal/logger"
	"deadlock-tracker/internal/service"
	"deadlock-tracker/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fx.NopLogger,
		fx.Provide(provideFileLogger),
		fxmodules.Core,
		fx.Invoke(runDashboard),
	).Run()
}

// provideFileLogger keeps log output off the terminal the dashboard draws on.
func provideFileLogger(lc fx.Lifecycle) (zerolog.Logger, error) {
	path := os.Getenv("DASHBOARD_LOG")
	if path == "" {
		path = "dashboard.log"
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return f.Close()
		},
	})
	return logger.NewWithWriter(f), nil
}

func runDashboard(lc fx.Lifecycle, shutdowner fx.Shutdowner, panels *service.PanelRegistry, logger zerolog.Logger) {
	model := tui.NewModel(tui.PanelsFromRegistry(panels), tui.Options{
		NoColor:      os.Getenv("NO_COLOR") != "",
		TickInterval: constants.DashboardFrameInterval,
		Logger:       logger,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				if _, err := program.Run(); err != nil {
					logger.Error().Err(err).Msg("dashboard failed")
				}
				logger.Info().Msg("dashboard closed")
				if err := shutdowner.Shutdown(); err != nil {
					logger.Warn().Err(err).Msg("shutdown request failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			program.Quit()
			select {
			case <-done:
			case <-ctx.Done():
			}
			return nil
		},
	})
}
