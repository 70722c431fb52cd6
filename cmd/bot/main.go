package main

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"futures_bot/internal/exchange"
	"futures_bot/internal/modules/bootstrap"
	"futures_bot/internal/modules/config"
	"futures_bot/internal/modules/dashboard"
	"futures_bot/internal/modules/health"
	"futures_bot/internal/modules/postgres"
	"futures_bot/internal/modules/presenter"
	telegram "futures_bot/internal/modules/telegram_bot"
	"futures_bot/internal/notify"
	"futures_bot/internal/runner"
	"futures_bot/internal/strategy"
	"futures_bot/pkg/logger"
	"futures_bot/pkg/tracing"
)

// newAppContext: контекст фоновых циклов, гасится последним на OnStop.
func newAppContext(lc fx.Lifecycle) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
	return ctx
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger.SetServiceName(cfg.Tracing.Service)
	return logger.New(logger.Config{
		Level: cfg.Log.Level,
		JSON:  cfg.Log.JSON,
	})
}

func initTracing(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) error {
	tracing.SetServiceName(cfg.Tracing.Service)
	_, closer, err := tracing.InitTracer(tracing.Config{Host: cfg.Tracing.Host})
	if err != nil {
		return err
	}
	if cfg.Tracing.Host != "" {
		log.Info("🛰 jaeger tracing on", zap.String("host", cfg.Tracing.Host))
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			closer()
			return nil
		},
	})
	return nil
}

func main() {
	app := fx.New(
		fx.Provide(
			newAppContext,
			newLogger,
		),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
		config.Module(),
		fx.Invoke(initTracing),
		postgres.Module(),
		exchange.Module(),
		strategy.Module(),
		notify.Module(),
		runner.Module(),
		presenter.Module(),
		health.Module(),
		dashboard.Module(),
		bootstrap.Module(),
		telegram.Module(),
	)
	app.Run()
}
