package bootstrap

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"futures_bot/internal/exchange"
	bootstrap "futures_bot/internal/modules/bootstrap/service"
	"futures_bot/internal/modules/config"
	"futures_bot/internal/notify"
	"futures_bot/internal/strategy"
)

func Module() fx.Option {
	return fx.Module("bootstrap",
		fx.Provide(
			func(cfg *config.Config, gw exchange.Gateway, e *strategy.Evaluator, n notify.Notifier, log *zap.Logger) *bootstrap.Warmuper {
				return bootstrap.NewWarmuper(gw, e, n, cfg.Trading.CallTimeout, log.Named("bootstrap"))
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, appCtx context.Context, cfg *config.Config, wu *bootstrap.Warmuper, log *zap.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					go func() {
						if err := wu.Warmup(appCtx, cfg.Trading.Symbols); err != nil {
							log.Warn("[BOOT] warmup error", zap.Error(err))
						}
					}()
					return nil
				},
			})
		}),
	)
}
