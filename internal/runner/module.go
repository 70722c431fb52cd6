package runner

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"futures_bot/internal/exchange"
	"futures_bot/internal/journal"
	"futures_bot/internal/ledger"
	"futures_bot/internal/modules/config"
	"futures_bot/internal/notify"
	"futures_bot/internal/strategy"
)

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			ledger.New,
			func(
				cfg *config.Config,
				gw exchange.Gateway,
				ev *strategy.Evaluator,
				l *ledger.Ledger,
				j journal.Journal,
				n notify.Notifier,
				log *zap.Logger,
			) (*Controller, error) {
				loc, err := cfg.Location()
				if err != nil {
					return nil, err
				}
				t := cfg.Trading
				return NewController(Config{
					SizingFraction: t.SizingFraction,
					TakeProfitPct:  t.TakeProfitPct,
					StopLossPct:    t.StopLossPct,
					PollInterval:   t.PollInterval,
					CallTimeout:    t.CallTimeout,
					Location:       loc,
				}, gw, ev, l, j, n, log.Named("runner")), nil
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, c *Controller, log *zap.Logger) {
			lc.Append(fx.Hook{
				OnStop: func(ctx context.Context) error {
					if active := c.Active(); len(active) > 0 {
						log.Info("closing active trades on shutdown", zap.Strings("symbols", active))
					}
					return c.StopAll(ctx)
				},
			})
		}),
	)
}
