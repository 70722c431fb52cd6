package presenter

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"futures_bot/internal/ledger"
	"futures_bot/internal/modules/config"
	"futures_bot/internal/modules/presenter/service"
	"futures_bot/internal/notify"
	"futures_bot/internal/runner"
)

func Module() fx.Option {
	return fx.Module("presenter",
		fx.Provide(
			func(
				cfg *config.Config,
				c *runner.Controller,
				l *ledger.Ledger,
				q *notify.Queue,
				log *zap.Logger,
			) (*service.Presenter, error) {
				loc, err := cfg.Location()
				if err != nil {
					return nil, err
				}
				return service.New(c, l, q.Events(), service.Options{
					Symbols:  cfg.Trading.Symbols,
					LogLines: cfg.UI.LogLines,
					Location: loc,
				}, log.Named("presenter")), nil
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, p *service.Presenter, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go p.Run(ctx)
					return nil
				},
			})
		}),
	)
}
