package telegram

import (
	"context"

	"go.uber.org/fx"

	presenter "futures_bot/internal/modules/presenter/service"
	"futures_bot/internal/modules/telegram_bot/service"
)

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			func(p *presenter.Presenter) service.Presenter { return p },
			service.NewTelegram, // func(*config.Config, service.Presenter, *zap.Logger) (*service.Telegram, error)
		),
		// Запуск цикла апдейтов через Lifecycle; без токена t == nil
		fx.Invoke(
			func(lc fx.Lifecycle, appCtx context.Context, t *service.Telegram) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return t.Start(appCtx)
					},
					OnStop: func(ctx context.Context) error {
						t.Stop()
						return nil
					},
				})
			},
		),
	)
}
