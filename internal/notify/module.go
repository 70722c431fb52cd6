package notify

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module: Queue для презентера + лог через zap.
func Module() fx.Option {
	return fx.Module("notify",
		fx.Provide(
			func() *Queue { return NewQueue(DefaultQueueSize) },
			func(q *Queue, log *zap.Logger) Notifier {
				return Multi{q, NewStdout(log.Named("trade"))}
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, q *Queue) {
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					q.Close()
					return nil
				},
			})
		}),
	)
}
