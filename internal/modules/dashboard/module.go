package dashboard

import (
	"context"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"futures_bot/internal/modules/dashboard/service"
	healthsvc "futures_bot/internal/modules/health/service"
	presenter "futures_bot/internal/modules/presenter/service"
)

// Routes вешает /ws и /api/view на общий http-мукс health.
func Routes(mux *http.ServeMux, h *service.Hub) {
	mux.Handle("/ws", h)
	mux.HandleFunc("GET /api/view", h.ServeView)
}

func Module() fx.Option {
	return fx.Module("dashboard",
		fx.Provide(
			func(p *presenter.Presenter, st *healthsvc.State, log *zap.Logger) *service.Hub {
				return service.NewHub(p, st, log.Named("dashboard"))
			},
		),
		fx.Invoke(
			Routes,
			func(lc fx.Lifecycle, h *service.Hub) {
				lc.Append(fx.Hook{
					OnStop: func(ctx context.Context) error {
						h.Close()
						return nil
					},
				})
			},
		),
	)
}
