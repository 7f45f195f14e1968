package transport

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/niklvrr/dotbounty/internal/transport/handler"
	transportMiddleware "github.com/niklvrr/dotbounty/internal/transport/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	RequestTimeout time.Duration
	JWTSecret      string
	CronSecret     string
}

type Handlers struct {
	Contribution *handler.ContributionHandler
	Task         *handler.TaskHandler
	Query        *handler.QueryHandler
	Profile      *handler.ProfileHandler
	Webhook      *handler.WebhookHandler
	Cron         *handler.CronHandler
	Health       *handler.HealthHandler
}

func NewRouter(cfg RouterConfig, h Handlers, log *zap.Logger) *chi.Mux {
	router := chi.NewRouter()

	// Recovery первым, чтобы поймать панику в любом middleware
	router.Use(transportMiddleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(transportMiddleware.Logging(log))
	router.Use(transportMiddleware.Metrics)

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/health", h.Health.HealthCheck)

	router.Group(func(r chi.Router) {
		r.Use(transportMiddleware.Timeout(cfg.RequestTimeout, log))
		r.Use(transportMiddleware.Identity([]byte(cfg.JWTSecret), log))

		r.Route("/contributions/{id}", func(r chi.Router) {
			r.Post("/approve", h.Contribution.Approve)
			r.Post("/reject", h.Contribution.Reject)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", h.Task.ListTasks)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Task.GetTask)
				r.Post("/fund-escrow", h.Task.FundEscrow)
				r.Post("/refund-escrow", h.Task.RefundEscrow)
				r.Get("/escrow/qr", h.Task.EscrowQR)
			})
		})

		r.Get("/projects", h.Query.ListProjects)
		r.Get("/stats", h.Query.Stats)
		r.Get("/leaderboard", h.Query.Leaderboard)
		r.Put("/profile/wallet", h.Profile.SetWallet)

		r.Post("/webhooks/github", h.Webhook.GitHub)
	})

	// sweep'ы проводят переводы и могут идти дольше обычного запроса
	router.Route("/cron", func(r chi.Router) {
		r.Use(transportMiddleware.CronAuth(cfg.CronSecret, log))
		r.Get("/process-pending-payouts", h.Cron.ProcessPendingPayouts)
		r.Get("/check-stale-tasks", h.Cron.CheckStaleTasks)
		r.Get("/sync-github-data", h.Cron.SyncGitHubData)
		r.Post("/payouts/{id}/reset", h.Cron.ResetPayout)
	})

	return router
}
