package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/niklvrr/dotbounty/internal/config"
	"github.com/niklvrr/dotbounty/internal/infrastructure/chain"
	"github.com/niklvrr/dotbounty/internal/infrastructure/db"
	"github.com/niklvrr/dotbounty/internal/infrastructure/github"
	"github.com/niklvrr/dotbounty/internal/infrastructure/repository"
	"github.com/niklvrr/dotbounty/internal/infrastructure/scheduler"
	"github.com/niklvrr/dotbounty/internal/transport"
	"github.com/niklvrr/dotbounty/internal/transport/handler"
	"github.com/niklvrr/dotbounty/internal/usecase/service"
	"go.uber.org/zap"
)

// App держит пул, клиентов и собранные сервисы одного процесса
type App struct {
	cfg   *config.Config
	log   *zap.Logger
	pool  *pgxpool.Pool
	chain service.ChainClient

	Lifecycle *service.LifecycleService
	Escrow    *service.EscrowService
	Webhooks  *service.WebhookService
	Sweeps    *service.SweepService
	Queries   *service.QueryService
	Profiles  *service.ProfileService
}

// New открывает базу (с миграциями) и собирает слои
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if cfg.Chain.PlatformAddress != "" {
		if err := chain.ValidateAddress(cfg.Chain.PlatformAddress); err != nil {
			return nil, fmt.Errorf("CHAIN_PLATFORM_ADDRESS: %w", err)
		}
	}

	pool, err := db.NewDatabase(ctx, cfg.Database.URL, cfg.MigrationsPath, log)
	if err != nil {
		return nil, err
	}

	ghClient, err := github.NewClient(github.Config{
		Token:   cfg.GitHub.Token,
		BaseURL: cfg.GitHub.APIURL,
	}, log.Named("github"))
	if err != nil {
		pool.Close()
		return nil, err
	}

	a := &App{cfg: cfg, log: log, pool: pool, chain: newChainClient(cfg, log)}
	a.wire(ghClient)
	return a, nil
}

func newChainClient(cfg *config.Config, log *zap.Logger) service.ChainClient {
	if cfg.Chain.Simulate {
		log.Warn("chain transfers are simulated")
		return chain.NewSimulatedClient(log.Named("chain"))
	}
	return chain.NewRPCClient(chain.Config{
		RPCURL:          cfg.Chain.RPCURL,
		PlatformAddress: cfg.Chain.PlatformAddress,
		TransferMethod:  cfg.Chain.TransferMethod,
		Timeout:         cfg.Chain.Timeout,
	}, log.Named("chain"))
}

func (a *App) wire(gh service.RepoStatsFetcher) {
	tasks := repository.NewTaskRepository(a.pool, a.log)
	contributions := repository.NewContributionRepository(a.pool, a.log)
	payouts := repository.NewPayoutRepository(a.pool, a.log)
	projects := repository.NewProjectRepository(a.pool, a.log)
	profiles := repository.NewProfileRepository(a.pool, a.log)
	stats := repository.NewStatsRepository(a.pool, a.log)

	a.Escrow = service.NewEscrowService(tasks, contributions, payouts, a.chain, a.log)
	a.Lifecycle = service.NewLifecycleService(tasks, contributions, a.Escrow, a.log)
	a.Webhooks = service.NewWebhookService(tasks, contributions, projects, profiles, a.Lifecycle, a.log)
	a.Sweeps = service.NewSweepService(tasks, payouts, projects, a.Escrow, gh, a.log)
	a.Queries = service.NewQueryService(tasks, stats, a.cfg.Chain.PlatformAddress, a.log)
	a.Profiles = service.NewProfileService(profiles, chain.ValidateAddress, a.log)
}

func (a *App) Router() http.Handler {
	return transport.NewRouter(transport.RouterConfig{
		RequestTimeout: a.cfg.App.RequestTimeout,
		JWTSecret:      a.cfg.Auth.JWTSecret,
		CronSecret:     a.cfg.Cron.Secret,
	}, transport.Handlers{
		Contribution: handler.NewContributionHandler(a.Lifecycle, a.log),
		Task:         handler.NewTaskHandler(a.Lifecycle, a.Queries, a.log),
		Query:        handler.NewQueryHandler(a.Queries, a.log),
		Profile:      handler.NewProfileHandler(a.Profiles, a.log),
		Webhook:      handler.NewWebhookHandler(a.Webhooks, a.cfg.GitHub.WebhookSecret, a.cfg.GitHub.WebhookSkipVerify, a.log),
		Cron:         handler.NewCronHandler(a.Sweeps, a.cfg.Cron.PayoutBatchSize, a.cfg.Cron.StaleAfter, a.log),
		Health:       handler.NewHealthHandler(a.pool, a.log),
	}, a.log)
}

// Scheduler возвращает nil, если встроенный запуск sweep'ов выключен
func (a *App) Scheduler() (*scheduler.Scheduler, error) {
	if !a.cfg.Scheduler.Enabled {
		return nil, nil
	}
	s, err := scheduler.NewScheduler(a.Sweeps, scheduler.Config{
		PayoutsInterval:    a.cfg.Scheduler.PayoutsInterval,
		StaleTasksInterval: a.cfg.Scheduler.StaleTasksInterval,
		GitHubSyncInterval: a.cfg.Scheduler.GitHubSyncInterval,
		PayoutBatchSize:    a.cfg.Cron.PayoutBatchSize,
		StaleAfter:         a.cfg.Cron.StaleAfter,
	}, a.log.Named("scheduler"))
	if err != nil {
		return nil, err
	}
	if err := s.RegisterJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

func (a *App) Close() {
	if c, ok := a.chain.(interface{ Close() }); ok {
		c.Close()
	}
	a.pool.Close()
}
