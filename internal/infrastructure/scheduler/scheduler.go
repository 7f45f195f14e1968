package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/niklvrr/dotbounty/internal/usecase/service"
	"go.uber.org/zap"
)

type Sweeper interface {
	ProcessPendingPayouts(ctx context.Context, limit int) (*service.SweepSummary, error)
	CheckStaleTasks(ctx context.Context, olderThan time.Duration) (*service.StaleReport, error)
	SyncGitHubData(ctx context.Context) (*service.SyncSummary, error)
}

type Config struct {
	PayoutsInterval    time.Duration
	StaleTasksInterval time.Duration
	GitHubSyncInterval time.Duration
	PayoutBatchSize    int
	StaleAfter         time.Duration
	JobTimeout         time.Duration
}

// Scheduler запускает sweep'ы внутри процесса. Нулевой интервал отключает задачу.
type Scheduler struct {
	scheduler gocron.Scheduler
	sweeper   Sweeper
	cfg       Config
	log       *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(sweeper Sweeper, cfg Config, log *zap.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 5 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: s,
		sweeper:   sweeper,
		cfg:       cfg,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

func (s *Scheduler) RegisterJobs() error {
	jobs := []struct {
		name     string
		interval time.Duration
		run      func(ctx context.Context) error
	}{
		{service.JobPendingPayouts, s.cfg.PayoutsInterval, func(ctx context.Context) error {
			_, err := s.sweeper.ProcessPendingPayouts(ctx, s.cfg.PayoutBatchSize)
			return err
		}},
		{service.JobStaleTasks, s.cfg.StaleTasksInterval, func(ctx context.Context) error {
			_, err := s.sweeper.CheckStaleTasks(ctx, s.cfg.StaleAfter)
			return err
		}},
		{service.JobGitHubSync, s.cfg.GitHubSyncInterval, func(ctx context.Context) error {
			_, err := s.sweeper.SyncGitHubData(ctx)
			return err
		}},
	}

	for _, j := range jobs {
		if j.interval <= 0 {
			s.log.Info("scheduled job disabled", zap.String("job", j.name))
			continue
		}

		_, err := s.scheduler.NewJob(
			gocron.DurationJob(j.interval),
			gocron.NewTask(s.execute, j.name, j.run),
			gocron.WithName(j.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return fmt.Errorf("register job %s: %w", j.name, err)
		}
		s.log.Info("scheduled job registered",
			zap.String("job", j.name),
			zap.Duration("interval", j.interval),
		)
	}
	return nil
}

func (s *Scheduler) execute(name string, run func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.JobTimeout)
	defer cancel()

	start := time.Now()
	if err := run(ctx); err != nil {
		s.log.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
		return
	}
	s.log.Debug("scheduled job finished",
		zap.String("job", name),
		zap.Duration("duration", time.Since(start)),
	)
}

func (s *Scheduler) Start() {
	s.scheduler.Start()
	s.log.Info("scheduler started")
}

// Stop отменяет выполняющиеся задачи и ждет их завершения
func (s *Scheduler) Stop() error {
	s.cancel()
	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("shutdown scheduler: %w", err)
	}
	s.log.Info("scheduler stopped")
	return nil
}
