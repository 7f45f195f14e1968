package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/niklvrr/dotbounty/internal/domain"
	"github.com/niklvrr/dotbounty/internal/infrastructure/models/dto"
	"github.com/niklvrr/dotbounty/internal/infrastructure/models/result"
	"github.com/niklvrr/dotbounty/pkg/metrics"
	"go.uber.org/zap"
)

const (
	DefaultPayoutBatchSize = 10
	DefaultStaleAfter      = 30 * 24 * time.Hour

	JobPendingPayouts = "process-pending-payouts"
	JobStaleTasks     = "check-stale-tasks"
	JobGitHubSync     = "sync-github-data"
)

// PayoutSettler проводит выплату, найденную в статусе pending
type PayoutSettler interface {
	SettlePending(ctx context.Context, pp *result.PendingPayout) (*domain.Payout, error)
}

type SweepSummary struct {
	Found     int
	Completed int
	Failed    int
	// Skipped - выплаты, не дошедшие ни до completed, ни до failed:
	// захваченные другим прогоном или оставшиеся в processing
	Skipped int
}

type StaleReport struct {
	Threshold time.Duration
	Tasks     []*result.StaleTask
}

type SyncSummary struct {
	Projects int
	Synced   int
	Failed   int
}

type SweepService struct {
	tasks    TaskRepository
	payouts  PayoutRepository
	projects ProjectRepository
	settler  PayoutSettler
	github   RepoStatsFetcher
	log      *zap.Logger
}

func NewSweepService(
	tasks TaskRepository,
	payouts PayoutRepository,
	projects ProjectRepository,
	settler PayoutSettler,
	github RepoStatsFetcher,
	log *zap.Logger,
) *SweepService {
	return &SweepService{
		tasks:    tasks,
		payouts:  payouts,
		projects: projects,
		settler:  settler,
		github:   github,
		log:      log,
	}
}

// ProcessPendingPayouts проводит до limit самых старых pending выплат.
// Выплаты обрабатываются последовательно.
func (s *SweepService) ProcessPendingPayouts(ctx context.Context, limit int) (*SweepSummary, error) {
	if limit <= 0 {
		limit = DefaultPayoutBatchSize
	}

	pending, err := s.payouts.ListPending(ctx, limit)
	if err != nil {
		metrics.SweepRuns.WithLabelValues(JobPendingPayouts, "error").Inc()
		return nil, mapRepoError(err, nil)
	}

	summary := &SweepSummary{Found: len(pending)}
	for _, pp := range pending {
		if ctx.Err() != nil {
			break
		}

		payout, err := s.settler.SettlePending(ctx, pp)
		if payout != nil {
			switch payout.Status {
			case domain.PayoutCompleted:
				summary.Completed++
			case domain.PayoutFailed:
				summary.Failed++
			}
		}
		if err != nil {
			s.log.Warn("pending payout not settled",
				zap.String("payout_id", pp.Payout.Id.String()),
				zap.Error(err),
			)
		}
	}

	summary.Skipped = summary.Found - summary.Completed - summary.Failed

	metrics.SweepRuns.WithLabelValues(JobPendingPayouts, "ok").Inc()
	s.log.Info("pending payouts processed",
		zap.Int("found", summary.Found),
		zap.Int("completed", summary.Completed),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

// CheckStaleTasks только сообщает об открытых задачах старше olderThan
func (s *SweepService) CheckStaleTasks(ctx context.Context, olderThan time.Duration) (*StaleReport, error) {
	if olderThan <= 0 {
		olderThan = DefaultStaleAfter
	}

	tasks, err := s.tasks.ListStale(ctx, time.Now().Add(-olderThan))
	if err != nil {
		metrics.SweepRuns.WithLabelValues(JobStaleTasks, "error").Inc()
		return nil, mapRepoError(err, nil)
	}
	metrics.SweepRuns.WithLabelValues(JobStaleTasks, "ok").Inc()

	for _, t := range tasks {
		s.log.Info("stale task found",
			zap.String("task_id", t.Task.Id.String()),
			zap.String("repo", t.RepoName),
			zap.String("maintainer_id", t.MaintainerId.String()),
			zap.Time("created_at", t.Task.CreatedAt),
		)
	}
	return &StaleReport{Threshold: olderThan, Tasks: tasks}, nil
}

// SyncGitHubData обновляет звезды, форки и открытые issues активных проектов.
// Ошибка по одному проекту не останавливает остальные.
func (s *SweepService) SyncGitHubData(ctx context.Context) (*SyncSummary, error) {
	projects, err := s.projects.ListActive(ctx)
	if err != nil {
		metrics.SweepRuns.WithLabelValues(JobGitHubSync, "error").Inc()
		return nil, mapRepoError(err, nil)
	}

	summary := &SyncSummary{Projects: len(projects)}
	for _, p := range projects {
		if ctx.Err() != nil {
			break
		}

		stats, err := s.github.FetchRepoStats(ctx, p.Owner, p.RepoName)
		if err != nil {
			s.log.Warn("failed to fetch repository stats",
				zap.String("project_id", p.Id.String()),
				zap.String("repo", p.Owner+"/"+p.RepoName),
				zap.Error(err),
			)
			summary.Failed++
			continue
		}

		err = s.projects.UpdateRepoStats(ctx, &dto.RepoStatsDTO{
			ProjectId:  p.Id,
			Stars:      stats.Stars,
			Forks:      stats.Forks,
			OpenIssues: stats.OpenIssues,
		})
		if err != nil {
			s.log.Warn("failed to store repository stats",
				zap.String("project_id", p.Id.String()),
				zap.Error(err),
			)
			summary.Failed++
			continue
		}
		summary.Synced++
	}

	metrics.SweepRuns.WithLabelValues(JobGitHubSync, "ok").Inc()
	s.log.Info("github data synced",
		zap.Int("projects", summary.Projects),
		zap.Int("synced", summary.Synced),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

// ResetPayout возвращает failed выплату в pending, чтобы ее подобрал следующий sweep
func (s *SweepService) ResetPayout(ctx context.Context, payoutId uuid.UUID) (*domain.Payout, error) {
	ok, err := s.payouts.ResetToPending(ctx, payoutId)
	if err != nil {
		return nil, mapRepoError(err, ErrPayoutNotFound)
	}

	payout, err := s.payouts.GetByID(ctx, payoutId)
	if err != nil {
		return nil, mapRepoError(err, ErrPayoutNotFound)
	}
	if !ok {
		return nil, WrapError(ErrPayoutNotFailed, fmt.Errorf("payout status is %s", payout.Status))
	}

	s.log.Info("payout reset to pending", zap.String("payout_id", payoutId.String()))
	return payout, nil
}
