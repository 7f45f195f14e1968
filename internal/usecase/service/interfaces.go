package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/niklvrr/dotbounty/internal/domain"
	"github.com/niklvrr/dotbounty/internal/infrastructure/models/dto"
	"github.com/niklvrr/dotbounty/internal/infrastructure/models/result"
	"github.com/shopspring/decimal"
)

// Интерфейсы репозиториев
type TaskRepository interface {
	GetWithProject(ctx context.Context, taskId uuid.UUID) (*result.TaskWithProject, error)
	ListByIssueNumber(ctx context.Context, issueNumber int) ([]*result.TaskWithProject, error)
	CreateFromIssue(ctx context.Context, d *dto.CreateTaskFromIssueDTO) (*domain.Task, bool, error)
	FundEscrow(ctx context.Context, taskId uuid.UUID, amount decimal.Decimal) (bool, error)
	UpdateEscrowStatus(ctx context.Context, taskId uuid.UUID, from, to domain.EscrowStatus) (bool, error)
	CloseByIssue(ctx context.Context, projectId uuid.UUID, issueNumber int) (int64, error)
	ListStale(ctx context.Context, createdBefore time.Time) ([]*result.StaleTask, error)
}

type ContributionRepository interface {
	GetContext(ctx context.Context, contributionId uuid.UUID) (*result.ContributionContext, error)
	UpsertPending(ctx context.Context, d *dto.UpsertContributionDTO) (*domain.Contribution, bool, error)
	HasApproved(ctx context.Context, taskId, contributorId uuid.UUID) (bool, error)
	FindByTaskAndPr(ctx context.Context, taskId uuid.UUID, prNumber int) (*domain.Contribution, error)
	Approve(ctx context.Context, contributionId, taskId uuid.UUID, payout *dto.CreatePayoutDTO) (*domain.Payout, bool, error)
	Reject(ctx context.Context, contributionId uuid.UUID) (bool, error)
}

type PayoutRepository interface {
	Create(ctx context.Context, d *dto.CreatePayoutDTO) (*domain.Payout, error)
	GetByID(ctx context.Context, payoutId uuid.UUID) (*domain.Payout, error)
	GetPendingByContribution(ctx context.Context, contributionId uuid.UUID) (*domain.Payout, error)
	Claim(ctx context.Context, payoutId uuid.UUID) (bool, error)
	MarkCompleted(ctx context.Context, payoutId uuid.UUID, address, txHash string) error
	MarkFailed(ctx context.Context, payoutId uuid.UUID, reason string) error
	ResetToPending(ctx context.Context, payoutId uuid.UUID) (bool, error)
	ListPending(ctx context.Context, limit int) ([]*result.PendingPayout, error)
	HasCompletedForTask(ctx context.Context, taskId uuid.UUID) (bool, error)
}

type ProjectRepository interface {
	GetByRepoURL(ctx context.Context, repoURL string) (*domain.Project, error)
	ListActive(ctx context.Context) ([]*domain.Project, error)
	UpdateRepoStats(ctx context.Context, d *dto.RepoStatsDTO) error
}

type ProfileRepository interface {
	GetByGitHubUsername(ctx context.Context, login string) (*domain.Profile, error)
	UpdateWalletAddress(ctx context.Context, userId uuid.UUID, address string) (*domain.Profile, error)
}

type StatsRepository interface {
	ListOpenTasks(ctx context.Context, f *dto.TaskFilterDTO) (*result.TaskListResult, error)
	ListActiveProjects(ctx context.Context, f *dto.ProjectFilterDTO) (*result.ProjectListResult, error)
	GetStats(ctx context.Context, recentSince time.Time) (*result.StatsResult, error)
	Leaderboard(ctx context.Context, limit int) ([]*result.LeaderboardEntry, error)
}

// ChainClient отправляет перевод и возвращает идентификатор транзакции
type ChainClient interface {
	Transfer(ctx context.Context, to string, amount decimal.Decimal) (string, error)
}

// RepoStatsFetcher читает статистику репозитория из GitHub
type RepoStatsFetcher interface {
	FetchRepoStats(ctx context.Context, owner, repo string) (*result.RepoStats, error)
}

// AddressValidator проверяет адрес кошелька получателя
type AddressValidator func(address string) error
