package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/niklvrr/dotbounty/internal/domain"
	"github.com/niklvrr/dotbounty/internal/infrastructure/models/dto"
	"github.com/niklvrr/dotbounty/internal/infrastructure/models/result"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockTaskRepository мок репозитория задач
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) GetWithProject(ctx context.Context, taskId uuid.UUID) (*result.TaskWithProject, error) {
	args := m.Called(ctx, taskId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*result.TaskWithProject), args.Error(1)
}

func (m *MockTaskRepository) ListByIssueNumber(ctx context.Context, issueNumber int) ([]*result.TaskWithProject, error) {
	args := m.Called(ctx, issueNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*result.TaskWithProject), args.Error(1)
}

func (m *MockTaskRepository) CreateFromIssue(ctx context.Context, d *dto.CreateTaskFromIssueDTO) (*domain.Task, bool, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Task), args.Bool(1), args.Error(2)
}

func (m *MockTaskRepository) FundEscrow(ctx context.Context, taskId uuid.UUID, amount decimal.Decimal) (bool, error) {
	args := m.Called(ctx, taskId, amount)
	return args.Bool(0), args.Error(1)
}

func (m *MockTaskRepository) UpdateEscrowStatus(ctx context.Context, taskId uuid.UUID, from, to domain.EscrowStatus) (bool, error) {
	args := m.Called(ctx, taskId, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockTaskRepository) CloseByIssue(ctx context.Context, projectId uuid.UUID, issueNumber int) (int64, error) {
	args := m.Called(ctx, projectId, issueNumber)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) ListStale(ctx context.Context, createdBefore time.Time) ([]*result.StaleTask, error) {
	args := m.Called(ctx, createdBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*result.StaleTask), args.Error(1)
}

// MockContributionRepository мок репозитория вкладов
type MockContributionRepository struct {
	mock.Mock
}

func (m *MockContributionRepository) GetContext(ctx context.Context, contributionId uuid.UUID) (*result.ContributionContext, error) {
	args := m.Called(ctx, contributionId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*result.ContributionContext), args.Error(1)
}

func (m *MockContributionRepository) UpsertPending(ctx context.Context, d *dto.UpsertContributionDTO) (*domain.Contribution, bool, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Contribution), args.Bool(1), args.Error(2)
}

func (m *MockContributionRepository) HasApproved(ctx context.Context, taskId, contributorId uuid.UUID) (bool, error) {
	args := m.Called(ctx, taskId, contributorId)
	return args.Bool(0), args.Error(1)
}

func (m *MockContributionRepository) FindByTaskAndPr(ctx context.Context, taskId uuid.UUID, prNumber int) (*domain.Contribution, error) {
	args := m.Called(ctx, taskId, prNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contribution), args.Error(1)
}

func (m *MockContributionRepository) Approve(ctx context.Context, contributionId, taskId uuid.UUID, payout *dto.CreatePayoutDTO) (*domain.Payout, bool, error) {
	args := m.Called(ctx, contributionId, taskId, payout)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Payout), args.Bool(1), args.Error(2)
}

func (m *MockContributionRepository) Reject(ctx context.Context, contributionId uuid.UUID) (bool, error) {
	args := m.Called(ctx, contributionId)
	return args.Bool(0), args.Error(1)
}

// MockEscrowManager мок EscrowService для проверок guard
type MockEscrowManager struct {
	mock.Mock
}

func (m *MockEscrowManager) Fund(ctx context.Context, taskId uuid.UUID, amount decimal.Decimal) (*domain.Task, error) {
	args := m.Called(ctx, taskId, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockEscrowManager) Release(ctx context.Context, contributionId uuid.UUID) (*domain.Payout, error) {
	args := m.Called(ctx, contributionId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payout), args.Error(1)
}

func (m *MockEscrowManager) Refund(ctx context.Context, taskId uuid.UUID) (*domain.Task, error) {
	args := m.Called(ctx, taskId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

type MockRepoStatsFetcher struct {
	mock.Mock
}

func (m *MockRepoStatsFetcher) FetchRepoStats(ctx context.Context, owner, repo string) (*result.RepoStats, error) {
	args := m.Called(ctx, owner, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*result.RepoStats), args.Error(1)
}

type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) ListOpenTasks(ctx context.Context, f *dto.TaskFilterDTO) (*result.TaskListResult, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*result.TaskListResult), args.Error(1)
}

func (m *MockStatsRepository) ListActiveProjects(ctx context.Context, f *dto.ProjectFilterDTO) (*result.ProjectListResult, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*result.ProjectListResult), args.Error(1)
}

func (m *MockStatsRepository) GetStats(ctx context.Context, recentSince time.Time) (*result.StatsResult, error) {
	args := m.Called(ctx, recentSince)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*result.StatsResult), args.Error(1)
}

func (m *MockStatsRepository) Leaderboard(ctx context.Context, limit int) ([]*result.LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*result.LeaderboardEntry), args.Error(1)
}
