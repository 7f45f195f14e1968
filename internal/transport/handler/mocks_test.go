package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/niklvrr/dotbounty/internal/domain"
	"github.com/niklvrr/dotbounty/internal/infrastructure/models/dto"
	"github.com/niklvrr/dotbounty/internal/infrastructure/models/result"
	"github.com/niklvrr/dotbounty/internal/usecase/service"
	"github.com/stretchr/testify/mock"
)

type MockContributionService struct {
	mock.Mock
}

func (m *MockContributionService) Approve(ctx context.Context, caller, contributionId uuid.UUID) (*service.ApprovalResult, error) {
	args := m.Called(ctx, caller, contributionId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ApprovalResult), args.Error(1)
}

func (m *MockContributionService) Reject(ctx context.Context, caller, contributionId uuid.UUID) (*domain.Contribution, error) {
	args := m.Called(ctx, caller, contributionId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contribution), args.Error(1)
}

type MockEscrowService struct {
	mock.Mock
}

func (m *MockEscrowService) FundEscrow(ctx context.Context, caller, taskId uuid.UUID) (*domain.Task, error) {
	args := m.Called(ctx, caller, taskId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockEscrowService) RefundEscrow(ctx context.Context, caller, taskId uuid.UUID) (*domain.Task, error) {
	args := m.Called(ctx, caller, taskId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

type MockTaskQueryService struct {
	mock.Mock
}

func (m *MockTaskQueryService) ListTasks(ctx context.Context, f *dto.TaskFilterDTO) (*result.TaskListResult, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*result.TaskListResult), args.Error(1)
}

func (m *MockTaskQueryService) GetTask(ctx context.Context, taskId uuid.UUID) (*result.TaskWithProject, error) {
	args := m.Called(ctx, taskId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*result.TaskWithProject), args.Error(1)
}

func (m *MockTaskQueryService) EscrowFundingURI(ctx context.Context, taskId uuid.UUID) (string, error) {
	args := m.Called(ctx, taskId)
	return args.String(0), args.Error(1)
}

type MockQueryService struct {
	mock.Mock
}

func (m *MockQueryService) ListProjects(ctx context.Context, f *dto.ProjectFilterDTO) (*result.ProjectListResult, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*result.ProjectListResult), args.Error(1)
}

func (m *MockQueryService) Stats(ctx context.Context) (*result.StatsResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*result.StatsResult), args.Error(1)
}

func (m *MockQueryService) Leaderboard(ctx context.Context, limit int) ([]*result.LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*result.LeaderboardEntry), args.Error(1)
}

type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) SetWalletAddress(ctx context.Context, caller uuid.UUID, address string) (*domain.Profile, error) {
	args := m.Called(ctx, caller, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

type MockWebhookService struct {
	mock.Mock
}

func (m *MockWebhookService) HandlePullRequest(ctx context.Context, ev *service.PullRequestEvent) (*service.WebhookResult, error) {
	args := m.Called(ctx, ev)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.WebhookResult), args.Error(1)
}

func (m *MockWebhookService) HandleIssue(ctx context.Context, ev *service.IssueEvent) (*service.WebhookResult, error) {
	args := m.Called(ctx, ev)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.WebhookResult), args.Error(1)
}

type MockSweepService struct {
	mock.Mock
}

func (m *MockSweepService) ProcessPendingPayouts(ctx context.Context, limit int) (*service.SweepSummary, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SweepSummary), args.Error(1)
}

func (m *MockSweepService) CheckStaleTasks(ctx context.Context, olderThan time.Duration) (*service.StaleReport, error) {
	args := m.Called(ctx, olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StaleReport), args.Error(1)
}

func (m *MockSweepService) SyncGitHubData(ctx context.Context) (*service.SyncSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SyncSummary), args.Error(1)
}

func (m *MockSweepService) ResetPayout(ctx context.Context, payoutId uuid.UUID) (*domain.Payout, error) {
	args := m.Called(ctx, payoutId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payout), args.Error(1)
}

type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// withURLParam кладет chi параметр маршрута в запрос, как это делает роутер
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

type errorBody struct {
	Error ErrorDetail `json:"error"`
}
