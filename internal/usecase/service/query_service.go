package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/niklvrr/dotbounty/internal/infrastructure/models/dto"
	"github.com/niklvrr/dotbounty/internal/infrastructure/models/result"
	"go.uber.org/zap"
)

const (
	DefaultPageLimit        = 20
	MaxPageLimit            = 100
	DefaultLeaderboardLimit = 10
	recentActivityWindow    = 7 * 24 * time.Hour
)

// QueryService - чтение задач, проектов и агрегатов
type QueryService struct {
	tasks           TaskRepository
	stats           StatsRepository
	platformAddress string
	log             *zap.Logger
}

func NewQueryService(tasks TaskRepository, stats StatsRepository, platformAddress string, log *zap.Logger) *QueryService {
	return &QueryService{
		tasks:           tasks,
		stats:           stats,
		platformAddress: platformAddress,
		log:             log,
	}
}

func (s *QueryService) ListTasks(ctx context.Context, f *dto.TaskFilterDTO) (*result.TaskListResult, error) {
	f.Limit, f.Offset = normalizePage(f.Limit, f.Offset)
	if f.MinReward != nil && f.MaxReward != nil && f.MinReward.GreaterThan(*f.MaxReward) {
		return nil, WrapError(ErrInvalidInput, fmt.Errorf("minReward %s is greater than maxReward %s", f.MinReward, f.MaxReward))
	}

	res, err := s.stats.ListOpenTasks(ctx, f)
	if err != nil {
		return nil, mapRepoError(err, nil)
	}
	return res, nil
}

func (s *QueryService) GetTask(ctx context.Context, taskId uuid.UUID) (*result.TaskWithProject, error) {
	twp, err := s.tasks.GetWithProject(ctx, taskId)
	if err != nil {
		return nil, mapRepoError(err, ErrTaskNotFound)
	}
	return twp, nil
}

func (s *QueryService) ListProjects(ctx context.Context, f *dto.ProjectFilterDTO) (*result.ProjectListResult, error) {
	f.Limit, f.Offset = normalizePage(f.Limit, f.Offset)

	res, err := s.stats.ListActiveProjects(ctx, f)
	if err != nil {
		return nil, mapRepoError(err, nil)
	}
	return res, nil
}

func (s *QueryService) Stats(ctx context.Context) (*result.StatsResult, error) {
	res, err := s.stats.GetStats(ctx, time.Now().Add(-recentActivityWindow))
	if err != nil {
		return nil, mapRepoError(err, nil)
	}
	return res, nil
}

func (s *QueryService) Leaderboard(ctx context.Context, limit int) ([]*result.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	entries, err := s.stats.Leaderboard(ctx, limit)
	if err != nil {
		return nil, mapRepoError(err, nil)
	}
	return entries, nil
}

// EscrowFundingURI строит ссылку для перевода награды задачи на адрес платформы
// с id задачи в memo. Используется для QR-кода.
func (s *QueryService) EscrowFundingURI(ctx context.Context, taskId uuid.UUID) (string, error) {
	if s.platformAddress == "" {
		return "", WrapError(ErrInvalidInput, fmt.Errorf("platform address is not configured"))
	}

	twp, err := s.tasks.GetWithProject(ctx, taskId)
	if err != nil {
		return "", mapRepoError(err, ErrTaskNotFound)
	}

	q := url.Values{}
	q.Set("amount", twp.Task.Reward.String())
	q.Set("memo", twp.Task.Id.String())
	return "polkadot:" + s.platformAddress + "?" + q.Encode(), nil
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
