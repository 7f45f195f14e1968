package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/niklvrr/dotbounty/internal/domain"
	"github.com/niklvrr/dotbounty/internal/infrastructure/models/dto"
	"github.com/niklvrr/dotbounty/internal/infrastructure/models/result"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EscrowManager - операции над escrow, которыми пользуется LifecycleService
type EscrowManager interface {
	Fund(ctx context.Context, taskId uuid.UUID, amount decimal.Decimal) (*domain.Task, error)
	Release(ctx context.Context, contributionId uuid.UUID) (*domain.Payout, error)
	Refund(ctx context.Context, taskId uuid.UUID) (*domain.Task, error)
}

// PayoutOutcome - результат выплаты, независимый от результата одобрения
type PayoutOutcome struct {
	Status          domain.PayoutStatus
	PayoutId        *uuid.UUID
	TransactionHash string
	Error           string
}

type ApprovalResult struct {
	Contribution domain.Contribution
	TaskStatus   domain.TaskStatus
	Payout       PayoutOutcome
}

// DefaultReleaseTimeout ограничивает выплату, запущенную одобрением
const DefaultReleaseTimeout = 2 * time.Minute

type LifecycleService struct {
	tasks          TaskRepository
	contributions  ContributionRepository
	escrow         EscrowManager
	releaseTimeout time.Duration
	log            *zap.Logger
}

func NewLifecycleService(
	tasks TaskRepository,
	contributions ContributionRepository,
	escrow EscrowManager,
	log *zap.Logger,
) *LifecycleService {
	return &LifecycleService{
		tasks:          tasks,
		contributions:  contributions,
		escrow:         escrow,
		releaseTimeout: DefaultReleaseTimeout,
		log:            log,
	}
}

// Approve одобряет вклад от имени мейнтейнера проекта и запускает выплату
func (s *LifecycleService) Approve(ctx context.Context, caller, contributionId uuid.UUID) (*ApprovalResult, error) {
	cc, err := s.guardContribution(ctx, caller, contributionId)
	if err != nil {
		return nil, err
	}
	return s.approve(ctx, cc)
}

// Reject отклоняет вклад от имени мейнтейнера проекта
func (s *LifecycleService) Reject(ctx context.Context, caller, contributionId uuid.UUID) (*domain.Contribution, error) {
	cc, err := s.guardContribution(ctx, caller, contributionId)
	if err != nil {
		return nil, err
	}
	return s.reject(ctx, cc)
}

// ApproveMerged - вход для вебхука о смерженном PR, без проверки вызывающего
func (s *LifecycleService) ApproveMerged(ctx context.Context, contributionId uuid.UUID) (*ApprovalResult, error) {
	cc, err := s.contributions.GetContext(ctx, contributionId)
	if err != nil {
		return nil, mapRepoError(err, ErrContributionNotFound)
	}
	return s.approve(ctx, cc)
}

// RejectClosed - вход для вебхука о закрытом без мержа PR
func (s *LifecycleService) RejectClosed(ctx context.Context, contributionId uuid.UUID) (*domain.Contribution, error) {
	cc, err := s.contributions.GetContext(ctx, contributionId)
	if err != nil {
		return nil, mapRepoError(err, ErrContributionNotFound)
	}
	return s.reject(ctx, cc)
}

// FundEscrow финансирует escrow задачи на сумму ее награды
func (s *LifecycleService) FundEscrow(ctx context.Context, caller, taskId uuid.UUID) (*domain.Task, error) {
	twp, err := s.guardTask(ctx, caller, taskId)
	if err != nil {
		return nil, err
	}
	if twp.Task.EscrowStatus != domain.EscrowPending {
		return nil, WrapError(ErrAlreadyFunded, fmt.Errorf("escrow status is %s", twp.Task.EscrowStatus))
	}
	return s.escrow.Fund(ctx, taskId, twp.Task.Reward)
}

func (s *LifecycleService) RefundEscrow(ctx context.Context, caller, taskId uuid.UUID) (*domain.Task, error) {
	twp, err := s.guardTask(ctx, caller, taskId)
	if err != nil {
		return nil, err
	}
	if twp.Task.EscrowStatus != domain.EscrowFunded {
		return nil, WrapError(ErrNotFunded, fmt.Errorf("escrow status is %s", twp.Task.EscrowStatus))
	}
	return s.escrow.Refund(ctx, taskId)
}

// Порядок проверок: личность, существование, владение
func (s *LifecycleService) guardContribution(ctx context.Context, caller, contributionId uuid.UUID) (*result.ContributionContext, error) {
	if caller == uuid.Nil {
		return nil, ErrUnauthorized
	}
	cc, err := s.contributions.GetContext(ctx, contributionId)
	if err != nil {
		return nil, mapRepoError(err, ErrContributionNotFound)
	}
	if cc.Project.MaintainerId != caller {
		s.log.Warn("non-maintainer attempted contribution transition",
			zap.String("caller", caller.String()),
			zap.String("contribution_id", contributionId.String()),
		)
		return nil, ErrNotMaintainer
	}
	return cc, nil
}

func (s *LifecycleService) guardTask(ctx context.Context, caller, taskId uuid.UUID) (*result.TaskWithProject, error) {
	if caller == uuid.Nil {
		return nil, ErrUnauthorized
	}
	twp, err := s.tasks.GetWithProject(ctx, taskId)
	if err != nil {
		return nil, mapRepoError(err, ErrTaskNotFound)
	}
	if twp.Project.MaintainerId != caller {
		s.log.Warn("non-maintainer attempted escrow operation",
			zap.String("caller", caller.String()),
			zap.String("task_id", taskId.String()),
		)
		return nil, ErrNotMaintainer
	}
	return twp, nil
}

// approve фиксирует одобрение вместе с pending выплатой одной транзакцией и
// только потом пытается выплатить. Ошибка выплаты попадает в PayoutOutcome
// и одобрение не откатывает; непроведенную выплату подберет sweep.
func (s *LifecycleService) approve(ctx context.Context, cc *result.ContributionContext) (*ApprovalResult, error) {
	c := cc.Contribution
	if c.Status.IsTerminal() {
		return nil, WrapError(ErrContributionFinalized, fmt.Errorf("contribution is %s", c.Status))
	}

	queued, ok, err := s.contributions.Approve(ctx, c.Id, c.TaskId, &dto.CreatePayoutDTO{
		ContributionId: c.Id,
		RecipientId:    c.ContributorId,
		Amount:         cc.Task.PayoutAmount(),
		Address:        cc.ContributorAddress,
		Status:         domain.PayoutPending,
	})
	if err != nil {
		return nil, mapRepoError(err, ErrContributionNotFound)
	}
	if !ok {
		return nil, ErrContributionFinalized
	}

	now := time.Now()
	c.Status = domain.ContributionApproved
	c.ApprovedAt = &now

	res := &ApprovalResult{
		Contribution: c,
		TaskStatus:   domain.TaskCompleted,
	}

	// отмена запроса после коммита не должна оборвать выплату
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.releaseTimeout)
	defer cancel()

	payout, err := s.escrow.Release(releaseCtx, c.Id)
	if payout == nil {
		payout = queued
	}
	res.Payout = payoutOutcome(payout, err)
	if err != nil {
		s.log.Warn("contribution approved, payout not completed",
			zap.String("contribution_id", c.Id.String()),
			zap.Error(err),
		)
	} else {
		s.log.Info("contribution approved and paid",
			zap.String("contribution_id", c.Id.String()),
			zap.String("tx_hash", payout.TransactionHash),
		)
	}
	return res, nil
}

func (s *LifecycleService) reject(ctx context.Context, cc *result.ContributionContext) (*domain.Contribution, error) {
	c := cc.Contribution
	if c.Status.IsTerminal() {
		return nil, WrapError(ErrContributionFinalized, fmt.Errorf("contribution is %s", c.Status))
	}

	ok, err := s.contributions.Reject(ctx, c.Id)
	if err != nil {
		return nil, mapRepoError(err, ErrContributionNotFound)
	}
	if !ok {
		return nil, ErrContributionFinalized
	}
	c.Status = domain.ContributionRejected

	s.log.Info("contribution rejected", zap.String("contribution_id", c.Id.String()))
	return &c, nil
}

func payoutOutcome(payout *domain.Payout, err error) PayoutOutcome {
	var out PayoutOutcome
	if payout != nil {
		id := payout.Id
		out.PayoutId = &id
		out.Status = payout.Status
		out.TransactionHash = payout.TransactionHash
	}
	if err != nil {
		out.Error = err.Error()
		if payout == nil {
			out.Status = domain.PayoutFailed
		}
	}
	return out
}
