package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/niklvrr/dotbounty/internal/domain"
	"github.com/niklvrr/dotbounty/internal/infrastructure/models/dto"
	"github.com/niklvrr/dotbounty/internal/infrastructure/models/result"
	"github.com/niklvrr/dotbounty/internal/infrastructure/repository"
	"github.com/niklvrr/dotbounty/pkg/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EscrowService - единственный компонент, который меняет escrow_status
// и создает/закрывает выплаты
type EscrowService struct {
	tasks         TaskRepository
	contributions ContributionRepository
	payouts       PayoutRepository
	chain         ChainClient
	log           *zap.Logger
}

func NewEscrowService(
	tasks TaskRepository,
	contributions ContributionRepository,
	payouts PayoutRepository,
	chain ChainClient,
	log *zap.Logger,
) *EscrowService {
	return &EscrowService{
		tasks:         tasks,
		contributions: contributions,
		payouts:       payouts,
		chain:         chain,
		log:           log,
	}
}

// Fund переводит escrow задачи pending -> funded и фиксирует сумму.
// Средства блокируются отложенно: статус ставится сразу, сверка идет позже.
func (s *EscrowService) Fund(ctx context.Context, taskId uuid.UUID, amount decimal.Decimal) (*domain.Task, error) {
	if amount.IsNegative() {
		return nil, WrapError(ErrInvalidInput, fmt.Errorf("negative escrow amount %s", amount))
	}

	twp, err := s.tasks.GetWithProject(ctx, taskId)
	if err != nil {
		return nil, mapRepoError(err, ErrTaskNotFound)
	}
	task := &twp.Task

	if task.EscrowStatus != domain.EscrowPending {
		return nil, WrapError(ErrAlreadyFunded, fmt.Errorf("escrow status is %s", task.EscrowStatus))
	}

	ok, err := s.tasks.FundEscrow(ctx, taskId, amount)
	if err != nil {
		return nil, mapRepoError(err, ErrTaskNotFound)
	}
	if !ok {
		// задачу профинансировали между чтением и записью
		return nil, ErrAlreadyFunded
	}
	metrics.EscrowTransitions.WithLabelValues(string(domain.EscrowPending), string(domain.EscrowFunded)).Inc()

	now := time.Now()
	task.EscrowStatus = domain.EscrowFunded
	task.EscrowAmount = decimal.NewNullDecimal(amount)
	task.EscrowFundedAt = &now

	s.log.Info("escrow funded",
		zap.String("task_id", taskId.String()),
		zap.String("amount", amount.String()),
	)
	return task, nil
}

// Release проводит выплату автору вклада из escrow задачи. Берется pending выплата,
// поставленная при одобрении; если ее нет, создается новая.
// Неудачная попытка оставляет выплату в failed, а escrow в funded.
func (s *EscrowService) Release(ctx context.Context, contributionId uuid.UUID) (*domain.Payout, error) {
	cc, err := s.contributions.GetContext(ctx, contributionId)
	if err != nil {
		return nil, mapRepoError(err, ErrContributionNotFound)
	}
	task := &cc.Task

	payout, err := s.payouts.GetPendingByContribution(ctx, contributionId)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		if task.EscrowStatus == domain.EscrowReleased {
			paid, err := s.payouts.HasCompletedForTask(ctx, task.Id)
			if err != nil {
				return nil, mapRepoError(err, nil)
			}
			if paid {
				return nil, ErrEscrowReleased
			}
		}
		payout, err = s.payouts.Create(ctx, &dto.CreatePayoutDTO{
			ContributionId: cc.Contribution.Id,
			RecipientId:    cc.Contribution.ContributorId,
			Amount:         task.PayoutAmount(),
			Address:        cc.ContributorAddress,
			Status:         domain.PayoutPending,
		})
		if err != nil {
			return nil, mapRepoError(err, nil)
		}
	default:
		return nil, mapRepoError(err, nil)
	}

	return s.settle(ctx, payout, task.Id, task.EscrowStatus, cc.ContributorAddress)
}

// Refund переводит escrow funded -> refunded. Выплата не создается.
func (s *EscrowService) Refund(ctx context.Context, taskId uuid.UUID) (*domain.Task, error) {
	twp, err := s.tasks.GetWithProject(ctx, taskId)
	if err != nil {
		return nil, mapRepoError(err, ErrTaskNotFound)
	}
	task := &twp.Task

	if task.EscrowStatus != domain.EscrowFunded {
		return nil, WrapError(ErrNotFunded, fmt.Errorf("escrow status is %s", task.EscrowStatus))
	}

	ok, err := s.transition(ctx, taskId, domain.EscrowFunded, domain.EscrowRefunded)
	if err != nil {
		return nil, mapRepoError(err, ErrTaskNotFound)
	}
	if !ok {
		return nil, ErrNotFunded
	}
	task.EscrowStatus = domain.EscrowRefunded

	s.log.Info("escrow refunded", zap.String("task_id", taskId.String()))
	return task, nil
}

// SettlePending проводит выплату, которую sweep нашел в статусе pending.
// Адрес берется актуальный из профиля получателя.
func (s *EscrowService) SettlePending(ctx context.Context, pp *result.PendingPayout) (*domain.Payout, error) {
	return s.settle(ctx, &pp.Payout, pp.TaskId, pp.EscrowStatus, pp.CurrentAddress)
}

// settle захватывает выплату (pending -> processing), затем escrow условным
// апдейтом funded -> released, делает перевод и закрывает выплату.
// При ошибке перевода escrow возвращается в funded, выплата уходит в failed.
// Если перевод прошел, а записать результат не удалось, выплата остается
// в processing до ручной сверки.
func (s *EscrowService) settle(ctx context.Context, payout *domain.Payout, taskId uuid.UUID, escrow domain.EscrowStatus, address string) (*domain.Payout, error) {
	log := s.log.With(
		zap.String("payout_id", payout.Id.String()),
		zap.String("task_id", taskId.String()),
	)

	claimed, err := s.payouts.Claim(ctx, payout.Id)
	if err != nil {
		return payout, mapRepoError(err, nil)
	}
	if !claimed {
		log.Info("payout is already being processed")
		return payout, ErrPayoutInFlight
	}
	payout.Status = domain.PayoutProcessing

	switch {
	case address == "":
		s.fail(ctx, payout, ErrWalletMissing.Message)
		return payout, ErrWalletMissing
	case escrow == domain.EscrowReleased:
		// перевод по задаче мог уже уйти, автоматически не повторяем
		log.Warn("escrow already released, payout needs reconciliation")
		s.fail(ctx, payout, ErrNeedsReconciliation.Message)
		return payout, ErrNeedsReconciliation
	}

	escrowClaimed, err := s.transition(ctx, taskId, domain.EscrowFunded, domain.EscrowReleased)
	if err != nil {
		s.fail(ctx, payout, "escrow claim failed")
		return payout, mapRepoError(err, nil)
	}
	if !escrowClaimed {
		log.Warn("escrow is no longer funded, payout aborted")
		s.fail(ctx, payout, ErrEscrowNotFunded.Message)
		return payout, ErrEscrowNotFunded
	}

	txHash, err := s.chain.Transfer(ctx, address, payout.Amount)
	if err != nil {
		log.Error("chain transfer failed", zap.Error(err))
		s.restore(ctx, taskId)
		s.fail(ctx, payout, err.Error())
		return payout, WrapError(ErrTransferFailed, err)
	}
	payout.Address = address
	payout.TransactionHash = txHash

	if err := s.payouts.MarkCompleted(context.WithoutCancel(ctx), payout.Id, address, txHash); err != nil {
		log.Error("transfer submitted but payout not recorded",
			zap.String("tx_hash", txHash),
			zap.Error(err),
		)
		return payout, mapRepoError(err, nil)
	}

	now := time.Now()
	payout.Status = domain.PayoutCompleted
	payout.FailureReason = ""
	payout.PaidAt = &now
	metrics.Payouts.WithLabelValues(string(domain.PayoutCompleted)).Inc()

	log.Info("escrow released",
		zap.String("amount", payout.Amount.String()),
		zap.String("tx_hash", txHash),
	)
	return payout, nil
}

// fail переводит выплату в failed. Вызывается и после отмены запроса,
// поэтому пишет без дедлайна родительского контекста.
func (s *EscrowService) fail(ctx context.Context, payout *domain.Payout, reason string) {
	if err := s.payouts.MarkFailed(context.WithoutCancel(ctx), payout.Id, reason); err != nil {
		s.log.Error("failed to mark payout failed",
			zap.String("payout_id", payout.Id.String()),
			zap.Error(err),
		)
		return
	}
	payout.Status = domain.PayoutFailed
	payout.FailureReason = reason
	metrics.Payouts.WithLabelValues(string(domain.PayoutFailed)).Inc()
}

func (s *EscrowService) restore(ctx context.Context, taskId uuid.UUID) {
	ok, err := s.transition(context.WithoutCancel(ctx), taskId, domain.EscrowReleased, domain.EscrowFunded)
	if err != nil || !ok {
		s.log.Error("failed to restore escrow after transfer failure",
			zap.String("task_id", taskId.String()),
			zap.Bool("restored", ok),
			zap.Error(err),
		)
	}
}

func (s *EscrowService) transition(ctx context.Context, taskId uuid.UUID, from, to domain.EscrowStatus) (bool, error) {
	if !from.CanTransitionTo(to) {
		return false, fmt.Errorf("escrow transition %s -> %s is not allowed", from, to)
	}
	ok, err := s.tasks.UpdateEscrowStatus(ctx, taskId, from, to)
	if err != nil {
		return false, err
	}
	if ok {
		metrics.EscrowTransitions.WithLabelValues(string(from), string(to)).Inc()
	}
	return ok, nil
}
