package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/niklvrr/dotbounty/internal/domain"
	"github.com/niklvrr/dotbounty/internal/infrastructure/models/dto"
	"github.com/niklvrr/dotbounty/internal/infrastructure/models/result"
	"go.uber.org/zap"
)

const (
	insertPayoutQuery = `
INSERT INTO payouts AS po (contribution_id, recipient_user_id, amount_dot, polkadot_address, status, failure_reason)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING` + payoutColumns + `;`

	selectPayoutQuery = `
SELECT` + payoutColumns + `
FROM payouts po
WHERE po.id = $1;`

	completePayoutQuery = `
UPDATE payouts
SET status = 'completed',
    polkadot_address = $2,
    transaction_hash = $3,
    failure_reason = '',
    paid_at = CURRENT_TIMESTAMP,
    updated_at = CURRENT_TIMESTAMP
WHERE id = $1 AND status = 'processing';`

	failPayoutQuery = `
UPDATE payouts
SET status = 'failed',
    failure_reason = $2,
    updated_at = CURRENT_TIMESTAMP
WHERE id = $1 AND status IN ('pending', 'processing');`

	claimPayoutQuery = `
UPDATE payouts
SET status = 'processing',
    updated_at = CURRENT_TIMESTAMP
WHERE id = $1 AND status = 'pending';`

	selectPendingByContributionQuery = `
SELECT` + payoutColumns + `
FROM payouts po
WHERE po.contribution_id = $1 AND po.status = 'pending'
ORDER BY po.created_at
LIMIT 1;`

	resetPayoutQuery = `
UPDATE payouts
SET status = 'pending',
    failure_reason = '',
    updated_at = CURRENT_TIMESTAMP
WHERE id = $1 AND status = 'failed';`

	// адрес берется из профиля: получатель мог указать кошелек после неудачной выплаты
	selectPendingPayoutsQuery = `
SELECT` + payoutColumns + `,
    t.id,
    t.escrow_status,
    COALESCE(NULLIF(pr.polkadot_address, ''), po.polkadot_address)
FROM payouts po
JOIN contributions c ON c.id = po.contribution_id
JOIN tasks t ON t.id = c.task_id
LEFT JOIN profiles pr ON pr.id = po.recipient_user_id
WHERE po.status = 'pending'
ORDER BY po.created_at
LIMIT $1;`

	selectCompletedForTaskQuery = `
SELECT EXISTS(
    SELECT 1 FROM payouts po
    JOIN contributions c ON c.id = po.contribution_id
    WHERE c.task_id = $1 AND po.status = 'completed'
);`
)

type PayoutRepository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewPayoutRepository(db *pgxpool.Pool, log *zap.Logger) *PayoutRepository {
	return &PayoutRepository{
		db:  db,
		log: log,
	}
}

func (r *PayoutRepository) Create(ctx context.Context, d *dto.CreatePayoutDTO) (*domain.Payout, error) {
	r.log.Info("create payout started",
		zap.String("contribution_id", d.ContributionId.String()),
		zap.String("amount", d.Amount.String()),
		zap.String("status", string(d.Status)),
	)

	p := &domain.Payout{}
	err := r.db.QueryRow(ctx, insertPayoutQuery,
		d.ContributionId,
		d.RecipientId,
		d.Amount,
		d.Address,
		d.Status,
		d.FailureReason,
	).Scan(payoutDest(p)...)
	if err != nil {
		r.log.Error("failed to insert payout",
			zap.String("contribution_id", d.ContributionId.String()),
			zap.Error(err),
		)
		return nil, handleDBError(err)
	}

	r.log.Info("payout created", zap.String("payout_id", p.Id.String()))
	return p, nil
}

func (r *PayoutRepository) GetByID(ctx context.Context, payoutId uuid.UUID) (*domain.Payout, error) {
	p := &domain.Payout{}
	if err := r.db.QueryRow(ctx, selectPayoutQuery, payoutId).Scan(payoutDest(p)...); err != nil {
		return nil, handleDBError(err)
	}
	return p, nil
}

// GetPendingByContribution возвращает самую старую pending выплату вклада
func (r *PayoutRepository) GetPendingByContribution(ctx context.Context, contributionId uuid.UUID) (*domain.Payout, error) {
	p := &domain.Payout{}
	if err := r.db.QueryRow(ctx, selectPendingByContributionQuery, contributionId).Scan(payoutDest(p)...); err != nil {
		return nil, handleDBError(err)
	}
	return p, nil
}

// Claim переводит выплату pending -> processing. Проводить выплату может
// только тот, кто ее захватил; false, если выплата уже не pending.
func (r *PayoutRepository) Claim(ctx context.Context, payoutId uuid.UUID) (bool, error) {
	cmdTag, err := r.db.Exec(ctx, claimPayoutQuery, payoutId)
	if err != nil {
		r.log.Error("failed to claim payout",
			zap.String("payout_id", payoutId.String()),
			zap.Error(err),
		)
		return false, handleDBError(err)
	}
	return cmdTag.RowsAffected() == 1, nil
}

func (r *PayoutRepository) MarkCompleted(ctx context.Context, payoutId uuid.UUID, address, txHash string) error {
	cmdTag, err := r.db.Exec(ctx, completePayoutQuery, payoutId, address, txHash)
	if err != nil {
		r.log.Error("failed to complete payout",
			zap.String("payout_id", payoutId.String()),
			zap.String("tx_hash", txHash),
			zap.Error(err),
		)
		return handleDBError(err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	r.log.Info("payout completed",
		zap.String("payout_id", payoutId.String()),
		zap.String("tx_hash", txHash),
	)
	return nil
}

func (r *PayoutRepository) MarkFailed(ctx context.Context, payoutId uuid.UUID, reason string) error {
	cmdTag, err := r.db.Exec(ctx, failPayoutQuery, payoutId, reason)
	if err != nil {
		r.log.Error("failed to mark payout failed",
			zap.String("payout_id", payoutId.String()),
			zap.Error(err),
		)
		return handleDBError(err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	r.log.Warn("payout failed",
		zap.String("payout_id", payoutId.String()),
		zap.String("reason", reason),
	)
	return nil
}

// ResetToPending возвращает failed выплату в очередь. false, если выплата не failed
func (r *PayoutRepository) ResetToPending(ctx context.Context, payoutId uuid.UUID) (bool, error) {
	cmdTag, err := r.db.Exec(ctx, resetPayoutQuery, payoutId)
	if err != nil {
		return false, handleDBError(err)
	}
	return cmdTag.RowsAffected() == 1, nil
}

func (r *PayoutRepository) ListPending(ctx context.Context, limit int) ([]*result.PendingPayout, error) {
	rows, err := r.db.Query(ctx, selectPendingPayoutsQuery, limit)
	if err != nil {
		r.log.Error("failed to select pending payouts", zap.Error(err))
		return nil, handleDBError(err)
	}
	defer rows.Close()

	var payouts []*result.PendingPayout
	for rows.Next() {
		pp := &result.PendingPayout{}
		dest := append(payoutDest(&pp.Payout), &pp.TaskId, &pp.EscrowStatus, &pp.CurrentAddress)
		if err := rows.Scan(dest...); err != nil {
			return nil, handleDBError(err)
		}
		payouts = append(payouts, pp)
	}
	if err := rows.Err(); err != nil {
		return nil, handleDBError(err)
	}

	r.log.Debug("pending payouts loaded", zap.Int("count", len(payouts)))
	return payouts, nil
}

func (r *PayoutRepository) HasCompletedForTask(ctx context.Context, taskId uuid.UUID) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, selectCompletedForTaskQuery, taskId).Scan(&exists); err != nil {
		return false, handleDBError(err)
	}
	return exists, nil
}
