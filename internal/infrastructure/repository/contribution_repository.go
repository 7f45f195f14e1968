package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/niklvrr/dotbounty/internal/domain"
	"github.com/niklvrr/dotbounty/internal/infrastructure/models/dto"
	"github.com/niklvrr/dotbounty/internal/infrastructure/models/result"
	"go.uber.org/zap"
)

const (
	selectContributionContextQuery = `
SELECT` + contributionColumns + `,` + taskColumns + `,` + projectColumns + `,
    COALESCE(pr.polkadot_address, '')
FROM contributions c
JOIN tasks t ON t.id = c.task_id
JOIN projects p ON p.id = t.project_id
LEFT JOIN profiles pr ON pr.id = c.contributor_user_id
WHERE c.id = $1;`

	upsertPendingContributionQuery = `
INSERT INTO contributions AS c (task_id, contributor_user_id, github_pr_number, github_pr_url, status)
VALUES ($1, $2, $3, $4, 'pending')
ON CONFLICT (task_id, contributor_user_id) WHERE status = 'pending'
DO UPDATE SET github_pr_number = EXCLUDED.github_pr_number,
              github_pr_url = EXCLUDED.github_pr_url
RETURNING` + contributionColumns + `, (xmax = 0);`

	selectApprovedExistsQuery = `
SELECT EXISTS(
    SELECT 1 FROM contributions
    WHERE task_id = $1 AND contributor_user_id = $2 AND status = 'approved'
);`

	// живой вклад важнее завершенных, дальше самый свежий
	selectContributionByPrQuery = `
SELECT` + contributionColumns + `
FROM contributions c
WHERE c.task_id = $1 AND c.github_pr_number = $2
ORDER BY (c.status = 'pending') DESC, c.submitted_at DESC
LIMIT 1;`

	approveContributionQuery = `
UPDATE contributions
SET status = 'approved',
    approved_at = CURRENT_TIMESTAMP
WHERE id = $1 AND status = 'pending';`

	completeTaskQuery = `
UPDATE tasks
SET status = 'completed',
    completed_at = CURRENT_TIMESTAMP
WHERE id = $1;`

	rejectContributionQuery = `
UPDATE contributions
SET status = 'rejected'
WHERE id = $1 AND status = 'pending';`
)

type ContributionRepository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewContributionRepository(db *pgxpool.Pool, log *zap.Logger) *ContributionRepository {
	return &ContributionRepository{
		db:  db,
		log: log,
	}
}

func (r *ContributionRepository) GetContext(ctx context.Context, contributionId uuid.UUID) (*result.ContributionContext, error) {
	res := &result.ContributionContext{}
	dest := concat(
		contributionDest(&res.Contribution),
		taskDest(&res.Task),
		projectDest(&res.Project),
		[]any{&res.ContributorAddress},
	)
	if err := r.db.QueryRow(ctx, selectContributionContextQuery, contributionId).Scan(dest...); err != nil {
		err = handleDBError(err)
		if !errors.Is(err, ErrNotFound) {
			r.log.Error("failed to load contribution context",
				zap.String("contribution_id", contributionId.String()),
				zap.Error(err),
			)
		}
		return nil, err
	}
	return res, nil
}

// UpsertPending создает живой вклад или обновляет ссылку на PR у существующего.
// Терминальные вклады не затрагиваются.
func (r *ContributionRepository) UpsertPending(ctx context.Context, d *dto.UpsertContributionDTO) (*domain.Contribution, bool, error) {
	r.log.Info("upsert contribution started",
		zap.String("task_id", d.TaskId.String()),
		zap.String("contributor_id", d.ContributorId.String()),
		zap.Int("pr_number", d.PrNumber),
	)

	c := &domain.Contribution{}
	var inserted bool
	err := r.db.QueryRow(ctx, upsertPendingContributionQuery,
		d.TaskId,
		d.ContributorId,
		d.PrNumber,
		d.PrURL,
	).Scan(append(contributionDest(c), &inserted)...)
	if err != nil {
		r.log.Error("failed to upsert contribution",
			zap.String("task_id", d.TaskId.String()),
			zap.Int("pr_number", d.PrNumber),
			zap.Error(err),
		)
		return nil, false, handleDBError(err)
	}

	r.log.Info("contribution upserted",
		zap.String("contribution_id", c.Id.String()),
		zap.Bool("created", inserted),
	)
	return c, inserted, nil
}

func (r *ContributionRepository) HasApproved(ctx context.Context, taskId, contributorId uuid.UUID) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, selectApprovedExistsQuery, taskId, contributorId).Scan(&exists); err != nil {
		return false, handleDBError(err)
	}
	return exists, nil
}

func (r *ContributionRepository) FindByTaskAndPr(ctx context.Context, taskId uuid.UUID, prNumber int) (*domain.Contribution, error) {
	c := &domain.Contribution{}
	if err := r.db.QueryRow(ctx, selectContributionByPrQuery, taskId, prNumber).Scan(contributionDest(c)...); err != nil {
		return nil, handleDBError(err)
	}
	return c, nil
}

// Approve в одной транзакции одобряет вклад, завершает задачу и ставит
// pending выплату, которую потом проводит escrow или sweep.
// false, если вклад уже не pending (ничего не меняется).
func (r *ContributionRepository) Approve(ctx context.Context, contributionId, taskId uuid.UUID, payout *dto.CreatePayoutDTO) (*domain.Payout, bool, error) {
	r.log.Info("approve contribution started",
		zap.String("contribution_id", contributionId.String()),
		zap.String("task_id", taskId.String()),
	)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, false, handleDBError(err)
	}
	defer tx.Rollback(ctx)

	cmdTag, err := tx.Exec(ctx, approveContributionQuery, contributionId)
	if err != nil {
		r.log.Error("failed to approve contribution",
			zap.String("contribution_id", contributionId.String()),
			zap.Error(err),
		)
		return nil, false, handleDBError(err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.log.Warn("contribution is not pending, approve skipped",
			zap.String("contribution_id", contributionId.String()),
		)
		return nil, false, nil
	}

	if _, err := tx.Exec(ctx, completeTaskQuery, taskId); err != nil {
		r.log.Error("failed to complete task",
			zap.String("task_id", taskId.String()),
			zap.Error(err),
		)
		return nil, false, handleDBError(err)
	}

	p := &domain.Payout{}
	err = tx.QueryRow(ctx, insertPayoutQuery,
		contributionId,
		payout.RecipientId,
		payout.Amount,
		payout.Address,
		domain.PayoutPending,
		"",
	).Scan(payoutDest(p)...)
	if err != nil {
		r.log.Error("failed to queue payout",
			zap.String("contribution_id", contributionId.String()),
			zap.Error(err),
		)
		return nil, false, handleDBError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		r.log.Error("failed to commit approve transaction",
			zap.String("contribution_id", contributionId.String()),
			zap.Error(err),
		)
		return nil, false, handleDBError(err)
	}

	r.log.Info("contribution approved",
		zap.String("contribution_id", contributionId.String()),
		zap.String("payout_id", p.Id.String()),
	)
	return p, true, nil
}

func (r *ContributionRepository) Reject(ctx context.Context, contributionId uuid.UUID) (bool, error) {
	cmdTag, err := r.db.Exec(ctx, rejectContributionQuery, contributionId)
	if err != nil {
		r.log.Error("failed to reject contribution",
			zap.String("contribution_id", contributionId.String()),
			zap.Error(err),
		)
		return false, handleDBError(err)
	}
	if cmdTag.RowsAffected() == 0 {
		return false, nil
	}

	r.log.Info("contribution rejected", zap.String("contribution_id", contributionId.String()))
	return true, nil
}
