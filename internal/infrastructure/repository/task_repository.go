package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/niklvrr/dotbounty/internal/domain"
	"github.com/niklvrr/dotbounty/internal/infrastructure/models/dto"
	"github.com/niklvrr/dotbounty/internal/infrastructure/models/result"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	selectTaskWithProjectQuery = `
SELECT` + taskColumns + `,` + projectColumns + `
FROM tasks t
JOIN projects p ON p.id = t.project_id
WHERE t.id = $1;`

	selectTasksByIssueQuery = `
SELECT` + taskColumns + `,` + projectColumns + `
FROM tasks t
JOIN projects p ON p.id = t.project_id
WHERE t.github_issue_number = $1
ORDER BY t.created_at;`

	insertTaskFromIssueQuery = `
INSERT INTO tasks AS t (project_id, title, description, github_issue_url, github_issue_number,
                        reward_amount_dot, status, escrow_status, tags)
VALUES ($1, $2, $3, $4, $5, $6, 'open', 'pending', $7)
ON CONFLICT (project_id, github_issue_number) DO NOTHING
RETURNING` + taskColumns + `;`

	fundEscrowQuery = `
UPDATE tasks
SET escrow_status = 'funded',
    escrow_amount_dot = $2,
    escrow_funded_at = CURRENT_TIMESTAMP
WHERE id = $1 AND escrow_status = 'pending';`

	updateEscrowStatusQuery = `
UPDATE tasks
SET escrow_status = $3
WHERE id = $1 AND escrow_status = $2;`

	closeTaskByIssueQuery = `
UPDATE tasks
SET status = 'closed'
WHERE project_id = $1 AND github_issue_number = $2;`

	selectStaleTasksQuery = `
SELECT` + taskColumns + `,
    p.github_repo_name,
    p.maintainer_user_id,
    COALESCE(pr.display_name, ''),
    COALESCE(pr.email, '')
FROM tasks t
JOIN projects p ON p.id = t.project_id
LEFT JOIN profiles pr ON pr.id = p.maintainer_user_id
WHERE t.status = 'open' AND t.created_at < $1
ORDER BY t.created_at;`
)

type TaskRepository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewTaskRepository(db *pgxpool.Pool, log *zap.Logger) *TaskRepository {
	return &TaskRepository{
		db:  db,
		log: log,
	}
}

func (r *TaskRepository) GetWithProject(ctx context.Context, taskId uuid.UUID) (*result.TaskWithProject, error) {
	res := &result.TaskWithProject{}
	err := r.db.QueryRow(ctx, selectTaskWithProjectQuery, taskId).
		Scan(concat(taskDest(&res.Task), projectDest(&res.Project))...)
	if err != nil {
		return nil, handleDBError(err)
	}
	return res, nil
}

// ListByIssueNumber возвращает все задачи с этим номером issue во всех проектах.
// Выбор нужного репозитория остается за вызывающим.
func (r *TaskRepository) ListByIssueNumber(ctx context.Context, issueNumber int) ([]*result.TaskWithProject, error) {
	rows, err := r.db.Query(ctx, selectTasksByIssueQuery, issueNumber)
	if err != nil {
		r.log.Error("failed to select tasks by issue",
			zap.Int("issue_number", issueNumber),
			zap.Error(err),
		)
		return nil, handleDBError(err)
	}
	defer rows.Close()

	var tasks []*result.TaskWithProject
	for rows.Next() {
		res := &result.TaskWithProject{}
		if err := rows.Scan(concat(taskDest(&res.Task), projectDest(&res.Project))...); err != nil {
			return nil, handleDBError(err)
		}
		tasks = append(tasks, res)
	}
	if err := rows.Err(); err != nil {
		return nil, handleDBError(err)
	}
	return tasks, nil
}

// CreateFromIssue создает задачу из issue. Повторная доставка того же issue
// ничего не создает и возвращает created=false.
func (r *TaskRepository) CreateFromIssue(ctx context.Context, d *dto.CreateTaskFromIssueDTO) (*domain.Task, bool, error) {
	r.log.Info("create task from issue started",
		zap.String("project_id", d.ProjectId.String()),
		zap.Int("issue_number", d.IssueNumber),
		zap.String("reward", d.Reward.String()),
	)

	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}

	task := &domain.Task{}
	err := r.db.QueryRow(ctx, insertTaskFromIssueQuery,
		d.ProjectId,
		d.Title,
		d.Description,
		d.IssueURL,
		d.IssueNumber,
		d.Reward,
		tags,
	).Scan(taskDest(task)...)
	if err != nil {
		err = handleDBError(err)
		// ON CONFLICT DO NOTHING не возвращает строку
		if errors.Is(err, ErrNotFound) {
			return nil, false, nil
		}
		r.log.Error("failed to insert task",
			zap.String("project_id", d.ProjectId.String()),
			zap.Int("issue_number", d.IssueNumber),
			zap.Error(err),
		)
		return nil, false, err
	}

	r.log.Info("task created", zap.String("task_id", task.Id.String()))
	return task, true, nil
}

// FundEscrow переводит escrow pending -> funded. false, если escrow уже не pending
func (r *TaskRepository) FundEscrow(ctx context.Context, taskId uuid.UUID, amount decimal.Decimal) (bool, error) {
	cmdTag, err := r.db.Exec(ctx, fundEscrowQuery, taskId, amount)
	if err != nil {
		r.log.Error("failed to fund escrow",
			zap.String("task_id", taskId.String()),
			zap.Error(err),
		)
		return false, handleDBError(err)
	}
	return cmdTag.RowsAffected() == 1, nil
}

// UpdateEscrowStatus - условный переход escrow from -> to.
// false означает, что текущее состояние уже не from.
func (r *TaskRepository) UpdateEscrowStatus(ctx context.Context, taskId uuid.UUID, from, to domain.EscrowStatus) (bool, error) {
	cmdTag, err := r.db.Exec(ctx, updateEscrowStatusQuery, taskId, from, to)
	if err != nil {
		r.log.Error("failed to update escrow status",
			zap.String("task_id", taskId.String()),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
			zap.Error(err),
		)
		return false, handleDBError(err)
	}
	return cmdTag.RowsAffected() == 1, nil
}

func (r *TaskRepository) CloseByIssue(ctx context.Context, projectId uuid.UUID, issueNumber int) (int64, error) {
	cmdTag, err := r.db.Exec(ctx, closeTaskByIssueQuery, projectId, issueNumber)
	if err != nil {
		r.log.Error("failed to close task by issue",
			zap.String("project_id", projectId.String()),
			zap.Int("issue_number", issueNumber),
			zap.Error(err),
		)
		return 0, handleDBError(err)
	}
	return cmdTag.RowsAffected(), nil
}

func (r *TaskRepository) ListStale(ctx context.Context, createdBefore time.Time) ([]*result.StaleTask, error) {
	rows, err := r.db.Query(ctx, selectStaleTasksQuery, createdBefore)
	if err != nil {
		return nil, handleDBError(err)
	}
	defer rows.Close()

	var tasks []*result.StaleTask
	for rows.Next() {
		st := &result.StaleTask{}
		dest := append(taskDest(&st.Task), &st.RepoName, &st.MaintainerId, &st.MaintainerName, &st.MaintainerMail)
		if err := rows.Scan(dest...); err != nil {
			return nil, handleDBError(err)
		}
		tasks = append(tasks, st)
	}
	if err := rows.Err(); err != nil {
		return nil, handleDBError(err)
	}
	return tasks, nil
}
