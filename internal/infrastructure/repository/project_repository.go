package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/niklvrr/dotbounty/internal/domain"
	"github.com/niklvrr/dotbounty/internal/infrastructure/models/dto"
	"go.uber.org/zap"
)

const (
	selectProjectByRepoURLQuery = `
SELECT` + projectColumns + `
FROM projects p
WHERE p.github_repo_url = $1;`

	selectActiveProjectsQuery = `
SELECT` + projectColumns + `
FROM projects p
WHERE p.is_active
ORDER BY p.created_at;`

	updateRepoStatsQuery = `
UPDATE projects
SET stars = $2,
    forks = $3,
    open_issues = $4,
    last_synced_at = CURRENT_TIMESTAMP
WHERE id = $1;`
)

type ProjectRepository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewProjectRepository(db *pgxpool.Pool, log *zap.Logger) *ProjectRepository {
	return &ProjectRepository{
		db:  db,
		log: log,
	}
}

func (r *ProjectRepository) GetByRepoURL(ctx context.Context, repoURL string) (*domain.Project, error) {
	p := &domain.Project{}
	if err := r.db.QueryRow(ctx, selectProjectByRepoURLQuery, repoURL).Scan(projectDest(p)...); err != nil {
		return nil, handleDBError(err)
	}
	return p, nil
}

func (r *ProjectRepository) ListActive(ctx context.Context) ([]*domain.Project, error) {
	rows, err := r.db.Query(ctx, selectActiveProjectsQuery)
	if err != nil {
		r.log.Error("failed to select active projects", zap.Error(err))
		return nil, handleDBError(err)
	}
	defer rows.Close()

	var projects []*domain.Project
	for rows.Next() {
		p := &domain.Project{}
		if err := rows.Scan(projectDest(p)...); err != nil {
			return nil, handleDBError(err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, handleDBError(err)
	}
	return projects, nil
}

func (r *ProjectRepository) UpdateRepoStats(ctx context.Context, d *dto.RepoStatsDTO) error {
	cmdTag, err := r.db.Exec(ctx, updateRepoStatsQuery, d.ProjectId, d.Stars, d.Forks, d.OpenIssues)
	if err != nil {
		r.log.Error("failed to update repo stats",
			zap.String("project_id", d.ProjectId.String()),
			zap.Error(err),
		)
		return handleDBError(err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
