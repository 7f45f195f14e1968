package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/niklvrr/dotbounty/internal/infrastructure/models/dto"
	"github.com/niklvrr/dotbounty/internal/infrastructure/models/result"
	"go.uber.org/zap"
)

const (
	selectStatsQuery = `
SELECT
    (SELECT COUNT(*) FROM projects WHERE is_active),
    (SELECT COUNT(*) FROM tasks WHERE status = 'open'),
    (SELECT COUNT(DISTINCT contributor_user_id) FROM contributions),
    (SELECT COALESCE(SUM(reward_amount_dot), 0) FROM tasks WHERE status = 'open'),
    (SELECT COALESCE(SUM(amount_dot), 0) FROM payouts WHERE status = 'completed'),
    (SELECT COUNT(*) FROM contributions WHERE submitted_at >= $1);`

	selectLeaderboardQuery = `
SELECT
    pr.id,
    pr.display_name,
    pr.avatar_url,
    COALESCE(pr.github_username, ''),
    SUM(po.amount_dot) AS total_earned,
    COUNT(*)
FROM payouts po
JOIN profiles pr ON pr.id = po.recipient_user_id
WHERE po.status = 'completed'
GROUP BY pr.id
ORDER BY total_earned DESC, pr.id
LIMIT $1;`
)

// StatsRepository - read-only запросы для витрины: списки, статистика, лидерборд
type StatsRepository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewStatsRepository(db *pgxpool.Pool, log *zap.Logger) *StatsRepository {
	return &StatsRepository{
		db:  db,
		log: log,
	}
}

func (r *StatsRepository) ListOpenTasks(ctx context.Context, f *dto.TaskFilterDTO) (*result.TaskListResult, error) {
	var (
		where = []string{"t.status = 'open'"}
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Difficulty != "" {
		where = append(where, "t.difficulty = "+arg(f.Difficulty))
	}
	if f.MinReward != nil {
		where = append(where, "t.reward_amount_dot >= "+arg(*f.MinReward))
	}
	if f.MaxReward != nil {
		where = append(where, "t.reward_amount_dot <= "+arg(*f.MaxReward))
	}
	if len(f.Tags) > 0 {
		where = append(where, "t.tags @> "+arg(f.Tags))
	}
	if f.ProjectId != nil {
		where = append(where, "t.project_id = "+arg(*f.ProjectId))
	}

	query := `
SELECT` + taskColumns + `,` + projectColumns + `, COUNT(*) OVER()
FROM tasks t
JOIN projects p ON p.id = t.project_id
WHERE ` + strings.Join(where, " AND ") + `
ORDER BY t.created_at DESC
LIMIT ` + arg(f.Limit) + ` OFFSET ` + arg(f.Offset) + `;`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("failed to list tasks", zap.Error(err))
		return nil, handleDBError(err)
	}
	defer rows.Close()

	res := &result.TaskListResult{}
	for rows.Next() {
		twp := &result.TaskWithProject{}
		dest := append(concat(taskDest(&twp.Task), projectDest(&twp.Project)), &res.Total)
		if err := rows.Scan(dest...); err != nil {
			return nil, handleDBError(err)
		}
		res.Tasks = append(res.Tasks, twp)
	}
	if err := rows.Err(); err != nil {
		return nil, handleDBError(err)
	}
	return res, nil
}

func (r *StatsRepository) ListActiveProjects(ctx context.Context, f *dto.ProjectFilterDTO) (*result.ProjectListResult, error) {
	var (
		where = []string{"p.is_active"}
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Search != "" {
		pattern := arg("%" + escapeLike(f.Search) + "%")
		where = append(where, "(p.github_repo_name ILIKE "+pattern+" OR p.description ILIKE "+pattern+")")
	}

	query := `
SELECT` + projectColumns + `,
    COUNT(t.id) FILTER (WHERE t.status = 'open'),
    COALESCE(SUM(t.reward_amount_dot) FILTER (WHERE t.status = 'open'), 0),
    COUNT(*) OVER()
FROM projects p
LEFT JOIN tasks t ON t.project_id = p.id
WHERE ` + strings.Join(where, " AND ") + `
GROUP BY p.id
ORDER BY p.created_at DESC
LIMIT ` + arg(f.Limit) + ` OFFSET ` + arg(f.Offset) + `;`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("failed to list projects", zap.Error(err))
		return nil, handleDBError(err)
	}
	defer rows.Close()

	res := &result.ProjectListResult{}
	for rows.Next() {
		ps := &result.ProjectSummary{}
		dest := append(projectDest(&ps.Project), &ps.OpenTasks, &ps.TotalReward, &res.Total)
		if err := rows.Scan(dest...); err != nil {
			return nil, handleDBError(err)
		}
		res.Projects = append(res.Projects, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, handleDBError(err)
	}
	return res, nil
}

func (r *StatsRepository) GetStats(ctx context.Context, recentSince time.Time) (*result.StatsResult, error) {
	res := &result.StatsResult{}
	err := r.db.QueryRow(ctx, selectStatsQuery, recentSince).Scan(
		&res.TotalProjects,
		&res.TotalOpenTasks,
		&res.TotalContributors,
		&res.TotalRewardsAvailable,
		&res.TotalPaidOut,
		&res.RecentContributions,
	)
	if err != nil {
		r.log.Error("failed to load stats", zap.Error(err))
		return nil, handleDBError(err)
	}
	return res, nil
}

func (r *StatsRepository) Leaderboard(ctx context.Context, limit int) ([]*result.LeaderboardEntry, error) {
	rows, err := r.db.Query(ctx, selectLeaderboardQuery, limit)
	if err != nil {
		r.log.Error("failed to load leaderboard", zap.Error(err))
		return nil, handleDBError(err)
	}
	defer rows.Close()

	var entries []*result.LeaderboardEntry
	for rows.Next() {
		e := &result.LeaderboardEntry{}
		err := rows.Scan(
			&e.UserId,
			&e.DisplayName,
			&e.AvatarURL,
			&e.GitHubUsername,
			&e.TotalEarned,
			&e.ContributionCount,
		)
		if err != nil {
			return nil, handleDBError(err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, handleDBError(err)
	}
	return entries, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
