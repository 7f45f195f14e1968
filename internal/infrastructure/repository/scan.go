package repository

import "github.com/niklvrr/dotbounty/internal/domain"

const (
	taskColumns = `
    t.id, t.project_id, t.title, t.description, t.reward_amount_dot, t.status, t.escrow_status,
    t.escrow_amount_dot, t.escrow_funded_at, t.github_issue_number, t.github_issue_url, t.tags,
    t.difficulty, t.created_at, t.completed_at`

	projectColumns = `
    p.id, p.maintainer_user_id, p.github_owner, p.github_repo_name, p.github_repo_url, p.description,
    p.logo_url, p.is_active, p.stars, p.forks, p.open_issues, p.last_synced_at, p.created_at`

	contributionColumns = `
    c.id, c.task_id, c.contributor_user_id, c.github_pr_number, c.github_pr_url, c.status,
    c.submitted_at, c.approved_at`

	payoutColumns = `
    po.id, po.contribution_id, po.recipient_user_id, po.amount_dot, po.polkadot_address, po.status,
    COALESCE(po.transaction_hash, ''), po.failure_reason, po.created_at, po.paid_at`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func taskDest(t *domain.Task) []any {
	return []any{
		&t.Id, &t.ProjectId, &t.Title, &t.Description, &t.Reward, &t.Status, &t.EscrowStatus,
		&t.EscrowAmount, &t.EscrowFundedAt, &t.IssueNumber, &t.IssueURL, &t.Tags,
		&t.Difficulty, &t.CreatedAt, &t.CompletedAt,
	}
}

func projectDest(p *domain.Project) []any {
	return []any{
		&p.Id, &p.MaintainerId, &p.Owner, &p.RepoName, &p.RepoURL, &p.Description,
		&p.LogoURL, &p.IsActive, &p.Stars, &p.Forks, &p.OpenIssues, &p.LastSyncedAt, &p.CreatedAt,
	}
}

func contributionDest(c *domain.Contribution) []any {
	return []any{
		&c.Id, &c.TaskId, &c.ContributorId, &c.PrNumber, &c.PrURL, &c.Status,
		&c.SubmittedAt, &c.ApprovedAt,
	}
}

func payoutDest(p *domain.Payout) []any {
	return []any{
		&p.Id, &p.ContributionId, &p.RecipientId, &p.Amount, &p.Address, &p.Status,
		&p.TransactionHash, &p.FailureReason, &p.CreatedAt, &p.PaidAt,
	}
}

// concat склеивает списки назначений для Scan по join-запросам
func concat(parts ...[]any) []any {
	var n int
	for _, p := range parts {
		n += len(p)
	}
	out := make([]any, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
