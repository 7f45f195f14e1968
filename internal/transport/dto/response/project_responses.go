package response

import (
	"time"

	"github.com/niklvrr/dotbounty/internal/infrastructure/models/result"
	"github.com/shopspring/decimal"
)

type ProjectResponse struct {
	Id           string          `json:"id"`
	MaintainerId string          `json:"maintainer_id"`
	Owner        string          `json:"owner"`
	RepoName     string          `json:"repo_name"`
	RepoURL      string          `json:"repo_url"`
	Description  string          `json:"description,omitempty"`
	LogoURL      string          `json:"logo_url,omitempty"`
	Stars        int             `json:"stars"`
	Forks        int             `json:"forks"`
	OpenIssues   int             `json:"open_issues"`
	LastSyncedAt *time.Time      `json:"last_synced_at"`
	OpenTasks    int             `json:"open_tasks"`
	TotalReward  decimal.Decimal `json:"total_reward"`
}

type ProjectListResponse struct {
	Projects []*ProjectResponse `json:"projects"`
	Total    int                `json:"total"`
}

type StatsResponse struct {
	TotalProjects         int             `json:"total_projects"`
	TotalOpenTasks        int             `json:"total_open_tasks"`
	TotalContributors     int             `json:"total_contributors"`
	TotalRewardsAvailable decimal.Decimal `json:"total_rewards_available"`
	TotalPaidOut          decimal.Decimal `json:"total_paid_out"`
	RecentContributions   int             `json:"recent_contributions"`
}

type LeaderboardEntryResponse struct {
	Rank              int             `json:"rank"`
	UserId            string          `json:"user_id"`
	DisplayName       string          `json:"display_name"`
	AvatarURL         string          `json:"avatar_url,omitempty"`
	GitHubUsername    string          `json:"github_username"`
	TotalEarned       decimal.Decimal `json:"total_earned"`
	ContributionCount int             `json:"contribution_count"`
}

type LeaderboardResponse struct {
	Entries []*LeaderboardEntryResponse `json:"leaderboard"`
}

func NewProjectListResponse(res *result.ProjectListResult) *ProjectListResponse {
	projects := make([]*ProjectResponse, 0, len(res.Projects))
	for _, ps := range res.Projects {
		p := ps.Project
		projects = append(projects, &ProjectResponse{
			Id:           p.Id.String(),
			MaintainerId: p.MaintainerId.String(),
			Owner:        p.Owner,
			RepoName:     p.RepoName,
			RepoURL:      p.RepoURL,
			Description:  p.Description,
			LogoURL:      p.LogoURL,
			Stars:        p.Stars,
			Forks:        p.Forks,
			OpenIssues:   p.OpenIssues,
			LastSyncedAt: p.LastSyncedAt,
			OpenTasks:    ps.OpenTasks,
			TotalReward:  ps.TotalReward,
		})
	}
	return &ProjectListResponse{Projects: projects, Total: res.Total}
}

func NewStatsResponse(s *result.StatsResult) *StatsResponse {
	return &StatsResponse{
		TotalProjects:         s.TotalProjects,
		TotalOpenTasks:        s.TotalOpenTasks,
		TotalContributors:     s.TotalContributors,
		TotalRewardsAvailable: s.TotalRewardsAvailable,
		TotalPaidOut:          s.TotalPaidOut,
		RecentContributions:   s.RecentContributions,
	}
}

// NewLeaderboardResponse нумерует места в порядке, отданном хранилищем
func NewLeaderboardResponse(entries []*result.LeaderboardEntry) *LeaderboardResponse {
	resp := &LeaderboardResponse{Entries: make([]*LeaderboardEntryResponse, 0, len(entries))}
	for i, e := range entries {
		resp.Entries = append(resp.Entries, &LeaderboardEntryResponse{
			Rank:              i + 1,
			UserId:            e.UserId.String(),
			DisplayName:       e.DisplayName,
			AvatarURL:         e.AvatarURL,
			GitHubUsername:    e.GitHubUsername,
			TotalEarned:       e.TotalEarned,
			ContributionCount: e.ContributionCount,
		})
	}
	return resp
}
