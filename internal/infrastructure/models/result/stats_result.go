package result

import (
	"github.com/google/uuid"
	"github.com/niklvrr/dotbounty/internal/domain"
	"github.com/shopspring/decimal"
)

type StatsResult struct {
	TotalProjects         int
	TotalOpenTasks        int
	TotalContributors     int
	TotalRewardsAvailable decimal.Decimal
	TotalPaidOut          decimal.Decimal
	RecentContributions   int
}

type LeaderboardEntry struct {
	UserId            uuid.UUID
	DisplayName       string
	AvatarURL         string
	GitHubUsername    string
	TotalEarned       decimal.Decimal
	ContributionCount int
}

type ProjectSummary struct {
	Project     domain.Project
	OpenTasks   int
	TotalReward decimal.Decimal
}

type ProjectListResult struct {
	Projects []*ProjectSummary
	Total    int
}

type RepoStats struct {
	Stars      int
	Forks      int
	OpenIssues int
}
