package dto

import "github.com/google/uuid"

type ProjectFilterDTO struct {
	Limit  int
	Offset int
	Search string
}

type RepoStatsDTO struct {
	ProjectId  uuid.UUID
	Stars      int
	Forks      int
	OpenIssues int
}
