package result

import (
	"github.com/google/uuid"
	"github.com/niklvrr/dotbounty/internal/domain"
)

type TaskWithProject struct {
	Task    domain.Task
	Project domain.Project
}

type TaskListResult struct {
	Tasks []*TaskWithProject
	Total int
}

type StaleTask struct {
	Task           domain.Task
	RepoName       string
	MaintainerId   uuid.UUID
	MaintainerName string
	MaintainerMail string
}
