package response

import (
	"time"

	"github.com/niklvrr/dotbounty/internal/domain"
	"github.com/niklvrr/dotbounty/internal/infrastructure/models/result"
	"github.com/shopspring/decimal"
)

type TaskResponse struct {
	Id             string           `json:"id"`
	ProjectId      string           `json:"project_id"`
	Title          string           `json:"title"`
	Description    string           `json:"description,omitempty"`
	Reward         decimal.Decimal  `json:"reward"`
	Status         string           `json:"status"`
	EscrowStatus   string           `json:"escrow_status"`
	EscrowAmount   *decimal.Decimal `json:"escrow_amount"`
	EscrowFundedAt *time.Time       `json:"escrow_funded_at"`
	IssueNumber    *int             `json:"github_issue_number"`
	IssueURL       string           `json:"github_issue_url,omitempty"`
	Tags           []string         `json:"tags"`
	Difficulty     string           `json:"difficulty,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	CompletedAt    *time.Time       `json:"completed_at"`
	Project        *ProjectRef      `json:"project,omitempty"`
}

type ProjectRef struct {
	Id       string `json:"id"`
	Owner    string `json:"owner"`
	RepoName string `json:"repo_name"`
	RepoURL  string `json:"repo_url"`
	LogoURL  string `json:"logo_url,omitempty"`
}

type TaskListResponse struct {
	Tasks []*TaskResponse `json:"tasks"`
	Total int             `json:"total"`
}

func NewTaskResponse(t *domain.Task) *TaskResponse {
	resp := &TaskResponse{
		Id:             t.Id.String(),
		ProjectId:      t.ProjectId.String(),
		Title:          t.Title,
		Description:    t.Description,
		Reward:         t.Reward,
		Status:         string(t.Status),
		EscrowStatus:   string(t.EscrowStatus),
		EscrowFundedAt: t.EscrowFundedAt,
		IssueNumber:    t.IssueNumber,
		IssueURL:       t.IssueURL,
		Tags:           t.Tags,
		Difficulty:     t.Difficulty,
		CreatedAt:      t.CreatedAt,
		CompletedAt:    t.CompletedAt,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if t.EscrowAmount.Valid {
		amount := t.EscrowAmount.Decimal
		resp.EscrowAmount = &amount
	}
	return resp
}

func NewTaskWithProjectResponse(tp *result.TaskWithProject) *TaskResponse {
	resp := NewTaskResponse(&tp.Task)
	resp.Project = &ProjectRef{
		Id:       tp.Project.Id.String(),
		Owner:    tp.Project.Owner,
		RepoName: tp.Project.RepoName,
		RepoURL:  tp.Project.RepoURL,
		LogoURL:  tp.Project.LogoURL,
	}
	return resp
}

func NewTaskListResponse(res *result.TaskListResult) *TaskListResponse {
	tasks := make([]*TaskResponse, 0, len(res.Tasks))
	for _, tp := range res.Tasks {
		tasks = append(tasks, NewTaskWithProjectResponse(tp))
	}
	return &TaskListResponse{Tasks: tasks, Total: res.Total}
}
