package response

import (
	"time"

	"github.com/niklvrr/dotbounty/internal/domain"
	"github.com/niklvrr/dotbounty/internal/usecase/service"
	"github.com/shopspring/decimal"
)

type PayoutSweepResponse struct {
	Found     int `json:"found"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

type StaleTaskResponse struct {
	TaskId         string          `json:"task_id"`
	Title          string          `json:"title"`
	Reward         decimal.Decimal `json:"reward"`
	RepoName       string          `json:"repo_name"`
	MaintainerId   string          `json:"maintainer_id"`
	MaintainerName string          `json:"maintainer_name,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

type StaleTasksResponse struct {
	ThresholdHours int                  `json:"threshold_hours"`
	Count          int                  `json:"count"`
	Tasks          []*StaleTaskResponse `json:"tasks"`
}

type SyncResponse struct {
	Projects int `json:"projects"`
	Synced   int `json:"synced"`
	Failed   int `json:"failed"`
}

type PayoutStatusResponse struct {
	Id             string          `json:"id"`
	ContributionId string          `json:"contribution_id"`
	Amount         decimal.Decimal `json:"amount"`
	Status         string          `json:"status"`
}

func NewPayoutSweepResponse(s *service.SweepSummary) *PayoutSweepResponse {
	return &PayoutSweepResponse{
		Found:     s.Found,
		Completed: s.Completed,
		Failed:    s.Failed,
		Skipped:   s.Skipped,
	}
}

func NewStaleTasksResponse(r *service.StaleReport) *StaleTasksResponse {
	resp := &StaleTasksResponse{
		ThresholdHours: int(r.Threshold / time.Hour),
		Count:          len(r.Tasks),
		Tasks:          make([]*StaleTaskResponse, 0, len(r.Tasks)),
	}
	for _, t := range r.Tasks {
		resp.Tasks = append(resp.Tasks, &StaleTaskResponse{
			TaskId:         t.Task.Id.String(),
			Title:          t.Task.Title,
			Reward:         t.Task.Reward,
			RepoName:       t.RepoName,
			MaintainerId:   t.MaintainerId.String(),
			MaintainerName: t.MaintainerName,
			CreatedAt:      t.Task.CreatedAt,
		})
	}
	return resp
}

func NewSyncResponse(s *service.SyncSummary) *SyncResponse {
	return &SyncResponse{Projects: s.Projects, Synced: s.Synced, Failed: s.Failed}
}

func NewPayoutStatusResponse(p *domain.Payout) *PayoutStatusResponse {
	return &PayoutStatusResponse{
		Id:             p.Id.String(),
		ContributionId: p.ContributionId.String(),
		Amount:         p.Amount,
		Status:         string(p.Status),
	}
}
