package response

import "github.com/niklvrr/dotbounty/internal/usecase/service"

type PayoutResponse struct {
	Status          string  `json:"status"`
	PayoutId        *string `json:"payout_id"`
	TransactionHash *string `json:"transaction_hash"`
	Error           *string `json:"error"`
}

type ApproveResponse struct {
	ContributionId string         `json:"contribution_id"`
	Status         string         `json:"status"`
	TaskId         string         `json:"task_id"`
	TaskStatus     string         `json:"task_status"`
	Payout         PayoutResponse `json:"payout"`
}

type RejectResponse struct {
	ContributionId string `json:"contribution_id"`
	Status         string `json:"status"`
	TaskId         string `json:"task_id"`
}

func NewApproveResponse(res *service.ApprovalResult) *ApproveResponse {
	payout := PayoutResponse{Status: string(res.Payout.Status)}
	if res.Payout.PayoutId != nil {
		id := res.Payout.PayoutId.String()
		payout.PayoutId = &id
	}
	if res.Payout.TransactionHash != "" {
		payout.TransactionHash = &res.Payout.TransactionHash
	}
	if res.Payout.Error != "" {
		payout.Error = &res.Payout.Error
	}

	return &ApproveResponse{
		ContributionId: res.Contribution.Id.String(),
		Status:         string(res.Contribution.Status),
		TaskId:         res.Contribution.TaskId.String(),
		TaskStatus:     string(res.TaskStatus),
		Payout:         payout,
	}
}
