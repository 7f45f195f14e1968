package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/niklvrr/dotbounty/internal/domain"
	"github.com/niklvrr/dotbounty/internal/transport/dto/response"
	"github.com/niklvrr/dotbounty/internal/transport/middleware"
	"github.com/niklvrr/dotbounty/internal/usecase/service"
	"go.uber.org/zap"
)

type ContributionService interface {
	Approve(ctx context.Context, caller, contributionId uuid.UUID) (*service.ApprovalResult, error)
	Reject(ctx context.Context, caller, contributionId uuid.UUID) (*domain.Contribution, error)
}

type ContributionHandler struct {
	svc ContributionService
	log *zap.Logger
}

func NewContributionHandler(svc ContributionService, log *zap.Logger) *ContributionHandler {
	return &ContributionHandler{
		svc: svc,
		log: log,
	}
}

// Approve отвечает 200 даже если выплата не прошла: ее итог лежит в поле payout
func (h *ContributionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	contributionId, err := uuidParam(r, "id")
	if err != nil {
		writeFailure(w, err)
		return
	}

	res, err := h.svc.Approve(r.Context(), middleware.UserID(r.Context()), contributionId)
	if err != nil {
		h.log.Info("approve rejected",
			zap.String("contribution_id", contributionId.String()),
			zap.Error(err),
		)
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response.NewApproveResponse(res))
}

func (h *ContributionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	contributionId, err := uuidParam(r, "id")
	if err != nil {
		writeFailure(w, err)
		return
	}

	c, err := h.svc.Reject(r.Context(), middleware.UserID(r.Context()), contributionId)
	if err != nil {
		h.log.Info("reject refused",
			zap.String("contribution_id", contributionId.String()),
			zap.Error(err),
		)
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &response.RejectResponse{
		ContributionId: c.Id.String(),
		Status:         string(c.Status),
		TaskId:         c.TaskId.String(),
	})
}
