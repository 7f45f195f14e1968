package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/niklvrr/dotbounty/internal/domain"
	"github.com/niklvrr/dotbounty/internal/transport/dto/response"
	"github.com/niklvrr/dotbounty/internal/usecase/service"
	"go.uber.org/zap"
)

type SweepService interface {
	ProcessPendingPayouts(ctx context.Context, limit int) (*service.SweepSummary, error)
	CheckStaleTasks(ctx context.Context, olderThan time.Duration) (*service.StaleReport, error)
	SyncGitHubData(ctx context.Context) (*service.SyncSummary, error)
	ResetPayout(ctx context.Context, payoutId uuid.UUID) (*domain.Payout, error)
}

type CronHandler struct {
	svc        SweepService
	batchSize  int
	staleAfter time.Duration
	log        *zap.Logger
}

func NewCronHandler(svc SweepService, batchSize int, staleAfter time.Duration, log *zap.Logger) *CronHandler {
	return &CronHandler{
		svc:        svc,
		batchSize:  batchSize,
		staleAfter: staleAfter,
		log:        log,
	}
}

func (h *CronHandler) ProcessPendingPayouts(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.ProcessPendingPayouts(r.Context(), h.batchSize)
	if err != nil {
		h.log.Error("pending payouts sweep failed", zap.Error(err))
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response.NewPayoutSweepResponse(summary))
}

func (h *CronHandler) CheckStaleTasks(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.CheckStaleTasks(r.Context(), h.staleAfter)
	if err != nil {
		h.log.Error("stale tasks check failed", zap.Error(err))
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response.NewStaleTasksResponse(report))
}

func (h *CronHandler) SyncGitHubData(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.SyncGitHubData(r.Context())
	if err != nil {
		h.log.Error("github sync failed", zap.Error(err))
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response.NewSyncResponse(summary))
}

func (h *CronHandler) ResetPayout(w http.ResponseWriter, r *http.Request) {
	payoutId, err := uuidParam(r, "id")
	if err != nil {
		writeFailure(w, err)
		return
	}

	payout, err := h.svc.ResetPayout(r.Context(), payoutId)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response.NewPayoutStatusResponse(payout))
}
