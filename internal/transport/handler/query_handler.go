package handler

import (
	"context"
	"net/http"

	"github.com/niklvrr/dotbounty/internal/infrastructure/models/dto"
	"github.com/niklvrr/dotbounty/internal/infrastructure/models/result"
	"github.com/niklvrr/dotbounty/internal/transport/dto/response"
	"go.uber.org/zap"
)

type QueryService interface {
	ListProjects(ctx context.Context, f *dto.ProjectFilterDTO) (*result.ProjectListResult, error)
	Stats(ctx context.Context) (*result.StatsResult, error)
	Leaderboard(ctx context.Context, limit int) ([]*result.LeaderboardEntry, error)
}

type QueryHandler struct {
	svc QueryService
	log *zap.Logger
}

func NewQueryHandler(svc QueryService, log *zap.Logger) *QueryHandler {
	return &QueryHandler{
		svc: svc,
		log: log,
	}
}

func (h *QueryHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := &dto.ProjectFilterDTO{Search: q.Get("search")}

	var err error
	if filter.Limit, err = intQuery(q, "limit"); err != nil {
		writeFailure(w, err)
		return
	}
	if filter.Offset, err = intQuery(q, "offset"); err != nil {
		writeFailure(w, err)
		return
	}

	res, err := h.svc.ListProjects(r.Context(), filter)
	if err != nil {
		h.log.Error("failed to list projects", zap.Error(err))
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response.NewProjectListResponse(res))
}

func (h *QueryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		h.log.Error("failed to get statistics", zap.Error(err))
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response.NewStatsResponse(stats))
}

func (h *QueryHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r.URL.Query(), "limit")
	if err != nil {
		writeFailure(w, err)
		return
	}

	entries, err := h.svc.Leaderboard(r.Context(), limit)
	if err != nil {
		h.log.Error("failed to build leaderboard", zap.Error(err))
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response.NewLeaderboardResponse(entries))
}
