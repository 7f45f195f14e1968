package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/niklvrr/dotbounty/internal/domain"
	"github.com/niklvrr/dotbounty/internal/transport/dto/request"
	"github.com/niklvrr/dotbounty/internal/transport/dto/response"
	"github.com/niklvrr/dotbounty/internal/transport/middleware"
	"github.com/niklvrr/dotbounty/internal/usecase/service"
	"go.uber.org/zap"
)

type ProfileService interface {
	SetWalletAddress(ctx context.Context, caller uuid.UUID, address string) (*domain.Profile, error)
}

type ProfileHandler struct {
	svc ProfileService
	log *zap.Logger
}

func NewProfileHandler(svc ProfileService, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		svc: svc,
		log: log,
	}
}

func (h *ProfileHandler) SetWallet(w http.ResponseWriter, r *http.Request) {
	var req request.SetWalletRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeFailure(w, service.WrapError(service.ErrInvalidInput, err))
		return
	}

	profile, err := h.svc.SetWalletAddress(r.Context(), middleware.UserID(r.Context()), req.PolkadotAddress)
	if err != nil {
		writeFailure(w, err)
		return
	}

	h.log.Info("wallet address updated", zap.String("profile_id", profile.Id.String()))
	writeJSON(w, http.StatusOK, &response.ProfileResponse{
		Id:              profile.Id.String(),
		GitHubUsername:  profile.GitHubUsername,
		PolkadotAddress: profile.PolkadotAddress,
	})
}
