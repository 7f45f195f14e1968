package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/niklvrr/dotbounty/internal/domain"
	"go.uber.org/zap"
)

type ProfileService struct {
	profiles ProfileRepository
	validate AddressValidator
	log      *zap.Logger
}

func NewProfileService(profiles ProfileRepository, validate AddressValidator, log *zap.Logger) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		validate: validate,
		log:      log,
	}
}

// SetWalletAddress сохраняет адрес кошелька, на который уходят выплаты пользователю
func (s *ProfileService) SetWalletAddress(ctx context.Context, caller uuid.UUID, address string) (*domain.Profile, error) {
	if caller == uuid.Nil {
		return nil, ErrUnauthorized
	}

	address = strings.TrimSpace(address)
	if err := s.validate(address); err != nil {
		return nil, WrapError(ErrInvalidAddress, err)
	}

	profile, err := s.profiles.UpdateWalletAddress(ctx, caller, address)
	if err != nil {
		return nil, mapRepoError(err, ErrProfileNotFound)
	}

	s.log.Info("wallet address updated", zap.String("user_id", caller.String()))
	return profile, nil
}
