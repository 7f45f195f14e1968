package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/niklvrr/dotbounty/internal/domain"
	"go.uber.org/zap"
)

const (
	profileColumns = `
    id, display_name, avatar_url, email, COALESCE(github_username, ''), COALESCE(github_id, 0),
    COALESCE(polkadot_address, ''), created_at`

	selectProfileByGitHubQuery = `
SELECT` + profileColumns + `
FROM profiles
WHERE lower(github_username) = lower($1);`

	updateWalletAddressQuery = `
UPDATE profiles
SET polkadot_address = $2
WHERE id = $1
RETURNING` + profileColumns + `;`
)

type ProfileRepository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewProfileRepository(db *pgxpool.Pool, log *zap.Logger) *ProfileRepository {
	return &ProfileRepository{
		db:  db,
		log: log,
	}
}

func scanProfile(row rowScanner) (*domain.Profile, error) {
	p := &domain.Profile{}
	err := row.Scan(
		&p.Id,
		&p.DisplayName,
		&p.AvatarURL,
		&p.Email,
		&p.GitHubUsername,
		&p.GitHubId,
		&p.PolkadotAddress,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetByGitHubUsername ищет профиль по логину GitHub без учета регистра
func (r *ProfileRepository) GetByGitHubUsername(ctx context.Context, login string) (*domain.Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx, selectProfileByGitHubQuery, login))
	if err != nil {
		return nil, handleDBError(err)
	}
	return p, nil
}

func (r *ProfileRepository) UpdateWalletAddress(ctx context.Context, userId uuid.UUID, address string) (*domain.Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx, updateWalletAddressQuery, userId, address))
	if err != nil {
		r.log.Error("failed to update wallet address",
			zap.String("user_id", userId.String()),
			zap.Error(err),
		)
		return nil, handleDBError(err)
	}

	r.log.Info("wallet address updated", zap.String("user_id", userId.String()))
	return p, nil
}
