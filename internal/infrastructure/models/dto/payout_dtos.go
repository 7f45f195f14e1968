package dto

import (
	"github.com/google/uuid"
	"github.com/niklvrr/dotbounty/internal/domain"
	"github.com/shopspring/decimal"
)

type CreatePayoutDTO struct {
	ContributionId uuid.UUID
	RecipientId    uuid.UUID
	Amount         decimal.Decimal
	Address        string
	Status         domain.PayoutStatus
	FailureReason  string
}
