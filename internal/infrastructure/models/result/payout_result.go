package result

import (
	"github.com/google/uuid"
	"github.com/niklvrr/dotbounty/internal/domain"
)

type PendingPayout struct {
	Payout       domain.Payout
	TaskId       uuid.UUID
	EscrowStatus domain.EscrowStatus
	// CurrentAddress - кошелек получателя из профиля на момент выборки
	CurrentAddress string
}
