package dto

import "github.com/google/uuid"

type UpsertContributionDTO struct {
	TaskId        uuid.UUID
	ContributorId uuid.UUID
	PrNumber      int
	PrURL         string
}
