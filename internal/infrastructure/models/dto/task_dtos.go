package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateTaskFromIssueDTO struct {
	ProjectId   uuid.UUID
	Title       string
	Description string
	IssueNumber int
	IssueURL    string
	Reward      decimal.Decimal
	Tags        []string
}

type TaskFilterDTO struct {
	Limit      int
	Offset     int
	MinReward  *decimal.Decimal
	MaxReward  *decimal.Decimal
	Tags       []string
	ProjectId  *uuid.UUID
	Difficulty string
}
