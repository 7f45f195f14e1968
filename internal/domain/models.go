package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TaskStatus string

const (
	TaskOpen      TaskStatus = "open"
	TaskCompleted TaskStatus = "completed"
	TaskClosed    TaskStatus = "closed"
)

type EscrowStatus string

const (
	EscrowPending  EscrowStatus = "pending"
	EscrowFunded   EscrowStatus = "funded"
	EscrowReleased EscrowStatus = "released"
	EscrowRefunded EscrowStatus = "refunded"
)

// Допустимые переходы escrow. released -> funded используется только
// для отката неудавшегося перевода и наружу как операция не выставляется.
var escrowTransitions = map[EscrowStatus][]EscrowStatus{
	EscrowPending:  {EscrowFunded},
	EscrowFunded:   {EscrowReleased, EscrowRefunded},
	EscrowReleased: {EscrowFunded},
}

// CanTransitionTo сообщает, разрешен ли переход escrow из s в next
func (s EscrowStatus) CanTransitionTo(next EscrowStatus) bool {
	for _, allowed := range escrowTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type ContributionStatus string

const (
	ContributionPending  ContributionStatus = "pending"
	ContributionApproved ContributionStatus = "approved"
	ContributionRejected ContributionStatus = "rejected"
)

// IsTerminal - из approved и rejected выхода нет
func (s ContributionStatus) IsTerminal() bool {
	return s == ContributionApproved || s == ContributionRejected
}

type PayoutStatus string

// processing - выплата захвачена исполнителем, перевод мог уже уйти.
// Такие выплаты повторно автоматически не проводятся.
const (
	PayoutPending    PayoutStatus = "pending"
	PayoutProcessing PayoutStatus = "processing"
	PayoutCompleted  PayoutStatus = "completed"
	PayoutFailed     PayoutStatus = "failed"
)

type Profile struct {
	Id              uuid.UUID
	DisplayName     string
	AvatarURL       string
	Email           string
	GitHubUsername  string
	GitHubId        int64
	PolkadotAddress string
	CreatedAt       time.Time
}

type Project struct {
	Id           uuid.UUID
	MaintainerId uuid.UUID
	Owner        string
	RepoName     string
	RepoURL      string
	Description  string
	LogoURL      string
	IsActive     bool
	Stars        int
	Forks        int
	OpenIssues   int
	LastSyncedAt *time.Time
	CreatedAt    time.Time
}

type Task struct {
	Id             uuid.UUID
	ProjectId      uuid.UUID
	Title          string
	Description    string
	Reward         decimal.Decimal
	Status         TaskStatus
	EscrowStatus   EscrowStatus
	EscrowAmount   decimal.NullDecimal
	EscrowFundedAt *time.Time
	IssueNumber    *int
	IssueURL       string
	Tags           []string
	Difficulty     string
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

// PayoutAmount - сумма к выплате: зафиксированная в escrow, иначе награда задачи
func (t *Task) PayoutAmount() decimal.Decimal {
	if t.EscrowAmount.Valid {
		return t.EscrowAmount.Decimal
	}
	return t.Reward
}

type Contribution struct {
	Id            uuid.UUID
	TaskId        uuid.UUID
	ContributorId uuid.UUID
	PrNumber      int
	PrURL         string
	Status        ContributionStatus
	SubmittedAt   time.Time
	ApprovedAt    *time.Time
}

type Payout struct {
	Id              uuid.UUID
	ContributionId  uuid.UUID
	RecipientId     uuid.UUID
	Amount          decimal.Decimal
	Address         string
	Status          PayoutStatus
	TransactionHash string
	FailureReason   string
	CreatedAt       time.Time
	PaidAt          *time.Time
}
