package service

import (
	"errors"
	"fmt"

	"github.com/niklvrr/dotbounty/internal/infrastructure/repository"
)

const (
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeAlreadyFunded   = "ALREADY_FUNDED"
	CodeNotFunded       = "NOT_FUNDED"
	CodeExternalFailure = "EXTERNAL_FAILURE"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeMalformedEvent  = "MALFORMED_EVENT"
)

type DomainError struct {
	Code    string
	Message string
	Err     error
}

func WrapError(domainError *DomainError, err error) error {
	return &DomainError{
		Code:    domainError.Code,
		Message: domainError.Message,
		Err:     err,
	}
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is сравнивает доменные ошибки по коду и сообщению, чтобы обернутые
// через WrapError копии совпадали с исходными переменными
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

var (
	// UNAUTHORIZED
	ErrUnauthorized = &DomainError{
		Code:    CodeUnauthorized,
		Message: "authentication required",
	}

	// FORBIDDEN
	ErrNotMaintainer = &DomainError{
		Code:    CodeForbidden,
		Message: "only the project maintainer can perform this action",
	}

	// NOT_FOUND
	ErrTaskNotFound = &DomainError{
		Code:    CodeNotFound,
		Message: "task not found",
	}
	ErrContributionNotFound = &DomainError{
		Code:    CodeNotFound,
		Message: "contribution not found",
	}
	ErrPayoutNotFound = &DomainError{
		Code:    CodeNotFound,
		Message: "payout not found",
	}
	ErrProfileNotFound = &DomainError{
		Code:    CodeNotFound,
		Message: "profile not found",
	}
	ErrWalletMissing = &DomainError{
		Code:    CodeNotFound,
		Message: "contributor has no wallet address",
	}

	// CONFLICT
	ErrContributionFinalized = &DomainError{
		Code:    CodeConflict,
		Message: "contribution is already approved or rejected",
	}
	ErrEscrowNotFunded = &DomainError{
		Code:    CodeConflict,
		Message: "escrow is not funded for this task",
	}
	ErrEscrowReleased = &DomainError{
		Code:    CodeConflict,
		Message: "escrow already released",
	}
	ErrPayoutInFlight = &DomainError{
		Code:    CodeConflict,
		Message: "payout is already being processed",
	}
	ErrNeedsReconciliation = &DomainError{
		Code:    CodeConflict,
		Message: "escrow already released, payout needs manual reconciliation",
	}
	ErrPayoutNotFailed = &DomainError{
		Code:    CodeConflict,
		Message: "only failed payouts can be reset",
	}

	// ALREADY_FUNDED
	ErrAlreadyFunded = &DomainError{
		Code:    CodeAlreadyFunded,
		Message: "escrow already funded",
	}

	// NOT_FUNDED
	ErrNotFunded = &DomainError{
		Code:    CodeNotFunded,
		Message: "escrow is not funded",
	}

	// EXTERNAL_FAILURE
	ErrTransferFailed = &DomainError{
		Code:    CodeExternalFailure,
		Message: "chain transfer failed",
	}
	ErrStorage = &DomainError{
		Code:    CodeExternalFailure,
		Message: "storage failure",
	}

	// INVALID_INPUT
	ErrInvalidInput = &DomainError{
		Code:    CodeInvalidInput,
		Message: "invalid input",
	}
	ErrInvalidAddress = &DomainError{
		Code:    CodeInvalidInput,
		Message: "invalid polkadot address",
	}

	// MALFORMED_EVENT
	ErrMalformedEvent = &DomainError{
		Code:    CodeMalformedEvent,
		Message: "webhook payload is missing required fields",
	}
)

// mapRepoError переводит ошибку репозитория в доменную:
// ErrNotFound -> notFound, остальное -> ErrStorage
func mapRepoError(err error, notFound *DomainError) error {
	if err == nil {
		return nil
	}
	if notFound != nil && errors.Is(err, repository.ErrNotFound) {
		return WrapError(notFound, err)
	}
	return WrapError(ErrStorage, err)
}
