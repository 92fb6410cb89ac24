package models

import (
	"errors"
	"fmt"
)

// Error kinds returned to API clients. These are stable identifiers —
// clients and tests match on Kind, never on the message text.
const (
	KindValidation         = "validation_error"
	KindInvalidTransition  = "invalid_transition"
	KindNotFundable        = "tournament_not_fundable"
	KindFundingClosed      = "funding_window_closed"
	KindExceedsCapacity    = "investment_exceeds_remaining_capacity"
	KindGuaranteeNotActive = "guarantee_not_active"
	KindAlreadySettled     = "tournament_already_settled"
	KindInvalidRankingTier = "invalid_ranking_tier"
	KindNotFound           = "not_found"
	KindConflict           = "conflict"
)

// AppError is a business-rule violation with a machine-readable kind.
type AppError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewAppError(kind, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ErrKind extracts the kind from err, or "" if err is not an AppError.
func ErrKind(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// IsConflict reports whether err is the optimistic-concurrency retry signal.
func IsConflict(err error) bool {
	return ErrKind(err) == KindConflict
}

// HTTPStatus maps an error kind to the response status code.
func HTTPStatus(err error) int {
	switch ErrKind(err) {
	case KindValidation, KindInvalidRankingTier:
		return 400
	case KindNotFound:
		return 404
	case KindInvalidTransition, KindNotFundable, KindFundingClosed,
		KindGuaranteeNotActive, KindAlreadySettled, KindConflict:
		return 409
	case KindExceedsCapacity:
		return 422
	default:
		return 500
	}
}
