package services

import "errors"

// Code validation failures. These are expected, recoverable conditions:
// handlers surface them as a declined result, never as a 500.
var (
	ErrEmptyCode        = errors.New("code is empty")
	ErrCodeNotFound     = errors.New("code not found")
	ErrCodeOwnerInvalid = errors.New("code owner is not a valid stylist")
	ErrCodeInactive     = errors.New("code is inactive")
	ErrCodeExpired      = errors.New("code has expired")
)

// Redemption failures
var (
	ErrNotOriginalRecipient = errors.New("attribution belongs to a different user")
	ErrSelfReferral         = errors.New("cannot redeem your own code")
)

// Ledger failures
var (
	ErrNothingToPay     = errors.New("no unbatched commissions in period")
	ErrBatchNotPending  = errors.New("payout batch is not pending")
	ErrOwnerNotPayable  = errors.New("owner has no payout destination configured")
	ErrProviderTransfer = errors.New("provider transfer failed")
)

// IsValidationError reports whether err is one of the code validation
// failures that should be shown to the user as a rejection rather than
// treated as a server fault.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyCode) ||
		errors.Is(err, ErrCodeNotFound) ||
		errors.Is(err, ErrCodeOwnerInvalid) ||
		errors.Is(err, ErrCodeInactive) ||
		errors.Is(err, ErrCodeExpired)
}
