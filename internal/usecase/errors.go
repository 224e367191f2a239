package usecase

import "errors"

// Booking failure taxonomy. Handlers map these to HTTP statuses with
// errors.Is; services wrap them with context via fmt.Errorf("%w: ...").
var (
	// Validation: rejected before any storage access.
	ErrInvalidRoute      = errors.New("invalid route")
	ErrTrainNotFound     = errors.New("train not found")
	ErrPassengerNotFound = errors.New("passenger not found")

	// Inventory conflict: expected under contention, never retried silently.
	ErrInsufficientInventory = errors.New("insufficient inventory")

	// Data integrity: a spanned segment has no published price.
	ErrFareUnavailable = errors.New("fare unavailable")

	// Staleness: the availability query behind the submission is too old.
	ErrStaleQuery = errors.New("stale availability query")

	// Abuse limit: too many user cancellations today.
	ErrCancellationLimitExceeded = errors.New("daily cancellation limit exceeded")

	// Storage failure after the single allowed retry.
	ErrBookingFailed = errors.New("booking failed")

	ErrOrderNotFound     = errors.New("order not found")
	ErrForbidden         = errors.New("not allowed for this user")
	ErrInvalidOrderState = errors.New("order state does not allow this operation")
	ErrOrderExpired      = errors.New("order payment deadline has passed")
	ErrUnpaidOrderExists = errors.New("an unpaid order is still open")
)
