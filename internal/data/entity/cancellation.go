package entity

import (
	"time"

	"github.com/google/uuid"
)

// Cancellation is one user-initiated cancellation on a calendar day. The
// per-user daily count backs the booking abuse cap; reaper releases are
// never recorded here.
type Cancellation struct {
	BaseSimple
	UserID           uuid.UUID `db:"user_id"`
	OrderID          uuid.UUID `db:"order_id"`
	CancellationDate time.Time `db:"cancellation_date"`
}
