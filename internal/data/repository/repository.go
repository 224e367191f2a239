package repository

import (
	"context"
	"fmt"

	"railway-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type Repository struct {
	Train        TrainRepository
	Fare         FareRepository
	SeatSegment  SeatSegmentRepository
	Order        OrderRepository
	Ticket       TicketRepository
	Passenger    PassengerRepository
	Cancellation CancellationRepository

	db  database.PgxIface
	log *zap.Logger
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	r := newRepository(db, log)
	r.db = db
	return r
}

func newRepository(q database.Querier, log *zap.Logger) *Repository {
	return &Repository{
		Train:        NewTrainRepository(q, log),
		Fare:         NewFareRepository(q, log),
		SeatSegment:  NewSeatSegmentRepository(q, log),
		Order:        NewOrderRepository(q, log),
		Ticket:       NewTicketRepository(q, log),
		Passenger:    NewPassengerRepository(q, log),
		Cancellation: NewCancellationRepository(q, log),
		log:          log,
	}
}

// WithTx returns a repository set bound to the given querier, usually an
// open transaction.
func (r *Repository) WithTx(q database.Querier) *Repository {
	return newRepository(q, r.log)
}

// RunInTx runs fn against a repository set bound to a single transaction.
// The seat ledger is only ever mutated through here: fn returning an error
// rolls everything back. Repeatable-read isolation plus the conditional
// updates inside fn close the oversell race window.
func (r *Repository) RunInTx(ctx context.Context, fn func(*Repository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(r.WithTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
