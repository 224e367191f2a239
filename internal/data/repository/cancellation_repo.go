package repository

import (
	"context"
	"fmt"
	"time"

	"railway-booking/internal/data/entity"
	"railway-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CancellationRepository interface {
	Create(ctx context.Context, c *entity.Cancellation) error
	CountByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (int, error)
	// DeleteBefore purges counters from past days; they only back the
	// current-day abuse cap.
	DeleteBefore(ctx context.Context, date time.Time) (int64, error)
}

type cancellationRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewCancellationRepository(db database.Querier, log *zap.Logger) CancellationRepository {
	return &cancellationRepository{
		db:  db,
		log: log.With(zap.String("repository", "cancellation")),
	}
}

func (r *cancellationRepository) Create(ctx context.Context, c *entity.Cancellation) error {
	query := `
		INSERT INTO order_cancellations (id, user_id, order_id, cancellation_date, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(ctx, query,
		c.ID,
		c.UserID,
		c.OrderID,
		c.CancellationDate,
		c.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to record cancellation",
			zap.Error(err),
			zap.String("user_id", c.UserID.String()),
			zap.String("order_id", c.OrderID.String()),
		)
		return fmt.Errorf("record cancellation for order %s: %w", c.OrderID.String(), err)
	}

	return nil
}

func (r *cancellationRepository) CountByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM order_cancellations
		WHERE user_id = $1 AND cancellation_date = $2
	`

	var count int
	err := r.db.QueryRow(ctx, query, userID, date).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count cancellations",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count cancellations for user %s: %w", userID.String(), err)
	}

	return count, nil
}

func (r *cancellationRepository) DeleteBefore(ctx context.Context, date time.Time) (int64, error) {
	query := `DELETE FROM order_cancellations WHERE cancellation_date < $1`

	tag, err := r.db.Exec(ctx, query, date)
	if err != nil {
		r.log.Error("Failed to purge old cancellations", zap.Error(err))
		return 0, fmt.Errorf("purge cancellations before %s: %w", date.Format("2006-01-02"), err)
	}

	return tag.RowsAffected(), nil
}
