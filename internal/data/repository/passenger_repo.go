package repository

import (
	"context"
	"fmt"

	"railway-booking/internal/data/entity"
	"railway-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PassengerRepository interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Passenger, error)
}

type passengerRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewPassengerRepository(db database.Querier, log *zap.Logger) PassengerRepository {
	return &passengerRepository{
		db:  db,
		log: log.With(zap.String("repository", "passenger")),
	}
}

const passengerColumns = `id, user_id, name, id_card_type, id_card_number, phone, points, created_at, updated_at`

func (r *passengerRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Passenger, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + passengerColumns + ` FROM passengers WHERE id = ANY($1)`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		r.log.Error("Failed to find passengers by IDs",
			zap.Error(err),
			zap.Int("count", len(ids)),
		)
		return nil, fmt.Errorf("find passengers by IDs: %w", err)
	}
	defer rows.Close()

	var passengers []*entity.Passenger
	for rows.Next() {
		var p entity.Passenger
		err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.Name,
			&p.IDCardType,
			&p.IDCardNumber,
			&p.Phone,
			&p.Points,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan passenger row", zap.Error(err))
			return nil, fmt.Errorf("scan passenger row: %w", err)
		}
		passengers = append(passengers, &p)
	}

	return passengers, nil
}
