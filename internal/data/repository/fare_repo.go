package repository

import (
	"context"
	"fmt"

	"railway-booking/internal/data/entity"
	"railway-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type FareRepository interface {
	FindSegmentFare(ctx context.Context, trainNo, from, to string, class entity.SeatClass) (*entity.SegmentFare, error)
	FindSegmentFares(ctx context.Context, trainNo, from, to string) ([]*entity.SegmentFare, error)
}

type fareRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewFareRepository(db database.Querier, log *zap.Logger) FareRepository {
	return &fareRepository{
		db:  db,
		log: log.With(zap.String("repository", "fare")),
	}
}

func (r *fareRepository) FindSegmentFare(ctx context.Context, trainNo, from, to string, class entity.SeatClass) (*entity.SegmentFare, error) {
	query := `
		SELECT train_no, from_station, to_station, seat_class, price, distance_km
		FROM train_fares
		WHERE train_no = $1 AND from_station = $2 AND to_station = $3 AND seat_class = $4
	`

	var fare entity.SegmentFare
	err := r.db.QueryRow(ctx, query, trainNo, from, to, class).Scan(
		&fare.TrainNo,
		&fare.FromStation,
		&fare.ToStation,
		&fare.SeatClass,
		&fare.Price,
		&fare.DistanceKm,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find segment fare",
			zap.Error(err),
			zap.String("train_no", trainNo),
			zap.String("from", from),
			zap.String("to", to),
			zap.String("seat_class", string(class)),
		)
		return nil, fmt.Errorf("find fare %s %s->%s: %w", trainNo, from, to, err)
	}

	return &fare, nil
}

func (r *fareRepository) FindSegmentFares(ctx context.Context, trainNo, from, to string) ([]*entity.SegmentFare, error) {
	query := `
		SELECT train_no, from_station, to_station, seat_class, price, distance_km
		FROM train_fares
		WHERE train_no = $1 AND from_station = $2 AND to_station = $3
	`

	rows, err := r.db.Query(ctx, query, trainNo, from, to)
	if err != nil {
		r.log.Error("Failed to find segment fares",
			zap.Error(err),
			zap.String("train_no", trainNo),
			zap.String("from", from),
			zap.String("to", to),
		)
		return nil, fmt.Errorf("find fares %s %s->%s: %w", trainNo, from, to, err)
	}
	defer rows.Close()

	var fares []*entity.SegmentFare
	for rows.Next() {
		var fare entity.SegmentFare
		err := rows.Scan(
			&fare.TrainNo,
			&fare.FromStation,
			&fare.ToStation,
			&fare.SeatClass,
			&fare.Price,
			&fare.DistanceKm,
		)
		if err != nil {
			r.log.Error("Failed to scan fare row", zap.Error(err))
			return nil, fmt.Errorf("scan fare row: %w", err)
		}
		fares = append(fares, &fare)
	}

	return fares, nil
}
