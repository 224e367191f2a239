package repository

import (
	"context"
	"fmt"
	"time"

	"railway-booking/internal/data/entity"
	"railway-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type TrainRepository interface {
	FindInstance(ctx context.Context, trainNo string, serviceDate time.Time) (*entity.TrainInstance, error)
	FindStops(ctx context.Context, trainNo string, serviceDate time.Time) ([]*entity.TrainStop, error)
}

type trainRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewTrainRepository(db database.Querier, log *zap.Logger) TrainRepository {
	return &trainRepository{
		db:  db,
		log: log.With(zap.String("repository", "train")),
	}
}

func (r *trainRepository) FindInstance(ctx context.Context, trainNo string, serviceDate time.Time) (*entity.TrainInstance, error) {
	query := `
		SELECT train_no, service_date, departure_time, arrival_time
		FROM trains
		WHERE train_no = $1 AND service_date = $2
	`

	var train entity.TrainInstance
	err := r.db.QueryRow(ctx, query, trainNo, serviceDate).Scan(
		&train.TrainNo,
		&train.ServiceDate,
		&train.DepartureTime,
		&train.ArrivalTime,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find train instance",
			zap.Error(err),
			zap.String("train_no", trainNo),
			zap.Time("service_date", serviceDate),
		)
		return nil, fmt.Errorf("find train %s on %s: %w", trainNo, serviceDate.Format("2006-01-02"), err)
	}

	return &train, nil
}

func (r *trainRepository) FindStops(ctx context.Context, trainNo string, serviceDate time.Time) ([]*entity.TrainStop, error) {
	query := `
		SELECT train_no, service_date, seq, station, arrival_time, departure_time
		FROM train_stops
		WHERE train_no = $1 AND service_date = $2
		ORDER BY seq
	`

	rows, err := r.db.Query(ctx, query, trainNo, serviceDate)
	if err != nil {
		r.log.Error("Failed to find train stops",
			zap.Error(err),
			zap.String("train_no", trainNo),
		)
		return nil, fmt.Errorf("find stops for train %s: %w", trainNo, err)
	}
	defer rows.Close()

	var stops []*entity.TrainStop
	for rows.Next() {
		var stop entity.TrainStop
		err := rows.Scan(
			&stop.TrainNo,
			&stop.ServiceDate,
			&stop.Seq,
			&stop.Station,
			&stop.ArrivalTime,
			&stop.DepartureTime,
		)
		if err != nil {
			r.log.Error("Failed to scan train stop row", zap.Error(err))
			return nil, fmt.Errorf("scan train stop row: %w", err)
		}
		stops = append(stops, &stop)
	}

	return stops, nil
}
