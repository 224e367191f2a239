package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"railway-booking/internal/data/entity"
	"railway-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SeatSegmentRepository interface {
	// FindBySegments returns every ledger row of the class whose segment is
	// in the spanned list, ordered by car then seat then segment.
	FindBySegments(ctx context.Context, trainNo string, serviceDate time.Time, class entity.SeatClass, segments []entity.Segment) ([]*entity.SeatSegment, error)

	// Book flips the spanned rows of one seat to booked. It only touches
	// rows still available; callers must verify the returned count equals
	// len(segments) and abort the surrounding transaction otherwise.
	Book(ctx context.Context, trainNo string, serviceDate time.Time, class entity.SeatClass, seat entity.SeatRef, segments []entity.Segment, orderID uuid.UUID, at time.Time) (int64, error)

	// ReleaseByOrder returns every row held by the order to available.
	ReleaseByOrder(ctx context.Context, orderID uuid.UUID) (int64, error)
}

type seatSegmentRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewSeatSegmentRepository(db database.Querier, log *zap.Logger) SeatSegmentRepository {
	return &seatSegmentRepository{
		db:  db,
		log: log.With(zap.String("repository", "seat_segment")),
	}
}

// segmentPredicate builds "(from_station, to_station) IN (($n,$n+1), ...)"
// starting at placeholder index start, and appends the pair values to args.
func segmentPredicate(start int, segments []entity.Segment, args []any) (string, []any) {
	pairs := make([]string, len(segments))
	for i, seg := range segments {
		pairs[i] = fmt.Sprintf("($%d, $%d)", start+i*2, start+i*2+1)
		args = append(args, seg.From, seg.To)
	}
	return "(from_station, to_station) IN (" + strings.Join(pairs, ", ") + ")", args
}

func (r *seatSegmentRepository) FindBySegments(ctx context.Context, trainNo string, serviceDate time.Time, class entity.SeatClass, segments []entity.Segment) ([]*entity.SeatSegment, error) {
	if len(segments) == 0 {
		return nil, nil
	}

	args := []any{trainNo, serviceDate, class}
	predicate, args := segmentPredicate(4, segments, args)

	query := fmt.Sprintf(`
		SELECT train_no, service_date, car_no, seat_no, seat_class,
		       from_station, to_station, status, order_id, hold_at
		FROM seat_segments
		WHERE train_no = $1 AND service_date = $2 AND seat_class = $3
		AND %s
		ORDER BY car_no, seat_no, from_station
	`, predicate)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to find seat segments",
			zap.Error(err),
			zap.String("train_no", trainNo),
			zap.String("seat_class", string(class)),
			zap.Int("segments", len(segments)),
		)
		return nil, fmt.Errorf("find seat segments for train %s: %w", trainNo, err)
	}
	defer rows.Close()

	var records []*entity.SeatSegment
	for rows.Next() {
		var rec entity.SeatSegment
		err := rows.Scan(
			&rec.TrainNo,
			&rec.ServiceDate,
			&rec.CarNo,
			&rec.SeatNo,
			&rec.SeatClass,
			&rec.FromStation,
			&rec.ToStation,
			&rec.Status,
			&rec.OrderID,
			&rec.HoldAt,
		)
		if err != nil {
			r.log.Error("Failed to scan seat segment row", zap.Error(err))
			return nil, fmt.Errorf("scan seat segment row: %w", err)
		}
		records = append(records, &rec)
	}

	return records, nil
}

func (r *seatSegmentRepository) Book(ctx context.Context, trainNo string, serviceDate time.Time, class entity.SeatClass, seat entity.SeatRef, segments []entity.Segment, orderID uuid.UUID, at time.Time) (int64, error) {
	if len(segments) == 0 {
		return 0, nil
	}

	args := []any{orderID, at, trainNo, serviceDate, class, seat.CarNo, seat.SeatNo}
	predicate, args := segmentPredicate(8, segments, args)

	// The status guard makes this safe even below serializable isolation: a
	// concurrent booking that got there first leaves fewer rows to update,
	// the caller sees the short count and rolls back.
	query := fmt.Sprintf(`
		UPDATE seat_segments
		SET status = 'booked', order_id = $1, hold_at = $2
		WHERE train_no = $3 AND service_date = $4 AND seat_class = $5
		AND car_no = $6 AND seat_no = $7
		AND status = 'available'
		AND %s
	`, predicate)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to book seat segments",
			zap.Error(err),
			zap.String("train_no", trainNo),
			zap.Int("car_no", seat.CarNo),
			zap.String("seat_no", seat.SeatNo),
			zap.String("order_id", orderID.String()),
		)
		return 0, fmt.Errorf("book seat %d-%s on train %s: %w", seat.CarNo, seat.SeatNo, trainNo, err)
	}

	return tag.RowsAffected(), nil
}

func (r *seatSegmentRepository) ReleaseByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	query := `
		UPDATE seat_segments
		SET status = 'available', order_id = NULL, hold_at = NULL
		WHERE order_id = $1 AND status = 'booked'
	`

	tag, err := r.db.Exec(ctx, query, orderID)
	if err != nil {
		r.log.Error("Failed to release seat segments",
			zap.Error(err),
			zap.String("order_id", orderID.String()),
		)
		return 0, fmt.Errorf("release seats for order %s: %w", orderID.String(), err)
	}

	return tag.RowsAffected(), nil
}
