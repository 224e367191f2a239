package repository

import (
	"context"
	"fmt"
	"time"

	"railway-booking/internal/data/entity"
	"railway-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	// FindByIDForUpdate locks the order row for the rest of the transaction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Order, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)

	// UpdateStatus transitions the order only when it is still in from;
	// false means the guard did not match.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.OrderStatus, at time.Time) (bool, error)
	// MarkPaid stamps the serial and flips confirmed_unpaid to paid, refusing
	// orders whose payment deadline has already passed.
	MarkPaid(ctx context.Context, id uuid.UUID, serial string, at time.Time) (bool, error)

	FindActiveUnpaidByUser(ctx context.Context, userID uuid.UUID, now time.Time) (*entity.Order, error)
	FindExpiredUnpaid(ctx context.Context, now time.Time, limit int) ([]*entity.Order, error)
}

type orderRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewOrderRepository(db database.Querier, log *zap.Logger) OrderRepository {
	return &orderRepository{
		db:  db,
		log: log.With(zap.String("repository", "order")),
	}
}

const orderColumns = `id, serial, user_id, train_no, service_date, departure_station,
		       arrival_station, total_price, status, payment_deadline, created_at, updated_at`

func (r *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	query := `
		INSERT INTO orders (id, serial, user_id, train_no, service_date, departure_station,
		                    arrival_station, total_price, status, payment_deadline, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.Exec(ctx, query,
		order.ID,
		order.Serial,
		order.UserID,
		order.TrainNo,
		order.ServiceDate,
		order.DepartureStation,
		order.ArrivalStation,
		order.TotalPrice,
		order.Status,
		order.PaymentDeadline,
		order.CreatedAt,
		order.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create order",
			zap.Error(err),
			zap.String("order_id", order.ID.String()),
			zap.String("user_id", order.UserID.String()),
		)
		return fmt.Errorf("create order %s: %w", order.ID.String(), err)
	}

	return nil
}

func (r *orderRepository) scanOrder(row pgx.Row) (*entity.Order, error) {
	var order entity.Order
	err := row.Scan(
		&order.ID,
		&order.Serial,
		&order.UserID,
		&order.TrainNo,
		&order.ServiceDate,
		&order.DepartureStation,
		&order.ArrivalStation,
		&order.TotalPrice,
		&order.Status,
		&order.PaymentDeadline,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := r.scanOrder(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find order by ID",
			zap.Error(err),
			zap.String("order_id", id.String()),
		)
		return nil, fmt.Errorf("find order by ID %s: %w", id.String(), err)
	}

	return order, nil
}

func (r *orderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

	order, err := r.scanOrder(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to lock order",
			zap.Error(err),
			zap.String("order_id", id.String()),
		)
		return nil, fmt.Errorf("lock order %s: %w", id.String(), err)
	}

	return order, nil
}

func (r *orderRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find orders by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find orders by user ID %s: %w", userID.String(), err)
	}
	defer rows.Close()

	var orders []*entity.Order
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			r.log.Error("Failed to scan order row", zap.Error(err))
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}

	return orders, nil
}

func (r *orderRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM orders WHERE user_id = $1`

	var count int64
	err := r.db.QueryRow(ctx, query, userID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count orders by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count orders by user ID %s: %w", userID.String(), err)
	}

	return count, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.OrderStatus, at time.Time) (bool, error) {
	query := `UPDATE orders SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`

	tag, err := r.db.Exec(ctx, query, id, from, to, at)
	if err != nil {
		r.log.Error("Failed to update order status",
			zap.Error(err),
			zap.String("order_id", id.String()),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return false, fmt.Errorf("update order %s status to %s: %w", id.String(), string(to), err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *orderRepository) MarkPaid(ctx context.Context, id uuid.UUID, serial string, at time.Time) (bool, error) {
	query := `
		UPDATE orders SET status = $2, serial = $3, updated_at = $4
		WHERE id = $1 AND status = $5 AND payment_deadline >= $4
	`

	tag, err := r.db.Exec(ctx, query, id, entity.OrderStatusPaid, serial, at, entity.OrderStatusConfirmedUnpaid)
	if err != nil {
		r.log.Error("Failed to mark order paid",
			zap.Error(err),
			zap.String("order_id", id.String()),
		)
		return false, fmt.Errorf("mark order %s paid: %w", id.String(), err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *orderRepository) FindActiveUnpaidByUser(ctx context.Context, userID uuid.UUID, now time.Time) (*entity.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1 AND status = $2 AND payment_deadline >= $3
		LIMIT 1
	`

	order, err := r.scanOrder(r.db.QueryRow(ctx, query, userID, entity.OrderStatusConfirmedUnpaid, now))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find active unpaid order",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find active unpaid order for user %s: %w", userID.String(), err)
	}

	return order, nil
}

func (r *orderRepository) FindExpiredUnpaid(ctx context.Context, now time.Time, limit int) ([]*entity.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE status = $1 AND payment_deadline < $2
		ORDER BY payment_deadline
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, entity.OrderStatusConfirmedUnpaid, now, limit)
	if err != nil {
		r.log.Error("Failed to find expired unpaid orders", zap.Error(err))
		return nil, fmt.Errorf("find expired unpaid orders: %w", err)
	}
	defer rows.Close()

	var orders []*entity.Order
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			r.log.Error("Failed to scan order row", zap.Error(err))
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}

	return orders, nil
}
