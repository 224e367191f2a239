package repository

import (
	"context"
	"fmt"

	"railway-booking/internal/data/entity"
	"railway-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TicketRepository interface {
	Create(ctx context.Context, ticket *entity.Ticket) error
	CreateBatch(ctx context.Context, tickets []*entity.Ticket) error
	FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*entity.Ticket, error)
}

type ticketRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewTicketRepository(db database.Querier, log *zap.Logger) TicketRepository {
	return &ticketRepository{
		db:  db,
		log: log.With(zap.String("repository", "ticket")),
	}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *entity.Ticket) error {
	query := `
		INSERT INTO tickets (id, order_id, passenger_id, passenger_name, id_card_type,
		                     id_card_number, seat_class, ticket_type, car_no, seat_no,
		                     price, sequence_no, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.Exec(ctx, query,
		ticket.ID,
		ticket.OrderID,
		ticket.PassengerID,
		ticket.PassengerName,
		ticket.IDCardType,
		ticket.IDCardNumber,
		ticket.SeatClass,
		ticket.TicketType,
		ticket.CarNo,
		ticket.SeatNo,
		ticket.Price,
		ticket.SequenceNo,
		ticket.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create ticket",
			zap.Error(err),
			zap.String("order_id", ticket.OrderID.String()),
			zap.String("passenger_id", ticket.PassengerID.String()),
		)
		return fmt.Errorf("create ticket for order %s passenger %s: %w",
			ticket.OrderID.String(), ticket.PassengerID.String(), err)
	}

	return nil
}

func (r *ticketRepository) CreateBatch(ctx context.Context, tickets []*entity.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}

	for _, t := range tickets {
		if err := r.Create(ctx, t); err != nil {
			return err
		}
	}

	return nil
}

func (r *ticketRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*entity.Ticket, error) {
	query := `
		SELECT id, order_id, passenger_id, passenger_name, id_card_type, id_card_number,
		       seat_class, ticket_type, car_no, seat_no, price, sequence_no, created_at
		FROM tickets
		WHERE order_id = $1
		ORDER BY sequence_no
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		r.log.Error("Failed to find tickets by order ID",
			zap.Error(err),
			zap.String("order_id", orderID.String()),
		)
		return nil, fmt.Errorf("find tickets by order ID %s: %w", orderID.String(), err)
	}
	defer rows.Close()

	var tickets []*entity.Ticket
	for rows.Next() {
		var t entity.Ticket
		err := rows.Scan(
			&t.ID,
			&t.OrderID,
			&t.PassengerID,
			&t.PassengerName,
			&t.IDCardType,
			&t.IDCardNumber,
			&t.SeatClass,
			&t.TicketType,
			&t.CarNo,
			&t.SeatNo,
			&t.Price,
			&t.SequenceNo,
			&t.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan ticket row", zap.Error(err))
			return nil, fmt.Errorf("scan ticket row: %w", err)
		}
		tickets = append(tickets, &t)
	}

	return tickets, nil
}
