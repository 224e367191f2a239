package entity

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusCreated         OrderStatus = "created"
	OrderStatusConfirmedUnpaid OrderStatus = "confirmed_unpaid"
	OrderStatusPaid            OrderStatus = "paid"
	OrderStatusCompleted       OrderStatus = "completed"
	OrderStatusCancelled       OrderStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

type Order struct {
	Base
	Serial           string      `db:"serial"` // human-facing number, set at payment
	UserID           uuid.UUID   `db:"user_id"`
	TrainNo          string      `db:"train_no"`
	ServiceDate      time.Time   `db:"service_date"`
	DepartureStation string      `db:"departure_station"`
	ArrivalStation   string      `db:"arrival_station"`
	TotalPrice       float64     `db:"total_price"`
	Status           OrderStatus `db:"status"`
	PaymentDeadline  time.Time   `db:"payment_deadline"`
}

// Ticket binds one passenger of an order to a concrete seat. Tickets are
// written together with the seat allocation and immutable afterwards.
type Ticket struct {
	BaseSimple
	OrderID       uuid.UUID `db:"order_id"`
	PassengerID   uuid.UUID `db:"passenger_id"`
	PassengerName string    `db:"passenger_name"`
	IDCardType    string    `db:"id_card_type"`
	IDCardNumber  string    `db:"id_card_number"`
	SeatClass     SeatClass `db:"seat_class"`
	TicketType    string    `db:"ticket_type"`
	CarNo         int       `db:"car_no"`
	SeatNo        string    `db:"seat_no"`
	Price         float64   `db:"price"`
	SequenceNo    int       `db:"sequence_no"`
}
