package response

import (
	"time"

	"railway-booking/internal/data/entity"
	"railway-booking/pkg/utils"
)

type TicketResponse struct {
	PassengerName string           `json:"passenger_name"`
	IDCardType    string           `json:"id_card_type"`
	IDCardNumber  string           `json:"id_card_number"`
	SeatClass     entity.SeatClass `json:"seat_class"`
	TicketType    string           `json:"ticket_type"`
	CarNo         int              `json:"car_no"`
	SeatNo        string           `json:"seat_no"`
	SeatLabel     string           `json:"seat_label"`
	Price         float64          `json:"price"`
}

type OrderResponse struct {
	ID               string             `json:"id"`
	Serial           string             `json:"serial,omitempty"`
	TrainNo          string             `json:"train_no"`
	ServiceDate      string             `json:"service_date"`
	DepartureStation string             `json:"departure_station"`
	ArrivalStation   string             `json:"arrival_station"`
	DepartureTime    string             `json:"departure_time,omitempty"`
	TotalPrice       float64            `json:"total_price"`
	Status           entity.OrderStatus `json:"status"`
	PaymentDeadline  *time.Time         `json:"payment_deadline,omitempty"`
	// RemainingPaymentSeconds is only meaningful while the order is
	// confirmed_unpaid; zero once paid, cancelled or expired.
	RemainingPaymentSeconds int64            `json:"remaining_payment_seconds"`
	NearDeparture           bool             `json:"near_departure,omitempty"`
	Tickets                 []TicketResponse `json:"tickets,omitempty"`
	CreatedAt               time.Time        `json:"created_at"`
}

// Helper converters
func TicketToResponse(t *entity.Ticket) TicketResponse {
	return TicketResponse{
		PassengerName: t.PassengerName,
		IDCardType:    t.IDCardType,
		IDCardNumber:  utils.MaskIDCardNumber(t.IDCardNumber),
		SeatClass:     t.SeatClass,
		TicketType:    t.TicketType,
		CarNo:         t.CarNo,
		SeatNo:        utils.FormatSeatNumber(t.SeatNo, string(t.SeatClass)),
		SeatLabel:     utils.FormatFullSeatNumber(t.CarNo, t.SeatNo, string(t.SeatClass)),
		Price:         t.Price,
	}
}

func OrderToResponse(order *entity.Order, tickets []*entity.Ticket, now time.Time) OrderResponse {
	resp := OrderResponse{
		ID:               order.ID.String(),
		Serial:           order.Serial,
		TrainNo:          order.TrainNo,
		ServiceDate:      order.ServiceDate.Format("2006-01-02"),
		DepartureStation: order.DepartureStation,
		ArrivalStation:   order.ArrivalStation,
		TotalPrice:       order.TotalPrice,
		Status:           order.Status,
		CreatedAt:        order.CreatedAt,
	}

	if order.Status == entity.OrderStatusConfirmedUnpaid {
		deadline := order.PaymentDeadline
		resp.PaymentDeadline = &deadline
		if remaining := deadline.Sub(now); remaining > 0 {
			resp.RemainingPaymentSeconds = int64(remaining.Seconds())
		}
	}

	for _, t := range tickets {
		resp.Tickets = append(resp.Tickets, TicketToResponse(t))
	}

	return resp
}
