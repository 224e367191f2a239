package request

type OrderPassengerRequest struct {
	PassengerID string `json:"passenger_id" validate:"required,uuid4"`
	SeatClass   string `json:"seat_class" validate:"required,oneof=second_class first_class business hard_sleeper soft_sleeper"`
	TicketType  string `json:"ticket_type" validate:"required,oneof=adult child student disability"`
}

type CreateOrderRequest struct {
	TrainNo          string                  `json:"train_no" validate:"required"`
	ServiceDate      string                  `json:"service_date" validate:"required,datetime=2006-01-02"`
	DepartureStation string                  `json:"departure_station" validate:"required"`
	ArrivalStation   string                  `json:"arrival_station" validate:"required"`
	QueriedAt        int64                   `json:"queried_at" validate:"required"` // unix seconds of the availability query this submission is based on
	Passengers       []OrderPassengerRequest `json:"passengers" validate:"required,min=1,max=5,dive"`
}
