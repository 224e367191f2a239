package response

import (
	"time"

	"railway-booking/internal/data/entity"
)

type AvailabilityResponse struct {
	TrainNo          string                   `json:"train_no"`
	ServiceDate      string                   `json:"service_date"`
	DepartureStation string                   `json:"departure_station"`
	ArrivalStation   string                   `json:"arrival_station"`
	Counts           map[entity.SeatClass]int `json:"counts"`
}

type FareResponse struct {
	TrainNo          string           `json:"train_no"`
	ServiceDate      string           `json:"service_date"`
	DepartureStation string           `json:"departure_station"`
	ArrivalStation   string           `json:"arrival_station"`
	SeatClass        entity.SeatClass `json:"seat_class"`
	Price            float64          `json:"price"`
}

type QuoteResponse struct {
	SeatClass entity.SeatClass `json:"seat_class"`
	Price     float64          `json:"price"`
	Available int              `json:"available"`
}

type QuotesResponse struct {
	TrainNo          string          `json:"train_no"`
	ServiceDate      string          `json:"service_date"`
	DepartureStation string          `json:"departure_station"`
	ArrivalStation   string          `json:"arrival_station"`
	DepartureTime    time.Time       `json:"departure_time"`
	ArrivalTime      time.Time       `json:"arrival_time"`
	Quotes           []QuoteResponse `json:"quotes"`
}
