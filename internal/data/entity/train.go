package entity

import "time"

// TrainInstance is one train number on one service date. Instances are
// created by schedule ingestion and immutable afterwards.
type TrainInstance struct {
	TrainNo       string    `db:"train_no"`
	ServiceDate   time.Time `db:"service_date"`
	DepartureTime time.Time `db:"departure_time"`
	ArrivalTime   time.Time `db:"arrival_time"`
}

// TrainStop is one scheduled stop of a train instance. Seq is the position
// in the route, starting at 0.
type TrainStop struct {
	TrainNo       string    `db:"train_no"`
	ServiceDate   time.Time `db:"service_date"`
	Seq           int       `db:"seq"`
	Station       string    `db:"station"`
	ArrivalTime   time.Time `db:"arrival_time"`
	DepartureTime time.Time `db:"departure_time"`
}
