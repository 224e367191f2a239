package entity

import (
	"time"

	"github.com/google/uuid"
)

type SeatClass string

const (
	SeatClassSecond      SeatClass = "second_class"
	SeatClassFirst       SeatClass = "first_class"
	SeatClassBusiness    SeatClass = "business"
	SeatClassHardSleeper SeatClass = "hard_sleeper"
	SeatClassSoftSleeper SeatClass = "soft_sleeper"
)

// AllSeatClasses in display order.
var AllSeatClasses = []SeatClass{
	SeatClassSecond,
	SeatClassFirst,
	SeatClassBusiness,
	SeatClassHardSleeper,
	SeatClassSoftSleeper,
}

func (c SeatClass) Valid() bool {
	switch c {
	case SeatClassSecond, SeatClassFirst, SeatClassBusiness, SeatClassHardSleeper, SeatClassSoftSleeper:
		return true
	}
	return false
}

// DefaultSeatClass picks the class preselected for a train: high-speed
// prefixes (G/C/D) default to second class, everything else to hard sleeper.
func DefaultSeatClass(trainNo string) SeatClass {
	if trainNo == "" {
		return SeatClassSecond
	}
	switch trainNo[0] {
	case 'G', 'C', 'D':
		return SeatClassSecond
	}
	return SeatClassHardSleeper
}

type SeatSegmentStatus string

const (
	SeatSegmentAvailable SeatSegmentStatus = "available"
	SeatSegmentBooked    SeatSegmentStatus = "booked"
)

// SeatSegment is the unit of occupancy state: one row per physical seat per
// route segment. A seat is free for a journey only when every spanned row is
// available; rows outside the journey may be booked by someone else.
type SeatSegment struct {
	TrainNo     string            `db:"train_no"`
	ServiceDate time.Time         `db:"service_date"`
	CarNo       int               `db:"car_no"`
	SeatNo      string            `db:"seat_no"`
	SeatClass   SeatClass         `db:"seat_class"`
	FromStation string            `db:"from_station"`
	ToStation   string            `db:"to_station"`
	Status      SeatSegmentStatus `db:"status"`
	OrderID     *uuid.UUID        `db:"order_id"`
	HoldAt      *time.Time        `db:"hold_at"`
}

// SeatRef identifies a physical seat within a train instance.
type SeatRef struct {
	CarNo  int    `db:"car_no"`
	SeatNo string `db:"seat_no"`
}
