package entity

// SegmentFare is the published price of one adjacent-stop segment for one
// seat class. Journey fares are sums over the spanned segments.
type SegmentFare struct {
	TrainNo     string    `db:"train_no"`
	FromStation string    `db:"from_station"`
	ToStation   string    `db:"to_station"`
	SeatClass   SeatClass `db:"seat_class"`
	Price       float64   `db:"price"`
	DistanceKm  float64   `db:"distance_km"`
}
