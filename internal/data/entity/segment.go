package entity

// Segment is the route interval between two consecutive scheduled stops.
// Segments are derived from the stop sequence on demand, never stored.
type Segment struct {
	From string
	To   string
}
