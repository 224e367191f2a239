package queue

import "time"

// Queue names, one per order lifecycle transition. Queues are durable and
// declared on every publish, so consumers may start in any order.
const (
	QueueOrderCreated   = "order.created"
	QueueOrderPaid      = "order.paid"
	QueueOrderCancelled = "order.cancelled"
)

// OrderEvent is the payload published on every lifecycle queue. Serial is
// empty until the order is paid.
type OrderEvent struct {
	OrderID     string    `json:"order_id"`
	Serial      string    `json:"serial,omitempty"`
	UserID      string    `json:"user_id"`
	TrainNo     string    `json:"train_no"`
	ServiceDate string    `json:"service_date"`
	TotalPrice  float64   `json:"total_price"`
	Status      string    `json:"status"`
	OccurredAt  time.Time `json:"occurred_at"`
}
