package adaptor

import (
	"railway-booking/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Inventory *InventoryHandler
	Order     *OrderHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Inventory: NewInventoryHandler(service.Availability, service.Fare, log),
		Order:     NewOrderHandler(service.Booking, service.Order, log),
	}
}
