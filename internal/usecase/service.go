package usecase

import (
	"railway-booking/internal/data/repository"
	"railway-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Route        RouteService
	Availability AvailabilityService
	Fare         FareService
	Booking      BookingService
	Order        OrderService
	Reaper       ReaperService
}

func NewService(repo *repository.Repository, events EventPublisher, config *utils.Config, log *zap.Logger) *Service {
	route := NewRouteService(repo, log)
	availability := NewAvailabilityService(repo, route, log)
	fare := NewFareService(repo, route, availability, log)

	return &Service{
		Route:        route,
		Availability: availability,
		Fare:         fare,
		Booking:      NewBookingService(repo, route, fare, events, config.Booking, log),
		Order:        NewOrderService(repo, events, log),
		Reaper:       NewReaperService(repo, events, config.Booking, log),
	}
}
