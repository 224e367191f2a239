package wire

import (
	"railway-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireInventory(
	r chi.Router,
	inventoryHandler *adaptor.InventoryHandler,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	r.Route("/api/trains/{trainNo}", func(r chi.Router) {
		// GET /api/trains/{trainNo}/availability - Free seats per class
		r.Get("/availability", inventoryHandler.GetAvailability)

		// GET /api/trains/{trainNo}/fare - Journey fare for one class
		r.Get("/fare", inventoryHandler.GetFare)

		// GET /api/trains/{trainNo}/quotes - Bookable classes with price and count
		r.Get("/quotes", inventoryHandler.GetQuotes)
	})
}
