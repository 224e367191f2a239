package wire

import (
	"railway-booking/internal/adaptor"
	"railway-booking/pkg/middleware"
	"railway-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func wireOrder(
	r chi.Router,
	orderHandler *adaptor.OrderHandler,
	rdb *redis.Client,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES (require identity) ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.Identity(log))

		// POST /api/orders - Book seats; rate limited per user
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(config.RateLimit, rdb, log))
			r.Post("/api/orders", orderHandler.CreateOrder)
		})

		// GET /api/orders/{id} - Order detail with tickets
		r.Get("/api/orders/{id}", orderHandler.GetOrder)

		// GET /api/user/orders - Order history (user's own orders)
		r.Get("/api/user/orders", orderHandler.GetUserOrders)

		// POST /api/orders/{id}/payment - Pay a confirmed_unpaid order
		r.Post("/api/orders/{id}/payment", orderHandler.ConfirmPayment)

		// DELETE /api/orders/{id} - Cancel an unpaid order (idempotent)
		r.Delete("/api/orders/{id}", orderHandler.CancelOrder)
	})
}
