package usecase

import (
	"context"
	"fmt"
	"time"

	"railway-booking/internal/data/entity"
	"railway-booking/internal/data/repository"
	"railway-booking/internal/dto/request"
	"railway-booking/internal/dto/response"
	"railway-booking/internal/queue"
	"railway-booking/pkg/utils"

	"go.uber.org/zap"
)

type OrderService interface {
	GetOrder(ctx context.Context, userID, orderID string) (*response.OrderResponse, error)
	GetUserOrders(ctx context.Context, userID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.OrderResponse], error)

	// ConfirmOrder marks a confirmed_unpaid order as paid and stamps its
	// human-facing serial. Orders past their payment deadline refuse payment
	// even if the reaper has not swept them yet.
	ConfirmOrder(ctx context.Context, userID, orderID string) (*response.OrderResponse, error)

	// CancelOrder releases every seat the order holds and records the
	// cancellation against the user's daily cap. Cancelling an already
	// cancelled order is a no-op.
	CancelOrder(ctx context.Context, userID, orderID string) error
}

type orderService struct {
	repo   *repository.Repository
	tx     TxRunner
	events EventPublisher
	log    *zap.Logger

	now func() time.Time
}

func NewOrderService(repo *repository.Repository, events EventPublisher, log *zap.Logger) OrderService {
	return &orderService{
		repo:   repo,
		tx:     repo,
		events: events,
		log:    log.With(zap.String("service", "order")),
		now:    time.Now,
	}
}

func (s *orderService) GetOrder(ctx context.Context, userID, orderID string) (*response.OrderResponse, error) {
	order, err := s.findOwnedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	tickets, err := s.repo.Ticket.FindByOrderID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("load tickets: %w", err)
	}

	resp := response.OrderToResponse(order, tickets, s.now())
	return &resp, nil
}

func (s *orderService) GetUserOrders(ctx context.Context, userID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.OrderResponse], error) {
	userUUID, err := utils.ParseUUID(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID format %s: %w", userID, err)
	}

	orders, err := s.repo.Order.FindByUserID(ctx, userUUID, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	total, err := s.repo.Order.CountByUserID(ctx, userUUID)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	now := s.now()
	items := make([]response.OrderResponse, 0, len(orders))
	for _, order := range orders {
		items = append(items, response.OrderToResponse(order, nil, now))
	}

	return response.NewPaginatedResponse(items, req.Page, req.PerPage, total), nil
}

func (s *orderService) ConfirmOrder(ctx context.Context, userID, orderID string) (*response.OrderResponse, error) {
	order, err := s.findOwnedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	switch {
	case order.Status == entity.OrderStatusConfirmedUnpaid && now.After(order.PaymentDeadline):
		return nil, fmt.Errorf("%w: deadline was %s", ErrOrderExpired, order.PaymentDeadline.UTC().Format(time.RFC3339))
	case order.Status != entity.OrderStatusConfirmedUnpaid:
		return nil, fmt.Errorf("%w: order is %s", ErrInvalidOrderState, string(order.Status))
	}

	serial := utils.GenerateOrderSerial(order.ID)
	paid, err := s.repo.Order.MarkPaid(ctx, order.ID, serial, now)
	if err != nil {
		return nil, fmt.Errorf("mark order paid: %w", err)
	}
	if !paid {
		// The guard in MarkPaid lost to a concurrent transition, most likely
		// the reaper sweeping the deadline.
		return nil, fmt.Errorf("%w: order no longer payable", ErrOrderExpired)
	}

	order.Serial = serial
	order.Status = entity.OrderStatusPaid

	s.log.Info("Order paid",
		zap.String("order_id", order.ID.String()),
		zap.String("serial", serial))

	s.events.Publish(ctx, queue.QueueOrderPaid, orderEvent(order, now))

	tickets, err := s.repo.Ticket.FindByOrderID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("load tickets: %w", err)
	}

	resp := response.OrderToResponse(order, tickets, now)
	return &resp, nil
}

func (s *orderService) CancelOrder(ctx context.Context, userID, orderID string) error {
	order, err := s.findOwnedOrder(ctx, userID, orderID)
	if err != nil {
		return err
	}

	if order.Status == entity.OrderStatusCancelled {
		return nil
	}
	if order.Status != entity.OrderStatusConfirmedUnpaid {
		return fmt.Errorf("%w: order is %s", ErrInvalidOrderState, string(order.Status))
	}

	now := s.now()
	released := false
	err = s.tx.RunInTx(ctx, func(r *repository.Repository) error {
		locked, err := r.Order.FindByIDForUpdate(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("lock order: %w", err)
		}
		if locked == nil || locked.Status == entity.OrderStatusCancelled {
			return nil
		}
		if locked.Status != entity.OrderStatusConfirmedUnpaid {
			return fmt.Errorf("%w: order is %s", ErrInvalidOrderState, string(locked.Status))
		}

		if err := releaseOrder(ctx, r, locked, now); err != nil {
			return err
		}
		released = true

		// User cancellations count toward the daily cap; reaper releases
		// never go through here.
		return r.Cancellation.Create(ctx, &entity.Cancellation{
			BaseSimple: entity.BaseSimple{
				ID:        utils.GenerateUUID(),
				CreatedAt: now,
			},
			UserID:           locked.UserID,
			OrderID:          locked.ID,
			CancellationDate: calendarDay(now),
		})
	})
	if err != nil {
		return err
	}
	if !released {
		// The reaper got there first; nothing changed, nothing to announce.
		return nil
	}

	s.log.Info("Order cancelled",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", userID))

	order.Status = entity.OrderStatusCancelled
	s.events.Publish(ctx, queue.QueueOrderCancelled, orderEvent(order, now))

	return nil
}

func (s *orderService) findOwnedOrder(ctx context.Context, userID, orderID string) (*entity.Order, error) {
	userUUID, err := utils.ParseUUID(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID format %s: %w", userID, err)
	}

	orderUUID, err := utils.ParseUUID(orderID)
	if err != nil {
		return nil, fmt.Errorf("invalid order ID format %s: %w", orderID, err)
	}

	order, err := s.repo.Order.FindByID(ctx, orderUUID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if order == nil {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	if order.UserID != userUUID {
		return nil, fmt.Errorf("%w: order %s", ErrForbidden, orderID)
	}

	return order, nil
}

// releaseOrder flips the order to cancelled and returns every seat row it
// holds to available, inside the caller's transaction. Shared by user
// cancellation and the expiry reaper.
func releaseOrder(ctx context.Context, r *repository.Repository, order *entity.Order, at time.Time) error {
	moved, err := r.Order.UpdateStatus(ctx, order.ID, order.Status, entity.OrderStatusCancelled, at)
	if err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}
	if !moved {
		return fmt.Errorf("%w: order left %s concurrently", ErrInvalidOrderState, string(order.Status))
	}

	if _, err := r.SeatSegment.ReleaseByOrder(ctx, order.ID); err != nil {
		return fmt.Errorf("release seats: %w", err)
	}

	return nil
}

// calendarDay truncates t to its calendar day.
func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
