package usecase

import (
	"context"
	"fmt"
	"time"

	"railway-booking/internal/data/entity"
	"railway-booking/internal/data/repository"
	"railway-booking/internal/queue"
	"railway-booking/pkg/utils"

	"go.uber.org/zap"
)

// reapBatchSize bounds one sweep; leftovers wait for the next tick.
const reapBatchSize = 100

type ReaperService interface {
	// ReapExpired cancels orders whose payment deadline has passed and
	// frees their seats. Returns how many orders were released.
	ReapExpired(ctx context.Context) (int, error)

	// Start runs the sweep on a ticker until ctx is cancelled.
	Start(ctx context.Context)
}

type reaperService struct {
	repo   *repository.Repository
	tx     TxRunner
	events EventPublisher
	cfg    utils.BookingConfig
	log    *zap.Logger

	now func() time.Time
}

func NewReaperService(repo *repository.Repository, events EventPublisher, cfg utils.BookingConfig, log *zap.Logger) ReaperService {
	return &reaperService{
		repo:   repo,
		tx:     repo,
		events: events,
		cfg:    cfg,
		log:    log.With(zap.String("service", "reaper")),
		now:    time.Now,
	}
}

func (s *reaperService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.ReaperInterval)
	defer ticker.Stop()

	s.log.Info("Reaper started", zap.Duration("interval", s.cfg.ReaperInterval))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Reaper stopped")
			return
		case <-ticker.C:
			if _, err := s.ReapExpired(ctx); err != nil {
				s.log.Error("Reap sweep failed", zap.Error(err))
			}
		}
	}
}

func (s *reaperService) ReapExpired(ctx context.Context) (int, error) {
	now := s.now()

	expired, err := s.repo.Order.FindExpiredUnpaid(ctx, now, reapBatchSize)
	if err != nil {
		return 0, fmt.Errorf("find expired orders: %w", err)
	}

	reaped := 0
	for _, order := range expired {
		released, err := s.reapOne(ctx, order, now)
		if err != nil {
			// One stuck order must not block the rest of the sweep.
			s.log.Error("Reap order failed",
				zap.String("order_id", order.ID.String()),
				zap.Error(err))
			continue
		}
		if !released {
			continue
		}
		reaped++

		order.Status = entity.OrderStatusCancelled
		s.events.Publish(ctx, queue.QueueOrderCancelled, orderEvent(order, now))
	}

	if reaped > 0 {
		s.log.Info("Expired orders released", zap.Int("count", reaped))
	}

	// Cancellation counters are per calendar day; rows from earlier days
	// no longer feed any cap check.
	if purged, err := s.repo.Cancellation.DeleteBefore(ctx, calendarDay(now)); err != nil {
		s.log.Error("Purge stale cancellations failed", zap.Error(err))
	} else if purged > 0 {
		s.log.Info("Stale cancellation records purged", zap.Int64("count", purged))
	}

	return reaped, nil
}

// reapOne releases a single order inside its own transaction, re-checking
// state under lock. Expiry releases do not count toward the cancellation cap.
func (s *reaperService) reapOne(ctx context.Context, order *entity.Order, now time.Time) (bool, error) {
	released := false
	err := s.tx.RunInTx(ctx, func(r *repository.Repository) error {
		locked, err := r.Order.FindByIDForUpdate(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("lock order: %w", err)
		}
		// The user may have paid or cancelled between the batch read and
		// this lock.
		if locked == nil || locked.Status != entity.OrderStatusConfirmedUnpaid || locked.PaymentDeadline.After(now) {
			return nil
		}

		if err := releaseOrder(ctx, r, locked, now); err != nil {
			return err
		}
		released = true
		return nil
	})
	return released, err
}
