package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"railway-booking/internal/data/entity"
	"railway-booking/internal/data/repository"
	"railway-booking/internal/dto/request"
	"railway-booking/internal/dto/response"
	"railway-booking/internal/queue"
	"railway-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TxRunner opens a transaction and hands fn a repository set bound to it.
// *repository.Repository satisfies this; tests substitute a fake that
// skips the database.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(*repository.Repository) error) error
}

// EventPublisher pushes order lifecycle events. Implementations must be
// best-effort and never fail the caller.
type EventPublisher interface {
	Publish(ctx context.Context, queueName string, event queue.OrderEvent)
}

type BookingService interface {
	// CreateOrder books seats for every passenger in one atomic allocation.
	// Success lands the order in confirmed_unpaid with a payment deadline;
	// any failure leaves the seat ledger untouched.
	CreateOrder(ctx context.Context, userID string, req *request.CreateOrderRequest) (*response.OrderResponse, error)
}

type bookingService struct {
	repo   *repository.Repository
	tx     TxRunner
	route  RouteService
	fare   FareService
	events EventPublisher
	cfg    utils.BookingConfig
	log    *zap.Logger

	now func() time.Time
}

func NewBookingService(repo *repository.Repository, route RouteService, fare FareService, events EventPublisher, cfg utils.BookingConfig, log *zap.Logger) BookingService {
	return &bookingService{
		repo:   repo,
		tx:     repo,
		route:  route,
		fare:   fare,
		events: events,
		cfg:    cfg,
		log:    log.With(zap.String("service", "booking")),
		now:    time.Now,
	}
}

// classGroup is the per-seat-class slice of an order: the passengers who
// want this class and the summed journey fare each will pay.
type classGroup struct {
	class      entity.SeatClass
	passengers []request.OrderPassengerRequest
	unitPrice  float64
}

func (s *bookingService) CreateOrder(ctx context.Context, userID string, req *request.CreateOrderRequest) (*response.OrderResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create order validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	userUUID, err := utils.ParseUUID(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID format %s: %w", userID, err)
	}

	serviceDate, err := time.Parse("2006-01-02", req.ServiceDate)
	if err != nil {
		return nil, fmt.Errorf("invalid service date %s: %w", req.ServiceDate, err)
	}

	now := s.now()

	// The availability the user saw must still be recent. Anything older
	// is rejected before touching the ledger.
	queriedAt := time.Unix(req.QueriedAt, 0)
	if now.Sub(queriedAt) > s.cfg.QueryFreshness {
		return nil, fmt.Errorf("%w: queried at %s", ErrStaleQuery, queriedAt.UTC().Format(time.RFC3339))
	}

	journey, err := s.route.Journey(ctx, req.TrainNo, serviceDate, req.DepartureStation, req.ArrivalStation)
	if err != nil {
		return nil, err
	}
	if !journey.Boarding.DepartureTime.After(now) {
		return nil, fmt.Errorf("%w: train %s already departed %s", ErrInvalidRoute, req.TrainNo, req.DepartureStation)
	}

	if err := s.checkUserGuards(ctx, userUUID, now); err != nil {
		return nil, err
	}

	passengers, err := s.loadPassengers(ctx, userUUID, req.Passengers)
	if err != nil {
		return nil, err
	}

	groups, totalPrice, err := s.priceGroups(ctx, req.TrainNo, journey.Segments, req.Passengers)
	if err != nil {
		return nil, err
	}

	// Phase one: a non-binding pre-check. Cheap rejection of journeys that
	// are plainly sold out; the transaction re-validates under isolation.
	for _, group := range groups {
		free, err := freeSeatsForClass(ctx, s.repo, req.TrainNo, serviceDate, group.class, journey.Segments)
		if err != nil {
			return nil, err
		}
		if len(free) < len(group.passengers) {
			return nil, fmt.Errorf("%w: %d %s seats requested, %d free",
				ErrInsufficientInventory, len(group.passengers), string(group.class), len(free))
		}
	}

	order, tickets, err := s.allocate(ctx, userUUID, req, serviceDate, journey.Segments, groups, passengers, totalPrice, now)
	if err != nil {
		return nil, err
	}

	s.log.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("train_no", order.TrainNo),
		zap.Int("tickets", len(tickets)),
		zap.Float64("total_price", order.TotalPrice))

	s.events.Publish(ctx, queue.QueueOrderCreated, orderEvent(order, now))

	resp := response.OrderToResponse(order, tickets, now)
	resp.DepartureTime = journey.Boarding.DepartureTime.Format(time.RFC3339)
	resp.NearDeparture = journey.Boarding.DepartureTime.Sub(now) <= s.cfg.NearDepartureAdvisory
	return &resp, nil
}

// checkUserGuards enforces the per-user submission rules: no open unpaid
// order, and no more cancellations today than the abuse cap allows.
func (s *bookingService) checkUserGuards(ctx context.Context, userID uuid.UUID, now time.Time) error {
	unpaid, err := s.repo.Order.FindActiveUnpaidByUser(ctx, userID, now)
	if err != nil {
		return fmt.Errorf("check unpaid orders: %w", err)
	}
	if unpaid != nil {
		return fmt.Errorf("%w: order %s", ErrUnpaidOrderExists, unpaid.ID)
	}

	cancellations, err := s.repo.Cancellation.CountByUserAndDate(ctx, userID, calendarDay(now))
	if err != nil {
		return fmt.Errorf("count cancellations: %w", err)
	}
	if cancellations >= s.cfg.DailyCancellationLimit {
		// The cap rolls over at midnight; tell the user when.
		resetAt := calendarDay(now).AddDate(0, 0, 1)
		return fmt.Errorf("%w: %d today, limit resets at %s (in %s)",
			ErrCancellationLimitExceeded, cancellations,
			resetAt.Format(time.RFC3339), resetAt.Sub(now).Truncate(time.Second))
	}

	return nil
}

func (s *bookingService) loadPassengers(ctx context.Context, userID uuid.UUID, reqs []request.OrderPassengerRequest) (map[uuid.UUID]*entity.Passenger, error) {
	ids := make([]uuid.UUID, 0, len(reqs))
	seen := make(map[uuid.UUID]bool, len(reqs))
	for _, pr := range reqs {
		id, err := utils.ParseUUID(pr.PassengerID)
		if err != nil {
			return nil, fmt.Errorf("invalid passenger ID format %s: %w", pr.PassengerID, err)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: passenger %s listed twice", ErrPassengerNotFound, id)
		}
		seen[id] = true
		ids = append(ids, id)
	}

	found, err := s.repo.Passenger.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load passengers: %w", err)
	}

	passengers := make(map[uuid.UUID]*entity.Passenger, len(found))
	for _, p := range found {
		// A passenger record of another user is reported as missing rather
		// than leaking its existence.
		if p.UserID != userID {
			continue
		}
		passengers[p.ID] = p
	}

	for _, id := range ids {
		if passengers[id] == nil {
			return nil, fmt.Errorf("%w: %s", ErrPassengerNotFound, id)
		}
	}

	return passengers, nil
}

// priceGroups groups the passenger requests by seat class, pricing each
// class once. Group order follows first appearance in the request so
// allocation stays deterministic.
func (s *bookingService) priceGroups(ctx context.Context, trainNo string, segments []entity.Segment, reqs []request.OrderPassengerRequest) ([]classGroup, float64, error) {
	var groups []classGroup
	index := make(map[entity.SeatClass]int)

	for _, pr := range reqs {
		class := entity.SeatClass(pr.SeatClass)
		i, ok := index[class]
		if !ok {
			i = len(groups)
			index[class] = i
			groups = append(groups, classGroup{class: class})
		}
		groups[i].passengers = append(groups[i].passengers, pr)
	}

	var total float64
	for i := range groups {
		price, err := s.fare.FareForSegments(ctx, trainNo, segments, groups[i].class)
		if err != nil {
			return nil, 0, err
		}
		groups[i].unitPrice = price
		total += price * float64(len(groups[i].passengers))
	}

	return groups, total, nil
}

// allocate runs the transactional phase: re-validate availability under
// repeatable read, write the order, flip the seat rows and write the
// tickets. A storage failure is retried once with a fresh transaction;
// domain rejections are final.
func (s *bookingService) allocate(ctx context.Context, userID uuid.UUID, req *request.CreateOrderRequest, serviceDate time.Time, segments []entity.Segment, groups []classGroup, passengers map[uuid.UUID]*entity.Passenger, totalPrice float64, now time.Time) (*entity.Order, []*entity.Ticket, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		order, tickets, err := s.allocateOnce(ctx, userID, req, serviceDate, segments, groups, passengers, totalPrice, now)
		if err == nil {
			return order, tickets, nil
		}
		if isDomainErr(err) {
			return nil, nil, err
		}

		lastErr = err
		s.log.Warn("Order allocation attempt failed",
			zap.Int("attempt", attempt+1),
			zap.String("train_no", req.TrainNo),
			zap.Error(err))
	}

	return nil, nil, fmt.Errorf("%w: %s", ErrBookingFailed, lastErr)
}

func (s *bookingService) allocateOnce(ctx context.Context, userID uuid.UUID, req *request.CreateOrderRequest, serviceDate time.Time, segments []entity.Segment, groups []classGroup, passengers map[uuid.UUID]*entity.Passenger, totalPrice float64, now time.Time) (*entity.Order, []*entity.Ticket, error) {
	var (
		order   *entity.Order
		tickets []*entity.Ticket
	)

	err := s.tx.RunInTx(ctx, func(r *repository.Repository) error {
		order = &entity.Order{
			Base: entity.Base{
				ID:        utils.GenerateUUID(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			UserID:           userID,
			TrainNo:          req.TrainNo,
			ServiceDate:      serviceDate,
			DepartureStation: req.DepartureStation,
			ArrivalStation:   req.ArrivalStation,
			TotalPrice:       totalPrice,
			Status:           entity.OrderStatusConfirmedUnpaid,
			PaymentDeadline:  now.Add(s.cfg.HoldWindow),
		}
		if err := r.Order.Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		tickets = nil
		seq := 0
		for _, group := range groups {
			// Phase two: the same availability rule, now on transaction-bound
			// reads. Seats taken since the pre-check drop out here.
			free, err := freeSeatsForClass(ctx, r, req.TrainNo, serviceDate, group.class, segments)
			if err != nil {
				return err
			}
			if len(free) < len(group.passengers) {
				return fmt.Errorf("%w: %d %s seats requested, %d free",
					ErrInsufficientInventory, len(group.passengers), string(group.class), len(free))
			}

			for i, pr := range group.passengers {
				seat := free[i]
				affected, err := r.SeatSegment.Book(ctx, req.TrainNo, serviceDate, group.class, seat, segments, order.ID, now)
				if err != nil {
					return fmt.Errorf("book seat %d-%s: %w", seat.CarNo, seat.SeatNo, err)
				}
				if affected != int64(len(segments)) {
					// A concurrent transaction took part of this seat between
					// our read and our update. Roll everything back.
					return fmt.Errorf("%w: seat %d-%s taken concurrently",
						ErrInsufficientInventory, seat.CarNo, seat.SeatNo)
				}

				passengerID := uuid.MustParse(pr.PassengerID)
				p := passengers[passengerID]
				seq++
				tickets = append(tickets, &entity.Ticket{
					BaseSimple: entity.BaseSimple{
						ID:        utils.GenerateUUID(),
						CreatedAt: now,
					},
					OrderID:       order.ID,
					PassengerID:   p.ID,
					PassengerName: p.Name,
					IDCardType:    p.IDCardType,
					IDCardNumber:  p.IDCardNumber,
					SeatClass:     group.class,
					TicketType:    pr.TicketType,
					CarNo:         seat.CarNo,
					SeatNo:        seat.SeatNo,
					Price:         group.unitPrice,
					SequenceNo:    seq,
				})
			}
		}

		if err := r.Ticket.CreateBatch(ctx, tickets); err != nil {
			return fmt.Errorf("create tickets: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return order, tickets, nil
}

// isDomainErr reports whether the allocation failed on a business rule
// rather than on storage. Domain failures must not be retried: the answer
// would not change.
func isDomainErr(err error) bool {
	return errors.Is(err, ErrInsufficientInventory) ||
		errors.Is(err, ErrInvalidRoute) ||
		errors.Is(err, ErrTrainNotFound) ||
		errors.Is(err, ErrFareUnavailable) ||
		errors.Is(err, ErrPassengerNotFound)
}

func orderEvent(order *entity.Order, at time.Time) queue.OrderEvent {
	return queue.OrderEvent{
		OrderID:     order.ID.String(),
		Serial:      order.Serial,
		UserID:      order.UserID.String(),
		TrainNo:     order.TrainNo,
		ServiceDate: order.ServiceDate.Format("2006-01-02"),
		TotalPrice:  order.TotalPrice,
		Status:      string(order.Status),
		OccurredAt:  at,
	}
}
