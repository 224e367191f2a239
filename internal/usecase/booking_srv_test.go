package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"railway-booking/internal/data/entity"
	"railway-booking/internal/dto/request"
	"railway-booking/internal/queue"
	"railway-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	bookingDate   = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	bookingUser   = uuid.MustParse("7b5276a1-32b0-4cf7-9800-3e1ab0e3dc6c")
	bookingPsgr   = uuid.MustParse("c0a8e7a5-6d5a-4d21-9c60-52c6c1f0c9b1")
	bookingConfig = utils.BookingConfig{
		HoldWindow:             30 * time.Minute,
		QueryFreshness:         5 * time.Minute,
		NearDepartureAdvisory:  3 * time.Hour,
		DailyCancellationLimit: 3,
		ReaperInterval:         time.Minute,
	}
)

func newBookingService(repos *testRepos, now time.Time) (*bookingService, *recordingEvents) {
	route := NewRouteService(repos.repo, testLogger())
	availability := NewAvailabilityService(repos.repo, route, testLogger())
	fare := NewFareService(repos.repo, route, availability, testLogger())
	events := &recordingEvents{}

	svc := NewBookingService(repos.repo, route, fare, events, bookingConfig, testLogger()).(*bookingService)
	svc.now = func() time.Time { return now }
	svc.tx = &fakeTxRunner{repo: repos.repo}
	return svc, events
}

func bookingRequest(queriedAt time.Time) *request.CreateOrderRequest {
	return &request.CreateOrderRequest{
		TrainNo:          "G101",
		ServiceDate:      "2026-03-01",
		DepartureStation: "Beijing",
		ArrivalStation:   "Shanghai",
		QueriedAt:        queriedAt.Unix(),
		Passengers: []request.OrderPassengerRequest{
			{PassengerID: bookingPsgr.String(), SeatClass: "second_class", TicketType: "adult"},
		},
	}
}

// mockHappyJourney sets up route, guards, passenger, fares and a ledger
// with seat 01A free across both segments.
func mockHappyJourney(repos *testRepos) {
	second := entity.SeatClassSecond

	repos.train.On("FindStops", mock.Anything, "G101", bookingDate).
		Return(testStops("G101", bookingDate, "Beijing", "Jinan", "Shanghai"), nil)

	repos.order.On("FindActiveUnpaidByUser", mock.Anything, bookingUser, mock.Anything).
		Return(nil, nil)
	repos.cancellation.On("CountByUserAndDate", mock.Anything, bookingUser, mock.Anything).
		Return(0, nil)

	repos.passenger.On("FindByIDs", mock.Anything, []uuid.UUID{bookingPsgr}).
		Return([]*entity.Passenger{{
			Base:         entity.Base{ID: bookingPsgr},
			UserID:       bookingUser,
			Name:         "Zhang Wei",
			IDCardType:   "id_card",
			IDCardNumber: "110101199001011234",
		}}, nil)

	repos.fare.On("FindSegmentFare", mock.Anything, "G101", "Beijing", "Jinan", second).
		Return(fareRow("Beijing", "Jinan", 120), nil)
	repos.fare.On("FindSegmentFare", mock.Anything, "G101", "Jinan", "Shanghai", second).
		Return(fareRow("Jinan", "Shanghai", 200), nil)

	repos.seatSegment.On("FindBySegments", mock.Anything, "G101", bookingDate, second, mock.Anything).
		Return([]*entity.SeatSegment{
			segRow(1, "01A", "Beijing", "Jinan", entity.SeatSegmentAvailable),
			segRow(1, "01A", "Jinan", "Shanghai", entity.SeatSegmentAvailable),
			segRow(1, "01B", "Beijing", "Jinan", entity.SeatSegmentAvailable),
			segRow(1, "01B", "Jinan", "Shanghai", entity.SeatSegmentAvailable),
		}, nil)
}

func TestCreateOrderAllocatesAndHolds(t *testing.T) {
	now := bookingDate.Add(4 * time.Hour) // boarding departs 08:05
	repos := newTestRepos()
	mockHappyJourney(repos)

	repos.order.On("Create", mock.Anything, mock.Anything).Return(nil)
	repos.seatSegment.On("Book", mock.Anything, "G101", bookingDate, entity.SeatClassSecond,
		entity.SeatRef{CarNo: 1, SeatNo: "01A"}, mock.Anything, mock.Anything, now).
		Return(int64(2), nil)
	repos.ticket.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)

	svc, events := newBookingService(repos, now)

	resp, err := svc.CreateOrder(context.Background(), bookingUser.String(), bookingRequest(now.Add(-time.Minute)))
	require.NoError(t, err)

	assert.Equal(t, entity.OrderStatusConfirmedUnpaid, resp.Status)
	assert.InDelta(t, 320, resp.TotalPrice, 0.001)
	assert.Equal(t, int64(1800), resp.RemainingPaymentSeconds)
	assert.False(t, resp.NearDeparture)
	require.Len(t, resp.Tickets, 1)
	assert.Equal(t, 1, resp.Tickets[0].CarNo)
	assert.Equal(t, "Zhang Wei", resp.Tickets[0].PassengerName)

	require.Len(t, events.queues, 1)
	assert.Equal(t, queue.QueueOrderCreated, events.queues[0])

	repos.ticket.AssertCalled(t, "CreateBatch", mock.Anything, mock.Anything)
}

func TestCreateOrderNearDepartureAdvisory(t *testing.T) {
	now := bookingDate.Add(6 * time.Hour) // just over two hours before boarding
	repos := newTestRepos()
	mockHappyJourney(repos)

	repos.order.On("Create", mock.Anything, mock.Anything).Return(nil)
	repos.seatSegment.On("Book", mock.Anything, mock.Anything, mock.Anything, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(int64(2), nil)
	repos.ticket.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)

	svc, _ := newBookingService(repos, now)

	resp, err := svc.CreateOrder(context.Background(), bookingUser.String(), bookingRequest(now))
	require.NoError(t, err)
	assert.True(t, resp.NearDeparture)
}

func TestCreateOrderRejectsStaleQuery(t *testing.T) {
	now := bookingDate.Add(4 * time.Hour)
	repos := newTestRepos()
	svc, _ := newBookingService(repos, now)

	_, err := svc.CreateOrder(context.Background(), bookingUser.String(), bookingRequest(now.Add(-10*time.Minute)))
	assert.ErrorIs(t, err, ErrStaleQuery)
}

func TestCreateOrderRejectsOpenUnpaidOrder(t *testing.T) {
	now := bookingDate.Add(4 * time.Hour)
	repos := newTestRepos()
	repos.train.On("FindStops", mock.Anything, "G101", bookingDate).
		Return(testStops("G101", bookingDate, "Beijing", "Jinan", "Shanghai"), nil)
	repos.order.On("FindActiveUnpaidByUser", mock.Anything, bookingUser, mock.Anything).
		Return(&entity.Order{Base: entity.Base{ID: uuid.New()}}, nil)

	svc, _ := newBookingService(repos, now)

	_, err := svc.CreateOrder(context.Background(), bookingUser.String(), bookingRequest(now))
	assert.ErrorIs(t, err, ErrUnpaidOrderExists)
}

func TestCreateOrderEnforcesCancellationCap(t *testing.T) {
	now := bookingDate.Add(4 * time.Hour)
	repos := newTestRepos()
	repos.train.On("FindStops", mock.Anything, "G101", bookingDate).
		Return(testStops("G101", bookingDate, "Beijing", "Jinan", "Shanghai"), nil)
	repos.order.On("FindActiveUnpaidByUser", mock.Anything, bookingUser, mock.Anything).
		Return(nil, nil)
	repos.cancellation.On("CountByUserAndDate", mock.Anything, bookingUser, mock.Anything).
		Return(3, nil)

	svc, _ := newBookingService(repos, now)

	_, err := svc.CreateOrder(context.Background(), bookingUser.String(), bookingRequest(now))
	assert.ErrorIs(t, err, ErrCancellationLimitExceeded)
	assert.Contains(t, err.Error(), "resets at 2026-03-02T00:00:00Z")
	assert.Contains(t, err.Error(), "in 20h0m0s")
}

func TestCreateOrderSoldOutPreCheck(t *testing.T) {
	now := bookingDate.Add(4 * time.Hour)
	repos := newTestRepos()
	second := entity.SeatClassSecond

	repos.train.On("FindStops", mock.Anything, "G101", bookingDate).
		Return(testStops("G101", bookingDate, "Beijing", "Jinan", "Shanghai"), nil)
	repos.order.On("FindActiveUnpaidByUser", mock.Anything, bookingUser, mock.Anything).
		Return(nil, nil)
	repos.cancellation.On("CountByUserAndDate", mock.Anything, bookingUser, mock.Anything).
		Return(0, nil)
	repos.passenger.On("FindByIDs", mock.Anything, mock.Anything).
		Return([]*entity.Passenger{{Base: entity.Base{ID: bookingPsgr}, UserID: bookingUser, Name: "Zhang Wei"}}, nil)
	repos.fare.On("FindSegmentFare", mock.Anything, "G101", "Beijing", "Jinan", second).
		Return(fareRow("Beijing", "Jinan", 120), nil)
	repos.fare.On("FindSegmentFare", mock.Anything, "G101", "Jinan", "Shanghai", second).
		Return(fareRow("Jinan", "Shanghai", 200), nil)

	// Every seat is taken somewhere on the journey.
	repos.seatSegment.On("FindBySegments", mock.Anything, "G101", bookingDate, second, mock.Anything).
		Return([]*entity.SeatSegment{
			segRow(1, "01A", "Beijing", "Jinan", entity.SeatSegmentAvailable),
			segRow(1, "01A", "Jinan", "Shanghai", entity.SeatSegmentBooked),
		}, nil)

	svc, _ := newBookingService(repos, now)

	_, err := svc.CreateOrder(context.Background(), bookingUser.String(), bookingRequest(now))
	assert.ErrorIs(t, err, ErrInsufficientInventory)
	repos.order.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateOrderConcurrentTakeRollsBack(t *testing.T) {
	now := bookingDate.Add(4 * time.Hour)
	repos := newTestRepos()
	mockHappyJourney(repos)

	repos.order.On("Create", mock.Anything, mock.Anything).Return(nil)
	// Another transaction got one of the two spanned rows first.
	repos.seatSegment.On("Book", mock.Anything, mock.Anything, mock.Anything, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(int64(1), nil)

	svc, _ := newBookingService(repos, now)

	_, err := svc.CreateOrder(context.Background(), bookingUser.String(), bookingRequest(now))
	assert.ErrorIs(t, err, ErrInsufficientInventory)
	repos.ticket.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
}

func TestCreateOrderStorageFailureRetriesOnce(t *testing.T) {
	now := bookingDate.Add(4 * time.Hour)
	repos := newTestRepos()
	mockHappyJourney(repos)

	svc, _ := newBookingService(repos, now)
	svc.tx = &fakeTxRunner{err: errors.New("connection reset")}

	_, err := svc.CreateOrder(context.Background(), bookingUser.String(), bookingRequest(now))
	assert.ErrorIs(t, err, ErrBookingFailed)
}

func TestCreateOrderPicksFirstFreeSeat(t *testing.T) {
	now := bookingDate.Add(4 * time.Hour)
	repos := newTestRepos()
	mockHappyJourney(repos)

	repos.order.On("Create", mock.Anything, mock.Anything).Return(nil)
	// Only seat 01A, the first in ledger order, may be booked; any other
	// seat would not match this expectation.
	repos.seatSegment.On("Book", mock.Anything, "G101", bookingDate, entity.SeatClassSecond,
		entity.SeatRef{CarNo: 1, SeatNo: "01A"}, mock.Anything, mock.Anything, mock.Anything).
		Return(int64(2), nil)
	repos.ticket.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)

	svc, _ := newBookingService(repos, now)

	_, err := svc.CreateOrder(context.Background(), bookingUser.String(), bookingRequest(now))
	require.NoError(t, err)
	repos.seatSegment.AssertNumberOfCalls(t, "Book", 1)
}

func TestCreateOrderRejectsForeignPassenger(t *testing.T) {
	now := bookingDate.Add(4 * time.Hour)
	repos := newTestRepos()
	repos.train.On("FindStops", mock.Anything, "G101", bookingDate).
		Return(testStops("G101", bookingDate, "Beijing", "Jinan", "Shanghai"), nil)
	repos.order.On("FindActiveUnpaidByUser", mock.Anything, bookingUser, mock.Anything).
		Return(nil, nil)
	repos.cancellation.On("CountByUserAndDate", mock.Anything, bookingUser, mock.Anything).
		Return(0, nil)

	// The record exists but belongs to a different user.
	repos.passenger.On("FindByIDs", mock.Anything, mock.Anything).
		Return([]*entity.Passenger{{Base: entity.Base{ID: bookingPsgr}, UserID: uuid.New(), Name: "Li Na"}}, nil)

	svc, _ := newBookingService(repos, now)

	_, err := svc.CreateOrder(context.Background(), bookingUser.String(), bookingRequest(now))
	assert.ErrorIs(t, err, ErrPassengerNotFound)
}

// ledgerRows seeds the fake ledger with seats 01A and 01B free across both
// G101 segments, mirroring mockHappyJourney.
func ledgerRows() []*entity.SeatSegment {
	rows := []*entity.SeatSegment{
		segRow(1, "01A", "Beijing", "Jinan", entity.SeatSegmentAvailable),
		segRow(1, "01A", "Jinan", "Shanghai", entity.SeatSegmentAvailable),
		segRow(1, "01B", "Beijing", "Jinan", entity.SeatSegmentAvailable),
		segRow(1, "01B", "Jinan", "Shanghai", entity.SeatSegmentAvailable),
	}
	for _, row := range rows {
		row.ServiceDate = bookingDate
	}
	return rows
}

func TestBookThenCancelRestoresAvailability(t *testing.T) {
	now := bookingDate.Add(4 * time.Hour)
	repos := newTestRepos()
	mockHappyJourney(repos)

	ledger := newFakeSeatLedger(ledgerRows()...)
	repos.repo.SeatSegment = ledger

	var created *entity.Order
	repos.order.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { created = args.Get(1).(*entity.Order) }).
		Return(nil)
	repos.ticket.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)

	svc, _ := newBookingService(repos, now)
	svc.tx = &ledgerTxRunner{repo: repos.repo, ledger: ledger}

	route := NewRouteService(repos.repo, testLogger())
	availability := NewAvailabilityService(repos.repo, route, testLogger())

	ctx := context.Background()
	before, err := availability.GetAvailability(ctx, "G101", bookingDate, "Beijing", "Shanghai", nil)
	require.NoError(t, err)
	require.Equal(t, 2, before[entity.SeatClassSecond])

	resp, err := svc.CreateOrder(ctx, bookingUser.String(), bookingRequest(now))
	require.NoError(t, err)
	require.Len(t, resp.Tickets, 1)
	require.NotNil(t, created)

	during, err := availability.GetAvailability(ctx, "G101", bookingDate, "Beijing", "Shanghai", nil)
	require.NoError(t, err)
	assert.Equal(t, before[entity.SeatClassSecond]-1, during[entity.SeatClassSecond])

	repos.order.On("FindByID", mock.Anything, created.ID).Return(created, nil)
	repos.order.On("FindByIDForUpdate", mock.Anything, created.ID).Return(created, nil)
	repos.order.On("UpdateStatus", mock.Anything, created.ID,
		entity.OrderStatusConfirmedUnpaid, entity.OrderStatusCancelled, mock.Anything).
		Return(true, nil)
	repos.cancellation.On("Create", mock.Anything, mock.Anything).Return(nil)

	orderSvc, _ := newOrderService(repos, now.Add(time.Minute))
	orderSvc.tx = &ledgerTxRunner{repo: repos.repo, ledger: ledger}
	require.NoError(t, orderSvc.CancelOrder(ctx, bookingUser.String(), created.ID.String()))

	after, err := availability.GetAvailability(ctx, "G101", bookingDate, "Beijing", "Shanghai", nil)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, newFakeSeatLedger(ledgerRows()...).snapshot(), ledger.snapshot())
}

func TestFailedOrderLeavesLedgerUntouched(t *testing.T) {
	now := bookingDate.Add(4 * time.Hour)
	repos := newTestRepos()
	mockHappyJourney(repos)

	ledger := newFakeSeatLedger(ledgerRows()...)
	repos.repo.SeatSegment = ledger

	repos.order.On("Create", mock.Anything, mock.Anything).Return(nil)
	repos.ticket.On("CreateBatch", mock.Anything, mock.Anything).
		Return(errors.New("insert tickets: connection reset"))

	svc, events := newBookingService(repos, now)
	svc.tx = &ledgerTxRunner{repo: repos.repo, ledger: ledger}

	before := ledger.snapshot()

	_, err := svc.CreateOrder(context.Background(), bookingUser.String(), bookingRequest(now))
	assert.ErrorIs(t, err, ErrBookingFailed)
	assert.Equal(t, before, ledger.snapshot())
	assert.Empty(t, events.queues)
}
