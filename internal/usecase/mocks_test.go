package usecase

import (
	"context"
	"sync"
	"time"

	"railway-booking/internal/data/entity"
	"railway-booking/internal/data/repository"
	"railway-booking/internal/queue"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockTrainRepo mocks the train repository
type MockTrainRepo struct {
	mock.Mock
}

func (m *MockTrainRepo) FindInstance(ctx context.Context, trainNo string, serviceDate time.Time) (*entity.TrainInstance, error) {
	args := m.Called(ctx, trainNo, serviceDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.TrainInstance), args.Error(1)
}

func (m *MockTrainRepo) FindStops(ctx context.Context, trainNo string, serviceDate time.Time) ([]*entity.TrainStop, error) {
	args := m.Called(ctx, trainNo, serviceDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.TrainStop), args.Error(1)
}

// MockFareRepo mocks the fare repository
type MockFareRepo struct {
	mock.Mock
}

func (m *MockFareRepo) FindSegmentFare(ctx context.Context, trainNo, from, to string, class entity.SeatClass) (*entity.SegmentFare, error) {
	args := m.Called(ctx, trainNo, from, to, class)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.SegmentFare), args.Error(1)
}

func (m *MockFareRepo) FindSegmentFares(ctx context.Context, trainNo, from, to string) ([]*entity.SegmentFare, error) {
	args := m.Called(ctx, trainNo, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.SegmentFare), args.Error(1)
}

// MockSeatSegmentRepo mocks the seat ledger repository
type MockSeatSegmentRepo struct {
	mock.Mock
}

func (m *MockSeatSegmentRepo) FindBySegments(ctx context.Context, trainNo string, serviceDate time.Time, class entity.SeatClass, segments []entity.Segment) ([]*entity.SeatSegment, error) {
	args := m.Called(ctx, trainNo, serviceDate, class, segments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.SeatSegment), args.Error(1)
}

func (m *MockSeatSegmentRepo) Book(ctx context.Context, trainNo string, serviceDate time.Time, class entity.SeatClass, seat entity.SeatRef, segments []entity.Segment, orderID uuid.UUID, at time.Time) (int64, error) {
	args := m.Called(ctx, trainNo, serviceDate, class, seat, segments, orderID, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSeatSegmentRepo) ReleaseByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(int64), args.Error(1)
}

// MockOrderRepo mocks the order repository
type MockOrderRepo struct {
	mock.Mock
}

func (m *MockOrderRepo) Create(ctx context.Context, order *entity.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockOrderRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockOrderRepo) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Order, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Order), args.Error(1)
}

func (m *MockOrderRepo) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.OrderStatus, at time.Time) (bool, error) {
	args := m.Called(ctx, id, from, to, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepo) MarkPaid(ctx context.Context, id uuid.UUID, serial string, at time.Time) (bool, error) {
	args := m.Called(ctx, id, serial, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepo) FindActiveUnpaidByUser(ctx context.Context, userID uuid.UUID, now time.Time) (*entity.Order, error) {
	args := m.Called(ctx, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockOrderRepo) FindExpiredUnpaid(ctx context.Context, now time.Time, limit int) ([]*entity.Order, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Order), args.Error(1)
}

// MockTicketRepo mocks the ticket repository
type MockTicketRepo struct {
	mock.Mock
}

func (m *MockTicketRepo) Create(ctx context.Context, ticket *entity.Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *MockTicketRepo) CreateBatch(ctx context.Context, tickets []*entity.Ticket) error {
	args := m.Called(ctx, tickets)
	return args.Error(0)
}

func (m *MockTicketRepo) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*entity.Ticket, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Ticket), args.Error(1)
}

// MockPassengerRepo mocks the passenger repository
type MockPassengerRepo struct {
	mock.Mock
}

func (m *MockPassengerRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Passenger, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Passenger), args.Error(1)
}

// MockCancellationRepo mocks the cancellation repository
type MockCancellationRepo struct {
	mock.Mock
}

func (m *MockCancellationRepo) Create(ctx context.Context, c *entity.Cancellation) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCancellationRepo) CountByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (int, error) {
	args := m.Called(ctx, userID, date)
	return args.Int(0), args.Error(1)
}

func (m *MockCancellationRepo) DeleteBefore(ctx context.Context, date time.Time) (int64, error) {
	args := m.Called(ctx, date)
	return args.Get(0).(int64), args.Error(1)
}

// recordingEvents captures published lifecycle events.
type recordingEvents struct {
	queues []string
	events []queue.OrderEvent
}

func (r *recordingEvents) Publish(_ context.Context, queueName string, event queue.OrderEvent) {
	r.queues = append(r.queues, queueName)
	r.events = append(r.events, event)
}

// testRepos bundles one mock per repository plus the aggregate the
// services consume.
type testRepos struct {
	train        *MockTrainRepo
	fare         *MockFareRepo
	seatSegment  *MockSeatSegmentRepo
	order        *MockOrderRepo
	ticket       *MockTicketRepo
	passenger    *MockPassengerRepo
	cancellation *MockCancellationRepo
	repo         *repository.Repository
}

func newTestRepos() *testRepos {
	t := &testRepos{
		train:        new(MockTrainRepo),
		fare:         new(MockFareRepo),
		seatSegment:  new(MockSeatSegmentRepo),
		order:        new(MockOrderRepo),
		ticket:       new(MockTicketRepo),
		passenger:    new(MockPassengerRepo),
		cancellation: new(MockCancellationRepo),
	}
	t.repo = &repository.Repository{
		Train:        t.train,
		Fare:         t.fare,
		SeatSegment:  t.seatSegment,
		Order:        t.order,
		Ticket:       t.ticket,
		Passenger:    t.passenger,
		Cancellation: t.cancellation,
	}
	return t
}

// fakeTxRunner hands fn the same repository set without a database. Tests
// that need transactional failures set err.
type fakeTxRunner struct {
	repo *repository.Repository
	err  error
}

func (f *fakeTxRunner) RunInTx(_ context.Context, fn func(*repository.Repository) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(f.repo)
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

// fakeSeatLedger is an in-memory seat ledger with the same matching rules
// as the SQL repository, for tests that observe state across a book and
// release cycle.
type fakeSeatLedger struct {
	mu   sync.Mutex
	rows []*entity.SeatSegment
}

func newFakeSeatLedger(rows ...*entity.SeatSegment) *fakeSeatLedger {
	return &fakeSeatLedger{rows: rows}
}

func segmentSet(segments []entity.Segment) map[entity.Segment]bool {
	set := make(map[entity.Segment]bool, len(segments))
	for _, seg := range segments {
		set[seg] = true
	}
	return set
}

func (f *fakeSeatLedger) FindBySegments(_ context.Context, trainNo string, serviceDate time.Time, class entity.SeatClass, segments []entity.Segment) ([]*entity.SeatSegment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	wanted := segmentSet(segments)
	var out []*entity.SeatSegment
	for _, row := range f.rows {
		if row.TrainNo != trainNo || !row.ServiceDate.Equal(serviceDate) || row.SeatClass != class {
			continue
		}
		if !wanted[entity.Segment{From: row.FromStation, To: row.ToStation}] {
			continue
		}
		copied := *row
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeSeatLedger) Book(_ context.Context, trainNo string, serviceDate time.Time, class entity.SeatClass, seat entity.SeatRef, segments []entity.Segment, orderID uuid.UUID, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	wanted := segmentSet(segments)
	var affected int64
	for _, row := range f.rows {
		if row.TrainNo != trainNo || !row.ServiceDate.Equal(serviceDate) || row.SeatClass != class {
			continue
		}
		if row.CarNo != seat.CarNo || row.SeatNo != seat.SeatNo || row.Status != entity.SeatSegmentAvailable {
			continue
		}
		if !wanted[entity.Segment{From: row.FromStation, To: row.ToStation}] {
			continue
		}
		id, ts := orderID, at
		row.Status = entity.SeatSegmentBooked
		row.OrderID = &id
		row.HoldAt = &ts
		affected++
	}
	return affected, nil
}

func (f *fakeSeatLedger) ReleaseByOrder(_ context.Context, orderID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var affected int64
	for _, row := range f.rows {
		if row.OrderID == nil || *row.OrderID != orderID {
			continue
		}
		row.Status = entity.SeatSegmentAvailable
		row.OrderID = nil
		row.HoldAt = nil
		affected++
	}
	return affected, nil
}

func (f *fakeSeatLedger) snapshot() []entity.SeatSegment {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]entity.SeatSegment, len(f.rows))
	for i, row := range f.rows {
		out[i] = *row
	}
	return out
}

func (f *fakeSeatLedger) restore(snap []entity.SeatSegment) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rows := make([]*entity.SeatSegment, len(snap))
	for i := range snap {
		copied := snap[i]
		rows[i] = &copied
	}
	f.rows = rows
}

// ledgerTxRunner mimics transaction rollback over the fake ledger: when fn
// fails, the ledger is restored to its state at entry.
type ledgerTxRunner struct {
	repo   *repository.Repository
	ledger *fakeSeatLedger
}

func (f *ledgerTxRunner) RunInTx(_ context.Context, fn func(*repository.Repository) error) error {
	snap := f.ledger.snapshot()
	if err := fn(f.repo); err != nil {
		f.ledger.restore(snap)
		return err
	}
	return nil
}
