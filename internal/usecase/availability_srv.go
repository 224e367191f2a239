package usecase

import (
	"context"
	"fmt"
	"time"

	"railway-booking/internal/data/entity"
	"railway-booking/internal/data/repository"

	"go.uber.org/zap"
)

type AvailabilityService interface {
	// GetAvailability counts free seats per class for the journey. A nil
	// class means all classes. Counts are always computed fresh from the
	// ledger; nothing here is cached across a transaction boundary.
	GetAvailability(ctx context.Context, trainNo string, serviceDate time.Time, from, to string, class *entity.SeatClass) (map[entity.SeatClass]int, error)
}

type availabilityService struct {
	repo  *repository.Repository
	route RouteService
	log   *zap.Logger
}

func NewAvailabilityService(repo *repository.Repository, route RouteService, log *zap.Logger) AvailabilityService {
	return &availabilityService{
		repo:  repo,
		route: route,
		log:   log.With(zap.String("service", "availability")),
	}
}

func (s *availabilityService) GetAvailability(ctx context.Context, trainNo string, serviceDate time.Time, from, to string, class *entity.SeatClass) (map[entity.SeatClass]int, error) {
	segments, err := s.route.SpannedSegments(ctx, trainNo, serviceDate, from, to)
	if err != nil {
		return nil, err
	}

	classes := entity.AllSeatClasses
	if class != nil {
		classes = []entity.SeatClass{*class}
	}

	counts := make(map[entity.SeatClass]int, len(classes))
	for _, c := range classes {
		free, err := freeSeatsForClass(ctx, s.repo, trainNo, serviceDate, c, segments)
		if err != nil {
			return nil, err
		}
		counts[c] = len(free)
	}

	return counts, nil
}

// freeSeatsForClass loads the ledger rows for the spanned segments and
// returns the seats free across all of them, ordered by car then seat
// number. The booking transactor runs the same computation against its
// transaction-bound repository for re-validation.
func freeSeatsForClass(ctx context.Context, repo *repository.Repository, trainNo string, serviceDate time.Time, class entity.SeatClass, segments []entity.Segment) ([]entity.SeatRef, error) {
	records, err := repo.SeatSegment.FindBySegments(ctx, trainNo, serviceDate, class, segments)
	if err != nil {
		return nil, fmt.Errorf("load seat ledger: %w", err)
	}
	return selectFreeSeats(records, len(segments)), nil
}

// selectFreeSeats applies the availability rule: a seat qualifies iff a
// ledger row exists for every spanned segment and all of them are
// available. A seat that is free for part of the journey but booked for
// another spanned segment never qualifies. Input rows are ordered by car
// then seat, and the output keeps that order so allocation is
// deterministic.
func selectFreeSeats(records []*entity.SeatSegment, segmentCount int) []entity.SeatRef {
	if segmentCount == 0 {
		return nil
	}

	type seatState struct {
		rows       int
		allFree    bool
		orderIndex int
	}

	order := make([]entity.SeatRef, 0)
	states := make(map[entity.SeatRef]*seatState)

	for _, rec := range records {
		ref := entity.SeatRef{CarNo: rec.CarNo, SeatNo: rec.SeatNo}
		state, ok := states[ref]
		if !ok {
			state = &seatState{allFree: true, orderIndex: len(order)}
			states[ref] = state
			order = append(order, ref)
		}
		state.rows++
		if rec.Status != entity.SeatSegmentAvailable {
			state.allFree = false
		}
	}

	free := make([]entity.SeatRef, 0, len(order))
	for _, ref := range order {
		state := states[ref]
		if state.rows == segmentCount && state.allFree {
			free = append(free, ref)
		}
	}

	return free
}
