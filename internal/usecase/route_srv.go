package usecase

import (
	"context"
	"fmt"
	"time"

	"railway-booking/internal/data/entity"
	"railway-booking/internal/data/repository"

	"go.uber.org/zap"
)

// Journey is a validated (boarding, alighting) pair on a train instance plus
// the ordered adjacent-stop segments it spans. Every availability, fare and
// allocation decision runs over Segments, never over raw station names.
type Journey struct {
	Segments  []entity.Segment
	Boarding  *entity.TrainStop
	Alighting *entity.TrainStop
}

type RouteService interface {
	// SpannedSegments derives the ordered segment list between two stations.
	SpannedSegments(ctx context.Context, trainNo string, serviceDate time.Time, from, to string) ([]entity.Segment, error)
	// Journey additionally returns the boarding and alighting stops.
	Journey(ctx context.Context, trainNo string, serviceDate time.Time, from, to string) (*Journey, error)
}

type routeService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewRouteService(repo *repository.Repository, log *zap.Logger) RouteService {
	return &routeService{
		repo: repo,
		log:  log.With(zap.String("service", "route")),
	}
}

func (s *routeService) SpannedSegments(ctx context.Context, trainNo string, serviceDate time.Time, from, to string) ([]entity.Segment, error) {
	journey, err := s.Journey(ctx, trainNo, serviceDate, from, to)
	if err != nil {
		return nil, err
	}
	return journey.Segments, nil
}

func (s *routeService) Journey(ctx context.Context, trainNo string, serviceDate time.Time, from, to string) (*Journey, error) {
	stops, err := s.repo.Train.FindStops(ctx, trainNo, serviceDate)
	if err != nil {
		return nil, fmt.Errorf("load stops: %w", err)
	}
	if len(stops) == 0 {
		return nil, fmt.Errorf("%w: train %s on %s", ErrTrainNotFound, trainNo, serviceDate.Format("2006-01-02"))
	}

	fromIdx, toIdx := -1, -1
	for i, stop := range stops {
		switch stop.Station {
		case from:
			fromIdx = i
		case to:
			toIdx = i
		}
	}

	if fromIdx == -1 {
		return nil, fmt.Errorf("%w: station %q is not a stop of train %s", ErrInvalidRoute, from, trainNo)
	}
	if toIdx == -1 {
		return nil, fmt.Errorf("%w: station %q is not a stop of train %s", ErrInvalidRoute, to, trainNo)
	}
	if fromIdx >= toIdx {
		return nil, fmt.Errorf("%w: %q must precede %q on train %s", ErrInvalidRoute, from, to, trainNo)
	}

	segments := make([]entity.Segment, 0, toIdx-fromIdx)
	for i := fromIdx; i < toIdx; i++ {
		segments = append(segments, entity.Segment{
			From: stops[i].Station,
			To:   stops[i+1].Station,
		})
	}

	return &Journey{
		Segments:  segments,
		Boarding:  stops[fromIdx],
		Alighting: stops[toIdx],
	}, nil
}
