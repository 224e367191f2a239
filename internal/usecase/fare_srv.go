package usecase

import (
	"context"
	"fmt"
	"time"

	"railway-booking/internal/data/entity"
	"railway-booking/internal/data/repository"

	"go.uber.org/zap"
)

// SeatClassQuote is one bookable class for a journey: its summed fare and
// the current free-seat count.
type SeatClassQuote struct {
	SeatClass entity.SeatClass `json:"seat_class"`
	Price     float64          `json:"price"`
	Available int              `json:"available"`
}

type FareService interface {
	// GetFare sums the published per-segment prices of the class across the
	// journey. Any segment without a price is a schedule-data defect and
	// fails with ErrFareUnavailable rather than defaulting.
	GetFare(ctx context.Context, trainNo string, serviceDate time.Time, from, to string, class entity.SeatClass) (float64, error)

	// FareForSegments is GetFare over an already-derived segment list.
	FareForSegments(ctx context.Context, trainNo string, segments []entity.Segment, class entity.SeatClass) (float64, error)

	// GetQuotes lists the classes of the journey that have both a complete
	// fare and at least one free seat, with the default class first.
	GetQuotes(ctx context.Context, trainNo string, serviceDate time.Time, from, to string) (*TrainQuotes, error)
}

// TrainQuotes is the bookable-class listing for a train instance, with the
// instance's overall departure and arrival times.
type TrainQuotes struct {
	DepartureTime time.Time
	ArrivalTime   time.Time
	Quotes        []SeatClassQuote
}

type fareService struct {
	repo         *repository.Repository
	route        RouteService
	availability AvailabilityService
	log          *zap.Logger
}

func NewFareService(repo *repository.Repository, route RouteService, availability AvailabilityService, log *zap.Logger) FareService {
	return &fareService{
		repo:         repo,
		route:        route,
		availability: availability,
		log:          log.With(zap.String("service", "fare")),
	}
}

func (s *fareService) GetFare(ctx context.Context, trainNo string, serviceDate time.Time, from, to string, class entity.SeatClass) (float64, error) {
	segments, err := s.route.SpannedSegments(ctx, trainNo, serviceDate, from, to)
	if err != nil {
		return 0, err
	}
	return s.FareForSegments(ctx, trainNo, segments, class)
}

func (s *fareService) FareForSegments(ctx context.Context, trainNo string, segments []entity.Segment, class entity.SeatClass) (float64, error) {
	var total float64
	for _, seg := range segments {
		fare, err := s.repo.Fare.FindSegmentFare(ctx, trainNo, seg.From, seg.To, class)
		if err != nil {
			return 0, fmt.Errorf("load fare: %w", err)
		}
		if fare == nil || fare.Price <= 0 {
			return 0, fmt.Errorf("%w: no %s price for segment %s->%s on train %s",
				ErrFareUnavailable, string(class), seg.From, seg.To, trainNo)
		}
		total += fare.Price
	}
	return total, nil
}

func (s *fareService) GetQuotes(ctx context.Context, trainNo string, serviceDate time.Time, from, to string) (*TrainQuotes, error) {
	instance, err := s.repo.Train.FindInstance(ctx, trainNo, serviceDate)
	if err != nil {
		return nil, fmt.Errorf("load train: %w", err)
	}
	if instance == nil {
		return nil, fmt.Errorf("%w: train %s on %s", ErrTrainNotFound, trainNo, serviceDate.Format("2006-01-02"))
	}

	segments, err := s.route.SpannedSegments(ctx, trainNo, serviceDate, from, to)
	if err != nil {
		return nil, err
	}

	counts, err := s.availability.GetAvailability(ctx, trainNo, serviceDate, from, to, nil)
	if err != nil {
		return nil, err
	}

	// One fare query per segment prices every class at once.
	type fareTotal struct {
		sum    float64
		priced int
	}
	totals := make(map[entity.SeatClass]*fareTotal)
	for _, seg := range segments {
		fares, err := s.repo.Fare.FindSegmentFares(ctx, trainNo, seg.From, seg.To)
		if err != nil {
			return nil, fmt.Errorf("load fares: %w", err)
		}
		for _, fare := range fares {
			if fare.Price <= 0 {
				continue
			}
			total, ok := totals[fare.SeatClass]
			if !ok {
				total = &fareTotal{}
				totals[fare.SeatClass] = total
			}
			total.sum += fare.Price
			total.priced++
		}
	}

	defaultClass := entity.DefaultSeatClass(trainNo)
	classes := make([]entity.SeatClass, 0, len(entity.AllSeatClasses))
	classes = append(classes, defaultClass)
	for _, c := range entity.AllSeatClasses {
		if c != defaultClass {
			classes = append(classes, c)
		}
	}

	var quotes []SeatClassQuote
	for _, c := range classes {
		if counts[c] == 0 {
			continue
		}

		// Classes without a price on every spanned segment are simply not
		// offered here; GetFare still reports the integrity error when
		// asked directly.
		total, ok := totals[c]
		if !ok || total.priced != len(segments) {
			continue
		}

		quotes = append(quotes, SeatClassQuote{
			SeatClass: c,
			Price:     total.sum,
			Available: counts[c],
		})
	}

	return &TrainQuotes{
		DepartureTime: instance.DepartureTime,
		ArrivalTime:   instance.ArrivalTime,
		Quotes:        quotes,
	}, nil
}
