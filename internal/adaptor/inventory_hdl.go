package adaptor

import (
	"net/http"
	"time"

	"railway-booking/internal/data/entity"
	"railway-booking/internal/dto/response"
	"railway-booking/internal/usecase"
	"railway-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type InventoryHandler struct {
	availability usecase.AvailabilityService
	fare         usecase.FareService
	log          *zap.Logger
}

func NewInventoryHandler(availability usecase.AvailabilityService, fare usecase.FareService, log *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		availability: availability,
		fare:         fare,
		log:          log.With(zap.String("handler", "inventory")),
	}
}

// journeyQuery is the query-string triple every inventory endpoint takes.
type journeyQuery struct {
	trainNo     string
	serviceDate time.Time
	from        string
	to          string
}

func parseJourneyQuery(r *http.Request) (*journeyQuery, string) {
	trainNo := chi.URLParam(r, "trainNo")
	if trainNo == "" {
		return nil, "Train number is required"
	}

	query := r.URL.Query()
	date, err := time.Parse("2006-01-02", query.Get("date"))
	if err != nil {
		return nil, "Query parameter date must be YYYY-MM-DD"
	}

	from, to := query.Get("from"), query.Get("to")
	if from == "" || to == "" {
		return nil, "Query parameters from and to are required"
	}

	return &journeyQuery{trainNo: trainNo, serviceDate: date, from: from, to: to}, ""
}

// GetAvailability handles GET /api/trains/{trainNo}/availability
func (h *InventoryHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	q, msg := parseJourneyQuery(r)
	if msg != "" {
		utils.ResponseBadRequest(w, msg, nil)
		return
	}

	var class *entity.SeatClass
	if raw := r.URL.Query().Get("class"); raw != "" {
		c := entity.SeatClass(raw)
		if !c.Valid() {
			utils.ResponseBadRequest(w, "Unknown seat class "+raw, nil)
			return
		}
		class = &c
	}

	counts, err := h.availability.GetAvailability(r.Context(), q.trainNo, q.serviceDate, q.from, q.to, class)
	if err != nil {
		handleServiceError(w, h.log, err, "get availability")
		return
	}

	utils.ResponseSuccess(w, "success", response.AvailabilityResponse{
		TrainNo:          q.trainNo,
		ServiceDate:      q.serviceDate.Format("2006-01-02"),
		DepartureStation: q.from,
		ArrivalStation:   q.to,
		Counts:           counts,
	})
}

// GetFare handles GET /api/trains/{trainNo}/fare
func (h *InventoryHandler) GetFare(w http.ResponseWriter, r *http.Request) {
	q, msg := parseJourneyQuery(r)
	if msg != "" {
		utils.ResponseBadRequest(w, msg, nil)
		return
	}

	class := entity.SeatClass(r.URL.Query().Get("class"))
	if !class.Valid() {
		utils.ResponseBadRequest(w, "Query parameter class is required", nil)
		return
	}

	price, err := h.fare.GetFare(r.Context(), q.trainNo, q.serviceDate, q.from, q.to, class)
	if err != nil {
		handleServiceError(w, h.log, err, "get fare")
		return
	}

	utils.ResponseSuccess(w, "success", response.FareResponse{
		TrainNo:          q.trainNo,
		ServiceDate:      q.serviceDate.Format("2006-01-02"),
		DepartureStation: q.from,
		ArrivalStation:   q.to,
		SeatClass:        class,
		Price:            price,
	})
}

// GetQuotes handles GET /api/trains/{trainNo}/quotes
func (h *InventoryHandler) GetQuotes(w http.ResponseWriter, r *http.Request) {
	q, msg := parseJourneyQuery(r)
	if msg != "" {
		utils.ResponseBadRequest(w, msg, nil)
		return
	}

	quotes, err := h.fare.GetQuotes(r.Context(), q.trainNo, q.serviceDate, q.from, q.to)
	if err != nil {
		handleServiceError(w, h.log, err, "get quotes")
		return
	}

	resp := response.QuotesResponse{
		TrainNo:          q.trainNo,
		ServiceDate:      q.serviceDate.Format("2006-01-02"),
		DepartureStation: q.from,
		ArrivalStation:   q.to,
		DepartureTime:    quotes.DepartureTime,
		ArrivalTime:      quotes.ArrivalTime,
		Quotes:           make([]response.QuoteResponse, 0, len(quotes.Quotes)),
	}
	for _, quote := range quotes.Quotes {
		resp.Quotes = append(resp.Quotes, response.QuoteResponse{
			SeatClass: quote.SeatClass,
			Price:     quote.Price,
			Available: quote.Available,
		})
	}

	utils.ResponseSuccess(w, "success", resp)
}
