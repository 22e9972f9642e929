package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ruialonso/taxilog-backend/api/responses"
	"github.com/ruialonso/taxilog-backend/api/validators"
	"github.com/ruialonso/taxilog-backend/internal/trips"
	pkgerrors "github.com/ruialonso/taxilog-backend/pkg/errors"
	"github.com/ruialonso/taxilog-backend/pkg/logger"
	"github.com/ruialonso/taxilog-backend/pkg/pagination"
)

// Field presence is checked by the trips service after the open-cycle
// precondition, so a missing origin on a closed store still reports
// "open a cycle first" instead of a field error.
type tripRecordRequest struct {
	Date            string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Origin          string `json:"origin"`
	Destination     string `json:"destination"`
	ClientName      string `json:"client_name"`
	Price           string `json:"price"`
	DiscountPercent string `json:"discount_percent"`
	Observations    string `json:"observations"`
	PaymentMethod   string `json:"payment_method"`
}

// TripRecord stores one trip against the open billing cycle.
func TripRecord(svc trips.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "trips service unavailable"))
			return
		}

		var payload tripRecordRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := trips.RecordInput{
			Origin:          payload.Origin,
			Destination:     payload.Destination,
			ClientName:      payload.ClientName,
			Price:           payload.Price,
			DiscountPercent: payload.DiscountPercent,
			Observations:    payload.Observations,
			PaymentMethod:   payload.PaymentMethod,
		}
		if payload.Date != "" {
			date, err := time.Parse(dateLayout, payload.Date)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid date"))
				return
			}
			input.Date = date
		}

		trip, err := svc.Record(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, trip)
	}
}

// TripList returns the trips of one cycle, newest first, cursor paginated.
func TripList(svc trips.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "trips service unavailable"))
			return
		}

		cycleID, err := parseCycleID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := trips.ListParams{CycleID: cycleID}
		params.Limit = limit
		params.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))

		result, err := svc.ListByCycle(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// RecurringClients returns known clients ordered by most recent trip.
func RecurringClients(svc trips.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "trips service unavailable"))
			return
		}

		clients, err := svc.RecurringClients(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, clients)
	}
}

// RecurringRoutes returns the remembered routes of one client, most used first.
func RecurringRoutes(svc trips.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "trips service unavailable"))
			return
		}

		clientName := chi.URLParam(r, "clientName")
		routes, err := svc.RecurringRoutes(r.Context(), clientName)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, routes)
	}
}
