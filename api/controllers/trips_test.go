package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ruialonso/taxilog-backend/internal/trips"
	"github.com/ruialonso/taxilog-backend/pkg/db/models"
	pkgerrors "github.com/ruialonso/taxilog-backend/pkg/errors"
)

type stubTrips struct {
	recordFn  func(ctx context.Context, input trips.RecordInput) (*models.Trip, error)
	listFn    func(ctx context.Context, params trips.ListParams) (*trips.ListResult, error)
	clientsFn func(ctx context.Context) ([]models.RecurringClient, error)
	routesFn  func(ctx context.Context, clientName string) ([]models.RecurringRoute, error)
}

func (s stubTrips) Record(ctx context.Context, input trips.RecordInput) (*models.Trip, error) {
	if s.recordFn != nil {
		return s.recordFn(ctx, input)
	}
	return &models.Trip{}, nil
}

func (s stubTrips) ListByCycle(ctx context.Context, params trips.ListParams) (*trips.ListResult, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return &trips.ListResult{}, nil
}

func (s stubTrips) AllByCycle(context.Context, uuid.UUID) ([]models.Trip, error) {
	return nil, nil
}

func (s stubTrips) RecurringClients(ctx context.Context) ([]models.RecurringClient, error) {
	if s.clientsFn != nil {
		return s.clientsFn(ctx)
	}
	return nil, nil
}

func (s stubTrips) RecurringRoutes(ctx context.Context, clientName string) ([]models.RecurringRoute, error) {
	if s.routesFn != nil {
		return s.routesFn(ctx, clientName)
	}
	return nil, nil
}

func TestTripRecordPassesInput(t *testing.T) {
	var gotInput trips.RecordInput
	svc := stubTrips{
		recordFn: func(_ context.Context, input trips.RecordInput) (*models.Trip, error) {
			gotInput = input
			return &models.Trip{
				ID:    uuid.New(),
				Price: decimal.RequireFromString("24.50"),
			}, nil
		},
	}

	handler := TripRecord(svc, nil)
	body := strings.NewReader(`{
		"date": "2025-10-03",
		"origin": "Aeropuerto",
		"destination": "Hotel Sol",
		"client_name": "Hotel Sol",
		"price": "24.50",
		"discount_percent": "20",
		"payment_method": "cash"
	}`)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if gotInput.Origin != "Aeropuerto" || gotInput.Price != "24.50" {
		t.Fatalf("unexpected input %+v", gotInput)
	}
	if got := gotInput.Date.Format("2006-01-02"); got != "2025-10-03" {
		t.Fatalf("unexpected date %q", got)
	}
	if gotInput.PaymentMethod != "cash" {
		t.Fatalf("unexpected payment method %q", gotInput.PaymentMethod)
	}
}

func TestTripRecordOmittedDateStaysZero(t *testing.T) {
	var gotInput trips.RecordInput
	svc := stubTrips{
		recordFn: func(_ context.Context, input trips.RecordInput) (*models.Trip, error) {
			gotInput = input
			return &models.Trip{}, nil
		},
	}

	handler := TripRecord(svc, nil)
	body := strings.NewReader(`{"origin":"A","destination":"B","client_name":"C","price":"10"}`)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if !gotInput.Date.IsZero() {
		t.Fatalf("expected zero date, got %v", gotInput.Date)
	}
}

func TestTripRecordPassesMissingFieldsToService(t *testing.T) {
	var gotInput trips.RecordInput
	svc := stubTrips{
		recordFn: func(_ context.Context, input trips.RecordInput) (*models.Trip, error) {
			gotInput = input
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "destination is required")
		},
	}

	handler := TripRecord(svc, nil)
	body := strings.NewReader(`{"origin":"A"}`)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if gotInput.Origin != "A" {
		t.Fatalf("unexpected origin %q", gotInput.Origin)
	}
}

func TestTripRecordCyclePreconditionBeatsFieldValidation(t *testing.T) {
	svc := stubTrips{
		recordFn: func(context.Context, trips.RecordInput) (*models.Trip, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "open a billing cycle before recording trips")
		},
	}

	handler := TripRecord(svc, nil)
	body := strings.NewReader(`{"origin":"A"}`)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestTripRecordWithoutOpenCycle(t *testing.T) {
	svc := stubTrips{
		recordFn: func(context.Context, trips.RecordInput) (*models.Trip, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "open a billing cycle before recording trips")
		},
	}

	handler := TripRecord(svc, nil)
	body := strings.NewReader(`{"origin":"A","destination":"B","client_name":"C","price":"10"}`)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestTripListScopedToCycle(t *testing.T) {
	cycleID := uuid.New()
	var gotParams trips.ListParams
	svc := stubTrips{
		listFn: func(_ context.Context, params trips.ListParams) (*trips.ListResult, error) {
			gotParams = params
			return &trips.ListResult{Items: []models.Trip{{ID: uuid.New()}}}, nil
		},
	}

	handler := TripList(svc, nil)
	req := httptest.NewRequest(http.MethodGet, "/?limit=10", nil)
	req = withCycleID(req, cycleID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotParams.CycleID != cycleID || gotParams.Limit != 10 {
		t.Fatalf("unexpected params %+v", gotParams)
	}
}

func TestRecurringClientsList(t *testing.T) {
	svc := stubTrips{
		clientsFn: func(context.Context) ([]models.RecurringClient, error) {
			return []models.RecurringClient{{Name: "Hotel Sol", TripCount: 7}}, nil
		},
	}

	handler := RecurringClients(svc, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data []models.RecurringClient `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].Name != "Hotel Sol" {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestRecurringRoutesPassesClientName(t *testing.T) {
	var gotClient string
	svc := stubTrips{
		routesFn: func(_ context.Context, clientName string) ([]models.RecurringRoute, error) {
			gotClient = clientName
			return nil, nil
		},
	}

	handler := RecurringRoutes(svc, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("clientName", "Hotel Sol")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotClient != "Hotel Sol" {
		t.Fatalf("unexpected client %q", gotClient)
	}
}
