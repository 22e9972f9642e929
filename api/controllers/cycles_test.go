package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ruialonso/taxilog-backend/internal/cycles"
	"github.com/ruialonso/taxilog-backend/pkg/db/models"
	"github.com/ruialonso/taxilog-backend/pkg/enums"
	pkgerrors "github.com/ruialonso/taxilog-backend/pkg/errors"
)

type stubCycles struct {
	openFn   func(ctx context.Context, input cycles.OpenInput) (*models.BillingCycle, error)
	closeFn  func(ctx context.Context, cycleID uuid.UUID, endDate time.Time) (*models.BillingCycle, error)
	deleteFn func(ctx context.Context, cycleID uuid.UUID) error
	activeFn func(ctx context.Context) (*models.BillingCycle, error)
	listFn   func(ctx context.Context, params cycles.ListParams) (*cycles.ListResult, error)
}

func (s stubCycles) Open(ctx context.Context, input cycles.OpenInput) (*models.BillingCycle, error) {
	if s.openFn != nil {
		return s.openFn(ctx, input)
	}
	return &models.BillingCycle{}, nil
}

func (s stubCycles) Close(ctx context.Context, cycleID uuid.UUID, endDate time.Time) (*models.BillingCycle, error) {
	if s.closeFn != nil {
		return s.closeFn(ctx, cycleID, endDate)
	}
	return &models.BillingCycle{}, nil
}

func (s stubCycles) Delete(ctx context.Context, cycleID uuid.UUID) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, cycleID)
	}
	return nil
}

func (s stubCycles) Active(ctx context.Context) (*models.BillingCycle, error) {
	if s.activeFn != nil {
		return s.activeFn(ctx)
	}
	return &models.BillingCycle{}, nil
}

func (s stubCycles) ListClosed(ctx context.Context, params cycles.ListParams) (*cycles.ListResult, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return &cycles.ListResult{}, nil
}

func withCycleID(req *http.Request, cycleID string) *http.Request {
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("cycleID", cycleID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))
}

func TestCycleOpenCreatesCycle(t *testing.T) {
	var gotInput cycles.OpenInput
	svc := stubCycles{
		openFn: func(_ context.Context, input cycles.OpenInput) (*models.BillingCycle, error) {
			gotInput = input
			return &models.BillingCycle{
				ID:        uuid.New(),
				Name:      input.Name,
				StartDate: input.StartDate,
				Status:    enums.CycleStatusOpen,
			}, nil
		},
	}

	handler := CycleOpen(svc, nil)
	body := strings.NewReader(`{"name":"Octubre","start_date":"2025-10-01"}`)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if gotInput.Name != "Octubre" {
		t.Fatalf("unexpected name %q", gotInput.Name)
	}
	if got := gotInput.StartDate.Format("2006-01-02"); got != "2025-10-01" {
		t.Fatalf("unexpected start date %q", got)
	}
}

func TestCycleOpenRejectsBadDate(t *testing.T) {
	handler := CycleOpen(stubCycles{}, nil)
	body := strings.NewReader(`{"name":"Octubre","start_date":"01/10/2025"}`)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCycleOpenConflictWithActiveCycle(t *testing.T) {
	svc := stubCycles{
		openFn: func(context.Context, cycles.OpenInput) (*models.BillingCycle, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot open: an active cycle exists")
		},
	}

	handler := CycleOpen(svc, nil)
	body := strings.NewReader(`{"name":"Octubre","start_date":"2025-10-01"}`)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestCycleClosePassesIDAndDate(t *testing.T) {
	cycleID := uuid.New()
	var gotID uuid.UUID
	var gotEnd time.Time
	svc := stubCycles{
		closeFn: func(_ context.Context, id uuid.UUID, endDate time.Time) (*models.BillingCycle, error) {
			gotID = id
			gotEnd = endDate
			return &models.BillingCycle{ID: id, Status: enums.CycleStatusClosed}, nil
		},
	}

	handler := CycleClose(svc, nil)
	body := strings.NewReader(`{"end_date":"2025-10-31"}`)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", "application/json")
	req = withCycleID(req, cycleID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotID != cycleID {
		t.Fatalf("unexpected cycle id %s", gotID)
	}
	if got := gotEnd.Format("2006-01-02"); got != "2025-10-31" {
		t.Fatalf("unexpected end date %q", got)
	}
}

func TestCycleCloseRejectsBadID(t *testing.T) {
	handler := CycleClose(stubCycles{}, nil)
	body := strings.NewReader(`{"end_date":"2025-10-31"}`)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", "application/json")
	req = withCycleID(req, "nope")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCycleDelete(t *testing.T) {
	cycleID := uuid.New()
	var gotID uuid.UUID
	svc := stubCycles{
		deleteFn: func(_ context.Context, id uuid.UUID) error {
			gotID = id
			return nil
		},
	}

	handler := CycleDelete(svc, nil)
	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req = withCycleID(req, cycleID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotID != cycleID {
		t.Fatalf("unexpected cycle id %s", gotID)
	}
}

func TestCycleActiveNotFound(t *testing.T) {
	svc := stubCycles{
		activeFn: func(context.Context) (*models.BillingCycle, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no open billing cycle")
		},
	}

	handler := CycleActive(svc, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCycleListClosedPassesPagination(t *testing.T) {
	var gotParams cycles.ListParams
	svc := stubCycles{
		listFn: func(_ context.Context, params cycles.ListParams) (*cycles.ListResult, error) {
			gotParams = params
			return &cycles.ListResult{
				Items:  []models.BillingCycle{{Name: "Septiembre"}},
				Cursor: "next",
			}, nil
		},
	}

	handler := CycleListClosed(svc, nil)
	req := httptest.NewRequest(http.MethodGet, "/?limit=5&cursor=abc", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotParams.Limit != 5 || gotParams.Cursor != "abc" {
		t.Fatalf("unexpected params %+v", gotParams)
	}

	var envelope struct {
		Data cycles.ListResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Items) != 1 || envelope.Data.Cursor != "next" {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}
