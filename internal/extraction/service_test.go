package extraction

import (
	"context"
	"testing"
	"time"

	pkgerrors "github.com/ruialonso/taxilog-backend/pkg/errors"
	"github.com/ruialonso/taxilog-backend/pkg/gemini"
)

type stubExtractor struct {
	services []gemini.ExtractedService
	err      error
	gotMime  string
}

func (s *stubExtractor) ExtractTicket(ctx context.Context, image []byte, mimeType string) ([]gemini.ExtractedService, error) {
	s.gotMime = mimeType
	if s.err != nil {
		return nil, s.err
	}
	return s.services, nil
}

func newScanService(t *testing.T, extractor *stubExtractor, now time.Time) *service {
	t.Helper()

	svc, err := NewService(extractor)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	typed := svc.(*service)
	typed.now = func() time.Time { return now }
	return typed
}

func TestScanMapsExtractedFields(t *testing.T) {
	extractor := &stubExtractor{services: []gemini.ExtractedService{
		{
			Date:         "2026-03-14",
			Origin:       "  Hospital ",
			Destination:  "Plaza",
			Company:      "Coop",
			Observations: " two bags ",
		},
		{
			Origin:      "Estacion",
			Destination: "Aeropuerto",
		},
	}}
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	svc := newScanService(t, extractor, now)

	prefills, err := svc.Scan(context.Background(), []byte("img"), "image/jpeg")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(prefills) != 2 {
		t.Fatalf("expected 2 prefills, got %d", len(prefills))
	}
	if prefills[0].Origin != "Hospital" || prefills[0].Observations != "two bags" {
		t.Fatalf("fields not trimmed: %+v", prefills[0])
	}
	if prefills[0].Date != "2026-03-14" {
		t.Fatalf("valid date was rewritten: %q", prefills[0].Date)
	}
	if prefills[1].Date != "2026-03-15" {
		t.Fatalf("missing date should fall back to today, got %q", prefills[1].Date)
	}
	if extractor.gotMime != "image/jpeg" {
		t.Fatalf("mime type not forwarded: %q", extractor.gotMime)
	}
}

func TestScanMangledDateFallsBack(t *testing.T) {
	extractor := &stubExtractor{services: []gemini.ExtractedService{
		{Date: "14 de marzo", Origin: "A", Destination: "B"},
	}}
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	svc := newScanService(t, extractor, now)

	prefills, err := svc.Scan(context.Background(), []byte("img"), "")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if prefills[0].Date != "2026-03-15" {
		t.Fatalf("expected fallback date, got %q", prefills[0].Date)
	}
}

func TestScanEmptyImage(t *testing.T) {
	svc := newScanService(t, &stubExtractor{}, time.Now())

	_, err := svc.Scan(context.Background(), nil, "image/jpeg")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestScanExtractorFailurePassesThrough(t *testing.T) {
	extractor := &stubExtractor{err: pkgerrors.New(pkgerrors.CodeDependency, "endpoint down")}
	svc := newScanService(t, extractor, time.Now())

	_, err := svc.Scan(context.Background(), []byte("img"), "image/jpeg")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestScanNoServicesFound(t *testing.T) {
	svc := newScanService(t, &stubExtractor{}, time.Now())

	_, err := svc.Scan(context.Background(), []byte("img"), "image/jpeg")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
