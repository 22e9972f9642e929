package extraction

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/ruialonso/taxilog-backend/pkg/errors"
	"github.com/ruialonso/taxilog-backend/pkg/gemini"
)

type ticketExtractor interface {
	ExtractTicket(ctx context.Context, image []byte, mimeType string) ([]gemini.ExtractedService, error)
}

// Prefill holds best-effort form values read from a ticket photo. Every field
// is optional; the driver reviews and completes the form before saving. The
// price is never extracted.
type Prefill struct {
	Date         string `json:"date,omitempty"`
	Origin       string `json:"origin,omitempty"`
	Destination  string `json:"destination,omitempty"`
	ClientName   string `json:"client_name,omitempty"`
	Observations string `json:"observations,omitempty"`
}

// Service turns ticket photos into entry-form prefills.
type Service interface {
	Scan(ctx context.Context, image []byte, mimeType string) ([]Prefill, error)
}

type service struct {
	extractor ticketExtractor
	now       func() time.Time
}

// NewService builds the scan service over the hosted extraction endpoint.
func NewService(extractor ticketExtractor) (Service, error) {
	if extractor == nil {
		return nil, fmt.Errorf("ticket extractor required")
	}
	return &service{extractor: extractor, now: time.Now}, nil
}

// Scan extracts form prefills from one ticket image. Extraction failures
// surface as errors so the caller can fall back to manual entry; a successful
// call always yields at least one prefill.
func (s *service) Scan(ctx context.Context, image []byte, mimeType string) ([]Prefill, error) {
	if len(image) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image data is required")
	}

	extracted, err := s.extractor.ExtractTicket(ctx, image, mimeType)
	if err != nil {
		return nil, err
	}
	if len(extracted) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "no services found on the ticket")
	}

	prefills := make([]Prefill, 0, len(extracted))
	for _, svc := range extracted {
		prefills = append(prefills, Prefill{
			Date:         s.normalizeDate(svc.Date),
			Origin:       strings.TrimSpace(svc.Origin),
			Destination:  strings.TrimSpace(svc.Destination),
			ClientName:   strings.TrimSpace(svc.Company),
			Observations: strings.TrimSpace(svc.Observations),
		})
	}
	return prefills, nil
}

// normalizeDate keeps well-formed dates and falls back to today for anything
// the model mangled. The form shows the date either way.
func (s *service) normalizeDate(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return s.now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", trimmed); err != nil {
		return s.now().Format("2006-01-02")
	}
	return trimmed
}
