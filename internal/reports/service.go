package reports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/google/uuid"
	"github.com/ruialonso/taxilog-backend/pkg/db/models"
	"github.com/ruialonso/taxilog-backend/pkg/enums"
	pkgerrors "github.com/ruialonso/taxilog-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type cyclesRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.BillingCycle, error)
}

type tripsProvider interface {
	AllByCycle(ctx context.Context, cycleID uuid.UUID) ([]models.Trip, error)
}

// Report is a rendered cycle statement ready to hand to the share sheet.
type Report struct {
	Filename string `json:"filename"`
	HTML     []byte `json:"html"`
}

// Service renders closed billing cycles as printable HTML statements.
type Service interface {
	Render(ctx context.Context, cycleID uuid.UUID) (*Report, error)
}

type service struct {
	cycles cyclesRepository
	trips  tripsProvider
	tmpl   *template.Template
}

// NewService builds the report service.
func NewService(cycles cyclesRepository, trips tripsProvider) (Service, error) {
	if cycles == nil {
		return nil, fmt.Errorf("cycles repository required")
	}
	if trips == nil {
		return nil, fmt.Errorf("trips provider required")
	}

	tmpl, err := template.New("cycle-report").Parse(reportTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}

	return &service{cycles: cycles, trips: trips, tmpl: tmpl}, nil
}

type reportRow struct {
	Index          int
	Date           string
	Route          string
	Client         string
	Price          string
	Discount       string
	EffectivePrice string
	Observations   string
}

type reportData struct {
	CycleName     string
	StartDate     string
	EndDate       string
	Rows          []reportRow
	TripCount     int
	GrossTotal    string
	DiscountTotal string
	NetTotal      string
}

// Render produces the HTML statement for a closed cycle. Open cycles cannot
// be invoiced yet and are rejected.
func (s *service) Render(ctx context.Context, cycleID uuid.UUID) (*Report, error) {
	if cycleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cycle id required")
	}

	cycle, err := s.cycles.FindByID(ctx, cycleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cycle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup cycle")
	}
	if cycle.Status != enums.CycleStatusClosed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cycle must be closed before reporting")
	}

	tripRows, err := s.trips.AllByCycle(ctx, cycleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cycle trips")
	}

	data := buildReportData(cycle, tripRows)

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render report")
	}

	return &Report{
		Filename: fmt.Sprintf("informe_%s.html", cycle.StartDate.Format("2006-01")),
		HTML:     buf.Bytes(),
	}, nil
}

func buildReportData(cycle *models.BillingCycle, trips []models.Trip) reportData {
	data := reportData{
		CycleName: cycle.Name,
		StartDate: cycle.StartDate.Format("02/01/2006"),
		TripCount: len(trips),
	}
	if cycle.EndDate != nil {
		data.EndDate = cycle.EndDate.Format("02/01/2006")
	}

	gross := decimal.Zero
	net := decimal.Zero
	for i, trip := range trips {
		effective := trip.EffectivePrice()
		gross = gross.Add(trip.Price)
		net = net.Add(effective)

		row := reportRow{
			Index:          i + 1,
			Date:           trip.Date.Format("02/01"),
			Route:          fmt.Sprintf("%s → %s", trip.Origin, trip.Destination),
			Client:         trip.ClientName,
			Price:          formatEuro(trip.Price),
			Discount:       "-",
			EffectivePrice: formatEuro(effective),
			Observations:   trip.Observations,
		}
		if trip.DiscountPercent.IsPositive() {
			row.Discount = fmt.Sprintf("-%s%%", trip.DiscountPercent.String())
		}
		data.Rows = append(data.Rows, row)
	}

	data.GrossTotal = formatEuro(gross)
	data.DiscountTotal = formatEuro(gross.Sub(net))
	data.NetTotal = formatEuro(net)
	return data
}

func formatEuro(amount decimal.Decimal) string {
	return amount.StringFixed(2) + " €"
}
