package controllers

import (
	"fmt"
	"net/http"

	"github.com/ruialonso/taxilog-backend/api/responses"
	"github.com/ruialonso/taxilog-backend/internal/reports"
	pkgerrors "github.com/ruialonso/taxilog-backend/pkg/errors"
	"github.com/ruialonso/taxilog-backend/pkg/logger"
)

// CycleReport renders the closed cycle's HTML report as a download.
func CycleReport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}

		cycleID, err := parseCycleID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.Render(r.Context(), cycleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(report.HTML)
	}
}
