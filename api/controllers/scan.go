package controllers

import (
	"encoding/base64"
	"net/http"

	"github.com/ruialonso/taxilog-backend/api/responses"
	"github.com/ruialonso/taxilog-backend/api/validators"
	"github.com/ruialonso/taxilog-backend/internal/extraction"
	pkgerrors "github.com/ruialonso/taxilog-backend/pkg/errors"
	"github.com/ruialonso/taxilog-backend/pkg/logger"
)

type scanRequest struct {
	Image string `json:"image" validate:"required"`
	// The extractor assumes jpeg when blank.
	MimeType string `json:"mime_type" validate:"omitempty"`
}

// TicketScan runs a ticket photo through the extractor and returns
// entry-form prefills. Prices are never extracted.
func TicketScan(svc extraction.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "extraction service unavailable"))
			return
		}

		var payload scanRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		image, err := base64.StdEncoding.DecodeString(payload.Image)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "image must be base64 encoded"))
			return
		}

		prefills, err := svc.Scan(r.Context(), image, payload.MimeType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, prefills)
	}
}
