package controllers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/ruialonso/taxilog-backend/api/responses"
	"github.com/ruialonso/taxilog-backend/internal/backup"
	pkgerrors "github.com/ruialonso/taxilog-backend/pkg/errors"
	"github.com/ruialonso/taxilog-backend/pkg/logger"
)

const maxBackupBytes = 4 << 20

// BackupExport serves the whole store as a downloadable JSON document.
func BackupExport(svc backup.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "backup service unavailable"))
			return
		}

		doc, err := svc.Export(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(doc.Payload)
	}
}

// BackupRestore parses an uploaded backup document and overwrites every key
// it contains. The raw body is the document itself, not a request envelope.
func BackupRestore(svc backup.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "backup service unavailable"))
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxBackupBytes))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read backup document"))
			return
		}

		restored, err := svc.Restore(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"restored_keys": restored})
	}
}
