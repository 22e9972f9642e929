package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pkgerrors "github.com/ruialonso/taxilog-backend/pkg/errors"
)

type kvRepository interface {
	All(ctx context.Context) (map[string]string, error)
	BulkSet(ctx context.Context, pairs map[string]string) error
}

// Document is a full key/value snapshot plus the suggested filename. The
// payload is plain JSON and contains the activation code and device binding,
// so it must be handled as sensitive.
type Document struct {
	Filename string `json:"filename"`
	Payload  []byte `json:"payload"`
}

// snapshotVersion is bumped when the export envelope changes shape.
const snapshotVersion = 1

type snapshot struct {
	Version    int               `json:"version"`
	ExportedAt time.Time         `json:"exported_at"`
	Data       map[string]string `json:"data"`
}

// Service exports and restores whole-store snapshots.
type Service interface {
	Export(ctx context.Context) (*Document, error)
	Restore(ctx context.Context, payload []byte) (int, error)
}

type service struct {
	kv  kvRepository
	now func() time.Time
}

// NewService builds the backup service over the key/value store.
func NewService(kv kvRepository) (Service, error) {
	if kv == nil {
		return nil, fmt.Errorf("key/value repository required")
	}
	return &service{kv: kv, now: time.Now}, nil
}

// Export serializes every stored pair into one JSON document named after the
// current date.
func (s *service) Export(ctx context.Context) (*Document, error) {
	pairs, err := s.kv.All(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read store")
	}

	payload, err := json.MarshalIndent(snapshot{
		Version:    snapshotVersion,
		ExportedAt: s.now().UTC(),
		Data:       pairs,
	}, "", "  ")
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "serialize snapshot")
	}

	return &Document{
		Filename: fmt.Sprintf("backup_taxi_%s.json", s.now().Format("2006-01-02")),
		Payload:  payload,
	}, nil
}

// Restore parses the snapshot and overwrites the whole store with it. Parsing
// happens in full before any write; a malformed document never touches
// storage. Both the versioned envelope and the legacy flat map are accepted.
// Returns the number of restored keys.
func (s *service) Restore(ctx context.Context, payload []byte) (int, error) {
	if len(payload) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "backup document is empty")
	}

	pairs, err := parseSnapshot(payload)
	if err != nil {
		return 0, err
	}

	if err := s.kv.BulkSet(ctx, pairs); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "overwrite store")
	}
	return len(pairs), nil
}

func parseSnapshot(payload []byte) (map[string]string, error) {
	var envelope snapshot
	if err := json.Unmarshal(payload, &envelope); err == nil && envelope.Version > 0 {
		if envelope.Version > snapshotVersion {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported backup version")
		}
		if envelope.Data == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "malformed backup document")
		}
		return envelope.Data, nil
	}

	// Legacy documents are the bare flat map.
	var pairs map[string]string
	if err := json.Unmarshal(payload, &pairs); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed backup document")
	}
	return pairs, nil
}
