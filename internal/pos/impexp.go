package pos

import (
	"context"
	"time"

	"github.com/julisunkan/ps/internal/models"
)

type ExportPayload struct {
	ExportedAt time.Time          `json:"exported_at"`
	Username   string             `json:"username"`
	Data       *models.TenantData `json:"data"`
}

// Export re-authenticates the caller even when a session exists and
// returns the tenant's full data blob.
func (s *Service) Export(ctx context.Context, username, password string) (ExportPayload, error) {
	tenantID, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return ExportPayload{}, err
	}
	data, err := s.store.GetData(ctx, tenantID)
	if err != nil {
		return ExportPayload{}, err
	}
	return ExportPayload{ExportedAt: s.now(), Username: username, Data: &data}, nil
}

// Import re-authenticates and replaces the tenant's data wholesale
// with the payload's data section. A payload without one is rejected.
func (s *Service) Import(ctx context.Context, username, password string, payload ExportPayload) error {
	tenantID, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return err
	}
	if payload.Data == nil {
		return ErrInvalidImport
	}
	return s.store.SetData(ctx, tenantID, *payload.Data)
}
