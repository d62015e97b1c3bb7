package store

import (
	"context"

	"github.com/julisunkan/ps/internal/models"
)

// Store is the tenant repository. Each tenant record is read and
// written as a whole; UpdateData serializes read-modify-write cycles
// per store so concurrent mutations of the same tenant cannot drop
// each other's changes.
type Store interface {
	CreateTenant(ctx context.Context, tenant models.Tenant) error
	GetTenant(ctx context.Context, tenantID string) (models.Tenant, error)
	FindByUsername(ctx context.Context, username string) (models.Tenant, error)
	GetData(ctx context.Context, tenantID string) (models.TenantData, error)
	SetData(ctx context.Context, tenantID string, data models.TenantData) error
	UpdateData(ctx context.Context, tenantID string, fn func(*models.TenantData) error) (models.TenantData, error)
	Ping(ctx context.Context) error
	Close()
}
