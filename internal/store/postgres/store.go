package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/julisunkan/ps/internal/models"
	"github.com/julisunkan/ps/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists each tenant as one row with the business data held
// in a JSONB document, so it can serve as a drop-in replacement for
// the flat-file backend behind the same repository interface.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS pos_tenants (
			tenant_id UUID PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			data JSONB NOT NULL
		)
	`)
	return err
}

func (s *Store) CreateTenant(ctx context.Context, tenant models.Tenant) error {
	doc, err := json.Marshal(tenant.Data)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO pos_tenants (tenant_id, username, password_hash, created_at, data)
		VALUES ($1, $2, $3, $4, $5)
	`, tenant.TenantID, tenant.Credentials.Username, tenant.Credentials.PasswordHash, tenant.Credentials.CreatedAt, doc)
	return err
}

func (s *Store) GetTenant(ctx context.Context, tenantID string) (models.Tenant, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT tenant_id, username, password_hash, created_at, data
		FROM pos_tenants
		WHERE tenant_id = $1
	`, tenantID)
	return scanTenant(row)
}

func (s *Store) FindByUsername(ctx context.Context, username string) (models.Tenant, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT tenant_id, username, password_hash, created_at, data
		FROM pos_tenants
		WHERE username = $1
	`, username)
	return scanTenant(row)
}

func (s *Store) GetData(ctx context.Context, tenantID string) (models.TenantData, error) {
	var doc []byte
	row := s.pool.QueryRow(ctx, `
		SELECT data
		FROM pos_tenants
		WHERE tenant_id = $1
	`, tenantID)
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.TenantData{}, store.ErrTenantNotFound
		}
		return models.TenantData{}, err
	}
	var data models.TenantData
	if err := json.Unmarshal(doc, &data); err != nil {
		return models.TenantData{}, err
	}
	return data, nil
}

func (s *Store) SetData(ctx context.Context, tenantID string, data models.TenantData) error {
	doc, err := json.Marshal(data)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE pos_tenants
		SET data = $2
		WHERE tenant_id = $1
	`, tenantID, doc)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrTenantNotFound
	}
	return nil
}

func (s *Store) UpdateData(ctx context.Context, tenantID string, fn func(*models.TenantData) error) (models.TenantData, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.TenantData{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var doc []byte
	row := tx.QueryRow(ctx, `
		SELECT data
		FROM pos_tenants
		WHERE tenant_id = $1
		FOR UPDATE
	`, tenantID)
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.TenantData{}, store.ErrTenantNotFound
		}
		return models.TenantData{}, err
	}

	var data models.TenantData
	if err := json.Unmarshal(doc, &data); err != nil {
		return models.TenantData{}, err
	}
	if err := fn(&data); err != nil {
		return models.TenantData{}, err
	}

	updated, err := json.Marshal(data)
	if err != nil {
		return models.TenantData{}, err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE pos_tenants
		SET data = $2
		WHERE tenant_id = $1
	`, tenantID, updated); err != nil {
		return models.TenantData{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return models.TenantData{}, err
	}
	return data, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() {
	s.pool.Close()
}

func scanTenant(row pgx.Row) (models.Tenant, error) {
	var tenant models.Tenant
	var doc []byte
	if err := row.Scan(&tenant.TenantID, &tenant.Credentials.Username, &tenant.Credentials.PasswordHash, &tenant.Credentials.CreatedAt, &doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Tenant{}, store.ErrTenantNotFound
		}
		return models.Tenant{}, err
	}
	if err := json.Unmarshal(doc, &tenant.Data); err != nil {
		return models.Tenant{}, err
	}
	return tenant, nil
}
