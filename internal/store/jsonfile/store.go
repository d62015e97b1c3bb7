package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/julisunkan/ps/internal/models"
	"github.com/julisunkan/ps/internal/store"
)

// Store keeps every tenant record in memory and rewrites the whole
// backing file after each mutation. One mutex serializes all access,
// so a read-modify-write through UpdateData can never lose a
// concurrent writer's changes.
type Store struct {
	mu      sync.Mutex
	path    string
	tenants map[string]record
}

type record struct {
	Credentials models.Credentials `json:"credentials"`
	Data        models.TenantData  `json:"data"`
}

func NewStore(path string) *Store {
	s := &Store{path: path, tenants: make(map[string]record)}
	s.load()
	return s
}

func (s *Store) load() {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("store load error path=%s err=%v, starting empty", s.path, err)
		}
		return
	}
	tenants := make(map[string]record)
	if err := json.Unmarshal(raw, &tenants); err != nil {
		log.Printf("store decode error path=%s err=%v, starting empty", s.path, err)
		return
	}
	s.tenants = tenants
	log.Printf("store loaded path=%s tenants=%d", s.path, len(tenants))
}

// save rewrites the full store. Callers hold s.mu.
func (s *Store) save() error {
	raw, err := json.MarshalIndent(s.tenants, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".pos_data-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *Store) CreateTenant(ctx context.Context, tenant models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, existed := s.tenants[tenant.TenantID]
	s.tenants[tenant.TenantID] = record{Credentials: tenant.Credentials, Data: tenant.Data}
	if err := s.save(); err != nil {
		s.restore(tenant.TenantID, prev, existed)
		return err
	}
	return nil
}

func (s *Store) GetTenant(ctx context.Context, tenantID string) (models.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tenants[tenantID]
	if !ok {
		return models.Tenant{}, store.ErrTenantNotFound
	}
	return models.Tenant{TenantID: tenantID, Credentials: rec.Credentials, Data: cloneData(rec.Data)}, nil
}

func (s *Store) FindByUsername(ctx context.Context, username string) (models.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tenantID, rec := range s.tenants {
		if rec.Credentials.Username == username {
			return models.Tenant{TenantID: tenantID, Credentials: rec.Credentials, Data: cloneData(rec.Data)}, nil
		}
	}
	return models.Tenant{}, store.ErrTenantNotFound
}

func (s *Store) GetData(ctx context.Context, tenantID string) (models.TenantData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tenants[tenantID]
	if !ok {
		return models.TenantData{}, store.ErrTenantNotFound
	}
	return cloneData(rec.Data), nil
}

func (s *Store) SetData(ctx context.Context, tenantID string, data models.TenantData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tenants[tenantID]
	if !ok {
		return store.ErrTenantNotFound
	}
	prev := rec
	rec.Data = cloneData(data)
	s.tenants[tenantID] = rec
	if err := s.save(); err != nil {
		s.tenants[tenantID] = prev
		return err
	}
	return nil
}

func (s *Store) UpdateData(ctx context.Context, tenantID string, fn func(*models.TenantData) error) (models.TenantData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tenants[tenantID]
	if !ok {
		return models.TenantData{}, store.ErrTenantNotFound
	}
	data := cloneData(rec.Data)
	if err := fn(&data); err != nil {
		return models.TenantData{}, err
	}
	// Commit to memory only once the file write lands, so a failed
	// save leaves the store agreeing with disk.
	prev := rec
	rec.Data = data
	s.tenants[tenantID] = rec
	if err := s.save(); err != nil {
		s.tenants[tenantID] = prev
		return models.TenantData{}, err
	}
	return cloneData(data), nil
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() {}

func (s *Store) restore(tenantID string, prev record, existed bool) {
	if existed {
		s.tenants[tenantID] = prev
		return
	}
	delete(s.tenants, tenantID)
}

// cloneData copies the collection slices so a caller cannot mutate
// store state behind the lock's back. Empty slices stay empty rather
// than turning nil, keeping them as [] on the wire and on disk.
func cloneData(data models.TenantData) models.TenantData {
	out := data
	out.Products = cloneSlice(data.Products)
	out.Sales = cloneSlice(data.Sales)
	out.Customers = cloneSlice(data.Customers)
	out.Expenses = cloneSlice(data.Expenses)
	out.Users = cloneSlice(data.Users)
	return out
}

func cloneSlice[E any](in []E) []E {
	if in == nil {
		return nil
	}
	out := make([]E, len(in))
	copy(out, in)
	return out
}
