package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/julisunkan/ps/internal/models"
	"github.com/julisunkan/ps/internal/store"
)

func testTenant(id, username string) models.Tenant {
	return models.Tenant{
		TenantID: id,
		Credentials: models.Credentials{
			Username:     username,
			PasswordHash: "$2a$10$hash",
			CreatedAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		Data: models.TenantData{
			Settings: models.Settings{BusinessName: "My Business", Currency: "USD", UserRole: "owner"},
			Products: []models.Product{
				{ProductID: "p1", Name: "Laptop", Quantity: 15},
			},
		},
	}
}

func TestMissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pos_data.json")
	s := NewStore(path)
	if _, err := s.GetTenant(context.Background(), "nope"); !errors.Is(err, store.ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}
}

func TestCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pos_data.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := NewStore(path)
	if _, err := s.FindByUsername(context.Background(), "anyone"); !errors.Is(err, store.ErrTenantNotFound) {
		t.Fatalf("expected empty store, got %v", err)
	}
}

func TestPersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pos_data.json")
	s := NewStore(path)
	if err := s.CreateTenant(context.Background(), testTenant("t1", "pos_abc12345")); err != nil {
		t.Fatalf("create: %v", err)
	}

	reloaded := NewStore(path)
	tenant, err := reloaded.GetTenant(context.Background(), "t1")
	if err != nil {
		t.Fatalf("get after reload: %v", err)
	}
	if tenant.Credentials.Username != "pos_abc12345" {
		t.Fatalf("unexpected username %q", tenant.Credentials.Username)
	}
	if len(tenant.Data.Products) != 1 || tenant.Data.Products[0].Quantity != 15 {
		t.Fatalf("product data lost on reload: %+v", tenant.Data.Products)
	}
}

func TestSavedFileIsIndentedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pos_data.json")
	s := NewStore(path)
	if err := s.CreateTenant(context.Background(), testTenant("t1", "pos_abc12345")); err != nil {
		t.Fatalf("create: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("saved file is not valid JSON: %v", err)
	}
	if string(raw[:2]) != "{\n" {
		t.Fatalf("expected indented output")
	}
}

func TestSetDataUnknownTenant(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "pos_data.json"))
	err := s.SetData(context.Background(), "missing", models.TenantData{})
	if !errors.Is(err, store.ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}
}

func TestUpdateDataRejectionLeavesStateUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pos_data.json")
	s := NewStore(path)
	if err := s.CreateTenant(context.Background(), testTenant("t1", "pos_abc12345")); err != nil {
		t.Fatalf("create: %v", err)
	}

	boom := errors.New("boom")
	_, err := s.UpdateData(context.Background(), "t1", func(data *models.TenantData) error {
		data.Products[0].Quantity = 0
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}

	data, err := s.GetData(context.Background(), "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if data.Products[0].Quantity != 15 {
		t.Fatalf("rejected update leaked into store: %+v", data.Products[0])
	}
}

func TestUpdateDataPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pos_data.json")
	s := NewStore(path)
	if err := s.CreateTenant(context.Background(), testTenant("t1", "pos_abc12345")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.UpdateData(context.Background(), "t1", func(data *models.TenantData) error {
		data.Products[0].Quantity -= 3
		return nil
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	reloaded := NewStore(path)
	data, err := reloaded.GetData(context.Background(), "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if data.Products[0].Quantity != 12 {
		t.Fatalf("expected quantity 12 after reload, got %d", data.Products[0].Quantity)
	}
}

func TestEmptyCollectionsStayEmptyNotNil(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pos_data.json")
	s := NewStore(path)
	tenant := testTenant("t1", "pos_abc12345")
	tenant.Data.Sales = []models.Sale{}
	tenant.Data.Expenses = []models.Expense{}
	if err := s.CreateTenant(context.Background(), tenant); err != nil {
		t.Fatalf("create: %v", err)
	}

	data, err := s.GetData(context.Background(), "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if data.Sales == nil || data.Expenses == nil {
		t.Fatalf("empty collections turned nil: sales=%v expenses=%v", data.Sales, data.Expenses)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var saved map[string]struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &saved); err != nil {
		t.Fatalf("decode saved file: %v", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(saved["t1"].Data, &fields); err != nil {
		t.Fatalf("decode tenant data: %v", err)
	}
	if string(fields["sales"]) == "null" {
		t.Fatalf("sales persisted as null, want []")
	}

	reloaded := NewStore(path)
	data, err = reloaded.GetData(context.Background(), "t1")
	if err != nil {
		t.Fatalf("get after reload: %v", err)
	}
	if data.Sales == nil {
		t.Fatalf("sales turned nil after reload")
	}
}

func TestSaveFailureRollsBackMemory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, "pos_data.json")
	s := NewStore(path)
	if err := s.CreateTenant(context.Background(), testTenant("t1", "pos_abc12345")); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Removing the directory makes the next save fail at the temp
	// file stage.
	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("remove: %v", err)
	}

	_, err := s.UpdateData(context.Background(), "t1", func(data *models.TenantData) error {
		data.Products[0].Quantity -= 5
		return nil
	})
	if err == nil {
		t.Fatalf("expected save failure")
	}

	data, err := s.GetData(context.Background(), "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if data.Products[0].Quantity != 15 {
		t.Fatalf("failed save left quantity %d in memory, want 15", data.Products[0].Quantity)
	}
}
