package pos

import (
	"context"
	"strings"
	"time"

	"github.com/julisunkan/ps/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type ProvisionResult struct {
	TenantID string
	Username string
	Password string
}

// Provision creates a fresh tenant with generated credentials and a
// starter data set. The plaintext password is returned exactly once;
// only its bcrypt hash is stored.
func (s *Service) Provision(ctx context.Context) (ProvisionResult, error) {
	tenantID := uuid.NewString()
	username := "pos_" + randomHex(8)
	password := randomHex(12)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return ProvisionResult{}, err
	}

	now := s.now()
	tenant := models.Tenant{
		TenantID: tenantID,
		Credentials: models.Credentials{
			Username:     username,
			PasswordHash: string(hash),
			CreatedAt:    now,
		},
		Data: starterData(username, now),
	}
	if err := s.store.CreateTenant(ctx, tenant); err != nil {
		return ProvisionResult{}, err
	}
	return ProvisionResult{TenantID: tenantID, Username: username, Password: password}, nil
}

// Authenticate resolves credentials to a tenant id. Unknown username
// and wrong password both return ErrInvalidCredentials so callers
// cannot enumerate accounts.
func (s *Service) Authenticate(ctx context.Context, username, password string) (string, error) {
	tenant, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(tenant.Credentials.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return tenant.TenantID, nil
}

func randomHex(n int) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return hex[:n]
}

func starterData(username string, now time.Time) models.TenantData {
	return models.TenantData{
		Settings: models.Settings{
			BusinessName: "My Business",
			Currency:     "USD",
			VATRate:      0,
			UserRole:     "owner",
		},
		Products: []models.Product{
			{ProductID: uuid.NewString(), Name: "Laptop", Category: "Electronics", Barcode: "123456789", CostPrice: 800, SalePrice: 1200, Quantity: 15, CreatedAt: now},
			{ProductID: uuid.NewString(), Name: "Mouse", Category: "Electronics", Barcode: "987654321", CostPrice: 10, SalePrice: 25, Quantity: 50, CreatedAt: now},
			{ProductID: uuid.NewString(), Name: "Keyboard", Category: "Electronics", Barcode: "456789123", CostPrice: 30, SalePrice: 60, Quantity: 30, CreatedAt: now},
			{ProductID: uuid.NewString(), Name: "Coffee Mug", Category: "Accessories", Barcode: "321654987", CostPrice: 3, SalePrice: 10, Quantity: 100, CreatedAt: now},
			{ProductID: uuid.NewString(), Name: "Notebook", Category: "Stationery", Barcode: "789123456", CostPrice: 2, SalePrice: 5, Quantity: 200, CreatedAt: now},
		},
		Sales: []models.Sale{},
		Customers: []models.Customer{
			{CustomerID: uuid.NewString(), Name: "John Doe", Phone: "+1234567890", Balance: 0, CreatedAt: now},
			{CustomerID: uuid.NewString(), Name: "Jane Smith", Phone: "+1987654321", Balance: 50, CreatedAt: now},
		},
		Expenses: []models.Expense{},
		Users: []models.UserRef{
			{UserID: "1", Username: username, Role: "owner", CreatedAt: now},
		},
	}
}
