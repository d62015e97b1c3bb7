package pos

import (
	"context"
	"time"

	"github.com/julisunkan/ps/internal/models"
	"github.com/julisunkan/ps/internal/store"

	"github.com/google/uuid"
)

// Service implements the per-tenant business operations on top of the
// tenant repository. Every mutation runs through store.UpdateData so
// the read-modify-write is applied and persisted as one unit.
type Service struct {
	store store.Store
	now   func() time.Time
}

func NewService(st store.Store) *Service {
	return &Service{store: st, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) Data(ctx context.Context, tenantID string) (models.TenantData, error) {
	return s.store.GetData(ctx, tenantID)
}

func (s *Service) Settings(ctx context.Context, tenantID string) (models.Settings, error) {
	data, err := s.store.GetData(ctx, tenantID)
	if err != nil {
		return models.Settings{}, err
	}
	return data.Settings, nil
}

// UpdateSettings merges the supplied fields into the existing
// settings; unset fields are left untouched.
func (s *Service) UpdateSettings(ctx context.Context, tenantID string, update models.SettingsUpdate) (models.Settings, error) {
	data, err := s.store.UpdateData(ctx, tenantID, func(data *models.TenantData) error {
		if update.BusinessName != nil {
			data.Settings.BusinessName = *update.BusinessName
		}
		if update.Currency != nil {
			data.Settings.Currency = *update.Currency
		}
		if update.VATRate != nil {
			data.Settings.VATRate = *update.VATRate
		}
		if update.Logo != nil {
			data.Settings.Logo = *update.Logo
		}
		if update.UserRole != nil {
			data.Settings.UserRole = *update.UserRole
		}
		return nil
	})
	if err != nil {
		return models.Settings{}, err
	}
	return data.Settings, nil
}

func (s *Service) ListProducts(ctx context.Context, tenantID string) ([]models.Product, error) {
	data, err := s.store.GetData(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return data.Products, nil
}

func (s *Service) CreateProduct(ctx context.Context, tenantID string, product models.Product) (models.Product, error) {
	product.ProductID = uuid.NewString()
	product.CreatedAt = s.now()
	_, err := s.store.UpdateData(ctx, tenantID, func(data *models.TenantData) error {
		data.Products = append(data.Products, product)
		return nil
	})
	if err != nil {
		return models.Product{}, err
	}
	return product, nil
}

func (s *Service) UpdateProduct(ctx context.Context, tenantID, productID string, update models.ProductUpdate) (models.Product, error) {
	var updated models.Product
	_, err := s.store.UpdateData(ctx, tenantID, func(data *models.TenantData) error {
		for i := range data.Products {
			if data.Products[i].ProductID != productID {
				continue
			}
			p := &data.Products[i]
			if update.Name != nil {
				p.Name = *update.Name
			}
			if update.Category != nil {
				p.Category = *update.Category
			}
			if update.Barcode != nil {
				p.Barcode = *update.Barcode
			}
			if update.CostPrice != nil {
				p.CostPrice = *update.CostPrice
			}
			if update.SalePrice != nil {
				p.SalePrice = *update.SalePrice
			}
			if update.Quantity != nil {
				p.Quantity = *update.Quantity
			}
			updated = *p
			return nil
		}
		return ErrProductNotFound
	})
	if err != nil {
		return models.Product{}, err
	}
	return updated, nil
}

// DeleteProduct removes the matching product; deleting an unknown id
// is a no-op success.
func (s *Service) DeleteProduct(ctx context.Context, tenantID, productID string) error {
	_, err := s.store.UpdateData(ctx, tenantID, func(data *models.TenantData) error {
		kept := data.Products[:0]
		for _, p := range data.Products {
			if p.ProductID != productID {
				kept = append(kept, p)
			}
		}
		data.Products = kept
		return nil
	})
	return err
}

func (s *Service) ListSales(ctx context.Context, tenantID string) ([]models.Sale, error) {
	data, err := s.store.GetData(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return data.Sales, nil
}

// RecordSale validates every line item before touching stock: the
// product must exist and its quantity must cover the requested
// amount. Either the whole sale applies, with all decrements, or
// nothing does.
func (s *Service) RecordSale(ctx context.Context, tenantID string, sale models.Sale) (models.Sale, error) {
	if len(sale.Items) == 0 {
		return models.Sale{}, ErrInvalidSale
	}
	for _, item := range sale.Items {
		if item.ProductID == "" || item.Quantity <= 0 {
			return models.Sale{}, ErrInvalidSale
		}
	}
	sale.SaleID = uuid.NewString()
	sale.CreatedAt = s.now()
	if sale.PaymentMethod == "" {
		sale.PaymentMethod = "cash"
	}

	_, err := s.store.UpdateData(ctx, tenantID, func(data *models.TenantData) error {
		index := make(map[string]int, len(data.Products))
		for i, p := range data.Products {
			index[p.ProductID] = i
		}
		for _, item := range sale.Items {
			i, ok := index[item.ProductID]
			if !ok {
				return ErrProductNotFound
			}
			if data.Products[i].Quantity < item.Quantity {
				return ErrInsufficientStock
			}
		}
		for _, item := range sale.Items {
			data.Products[index[item.ProductID]].Quantity -= item.Quantity
		}
		data.Sales = append(data.Sales, sale)
		return nil
	})
	if err != nil {
		return models.Sale{}, err
	}
	return sale, nil
}

func (s *Service) ListCustomers(ctx context.Context, tenantID string) ([]models.Customer, error) {
	data, err := s.store.GetData(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return data.Customers, nil
}

func (s *Service) CreateCustomer(ctx context.Context, tenantID string, customer models.Customer) (models.Customer, error) {
	customer.CustomerID = uuid.NewString()
	customer.CreatedAt = s.now()
	_, err := s.store.UpdateData(ctx, tenantID, func(data *models.TenantData) error {
		data.Customers = append(data.Customers, customer)
		return nil
	})
	if err != nil {
		return models.Customer{}, err
	}
	return customer, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, tenantID, customerID string, update models.CustomerUpdate) (models.Customer, error) {
	var updated models.Customer
	_, err := s.store.UpdateData(ctx, tenantID, func(data *models.TenantData) error {
		for i := range data.Customers {
			if data.Customers[i].CustomerID != customerID {
				continue
			}
			c := &data.Customers[i]
			if update.Name != nil {
				c.Name = *update.Name
			}
			if update.Phone != nil {
				c.Phone = *update.Phone
			}
			if update.Balance != nil {
				c.Balance = *update.Balance
			}
			updated = *c
			return nil
		}
		return ErrCustomerNotFound
	})
	if err != nil {
		return models.Customer{}, err
	}
	return updated, nil
}

func (s *Service) DeleteCustomer(ctx context.Context, tenantID, customerID string) error {
	_, err := s.store.UpdateData(ctx, tenantID, func(data *models.TenantData) error {
		kept := data.Customers[:0]
		for _, c := range data.Customers {
			if c.CustomerID != customerID {
				kept = append(kept, c)
			}
		}
		data.Customers = kept
		return nil
	})
	return err
}

func (s *Service) ListExpenses(ctx context.Context, tenantID string) ([]models.Expense, error) {
	data, err := s.store.GetData(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return data.Expenses, nil
}

func (s *Service) CreateExpense(ctx context.Context, tenantID string, expense models.Expense) (models.Expense, error) {
	expense.ExpenseID = uuid.NewString()
	expense.CreatedAt = s.now()
	_, err := s.store.UpdateData(ctx, tenantID, func(data *models.TenantData) error {
		data.Expenses = append(data.Expenses, expense)
		return nil
	})
	if err != nil {
		return models.Expense{}, err
	}
	return expense, nil
}

func (s *Service) UpdateExpense(ctx context.Context, tenantID, expenseID string, update models.ExpenseUpdate) (models.Expense, error) {
	var updated models.Expense
	_, err := s.store.UpdateData(ctx, tenantID, func(data *models.TenantData) error {
		for i := range data.Expenses {
			if data.Expenses[i].ExpenseID != expenseID {
				continue
			}
			e := &data.Expenses[i]
			if update.Description != nil {
				e.Description = *update.Description
			}
			if update.Category != nil {
				e.Category = *update.Category
			}
			if update.Amount != nil {
				e.Amount = *update.Amount
			}
			updated = *e
			return nil
		}
		return ErrExpenseNotFound
	})
	if err != nil {
		return models.Expense{}, err
	}
	return updated, nil
}

func (s *Service) DeleteExpense(ctx context.Context, tenantID, expenseID string) error {
	_, err := s.store.UpdateData(ctx, tenantID, func(data *models.TenantData) error {
		kept := data.Expenses[:0]
		for _, e := range data.Expenses {
			if e.ExpenseID != expenseID {
				kept = append(kept, e)
			}
		}
		data.Expenses = kept
		return nil
	})
	return err
}
