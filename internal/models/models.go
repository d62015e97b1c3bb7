package models

import "time"

type Tenant struct {
	TenantID    string      `json:"tenant_id"`
	Credentials Credentials `json:"credentials"`
	Data        TenantData  `json:"data"`
}

type Credentials struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

type TenantData struct {
	Settings  Settings   `json:"settings"`
	Products  []Product  `json:"products"`
	Sales     []Sale     `json:"sales"`
	Customers []Customer `json:"customers"`
	Expenses  []Expense  `json:"expenses"`
	Users     []UserRef  `json:"users"`
}

type Settings struct {
	BusinessName string  `json:"business_name"`
	Currency     string  `json:"currency"`
	VATRate      float64 `json:"vat_rate"`
	Logo         string  `json:"logo"`
	UserRole     string  `json:"user_role"`
}

type Product struct {
	ProductID string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Barcode   string    `json:"barcode"`
	CostPrice float64   `json:"cost_price"`
	SalePrice float64   `json:"sale_price"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

type SaleItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name,omitempty"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price,omitempty"`
}

type Sale struct {
	SaleID        string     `json:"id"`
	Items         []SaleItem `json:"items"`
	Total         float64    `json:"total"`
	PaymentMethod string     `json:"payment_method"`
	CustomerID    string     `json:"customer_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type Customer struct {
	CustomerID string    `json:"id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Balance    float64   `json:"balance"`
	CreatedAt  time.Time `json:"created_at"`
}

type Expense struct {
	ExpenseID   string    `json:"id"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	CreatedAt   time.Time `json:"created_at"`
}

type UserRef struct {
	UserID    string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Update payloads carry only the fields the caller wants changed; nil
// means "leave as is".

type ProductUpdate struct {
	Name      *string  `json:"name"`
	Category  *string  `json:"category"`
	Barcode   *string  `json:"barcode"`
	CostPrice *float64 `json:"cost_price"`
	SalePrice *float64 `json:"sale_price"`
	Quantity  *int     `json:"quantity"`
}

type CustomerUpdate struct {
	Name    *string  `json:"name"`
	Phone   *string  `json:"phone"`
	Balance *float64 `json:"balance"`
}

type ExpenseUpdate struct {
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Amount      *float64 `json:"amount"`
}

type SettingsUpdate struct {
	BusinessName *string  `json:"business_name"`
	Currency     *string  `json:"currency"`
	VATRate      *float64 `json:"vat_rate"`
	Logo         *string  `json:"logo"`
	UserRole     *string  `json:"user_role"`
}
