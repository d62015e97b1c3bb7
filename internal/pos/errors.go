package pos

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrProductNotFound    = errors.New("product not found")
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrExpenseNotFound    = errors.New("expense not found")
	ErrInvalidSale        = errors.New("invalid sale")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidImport      = errors.New("invalid import payload")
)
