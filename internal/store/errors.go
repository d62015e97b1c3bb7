package store

import "errors"

var ErrTenantNotFound = errors.New("tenant not found")
