package repository

import "errors"

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrZoneNotFound         = errors.New("delivery zone not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrDuplicateOrderNumber = errors.New("order number already exists")
	ErrDuplicateOrderID     = errors.New("order id already exists")
)
