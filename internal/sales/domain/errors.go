package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidTransition  = errors.New("invalid state transition")
	ErrNotMutable         = errors.New("transaction not mutable")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrInvalidDiscount    = errors.New("invalid discount")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)
