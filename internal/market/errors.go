package market

import "errors"

var (
	// ErrNotFound is returned when a listing or wanted ad does not exist,
	// or is blocked and hidden from the requesting viewer.
	ErrNotFound = errors.New("item not found")

	// ErrForbidden is returned when the actor is neither the owner nor an
	// administrator.
	ErrForbidden = errors.New("not the owner of this item")

	// ErrNotVisible is returned when a sale-status transition is attempted
	// on a listing that is not publicly visible.
	ErrNotVisible = errors.New("item is not publicly visible")
)
