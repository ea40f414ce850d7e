package order

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for order operations.
var (
	ErrEmptyItems = errors.New("items required")
	ErrNotFound   = errors.New("order not found")
	ErrInvalidID  = errors.New("invalid order ID")
	// ErrConflict is returned when the order changed between read and write.
	ErrConflict = errors.New("order was modified concurrently")
	// ErrInvalidPayment is returned for a payment with an unknown method or
	// a non-positive amount.
	ErrInvalidPayment = errors.New("invalid payment")
)

// InvalidQuantityError indicates a line has a non-positive quantity.
type InvalidQuantityError struct {
	Line       int
	MenuItemID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("item %d (%s): quantity must be greater than 0", e.Line, e.MenuItemID)
}

// InvalidReferenceError indicates a line references a malformed menu item id.
type InvalidReferenceError struct {
	Line       int
	MenuItemID string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("item %d: invalid menu item ID %q", e.Line, e.MenuItemID)
}

// ItemNotFoundError indicates a line references a menu item that does not exist.
type ItemNotFoundError struct {
	Line       int
	MenuItemID string
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("item %d: menu item %s not found", e.Line, e.MenuItemID)
}

// ItemUnavailableError indicates a line references an item marked unavailable.
type ItemUnavailableError struct {
	Line       int
	MenuItemID string
	Name       string
}

func (e *ItemUnavailableError) Error() string {
	return fmt.Sprintf("item %d: menu item %s is not available", e.Line, e.Name)
}

// InsufficientPaymentError indicates a payment below the order total.
type InsufficientPaymentError struct {
	Amount decimal.Decimal
	Total  decimal.Decimal
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf("payment amount (%s) is less than order total (%s)",
		e.Amount.StringFixed(2), e.Total.StringFixed(2))
}

// InvalidTransitionError indicates a status change the state machine forbids.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot change order status from %s to %s", e.From, e.To)
}
