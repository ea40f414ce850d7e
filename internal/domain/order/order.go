package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod enumerates the accepted ways of settling an order.
type PaymentMethod string

const (
	PaymentCash    PaymentMethod = "cash"
	PaymentCard    PaymentMethod = "card"
	PaymentDigital PaymentMethod = "digital"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentDigital:
		return true
	}
	return false
}

// LineRequest is one requested cart entry before pricing.
type LineRequest struct {
	MenuItemID          string
	Quantity            int
	SpecialInstructions string
}

// Line is a priced order line. PricePerItem and Subtotal are captured when
// the line is priced and never follow later catalog changes.
type Line struct {
	MenuItemID          string          `json:"menu_item_id"`
	Quantity            int             `json:"quantity"`
	SpecialInstructions string          `json:"special_instructions,omitempty"`
	PricePerItem        decimal.Decimal `json:"price_per_item"`
	Subtotal            decimal.Decimal `json:"subtotal"`
}

// Payment records that an order was settled. It is attached at most once.
type Payment struct {
	Method PaymentMethod   `json:"method"`
	Amount decimal.Decimal `json:"amount"`
	PaidAt time.Time       `json:"paid_at"`
}

// Order is a priced customer order.
//
// TotalAmount always equals the sum of line subtotals. Revision is bumped on
// every write and is used by Repository.Replace for compare-and-swap.
type Order struct {
	ID           string
	Items        []Line
	Status       Status
	TableNumber  *int
	CustomerName string
	Notes        string
	TotalAmount  decimal.Decimal
	Payment      *Payment
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Revision     int64
}

// Clone returns a deep copy of o.
func (o *Order) Clone() *Order {
	cp := *o
	cp.Items = append([]Line(nil), o.Items...)
	if o.TableNumber != nil {
		n := *o.TableNumber
		cp.TableNumber = &n
	}
	if o.Payment != nil {
		p := *o.Payment
		cp.Payment = &p
	}
	return &cp
}

// Filter narrows List results. A zero Filter matches every order.
type Filter struct {
	Status Status
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create stores o, assigning its ID. o.Revision is set to 1.
	Create(ctx context.Context, o *Order) error
	// Get returns the order with id, ErrNotFound, or ErrInvalidID.
	Get(ctx context.Context, id string) (*Order, error)
	// List returns orders matching f ordered by creation time, newest first.
	List(ctx context.Context, f Filter) ([]Order, error)
	// Replace overwrites the stored order with o only if the stored revision
	// still equals o.Revision, then stores o.Revision+1 and updates o.
	// Returns ErrConflict if the revision moved and ErrNotFound if the order
	// no longer exists.
	Replace(ctx context.Context, o *Order) error
}
