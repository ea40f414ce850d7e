package menu

import (
	"context"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested category or item does not exist.
	ErrNotFound = errors.New("menu entry not found")
	// ErrInvalidID is returned when an identifier is not well-formed for the
	// underlying store.
	ErrInvalidID = errors.New("invalid menu identifier")
)

// InvalidIDError names the malformed identifier. It matches ErrInvalidID
// under errors.Is.
type InvalidIDError struct {
	ID string
}

func (e *InvalidIDError) Error() string {
	return "invalid menu identifier " + strconv.Quote(e.ID)
}

func (e *InvalidIDError) Is(target error) bool {
	return target == ErrInvalidID
}

// Category groups menu items for display.
type Category struct {
	ID          string
	Name        string
	Description string
}

// Item is a purchasable menu entry. Price is always positive.
type Item struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	CategoryID  string
	Available   bool
	ImageURL    string
	Emoji       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ItemPatch describes a partial update of an Item. Nil fields are left
// unchanged.
type ItemPatch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	CategoryID  *string
	Available   *bool
	ImageURL    *string
	Emoji       *string
}

// Apply copies the non-nil fields of p onto it.
func (p ItemPatch) Apply(it *Item) {
	if p.Name != nil {
		it.Name = *p.Name
	}
	if p.Description != nil {
		it.Description = *p.Description
	}
	if p.Price != nil {
		it.Price = *p.Price
	}
	if p.CategoryID != nil {
		it.CategoryID = *p.CategoryID
	}
	if p.Available != nil {
		it.Available = *p.Available
	}
	if p.ImageURL != nil {
		it.ImageURL = *p.ImageURL
	}
	if p.Emoji != nil {
		it.Emoji = *p.Emoji
	}
}

// Catalog is the read-only view of the menu used when pricing orders.
//
// GetItemsByIDs returns the items that exist; ids with no match are simply
// absent from the result. A malformed id fails the whole call with an error
// wrapping ErrInvalidID.
type Catalog interface {
	GetItemsByIDs(ctx context.Context, ids []string) ([]Item, error)
}

// Repository defines persistence operations for categories and items.
type Repository interface {
	Catalog

	CreateCategory(ctx context.Context, c *Category) error
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id string) (*Category, error)
	UpdateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, id string) error

	CreateItem(ctx context.Context, it *Item) error
	// ListItems returns all items, or only those of categoryID when it is
	// not empty.
	ListItems(ctx context.Context, categoryID string) ([]Item, error)
	GetItem(ctx context.Context, id string) (*Item, error)
	UpdateItem(ctx context.Context, it *Item) error
	DeleteItem(ctx context.Context, id string) error
}
