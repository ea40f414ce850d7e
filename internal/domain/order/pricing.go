package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/pos-restaurant/internal/domain/menu"
)

// Pricer resolves requested lines against the menu catalog and computes
// authoritative prices.
type Pricer struct {
	catalog menu.Catalog
}

// NewPricer creates a Pricer reading from catalog.
func NewPricer(catalog menu.Catalog) *Pricer {
	return &Pricer{catalog: catalog}
}

// Price validates reqs, looks every referenced item up in one batch, and
// returns the priced lines with their total. Any failing line rejects the
// whole request; the catalog is never modified.
func (p *Pricer) Price(ctx context.Context, reqs []LineRequest) ([]Line, decimal.Decimal, error) {
	if len(reqs) == 0 {
		return nil, decimal.Zero, ErrEmptyItems
	}

	ids := make([]string, 0, len(reqs))
	seen := make(map[string]struct{}, len(reqs))
	for i, r := range reqs {
		if r.Quantity <= 0 {
			return nil, decimal.Zero, &InvalidQuantityError{Line: i, MenuItemID: r.MenuItemID}
		}
		if _, ok := seen[r.MenuItemID]; ok {
			continue
		}
		seen[r.MenuItemID] = struct{}{}
		ids = append(ids, r.MenuItemID)
	}

	fetched, err := p.catalog.GetItemsByIDs(ctx, ids)
	if err != nil {
		if errors.Is(err, menu.ErrInvalidID) {
			return nil, decimal.Zero, invalidReference(reqs, err)
		}
		return nil, decimal.Zero, errors.Wrap(err, "get menu items")
	}

	byID := make(map[string]menu.Item, len(fetched))
	for _, it := range fetched {
		byID[it.ID] = it
	}

	lines := make([]Line, len(reqs))
	total := decimal.Zero
	for i, r := range reqs {
		it, ok := byID[r.MenuItemID]
		if !ok {
			return nil, decimal.Zero, &ItemNotFoundError{Line: i, MenuItemID: r.MenuItemID}
		}
		if !it.Available {
			return nil, decimal.Zero, &ItemUnavailableError{Line: i, MenuItemID: it.ID, Name: it.Name}
		}

		subtotal := it.Price.Mul(decimal.NewFromInt(int64(r.Quantity)))
		lines[i] = Line{
			MenuItemID:          it.ID,
			Quantity:            r.Quantity,
			SpecialInstructions: r.SpecialInstructions,
			PricePerItem:        it.Price,
			Subtotal:            subtotal,
		}
		total = total.Add(subtotal)
	}

	return lines, total, nil
}

// invalidReference attributes a catalog ErrInvalidID to the first line whose
// id the store rejected. Stores report the offending id through
// InvalidIDError when they can.
func invalidReference(reqs []LineRequest, err error) error {
	var idErr *menu.InvalidIDError
	if errors.As(err, &idErr) {
		for i, r := range reqs {
			if r.MenuItemID == idErr.ID {
				return &InvalidReferenceError{Line: i, MenuItemID: r.MenuItemID}
			}
		}
	}
	return &InvalidReferenceError{Line: 0, MenuItemID: reqs[0].MenuItemID}
}
