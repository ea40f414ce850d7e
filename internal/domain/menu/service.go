package menu

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrInvalidPrice is returned when an item price is zero or negative.
var ErrInvalidPrice = errors.New("price must be greater than 0")

// Service implements the write side of the menu on top of a Repository.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a menu Service backed by repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// CreateItem validates and persists a new item, stamping its timestamps.
func (s *Service) CreateItem(ctx context.Context, it *Item) error {
	if !it.Price.IsPositive() {
		return ErrInvalidPrice
	}
	now := s.now().UTC()
	it.CreatedAt = now
	it.UpdatedAt = now
	if err := s.repo.CreateItem(ctx, it); err != nil {
		return errors.Wrap(err, "create item")
	}
	return nil
}

// UpdateItem applies patch to the stored item and persists the result.
func (s *Service) UpdateItem(ctx context.Context, id string, patch ItemPatch) (*Item, error) {
	if patch.Price != nil && !patch.Price.IsPositive() {
		return nil, ErrInvalidPrice
	}
	it, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(it)
	it.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdateItem(ctx, it); err != nil {
		return nil, errors.Wrap(err, "update item")
	}
	return it, nil
}
