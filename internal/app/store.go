package app

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/pos-restaurant/internal/domain/menu"
	"github.com/xenking/pos-restaurant/internal/domain/order"
	"github.com/xenking/pos-restaurant/internal/domain/user"
	"github.com/xenking/pos-restaurant/internal/storage/mongo"
	"github.com/xenking/pos-restaurant/internal/storage/postgres"
)

// Store is the driver-independent view of an opened storage backend.
type Store struct {
	Driver string
	Orders order.Repository
	Menu   menu.Repository
	Users  user.Repository

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

// OpenStore connects to the backend selected by cfg.Driver and prepares its
// schema or indexes.
func OpenStore(ctx context.Context, cfg StorageConfig) (*Store, error) {
	switch cfg.Driver {
	case DriverMongo:
		s, err := mongo.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, errors.Wrap(err, "open mongo store")
		}
		return &Store{
			Driver: DriverMongo,
			Orders: s.Orders,
			Menu:   s.Menu,
			Users:  s.Users,
			ping:   s.Ping,
			close:  s.Close,
		}, nil
	case DriverPostgres:
		s, err := postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, errors.Wrap(err, "open postgres store")
		}
		return &Store{
			Driver: DriverPostgres,
			Orders: s.Orders,
			Menu:   s.Menu,
			Users:  s.Users,
			ping:   s.Ping,
			close:  s.Close,
		}, nil
	default:
		return nil, errors.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Ping checks that the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Close releases the backend connections.
func (s *Store) Close(ctx context.Context) error {
	return s.close(ctx)
}
