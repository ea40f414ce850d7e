//go:build integration

package postgres

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/pos-restaurant/internal/domain/menu"
	"github.com/xenking/pos-restaurant/internal/domain/order"
	"github.com/xenking/pos-restaurant/internal/domain/user"
)

func startPostgres(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "pos",
				"POSTGRES_PASSWORD": "pos",
				"POSTGRES_DB":       "pos",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	store, err := Open(ctx, fmt.Sprintf("postgres://pos:pos@%s:%s/pos?sslmode=disable", host, port.Port()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

func TestStore(t *testing.T) {
	store := startPostgres(t)
	ctx := context.Background()

	t.Run("Menu", func(t *testing.T) {
		cat := &menu.Category{Name: "Drinks", Description: "Cold"}
		require.NoError(t, store.Menu.CreateCategory(ctx, cat))
		require.NoError(t, uuid.Validate(cat.ID))

		now := time.Now().UTC().Truncate(time.Microsecond)
		cola := &menu.Item{
			Name: "Cola", Price: decimal.RequireFromString("2.50"),
			CategoryID: cat.ID, Available: true, CreatedAt: now, UpdatedAt: now,
		}
		require.NoError(t, store.Menu.CreateItem(ctx, cola))

		got, err := store.Menu.GetItem(ctx, cola.ID)
		require.NoError(t, err)
		assert.True(t, cola.Price.Equal(got.Price))
		assert.Equal(t, now, got.CreatedAt)

		items, err := store.Menu.GetItemsByIDs(ctx, []string{cola.ID, uuid.NewString()})
		require.NoError(t, err)
		assert.Len(t, items, 1)

		_, err = store.Menu.GetItemsByIDs(ctx, []string{"nope"})
		require.ErrorIs(t, err, menu.ErrInvalidID)

		_, err = store.Menu.GetItemsByIDs(ctx, []string{strings.ToUpper(cola.ID)})
		require.ErrorIs(t, err, menu.ErrInvalidID)

		byCat, err := store.Menu.ListItems(ctx, cat.ID)
		require.NoError(t, err)
		assert.Len(t, byCat, 1)

		got.Available = false
		require.NoError(t, store.Menu.UpdateItem(ctx, got))
		require.NoError(t, store.Menu.DeleteItem(ctx, cola.ID))
		_, err = store.Menu.GetItem(ctx, cola.ID)
		require.ErrorIs(t, err, menu.ErrNotFound)
		require.ErrorIs(t, store.Menu.DeleteCategory(ctx, uuid.NewString()), menu.ErrNotFound)
	})

	t.Run("Users", func(t *testing.T) {
		u := &user.User{Email: "chef@example.com", Role: user.RoleStaff, HashedPassword: "x", CreatedAt: time.Now()}
		require.NoError(t, store.Users.Create(ctx, u))

		dup := &user.User{Email: "chef@example.com", Role: user.RoleStaff, HashedPassword: "y", CreatedAt: time.Now()}
		require.ErrorIs(t, store.Users.Create(ctx, dup), user.ErrEmailTaken)

		got, err := store.Users.GetByEmail(ctx, "chef@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		_, err = store.Users.GetByEmail(ctx, "ghost@example.com")
		require.ErrorIs(t, err, user.ErrNotFound)
	})

	t.Run("Orders", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Microsecond)
		table := 4
		o := &order.Order{
			Items: []order.Line{{
				MenuItemID: "m1", Quantity: 2,
				PricePerItem: decimal.RequireFromString("9.99"),
				Subtotal:     decimal.RequireFromString("19.98"),
			}},
			Status:      order.StatusPending,
			TableNumber: &table,
			TotalAmount: decimal.RequireFromString("19.98"),
			CreatedBy:   "u1",
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		require.NoError(t, store.Orders.Create(ctx, o))
		assert.Equal(t, int64(1), o.Revision)

		got, err := store.Orders.Get(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, *got.TableNumber)
		assert.True(t, o.TotalAmount.Equal(got.TotalAmount))
		require.Len(t, got.Items, 1)
		assert.True(t, decimal.RequireFromString("19.98").Equal(got.Items[0].Subtotal))

		stale := got.Clone()
		got.Status = order.StatusCompleted
		got.Payment = &order.Payment{Method: order.PaymentCash, Amount: decimal.NewFromInt(20), PaidAt: now}
		require.NoError(t, store.Orders.Replace(ctx, got))
		assert.Equal(t, int64(2), got.Revision)

		stale.Status = order.StatusCancelled
		require.ErrorIs(t, store.Orders.Replace(ctx, stale), order.ErrConflict)

		missing := got.Clone()
		missing.ID = uuid.NewString()
		require.ErrorIs(t, store.Orders.Replace(ctx, missing), order.ErrNotFound)

		reloaded, err := store.Orders.Get(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusCompleted, reloaded.Status)
		require.NotNil(t, reloaded.Payment)
		assert.Equal(t, now, reloaded.Payment.PaidAt)

		completed, err := store.Orders.List(ctx, order.Filter{Status: order.StatusCompleted})
		require.NoError(t, err)
		assert.Len(t, completed, 1)

		_, err = store.Orders.Get(ctx, "not-a-uuid")
		require.ErrorIs(t, err, order.ErrInvalidID)
	})

	require.NoError(t, store.Ping(ctx))
}
