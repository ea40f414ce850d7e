package handler

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xenking/pos-restaurant/internal/domain/menu"
	"github.com/xenking/pos-restaurant/internal/domain/order"
	"github.com/xenking/pos-restaurant/internal/domain/user"
)

// Identifiers starting with "x" are treated as malformed by the fakes.
func malformed(id string) bool {
	return id == "" || id[0] == 'x'
}

type memMenu struct {
	mu         sync.Mutex
	seq        int
	categories map[string]menu.Category
	items      map[string]menu.Item
}

func newMemMenu() *memMenu {
	return &memMenu{categories: map[string]menu.Category{}, items: map[string]menu.Item{}}
}

func (m *memMenu) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s%d", prefix, m.seq)
}

func (m *memMenu) CreateCategory(_ context.Context, c *menu.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.nextID("c")
	m.categories[c.ID] = *c
	return nil
}

func (m *memMenu) ListCategories(context.Context) ([]menu.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]menu.Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memMenu) GetCategory(_ context.Context, id string) (*menu.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if malformed(id) {
		return nil, &menu.InvalidIDError{ID: id}
	}
	c, ok := m.categories[id]
	if !ok {
		return nil, menu.ErrNotFound
	}
	return &c, nil
}

func (m *memMenu) UpdateCategory(_ context.Context, c *menu.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[c.ID]; !ok {
		return menu.ErrNotFound
	}
	m.categories[c.ID] = *c
	return nil
}

func (m *memMenu) DeleteCategory(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return menu.ErrNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *memMenu) CreateItem(_ context.Context, it *menu.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it.ID = m.nextID("i")
	m.items[it.ID] = *it
	return nil
}

func (m *memMenu) ListItems(_ context.Context, categoryID string) ([]menu.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []menu.Item
	for _, it := range m.items {
		if categoryID == "" || it.CategoryID == categoryID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memMenu) GetItem(_ context.Context, id string) (*menu.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if malformed(id) {
		return nil, &menu.InvalidIDError{ID: id}
	}
	it, ok := m.items[id]
	if !ok {
		return nil, menu.ErrNotFound
	}
	return &it, nil
}

func (m *memMenu) GetItemsByIDs(_ context.Context, ids []string) ([]menu.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []menu.Item
	for _, id := range ids {
		if malformed(id) {
			return nil, &menu.InvalidIDError{ID: id}
		}
		if it, ok := m.items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memMenu) UpdateItem(_ context.Context, it *menu.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[it.ID]; !ok {
		return menu.ErrNotFound
	}
	m.items[it.ID] = *it
	return nil
}

func (m *memMenu) DeleteItem(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return menu.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type memOrders struct {
	mu     sync.Mutex
	seq    int
	orders map[string]*order.Order
}

func newMemOrders() *memOrders {
	return &memOrders{orders: map[string]*order.Order{}}
}

func (m *memOrders) Create(_ context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	o.ID = fmt.Sprintf("o%d", m.seq)
	o.Revision = 1
	m.orders[o.ID] = o.Clone()
	return nil
}

func (m *memOrders) Get(_ context.Context, id string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if malformed(id) {
		return nil, order.ErrInvalidID
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o.Clone(), nil
}

func (m *memOrders) List(_ context.Context, f order.Filter) ([]order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []order.Order
	for _, o := range m.orders {
		if f.Status == "" || o.Status == f.Status {
			out = append(out, *o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memOrders) Replace(_ context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.orders[o.ID]
	if !ok {
		return order.ErrNotFound
	}
	if cur.Revision != o.Revision {
		return order.ErrConflict
	}
	o.Revision++
	m.orders[o.ID] = o.Clone()
	return nil
}

type memUsers struct {
	mu    sync.Mutex
	seq   int
	users map[string]user.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[string]user.User{}}
}

func (m *memUsers) Create(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Email]; ok {
		return user.ErrEmailTaken
	}
	m.seq++
	u.ID = fmt.Sprintf("u%d", m.seq)
	m.users[u.Email] = *u
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	return &u, nil
}
