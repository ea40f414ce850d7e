package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/pos-restaurant/internal/domain/menu"
)

const (
	createCategorySQL = `INSERT INTO categories (id, name, description) VALUES ($1, $2, $3)`
	listCategoriesSQL = `SELECT id, name, description FROM categories ORDER BY name, id`
	getCategorySQL    = `SELECT id, name, description FROM categories WHERE id = $1`
	updateCategorySQL = `UPDATE categories SET name = $2, description = $3 WHERE id = $1`
	deleteCategorySQL = `DELETE FROM categories WHERE id = $1`

	itemColumns = `id, name, description, price, category_id, available,
		image_url, emoji, created_at, updated_at`

	createItemSQL = `INSERT INTO menu_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	listItemsSQL           = `SELECT ` + itemColumns + ` FROM menu_items ORDER BY name, id`
	listItemsByCategorySQL = `SELECT ` + itemColumns + ` FROM menu_items WHERE category_id = $1 ORDER BY name, id`
	getItemSQL             = `SELECT ` + itemColumns + ` FROM menu_items WHERE id = $1`
	getItemsByIDsSQL       = `SELECT ` + itemColumns + ` FROM menu_items WHERE id = ANY($1)`
	updateItemSQL          = `UPDATE menu_items SET
		name = $2, description = $3, price = $4, category_id = $5, available = $6,
		image_url = $7, emoji = $8, updated_at = $9
		WHERE id = $1`
	deleteItemSQL = `DELETE FROM menu_items WHERE id = $1`
)

var _ menu.Repository = (*MenuRepository)(nil)

// MenuRepository implements menu.Repository backed by PostgreSQL.
type MenuRepository struct {
	pool *pgxpool.Pool
}

// NewMenuRepository returns a MenuRepository that uses the given pool.
func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

// CreateCategory inserts c under a fresh UUID.
func (r *MenuRepository) CreateCategory(ctx context.Context, c *menu.Category) error {
	id := uuid.NewString()
	if _, err := r.pool.Exec(ctx, createCategorySQL, id, c.Name, c.Description); err != nil {
		return fmt.Errorf("creating category: %w", err)
	}
	c.ID = id
	return nil
}

// ListCategories returns all categories ordered by name.
func (r *MenuRepository) ListCategories(ctx context.Context) ([]menu.Category, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[menu.Category])
}

// GetCategory returns a single category.
func (r *MenuRepository) GetCategory(ctx context.Context, id string) (*menu.Category, error) {
	if !validID(id) {
		return nil, &menu.InvalidIDError{ID: id}
	}
	rows, err := r.pool.Query(ctx, getCategorySQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting category %q: %w", id, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[menu.Category])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, menu.ErrNotFound
		}
		return nil, fmt.Errorf("getting category %q: %w", id, err)
	}
	return &c, nil
}

// UpdateCategory overwrites the name and description of c.
func (r *MenuRepository) UpdateCategory(ctx context.Context, c *menu.Category) error {
	if !validID(c.ID) {
		return &menu.InvalidIDError{ID: c.ID}
	}
	tag, err := r.pool.Exec(ctx, updateCategorySQL, c.ID, c.Name, c.Description)
	if err != nil {
		return fmt.Errorf("updating category %q: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return menu.ErrNotFound
	}
	return nil
}

// DeleteCategory removes the category. Items keep their category id.
func (r *MenuRepository) DeleteCategory(ctx context.Context, id string) error {
	return r.delete(ctx, deleteCategorySQL, "category", id)
}

// CreateItem inserts it under a fresh UUID.
func (r *MenuRepository) CreateItem(ctx context.Context, it *menu.Item) error {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, createItemSQL,
		id, it.Name, it.Description, it.Price, it.CategoryID, it.Available,
		it.ImageURL, it.Emoji, it.CreatedAt, it.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating menu item: %w", err)
	}
	it.ID = id
	return nil
}

// ListItems returns all items, or those of categoryID when set.
func (r *MenuRepository) ListItems(ctx context.Context, categoryID string) ([]menu.Item, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if categoryID != "" {
		rows, err = r.pool.Query(ctx, listItemsByCategorySQL, categoryID)
	} else {
		rows, err = r.pool.Query(ctx, listItemsSQL)
	}
	if err != nil {
		return nil, fmt.Errorf("listing menu items: %w", err)
	}
	return pgx.CollectRows(rows, scanItem)
}

// GetItem returns a single menu item.
func (r *MenuRepository) GetItem(ctx context.Context, id string) (*menu.Item, error) {
	if !validID(id) {
		return nil, &menu.InvalidIDError{ID: id}
	}
	rows, err := r.pool.Query(ctx, getItemSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting menu item %q: %w", id, err)
	}
	it, err := pgx.CollectExactlyOneRow(rows, scanItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, menu.ErrNotFound
		}
		return nil, fmt.Errorf("getting menu item %q: %w", id, err)
	}
	return &it, nil
}

// GetItemsByIDs returns the items matching ids in a single query. Ids that
// are not UUIDs fail the whole lookup.
func (r *MenuRepository) GetItemsByIDs(ctx context.Context, ids []string) ([]menu.Item, error) {
	for _, id := range ids {
		if !validID(id) {
			return nil, &menu.InvalidIDError{ID: id}
		}
	}
	rows, err := r.pool.Query(ctx, getItemsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting menu items by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanItem)
}

// UpdateItem overwrites every mutable field of it.
func (r *MenuRepository) UpdateItem(ctx context.Context, it *menu.Item) error {
	if !validID(it.ID) {
		return &menu.InvalidIDError{ID: it.ID}
	}
	tag, err := r.pool.Exec(ctx, updateItemSQL,
		it.ID, it.Name, it.Description, it.Price, it.CategoryID, it.Available,
		it.ImageURL, it.Emoji, it.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating menu item %q: %w", it.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return menu.ErrNotFound
	}
	return nil
}

// DeleteItem removes the item. Existing orders keep their priced lines.
func (r *MenuRepository) DeleteItem(ctx context.Context, id string) error {
	return r.delete(ctx, deleteItemSQL, "menu item", id)
}

func (r *MenuRepository) delete(ctx context.Context, query, kind, id string) error {
	if !validID(id) {
		return &menu.InvalidIDError{ID: id}
	}
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting %s %q: %w", kind, id, err)
	}
	if tag.RowsAffected() == 0 {
		return menu.ErrNotFound
	}
	return nil
}

func scanItem(row pgx.CollectableRow) (menu.Item, error) {
	var it menu.Item
	err := row.Scan(
		&it.ID, &it.Name, &it.Description, &it.Price, &it.CategoryID, &it.Available,
		&it.ImageURL, &it.Emoji, &it.CreatedAt, &it.UpdatedAt,
	)
	it.CreatedAt = it.CreatedAt.UTC()
	it.UpdatedAt = it.UpdatedAt.UTC()
	return it, err
}
