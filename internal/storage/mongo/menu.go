package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xenking/pos-restaurant/internal/domain/menu"
)

type categoryDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	Name        string             `bson:"name"`
	Description string             `bson:"description,omitempty"`
}

type itemDoc struct {
	ID          primitive.ObjectID   `bson:"_id"`
	Name        string               `bson:"name"`
	Description string               `bson:"description,omitempty"`
	Price       primitive.Decimal128 `bson:"price"`
	CategoryID  string               `bson:"category_id"`
	Available   bool                 `bson:"available"`
	ImageURL    string               `bson:"image_url,omitempty"`
	Emoji       string               `bson:"emoji,omitempty"`
	CreatedAt   time.Time            `bson:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at"`
}

var _ menu.Repository = (*MenuRepository)(nil)

// MenuRepository implements menu.Repository over the categories and
// menu_items collections.
type MenuRepository struct {
	categories *mongo.Collection
	items      *mongo.Collection
}

// NewMenuRepository returns a MenuRepository over db.
func NewMenuRepository(db *mongo.Database) *MenuRepository {
	return &MenuRepository{
		categories: db.Collection(categoriesCollection),
		items:      db.Collection(itemsCollection),
	}
}

// CreateCategory inserts c under a new ObjectID.
func (r *MenuRepository) CreateCategory(ctx context.Context, c *menu.Category) error {
	oid := primitive.NewObjectID()
	doc := categoryDoc{ID: oid, Name: c.Name, Description: c.Description}
	if _, err := r.categories.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("inserting category: %w", err)
	}
	c.ID = oid.Hex()
	return nil
}

// ListCategories returns all categories ordered by name.
func (r *MenuRepository) ListCategories(ctx context.Context) ([]menu.Category, error) {
	cursor, err := r.categories.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	var docs []categoryDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("reading categories: %w", err)
	}
	out := make([]menu.Category, 0, len(docs))
	for _, d := range docs {
		out = append(out, decodeCategory(d))
	}
	return out, nil
}

// GetCategory returns a single category.
func (r *MenuRepository) GetCategory(ctx context.Context, id string) (*menu.Category, error) {
	oid, err := parseMenuID(id)
	if err != nil {
		return nil, err
	}
	var doc categoryDoc
	if err := r.categories.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, menu.ErrNotFound
		}
		return nil, fmt.Errorf("finding category %q: %w", id, err)
	}
	c := decodeCategory(doc)
	return &c, nil
}

// UpdateCategory overwrites the name and description of c.
func (r *MenuRepository) UpdateCategory(ctx context.Context, c *menu.Category) error {
	oid, err := parseMenuID(c.ID)
	if err != nil {
		return err
	}
	res, err := r.categories.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"name":        c.Name,
		"description": c.Description,
	}})
	if err != nil {
		return fmt.Errorf("updating category %q: %w", c.ID, err)
	}
	if res.MatchedCount == 0 {
		return menu.ErrNotFound
	}
	return nil
}

// DeleteCategory removes the category. Items keep their category id.
func (r *MenuRepository) DeleteCategory(ctx context.Context, id string) error {
	return deleteByID(ctx, r.categories, "category", id)
}

// CreateItem inserts it under a new ObjectID.
func (r *MenuRepository) CreateItem(ctx context.Context, it *menu.Item) error {
	oid := primitive.NewObjectID()
	doc, err := encodeItem(oid, it)
	if err != nil {
		return err
	}
	if _, err := r.items.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("inserting menu item: %w", err)
	}
	it.ID = oid.Hex()
	return nil
}

// ListItems returns all items, or those of categoryID when set.
func (r *MenuRepository) ListItems(ctx context.Context, categoryID string) ([]menu.Item, error) {
	filter := bson.M{}
	if categoryID != "" {
		filter["category_id"] = categoryID
	}
	return r.findItems(ctx, filter)
}

// GetItem returns a single menu item.
func (r *MenuRepository) GetItem(ctx context.Context, id string) (*menu.Item, error) {
	oid, err := parseMenuID(id)
	if err != nil {
		return nil, err
	}
	var doc itemDoc
	if err := r.items.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, menu.ErrNotFound
		}
		return nil, fmt.Errorf("finding menu item %q: %w", id, err)
	}
	return decodeItem(doc)
}

// GetItemsByIDs returns the items matching ids with one $in query. Ids that
// are not ObjectIDs fail the whole lookup.
func (r *MenuRepository) GetItemsByIDs(ctx context.Context, ids []string) ([]menu.Item, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := parseMenuID(id)
		if err != nil {
			return nil, err
		}
		oids = append(oids, oid)
	}
	items, err := r.findItems(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, errors.Wrap(err, "get items by ids")
	}
	return items, nil
}

// UpdateItem overwrites every mutable field of it.
func (r *MenuRepository) UpdateItem(ctx context.Context, it *menu.Item) error {
	oid, err := parseMenuID(it.ID)
	if err != nil {
		return err
	}
	price, err := toDecimal128(it.Price)
	if err != nil {
		return err
	}
	res, err := r.items.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"name":        it.Name,
		"description": it.Description,
		"price":       price,
		"category_id": it.CategoryID,
		"available":   it.Available,
		"image_url":   it.ImageURL,
		"emoji":       it.Emoji,
		"updated_at":  it.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("updating menu item %q: %w", it.ID, err)
	}
	if res.MatchedCount == 0 {
		return menu.ErrNotFound
	}
	return nil
}

// DeleteItem removes the item. Existing orders keep their priced lines.
func (r *MenuRepository) DeleteItem(ctx context.Context, id string) error {
	return deleteByID(ctx, r.items, "menu item", id)
}

func (r *MenuRepository) findItems(ctx context.Context, filter bson.M) ([]menu.Item, error) {
	cursor, err := r.items.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("listing menu items: %w", err)
	}
	var docs []itemDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("reading menu items: %w", err)
	}
	out := make([]menu.Item, 0, len(docs))
	for _, d := range docs {
		it, err := decodeItem(d)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, nil
}

func deleteByID(ctx context.Context, coll *mongo.Collection, kind, id string) error {
	oid, err := parseMenuID(id)
	if err != nil {
		return err
	}
	res, err := coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("deleting %s %q: %w", kind, id, err)
	}
	if res.DeletedCount == 0 {
		return menu.ErrNotFound
	}
	return nil
}

func parseMenuID(id string) (primitive.ObjectID, error) {
	oid, ok := parseObjectID(id)
	if !ok {
		return primitive.NilObjectID, &menu.InvalidIDError{ID: id}
	}
	return oid, nil
}

func decodeCategory(d categoryDoc) menu.Category {
	return menu.Category{ID: d.ID.Hex(), Name: d.Name, Description: d.Description}
}

func encodeItem(oid primitive.ObjectID, it *menu.Item) (*itemDoc, error) {
	price, err := toDecimal128(it.Price)
	if err != nil {
		return nil, err
	}
	return &itemDoc{
		ID:          oid,
		Name:        it.Name,
		Description: it.Description,
		Price:       price,
		CategoryID:  it.CategoryID,
		Available:   it.Available,
		ImageURL:    it.ImageURL,
		Emoji:       it.Emoji,
		CreatedAt:   it.CreatedAt,
		UpdatedAt:   it.UpdatedAt,
	}, nil
}

func decodeItem(d itemDoc) (*menu.Item, error) {
	price, err := fromDecimal128(d.Price)
	if err != nil {
		return nil, err
	}
	return &menu.Item{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		Price:       price,
		CategoryID:  d.CategoryID,
		Available:   d.Available,
		ImageURL:    d.ImageURL,
		Emoji:       d.Emoji,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}, nil
}
