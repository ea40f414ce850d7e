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

	"github.com/xenking/pos-restaurant/internal/domain/order"
)

type lineDoc struct {
	MenuItemID          string               `bson:"menu_item_id"`
	Quantity            int                  `bson:"quantity"`
	SpecialInstructions string               `bson:"special_instructions,omitempty"`
	PricePerItem        primitive.Decimal128 `bson:"price_per_item"`
	Subtotal            primitive.Decimal128 `bson:"subtotal"`
}

type paymentDoc struct {
	Method string               `bson:"method"`
	Amount primitive.Decimal128 `bson:"amount"`
	PaidAt time.Time            `bson:"paid_at"`
}

type orderDoc struct {
	ID           primitive.ObjectID   `bson:"_id"`
	Items        []lineDoc            `bson:"items"`
	Status       string               `bson:"status"`
	TableNumber  *int                 `bson:"table_number,omitempty"`
	CustomerName string               `bson:"customer_name,omitempty"`
	Notes        string               `bson:"notes,omitempty"`
	TotalAmount  primitive.Decimal128 `bson:"total_amount"`
	Payment      *paymentDoc          `bson:"payment,omitempty"`
	CreatedBy    string               `bson:"created_by"`
	CreatedAt    time.Time            `bson:"created_at"`
	UpdatedAt    time.Time            `bson:"updated_at"`
	Revision     int64                `bson:"revision"`
}

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository on one MongoDB collection.
// Each order is a single document, so a replace is atomic.
type OrderRepository struct {
	coll *mongo.Collection
}

// NewOrderRepository returns an OrderRepository over db's orders collection.
func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{coll: db.Collection(ordersCollection)}
}

// Create inserts o under a new ObjectID.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	oid := primitive.NewObjectID()
	doc, err := encodeOrder(oid, o, 1)
	if err != nil {
		return err
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}
	o.ID = oid.Hex()
	o.Revision = 1
	return nil
}

// Get returns the order with id.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	oid, ok := parseObjectID(id)
	if !ok {
		return nil, order.ErrInvalidID
	}

	var doc orderDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("finding order %q: %w", id, err)
	}
	return decodeOrder(doc)
}

// List returns orders newest first, optionally narrowed to one status.
func (r *OrderRepository) List(ctx context.Context, f order.Filter) ([]order.Order, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	var docs []orderDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("reading orders: %w", err)
	}

	out := make([]order.Order, 0, len(docs))
	for _, doc := range docs {
		o, err := decodeOrder(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, nil
}

// Replace swaps the stored document for o when its revision still equals
// o.Revision.
func (r *OrderRepository) Replace(ctx context.Context, o *order.Order) error {
	oid, ok := parseObjectID(o.ID)
	if !ok {
		return order.ErrInvalidID
	}
	doc, err := encodeOrder(oid, o, o.Revision+1)
	if err != nil {
		return err
	}

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": oid, "revision": o.Revision}, doc)
	if err != nil {
		return fmt.Errorf("replacing order %q: %w", o.ID, err)
	}
	if res.MatchedCount == 0 {
		n, err := r.coll.CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
		if err != nil {
			return fmt.Errorf("checking order %q: %w", o.ID, err)
		}
		if n == 0 {
			return order.ErrNotFound
		}
		return order.ErrConflict
	}

	o.Revision++
	return nil
}

func encodeOrder(oid primitive.ObjectID, o *order.Order, revision int64) (*orderDoc, error) {
	total, err := toDecimal128(o.TotalAmount)
	if err != nil {
		return nil, err
	}
	doc := &orderDoc{
		ID:           oid,
		Items:        make([]lineDoc, 0, len(o.Items)),
		Status:       string(o.Status),
		TableNumber:  o.TableNumber,
		CustomerName: o.CustomerName,
		Notes:        o.Notes,
		TotalAmount:  total,
		CreatedBy:    o.CreatedBy,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
		Revision:     revision,
	}
	for _, l := range o.Items {
		price, err := toDecimal128(l.PricePerItem)
		if err != nil {
			return nil, err
		}
		subtotal, err := toDecimal128(l.Subtotal)
		if err != nil {
			return nil, err
		}
		doc.Items = append(doc.Items, lineDoc{
			MenuItemID:          l.MenuItemID,
			Quantity:            l.Quantity,
			SpecialInstructions: l.SpecialInstructions,
			PricePerItem:        price,
			Subtotal:            subtotal,
		})
	}
	if p := o.Payment; p != nil {
		amount, err := toDecimal128(p.Amount)
		if err != nil {
			return nil, err
		}
		doc.Payment = &paymentDoc{Method: string(p.Method), Amount: amount, PaidAt: p.PaidAt}
	}
	return doc, nil
}

func decodeOrder(doc orderDoc) (*order.Order, error) {
	total, err := fromDecimal128(doc.TotalAmount)
	if err != nil {
		return nil, err
	}
	o := &order.Order{
		ID:           doc.ID.Hex(),
		Items:        make([]order.Line, 0, len(doc.Items)),
		Status:       order.Status(doc.Status),
		TableNumber:  doc.TableNumber,
		CustomerName: doc.CustomerName,
		Notes:        doc.Notes,
		TotalAmount:  total,
		CreatedBy:    doc.CreatedBy,
		CreatedAt:    doc.CreatedAt.UTC(),
		UpdatedAt:    doc.UpdatedAt.UTC(),
		Revision:     doc.Revision,
	}
	for _, l := range doc.Items {
		price, err := fromDecimal128(l.PricePerItem)
		if err != nil {
			return nil, err
		}
		subtotal, err := fromDecimal128(l.Subtotal)
		if err != nil {
			return nil, err
		}
		o.Items = append(o.Items, order.Line{
			MenuItemID:          l.MenuItemID,
			Quantity:            l.Quantity,
			SpecialInstructions: l.SpecialInstructions,
			PricePerItem:        price,
			Subtotal:            subtotal,
		})
	}
	if p := doc.Payment; p != nil {
		amount, err := fromDecimal128(p.Amount)
		if err != nil {
			return nil, err
		}
		o.Payment = &order.Payment{
			Method: order.PaymentMethod(p.Method),
			Amount: amount,
			PaidAt: p.PaidAt.UTC(),
		}
	}
	return o, nil
}
