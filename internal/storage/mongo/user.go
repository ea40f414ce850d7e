package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/xenking/pos-restaurant/internal/domain/user"
)

type userDoc struct {
	ID             primitive.ObjectID `bson:"_id"`
	Email          string             `bson:"email"`
	FullName       string             `bson:"full_name,omitempty"`
	Role           string             `bson:"role"`
	HashedPassword string             `bson:"hashed_password"`
	CreatedAt      time.Time          `bson:"created_at"`
}

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository over the users collection.
type UserRepository struct {
	coll *mongo.Collection
}

// NewUserRepository returns a UserRepository over db.
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

// Create inserts u. The unique email index turns duplicates into
// user.ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	oid := primitive.NewObjectID()
	_, err := r.coll.InsertOne(ctx, userDoc{
		ID:             oid,
		Email:          u.Email,
		FullName:       u.FullName,
		Role:           string(u.Role),
		HashedPassword: u.HashedPassword,
		CreatedAt:      u.CreatedAt,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.ErrEmailTaken
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	u.ID = oid.Hex()
	return nil
}

// GetByEmail returns the user registered with email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("finding user %q: %w", email, err)
	}
	return &user.User{
		ID:             doc.ID.Hex(),
		Email:          doc.Email,
		FullName:       doc.FullName,
		Role:           user.Role(doc.Role),
		HashedPassword: doc.HashedPassword,
		CreatedAt:      doc.CreatedAt.UTC(),
	}, nil
}
