package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/pos-restaurant/internal/domain/user"
)

const (
	createUserSQL = `INSERT INTO users (id, email, full_name, role, hashed_password, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	getUserByEmailSQL = `SELECT id, email, full_name, role, hashed_password, created_at
		FROM users WHERE email = $1`
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts u. The unique email index turns duplicates into
// user.ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, createUserSQL,
		id, u.Email, u.FullName, string(u.Role), u.HashedPassword, u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return user.ErrEmailTaken
		}
		return fmt.Errorf("creating user: %w", err)
	}
	u.ID = id
	return nil
}

// GetByEmail returns the user registered with email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var (
		u    user.User
		role string
	)
	err := r.pool.QueryRow(ctx, getUserByEmailSQL, email).Scan(
		&u.ID, &u.Email, &u.FullName, &role, &u.HashedPassword, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("getting user %q: %w", email, err)
	}
	u.Role = user.Role(role)
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}
