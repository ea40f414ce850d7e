package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Role is the permission level of a user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

var (
	// ErrNotFound is returned by a Repository when no user matches.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("user with this email already exists")
	// ErrUnauthenticated is returned when credentials or a token cannot be
	// verified. It deliberately carries no detail about which part failed.
	ErrUnauthenticated = errors.New("could not validate credentials")
	// ErrForbidden is returned when an identity lacks the required role.
	ErrForbidden = errors.New("the user doesn't have enough privileges")
)

// User is a stored account.
type User struct {
	ID             string
	Email          string
	FullName       string
	Role           Role
	HashedPassword string
	CreatedAt      time.Time
}

// Identity is the authenticated principal attached to a request.
type Identity struct {
	ID       string
	Email    string
	FullName string
	Role     Role
}

// IsAdmin reports whether the identity has the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

func (u *User) identity() Identity {
	return Identity{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
	}
}

// Repository defines persistence operations for users.
type Repository interface {
	// Create stores u and assigns its ID. Returns ErrEmailTaken when the
	// email is already registered.
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
