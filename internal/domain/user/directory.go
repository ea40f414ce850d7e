package user

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

// ErrWeakPassword is returned when a password is shorter than MinPasswordLength.
var ErrWeakPassword = errors.New("password must be at least 8 characters")

// DirectoryConfig holds the token and hashing parameters of a Directory.
type DirectoryConfig struct {
	// SecretKey signs access tokens with HMAC-SHA256.
	SecretKey []byte
	// TokenTTL is the lifetime of issued access tokens.
	TokenTTL time.Duration
	// BcryptCost is the bcrypt work factor. Zero means bcrypt.DefaultCost.
	BcryptCost int
}

// Token is an issued bearer token.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// Registration is the input for creating an account.
type Registration struct {
	Email    string
	FullName string
	Password string
	Role     Role
}

type claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// Directory verifies credentials and resolves bearer tokens to identities.
type Directory struct {
	users Repository
	cfg   DirectoryConfig
	now   func() time.Time
}

// NewDirectory creates a Directory backed by users.
func NewDirectory(users Repository, cfg DirectoryConfig) *Directory {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 30 * time.Minute
	}
	return &Directory{users: users, cfg: cfg, now: time.Now}
}

// Register hashes the password and stores a new user. Role defaults to staff.
func (d *Directory) Register(ctx context.Context, r Registration) (*User, error) {
	if len(r.Password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	role := r.Role
	if role == "" {
		role = RoleStaff
	}
	if !role.Valid() {
		return nil, errors.Errorf("unknown role %q", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), d.cfg.BcryptCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	u := &User{
		Email:          normalizeEmail(r.Email),
		FullName:       r.FullName,
		Role:           role,
		HashedPassword: string(hash),
		CreatedAt:      d.now().UTC(),
	}
	if err := d.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// VerifyCredentials returns the identity owning email when secret matches
// its stored hash.
func (d *Directory) VerifyCredentials(ctx context.Context, email, secret string) (Identity, error) {
	u, err := d.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Identity{}, ErrUnauthenticated
		}
		return Identity{}, errors.Wrap(err, "get user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(secret)); err != nil {
		return Identity{}, ErrUnauthenticated
	}
	return u.identity(), nil
}

// IssueToken signs an access token for id.
func (d *Directory) IssueToken(id Identity) (Token, error) {
	now := d.now()
	exp := now.Add(d.cfg.TokenTTL)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := tok.SignedString(d.cfg.SecretKey)
	if err != nil {
		return Token{}, errors.Wrap(err, "sign token")
	}
	return Token{AccessToken: signed, TokenType: "bearer", ExpiresAt: exp}, nil
}

// IdentityFromToken validates token and loads the user it names. The role
// is taken from the stored user, not from the token, so demotions apply
// immediately.
func (d *Directory) IdentityFromToken(ctx context.Context, token string) (Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return d.cfg.SecretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(d.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || c.Subject == "" {
		return Identity{}, ErrUnauthenticated
	}

	u, err := d.users.GetByEmail(ctx, c.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Identity{}, ErrUnauthenticated
		}
		return Identity{}, errors.Wrap(err, "get user")
	}
	return u.identity(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
