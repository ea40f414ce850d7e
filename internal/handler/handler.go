// Package handler implements the REST API of the POS backend on top of the
// order, menu and user domain packages.
package handler

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/xenking/pos-restaurant/internal/domain/menu"
	"github.com/xenking/pos-restaurant/internal/domain/order"
	"github.com/xenking/pos-restaurant/internal/domain/user"
)

// DefaultMaxUploadBytes caps image uploads when Config.MaxUploadBytes is zero.
const DefaultMaxUploadBytes = 5 << 20

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// UploadDir is where uploaded menu images are written and served from.
	UploadDir string
	// MaxUploadBytes limits the size of a single uploaded image.
	MaxUploadBytes int64
}

// Handler serves the HTTP API, delegating business rules to the domain
// services.
type Handler struct {
	orders   *order.Service
	menu     *menu.Service
	catalog  menu.Repository
	users    *user.Directory
	validate *validator.Validate

	uploadDir      string
	maxUploadBytes int64
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	orders *order.Service,
	menuService *menu.Service,
	catalog menu.Repository,
	users *user.Directory,
) *Handler {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads/images"
	}
	return &Handler{
		orders:         orders,
		menu:           menuService,
		catalog:        catalog,
		users:          users,
		validate:       newValidator(),
		uploadDir:      cfg.UploadDir,
		maxUploadBytes: cfg.MaxUploadBytes,
	}
}

// newValidator reports field names as they appear in JSON bodies.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
