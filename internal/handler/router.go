package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/pos-restaurant/pkg/httpmiddleware"
)

// Probes are the health endpoints mounted next to the API.
type Probes struct {
	Live  http.Handler
	Ready http.Handler
}

// RoutePattern returns the chi route template that served r, such as
// /api/orders/{id}. It is only complete once routing has finished.
func RoutePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	if p := rctx.RoutePattern(); p != "" {
		return p
	}
	return "unmatched"
}

// Router builds the HTTP routes of the API.
func (h *Handler) Router(p Probes) http.Handler {
	r := chi.NewRouter()
	r.Use(
		httpmiddleware.LogRequests(RoutePattern),
		httpmiddleware.Labeler(RoutePattern),
	)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/", h.Welcome)
	r.Method(http.MethodGet, "/livez", p.Live)
	r.Method(http.MethodGet, "/readyz", p.Ready)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", p.Live)
		r.Method(http.MethodGet, "/uploads/images/*", h.serveImages())

		r.Post("/auth/register", h.Register)
		r.Post("/auth/token", h.IssueToken)

		r.Get("/menu/categories/public", h.ListCategories)
		r.Get("/menu/items", h.ListItems)
		r.Get("/menu/items/{id}", h.GetItem)

		r.Group(func(r chi.Router) {
			r.Use(h.authenticate)

			r.Get("/users/me", h.Me)

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", h.CreateOrder)
				r.Get("/", h.ListOrders)
				r.Get("/{id}", h.GetOrder)
				r.Put("/{id}", h.UpdateOrder)
				r.Delete("/{id}", h.CancelOrder)
				r.Put("/{id}/status/{status}", h.SetOrderStatus)
				r.Post("/{id}/payment", h.PayOrder)
			})

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)

				r.Post("/menu/categories", h.CreateCategory)
				r.Get("/menu/categories", h.ListCategories)
				r.Get("/menu/categories/{id}", h.GetCategory)
				r.Put("/menu/categories/{id}", h.UpdateCategory)
				r.Delete("/menu/categories/{id}", h.DeleteCategory)

				r.Post("/menu/items", h.CreateItem)
				r.Put("/menu/items/{id}", h.UpdateItem)
				r.Delete("/menu/items/{id}", h.DeleteItem)
				r.Post("/menu/upload-image", h.UploadImage)
			})
		})
	})
	return r
}

// Welcome answers the root path so load balancers and humans get a response.
func (h *Handler) Welcome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to the POS Restaurant API",
	})
}
