package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/pos-restaurant/internal/domain/menu"
)

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := h.decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	c := &menu.Category{Name: req.Name, Description: req.Description}
	if err := h.catalog.CreateCategory(r.Context(), c); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCategoryResponse(*c))
}

// ListCategories serves both the admin and the public category listing.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	resp := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		resp = append(resp, newCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.catalog.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCategoryResponse(*c))
}

// UpdateCategory replaces the name and description of a category.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := h.decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	c := &menu.Category{ID: chi.URLParam(r, "id"), Name: req.Name, Description: req.Description}
	if err := h.catalog.UpdateCategory(r.Context(), c); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCategoryResponse(*c))
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req itemCreateRequest
	if err := h.decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	it := req.item()
	if err := h.menu.CreateItem(r.Context(), it); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newItemResponse(*it))
}

// ListItems returns every menu item, or those of ?category_id= when given.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.ListItems(r.Context(), r.URL.Query().Get("category_id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	resp := make([]itemResponse, 0, len(items))
	for _, it := range items {
		resp = append(resp, newItemResponse(it))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	it, err := h.catalog.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newItemResponse(*it))
}

// UpdateItem applies the fields present in the body. Existing orders keep
// the prices they were placed with.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req itemUpdateRequest
	if err := h.decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	it, err := h.menu.UpdateItem(r.Context(), chi.URLParam(r, "id"), req.patch())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newItemResponse(*it))
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
