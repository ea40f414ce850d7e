package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/pos-restaurant/internal/domain/order"
)

// CreateOrder prices the requested lines and stores a pending order owned
// by the caller.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := h.decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}

	o, err := h.orders.Create(r.Context(), identity(r).ID, order.CreateRequest{
		Items:        lineRequests(req.Items),
		TableNumber:  req.TableNumber,
		CustomerName: req.CustomerName,
		Notes:        req.Notes,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newOrderResponse(o))
}

// ListOrders returns orders newest first. Both ?status= and the older
// ?status_filter= narrow the result to one status.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	var f order.Filter
	q := r.URL.Query()
	raw := q.Get("status")
	if raw == "" {
		raw = q.Get("status_filter")
	}
	if raw != "" {
		st, err := order.ParseStatus(raw)
		if err != nil {
			fail(w, r, err)
			return
		}
		f.Status = st
	}

	orders, err := h.orders.List(r.Context(), f)
	if err != nil {
		fail(w, r, err)
		return
	}
	resp := make([]orderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, newOrderResponse(&orders[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetOrder returns a single order.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(o))
}

// UpdateOrder applies a partial update. A status in the body goes through
// the same state machine as SetOrderStatus.
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req updateOrderRequest
	if err := h.decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}

	upd := order.UpdateRequest{
		Items:        lineRequests(req.Items),
		TableNumber:  req.TableNumber,
		CustomerName: req.CustomerName,
		Notes:        req.Notes,
	}
	if req.Status != nil {
		st, err := order.ParseStatus(*req.Status)
		if err != nil {
			fail(w, r, err)
			return
		}
		upd.Status = &st
	}

	o, err := h.orders.Update(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(o))
}

// SetOrderStatus moves an order to the status named in the path.
func (h *Handler) SetOrderStatus(w http.ResponseWriter, r *http.Request) {
	st, err := order.ParseStatus(chi.URLParam(r, "status"))
	if err != nil {
		fail(w, r, err)
		return
	}
	o, err := h.orders.SetStatus(r.Context(), chi.URLParam(r, "id"), st)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(o))
}

// PayOrder records a payment and completes the order.
func (h *Handler) PayOrder(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := h.decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	o, err := h.orders.Pay(r.Context(), chi.URLParam(r, "id"), order.PaymentRequest{
		Method: order.PaymentMethod(req.Method),
		Amount: req.Amount,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(o))
}

// CancelOrder marks an order cancelled. Cancelling twice succeeds.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	if _, err := h.orders.Cancel(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
