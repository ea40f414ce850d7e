//go:build integration

package integration

import (
	"math"
	"net/http"
	"regexp"
	"strings"
	"testing"
)

var objectIDPattern = regexp.MustCompile(`^[0-9a-f]{24}$`)

func placeOrder(t *testing.T, req orderRequest) orderResponse {
	t.Helper()
	resp := doRequest(t, http.MethodPost, "/api/orders", req, staffToken)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusCreated)
	return decodeJSON[orderResponse](t, resp)
}

func setStatus(t *testing.T, id, status string, want int) {
	t.Helper()
	resp := doRequest(t, http.MethodPut, "/api/orders/"+id+"/status/"+status, nil, staffToken)
	defer resp.Body.Close()
	expectStatus(t, resp, want)
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.001
}

func TestOrders_NoAuth(t *testing.T) {
	resp := doRequest(t, http.MethodGet, "/api/orders", nil, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if resp.Header.Get("WWW-Authenticate") != "Bearer" {
		t.Fatalf("expected WWW-Authenticate: Bearer, got %q", resp.Header.Get("WWW-Authenticate"))
	}
}

func TestOrders_InvalidToken(t *testing.T) {
	resp := doRequest(t, http.MethodGet, "/api/orders", nil, "not-a-token")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestOrderLifecycle(t *testing.T) {
	salmon := menuItemByName(t, "Grilled Salmon")
	coffee := menuItemByName(t, "Iced Coffee")

	o := placeOrder(t, orderRequest{
		Items: []orderLine{
			{MenuItemID: salmon.ID, Quantity: 2, SpecialInstructions: "no lemon"},
			{MenuItemID: coffee.ID, Quantity: 1},
		},
		TableNumber:  7,
		CustomerName: "Integration",
	})

	if !objectIDPattern.MatchString(o.ID) {
		t.Fatalf("order ID %q is not an object id", o.ID)
	}
	if o.Status != "pending" {
		t.Fatalf("expected pending, got %q", o.Status)
	}
	if o.TableNumber == nil || *o.TableNumber != 7 {
		t.Fatalf("expected table 7, got %v", o.TableNumber)
	}
	if len(o.Items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(o.Items))
	}
	if !almostEqual(o.Items[0].PricePerItem, 24.99) || !almostEqual(o.Items[0].Subtotal, 49.98) {
		t.Fatalf("unexpected first line pricing: %+v", o.Items[0])
	}
	if !almostEqual(o.TotalAmount, 53.97) {
		t.Fatalf("expected total 53.97, got %v", o.TotalAmount)
	}
	if o.CreatedBy == "" {
		t.Fatal("created_by not set")
	}

	setStatus(t, o.ID, "preparing", http.StatusOK)
	setStatus(t, o.ID, "ready", http.StatusOK)

	// Underpayment is rejected and leaves the order open.
	resp := doRequest(t, http.MethodPost, "/api/orders/"+o.ID+"/payment", map[string]any{
		"method": "card",
		"amount": 10,
	}, staffToken)
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = doRequest(t, http.MethodPost, "/api/orders/"+o.ID+"/payment", map[string]any{
		"method": "card",
		"amount": 60,
	}, staffToken)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	paid := decodeJSON[orderResponse](t, resp)
	if paid.Status != "completed" {
		t.Fatalf("expected completed, got %q", paid.Status)
	}
	if paid.Payment == nil || paid.Payment.Method != "card" || !almostEqual(paid.Payment.Amount, 60) {
		t.Fatalf("unexpected payment: %+v", paid.Payment)
	}

	// Completed orders are closed.
	setStatus(t, o.ID, "preparing", http.StatusConflict)

	del := doRequest(t, http.MethodDelete, "/api/orders/"+o.ID, nil, staffToken)
	defer del.Body.Close()
	expectStatus(t, del, http.StatusConflict)
}

func TestOrder_SkipStatus(t *testing.T) {
	burger := menuItemByName(t, "Burger Deluxe")
	o := placeOrder(t, orderRequest{Items: []orderLine{{MenuItemID: burger.ID, Quantity: 1}}})

	setStatus(t, o.ID, "ready", http.StatusConflict)
	setStatus(t, o.ID, "completed", http.StatusConflict)
	setStatus(t, o.ID, "bogus", http.StatusBadRequest)
}

func TestOrder_Cancel(t *testing.T) {
	cake := menuItemByName(t, "Chocolate Cake")
	o := placeOrder(t, orderRequest{Items: []orderLine{{MenuItemID: cake.ID, Quantity: 3}}})

	for range 2 {
		resp := doRequest(t, http.MethodDelete, "/api/orders/"+o.ID, nil, staffToken)
		expectStatus(t, resp, http.StatusNoContent)
		resp.Body.Close()
	}

	resp := doRequest(t, http.MethodGet, "/api/orders/"+o.ID, nil, staffToken)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)
	if got := decodeJSON[orderResponse](t, resp); got.Status != "cancelled" {
		t.Fatalf("expected cancelled, got %q", got.Status)
	}

	pay := doRequest(t, http.MethodPost, "/api/orders/"+o.ID+"/payment", map[string]any{
		"method": "cash",
		"amount": 100,
	}, staffToken)
	defer pay.Body.Close()
	expectStatus(t, pay, http.StatusConflict)
}

func TestOrder_UpdateItems(t *testing.T) {
	juice := menuItemByName(t, "Fresh Juice")
	wine := menuItemByName(t, "Wine Glass")
	o := placeOrder(t, orderRequest{Items: []orderLine{{MenuItemID: juice.ID, Quantity: 1}}})

	resp := doRequest(t, http.MethodPut, "/api/orders/"+o.ID, map[string]any{
		"items":        []orderLine{{MenuItemID: wine.ID, Quantity: 2}},
		"table_number": 3,
		"notes":        "window seat",
	}, staffToken)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	got := decodeJSON[orderResponse](t, resp)
	if len(got.Items) != 1 || got.Items[0].MenuItemID != wine.ID {
		t.Fatalf("items not replaced: %+v", got.Items)
	}
	if !almostEqual(got.TotalAmount, 17.98) {
		t.Fatalf("expected total 17.98, got %v", got.TotalAmount)
	}
	if got.TableNumber == nil || *got.TableNumber != 3 {
		t.Fatalf("expected table 3, got %v", got.TableNumber)
	}
}

func TestOrder_ListByStatus(t *testing.T) {
	soda := menuItemByName(t, "Soft Drink")
	o := placeOrder(t, orderRequest{Items: []orderLine{{MenuItemID: soda.ID, Quantity: 1}}})
	setStatus(t, o.ID, "preparing", http.StatusOK)

	resp := doRequest(t, http.MethodGet, "/api/orders?status=preparing", nil, staffToken)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	var found bool
	for _, got := range decodeJSON[[]orderResponse](t, resp) {
		if got.Status != "preparing" {
			t.Fatalf("filter leaked status %q", got.Status)
		}
		if got.ID == o.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("order %s missing from preparing list", o.ID)
	}
}

func TestCreateOrder_Rejections(t *testing.T) {
	salmon := menuItemByName(t, "Grilled Salmon")

	tests := []struct {
		name string
		body orderRequest
		want int
	}{
		{"EmptyItems", orderRequest{Items: []orderLine{}}, http.StatusBadRequest},
		{"ZeroQuantity", orderRequest{Items: []orderLine{{MenuItemID: salmon.ID, Quantity: 0}}}, http.StatusBadRequest},
		{"UppercaseItemID", orderRequest{Items: []orderLine{{MenuItemID: strings.ToUpper(salmon.ID), Quantity: 1}}}, http.StatusBadRequest},
		{"MalformedItemID", orderRequest{Items: []orderLine{{MenuItemID: "nope", Quantity: 1}}}, http.StatusBadRequest},
		{"UnknownItem", orderRequest{Items: []orderLine{{MenuItemID: "000000000000000000000000", Quantity: 1}}}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, http.MethodPost, "/api/orders", tt.body, staffToken)
			defer resp.Body.Close()
			expectStatus(t, resp, tt.want)

			body := decodeJSON[errorResponse](t, resp)
			if body.Code != tt.want || body.Message == "" {
				t.Fatalf("unexpected error body: %+v", body)
			}
		})
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	resp := doRequest(t, http.MethodGet, "/api/orders/000000000000000000000000", nil, staffToken)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusNotFound)

	bad := doRequest(t, http.MethodGet, "/api/orders/not-an-id", nil, staffToken)
	defer bad.Body.Close()
	expectStatus(t, bad, http.StatusBadRequest)
}
