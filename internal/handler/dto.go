package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/pos-restaurant/internal/domain/menu"
	"github.com/xenking/pos-restaurant/internal/domain/order"
	"github.com/xenking/pos-restaurant/internal/domain/user"
)

type lineRequest struct {
	MenuItemID          string `json:"menu_item_id"         validate:"required"`
	Quantity            int    `json:"quantity"`
	SpecialInstructions string `json:"special_instructions" validate:"max=500"`
}

type createOrderRequest struct {
	Items        []lineRequest `json:"items"         validate:"dive"`
	TableNumber  *int          `json:"table_number"  validate:"omitempty,gt=0"`
	CustomerName string        `json:"customer_name" validate:"max=100"`
	Notes        string        `json:"notes"         validate:"max=500"`
}

type updateOrderRequest struct {
	Status       *string       `json:"status"`
	Items        []lineRequest `json:"items"         validate:"dive"`
	TableNumber  *int          `json:"table_number"  validate:"omitempty,gt=0"`
	CustomerName *string       `json:"customer_name" validate:"omitempty,max=100"`
	Notes        *string       `json:"notes"         validate:"omitempty,max=500"`
}

type paymentRequest struct {
	Method string          `json:"method" validate:"required,oneof=cash card digital"`
	Amount decimal.Decimal `json:"amount"`
}

func lineRequests(in []lineRequest) []order.LineRequest {
	if in == nil {
		return nil
	}
	out := make([]order.LineRequest, 0, len(in))
	for _, l := range in {
		out = append(out, order.LineRequest{
			MenuItemID:          l.MenuItemID,
			Quantity:            l.Quantity,
			SpecialInstructions: l.SpecialInstructions,
		})
	}
	return out
}

type lineResponse struct {
	MenuItemID          string  `json:"menu_item_id"`
	Quantity            int     `json:"quantity"`
	SpecialInstructions *string `json:"special_instructions"`
	PricePerItem        float64 `json:"price_per_item"`
	Subtotal            float64 `json:"subtotal"`
}

type paymentResponse struct {
	Method string    `json:"method"`
	Amount float64   `json:"amount"`
	PaidAt time.Time `json:"paid_at"`
}

type orderResponse struct {
	ID           string           `json:"id"`
	Items        []lineResponse   `json:"items"`
	Status       string           `json:"status"`
	TableNumber  *int             `json:"table_number"`
	CustomerName *string          `json:"customer_name"`
	Notes        *string          `json:"notes"`
	TotalAmount  float64          `json:"total_amount"`
	Payment      *paymentResponse `json:"payment"`
	CreatedBy    string           `json:"created_by"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func newOrderResponse(o *order.Order) orderResponse {
	resp := orderResponse{
		ID:           o.ID,
		Items:        make([]lineResponse, 0, len(o.Items)),
		Status:       string(o.Status),
		TableNumber:  o.TableNumber,
		CustomerName: optional(o.CustomerName),
		Notes:        optional(o.Notes),
		TotalAmount:  o.TotalAmount.InexactFloat64(),
		CreatedBy:    o.CreatedBy,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
	for _, l := range o.Items {
		resp.Items = append(resp.Items, lineResponse{
			MenuItemID:          l.MenuItemID,
			Quantity:            l.Quantity,
			SpecialInstructions: optional(l.SpecialInstructions),
			PricePerItem:        l.PricePerItem.InexactFloat64(),
			Subtotal:            l.Subtotal.InexactFloat64(),
		})
	}
	if p := o.Payment; p != nil {
		resp.Payment = &paymentResponse{
			Method: string(p.Method),
			Amount: p.Amount.InexactFloat64(),
			PaidAt: p.PaidAt,
		}
	}
	return resp
}

type categoryRequest struct {
	Name        string `json:"name"        validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type categoryResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func newCategoryResponse(c menu.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, Description: optional(c.Description)}
}

type itemCreateRequest struct {
	Name        string          `json:"name"        validate:"required,max=100"`
	Description string          `json:"description" validate:"max=500"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  string          `json:"category_id" validate:"required"`
	Available   *bool           `json:"available"`
	ImageURL    string          `json:"image_url"`
	Emoji       string          `json:"emoji"       validate:"max=16"`
}

func (r itemCreateRequest) item() *menu.Item {
	available := true
	if r.Available != nil {
		available = *r.Available
	}
	return &menu.Item{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		CategoryID:  r.CategoryID,
		Available:   available,
		ImageURL:    r.ImageURL,
		Emoji:       r.Emoji,
	}
}

type itemUpdateRequest struct {
	Name        *string          `json:"name"        validate:"omitempty,min=1,max=100"`
	Description *string          `json:"description" validate:"omitempty,max=500"`
	Price       *decimal.Decimal `json:"price"`
	CategoryID  *string          `json:"category_id" validate:"omitempty,min=1"`
	Available   *bool            `json:"available"`
	ImageURL    *string          `json:"image_url"`
	Emoji       *string          `json:"emoji"       validate:"omitempty,max=16"`
}

func (r itemUpdateRequest) patch() menu.ItemPatch {
	return menu.ItemPatch{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		CategoryID:  r.CategoryID,
		Available:   r.Available,
		ImageURL:    r.ImageURL,
		Emoji:       r.Emoji,
	}
}

type itemResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       float64   `json:"price"`
	CategoryID  string    `json:"category_id"`
	Available   bool      `json:"available"`
	ImageURL    *string   `json:"image_url"`
	Emoji       *string   `json:"emoji"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newItemResponse(it menu.Item) itemResponse {
	return itemResponse{
		ID:          it.ID,
		Name:        it.Name,
		Description: optional(it.Description),
		Price:       it.Price.InexactFloat64(),
		CategoryID:  it.CategoryID,
		Available:   it.Available,
		ImageURL:    optional(it.ImageURL),
		Emoji:       optional(it.Emoji),
		CreatedAt:   it.CreatedAt,
		UpdatedAt:   it.UpdatedAt,
	}
}

type registerRequest struct {
	Email    string `json:"email"     validate:"required,email"`
	FullName string `json:"full_name" validate:"max=100"`
	Password string `json:"password"  validate:"required"`
	Role     string `json:"role"      validate:"omitempty,oneof=admin staff"`
}

type tokenRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type userResponse struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	FullName *string `json:"full_name"`
	Role     string  `json:"role"`
}

func newUserResponse(id user.Identity) userResponse {
	return userResponse{
		ID:       id.ID,
		Email:    id.Email,
		FullName: optional(id.FullName),
		Role:     string(id.Role),
	}
}

type uploadResponse struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Message  string `json:"message"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
