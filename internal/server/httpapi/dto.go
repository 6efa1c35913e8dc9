package httpapi

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/dmitrijs2005/bookshelf/internal/server/models"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userDTO struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type authResponse struct {
	Token string  `json:"token"`
	User  userDTO `json:"user"`
}

type profileResponse struct {
	User userDTO `json:"user"`
}

type profileUpdateRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// itemID is a catalog id. Catalog clients send it either as a JSON string or
// as a JSON number; numbers keep their literal text.
type itemID string

func (id *itemID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = itemID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("id must be a string or a number")
	}
	*id = itemID(n.String())
	return nil
}

type addToCartRequest struct {
	ID     itemID   `json:"id"`
	Title  string   `json:"title"`
	Author string   `json:"author"`
	Price  *float64 `json:"price"`
	Image  string   `json:"image"`
	PDFURL string   `json:"pdf_url"`
}

type cartItemDTO struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Author   string    `json:"author"`
	Price    float64   `json:"price"`
	Quantity int       `json:"quantity"`
	Subtotal float64   `json:"subtotal"`
	Image    string    `json:"image"`
	PDFURL   string    `json:"pdf_url"`
	AddedAt  time.Time `json:"added_at"`
}

type cartResponse struct {
	Items []cartItemDTO `json:"items"`
	Total float64       `json:"total"`
}

type cartAddResponse struct {
	Status string `json:"status"`
}

type cartClearResponse struct {
	Removed int64 `json:"removed"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type checkoutResponse struct {
	Message        string    `json:"message"`
	ItemsProcessed int       `json:"itemsProcessed"`
	CheckoutID     string    `json:"checkoutId"`
	Total          float64   `json:"total"`
	PurchasedAt    time.Time `json:"purchasedAt"`
}

type purchaseDTO struct {
	ID           string    `json:"id"`
	CheckoutID   string    `json:"checkout_id"`
	ItemID       string    `json:"item_id"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	Price        float64   `json:"price"`
	Quantity     int       `json:"quantity"`
	Image        string    `json:"image"`
	ContentURL   string    `json:"content_url,omitempty"`
	PurchaseDate time.Time `json:"purchase_date"`
}

type purchasesResponse struct {
	Books []purchaseDTO `json:"books"`
}

func newUserDTO(u *models.User, withCreated bool) userDTO {
	dto := userDTO{ID: u.ID, Name: u.Name, Email: u.Email}
	if withCreated {
		created := u.CreatedAt
		dto.CreatedAt = &created
	}
	return dto
}

func newCartResponse(items []*models.CartItem) cartResponse {
	resp := cartResponse{Items: make([]cartItemDTO, 0, len(items))}
	var total float64
	for _, it := range items {
		resp.Items = append(resp.Items, cartItemDTO{
			ID:       it.ItemID,
			Title:    it.Title,
			Author:   it.Author,
			Price:    it.Price,
			Quantity: it.Quantity,
			Subtotal: it.Subtotal(),
			Image:    it.ImageRef,
			PDFURL:   it.ContentRef,
			AddedAt:  it.CreatedAt,
		})
		total += it.Subtotal()
	}
	resp.Total = models.RoundCents(total)
	return resp
}

func newPurchasesResponse(recs []*models.PurchaseRecord) purchasesResponse {
	resp := purchasesResponse{Books: make([]purchaseDTO, 0, len(recs))}
	for _, r := range recs {
		resp.Books = append(resp.Books, purchaseDTO{
			ID:           r.ID,
			CheckoutID:   r.CheckoutID,
			ItemID:       r.ItemID,
			Title:        r.Title,
			Author:       r.Author,
			Price:        r.Price,
			Quantity:     r.Quantity,
			Image:        r.ImageRef,
			ContentURL:   r.ContentURL,
			PurchaseDate: r.PurchasedAt,
		})
	}
	return resp
}
