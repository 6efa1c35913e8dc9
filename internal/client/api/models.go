package api

import "time"

type User struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Book is what the shopper puts into the cart.
type Book struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Author string  `json:"author,omitempty"`
	Price  float64 `json:"price"`
	Image  string  `json:"image,omitempty"`
	PDFURL string  `json:"pdf_url,omitempty"`
}

type CartItem struct {
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

type Cart struct {
	Items []CartItem `json:"items"`
	Total float64    `json:"total"`
}

type CheckoutResult struct {
	Message        string    `json:"message"`
	ItemsProcessed int       `json:"itemsProcessed"`
	CheckoutID     string    `json:"checkoutId"`
	Total          float64   `json:"total"`
	PurchasedAt    time.Time `json:"purchasedAt"`
}

type Purchase struct {
	ID           string    `json:"id"`
	CheckoutID   string    `json:"checkout_id"`
	ItemID       string    `json:"item_id"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	Price        float64   `json:"price"`
	Quantity     int       `json:"quantity"`
	Image        string    `json:"image"`
	ContentURL   string    `json:"content_url"`
	PurchaseDate time.Time `json:"purchase_date"`
}
