package models

import "time"

// PurchaseRecord is an append-only copy of a cart row taken at checkout.
// Rows written by the same checkout share CheckoutID and PurchasedAt.
type PurchaseRecord struct {
	ID          string
	CheckoutID  string
	UserID      string
	ItemID      string
	Title       string
	Author      string
	Price       float64
	Quantity    int
	ImageRef    string
	ContentRef  string
	PurchasedAt time.Time

	// ContentURL is resolved at read time and is not stored.
	ContentURL string
}

// NewPurchaseRecord copies item into a purchase belonging to checkoutID.
func NewPurchaseRecord(id, checkoutID string, item *CartItem, at time.Time) *PurchaseRecord {
	return &PurchaseRecord{
		ID:          id,
		CheckoutID:  checkoutID,
		UserID:      item.UserID,
		ItemID:      item.ItemID,
		Title:       item.Title,
		Author:      item.Author,
		Price:       item.Price,
		Quantity:    item.Quantity,
		ImageRef:    item.ImageRef,
		ContentRef:  item.ContentRef,
		PurchasedAt: at,
	}
}

// CheckoutResult summarises a committed checkout.
type CheckoutResult struct {
	CheckoutID     string
	ItemsProcessed int
	Total          float64
	PurchasedAt    time.Time
}
