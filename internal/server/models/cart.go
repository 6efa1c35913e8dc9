package models

import (
	"math"
	"time"
)

// CartItem is one row of a user's cart, keyed by (UserID, ItemID).
type CartItem struct {
	UserID     string
	ItemID     string
	Title      string
	Author     string
	Price      float64
	Quantity   int
	ImageRef   string
	ContentRef string
	CreatedAt  time.Time
}

// Subtotal is Price × Quantity rounded to cents.
func (c *CartItem) Subtotal() float64 {
	return RoundCents(c.Price * float64(c.Quantity))
}

// AddOutcome reports whether an add created a row or bumped a quantity.
type AddOutcome string

const (
	OutcomeCreated AddOutcome = "created"
	OutcomeUpdated AddOutcome = "updated"
)

// RoundCents rounds v to two decimal places.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
