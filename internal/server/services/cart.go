package services

import (
	"context"
	"database/sql"
	"math"
	"strings"

	"github.com/dmitrijs2005/bookshelf/internal/common"
	"github.com/dmitrijs2005/bookshelf/internal/server/models"
	"github.com/dmitrijs2005/bookshelf/internal/server/repositories/repomanager"
)

// maxPrice is the largest value NUMERIC(10,2) holds.
const maxPrice = 99999999.99

// AddItemInput is the item being put into the cart. Price is a pointer so a
// missing price can be told apart from a free item.
type AddItemInput struct {
	ItemID     string
	Title      string
	Author     string
	Price      *float64
	ImageRef   string
	ContentRef string
}

// CartService implements the cart ledger. Every mutation is a single-row (or
// single-statement) write and runs without an explicit transaction.
type CartService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewCartService(db *sql.DB, m repomanager.RepositoryManager) *CartService {
	return &CartService{db: db, repomanager: m}
}

// List returns the cart, most recently added first.
func (s *CartService) List(ctx context.Context, userID string) ([]*models.CartItem, error) {
	items, err := s.repomanager.CartItems(s.db).List(ctx, userID)
	if err != nil {
		return nil, classify("list cart", err)
	}
	return items, nil
}

// Add inserts the item with quantity 1, or increments the quantity of an
// existing row for the same item.
func (s *CartService) Add(ctx context.Context, userID string, in AddItemInput) (models.AddOutcome, error) {
	item, err := validateItem(userID, in)
	if err != nil {
		return "", err
	}
	outcome, err := s.repomanager.CartItems(s.db).Upsert(ctx, item)
	if err != nil {
		return "", classify("add cart item", err)
	}
	return outcome, nil
}

// Remove deletes one item. A missing row is common.ErrNotFound.
func (s *CartService) Remove(ctx context.Context, userID, itemID string) error {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return common.NewValidationError("itemId", "is required")
	}
	if err := s.repomanager.CartItems(s.db).Delete(ctx, userID, itemID); err != nil {
		return classify("remove cart item", err)
	}
	return nil
}

// Clear empties the cart and reports how many rows were removed. Clearing an
// empty cart is not an error.
func (s *CartService) Clear(ctx context.Context, userID string) (int64, error) {
	n, err := s.repomanager.CartItems(s.db).DeleteAll(ctx, userID)
	if err != nil {
		return 0, classify("clear cart", err)
	}
	return n, nil
}

func validateItem(userID string, in AddItemInput) (*models.CartItem, error) {
	id := strings.TrimSpace(in.ItemID)
	title := strings.TrimSpace(in.Title)
	if id == "" {
		return nil, common.NewValidationError("id", "is required")
	}
	if title == "" {
		return nil, common.NewValidationError("title", "is required")
	}
	if in.Price == nil {
		return nil, common.NewValidationError("price", "is required")
	}
	price := *in.Price
	switch {
	case math.IsNaN(price) || math.IsInf(price, 0):
		return nil, common.NewValidationError("price", "must be a number")
	case price < 0:
		return nil, common.NewValidationError("price", "must not be negative")
	case price > maxPrice:
		return nil, common.NewValidationError("price", "is too large")
	}
	return &models.CartItem{
		UserID:     userID,
		ItemID:     id,
		Title:      title,
		Author:     strings.TrimSpace(in.Author),
		Price:      models.RoundCents(price),
		ImageRef:   in.ImageRef,
		ContentRef: in.ContentRef,
	}, nil
}
