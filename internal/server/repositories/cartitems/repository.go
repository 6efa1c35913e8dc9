package cartitems

import (
	"context"

	"github.com/dmitrijs2005/bookshelf/internal/server/models"
)

type Repository interface {
	List(ctx context.Context, userID string) ([]*models.CartItem, error)
	Upsert(ctx context.Context, item *models.CartItem) (models.AddOutcome, error)
	Delete(ctx context.Context, userID, itemID string) error
	DeleteAll(ctx context.Context, userID string) (int64, error)
	// ListForUpdate reads the cart and locks its rows until the enclosing
	// transaction ends. Only meaningful on a *sql.Tx.
	ListForUpdate(ctx context.Context, userID string) ([]*models.CartItem, error)
}
