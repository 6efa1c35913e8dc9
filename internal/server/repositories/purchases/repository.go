package purchases

import (
	"context"

	"github.com/dmitrijs2005/bookshelf/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, rec *models.PurchaseRecord) error
	ListByUser(ctx context.Context, userID string) ([]*models.PurchaseRecord, error)
	DeleteAll(ctx context.Context, userID string) (int64, error)
}
