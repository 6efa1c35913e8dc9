package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/bookshelf/internal/logging"
	"github.com/dmitrijs2005/bookshelf/internal/server/models"
	"github.com/dmitrijs2005/bookshelf/internal/server/repositories/repomanager"
)

// ContentLinker turns a stored content reference into a URL the client can
// download from.
type ContentLinker interface {
	ContentURL(ctx context.Context, ref string) (string, error)
}

// PurchaseService reads the purchase ledger. It never writes; only
// CheckoutService appends purchases.
type PurchaseService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	links       ContentLinker
	logger      logging.Logger
}

// NewPurchaseService constructs a PurchaseService. links may be nil, in which
// case content references are returned unchanged.
func NewPurchaseService(db *sql.DB, m repomanager.RepositoryManager, links ContentLinker, logger logging.Logger) *PurchaseService {
	return &PurchaseService{db: db, repomanager: m, links: links, logger: logger}
}

// List returns the user's purchases, most recent first, with ContentURL
// resolved. A record whose link cannot be produced is still returned, with an
// empty ContentURL.
func (s *PurchaseService) List(ctx context.Context, userID string) ([]*models.PurchaseRecord, error) {
	records, err := s.repomanager.Purchases(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, classify("list purchases", err)
	}

	for _, rec := range records {
		if rec.ContentRef == "" {
			continue
		}
		if s.links == nil {
			rec.ContentURL = rec.ContentRef
			continue
		}
		url, err := s.links.ContentURL(ctx, rec.ContentRef)
		if err != nil {
			s.logger.Warn(ctx, "content link failed", "item_id", rec.ItemID, "error", err)
			continue
		}
		rec.ContentURL = url
	}
	return records, nil
}
