package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/bookshelf/internal/common"
	"github.com/dmitrijs2005/bookshelf/internal/dbx"
	"github.com/dmitrijs2005/bookshelf/internal/logging"
	"github.com/dmitrijs2005/bookshelf/internal/server/models"
	"github.com/dmitrijs2005/bookshelf/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// CheckoutService moves a user's whole cart into the purchase ledger as one
// transaction.
type CheckoutService struct {
	db          dbx.Beginner
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	now         func() time.Time
	newID       func() string
}

func NewCheckoutService(db dbx.Beginner, m repomanager.RepositoryManager, logger logging.Logger) *CheckoutService {
	return &CheckoutService{
		db:          db,
		repomanager: m,
		logger:      logger,
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
	}
}

// Checkout locks the cart rows, writes one purchase record per row, deletes
// exactly those rows and commits. Rows added to the cart after the lock was
// taken are not part of the checkout and stay in the cart. Any failure rolls
// the whole batch back, leaving the cart as it was.
//
// An empty cart is common.ErrEmptyCart and nothing is written. Checkout is
// never retried here; calling it again after a success reports an empty cart.
func (s *CheckoutService) Checkout(ctx context.Context, userID string) (*models.CheckoutResult, error) {
	var result *models.CheckoutResult

	err := dbx.WithTx(ctx, s.db, dbx.ReadCommitted, func(ctx context.Context, tx dbx.DBTX) error {
		cart := s.repomanager.CartItems(tx)
		ledger := s.repomanager.Purchases(tx)

		items, err := cart.ListForUpdate(ctx, userID)
		if err != nil {
			return common.StorageError("read cart", err)
		}
		if len(items) == 0 {
			return common.ErrEmptyCart
		}

		checkoutID := s.newID()
		purchasedAt := s.now().UTC()

		var total float64
		for _, item := range items {
			rec := models.NewPurchaseRecord(s.newID(), checkoutID, item, purchasedAt)
			if err := ledger.Create(ctx, rec); err != nil {
				return common.StorageError("record purchase "+item.ItemID, err)
			}
			total += item.Subtotal()
		}

		for _, item := range items {
			if err := cart.Delete(ctx, userID, item.ItemID); err != nil {
				return common.StorageError("remove cart item "+item.ItemID, err)
			}
		}

		result = &models.CheckoutResult{
			CheckoutID:     checkoutID,
			ItemsProcessed: len(items),
			Total:          models.RoundCents(total),
			PurchasedAt:    purchasedAt,
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, common.ErrEmptyCart) {
			s.logger.Debug(ctx, "checkout rejected", "user_id", userID, "kind", common.KindEmptyCart)
			return nil, err
		}
		err = classify("checkout", err)
		s.logger.Error(ctx, "checkout rolled back", "user_id", userID, "error", err)
		return nil, err
	}

	s.logger.Info(ctx, "checkout committed",
		"user_id", userID,
		"checkout_id", result.CheckoutID,
		"items", result.ItemsProcessed,
		"total", result.Total,
	)
	return result, nil
}
