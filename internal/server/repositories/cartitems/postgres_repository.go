// Package cartitems persists per-user cart rows keyed by (user_id, item_id).
package cartitems

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/bookshelf/internal/common"
	"github.com/dmitrijs2005/bookshelf/internal/dbx"
	"github.com/dmitrijs2005/bookshelf/internal/server/models"
)

// PostgresRepository implements cart storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `user_id, item_id, title, author, price, quantity, image_url, pdf_url, created_at`

// List returns the user's cart, most recently added first.
func (r *PostgresRepository) List(ctx context.Context, userID string) ([]*models.CartItem, error) {
	query := `SELECT ` + selectColumns + ` FROM cart_items
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scanItems(rows)
}

// ListForUpdate returns the cart in insertion order with row locks held.
func (r *PostgresRepository) ListForUpdate(ctx context.Context, userID string) ([]*models.CartItem, error) {
	query := `SELECT ` + selectColumns + ` FROM cart_items
		WHERE user_id = $1
		ORDER BY created_at
		FOR UPDATE`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scanItems(rows)
}

// Upsert inserts item with quantity 1, or bumps the quantity of the existing
// (user_id, item_id) row. The stored title, price and refs are kept as is on
// a bump. xmax is zero only for a freshly inserted tuple.
func (r *PostgresRepository) Upsert(ctx context.Context, item *models.CartItem) (models.AddOutcome, error) {
	query := `
		INSERT INTO cart_items (user_id, item_id, title, author, price, quantity, image_url, pdf_url)
		VALUES ($1, $2, $3, $4, $5, 1, $6, $7)
		ON CONFLICT (user_id, item_id)
		DO UPDATE SET quantity = cart_items.quantity + 1
		RETURNING (xmax = 0) AS inserted`

	var inserted bool
	err := r.db.QueryRowContext(ctx, query,
		item.UserID, item.ItemID, item.Title, item.Author, item.Price, item.ImageRef, item.ContentRef,
	).Scan(&inserted)
	if err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	if inserted {
		return models.OutcomeCreated, nil
	}
	return models.OutcomeUpdated, nil
}

// Delete removes a single row. A missing row is common.ErrNotFound.
func (r *PostgresRepository) Delete(ctx context.Context, userID, itemID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND item_id = $2`, userID, itemID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) DeleteAll(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func scanItems(rows *sql.Rows) ([]*models.CartItem, error) {
	defer rows.Close()

	result := []*models.CartItem{}
	for rows.Next() {
		var item models.CartItem
		if err := rows.Scan(
			&item.UserID, &item.ItemID, &item.Title, &item.Author, &item.Price,
			&item.Quantity, &item.ImageRef, &item.ContentRef, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}
