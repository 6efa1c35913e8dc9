// Package purchases stores the append-only purchase history written by checkout.
package purchases

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/bookshelf/internal/dbx"
	"github.com/dmitrijs2005/bookshelf/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create appends one purchase row. Records are never updated afterwards.
func (r *PostgresRepository) Create(ctx context.Context, rec *models.PurchaseRecord) error {
	query := `
		INSERT INTO purchased_books
			(id, checkout_id, user_id, item_id, title, author, price, quantity, image_url, pdf_url, purchase_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	res, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.CheckoutID, rec.UserID, rec.ItemID, rec.Title, rec.Author,
		rec.Price, rec.Quantity, rec.ImageRef, rec.ContentRef, rec.PurchasedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}

// ListByUser returns the user's purchases, most recent first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.PurchaseRecord, error) {
	query := `
		SELECT id, checkout_id, user_id, item_id, title, author, price, quantity, image_url, pdf_url, purchase_date
		FROM purchased_books
		WHERE user_id = $1
		ORDER BY purchase_date DESC, title`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.PurchaseRecord{}
	for rows.Next() {
		var rec models.PurchaseRecord
		if err := rows.Scan(
			&rec.ID, &rec.CheckoutID, &rec.UserID, &rec.ItemID, &rec.Title, &rec.Author,
			&rec.Price, &rec.Quantity, &rec.ImageRef, &rec.ContentRef, &rec.PurchasedAt,
		); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

// DeleteAll is used only when the owning account is removed.
func (r *PostgresRepository) DeleteAll(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM purchased_books WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
