package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/domain"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/pkg/database"
	apperrors "github.com/tanvirarif033/denapaona.com-webapp-sub000/pkg/errors"
)

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// GetByIDs retrieves products by id. Missing ids are silently skipped.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	query := `
		SELECT id, name, slug, category_id, price, original_price,
		       discount, on_sale, sale_end_date, created_at, updated_at
		FROM products
		WHERE id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("query products by ids: %w", err)
	}
	defer rows.Close()

	var products []domain.Product

	for rows.Next() {
		var (
			p            domain.Product
			discountJSON []byte
		)
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Slug,
			&p.CategoryID,
			&p.Price,
			&p.OriginalPrice,
			&discountJSON,
			&p.OnSale,
			&p.SaleEndDate,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}

		if discountJSON != nil {
			var snap domain.DiscountSnapshot
			if err := json.Unmarshal(discountJSON, &snap); err != nil {
				return nil, fmt.Errorf("unmarshal discount snapshot: %w", err)
			}
			p.Discount = &snap
		}

		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	if products == nil {
		products = []domain.Product{}
	}

	return products, nil
}

// ListIDsByCategories returns the ids of all products in the given categories.
func (r *ProductRepository) ListIDsByCategories(ctx context.Context, categoryIDs []string) ([]string, error) {
	if len(categoryIDs) == 0 {
		return []string{}, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id FROM products WHERE category_id = ANY($1)`, categoryIDs)
	if err != nil {
		return nil, fmt.Errorf("list product ids by categories: %w", err)
	}
	defer rows.Close()

	return collectIDs(rows)
}

// ListIDsByOffer returns the ids of all products currently stamped with the
// given offer's discount snapshot.
func (r *ProductRepository) ListIDsByOffer(ctx context.Context, offerID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM products WHERE discount ->> 'offer_id' = $1`, offerID)
	if err != nil {
		return nil, fmt.Errorf("list product ids by offer: %w", err)
	}
	defer rows.Close()

	return collectIDs(rows)
}

// StampDiscount overwrites the product's discount snapshot, sale flags, and
// customer-visible price in one write. Because it is a full overwrite rather
// than a merge, stamping the same offer twice converges to the same row.
func (r *ProductRepository) StampDiscount(ctx context.Context, productID string, snap domain.DiscountSnapshot, price float64, saleEndDate time.Time) error {
	discountJSON, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal discount snapshot: %w", err)
	}

	query := `
		UPDATE products
		SET price = $1,
		    original_price = CASE WHEN original_price > 0 THEN original_price ELSE price END,
		    discount = $2,
		    on_sale = TRUE,
		    sale_end_date = $3,
		    updated_at = NOW()
		WHERE id = $4`

	ct, err := r.pool.Exec(ctx, query, price, discountJSON, saleEndDate, productID)
	if err != nil {
		return fmt.Errorf("stamp discount: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", productID)
	}

	return nil
}

// ClearDiscount removes the discount snapshot and restores the original
// price, but only when the product's snapshot still references offerID.
// A product re-stamped by a different offer in the meantime is left alone,
// which is what makes remove-after-apply safe to retry.
func (r *ProductRepository) ClearDiscount(ctx context.Context, productID, offerID string) error {
	query := `
		UPDATE products
		SET price = CASE WHEN original_price > 0 THEN original_price ELSE price END,
		    discount = NULL,
		    on_sale = FALSE,
		    sale_end_date = NULL,
		    updated_at = NOW()
		WHERE id = $1 AND discount ->> 'offer_id' = $2`

	if _, err := r.pool.Exec(ctx, query, productID, offerID); err != nil {
		return fmt.Errorf("clear discount: %w", err)
	}

	return nil
}

func collectIDs(rows pgx.Rows) ([]string, error) {
	var ids []string

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate id rows: %w", err)
	}

	if ids == nil {
		ids = []string{}
	}

	return ids, nil
}
