package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/domain"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/repository"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/pkg/database"
	apperrors "github.com/tanvirarif033/denapaona.com-webapp-sub000/pkg/errors"
)

const offerColumns = `id, name, slug, description, discount_type, discount_value,
	   applicable_products, applicable_categories, start_date, end_date,
	   is_active, usage_limit, used_count, min_purchase_amount,
	   max_discount_amount, created_at, updated_at`

// OfferRepository implements repository.OfferRepository using PostgreSQL.
type OfferRepository struct {
	pool database.DBTX
}

// NewOfferRepository creates a new PostgreSQL-backed offer repository.
func NewOfferRepository(pool database.DBTX) *OfferRepository {
	return &OfferRepository{pool: pool}
}

// Create inserts a new offer into the database.
func (r *OfferRepository) Create(ctx context.Context, o *domain.Offer) error {
	productsJSON, err := json.Marshal(o.ApplicableProducts)
	if err != nil {
		return fmt.Errorf("marshal applicable_products: %w", err)
	}
	categoriesJSON, err := json.Marshal(o.ApplicableCategories)
	if err != nil {
		return fmt.Errorf("marshal applicable_categories: %w", err)
	}

	query := `
		INSERT INTO offers (
			id, name, slug, description, discount_type, discount_value,
			applicable_products, applicable_categories, start_date, end_date,
			is_active, usage_limit, used_count, min_purchase_amount,
			max_discount_amount, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err = r.pool.Exec(ctx, query,
		o.ID,
		o.Name,
		o.Slug,
		o.Description,
		o.DiscountType,
		o.DiscountValue,
		productsJSON,
		categoriesJSON,
		o.StartDate,
		o.EndDate,
		o.IsActive,
		o.UsageLimit,
		o.UsedCount,
		o.MinPurchaseAmount,
		o.MaxDiscountAmount,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("offer", "slug", o.Slug)
		}
		return fmt.Errorf("insert offer: %w", err)
	}

	return nil
}

// GetByID retrieves an offer by its ID.
func (r *OfferRepository) GetByID(ctx context.Context, id string) (*domain.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1`
	return r.scanOffer(ctx, query, id)
}

// GetByIDs retrieves all offers matching the given ids.
func (r *OfferRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Offer, error) {
	if len(ids) == 0 {
		return []domain.Offer{}, nil
	}

	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("query offers by ids: %w", err)
	}
	defer rows.Close()

	return collectOffers(rows)
}

// List returns offers matching the given filter with the total count.
func (r *OfferRepository) List(ctx context.Context, filter repository.OfferFilter) ([]domain.Offer, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argIndex))
		args = append(args, *filter.Active)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM offers
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		offerColumns, whereClause, argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()

	var (
		offers     []domain.Offer
		totalCount int
	)

	for rows.Next() {
		o, count, err := scanOfferRow(rows, true)
		if err != nil {
			return nil, 0, err
		}
		totalCount = count
		offers = append(offers, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate offer rows: %w", err)
	}

	if offers == nil {
		offers = []domain.Offer{}
	}

	return offers, totalCount, nil
}

// Update modifies an existing offer in the database.
func (r *OfferRepository) Update(ctx context.Context, o *domain.Offer) error {
	productsJSON, err := json.Marshal(o.ApplicableProducts)
	if err != nil {
		return fmt.Errorf("marshal applicable_products: %w", err)
	}
	categoriesJSON, err := json.Marshal(o.ApplicableCategories)
	if err != nil {
		return fmt.Errorf("marshal applicable_categories: %w", err)
	}

	o.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE offers
		SET name = $1, slug = $2, description = $3, discount_type = $4,
		    discount_value = $5, applicable_products = $6,
		    applicable_categories = $7, start_date = $8, end_date = $9,
		    is_active = $10, usage_limit = $11, min_purchase_amount = $12,
		    max_discount_amount = $13, updated_at = $14
		WHERE id = $15`

	ct, err := r.pool.Exec(ctx, query,
		o.Name,
		o.Slug,
		o.Description,
		o.DiscountType,
		o.DiscountValue,
		productsJSON,
		categoriesJSON,
		o.StartDate,
		o.EndDate,
		o.IsActive,
		o.UsageLimit,
		o.MinPurchaseAmount,
		o.MaxDiscountAmount,
		o.UpdatedAt,
		o.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("offer", "slug", o.Slug)
		}
		return fmt.Errorf("update offer: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("offer", o.ID)
	}

	return nil
}

// Delete removes an offer by its id.
func (r *OfferRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM offers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete offer: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("offer", id)
	}

	return nil
}

// IncrementUsage atomically increments the used_count of an offer. The
// increment happens in the database, not read-modify-write, so concurrent
// checkouts cannot lose updates.
func (r *OfferRepository) IncrementUsage(ctx context.Context, id string) error {
	query := `
		UPDATE offers
		SET used_count = used_count + 1, updated_at = NOW()
		WHERE id = $1`

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("increment offer usage: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("offer", id)
	}

	return nil
}

// scanOffer is a helper that executes a query expected to return a single offer row.
func (r *OfferRepository) scanOffer(ctx context.Context, query string, args ...any) (*domain.Offer, error) {
	var (
		o              domain.Offer
		productsJSON   []byte
		categoriesJSON []byte
	)

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&o.ID,
		&o.Name,
		&o.Slug,
		&o.Description,
		&o.DiscountType,
		&o.DiscountValue,
		&productsJSON,
		&categoriesJSON,
		&o.StartDate,
		&o.EndDate,
		&o.IsActive,
		&o.UsageLimit,
		&o.UsedCount,
		&o.MinPurchaseAmount,
		&o.MaxDiscountAmount,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan offer: %w", err)
	}

	if err := unmarshalOfferScopes(&o, productsJSON, categoriesJSON); err != nil {
		return nil, err
	}

	return &o, nil
}

func collectOffers(rows pgx.Rows) ([]domain.Offer, error) {
	var offers []domain.Offer

	for rows.Next() {
		o, _, err := scanOfferRow(rows, false)
		if err != nil {
			return nil, err
		}
		offers = append(offers, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate offer rows: %w", err)
	}

	if offers == nil {
		offers = []domain.Offer{}
	}

	return offers, nil
}

func scanOfferRow(rows pgx.Rows, withTotal bool) (*domain.Offer, int, error) {
	var (
		o              domain.Offer
		productsJSON   []byte
		categoriesJSON []byte
		totalCount     int
	)

	dest := []any{
		&o.ID,
		&o.Name,
		&o.Slug,
		&o.Description,
		&o.DiscountType,
		&o.DiscountValue,
		&productsJSON,
		&categoriesJSON,
		&o.StartDate,
		&o.EndDate,
		&o.IsActive,
		&o.UsageLimit,
		&o.UsedCount,
		&o.MinPurchaseAmount,
		&o.MaxDiscountAmount,
		&o.CreatedAt,
		&o.UpdatedAt,
	}
	if withTotal {
		dest = append(dest, &totalCount)
	}

	if err := rows.Scan(dest...); err != nil {
		return nil, 0, fmt.Errorf("scan offer row: %w", err)
	}

	if err := unmarshalOfferScopes(&o, productsJSON, categoriesJSON); err != nil {
		return nil, 0, err
	}

	return &o, totalCount, nil
}

func unmarshalOfferScopes(o *domain.Offer, productsJSON, categoriesJSON []byte) error {
	if productsJSON != nil {
		if err := json.Unmarshal(productsJSON, &o.ApplicableProducts); err != nil {
			return fmt.Errorf("unmarshal applicable_products: %w", err)
		}
	}
	if o.ApplicableProducts == nil {
		o.ApplicableProducts = []string{}
	}

	if categoriesJSON != nil {
		if err := json.Unmarshal(categoriesJSON, &o.ApplicableCategories); err != nil {
			return fmt.Errorf("unmarshal applicable_categories: %w", err)
		}
	}
	if o.ApplicableCategories == nil {
		o.ApplicableCategories = []string{}
	}

	return nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
