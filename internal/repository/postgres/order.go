package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/domain"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/pkg/database"
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts an order and its line items in a single transaction.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	productIDsJSON, err := json.Marshal(o.ProductIDs)
	if err != nil {
		return fmt.Errorf("marshal product_ids: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	orderQuery := `
		INSERT INTO orders (
			id, user_id, product_ids, payment_id, payment_success,
			status, total_amount, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = tx.Exec(ctx, orderQuery,
		o.ID,
		o.UserID,
		productIDsJSON,
		o.PaymentID,
		o.PaymentSuccess,
		o.Status,
		o.TotalAmount,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, line_no, product_id, price, price_fallback)
		VALUES ($1, $2, $3, $4, $5)`

	for i, item := range o.Items {
		if _, err := tx.Exec(ctx, itemQuery, o.ID, i, item.ProductID, item.Price, item.PriceFallback); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// ListPaidBetween returns orders with a successful payment created within
// [start, end] inclusive, oldest first. Line items are loaded in a second
// query and joined in memory to keep the row shape flat.
func (r *OrderRepository) ListPaidBetween(ctx context.Context, start, end time.Time) ([]domain.Order, error) {
	query := `
		SELECT id, user_id, product_ids, payment_id, payment_success,
		       status, total_amount, created_at, updated_at
		FROM orders
		WHERE payment_success = TRUE AND created_at >= $1 AND created_at <= $2
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query paid orders: %w", err)
	}
	defer rows.Close()

	var (
		orders   []domain.Order
		orderIDs []string
	)

	for rows.Next() {
		var (
			o              domain.Order
			productIDsJSON []byte
		)
		if err := rows.Scan(
			&o.ID,
			&o.UserID,
			&productIDsJSON,
			&o.PaymentID,
			&o.PaymentSuccess,
			&o.Status,
			&o.TotalAmount,
			&o.CreatedAt,
			&o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}

		if productIDsJSON != nil {
			if err := json.Unmarshal(productIDsJSON, &o.ProductIDs); err != nil {
				return nil, fmt.Errorf("unmarshal product_ids: %w", err)
			}
		}
		if o.ProductIDs == nil {
			o.ProductIDs = []string{}
		}
		o.Items = []domain.OrderLine{}

		orders = append(orders, o)
		orderIDs = append(orderIDs, o.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	if len(orders) == 0 {
		return []domain.Order{}, nil
	}

	if err := r.attachItems(ctx, orders, orderIDs); err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *OrderRepository) attachItems(ctx context.Context, orders []domain.Order, orderIDs []string) error {
	itemQuery := `
		SELECT order_id, product_id, price, price_fallback
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, line_no`

	rows, err := r.pool.Query(ctx, itemQuery, orderIDs)
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*domain.Order, len(orders))
	for i := range orders {
		byID[orders[i].ID] = &orders[i]
	}

	for rows.Next() {
		var (
			orderID string
			line    domain.OrderLine
		)
		if err := rows.Scan(&orderID, &line.ProductID, &line.Price, &line.PriceFallback); err != nil {
			return fmt.Errorf("scan order item row: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, line)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate order item rows: %w", err)
	}

	return nil
}
