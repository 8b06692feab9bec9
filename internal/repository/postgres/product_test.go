package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/domain"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/pkg/database"
	apperrors "github.com/tanvirarif033/denapaona.com-webapp-sub000/pkg/errors"
)

func setupProductRepo(t *testing.T) (*ProductRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	repo := NewProductRepository(mock)
	return repo, mock
}

func productColumns() []string {
	return []string{
		"id", "name", "slug", "category_id", "price", "original_price",
		"discount", "on_sale", "sale_end_date", "created_at", "updated_at",
	}
}

func TestProductRepository_GetByIDs_WithSnapshot(t *testing.T) {
	repo, mock := setupProductRepo(t)
	defer mock.Close()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	snap := domain.DiscountSnapshot{
		Type:      domain.DiscountTypePercentage,
		Value:     20,
		OfferID:   "offer-001",
		AppliedAt: now,
	}
	snapJSON, _ := json.Marshal(snap)
	saleEnd := now.Add(30 * 24 * time.Hour)

	rows := pgxmock.NewRows(productColumns()).
		AddRow("prod-100", "T-Shirt", "t-shirt", "cat-clothing", 80.0, 100.0,
			snapJSON, true, &saleEnd, now, now).
		AddRow("prod-200", "Mug", "mug", "cat-home", 15.0, 0.0,
			nil, false, nil, now, now)

	mock.ExpectQuery("SELECT .+ FROM products WHERE id = ANY").
		WithArgs([]string{"prod-100", "prod-200"}).
		WillReturnRows(rows)

	products, err := repo.GetByIDs(context.Background(), []string{"prod-100", "prod-200"})
	require.NoError(t, err)
	require.Len(t, products, 2)

	require.NotNil(t, products[0].Discount)
	assert.Equal(t, "offer-001", products[0].Discount.OfferID)
	assert.Equal(t, 20.0, products[0].Discount.Value)
	assert.True(t, products[0].OnSale)
	assert.Equal(t, 100.0, products[0].BasePrice())

	assert.Nil(t, products[1].Discount)
	assert.Equal(t, 15.0, products[1].BasePrice())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByIDs_Empty(t *testing.T) {
	repo, mock := setupProductRepo(t)
	defer mock.Close()

	products, err := repo.GetByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_ListIDsByCategories(t *testing.T) {
	repo, mock := setupProductRepo(t)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"id"}).
		AddRow("prod-100").
		AddRow("prod-101")

	mock.ExpectQuery("SELECT id FROM products WHERE category_id").
		WithArgs([]string{"cat-clothing"}).
		WillReturnRows(rows)

	ids, err := repo.ListIDsByCategories(context.Background(), []string{"cat-clothing"})
	require.NoError(t, err)
	assert.Equal(t, []string{"prod-100", "prod-101"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_ListIDsByOffer(t *testing.T) {
	repo, mock := setupProductRepo(t)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"id"}).AddRow("prod-100")

	mock.ExpectQuery("SELECT id FROM products WHERE discount").
		WithArgs("offer-001").
		WillReturnRows(rows)

	ids, err := repo.ListIDsByOffer(context.Background(), "offer-001")
	require.NoError(t, err)
	assert.Equal(t, []string{"prod-100"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_StampDiscount(t *testing.T) {
	repo, mock := setupProductRepo(t)
	defer mock.Close()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	snap := domain.DiscountSnapshot{
		Type:      domain.DiscountTypeFixed,
		Value:     5,
		OfferID:   "offer-002",
		AppliedAt: now,
	}
	snapJSON, _ := json.Marshal(snap)
	saleEnd := now.Add(7 * 24 * time.Hour)

	mock.ExpectExec("UPDATE products").
		WithArgs(45.0, snapJSON, saleEnd, "prod-100").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.StampDiscount(context.Background(), "prod-100", snap, 45.0, saleEnd)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_StampDiscount_ProductGone(t *testing.T) {
	repo, mock := setupProductRepo(t)
	defer mock.Close()

	snap := domain.DiscountSnapshot{Type: domain.DiscountTypeFixed, Value: 5, OfferID: "offer-002"}
	snapJSON, _ := json.Marshal(snap)
	saleEnd := time.Date(2025, 6, 8, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE products").
		WithArgs(45.0, snapJSON, saleEnd, "prod-gone").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.StampDiscount(context.Background(), "prod-gone", snap, 45.0, saleEnd)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_ClearDiscount_OtherOfferUntouched(t *testing.T) {
	repo, mock := setupProductRepo(t)
	defer mock.Close()

	// Zero rows affected is not an error: the product was re-stamped by a
	// different offer and must be left alone.
	mock.ExpectExec("UPDATE products").
		WithArgs("prod-100", "offer-001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.ClearDiscount(context.Background(), "prod-100", "offer-001")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
