// Package main implements a standalone seed script that populates the
// pricing service with realistic development data. It uses direct SQL for
// the catalog read models (categories, products, users) and HTTP calls to
// the running service for offers, so the offer path exercises the same
// validation and stamping as production traffic.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func httpPost(url string, body any) (map[string]any, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal body: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	var result map[string]any
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return result, nil
}

type seedCategory struct {
	id   string
	name string
	slug string
}

type seedProduct struct {
	name  string
	slug  string
	price float64
}

var categories = []seedCategory{
	{name: "Electronics", slug: "electronics"},
	{name: "Clothing", slug: "clothing"},
	{name: "Home & Kitchen", slug: "home-kitchen"},
	{name: "Books", slug: "books"},
}

var productsByCategory = map[string][]seedProduct{
	"electronics": {
		{name: "Wireless Headphones", slug: "wireless-headphones", price: 129.99},
		{name: "Mechanical Keyboard", slug: "mechanical-keyboard", price: 89.50},
		{name: "4K Monitor", slug: "4k-monitor", price: 349.00},
		{name: "USB-C Hub", slug: "usb-c-hub", price: 39.99},
	},
	"clothing": {
		{name: "Linen Shirt", slug: "linen-shirt", price: 45.00},
		{name: "Denim Jacket", slug: "denim-jacket", price: 79.99},
		{name: "Running Shoes", slug: "running-shoes", price: 110.00},
	},
	"home-kitchen": {
		{name: "Cast Iron Skillet", slug: "cast-iron-skillet", price: 34.95},
		{name: "Pour-Over Kettle", slug: "pour-over-kettle", price: 58.00},
		{name: "Ceramic Mug Set", slug: "ceramic-mug-set", price: 24.99},
	},
	"books": {
		{name: "The Go Programming Language", slug: "the-go-programming-language", price: 32.99},
		{name: "Designing Data-Intensive Applications", slug: "designing-data-intensive-applications", price: 41.50},
	},
}

func seedCatalog(ctx context.Context, pool *pgxpool.Pool) ([]string, []string, error) {
	var categoryIDs, productIDs []string

	for i := range categories {
		c := &categories[i]
		c.id = uuid.New().String()
		_, err := pool.Exec(ctx, `
			INSERT INTO categories (id, name, slug)
			VALUES ($1, $2, $3)
			ON CONFLICT (slug) DO NOTHING`,
			c.id, c.name, c.slug)
		if err != nil {
			return nil, nil, fmt.Errorf("insert category %s: %w", c.slug, err)
		}

		// The conflict path keeps the existing row; read the id back.
		if err := pool.QueryRow(ctx,
			`SELECT id FROM categories WHERE slug = $1`, c.slug,
		).Scan(&c.id); err != nil {
			return nil, nil, fmt.Errorf("read category %s: %w", c.slug, err)
		}
		categoryIDs = append(categoryIDs, c.id)

		for _, p := range productsByCategory[c.slug] {
			id := uuid.New().String()
			_, err := pool.Exec(ctx, `
				INSERT INTO products (id, name, slug, category_id, price)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (slug) DO NOTHING`,
				id, p.name, p.slug, c.id, p.price)
			if err != nil {
				return nil, nil, fmt.Errorf("insert product %s: %w", p.slug, err)
			}
			if err := pool.QueryRow(ctx,
				`SELECT id FROM products WHERE slug = $1`, p.slug,
			).Scan(&id); err != nil {
				return nil, nil, fmt.Errorf("read product %s: %w", p.slug, err)
			}
			productIDs = append(productIDs, id)
		}
	}

	return categoryIDs, productIDs, nil
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool) error {
	users := []struct {
		email string
		name  string
		role  string
	}{
		{email: "admin@example.com", name: "Admin", role: "admin"},
		{email: "alice@example.com", name: "Alice", role: "user"},
		{email: "bob@example.com", name: "Bob", role: "user"},
	}

	for _, u := range users {
		_, err := pool.Exec(ctx, `
			INSERT INTO users (id, email, name, role)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (email) DO NOTHING`,
			uuid.New().String(), u.email, u.name, u.role)
		if err != nil {
			return fmt.Errorf("insert user %s: %w", u.email, err)
		}
	}
	return nil
}

func seedOffers(baseURL string, categoryIDs []string) error {
	now := time.Now().UTC()
	offers := []map[string]any{
		{
			"name":                  "Spring Clearance",
			"description":           "15% off the whole electronics range",
			"discount_type":         "percentage",
			"discount_value":        15,
			"applicable_categories": []string{categoryIDs[0]},
			"start_date":            now.Format(time.RFC3339),
			"end_date":              now.AddDate(0, 1, 0).Format(time.RFC3339),
		},
		{
			"name":                "Bookworm Special",
			"description":         "Five dollars off every book, capped usage",
			"discount_type":       "fixed",
			"discount_value":      5,
			"usage_limit":         200,
			"max_discount_amount": 5,
			"applicable_categories": []string{
				categoryIDs[len(categoryIDs)-1],
			},
			"start_date": now.Format(time.RFC3339),
			"end_date":   now.AddDate(0, 0, 14).Format(time.RFC3339),
		},
	}

	for _, body := range offers {
		if _, err := httpPost(baseURL+"/api/v1/offers", body); err != nil {
			return fmt.Errorf("create offer %q: %w", body["name"], err)
		}
		log.Printf("created offer %q", body["name"])
	}
	return nil
}

func main() {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		getEnv("POSTGRES_USER", "storefront"),
		getEnv("POSTGRES_PASSWORD", "storefront_secret"),
		getEnv("POSTGRES_HOST", "localhost"),
		getEnv("POSTGRES_PORT", "5432"),
		getEnv("POSTGRES_DB_NAME", "storefront_db"),
	)
	baseURL := getEnv("PRICING_URL", "http://localhost:8080")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	categoryIDs, productIDs, err := seedCatalog(ctx, pool)
	if err != nil {
		log.Fatalf("seed catalog: %v", err)
	}
	log.Printf("seeded %d categories, %d products", len(categoryIDs), len(productIDs))

	if err := seedUsers(ctx, pool); err != nil {
		log.Fatalf("seed users: %v", err)
	}
	log.Printf("seeded users")

	if err := seedOffers(baseURL, categoryIDs); err != nil {
		log.Fatalf("seed offers: %v", err)
	}

	log.Printf("seed complete")
}
