package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer conn.Close(ctx)

	if err := conn.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedUsers(ctx, conn)
	seedProducts(ctx, conn)
	seedCoupons(ctx, conn)
	seedTestimonials(ctx, conn)

	log.Println("Seeding completed successfully!")
}

func seedUsers(ctx context.Context, conn *pgx.Conn) {
	users := []struct {
		Name  string
		Email string
		Role  string
	}{
		{"Meadowline Admin", "admin@meadowline.in", "admin"},
		{"Asha Patil", "asha@example.com", "customer"},
		{"Ravi Deshmukh", "ravi@example.com", "customer"},
		{"Sunita Kulkarni", "sunita@example.com", "customer"},
		{"Vikram Joshi", "vikram@example.com", "customer"},
	}

	hash, err := argon2id.CreateHash("password123", argon2id.DefaultParams)
	if err != nil {
		log.Fatalf("Failed to hash seed password: %v", err)
	}

	fmt.Println("Seeding Users...")
	for _, u := range users {
		_, err := conn.Exec(ctx, `
			INSERT INTO users (name, email, password_hash, role)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (email) DO NOTHING;
		`, u.Name, u.Email, hash, u.Role)
		if err != nil {
			log.Printf("Failed to seed user %s: %v", u.Email, err)
		}
	}
}

type variant struct {
	Size       string `json:"size"`
	PriceMinor int64  `json:"price_minor"`
}

func seedProducts(ctx context.Context, conn *pgx.Conn) {
	products := []struct {
		Name        string
		Slug        string
		Category    string
		Description string
		Image       string
		Variants    []variant
	}{
		{
			"Fresh Cow Milk", "fresh-cow-milk", "milk",
			"Farm-fresh A2 cow milk, delivered chilled the same morning.",
			"https://images.unsplash.com/photo-1550583724-b2692b85b150?w=800",
			[]variant{{"500ml", 3500}, {"1L", 6500}},
		},
		{
			"Buffalo Milk", "buffalo-milk", "milk",
			"Creamy full-fat buffalo milk, ideal for tea and sweets.",
			"https://images.unsplash.com/photo-1563636619-e9143da7973b?w=800",
			[]variant{{"500ml", 4000}, {"1L", 7500}},
		},
		{
			"Desi Ghee", "desi-ghee", "ghee",
			"Slow-churned bilona ghee from grass-fed cows.",
			"https://images.unsplash.com/photo-1631452180519-c014fe946bc7?w=800",
			[]variant{{"250g", 32500}, {"500g", 62500}, {"1kg", 120000}},
		},
		{
			"Fresh Paneer", "fresh-paneer", "paneer",
			"Soft malai paneer made daily in small batches.",
			"https://images.unsplash.com/photo-1567337710282-00832b415979?w=800",
			[]variant{{"200g", 9000}, {"500g", 21000}},
		},
		{
			"Curd", "curd", "curd",
			"Thick set curd cultured overnight in earthen pots.",
			"https://images.unsplash.com/photo-1571212515416-fef01fc43637?w=800",
			[]variant{{"400g", 4500}, {"1kg", 10000}},
		},
		{
			"Salted Butter", "salted-butter", "butter",
			"Hand-churned white butter with a pinch of rock salt.",
			"https://images.unsplash.com/photo-1589985270826-4b7bb135bc9d?w=800",
			[]variant{{"200g", 14000}, {"500g", 32000}},
		},
		{
			"Buttermilk", "buttermilk", "curd",
			"Spiced chaas churned fresh from cultured curd.",
			"https://images.unsplash.com/photo-1626200419199-391ae4be7a41?w=800",
			[]variant{{"500ml", 2500}, {"1L", 4500}},
		},
	}

	fmt.Println("Seeding Products...")
	for _, p := range products {
		variantsJSON, err := json.Marshal(p.Variants)
		if err != nil {
			log.Printf("Failed to encode variants for %s: %v", p.Name, err)
			continue
		}
		imagesJSON, err := json.Marshal([]string{p.Image})
		if err != nil {
			log.Printf("Failed to encode images for %s: %v", p.Name, err)
			continue
		}

		_, err = conn.Exec(ctx, `
			INSERT INTO products (name, slug, description, category, image_urls, variants, in_stock)
			VALUES ($1, $2, $3, $4, $5, $6, true)
			ON CONFLICT (slug) DO UPDATE SET
				name = EXCLUDED.name,
				description = EXCLUDED.description,
				category = EXCLUDED.category,
				image_urls = EXCLUDED.image_urls,
				variants = EXCLUDED.variants;
		`, p.Name, p.Slug, p.Description, p.Category, variantsJSON, imagesJSON)
		if err != nil {
			log.Printf("Failed to seed product %s: %v", p.Name, err)
		}
	}
}

func seedCoupons(ctx context.Context, conn *pgx.Conn) {
	nextYear := time.Now().AddDate(1, 0, 0)
	ghee := `["desi-ghee"]`

	coupons := []struct {
		Code       string
		PercentBps int32
		Scope      string
		ExpiresAt  *time.Time
		AppliesTo  string
	}{
		{"WELCOME10", 1000, "cart", &nextYear, "[]"},
		{"MILK5", 500, "cart", nil, "[]"},
		{"GHEE15", 1500, "product", &nextYear, ghee},
	}

	fmt.Println("Seeding Coupons...")
	for _, c := range coupons {
		_, err := conn.Exec(ctx, `
			INSERT INTO coupons (code, percent_bps, scope, active, expires_at, applies_to)
			VALUES ($1, $2, $3, true, $4, $5)
			ON CONFLICT (code) DO UPDATE SET
				percent_bps = EXCLUDED.percent_bps,
				scope = EXCLUDED.scope,
				expires_at = EXCLUDED.expires_at,
				applies_to = EXCLUDED.applies_to;
		`, c.Code, c.PercentBps, c.Scope, c.ExpiresAt, c.AppliesTo)
		if err != nil {
			log.Printf("Failed to seed coupon %s: %v", c.Code, err)
		}
	}
}

func seedTestimonials(ctx context.Context, conn *pgx.Conn) {
	testimonials := []struct {
		Name    string
		Message string
		Rating  int
	}{
		{"Asha Patil", "The morning milk delivery has been spot on for six months straight.", 5},
		{"Ravi Deshmukh", "Best ghee I have found outside my grandmother's kitchen.", 5},
		{"Sunita Kulkarni", "Paneer is fresh and soft, though I wish the 500g pack restocked faster.", 4},
	}

	fmt.Println("Seeding Testimonials...")
	for _, t := range testimonials {
		_, err := conn.Exec(ctx, `
			INSERT INTO testimonials (name, message, rating, approved)
			SELECT $1, $2, $3, true
			WHERE NOT EXISTS (SELECT 1 FROM testimonials WHERE name = $1 AND message = $2);
		`, t.Name, t.Message, t.Rating)
		if err != nil {
			log.Printf("Failed to seed testimonial from %s: %v", t.Name, err)
		}
	}
}
