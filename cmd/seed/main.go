package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/oksasatya/galactic-postbox/config"
	"github.com/oksasatya/galactic-postbox/internal/domain/entity"
	pginfra "github.com/oksasatya/galactic-postbox/internal/infrastructure/postgres"
	"github.com/oksasatya/galactic-postbox/pkg/helpers"
)

// seed fills the address catalog and, with -demo, two demo accounts that
// have already exchanged a letter.
func main() {
	demo := flag.Bool("demo", false, "also create demo users and a welcome letter")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	n, err := pginfra.SeedCatalog(ctx, db, entity.DefaultCatalog())
	if err != nil {
		log.Fatalf("failed to seed catalog: %v", err)
	}
	fmt.Printf("catalog: %d new entries\n", n)

	if !*demo {
		return
	}

	password := "password123"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	users := []struct{ username, email, address, movie string }{
		{"lukesky", "luke@postbox.local", "Cloud City, Bespin System", "Star Wars"},
		{"deckard", "deckard@postbox.local", "Tyrell Corporation, Los Angeles 2019", "Blade Runner"},
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		var id string
		err := db.QueryRowContext(ctx, `
			INSERT INTO users (username, email, password_hash, address, movie, address_is_custom)
			VALUES ($1, $2, $3, $4, $5, false)
			ON CONFLICT (username) DO UPDATE SET updated_at = now()
			RETURNING id::text
		`, u.username, u.email, hash, u.address, u.movie).Scan(&id)
		if err != nil {
			log.Fatalf("failed to seed user %s: %v", u.username, err)
		}
		ids = append(ids, id)
		fmt.Printf("seeded user: id=%s username=%s address=%q password=%s\n", id, u.username, u.address, password)
	}

	if _, err := db.ExecContext(ctx, `
		INSERT INTO mail (sender_id, recipient_id, recipient_address, subject, content, type, priority)
		SELECT $1, $2, $3, 'Welcome to the galaxy', 'Your postbox is ready. Write back soon!', 'letter', 'normal'
		WHERE NOT EXISTS (SELECT 1 FROM mail WHERE sender_id = $1 AND recipient_id = $2)
	`, ids[0], ids[1], users[1].address); err != nil {
		log.Fatalf("failed to seed welcome letter: %v", err)
	}
	fmt.Println("welcome letter delivered (if not already)")
}
