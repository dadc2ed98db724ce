package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/oksasatya/galactic-postbox/internal/domain/entity"
)

// SeedCatalog inserts catalog entries in one transaction, leaving existing
// addresses untouched. It returns the number of rows inserted.
func SeedCatalog(ctx context.Context, db *sql.DB, entries []entity.Address) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	inserted := 0
	for _, e := range entries {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO addresses (address, movie, is_custom, is_active)
			VALUES ($1, $2, FALSE, $3)
			ON CONFLICT (address) DO NOTHING
		`, e.Address, e.Movie, e.IsActive)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("seed %q: %w", e.Address, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			_ = tx.Rollback()
			return 0, err
		}
		inserted += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}
