package postgres

import (
	"context"
	"strings"

	"github.com/oksasatya/galactic-postbox/internal/domain/entity"
	"github.com/oksasatya/galactic-postbox/internal/domain/repository"
)

const addressColumns = `a.id::text, a.address, a.movie, a.is_custom, COALESCE(a.created_by::text, ''), a.is_active, a.created_at, a.updated_at`

type AddressRepository struct {
	db DB
}

func NewAddressRepository(db DB) *AddressRepository {
	return &AddressRepository{db: db}
}

func (r *AddressRepository) ListCatalog(ctx context.Context) ([]entity.CatalogEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+addressColumns+`, EXISTS (SELECT 1 FROM users u WHERE u.address = a.address)
		FROM addresses a
		WHERE a.is_active AND NOT a.is_custom
		ORDER BY a.movie, a.address
	`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := []entity.CatalogEntry{}
	for rows.Next() {
		var e entity.CatalogEntry
		if err := rows.Scan(&e.ID, &e.Address.Address, &e.Movie, &e.IsCustom, &e.CreatedBy,
			&e.IsActive, &e.CreatedAt, &e.UpdatedAt, &e.Taken); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, mapError(rows.Err())
}

func (r *AddressRepository) GetByAddress(ctx context.Context, address string) (*entity.Address, error) {
	a := &entity.Address{}
	err := r.db.QueryRow(ctx, `SELECT `+addressColumns+` FROM addresses a WHERE a.address = $1`, address).
		Scan(&a.ID, &a.Address, &a.Movie, &a.IsCustom, &a.CreatedBy, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return a, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchRegistered is the store fallback for directory search when
// Elasticsearch is not configured.
func (r *AddressRepository) SearchRegistered(ctx context.Context, q string, limit int) ([]entity.DirectoryEntry, error) {
	pattern := "%" + likeEscaper.Replace(strings.TrimSpace(q)) + "%"
	rows, err := r.db.Query(ctx, `
		SELECT address, movie, username, address_is_custom
		FROM users
		WHERE address ILIKE $1 OR movie ILIKE $1
		ORDER BY address
		LIMIT $2
	`, pattern, limit)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := []entity.DirectoryEntry{}
	for rows.Next() {
		var e entity.DirectoryEntry
		if err := rows.Scan(&e.Address, &e.Movie, &e.Username, &e.IsCustom); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, mapError(rows.Err())
}

var _ repository.AddressRepository = (*AddressRepository)(nil)
