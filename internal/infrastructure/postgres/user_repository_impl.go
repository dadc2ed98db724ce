package postgres

import (
	"context"
	"strings"

	"github.com/oksasatya/galactic-postbox/internal/domain/entity"
	"github.com/oksasatya/galactic-postbox/internal/domain/repository"
)

const userColumns = `id::text, username, email, password_hash, address, movie, address_is_custom, created_at, updated_at`

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts the user and, for custom addresses, records the address in
// the catalog within the same transaction.
func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	u.Email = strings.ToLower(u.Email)
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	// no-op once committed
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, address, movie, address_is_custom)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id::text, created_at, updated_at
	`, u.Username, u.Email, u.PasswordHash, u.Address.Address, u.Address.Movie, u.Address.IsCustom)
	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return mapError(err)
	}

	if u.Address.IsCustom {
		if _, err := tx.Exec(ctx, `
			INSERT INTO addresses (address, movie, is_custom, created_by)
			VALUES ($1, $2, TRUE, $3)
			ON CONFLICT (address) DO NOTHING
		`, u.Address.Address, u.Address.Movie, u.ID); err != nil {
			return mapError(err)
		}
	}
	// deferred unique checks surface at commit
	return mapError(tx.Commit(ctx))
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*entity.User, error) {
	u := &entity.User{}
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where+` = $1`, arg)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.Address.Address, &u.Address.Movie, &u.Address.IsCustom,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, mapError(err)
	}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, "id", id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.getOne(ctx, "username", username)
}

func (r *UserRepository) GetByAddress(ctx context.Context, address string) (*entity.User, error) {
	return r.getOne(ctx, "address", address)
}

func (r *UserRepository) FindConflict(ctx context.Context, username, email, address string) (string, error) {
	var field string
	err := r.db.QueryRow(ctx, `
		SELECT CASE
			WHEN username = $1 THEN 'username'
			WHEN email = $2 THEN 'email'
			ELSE 'address'
		END
		FROM users
		WHERE username = $1 OR email = $2 OR address = $3
		ORDER BY CASE WHEN username = $1 THEN 0 WHEN email = $2 THEN 1 ELSE 2 END
		LIMIT 1
	`, username, strings.ToLower(email), address).Scan(&field)
	if err != nil {
		if err = mapError(err); err == repository.ErrNotFound {
			return "", nil
		}
		return "", err
	}
	return field, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
