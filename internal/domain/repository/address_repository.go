package repository

import (
	"context"

	"github.com/oksasatya/galactic-postbox/internal/domain/entity"
)

// AddressRepository reads the address catalog and the registered directory.
type AddressRepository interface {
	ListCatalog(ctx context.Context) ([]entity.CatalogEntry, error)
	GetByAddress(ctx context.Context, address string) (*entity.Address, error)
	SearchRegistered(ctx context.Context, q string, limit int) ([]entity.DirectoryEntry, error)
}
