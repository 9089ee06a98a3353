// Package repository handles all interactions with the database.
//
// It contains raw SQL queries and methods to fetch and persist
// data, abstracting SQL logic away from the service layer. Every
// method runs inside its own transaction that is rolled back on
// any early return.
package repository

import (
	"context"
	"errors"

	"github.com/deppfellow/demo-backend/internal/config"
	"github.com/deppfellow/demo-backend/internal/database"
	"github.com/deppfellow/demo-backend/internal/model"
)

// ErrItemNotFound is returned by GetItem when no row has the requested id.
var ErrItemNotFound = errors.New("item not found")

// ItemRepository is the storage contract for data_items.
type ItemRepository interface {
	// CountItems returns the number of rows in data_items.
	CountItems(ctx context.Context) (int64, error)

	// ListItems returns every row ordered by id ascending.
	ListItems(ctx context.Context) ([]model.Item, error)

	// GetItem returns ErrItemNotFound when the id does not exist.
	GetItem(ctx context.Context, id int64) (*model.Item, error)

	// CreateItem inserts one row and returns it with the server-assigned
	// id and created_at.
	CreateItem(ctx context.Context, item model.NewItem) (*model.Item, error)

	// SeedItems inserts items only when the table is empty. The count and
	// the inserts share one transaction; the returned number is 0 when the
	// table already had rows.
	SeedItems(ctx context.Context, items []model.NewItem) (int64, error)
}

// NewItemRepository picks the implementation matching the database driver.
func NewItemRepository(db *database.Database) (ItemRepository, error) {
	switch db.Driver {
	case config.DriverPostgres:
		return &postgresItemRepository{pool: db.Pool}, nil
	case config.DriverSQLite:
		return &sqliteItemRepository{db: db.SQL}, nil
	default:
		return nil, errors.New("repository: unsupported database driver " + string(db.Driver))
	}
}
