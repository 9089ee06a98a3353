package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/deppfellow/demo-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresItemRepository struct {
	pool *pgxpool.Pool
}

const (
	pgCountItems  = `SELECT COUNT(*) FROM data_items`
	// Conflicts with itself and with INSERT, not with SELECT.
	pgLockItems   = `LOCK TABLE data_items IN SHARE ROW EXCLUSIVE MODE`
	pgSelectItems = `SELECT id, name, description, created_at FROM data_items`
	pgInsertItem  = `
		INSERT INTO data_items (name, description)
		VALUES (@name, @description)
		RETURNING id, name, description, created_at`
)

// inTx runs fn in a transaction. The deferred rollback is a no-op once
// Commit succeeded.
func (r *postgresItemRepository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *postgresItemRepository) CountItems(ctx context.Context) (int64, error) {
	var count int64
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, pgCountItems).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}

func (r *postgresItemRepository) ListItems(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, pgSelectItems+" ORDER BY id ASC")
		if err != nil {
			return err
		}

		items, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Item])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

func (r *postgresItemRepository) GetItem(ctx context.Context, id int64) (*model.Item, error) {
	var item model.Item
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, pgSelectItems+" WHERE id = @id", pgx.NamedArgs{"id": id})
		if err != nil {
			return err
		}

		item, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Item])
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item %d: %w", id, err)
	}
	return &item, nil
}

func (r *postgresItemRepository) CreateItem(ctx context.Context, newItem model.NewItem) (*model.Item, error) {
	var item model.Item
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, pgInsertItem, pgx.NamedArgs{
			"name":        newItem.Name,
			"description": newItem.Description,
		})
		if err != nil {
			return err
		}

		item, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Item])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return &item, nil
}

func (r *postgresItemRepository) SeedItems(ctx context.Context, items []model.NewItem) (int64, error) {
	var inserted int64
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, pgLockItems); err != nil {
			return err
		}

		var count int64
		if err := tx.QueryRow(ctx, pgCountItems).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		var err error
		inserted, err = tx.CopyFrom(ctx,
			pgx.Identifier{"data_items"},
			[]string{"name", "description"},
			pgx.CopyFromSlice(len(items), func(i int) ([]any, error) {
				return []any{items[i].Name, items[i].Description}, nil
			}),
		)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to seed items: %w", err)
	}
	return inserted, nil
}
