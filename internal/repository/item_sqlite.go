package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/deppfellow/demo-backend/internal/model"
)

// sqliteTimeLayout is the text form created_at is written in. The driver
// parses it back into time.Time for TIMESTAMP columns.
const sqliteTimeLayout = "2006-01-02 15:04:05.999999999-07:00"

type sqliteItemRepository struct {
	db *sql.DB
}

const (
	sqliteCountItems  = `SELECT COUNT(*) FROM data_items`
	sqliteSelectItems = `SELECT id, name, description, created_at FROM data_items`
	sqliteInsertItem  = `INSERT INTO data_items (name, description, created_at) VALUES (?, ?, ?)`
)

// sqliteTime scans created_at whether the driver hands back a time.Time or
// the raw text (rows written by the column default).
type sqliteTime struct {
	time.Time
}

func (t *sqliteTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("unsupported created_at value %T", src)
	}
}

func (t *sqliteTime) parse(s string) error {
	for _, layout := range []string{sqliteTimeLayout, time.DateTime, time.RFC3339Nano} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unparseable created_at %q", s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (model.Item, error) {
	var item model.Item
	var createdAt sqliteTime
	if err := row.Scan(&item.ID, &item.Name, &item.Description, &createdAt); err != nil {
		return model.Item{}, err
	}
	item.CreatedAt = createdAt.UTC()
	return item, nil
}

func (r *sqliteItemRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *sqliteItemRepository) CountItems(ctx context.Context) (int64, error) {
	var count int64
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, sqliteCountItems).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}

func (r *sqliteItemRepository) ListItems(ctx context.Context) ([]model.Item, error) {
	items := []model.Item{}
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, sqliteSelectItems+" ORDER BY id ASC")
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			item, err := scanItem(rows)
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

func (r *sqliteItemRepository) GetItem(ctx context.Context, id int64) (*model.Item, error) {
	var item model.Item
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		item, err = scanItem(tx.QueryRowContext(ctx, sqliteSelectItems+" WHERE id = ?", id))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item %d: %w", id, err)
	}
	return &item, nil
}

func insertSQLiteItem(ctx context.Context, tx *sql.Tx, newItem model.NewItem, now time.Time) (int64, error) {
	res, err := tx.ExecContext(ctx, sqliteInsertItem,
		newItem.Name, newItem.Description, now.UTC().Format(sqliteTimeLayout))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *sqliteItemRepository) CreateItem(ctx context.Context, newItem model.NewItem) (*model.Item, error) {
	var item model.Item
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		id, err := insertSQLiteItem(ctx, tx, newItem, time.Now())
		if err != nil {
			return err
		}

		item, err = scanItem(tx.QueryRowContext(ctx, sqliteSelectItems+" WHERE id = ?", id))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return &item, nil
}

func (r *sqliteItemRepository) SeedItems(ctx context.Context, items []model.NewItem) (int64, error) {
	var inserted int64
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		var count int64
		if err := tx.QueryRowContext(ctx, sqliteCountItems).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now()
		for _, item := range items {
			if _, err := insertSQLiteItem(ctx, tx, item, now); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to seed items: %w", err)
	}
	return inserted, nil
}
