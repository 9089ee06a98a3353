package service

import (
	"context"
	"errors"

	"github.com/deppfellow/demo-backend/internal/errs"
	"github.com/deppfellow/demo-backend/internal/middleware"
	"github.com/deppfellow/demo-backend/internal/model"
	"github.com/deppfellow/demo-backend/internal/repository"
	"github.com/deppfellow/demo-backend/internal/server"
	"github.com/deppfellow/demo-backend/internal/sqlerr"
)

// ItemCache is the optional Redis mirror of single items. It is written
// after storage answers and never read on the request path.
type ItemCache interface {
	SetItem(ctx context.Context, item *model.Item) error
	DeleteItem(ctx context.Context, id int64) error
}

type ItemService struct {
	server *server.Server
	repo   repository.ItemRepository
	cache  ItemCache
}

// NewItemService builds the service. cache may be nil.
func NewItemService(s *server.Server, repo repository.ItemRepository, cache ItemCache) *ItemService {
	return &ItemService{
		server: s,
		repo:   repo,
		cache:  cache,
	}
}

func (s *ItemService) ListItems(ctx context.Context) ([]model.Item, error) {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}
	return items, nil
}

// GetItem always asks storage, so a reset database or an outage shows up
// as 404 or 500 right away whatever the mirror holds.
func (s *ItemService) GetItem(ctx context.Context, id int64) (*model.Item, error) {
	item, err := s.repo.GetItem(ctx, id)
	if errors.Is(err, repository.ErrItemNotFound) {
		s.forget(ctx, id)
		return nil, errs.NewNotFoundError("Item not found", false, nil)
	}
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}

	s.remember(ctx, item)
	return item, nil
}

func (s *ItemService) CreateItem(ctx context.Context, payload *model.CreateItemPayload) (*model.Item, error) {
	item, err := s.repo.CreateItem(ctx, payload.ToNewItem())
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}

	s.remember(ctx, item)
	return item, nil
}

// Seed inserts model.SeedItems when the table is empty. It returns the
// number of rows written; errors are left to the caller to log.
//
// A populated table is detected without taking the seed lock; SeedItems
// checks again under it.
func (s *ItemService) Seed(ctx context.Context) (int64, error) {
	count, err := s.repo.CountItems(ctx)
	if err != nil {
		return 0, err
	}

	var inserted int64
	if count == 0 {
		if inserted, err = s.repo.SeedItems(ctx, model.SeedItems); err != nil {
			return 0, err
		}
	}

	if inserted == 0 {
		s.server.Logger.Info().Msg("data_items already populated, skipping seed")
	} else {
		s.server.Logger.Info().Int64("rows", inserted).Msg("seeded data_items")
	}
	return inserted, nil
}

func (s *ItemService) remember(ctx context.Context, item *model.Item) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetItem(ctx, item); err != nil {
		middleware.LoggerFromContext(ctx).Warn().Err(err).Int64("item_id", item.ID).Msg("item cache write failed")
	}
}

func (s *ItemService) forget(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteItem(ctx, id); err != nil {
		middleware.LoggerFromContext(ctx).Warn().Err(err).Int64("item_id", id).Msg("item cache delete failed")
	}
}
