package service

import (
	"github.com/deppfellow/demo-backend/internal/lib/cache"
	"github.com/deppfellow/demo-backend/internal/repository"
	"github.com/deppfellow/demo-backend/internal/server"
)

type Services struct {
	Items *ItemService
}

func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	var itemCache ItemCache
	if s.Redis != nil {
		itemCache = cache.NewItemCache(s.Redis, s.Config.Redis.ItemTTL)
	}

	return &Services{
		Items: NewItemService(s, repos.Items, itemCache),
	}, nil
}
