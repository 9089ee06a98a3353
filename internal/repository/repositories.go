package repository

import (
	"github.com/deppfellow/demo-backend/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Items ItemRepository
}

// NewRepositories builds every repository on top of s.DB.
func NewRepositories(s *server.Server) (*Repositories, error) {
	items, err := NewItemRepository(s.DB)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Items: items,
	}, nil
}
