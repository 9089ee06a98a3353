// Package model holds the record and wire types shared by the
// repository, service and handler layers.
package model

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Item is one row of data_items. It is also the response body for every
// item endpoint.
type Item struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// CreateItemPayload is the body of POST /api/data.
//
// Fields are pointers so a missing or null field can be told apart from an
// empty string; only the former is rejected.
type CreateItemPayload struct {
	Name        *string `json:"name" validate:"required"`
	Description *string `json:"description" validate:"required"`
}

func (p *CreateItemPayload) Validate() error {
	return validate.Struct(p)
}

// NewItem is the storage-facing form of a validated payload.
type NewItem struct {
	Name        string
	Description string
}

// ToNewItem assumes Validate already passed.
func (p *CreateItemPayload) ToNewItem() NewItem {
	return NewItem{Name: *p.Name, Description: *p.Description}
}

// GetItemRequest carries the :id path parameter of GET /api/data/:id.
type GetItemRequest struct {
	ID int64 `param:"id" validate:"required,min=1"`
}

func (r *GetItemRequest) Validate() error {
	return validate.Struct(r)
}

// ListItemsRequest has no inputs; it exists so the list route runs through
// the same handler pipeline as the others.
type ListItemsRequest struct{}

func (r *ListItemsRequest) Validate() error {
	return nil
}

// SeedItems are inserted on startup when data_items is empty.
var SeedItems = []NewItem{
	{Name: "Sample Item 1", Description: "This is the first sample item from the database"},
	{Name: "Sample Item 2", Description: "This is the second sample item from the database"},
	{Name: "Docker Demo", Description: "This item demonstrates the Docker Compose setup"},
	{Name: "Angular Integration", Description: "This shows Angular frontend connecting to FastAPI backend"},
	{Name: "PostgreSQL Data", Description: "This data is stored in PostgreSQL database"},
}
