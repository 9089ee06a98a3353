package model

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestCreateItemPayloadValidate(t *testing.T) {
	tests := []struct {
		name    string
		payload CreateItemPayload
		wantErr bool
	}{
		{"both present", CreateItemPayload{Name: ptr("a"), Description: ptr("b")}, false},
		{"empty strings allowed", CreateItemPayload{Name: ptr(""), Description: ptr("")}, false},
		{"missing name", CreateItemPayload{Description: ptr("b")}, true},
		{"missing description", CreateItemPayload{Name: ptr("a")}, true},
		{"missing both", CreateItemPayload{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if tt.wantErr {
				var verrs validator.ValidationErrors
				require.ErrorAs(t, err, &verrs)
				assert.Equal(t, "required", verrs[0].Tag())
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestGetItemRequestValidate(t *testing.T) {
	assert.NoError(t, (&GetItemRequest{ID: 1}).Validate())
	assert.Error(t, (&GetItemRequest{ID: 0}).Validate())
	assert.Error(t, (&GetItemRequest{ID: -3}).Validate())
}

func TestToNewItem(t *testing.T) {
	p := CreateItemPayload{Name: ptr("n"), Description: ptr("d")}
	assert.Equal(t, NewItem{Name: "n", Description: "d"}, p.ToNewItem())
}

func TestSeedItems(t *testing.T) {
	require.Len(t, SeedItems, 5)
	assert.Equal(t, "Sample Item 1", SeedItems[0].Name)
	assert.Equal(t, "PostgreSQL Data", SeedItems[4].Name)
	assert.Equal(t, "This shows Angular frontend connecting to FastAPI backend", SeedItems[3].Description)
}
