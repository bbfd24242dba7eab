// Package catalog lists the services a lead can request.
package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Offering is one entry of the catalog, referenced by slug.
type Offering struct {
	ID          int64           `json:"id"`
	Slug        string          `json:"slug"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	BasePrice   decimal.Decimal `json:"base_price"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CreateServiceRequest registers a new catalog entry.
type CreateServiceRequest struct {
	Slug        string          `json:"slug" validate:"required,max=64,lowercase"`
	Name        string          `json:"name" validate:"required,max=120"`
	Description string          `json:"description" validate:"max=1000"`
	BasePrice   decimal.Decimal `json:"base_price" validate:"gte=0"`
}

// UpdateServiceRequest changes the fields that are set. The slug never
// changes since leads reference it.
type UpdateServiceRequest struct {
	Name        *string          `json:"name" validate:"omitempty,max=120"`
	Description *string          `json:"description" validate:"omitempty,max=1000"`
	BasePrice   *decimal.Decimal `json:"base_price"`
	Active      *bool            `json:"active"`
}
