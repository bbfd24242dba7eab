// Package regions holds the immutable per-region business configuration
// consumed by pricing, code generation and warranty vigency.
package regions

import (
	"context"
	"errors"
	"fmt"
	"time"
	// Embedded zone database: code periods and expiry dates follow the region
	// clock even on images without /usr/share/zoneinfo.
	_ "time/tzdata"

	"github.com/shopspring/decimal"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
)

// Region is the configuration of one operating region.
type Region struct {
	ID           int64           `json:"id" yaml:"id"`
	Code         string          `json:"code" yaml:"code"`
	Name         string          `json:"name" yaml:"name"`
	TaxPercent   decimal.Decimal `json:"tax_percent" yaml:"tax_percent"`
	AdvancePct   decimal.Decimal `json:"advance_percent" yaml:"advance_percent"`
	WarrantyDays int             `json:"warranty_days" yaml:"warranty_days"`
	Currency     string          `json:"currency" yaml:"currency"`
	Timezone     string          `json:"timezone" yaml:"timezone"`

	loc *time.Location
}

// Default is the seeded Quito region.
func Default() Region {
	return Region{
		ID:           1,
		Code:         "UIO",
		Name:         "Quito",
		TaxPercent:   decimal.NewFromInt(15),
		AdvancePct:   decimal.NewFromInt(30),
		WarrantyDays: 90,
		Currency:     "USD",
		Timezone:     "America/Guayaquil",
	}
}

// TaxRate returns the tax percentage as a fraction.
func (r Region) TaxRate() decimal.Decimal {
	return r.TaxPercent.Div(decimal.NewFromInt(100))
}

// AdvanceRate returns the advance percentage as a fraction.
func (r Region) AdvanceRate() decimal.Decimal {
	return r.AdvancePct.Div(decimal.NewFromInt(100))
}

// Location returns the region time zone, UTC when unset or unknown.
func (r Region) Location() *time.Location {
	if r.loc != nil {
		return r.loc
	}
	if r.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (r *Region) validate() error {
	switch {
	case r.ID <= 0:
		return fmt.Errorf("%w: region id must be positive", shared.ErrValidation)
	case r.Code == "":
		return fmt.Errorf("%w: region %d: code required", shared.ErrValidation, r.ID)
	case r.TaxPercent.IsNegative() || r.TaxPercent.GreaterThan(decimal.NewFromInt(100)):
		return fmt.Errorf("%w: region %s: tax_percent out of range", shared.ErrValidation, r.Code)
	case r.AdvancePct.IsNegative() || r.AdvancePct.GreaterThan(decimal.NewFromInt(100)):
		return fmt.Errorf("%w: region %s: advance_percent out of range", shared.ErrValidation, r.Code)
	case r.WarrantyDays < 0:
		return fmt.Errorf("%w: region %s: warranty_days must not be negative", shared.ErrValidation, r.Code)
	}
	if r.Currency == "" {
		r.Currency = "USD"
	}
	if r.Timezone != "" {
		loc, err := time.LoadLocation(r.Timezone)
		if err != nil {
			return fmt.Errorf("%w: region %s: timezone: %v", shared.ErrValidation, r.Code, err)
		}
		r.loc = loc
	}
	return nil
}

type regionContextKey struct{}

// WithContext stores the request region in context.
func WithContext(ctx context.Context, region Region) context.Context {
	return context.WithValue(ctx, regionContextKey{}, region)
}

// FromContext extracts the request region from context.
func FromContext(ctx context.Context) (Region, bool) {
	region, ok := ctx.Value(regionContextKey{}).(Region)
	return region, ok
}

// ErrUnresolved means the request never went through Middleware.
var ErrUnresolved = errors.New("region not resolved")

// FromRequest is FromContext for handlers that cannot proceed without a region.
func FromRequest(ctx context.Context) (Region, error) {
	region, ok := FromContext(ctx)
	if !ok {
		return Region{}, ErrUnresolved
	}
	return region, nil
}
