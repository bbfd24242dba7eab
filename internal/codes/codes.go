// Package codes allocates human-readable sequential codes such as
// CT-202601-0007 for quotes or GAR-2026-00012 for warranty cases.
package codes

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
)

// Entity tags the kind of record a code identifies.
type Entity string

const (
	EntityLead     Entity = "lead"
	EntityQuote    Entity = "quote"
	EntityOrder    Entity = "order"
	EntityWarranty Entity = "warranty"
)

type format struct {
	prefix string
	width  int
	yearly bool
}

var formats = map[Entity]format{
	EntityLead:     {prefix: "LD", width: 4},
	EntityQuote:    {prefix: "CT", width: 4},
	EntityOrder:    {prefix: "OR", width: 4},
	EntityWarranty: {prefix: "GAR", width: 5, yearly: true},
}

// Scope limits counting to a region. The zero value is the global scope.
type Scope struct {
	RegionID int64
}

// RegionScope scopes counting to one region.
func RegionScope(regionID int64) Scope {
	return Scope{RegionID: regionID}
}

// Global scopes counting to every region.
func Global() Scope {
	return Scope{}
}

// IsGlobal reports whether the scope spans every region.
func (s Scope) IsGlobal() bool {
	return s.RegionID == 0
}

func (s Scope) key() string {
	if s.IsGlobal() {
		return "global"
	}
	return strconv.FormatInt(s.RegionID, 10)
}

// ScopeFor returns the counting scope of entity: warranty codes are global,
// everything else counts per region.
func ScopeFor(entity Entity, regionID int64) Scope {
	if entity == EntityWarranty {
		return Global()
	}
	return RegionScope(regionID)
}

// Counter counts records of one entity created within [from, to) in scope.
type Counter interface {
	CountCreated(ctx context.Context, scope Scope, from, to time.Time) (int, error)
}

// Period returns the period token for entity at the given instant: YYYYMM,
// or YYYY for yearly entities. The instant's location decides the calendar.
func Period(entity Entity, at time.Time) (string, error) {
	f, ok := formats[entity]
	if !ok {
		return "", fmt.Errorf("%w: unknown code entity %q", shared.ErrValidation, entity)
	}
	if f.yearly {
		return at.Format("2006"), nil
	}
	return at.Format("200601"), nil
}

// Window returns the half-open interval whose records are counted for a code
// issued at. Monthly entities count the month containing at. Yearly entities
// only print the year: their sequence runs across the whole scope, so the
// window starts at the zero time and ends with the year containing at.
func Window(entity Entity, at time.Time) (time.Time, time.Time, error) {
	f, ok := formats[entity]
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: unknown code entity %q", shared.ErrValidation, entity)
	}
	if f.yearly {
		end := time.Date(at.Year()+1, time.January, 1, 0, 0, 0, 0, at.Location())
		return time.Time{}, end, nil
	}
	from := time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, at.Location())
	return from, from.AddDate(0, 1, 0), nil
}

func lockPeriod(entity Entity, at time.Time) (string, error) {
	f, ok := formats[entity]
	if !ok {
		return "", fmt.Errorf("%w: unknown code entity %q", shared.ErrValidation, entity)
	}
	if f.yearly {
		return "all", nil
	}
	return Period(entity, at)
}

// Format renders <PREFIX>-<period>-<sequence> with the entity's padding.
func Format(entity Entity, period string, seq int) (string, error) {
	f, ok := formats[entity]
	if !ok {
		return "", fmt.Errorf("%w: unknown code entity %q", shared.ErrValidation, entity)
	}
	if seq <= 0 {
		return "", fmt.Errorf("%w: sequence must be positive", shared.ErrValidation)
	}
	return fmt.Sprintf("%s-%s-%0*d", f.prefix, period, f.width, seq), nil
}
