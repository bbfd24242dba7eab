package regions

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/platform/httpx"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
)

// HeaderName carries the region code on inbound requests.
const HeaderName = "X-Region"

// Registry is the read-only set of configured regions.
type Registry struct {
	byID     map[int64]Region
	byCode   map[string]Region
	fallback string
}

type fileFormat struct {
	Regions []Region `yaml:"regions"`
}

// LoadFile reads regions from a YAML file. An empty path yields the default region only.
func LoadFile(path, defaultCode string) (*Registry, error) {
	if path == "" {
		return NewRegistry(defaultCode, Default())
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("regions: read %s: %w", path, err)
	}
	return Parse(raw, defaultCode)
}

// Parse builds a registry from YAML content.
func Parse(raw []byte, defaultCode string) (*Registry, error) {
	var file fileFormat
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("regions: decode: %w", err)
	}
	return NewRegistry(defaultCode, file.Regions...)
}

// NewRegistry validates and indexes the given regions.
func NewRegistry(defaultCode string, list ...Region) (*Registry, error) {
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: at least one region required", shared.ErrValidation)
	}
	reg := &Registry{
		byID:   make(map[int64]Region, len(list)),
		byCode: make(map[string]Region, len(list)),
	}
	for _, r := range list {
		if err := r.validate(); err != nil {
			return nil, err
		}
		code := strings.ToUpper(r.Code)
		if _, dup := reg.byID[r.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate region id %d", shared.ErrValidation, r.ID)
		}
		if _, dup := reg.byCode[code]; dup {
			return nil, fmt.Errorf("%w: duplicate region code %s", shared.ErrValidation, code)
		}
		reg.byID[r.ID] = r
		reg.byCode[code] = r
	}
	reg.fallback = strings.ToUpper(defaultCode)
	if reg.fallback == "" {
		reg.fallback = strings.ToUpper(list[0].Code)
	}
	if _, ok := reg.byCode[reg.fallback]; !ok {
		return nil, fmt.Errorf("%w: default region %s not configured", shared.ErrValidation, reg.fallback)
	}
	return reg, nil
}

// Get returns the region with the given id.
func (r *Registry) Get(id int64) (Region, error) {
	region, ok := r.byID[id]
	if !ok {
		return Region{}, fmt.Errorf("%w: region %d", shared.ErrNotFound, id)
	}
	return region, nil
}

// ByCode returns the region with the given code, case-insensitive.
func (r *Registry) ByCode(code string) (Region, error) {
	region, ok := r.byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Region{}, fmt.Errorf("%w: region %q", shared.ErrNotFound, code)
	}
	return region, nil
}

// Default returns the fallback region.
func (r *Registry) Default() Region {
	return r.byCode[r.fallback]
}

// All returns every configured region.
func (r *Registry) All() []Region {
	out := make([]Region, 0, len(r.byID))
	for _, region := range r.byID {
		out = append(out, region)
	}
	return out
}

// Middleware resolves the X-Region header into the request context.
func (r *Registry) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		region := r.Default()
		if code := req.Header.Get(HeaderName); code != "" {
			found, err := r.ByCode(code)
			if err != nil {
				httpx.RespondError(w, fmt.Errorf("%w: unknown region %q", shared.ErrValidation, code))
				return
			}
			region = found
		}
		next.ServeHTTP(w, req.WithContext(WithContext(req.Context(), region)))
	})
}
