package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
)

// Service exposes the catalog to other packages and the HTTP layer.
type Service struct {
	repo Repository
}

// NewService constructs the catalog service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Resolve returns the active service with slug or a NotFound error.
func (s *Service) Resolve(ctx context.Context, slug string) (*Offering, error) {
	svc, err := s.Get(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !svc.Active {
		return nil, fmt.Errorf("%w: service %q is not offered", shared.ErrNotFound, svc.Slug)
	}
	return svc, nil
}

// Get returns the service with slug, active or not.
func (s *Service) Get(ctx context.Context, slug string) (*Offering, error) {
	slug = strings.TrimSpace(strings.ToLower(slug))
	if slug == "" {
		return nil, fmt.Errorf("%w: service is required", shared.ErrValidation)
	}
	return s.repo.GetBySlug(ctx, slug)
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]Offering, error) {
	return s.repo.List(ctx, activeOnly)
}

func (s *Service) Create(ctx context.Context, req CreateServiceRequest) (*Offering, error) {
	svc := Offering{Slug: req.Slug, Name: req.Name, Description: req.Description, BasePrice: req.BasePrice, Active: true}
	id, err := s.repo.Create(ctx, svc)
	if err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}
	svc.ID = id
	return &svc, nil
}

// Update applies the set fields of req to the service with slug.
func (s *Service) Update(ctx context.Context, slug string, req UpdateServiceRequest) (*Offering, error) {
	svc, err := s.Get(ctx, slug)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be blank", shared.ErrValidation)
		}
		svc.Name = name
	}
	if req.Description != nil {
		svc.Description = strings.TrimSpace(*req.Description)
	}
	if req.BasePrice != nil {
		if req.BasePrice.IsNegative() {
			return nil, fmt.Errorf("%w: base price must not be negative", shared.ErrValidation)
		}
		svc.BasePrice = *req.BasePrice
	}
	if req.Active != nil {
		svc.Active = *req.Active
	}
	if err := s.repo.Update(ctx, *svc); err != nil {
		return nil, fmt.Errorf("update service: %w", err)
	}
	return svc, nil
}

// Deactivate withdraws the service from intake. Existing leads keep their
// reference, so rows are never deleted.
func (s *Service) Deactivate(ctx context.Context, slug string) (*Offering, error) {
	inactive := false
	return s.Update(ctx, slug, UpdateServiceRequest{Active: &inactive})
}
