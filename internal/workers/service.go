package workers

import (
	"context"
	"fmt"
	"strings"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RequireActive returns the worker when it exists and is active.
func (s *Service) RequireActive(ctx context.Context, id int64) (*Worker, error) {
	w, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !w.Active {
		return nil, fmt.Errorf("%w: worker %d is inactive", shared.ErrValidation, id)
	}
	return w, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Worker, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]Worker, error) {
	return s.repo.List(ctx, activeOnly)
}

func (s *Service) Create(ctx context.Context, req CreateWorkerRequest) (*Worker, error) {
	w := Worker{Name: strings.TrimSpace(req.Name), Phone: strings.TrimSpace(req.Phone), Specialty: req.Specialty, Active: true}
	if w.Name == "" || w.Phone == "" {
		return nil, fmt.Errorf("%w: name and phone are required", shared.ErrValidation)
	}
	id, err := s.repo.Create(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("create worker: %w", err)
	}
	w.ID = id
	return &w, nil
}

// Update applies the set fields of req. Deactivated workers keep their
// orders and payouts but can no longer be assigned.
func (s *Service) Update(ctx context.Context, id int64, req UpdateWorkerRequest) (*Worker, error) {
	w, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if w.Name = strings.TrimSpace(*req.Name); w.Name == "" {
			return nil, fmt.Errorf("%w: name must not be blank", shared.ErrValidation)
		}
	}
	if req.Phone != nil {
		if w.Phone = strings.TrimSpace(*req.Phone); w.Phone == "" {
			return nil, fmt.Errorf("%w: phone must not be blank", shared.ErrValidation)
		}
	}
	if req.Specialty != nil {
		w.Specialty = strings.TrimSpace(*req.Specialty)
	}
	if req.Active != nil {
		w.Active = *req.Active
	}
	if err := s.repo.Update(ctx, *w); err != nil {
		return nil, fmt.Errorf("update worker: %w", err)
	}
	return w, nil
}

func (s *Service) Deactivate(ctx context.Context, id int64) (*Worker, error) {
	inactive := false
	return s.Update(ctx, id, UpdateWorkerRequest{Active: &inactive})
}
