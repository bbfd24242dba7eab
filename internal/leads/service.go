package leads

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/catalog"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/codes"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/regions"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
)

// ServiceResolver looks up an offered service by slug.
type ServiceResolver interface {
	Resolve(ctx context.Context, slug string) (*catalog.Offering, error)
}

type Service struct {
	repo    Repository
	catalog ServiceResolver
	codes   *codes.Generator
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(repo Repository, catalog ServiceResolver, gen *codes.Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		catalog: catalog,
		codes:   gen,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source, mainly for tests.
func (s *Service) WithClock(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Create registers a NEW lead in region after checking the requested service exists.
func (s *Service) Create(ctx context.Context, region regions.Region, req CreateLeadRequest) (*Lead, error) {
	lead := Lead{
		RegionID:     region.ID,
		CustomerName: strings.TrimSpace(req.CustomerName),
		Phone:        strings.TrimSpace(req.Phone),
		Email:        strings.TrimSpace(req.Email),
		Address:      strings.TrimSpace(req.Address),
		Sector:       strings.TrimSpace(req.Sector),
		Description:  strings.TrimSpace(req.Description),
		Urgent:       req.Urgent,
		Source:       req.Source,
		Status:       StatusNew,
	}
	switch {
	case lead.CustomerName == "":
		return nil, fmt.Errorf("%w: customer name is required", shared.ErrValidation)
	case lead.Phone == "":
		return nil, fmt.Errorf("%w: phone is required", shared.ErrValidation)
	case lead.Description == "":
		return nil, fmt.Errorf("%w: description is required", shared.ErrValidation)
	}
	if lead.Source == "" {
		lead.Source = "web"
	}

	offering, err := s.catalog.Resolve(ctx, req.Service)
	if err != nil {
		return nil, fmt.Errorf("verify service: %w", err)
	}
	lead.ServiceSlug = offering.Slug

	at := s.now().In(region.Location())
	lead.CreatedAt = at
	scope := codes.ScopeFor(codes.EntityLead, region.ID)

	var leadID int64
	err = s.codes.Serialize(ctx, codes.EntityLead, scope, at, func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
			code, err := s.codes.Next(ctx, repo, codes.EntityLead, scope, at)
			if err != nil {
				return err
			}
			lead.Code = code
			id, err := repo.Create(ctx, lead)
			if err != nil {
				return fmt.Errorf("create lead: %w", err)
			}
			leadID = id
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("lead created", slog.String("code", lead.Code), slog.Int64("region_id", region.ID), slog.Bool("urgent", lead.Urgent))
	return s.repo.Get(ctx, leadID)
}

// MarkContacted records the first operator contact: NEW -> CONTACTED.
func (s *Service) MarkContacted(ctx context.Context, id int64) (*Lead, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get lead: %w", err)
	}
	if existing.Status != StatusNew {
		return nil, fmt.Errorf("%w: can only contact NEW leads, lead is %s", shared.ErrInvalidState, existing.Status)
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		advanced, err := repo.Advance(ctx, id, StatusContacted)
		if err != nil {
			return err
		}
		if !advanced {
			return fmt.Errorf("%w: lead %d moved on concurrently", shared.ErrInvalidState, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Lead, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListLeadsRequest) ([]Lead, int, error) {
	if req.Status != nil && !req.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", shared.ErrValidation, *req.Status)
	}
	return s.repo.List(ctx, req)
}
