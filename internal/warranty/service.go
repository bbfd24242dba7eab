package warranty

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/codes"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/notify"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/orders"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/regions"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
)

// OrderReader loads the order a claim refers to.
type OrderReader interface {
	Get(ctx context.Context, id int64) (*orders.Order, error)
	GetByCode(ctx context.Context, regionID int64, code string) (*orders.Order, error)
}

// RegionResolver maps a region id to its configuration.
type RegionResolver interface {
	Get(id int64) (regions.Region, error)
}

type Service struct {
	repo     Repository
	orders   OrderReader
	regions  RegionResolver
	codes    *codes.Generator
	notifier notify.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, orderReader OrderReader, regionResolver RegionResolver, gen *codes.Generator, notifier notify.Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Service{
		repo:     repo,
		orders:   orderReader,
		regions:  regionResolver,
		codes:    gen,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source, mainly for tests.
func (s *Service) WithClock(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// File opens a REPORTED case against a CLOSED order.
func (s *Service) File(ctx context.Context, req FileWarrantyRequest) (*Case, shared.Warnings, error) {
	order, err := s.orders.Get(ctx, req.OrderID)
	if err != nil {
		return nil, nil, fmt.Errorf("get order: %w", err)
	}
	return s.file(ctx, order, req.CustomerReport, req.Photos)
}

// FilePublic opens a case from the customer-facing form using the order code
// issued in the region.
func (s *Service) FilePublic(ctx context.Context, regionID int64, req PublicFileRequest) (*Case, shared.Warnings, error) {
	order, err := s.orders.GetByCode(ctx, regionID, strings.ToUpper(strings.TrimSpace(req.OrderCode)))
	if err != nil {
		return nil, nil, fmt.Errorf("get order: %w", err)
	}
	return s.file(ctx, order, req.CustomerReport, req.Photos)
}

func (s *Service) file(ctx context.Context, order *orders.Order, report string, photos []string) (*Case, shared.Warnings, error) {
	report = strings.TrimSpace(report)
	if report == "" {
		return nil, nil, fmt.Errorf("%w: customer report is required", shared.ErrValidation)
	}
	if order.Status != orders.StatusClosed || order.CompletedAt == nil {
		return nil, nil, fmt.Errorf("%w: order %s is %s, warranty needs a closed order", shared.ErrInvalidState, order.Code, order.Status)
	}
	region, err := s.regions.Get(order.RegionID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve region: %w", err)
	}
	photos, err = shared.CleanPhotoURLs(photos)
	if err != nil {
		return nil, nil, err
	}

	at := s.now().In(region.Location())
	c := Case{
		OrderID:        order.ID,
		CustomerReport: report,
		Photos:         photos,
		Status:         StatusReported,
		CreatedAt:      at,
		UpdatedAt:      at,
	}
	scope := codes.ScopeFor(codes.EntityWarranty, region.ID)
	err = s.codes.Serialize(ctx, codes.EntityWarranty, scope, at, func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
			code, err := s.codes.Next(ctx, repo, codes.EntityWarranty, scope, at)
			if err != nil {
				return err
			}
			c.Code = code
			id, err := repo.Create(ctx, c)
			if err != nil {
				return fmt.Errorf("create warranty case: %w", err)
			}
			c.ID = id
			return repo.Audit(ctx, shared.AuditLog{
				Action: "warranty.file", Entity: "warranty", EntityID: id, To: string(StatusReported), At: at,
				Meta: map[string]any{"code": code, "order": order.Code},
			})
		})
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("warranty case filed", slog.String("code", c.Code), slog.String("order", order.Code))
	warnings := notify.Dispatch(ctx, s.notifier, s.logger, notify.Event{
		Kind: notify.KindWarrantyFiled, Entity: "warranty", EntityID: c.ID, Code: c.Code,
	})
	return &c, warnings, nil
}

func (s *Service) StartReview(ctx context.Context, id int64) (*Case, error) {
	return s.transition(ctx, id, []Status{StatusReported}, StatusInReview, Update{})
}

// SetCoverage records the coverage decision. Rejecting needs a reason.
func (s *Service) SetCoverage(ctx context.Context, id int64, covered bool, reason string) (*Case, error) {
	upd := Update{Covered: &covered}
	to := StatusApproved
	if !covered {
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return nil, fmt.Errorf("%w: rejection reason is required", shared.ErrValidation)
		}
		upd.RejectionReason = &reason
		to = StatusRejected
	}
	return s.transition(ctx, id, []Status{StatusReported, StatusInReview}, to, upd)
}

func (s *Service) StartRepair(ctx context.Context, id int64, note string) (*Case, error) {
	var upd Update
	if note = strings.TrimSpace(note); note != "" {
		upd.RepairNote = &note
	}
	return s.transition(ctx, id, []Status{StatusApproved}, StatusInRepair, upd)
}

// Resolve closes a repaired case with the resolution text.
func (s *Service) Resolve(ctx context.Context, id int64, resolution string) (*Case, error) {
	resolution = strings.TrimSpace(resolution)
	if resolution == "" {
		return nil, fmt.Errorf("%w: resolution text is required", shared.ErrValidation)
	}
	at := s.now()
	return s.transition(ctx, id, []Status{StatusInRepair}, StatusResolved, Update{Resolution: &resolution, ResolvedAt: &at})
}

func (s *Service) transition(ctx context.Context, id int64, from []Status, to Status, upd Update) (*Case, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get warranty case: %w", err)
	}
	if !slices.Contains(from, existing.Status) {
		return nil, fmt.Errorf("%w: warranty case %s is %s, cannot move to %s", shared.ErrInvalidState, existing.Code, existing.Status, to)
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Transition(ctx, id, from, to, upd, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("warranty case transitioned", slog.String("code", existing.Code), slog.String("from", string(existing.Status)), slog.String("to", string(to)))
	return s.repo.Get(ctx, id)
}

// Get returns the case with its order code and vigency.
func (s *Service) Get(ctx context.Context, id int64) (*View, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, c)
}

func (s *Service) GetByCode(ctx context.Context, code string) (*View, error) {
	c, err := s.repo.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	return s.view(ctx, c)
}

func (s *Service) ListByOrder(ctx context.Context, orderID int64) ([]Case, error) {
	return s.repo.ListByOrder(ctx, orderID)
}

func (s *Service) view(ctx context.Context, c *Case) (*View, error) {
	order, err := s.orders.Get(ctx, c.OrderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	region, err := s.regions.Get(order.RegionID)
	if err != nil {
		return nil, fmt.Errorf("resolve region: %w", err)
	}
	v := &View{Case: *c, OrderCode: order.Code}
	if order.CompletedAt != nil {
		v.Vigency = ComputeVigency(*order.CompletedAt, region.WarrantyDays, s.now())
	}
	return v, nil
}
