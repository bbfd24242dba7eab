package orders

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/codes"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/finance"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/leads"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/quotes"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/regions"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/workers"
)

// WorkerChecker confirms a worker can take assignments.
type WorkerChecker interface {
	RequireActive(ctx context.Context, id int64) (*workers.Worker, error)
}

// RegionResolver maps a region id to its configuration.
type RegionResolver interface {
	Get(id int64) (regions.Region, error)
}

type Service struct {
	repo    Repository
	workers WorkerChecker
	regions RegionResolver
	codes   *codes.Generator
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(repo Repository, workerChecker WorkerChecker, regionResolver RegionResolver, gen *codes.Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		workers: workerChecker,
		regions: regionResolver,
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

// Create materializes an APPROVED quote into an ADVANCE_PENDING order. The
// quote becomes CONVERTED and the lead CONVERTED in the same transaction.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	if req.WorkerCost.IsNegative() {
		return nil, fmt.Errorf("%w: worker cost must not be negative", shared.ErrValidation)
	}
	if req.WorkerID != nil {
		if _, err := s.workers.RequireActive(ctx, *req.WorkerID); err != nil {
			return nil, fmt.Errorf("verify worker: %w", err)
		}
	}

	source, err := s.checkConvertible(ctx, s.repo, req.QuoteID)
	if err != nil {
		return nil, err
	}
	region, err := s.regions.Get(source.RegionID)
	if err != nil {
		return nil, fmt.Errorf("resolve region: %w", err)
	}

	at := s.now().In(region.Location())
	workerCost := req.WorkerCost.Round(finance.Cents)
	scope := codes.ScopeFor(codes.EntityOrder, region.ID)

	var order Order
	err = s.codes.Serialize(ctx, codes.EntityOrder, scope, at, func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
			quote, err := s.checkConvertible(ctx, repo, req.QuoteID)
			if err != nil {
				return err
			}
			code, err := s.codes.Next(ctx, repo, codes.EntityOrder, scope, at)
			if err != nil {
				return err
			}
			order = Order{
				Code:         code,
				RegionID:     quote.RegionID,
				QuoteID:      quote.ID,
				LeadID:       quote.LeadID,
				WorkerID:     req.WorkerID,
				Total:        quote.Total,
				Advance:      quote.Advance,
				Balance:      quote.Balance,
				WorkerCost:   workerCost,
				Margin:       finance.ComputeOrderMargin(quote.Total, workerCost),
				Status:       StatusAdvancePending,
				PhotosBefore: []string{},
				PhotosDuring: []string{},
				PhotosAfter:  []string{},
				CreatedAt:    at,
				UpdatedAt:    at,
			}
			id, err := repo.Create(ctx, order)
			if err != nil {
				return fmt.Errorf("create order: %w", err)
			}
			order.ID = id

			if err := repo.ConvertQuote(ctx, quote.ID, at); err != nil {
				return fmt.Errorf("convert quote: %w", err)
			}
			if _, err := repo.AdvanceLead(ctx, quote.LeadID, leads.StatusConverted); err != nil {
				return fmt.Errorf("advance lead: %w", err)
			}
			return repo.Audit(ctx, shared.AuditLog{
				Action: "order.create", Entity: "order", EntityID: id, To: string(StatusAdvancePending), At: at,
				Meta: map[string]any{"code": code, "quote": quote.Code, "margin": order.Margin.StringFixed(2)},
			})
		})
	})
	if err != nil {
		return nil, err
	}

	if order.Margin.IsNegative() {
		s.logger.Warn("order created with negative margin", slog.String("code", order.Code), slog.String("margin", order.Margin.StringFixed(2)))
	}
	s.logger.Info("order created", slog.String("code", order.Code), slog.Int64("quote_id", order.QuoteID))
	return &order, nil
}

// checkConvertible enforces one order per quote before the quote status, so a
// second attempt on a converted quote reports the conflict.
func (s *Service) checkConvertible(ctx context.Context, repo Repository, quoteID int64) (*SourceQuote, error) {
	quote, err := repo.LockQuote(ctx, quoteID)
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}
	existing, err := repo.FindByQuote(ctx, quoteID)
	if err != nil {
		return nil, fmt.Errorf("check existing order: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: quote %s already has order %s", shared.ErrConflict, quote.Code, existing.Code)
	}
	if quote.Status != quotes.StatusApproved {
		return nil, fmt.Errorf("%w: quote %s is %s, only APPROVED quotes become orders", shared.ErrInvalidState, quote.Code, quote.Status)
	}
	return quote, nil
}

// AssignWorker sets or replaces the worker. A new cost recomputes the margin.
func (s *Service) AssignWorker(ctx context.Context, id int64, req AssignWorkerRequest) (*Order, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if existing.Status.Terminal() {
		return nil, fmt.Errorf("%w: order %s is %s", shared.ErrInvalidState, existing.Code, existing.Status)
	}
	if _, err := s.workers.RequireActive(ctx, req.WorkerID); err != nil {
		return nil, fmt.Errorf("verify worker: %w", err)
	}

	cost := existing.WorkerCost
	if req.WorkerCost != nil {
		if req.WorkerCost.IsNegative() {
			return nil, fmt.Errorf("%w: worker cost must not be negative", shared.ErrValidation)
		}
		cost = req.WorkerCost.Round(finance.Cents)
	}
	margin := finance.ComputeOrderMargin(existing.Total, cost)
	workerID := req.WorkerID
	at := s.now()

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.SetWorker(ctx, id, &workerID, cost, margin, at); err != nil {
			return err
		}
		return repo.Audit(ctx, shared.AuditLog{
			Action: "order.assign", Entity: "order", EntityID: id, At: at,
			Meta: map[string]any{"worker_id": workerID, "worker_cost": cost.StringFixed(2)},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// UnassignWorker clears the worker and keeps the recorded cost.
func (s *Service) UnassignWorker(ctx context.Context, id int64) (*Order, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if existing.Status.Terminal() {
		return nil, fmt.Errorf("%w: order %s is %s", shared.ErrInvalidState, existing.Code, existing.Status)
	}
	at := s.now()
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.SetWorker(ctx, id, nil, existing.WorkerCost, existing.Margin, at); err != nil {
			return err
		}
		return repo.Audit(ctx, shared.AuditLog{Action: "order.unassign", Entity: "order", EntityID: id, At: at})
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Schedule sets the visit date. Rescheduling a SCHEDULED order is allowed.
func (s *Service) Schedule(ctx context.Context, id int64, when time.Time) (*Order, error) {
	if when.IsZero() {
		return nil, fmt.Errorf("%w: scheduled_for is required", shared.ErrValidation)
	}
	return s.apply(ctx, id, Change{
		From:         []Status{StatusAdvancePaid, StatusScheduled},
		To:           StatusScheduled,
		ScheduledFor: &when,
	})
}

func (s *Service) Start(ctx context.Context, id int64) (*Order, error) {
	return s.apply(ctx, id, Change{From: []Status{StatusAdvancePaid, StatusScheduled}, To: StatusInProgress})
}

// Cancel stops an order that has not closed yet.
func (s *Service) Cancel(ctx context.Context, id int64, reason string) (*Order, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: cancellation reason is required", shared.ErrValidation)
	}
	return s.apply(ctx, id, Change{From: Open, To: StatusCancelled, Reason: &reason})
}

func (s *Service) apply(ctx context.Context, id int64, change Change) (*Order, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if !slices.Contains(change.From, existing.Status) {
		return nil, fmt.Errorf("%w: order %s is %s, cannot move to %s", shared.ErrInvalidState, existing.Code, existing.Status, change.To)
	}
	change.At = s.now()
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Apply(ctx, id, change)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("order transitioned", slog.String("code", existing.Code), slog.String("from", string(existing.Status)), slog.String("to", string(change.To)))
	return s.repo.Get(ctx, id)
}

// UpdatePhotos replaces the whole collection for category.
func (s *Service) UpdatePhotos(ctx context.Context, id int64, category PhotoCategory, urls []string) (*Order, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: photo category must be before, during or after", shared.ErrValidation)
	}
	clean, err := shared.CleanPhotoURLs(urls)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if err := s.repo.SetPhotos(ctx, id, category, clean, s.now()); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.repo.Get(ctx, id)
}

// GetByCode finds the order with code in the given region.
func (s *Service) GetByCode(ctx context.Context, regionID int64, code string) (*Order, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, fmt.Errorf("%w: order code is required", shared.ErrValidation)
	}
	return s.repo.GetByCode(ctx, regionID, code)
}

func (s *Service) List(ctx context.Context, req ListOrdersRequest) ([]Order, int, error) {
	if req.Status != nil && !req.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", shared.ErrValidation, *req.Status)
	}
	return s.repo.List(ctx, req)
}
