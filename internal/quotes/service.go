package quotes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/codes"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/finance"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/leads"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/notify"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/regions"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
)

// LeadReader loads the lead a quote is built from.
type LeadReader interface {
	Get(ctx context.Context, id int64) (*leads.Lead, error)
}

// RegionResolver maps a region id to its configuration.
type RegionResolver interface {
	Get(id int64) (regions.Region, error)
}

type Config struct {
	DefaultValidityDays int
}

type Service struct {
	repo     Repository
	leads    LeadReader
	regions  RegionResolver
	codes    *codes.Generator
	notifier notify.Notifier
	logger   *slog.Logger
	validity int
	now      func() time.Time
}

func NewService(repo Repository, leadReader LeadReader, regionResolver RegionResolver, gen *codes.Generator, notifier notify.Notifier, logger *slog.Logger, cfg Config) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	validity := cfg.DefaultValidityDays
	if validity <= 0 {
		validity = DefaultValidityDays
	}
	return &Service{
		repo:     repo,
		leads:    leadReader,
		regions:  regionResolver,
		codes:    gen,
		notifier: notifier,
		logger:   logger,
		validity: validity,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source, mainly for tests.
func (s *Service) WithClock(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Create prices the items with the lead's region rates and stores a DRAFT
// quote. The lead moves to QUOTING in the same transaction.
func (s *Service) Create(ctx context.Context, req CreateQuoteRequest) (*Quote, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", shared.ErrValidation)
	}
	for i, it := range req.Items {
		if strings.TrimSpace(it.Description) == "" {
			return nil, fmt.Errorf("%w: item %d: description is required", shared.ErrValidation, i+1)
		}
	}

	lead, err := s.leads.Get(ctx, req.LeadID)
	if err != nil {
		return nil, fmt.Errorf("verify lead: %w", err)
	}
	region, err := s.regions.Get(lead.RegionID)
	if err != nil {
		return nil, fmt.Errorf("resolve region: %w", err)
	}

	priced := make([]finance.Item, len(req.Items))
	for i, it := range req.Items {
		priced[i] = finance.Item{Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	totals, err := finance.ComputeQuoteTotals(priced, region.TaxRate(), req.ApplyTax, region.AdvanceRate())
	if err != nil {
		return nil, err
	}

	validity := req.ValidityDays
	if validity <= 0 {
		validity = s.validity
	}
	at := s.now().In(region.Location())
	quote := Quote{
		RegionID:     region.ID,
		LeadID:       lead.ID,
		ApplyTax:     req.ApplyTax,
		TaxRate:      region.TaxRate(),
		AdvanceRate:  region.AdvanceRate(),
		Subtotal:     totals.Subtotal,
		Tax:          totals.Tax,
		Total:        totals.Total,
		Advance:      totals.Advance,
		Balance:      totals.Balance,
		Currency:     region.Currency,
		ValidityDays: validity,
		ExpiresAt:    at.AddDate(0, 0, validity),
		Notes:        strings.TrimSpace(req.Notes),
		Status:       StatusDraft,
		CreatedAt:    at,
	}
	scope := codes.ScopeFor(codes.EntityQuote, region.ID)

	var quoteID int64
	err = s.codes.Serialize(ctx, codes.EntityQuote, scope, at, func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
			code, err := s.codes.Next(ctx, repo, codes.EntityQuote, scope, at)
			if err != nil {
				return err
			}
			quote.Code = code
			id, err := repo.Create(ctx, quote)
			if err != nil {
				return fmt.Errorf("create quote: %w", err)
			}
			quoteID = id

			for i, it := range req.Items {
				item := Item{
					QuoteID:     id,
					Position:    i + 1,
					Description: strings.TrimSpace(it.Description),
					Quantity:    it.Quantity,
					UnitPrice:   it.UnitPrice,
					LineTotal:   totals.LineTotals[i],
				}
				if _, err := repo.InsertItem(ctx, item); err != nil {
					return fmt.Errorf("insert quote item: %w", err)
				}
			}

			if _, err := repo.AdvanceLead(ctx, lead.ID, leads.StatusQuoting); err != nil {
				return fmt.Errorf("advance lead: %w", err)
			}
			return repo.Audit(ctx, shared.AuditLog{
				Action: "quote.create", Entity: "quote", EntityID: id, To: string(StatusDraft), At: at,
				Meta: map[string]any{"code": code, "total": totals.Total.StringFixed(2)},
			})
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("quote created", slog.String("code", quote.Code), slog.Int64("lead_id", lead.ID), slog.String("total", totals.Total.StringFixed(2)))
	return s.repo.Get(ctx, quoteID)
}

// Send moves a DRAFT quote to SENT and queues the customer message.
func (s *Service) Send(ctx context.Context, id int64) (*Quote, shared.Warnings, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("get quote: %w", err)
	}
	if existing.Status != StatusDraft {
		return nil, nil, fmt.Errorf("%w: can only send DRAFT quotes, quote is %s", shared.ErrInvalidState, existing.Status)
	}

	if err := s.transition(ctx, existing, StatusSent, nil, nil); err != nil {
		return nil, nil, err
	}

	warnings := notify.Dispatch(ctx, s.notifier, s.logger, notify.Event{
		Kind: notify.KindQuoteSent, Entity: "quote", EntityID: id, Code: existing.Code,
	})
	quote, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return quote, warnings, nil
}

// Approve moves a SENT quote to APPROVED and the lead to QUOTED.
func (s *Service) Approve(ctx context.Context, id int64) (*Quote, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}
	if existing.Status != StatusSent {
		return nil, fmt.Errorf("%w: can only approve SENT quotes, quote is %s", shared.ErrInvalidState, existing.Status)
	}
	if existing.PastExpiry(s.now()) {
		return nil, fmt.Errorf("%w: quote %s expired on %s", shared.ErrInvalidState, existing.Code, existing.ExpiresAt.Format(time.DateOnly))
	}

	err = s.transition(ctx, existing, StatusApproved, nil, func(ctx context.Context, repo Repository) error {
		if _, err := repo.AdvanceLead(ctx, existing.LeadID, leads.StatusQuoted); err != nil {
			return fmt.Errorf("advance lead: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Reject closes a SENT quote as REJECTED. The reason is optional.
func (s *Service) Reject(ctx context.Context, id int64, reason string) (*Quote, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}
	if existing.Status != StatusSent {
		return nil, fmt.Errorf("%w: can only reject SENT quotes, quote is %s", shared.ErrInvalidState, existing.Status)
	}

	var reasonPtr *string
	if r := strings.TrimSpace(reason); r != "" {
		reasonPtr = &r
	}
	if err := s.transition(ctx, existing, StatusRejected, reasonPtr, nil); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Expire closes a SENT quote whose validity window has elapsed.
func (s *Service) Expire(ctx context.Context, id int64) (*Quote, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}
	if existing.Status != StatusSent {
		return nil, fmt.Errorf("%w: can only expire SENT quotes, quote is %s", shared.ErrInvalidState, existing.Status)
	}
	if !existing.PastExpiry(s.now()) {
		return nil, fmt.Errorf("%w: quote %s is valid until %s", shared.ErrInvalidState, existing.Code, existing.ExpiresAt.Format(time.DateOnly))
	}
	if err := s.transition(ctx, existing, StatusExpired, nil, nil); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// ExpireOverdue expires up to limit SENT quotes past their expiry date.
// Quotes that change status concurrently are skipped.
func (s *Service) ExpireOverdue(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 500
	}
	ids, err := s.repo.ListExpirable(ctx, s.now(), limit)
	if err != nil {
		return 0, fmt.Errorf("list expirable quotes: %w", err)
	}
	expired := 0
	for _, id := range ids {
		if _, err := s.Expire(ctx, id); err != nil {
			if errors.Is(err, shared.ErrInvalidState) {
				continue
			}
			return expired, err
		}
		expired++
	}
	return expired, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Quote, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListByLead(ctx context.Context, leadID int64) ([]Quote, error) {
	return s.repo.ListByLead(ctx, leadID)
}

func (s *Service) transition(ctx context.Context, existing *Quote, to Status, reason *string, extra func(context.Context, Repository) error) error {
	at := s.now()
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.Transition(ctx, existing.ID, existing.Status, to, at, reason); err != nil {
			return err
		}
		if extra != nil {
			if err := extra(ctx, repo); err != nil {
				return err
			}
		}
		return repo.Audit(ctx, shared.AuditLog{
			Action: "quote." + strings.ToLower(string(to)), Entity: "quote", EntityID: existing.ID,
			From: string(existing.Status), To: string(to), At: at,
		})
	})
	if err != nil {
		return fmt.Errorf("%s quote: %w", strings.ToLower(string(to)), err)
	}
	s.logger.Info("quote transitioned", slog.String("code", existing.Code), slog.String("from", string(existing.Status)), slog.String("to", string(to)))
	return nil
}
