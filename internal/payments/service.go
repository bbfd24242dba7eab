package payments

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/finance"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/notify"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/orders"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/workers"
)

// OrderFinder loads orders outside the payment transaction.
type OrderFinder interface {
	Get(ctx context.Context, id int64) (*orders.Order, error)
	GetByCode(ctx context.Context, regionID int64, code string) (*orders.Order, error)
}

// WorkerReader loads workers for payouts.
type WorkerReader interface {
	Get(ctx context.Context, id int64) (*workers.Worker, error)
}

type Service struct {
	repo     Repository
	orders   OrderFinder
	workers  WorkerReader
	notifier notify.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, orderFinder OrderFinder, workerReader WorkerReader, notifier notify.Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Service{
		repo:     repo,
		orders:   orderFinder,
		workers:  workerReader,
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

// Record stores an operator-entered payment. It is validated on entry and
// moves the order in the same transaction. A non-empty idempotencyKey is
// claimed in that transaction; a replay fails with a conflict.
func (s *Service) Record(ctx context.Context, req RecordPaymentRequest, idempotencyKey string) (*Result, error) {
	if err := checkPayment(req.Type, req.Method, req.Amount); err != nil {
		return nil, err
	}
	at := s.now()
	paidAt := at
	if req.PaidAt != nil && !req.PaidAt.IsZero() {
		paidAt = *req.PaidAt
	}
	actor := shared.ActorFromContext(ctx)

	var (
		payment Payment
		order   *orders.Order
		next    orders.Status
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if key := strings.TrimSpace(idempotencyKey); key != "" {
			if err := repo.ClaimKey(ctx, key); err != nil {
				return err
			}
		}
		var err error
		order, err = repo.LockOrder(ctx, req.OrderID)
		if err != nil {
			return err
		}
		next, err = NextStatus(order.Status, req.Type)
		if err != nil {
			return fmt.Errorf("order %s: %w", order.Code, err)
		}

		payment = Payment{
			OrderID:     order.ID,
			Type:        req.Type,
			Method:      req.Method,
			Amount:      req.Amount.Round(finance.Cents),
			Reference:   strings.TrimSpace(req.Reference),
			Source:      SourceOperator,
			Validated:   true,
			ValidatedBy: &actor,
			ValidatedAt: &at,
			PaidAt:      paidAt,
			CreatedAt:   at,
		}
		id, err := repo.Create(ctx, payment)
		if err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		payment.ID = id
		return s.settle(ctx, repo, order, payment, next, at)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment recorded",
		slog.String("order", order.Code), slog.String("type", string(payment.Type)),
		slog.String("amount", payment.Amount.StringFixed(2)), slog.String("order_status", string(next)))
	return &Result{Payment: &payment, OrderStatus: next, Warnings: s.announce(ctx, order, next)}, nil
}

// ReportClient stores a customer-reported payment for the order with code in
// the region. It stays unvalidated and does not move the order until Validate
// is called.
func (s *Service) ReportClient(ctx context.Context, regionID int64, code string, req ClientPaymentRequest) (*Payment, error) {
	if err := checkPayment(req.Type, req.Method, req.Amount); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.ReceiptURL) == "" {
		return nil, fmt.Errorf("%w: receipt url is required", shared.ErrValidation)
	}
	order, err := s.orders.GetByCode(ctx, regionID, code)
	if err != nil {
		return nil, err
	}
	if order.Status == orders.StatusCancelled {
		return nil, fmt.Errorf("%w: order %s is cancelled", shared.ErrInvalidState, order.Code)
	}

	at := s.now()
	payment := Payment{
		OrderID:    order.ID,
		Type:       req.Type,
		Method:     req.Method,
		Amount:     req.Amount.Round(finance.Cents),
		Reference:  strings.TrimSpace(req.Reference),
		ReceiptURL: strings.TrimSpace(req.ReceiptURL),
		Source:     SourceClient,
		PaidAt:     at,
		CreatedAt:  at,
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, payment)
		if err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		payment.ID = id
		return repo.Audit(ctx, shared.AuditLog{
			Actor: "client", Action: "payment.report", Entity: "payment", EntityID: id, At: at,
			Meta: map[string]any{"order": order.Code, "type": string(req.Type), "amount": payment.Amount.StringFixed(2)},
		})
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("client payment reported", slog.String("order", order.Code), slog.Int64("payment_id", payment.ID))
	return &payment, nil
}

// Validate confirms a client-reported payment and applies its order transition.
func (s *Service) Validate(ctx context.Context, paymentID int64) (*Result, error) {
	existing, err := s.repo.Get(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	if existing.Validated {
		return nil, fmt.Errorf("%w: payment %d already validated", shared.ErrInvalidState, paymentID)
	}

	at := s.now()
	actor := shared.ActorFromContext(ctx)
	var (
		order *orders.Order
		next  orders.Status
	)
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		order, err = repo.LockOrder(ctx, existing.OrderID)
		if err != nil {
			return err
		}
		next, err = NextStatus(order.Status, existing.Type)
		if err != nil {
			return fmt.Errorf("order %s: %w", order.Code, err)
		}
		if err := repo.MarkValidated(ctx, paymentID, actor, at); err != nil {
			return err
		}
		return s.settle(ctx, repo, order, *existing, next, at)
	})
	if err != nil {
		return nil, err
	}

	payment, err := s.repo.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("payment validated", slog.Int64("payment_id", paymentID), slog.String("order", order.Code), slog.String("order_status", string(next)))
	return &Result{Payment: payment, OrderStatus: next, Warnings: s.announce(ctx, order, next)}, nil
}

// settle moves the order to next when it changes and audits the payment.
func (s *Service) settle(ctx context.Context, repo Repository, order *orders.Order, payment Payment, next orders.Status, at time.Time) error {
	if next != order.Status {
		if err := repo.ApplyOrder(ctx, order.ID, orders.Change{From: []orders.Status{order.Status}, To: next, At: at}); err != nil {
			return err
		}
	}
	return repo.Audit(ctx, shared.AuditLog{
		Action: "payment.apply", Entity: "payment", EntityID: payment.ID, From: string(order.Status), To: string(next), At: at,
		Meta: map[string]any{"order": order.Code, "type": string(payment.Type), "amount": payment.Amount.StringFixed(2)},
	})
}

func (s *Service) announce(ctx context.Context, order *orders.Order, next orders.Status) shared.Warnings {
	if next == order.Status {
		return nil
	}
	var kind notify.Kind
	switch next {
	case orders.StatusAdvancePaid:
		kind = notify.KindAdvancePaid
	case orders.StatusClosed:
		kind = notify.KindOrderClosed
	default:
		return nil
	}
	return notify.Dispatch(ctx, s.notifier, s.logger, notify.Event{Kind: kind, Entity: "order", EntityID: order.ID, Code: order.Code})
}

func (s *Service) Get(ctx context.Context, id int64) (*Payment, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListByOrder(ctx context.Context, orderID int64) ([]Payment, error) {
	if _, err := s.orders.Get(ctx, orderID); err != nil {
		return nil, err
	}
	return s.repo.ListByOrder(ctx, orderID)
}

// RecordPayout stores money paid to a worker. When an order is given the
// worker must be the one assigned to it.
func (s *Service) RecordPayout(ctx context.Context, req RecordPayoutRequest) (*Payout, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", shared.ErrValidation)
	}
	if !validMethod(req.Method) {
		return nil, fmt.Errorf("%w: unknown method %q", shared.ErrValidation, req.Method)
	}
	worker, err := s.workers.Get(ctx, req.WorkerID)
	if err != nil {
		return nil, fmt.Errorf("get worker: %w", err)
	}
	if req.OrderID != nil {
		order, err := s.orders.Get(ctx, *req.OrderID)
		if err != nil {
			return nil, fmt.Errorf("get order: %w", err)
		}
		if order.WorkerID == nil || *order.WorkerID != worker.ID {
			return nil, fmt.Errorf("%w: worker %d is not assigned to order %s", shared.ErrValidation, worker.ID, order.Code)
		}
	}

	at := s.now()
	payout := Payout{
		WorkerID:  worker.ID,
		OrderID:   req.OrderID,
		Amount:    req.Amount.Round(finance.Cents),
		Method:    req.Method,
		Notes:     strings.TrimSpace(req.Notes),
		PaidAt:    at,
		CreatedAt: at,
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.CreatePayout(ctx, payout)
		if err != nil {
			return fmt.Errorf("create payout: %w", err)
		}
		payout.ID = id
		return repo.Audit(ctx, shared.AuditLog{
			Action: "payout.record", Entity: "worker", EntityID: worker.ID, At: at,
			Meta: map[string]any{"payout_id": id, "amount": payout.Amount.StringFixed(2)},
		})
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("worker payout recorded", slog.Int64("worker_id", worker.ID), slog.String("amount", payout.Amount.StringFixed(2)))
	return &payout, nil
}

func (s *Service) ListPayouts(ctx context.Context, workerID int64) ([]Payout, error) {
	if _, err := s.workers.Get(ctx, workerID); err != nil {
		return nil, err
	}
	return s.repo.ListPayouts(ctx, workerID)
}

// Balance returns earned on CLOSED orders minus everything paid out.
func (s *Service) Balance(ctx context.Context, workerID int64) (*WorkerBalance, error) {
	if _, err := s.workers.Get(ctx, workerID); err != nil {
		return nil, err
	}
	b, err := s.repo.WorkerBalance(ctx, workerID)
	if err != nil {
		return nil, fmt.Errorf("worker balance: %w", err)
	}
	return &b, nil
}

func checkPayment(t Type, method string, amount decimal.Decimal) error {
	if !t.Valid() {
		return fmt.Errorf("%w: unknown payment type %q", shared.ErrValidation, t)
	}
	if !validMethod(method) {
		return fmt.Errorf("%w: unknown method %q", shared.ErrValidation, method)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", shared.ErrValidation)
	}
	return nil
}

func validMethod(m string) bool {
	return slices.Contains(Methods, m)
}
