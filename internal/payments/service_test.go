package payments

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/notify"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/orders"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/workers"
	_ "github.com/nippon-flex/servicios-rapidos-ec/testing"
)

type mockRepository struct {
	orders   map[int64]*orders.Order
	payments map[int64]*Payment
	payouts  []Payout
	keys     map[string]bool
	audit    []shared.AuditLog
	nextID   int64
}

func newMockRepository() *mockRepository {
	worker := int64(7)
	return &mockRepository{
		orders: map[int64]*orders.Order{
			1: {ID: 1, Code: "OR-202601-0001", RegionID: 1, Status: orders.StatusAdvancePending, WorkerID: &worker,
				Total: decimal.RequireFromString("40.25"), WorkerCost: decimal.NewFromInt(25)},
			2: {ID: 2, Code: "OR-202601-0002", RegionID: 1, Status: orders.StatusCancelled},
		},
		payments: make(map[int64]*Payment),
		keys:     make(map[string]bool),
		nextID:   1,
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	snapshot := m.clone()
	if err := fn(ctx, snapshot); err != nil {
		return err
	}
	*m = *snapshot
	return nil
}

func (m *mockRepository) clone() *mockRepository {
	cp := &mockRepository{
		orders:   make(map[int64]*orders.Order, len(m.orders)),
		payments: make(map[int64]*Payment, len(m.payments)),
		payouts:  append([]Payout(nil), m.payouts...),
		keys:     make(map[string]bool, len(m.keys)),
		audit:    append([]shared.AuditLog(nil), m.audit...),
		nextID:   m.nextID,
	}
	for id, o := range m.orders {
		c := *o
		cp.orders[id] = &c
	}
	for id, p := range m.payments {
		c := *p
		cp.payments[id] = &c
	}
	for k := range m.keys {
		cp.keys[k] = true
	}
	return cp
}

func (m *mockRepository) LockOrder(ctx context.Context, orderID int64) (*orders.Order, error) {
	o, ok := m.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: order %d", shared.ErrNotFound, orderID)
	}
	cp := *o
	return &cp, nil
}

func (m *mockRepository) ApplyOrder(ctx context.Context, orderID int64, change orders.Change) error {
	o := m.orders[orderID]
	if len(change.From) != 1 || change.From[0] != o.Status {
		return fmt.Errorf("%w: order %d cannot move to %s", shared.ErrInvalidState, orderID, change.To)
	}
	o.Status = change.To
	if change.To == orders.StatusClosed {
		o.CompletedAt = &change.At
	}
	return nil
}

func (m *mockRepository) ClaimKey(ctx context.Context, key string) error {
	if m.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	m.keys[key] = true
	return nil
}

func (m *mockRepository) Create(ctx context.Context, p Payment) (int64, error) {
	p.ID = m.nextID
	m.nextID++
	m.payments[p.ID] = &p
	return p.ID, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Payment, error) {
	p, ok := m.payments[id]
	if !ok {
		return nil, fmt.Errorf("%w: payment %d", shared.ErrNotFound, id)
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepository) MarkValidated(ctx context.Context, id int64, by string, at time.Time) error {
	p := m.payments[id]
	if p.Validated {
		return fmt.Errorf("%w: payment %d already validated", shared.ErrInvalidState, id)
	}
	p.Validated, p.ValidatedBy, p.ValidatedAt = true, &by, &at
	return nil
}

func (m *mockRepository) ListByOrder(ctx context.Context, orderID int64) ([]Payment, error) {
	var out []Payment
	for _, p := range m.payments {
		if p.OrderID == orderID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockRepository) CreatePayout(ctx context.Context, p Payout) (int64, error) {
	p.ID = m.nextID
	m.nextID++
	m.payouts = append(m.payouts, p)
	return p.ID, nil
}

func (m *mockRepository) ListPayouts(ctx context.Context, workerID int64) ([]Payout, error) {
	var out []Payout
	for _, p := range m.payouts {
		if p.WorkerID == workerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockRepository) WorkerBalance(ctx context.Context, workerID int64) (WorkerBalance, error) {
	b := WorkerBalance{WorkerID: workerID, Earned: decimal.Zero, Paid: decimal.Zero}
	for _, o := range m.orders {
		if o.Status == orders.StatusClosed && o.WorkerID != nil && *o.WorkerID == workerID {
			b.Earned = b.Earned.Add(o.WorkerCost)
		}
	}
	for _, p := range m.payouts {
		if p.WorkerID == workerID {
			b.Paid = b.Paid.Add(p.Amount)
		}
	}
	b.Pending = b.Earned.Sub(b.Paid)
	return b, nil
}

func (m *mockRepository) Audit(ctx context.Context, log shared.AuditLog) error {
	m.audit = append(m.audit, log)
	return nil
}

type orderFinder struct{ repo *mockRepository }

func (f orderFinder) Get(ctx context.Context, id int64) (*orders.Order, error) {
	return f.repo.LockOrder(ctx, id)
}

func (f orderFinder) GetByCode(ctx context.Context, regionID int64, code string) (*orders.Order, error) {
	for _, o := range f.repo.orders {
		if o.RegionID == regionID && o.Code == code {
			cp := *o
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: order %s", shared.ErrNotFound, code)
}

type stubWorkers map[int64]*workers.Worker

func (s stubWorkers) Get(ctx context.Context, id int64) (*workers.Worker, error) {
	w, ok := s[id]
	if !ok {
		return nil, fmt.Errorf("%w: worker %d", shared.ErrNotFound, id)
	}
	return w, nil
}

type recordingNotifier struct {
	events []notify.Event
	err    error
}

func (r *recordingNotifier) Notify(ctx context.Context, ev notify.Event) error {
	r.events = append(r.events, ev)
	return r.err
}

func newTestService(repo *mockRepository, notifier notify.Notifier) *Service {
	ws := stubWorkers{7: {ID: 7, Name: "Luis", Active: true}, 8: {ID: 8, Name: "Pedro", Active: true}}
	svc := NewService(repo, orderFinder{repo: repo}, ws, notifier, nil)
	svc.WithClock(func() time.Time { return time.Date(2026, time.January, 21, 16, 0, 0, 0, time.UTC) })
	return svc
}

func payment(orderID int64, typ Type, amount string) RecordPaymentRequest {
	return RecordPaymentRequest{OrderID: orderID, Type: typ, Method: "transfer", Amount: decimal.RequireFromString(amount)}
}

func TestRecordAdvanceThenBalanceClosesOrder(t *testing.T) {
	repo := newMockRepository()
	notifier := &recordingNotifier{}
	svc := newTestService(repo, notifier)
	ctx := shared.ContextWithActor(context.Background(), "operadora")

	res, err := svc.Record(ctx, payment(1, TypeAdvance, "12.08"), "")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusAdvancePaid, res.OrderStatus)
	assert.True(t, res.Payment.Validated)
	require.NotNil(t, res.Payment.ValidatedBy)
	assert.Equal(t, "operadora", *res.Payment.ValidatedBy)

	res, err = svc.Record(ctx, payment(1, TypeBalance, "28.17"), "")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusClosed, res.OrderStatus)
	assert.NotNil(t, repo.orders[1].CompletedAt)

	require.Len(t, notifier.events, 2)
	assert.Equal(t, notify.KindAdvancePaid, notifier.events[0].Kind)
	assert.Equal(t, notify.KindOrderClosed, notifier.events[1].Kind)
	assert.Equal(t, "OR-202601-0001", notifier.events[1].Code)
}

func TestBalanceBeforeAdvanceRejected(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, nil)

	_, err := svc.Record(context.Background(), payment(1, TypeBalance, "40.25"), "")
	require.ErrorIs(t, err, shared.ErrInvalidState)
	assert.Empty(t, repo.payments)
	assert.Equal(t, orders.StatusAdvancePending, repo.orders[1].Status)
}

func TestRecordPaymentErrors(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	_, err := svc.Record(ctx, payment(99, TypeAdvance, "10"), "")
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Record(ctx, payment(2, TypeAdditional, "10"), "")
	require.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = svc.Record(ctx, payment(1, TypeAdvance, "0"), "")
	require.ErrorIs(t, err, shared.ErrValidation)

	req := payment(1, TypeAdvance, "10")
	req.Method = "bitcoin"
	_, err = svc.Record(ctx, req, "")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestIdempotencyKeyReplayConflicts(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	_, err := svc.Record(ctx, payment(1, TypeAdditional, "5"), "key-1")
	require.NoError(t, err)
	_, err = svc.Record(ctx, payment(1, TypeAdditional, "5"), "key-1")
	require.ErrorIs(t, err, shared.ErrConflict)
	assert.Len(t, repo.payments, 1)
}

func TestNotifierFailureIsWarning(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, &recordingNotifier{err: errors.New("queue down")})

	res, err := svc.Record(context.Background(), payment(1, TypeAdvance, "12.08"), "")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusAdvancePaid, repo.orders[1].Status)
	assert.Len(t, res.Warnings, 1)
}

func TestClientPaymentNeedsValidation(t *testing.T) {
	repo := newMockRepository()
	notifier := &recordingNotifier{}
	svc := newTestService(repo, notifier)
	ctx := context.Background()

	reported, err := svc.ReportClient(ctx, 1, "OR-202601-0001", ClientPaymentRequest{
		Type: TypeAdvance, Method: "transfer", Amount: decimal.RequireFromString("12.08"),
		ReceiptURL: "https://cdn.example.com/receipt.jpg",
	})
	require.NoError(t, err)
	assert.False(t, reported.Validated)
	assert.Equal(t, SourceClient, reported.Source)
	assert.Equal(t, orders.StatusAdvancePending, repo.orders[1].Status)
	assert.Empty(t, notifier.events)

	res, err := svc.Validate(shared.ContextWithActor(ctx, "caja"), reported.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusAdvancePaid, res.OrderStatus)
	assert.True(t, res.Payment.Validated)
	assert.Equal(t, orders.StatusAdvancePaid, repo.orders[1].Status)
	require.Len(t, notifier.events, 1)

	_, err = svc.Validate(ctx, reported.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = svc.ReportClient(ctx, 1, "OR-202601-0002", ClientPaymentRequest{
		Type: TypeAdvance, Method: "cash", Amount: decimal.NewFromInt(1), ReceiptURL: "https://cdn.example.com/r.jpg",
	})
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestPayoutsAndBalance(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	orderID := int64(1)
	_, err := svc.RecordPayout(ctx, RecordPayoutRequest{WorkerID: 8, OrderID: &orderID, Amount: decimal.NewFromInt(10), Method: "cash"})
	require.ErrorIs(t, err, shared.ErrValidation, "worker 8 is not assigned")

	_, err = svc.RecordPayout(ctx, RecordPayoutRequest{WorkerID: 99, Amount: decimal.NewFromInt(10), Method: "cash"})
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.RecordPayout(ctx, RecordPayoutRequest{WorkerID: 7, OrderID: &orderID, Amount: decimal.NewFromInt(10), Method: "cash"})
	require.NoError(t, err)

	balance, err := svc.Balance(ctx, 7)
	require.NoError(t, err)
	assert.True(t, balance.Earned.IsZero(), "order not closed yet")
	assert.True(t, decimal.NewFromInt(-10).Equal(balance.Pending))

	repo.orders[1].Status = orders.StatusClosed
	balance, err = svc.Balance(ctx, 7)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(25).Equal(balance.Earned))
	assert.True(t, decimal.NewFromInt(15).Equal(balance.Pending))

	payouts, err := svc.ListPayouts(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, payouts, 1)
}
