package warranty

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/codes"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/notify"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/orders"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/regions"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
	_ "github.com/nippon-flex/servicios-rapidos-ec/testing"
)

type mockRepository struct {
	cases  map[int64]*Case
	nextID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{cases: make(map[int64]*Case), nextID: 1}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Case, error) {
	c, ok := m.cases[id]
	if !ok {
		return nil, fmt.Errorf("%w: warranty case %d", shared.ErrNotFound, id)
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepository) GetByCode(ctx context.Context, code string) (*Case, error) {
	for _, c := range m.cases {
		if c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: warranty case %s", shared.ErrNotFound, code)
}

func (m *mockRepository) ListByOrder(ctx context.Context, orderID int64) ([]Case, error) {
	var out []Case
	for _, c := range m.cases {
		if c.OrderID == orderID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockRepository) Create(ctx context.Context, c Case) (int64, error) {
	c.ID = m.nextID
	m.nextID++
	m.cases[c.ID] = &c
	return c.ID, nil
}

func (m *mockRepository) Transition(ctx context.Context, id int64, from []Status, to Status, upd Update, at time.Time) error {
	c := m.cases[id]
	ok := false
	for _, s := range from {
		ok = ok || s == c.Status
	}
	if !ok {
		return fmt.Errorf("%w: warranty case %d cannot move to %s", shared.ErrInvalidState, id, to)
	}
	c.Status = to
	if upd.Covered != nil {
		c.Covered = upd.Covered
	}
	if upd.RejectionReason != nil {
		c.RejectionReason = upd.RejectionReason
	}
	if upd.RepairNote != nil {
		c.RepairNote = upd.RepairNote
	}
	if upd.Resolution != nil {
		c.Resolution = upd.Resolution
	}
	if upd.ResolvedAt != nil {
		c.ResolvedAt = upd.ResolvedAt
	}
	return nil
}

func (m *mockRepository) Audit(ctx context.Context, log shared.AuditLog) error { return nil }

func (m *mockRepository) CountCreated(ctx context.Context, scope codes.Scope, from, to time.Time) (int, error) {
	n := 0
	for _, c := range m.cases {
		if !c.CreatedAt.Before(from) && c.CreatedAt.Before(to) {
			n++
		}
	}
	return n, nil
}

var completedAt = time.Date(2026, time.February, 1, 17, 0, 0, 0, time.UTC)

type stubOrders map[int64]*orders.Order

func newStubOrders() stubOrders {
	return stubOrders{
		1: {ID: 1, Code: "OR-202601-0001", RegionID: 1, Status: orders.StatusClosed, CompletedAt: &completedAt},
		2: {ID: 2, Code: "OR-202601-0002", RegionID: 1, Status: orders.StatusInProgress},
	}
}

func (s stubOrders) Get(ctx context.Context, id int64) (*orders.Order, error) {
	o, ok := s[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %d", shared.ErrNotFound, id)
	}
	return o, nil
}

func (s stubOrders) GetByCode(ctx context.Context, regionID int64, code string) (*orders.Order, error) {
	for _, o := range s {
		if o.RegionID == regionID && o.Code == code {
			return o, nil
		}
	}
	return nil, fmt.Errorf("%w: order %s", shared.ErrNotFound, code)
}

type countingNotifier struct {
	calls int
	err   error
}

func (c *countingNotifier) Notify(ctx context.Context, ev notify.Event) error {
	c.calls++
	return c.err
}

func newTestService(t *testing.T, repo *mockRepository, notifier notify.Notifier) (*Service, *time.Time) {
	t.Helper()
	registry, err := regions.NewRegistry(regions.Default().Code, regions.Default())
	require.NoError(t, err)
	now := completedAt.AddDate(0, 0, 10)
	svc := NewService(repo, newStubOrders(), registry, codes.NewGenerator(nil, 0), notifier, nil)
	svc.WithClock(func() time.Time { return now })
	return svc, &now
}

func TestFileWarranty(t *testing.T) {
	repo := newMockRepository()
	notifier := &countingNotifier{}
	svc, _ := newTestService(t, repo, notifier)
	ctx := context.Background()

	c, warnings, err := svc.File(ctx, FileWarrantyRequest{OrderID: 1, CustomerReport: "Vuelve a gotear"})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "GAR-2026-00001", c.Code)
	assert.Equal(t, StatusReported, c.Status)
	assert.NotNil(t, c.Photos)
	assert.Equal(t, 1, notifier.calls)

	second, _, err := svc.FilePublic(ctx, 1, PublicFileRequest{OrderCode: "or-202601-0001", CustomerReport: "Sigue goteando"})
	require.NoError(t, err)
	assert.Equal(t, "GAR-2026-00002", second.Code)
}

func TestFilePublicChecksRegionAndPhotos(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestService(t, repo, nil)
	ctx := context.Background()

	_, _, err := svc.FilePublic(ctx, 2, PublicFileRequest{OrderCode: "OR-202601-0001", CustomerReport: "Gotea"})
	require.ErrorIs(t, err, shared.ErrNotFound)

	for _, bad := range []string{"javascript:alert(1)", "/uploads/a.jpg", "ftp://cdn.example.com/a.jpg"} {
		_, _, err = svc.FilePublic(ctx, 1, PublicFileRequest{
			OrderCode: "OR-202601-0001", CustomerReport: "Gotea", Photos: []string{"https://cdn.example.com/ok.jpg", bad},
		})
		require.ErrorIs(t, err, shared.ErrValidation, bad)
	}
	assert.Empty(t, repo.cases)

	c, _, err := svc.FilePublic(ctx, 1, PublicFileRequest{
		OrderCode: "OR-202601-0001", CustomerReport: "Gotea", Photos: []string{" https://cdn.example.com/ok.jpg "},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.example.com/ok.jpg"}, c.Photos)
}

func TestFileWarrantyPreconditions(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestService(t, repo, nil)
	ctx := context.Background()

	_, _, err := svc.File(ctx, FileWarrantyRequest{OrderID: 99, CustomerReport: "x"})
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, _, err = svc.File(ctx, FileWarrantyRequest{OrderID: 2, CustomerReport: "x"})
	require.ErrorIs(t, err, shared.ErrInvalidState)

	_, _, err = svc.File(ctx, FileWarrantyRequest{OrderID: 1, CustomerReport: "   "})
	require.ErrorIs(t, err, shared.ErrValidation)
	assert.Empty(t, repo.cases)
}

func TestFileWarrantyNotifierFailure(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestService(t, repo, &countingNotifier{err: errors.New("redis down")})

	c, warnings, err := svc.File(context.Background(), FileWarrantyRequest{OrderID: 1, CustomerReport: "Falla"})
	require.NoError(t, err)
	assert.NotZero(t, c.ID)
	assert.Len(t, warnings, 1)
}

func TestWarrantyLifecycle(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestService(t, repo, nil)
	ctx := context.Background()

	c, _, err := svc.File(ctx, FileWarrantyRequest{OrderID: 1, CustomerReport: "Falla"})
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, c.ID, "cambio de empaque")
	require.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = svc.StartReview(ctx, c.ID)
	require.NoError(t, err)

	approved, err := svc.SetCoverage(ctx, c.ID, true, "")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	require.NotNil(t, approved.Covered)
	assert.True(t, *approved.Covered)

	_, err = svc.StartRepair(ctx, c.ID, "se agenda visita")
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, c.ID, "  ")
	require.ErrorIs(t, err, shared.ErrValidation)

	resolved, err := svc.Resolve(ctx, c.ID, "cambio de empaque")
	require.NoError(t, err)
	assert.Equal(t, StatusResolved, resolved.Status)
	assert.NotNil(t, resolved.ResolvedAt)
}

func TestRejectCoverageNeedsReason(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestService(t, repo, nil)
	ctx := context.Background()

	c, _, err := svc.File(ctx, FileWarrantyRequest{OrderID: 1, CustomerReport: "Falla"})
	require.NoError(t, err)

	_, err = svc.SetCoverage(ctx, c.ID, false, "")
	require.ErrorIs(t, err, shared.ErrValidation)

	rejected, err := svc.SetCoverage(ctx, c.ID, false, "daño por mal uso")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)

	_, err = svc.StartRepair(ctx, c.ID, "")
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestLookupReportsVigency(t *testing.T) {
	repo := newMockRepository()
	svc, now := newTestService(t, repo, nil)
	ctx := context.Background()

	c, _, err := svc.File(ctx, FileWarrantyRequest{OrderID: 1, CustomerReport: "Falla"})
	require.NoError(t, err)

	view, err := svc.GetByCode(ctx, c.Code)
	require.NoError(t, err)
	assert.Equal(t, "OR-202601-0001", view.OrderCode)
	assert.True(t, view.Vigency.Vigent)
	assert.Equal(t, 80, view.Vigency.DaysRemaining)

	*now = completedAt.AddDate(0, 0, 90)
	view, err = svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, view.Vigency.Vigent)
	assert.Equal(t, StatusReported, view.Status)
}
