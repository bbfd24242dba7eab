package leads

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/catalog"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/codes"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/regions"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
	_ "github.com/nippon-flex/servicios-rapidos-ec/testing"
)

type mockRepository struct {
	leads  map[int64]*Lead
	nextID int64

	txError     error
	createError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{leads: make(map[int64]*Lead), nextID: 1}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if m.txError != nil {
		return m.txError
	}
	return fn(ctx, m)
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Lead, error) {
	l, ok := m.leads[id]
	if !ok {
		return nil, fmt.Errorf("%w: lead %d", shared.ErrNotFound, id)
	}
	cp := *l
	return &cp, nil
}

func (m *mockRepository) List(ctx context.Context, req ListLeadsRequest) ([]Lead, int, error) {
	var out []Lead
	for _, l := range m.leads {
		if req.RegionID != 0 && l.RegionID != req.RegionID {
			continue
		}
		if req.Status != nil && l.Status != *req.Status {
			continue
		}
		out = append(out, *l)
	}
	return out, len(out), nil
}

func (m *mockRepository) Create(ctx context.Context, lead Lead) (int64, error) {
	if m.createError != nil {
		return 0, m.createError
	}
	lead.ID = m.nextID
	m.nextID++
	m.leads[lead.ID] = &lead
	return lead.ID, nil
}

func (m *mockRepository) Advance(ctx context.Context, id int64, to Status) (bool, error) {
	l, ok := m.leads[id]
	if !ok {
		return false, nil
	}
	if !CanAdvance(l.Status, to) {
		return false, nil
	}
	l.Status = to
	return true, nil
}

func (m *mockRepository) CountCreated(ctx context.Context, scope codes.Scope, from, to time.Time) (int, error) {
	n := 0
	for _, l := range m.leads {
		if scope.RegionID != 0 && l.RegionID != scope.RegionID {
			continue
		}
		if !l.CreatedAt.Before(from) && l.CreatedAt.Before(to) {
			n++
		}
	}
	return n, nil
}

type stubCatalog struct {
	offerings map[string]*catalog.Offering
}

func (s stubCatalog) Resolve(ctx context.Context, slug string) (*catalog.Offering, error) {
	o, ok := s.offerings[slug]
	if !ok {
		return nil, fmt.Errorf("%w: service %q", shared.ErrNotFound, slug)
	}
	return o, nil
}

func newTestService(repo *mockRepository) *Service {
	cat := stubCatalog{offerings: map[string]*catalog.Offering{
		"plomeria": {ID: 1, Slug: "plomeria", Name: "Plomería", Active: true},
	}}
	svc := NewService(repo, cat, codes.NewGenerator(nil, 0), nil)
	svc.WithClock(func() time.Time { return time.Date(2026, time.January, 15, 15, 0, 0, 0, time.UTC) })
	return svc
}

func validRequest() CreateLeadRequest {
	return CreateLeadRequest{
		CustomerName: "María Pérez",
		Phone:        "0991234567",
		Service:      "plomeria",
		Address:      "Av. Amazonas N34",
		Description:  "Fuga de agua en el baño",
	}
}

func TestCreateLead(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	lead, err := svc.Create(ctx, regions.Default(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "LD-202601-0001", lead.Code)
	assert.Equal(t, StatusNew, lead.Status)
	assert.Equal(t, "web", lead.Source)
	assert.Equal(t, int64(1), lead.RegionID)

	second, err := svc.Create(ctx, regions.Default(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "LD-202601-0002", second.Code)
}

func TestCreateLeadValidation(t *testing.T) {
	svc := newTestService(newMockRepository())
	ctx := context.Background()

	for name, mutate := range map[string]func(*CreateLeadRequest){
		"blank name":        func(r *CreateLeadRequest) { r.CustomerName = "  " },
		"blank phone":       func(r *CreateLeadRequest) { r.Phone = "" },
		"blank description": func(r *CreateLeadRequest) { r.Description = "\t" },
	} {
		t.Run(name, func(t *testing.T) {
			req := validRequest()
			mutate(&req)
			_, err := svc.Create(ctx, regions.Default(), req)
			require.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestCreateLeadUnknownService(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	req := validRequest()
	req.Service = "jardineria"
	_, err := svc.Create(context.Background(), regions.Default(), req)
	require.ErrorIs(t, err, shared.ErrNotFound)
	assert.Empty(t, repo.leads)
}

func TestCreateLeadTxFailure(t *testing.T) {
	repo := newMockRepository()
	repo.txError = errors.New("db down")
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), regions.Default(), validRequest())
	require.Error(t, err)
	assert.Empty(t, repo.leads)
}

func TestMarkContacted(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	lead, err := svc.Create(ctx, regions.Default(), validRequest())
	require.NoError(t, err)

	contacted, err := svc.MarkContacted(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusContacted, contacted.Status)

	_, err = svc.MarkContacted(ctx, lead.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = svc.MarkContacted(ctx, 999)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestStatusOrdering(t *testing.T) {
	assert.True(t, CanAdvance(StatusNew, StatusQuoting))
	assert.True(t, CanAdvance(StatusQuoting, StatusQuoted))
	assert.True(t, CanAdvance(StatusQuoted, StatusConverted))
	assert.False(t, CanAdvance(StatusConverted, StatusQuoting))
	assert.False(t, CanAdvance(StatusQuoted, StatusQuoted))
	assert.False(t, CanAdvance("COTIZANDO", StatusQuoted))

	assert.ElementsMatch(t, []Status{StatusNew, StatusContacted}, Before(StatusQuoting))
	assert.Empty(t, Before(StatusNew))
}

func TestListRejectsUnknownStatus(t *testing.T) {
	svc := newTestService(newMockRepository())
	bad := Status("COTIZADO")
	_, _, err := svc.List(context.Background(), ListLeadsRequest{Status: &bad})
	require.ErrorIs(t, err, shared.ErrValidation)
}
