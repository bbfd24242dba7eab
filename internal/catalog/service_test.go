package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
	_ "github.com/nippon-flex/servicios-rapidos-ec/testing"
)

type mockRepository struct {
	services map[string]*Offering
	nextID   int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		services: map[string]*Offering{
			"plomeria":     {ID: 1, Slug: "plomeria", Name: "Plomería", BasePrice: decimal.NewFromInt(25), Active: true},
			"electricidad": {ID: 2, Slug: "electricidad", Name: "Electricidad", BasePrice: decimal.NewFromInt(30), Active: true},
		},
		nextID: 3,
	}
}

func (m *mockRepository) GetBySlug(ctx context.Context, slug string) (*Offering, error) {
	s, ok := m.services[slug]
	if !ok {
		return nil, fmt.Errorf("%w: service %q", shared.ErrNotFound, slug)
	}
	cp := *s
	return &cp, nil
}

func (m *mockRepository) List(ctx context.Context, activeOnly bool) ([]Offering, error) {
	var out []Offering
	for _, s := range m.services {
		if activeOnly && !s.Active {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockRepository) Create(ctx context.Context, svc Offering) (int64, error) {
	if _, ok := m.services[svc.Slug]; ok {
		return 0, fmt.Errorf("%w: service %q already exists", shared.ErrConflict, svc.Slug)
	}
	svc.ID = m.nextID
	m.nextID++
	m.services[svc.Slug] = &svc
	return svc.ID, nil
}

func (m *mockRepository) Update(ctx context.Context, svc Offering) error {
	if _, ok := m.services[svc.Slug]; !ok {
		return fmt.Errorf("%w: service %q", shared.ErrNotFound, svc.Slug)
	}
	m.services[svc.Slug] = &svc
	return nil
}

func TestResolve(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	found, err := svc.Resolve(ctx, " Plomeria ")
	require.NoError(t, err)
	assert.Equal(t, int64(1), found.ID)

	_, err = svc.Resolve(ctx, "")
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Resolve(ctx, "jardineria")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateService(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	name := "  Plomería general "
	price := decimal.RequireFromString("27.50")
	updated, err := svc.Update(ctx, "plomeria", UpdateServiceRequest{Name: &name, BasePrice: &price})
	require.NoError(t, err)
	assert.Equal(t, "Plomería general", updated.Name)
	assert.True(t, price.Equal(repo.services["plomeria"].BasePrice))
	assert.True(t, repo.services["plomeria"].Active, "unset fields stay as they were")

	blank := " "
	_, err = svc.Update(ctx, "plomeria", UpdateServiceRequest{Name: &blank})
	require.ErrorIs(t, err, shared.ErrValidation)

	negative := decimal.NewFromInt(-1)
	_, err = svc.Update(ctx, "plomeria", UpdateServiceRequest{BasePrice: &negative})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Update(ctx, "jardineria", UpdateServiceRequest{Name: &name})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeactivateWithdrawsFromIntake(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	deactivated, err := svc.Deactivate(ctx, "electricidad")
	require.NoError(t, err)
	assert.False(t, deactivated.Active)
	require.Contains(t, repo.services, "electricidad", "soft delete keeps the row")

	_, err = svc.Resolve(ctx, "electricidad")
	require.ErrorIs(t, err, shared.ErrNotFound)
	assert.Contains(t, err.Error(), "not offered")

	active, err := svc.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "plomeria", active[0].Slug)

	all, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	on := true
	reactivated, err := svc.Update(ctx, "electricidad", UpdateServiceRequest{Active: &on})
	require.NoError(t, err)
	assert.True(t, reactivated.Active)
}

func TestCatalogHandler(t *testing.T) {
	repo := newMockRepository()
	handler := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), NewService(repo))
	router := chi.NewRouter()
	router.Route("/services", handler.MountRoutes)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		router.ServeHTTP(rec, httptest.NewRequest(method, path, reader))
		return rec
	}

	rec := do(http.MethodPut, "/services/plomeria", `{"base_price":"40.00"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got Offering
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "40", got.BasePrice.String())

	rec = do(http.MethodPut, "/services/plomeria", `{"slug":"otro"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "slug is not editable")

	rec = do(http.MethodDelete, "/services/plomeria", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, repo.services["plomeria"].Active)

	rec = do(http.MethodGet, "/services/plomeria", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(http.MethodGet, "/services", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Services []Offering `json:"services"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Services, 1)
	assert.Equal(t, "electricidad", list.Services[0].Slug)

	rec = do(http.MethodDelete, "/services/jardineria", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
