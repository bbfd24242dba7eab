package regions_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/regions"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
	_ "github.com/nippon-flex/servicios-rapidos-ec/testing"
)

const sampleYAML = `
regions:
  - id: 1
    code: UIO
    name: Quito
    tax_percent: 15
    advance_percent: 30
    warranty_days: 90
    currency: USD
    timezone: America/Guayaquil
  - id: 2
    code: gye
    name: Guayaquil
    tax_percent: 15
    advance_percent: 40
    warranty_days: 60
`

func TestParseRegistry(t *testing.T) {
	reg, err := regions.Parse([]byte(sampleYAML), "uio")
	require.NoError(t, err)

	quito, err := reg.Get(1)
	require.NoError(t, err)
	assert.True(t, quito.TaxRate().Equal(decimal.RequireFromString("0.15")))
	assert.True(t, quito.AdvanceRate().Equal(decimal.RequireFromString("0.3")))
	assert.Equal(t, "America/Guayaquil", quito.Location().String())

	gye, err := reg.ByCode("GYE")
	require.NoError(t, err)
	assert.Equal(t, 60, gye.WarrantyDays)
	assert.Equal(t, "USD", gye.Currency)
	assert.Equal(t, int64(1), reg.Default().ID)
	assert.Len(t, reg.All(), 2)
}

func TestRegistryRejectsBadConfig(t *testing.T) {
	_, err := regions.Parse([]byte("regions: []"), "UIO")
	require.ErrorIs(t, err, shared.ErrValidation)

	bad := regions.Default()
	bad.AdvancePct = decimal.NewFromInt(120)
	_, err = regions.NewRegistry("UIO", bad)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = regions.NewRegistry("XXX", regions.Default())
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestRegistryLookupMissing(t *testing.T) {
	reg, err := regions.LoadFile("", "UIO")
	require.NoError(t, err)
	_, err = reg.Get(99)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestMiddlewareResolvesHeader(t *testing.T) {
	reg, err := regions.Parse([]byte(sampleYAML), "UIO")
	require.NoError(t, err)

	var seen regions.Region
	h := reg.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = regions.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "UIO", seen.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(regions.HeaderName, "gye")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "gye", seen.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(regions.HeaderName, "nope")
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestDefaultRegionUsesGuayaquilClock(t *testing.T) {
	loc := regions.Default().Location()
	require.Equal(t, "America/Guayaquil", loc.String())

	// 03:00 UTC on Feb 1 is still January 31 locally.
	at := time.Date(2026, time.February, 1, 3, 0, 0, 0, time.UTC).In(loc)
	_, offset := at.Zone()
	assert.Equal(t, -5*60*60, offset)
	assert.Equal(t, time.January, at.Month())
}

func TestFromRequest(t *testing.T) {
	_, err := regions.FromRequest(context.Background())
	require.ErrorIs(t, err, regions.ErrUnresolved)

	ctx := regions.WithContext(context.Background(), regions.Default())
	region, err := regions.FromRequest(ctx)
	require.NoError(t, err)
	assert.Equal(t, regions.Default().Code, region.Code)
}
