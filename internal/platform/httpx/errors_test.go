package httpx_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/platform/httpx"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
)

func TestRespondErrorStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: order 9", shared.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: order OR-202601-0001 exists", shared.ErrConflict), http.StatusConflict},
		{shared.ErrInvalidState, http.StatusBadRequest},
		{shared.ErrValidation, http.StatusBadRequest},
		{shared.ErrExternalService, http.StatusBadGateway},
		{fmt.Errorf("lock order codes: %w", shared.ErrBusy), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		httpx.RespondError(rec, tc.err)
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	}
}

func TestRespondErrorBusySetsRetryAfter(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.RespondError(rec, shared.ErrBusy)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	rec = httptest.NewRecorder()
	httpx.RespondError(rec, errors.New("boom"))
	assert.Empty(t, rec.Header().Get("Retry-After"))
	assert.NotContains(t, rec.Body.String(), "boom")
}
