package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/orders"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		name    string
		current orders.Status
		typ     Type
		want    orders.Status
		wantErr error
	}{
		{"advance on pending", orders.StatusAdvancePending, TypeAdvance, orders.StatusAdvancePaid, nil},
		{"advance twice", orders.StatusAdvancePaid, TypeAdvance, "", shared.ErrInvalidState},
		{"balance after advance", orders.StatusAdvancePaid, TypeBalance, orders.StatusClosed, nil},
		{"balance while scheduled", orders.StatusScheduled, TypeBalance, orders.StatusClosed, nil},
		{"balance in progress", orders.StatusInProgress, TypeBalance, orders.StatusClosed, nil},
		{"balance skipping advance", orders.StatusAdvancePending, TypeBalance, "", shared.ErrInvalidState},
		{"balance on closed", orders.StatusClosed, TypeBalance, "", shared.ErrInvalidState},
		{"additional keeps status", orders.StatusInProgress, TypeAdditional, orders.StatusInProgress, nil},
		{"additional after close", orders.StatusClosed, TypeAdditional, orders.StatusClosed, nil},
		{"additional on cancelled", orders.StatusCancelled, TypeAdditional, "", shared.ErrInvalidState},
		{"unknown type", orders.StatusAdvancePending, Type("TIP"), "", shared.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextStatus(tt.current, tt.typ)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
