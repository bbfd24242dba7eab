package payments

import (
	"fmt"
	"slices"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/orders"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
)

// NextStatus returns the order status after a validated payment of type t
// lands on an order in current. ADDITIONAL payments leave the status as is.
func NextStatus(current orders.Status, t Type) (orders.Status, error) {
	if current == orders.StatusCancelled {
		return "", fmt.Errorf("%w: order is cancelled", shared.ErrInvalidState)
	}
	switch t {
	case TypeAdvance:
		if current != orders.StatusAdvancePending {
			return "", fmt.Errorf("%w: advance payment requires ADVANCE_PENDING, order is %s", shared.ErrInvalidState, current)
		}
		return orders.StatusAdvancePaid, nil
	case TypeBalance:
		if !slices.Contains(orders.Active, current) {
			return "", fmt.Errorf("%w: balance payment requires the advance to be paid, order is %s", shared.ErrInvalidState, current)
		}
		return orders.StatusClosed, nil
	case TypeAdditional:
		return current, nil
	}
	return "", fmt.Errorf("%w: unknown payment type %q", shared.ErrValidation, t)
}
