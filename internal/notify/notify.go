// Package notify decouples lifecycle transitions from customer messaging.
// Services publish an Event after their transaction commits; delivery
// problems surface as warnings and never undo the transition.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
)

// Kind names the lifecycle event that warrants a customer message.
type Kind string

const (
	KindQuoteSent     Kind = "quote_sent"
	KindAdvancePaid   Kind = "advance_paid"
	KindOrderClosed   Kind = "order_closed"
	KindWarrantyFiled Kind = "warranty_filed"
)

// Valid reports whether k is a known event kind.
func (k Kind) Valid() bool {
	switch k {
	case KindQuoteSent, KindAdvancePaid, KindOrderClosed, KindWarrantyFiled:
		return true
	}
	return false
}

// Event identifies the entity a message is about.
type Event struct {
	Kind     Kind   `json:"kind"`
	Entity   string `json:"entity"`
	EntityID int64  `json:"entity_id"`
	Code     string `json:"code,omitempty"`
}

// Key is stable for the same event so repeated publication can be deduplicated.
func (e Event) Key() string {
	return fmt.Sprintf("%s:%s:%d", e.Kind, e.Entity, e.EntityID)
}

// Notifier publishes events.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

const dispatchTimeout = 3 * time.Second

// Dispatch publishes ev and turns any failure into a warning. The request
// context's cancellation is ignored so a finished response still publishes.
func Dispatch(ctx context.Context, n Notifier, logger *slog.Logger, ev Event) shared.Warnings {
	var warnings shared.Warnings
	if n == nil {
		return warnings
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dispatchTimeout)
	defer cancel()
	if err := n.Notify(ctx, ev); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("notification dispatch failed",
			slog.String("kind", string(ev.Kind)),
			slog.Int64("entity_id", ev.EntityID),
			slog.Any("error", err))
		warnings.Add(fmt.Errorf("%w: message for %s not queued: %v", shared.ErrExternalService, ev.Code, err))
	}
	return warnings
}
