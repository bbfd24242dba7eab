package notify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/notify"
)

type failingNotifier struct{ calls int }

func (f *failingNotifier) Notify(ctx context.Context, ev notify.Event) error {
	f.calls++
	return errors.New("redis down")
}

func TestDispatchTurnsFailureIntoWarning(t *testing.T) {
	n := &failingNotifier{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	warnings := notify.Dispatch(ctx, n, nil, notify.Event{Kind: notify.KindQuoteSent, Entity: "quote", EntityID: 3, Code: "CT-202601-0003"})

	assert.Equal(t, 1, n.calls)
	assert.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "CT-202601-0003")
	assert.Contains(t, warnings[0], "external service error")
}

func TestDispatchNopHasNoWarnings(t *testing.T) {
	assert.Empty(t, notify.Dispatch(context.Background(), notify.Nop{}, nil, notify.Event{Kind: notify.KindOrderClosed}))
	assert.Empty(t, notify.Dispatch(context.Background(), nil, nil, notify.Event{Kind: notify.KindOrderClosed}))
}

func TestEventKey(t *testing.T) {
	ev := notify.Event{Kind: notify.KindAdvancePaid, Entity: "order", EntityID: 9}
	assert.Equal(t, "advance_paid:order:9", ev.Key())
	assert.True(t, ev.Kind.Valid())
	assert.False(t, notify.Kind("other").Valid())
}
