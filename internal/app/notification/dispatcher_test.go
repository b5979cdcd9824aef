package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/YelzhanWeb/pizzeria-core/internal/adapter/logger"
	"github.com/YelzhanWeb/pizzeria-core/internal/domain"
	"github.com/YelzhanWeb/pizzeria-core/internal/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentNotification struct {
	room  string
	event string
	n     Notification
}

type fakeBroadcaster struct {
	sent []sentNotification
}

func (b *fakeBroadcaster) Broadcast(_ context.Context, room, event string, payload any) error {
	b.sent = append(b.sent, sentNotification{room: room, event: event, n: payload.(Notification)})
	return nil
}

func (b *fakeBroadcaster) perRoom(room string) []sentNotification {
	var out []sentNotification
	for _, s := range b.sent {
		if s.room == room {
			out = append(out, s)
		}
	}
	return out
}

type fakeStore struct {
	mu      sync.Mutex
	applied []interfaces.LifecycleEvent
}

func (s *fakeStore) Apply(evt interfaces.LifecycleEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied = append(s.applied, evt)
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.applied)
}

func newTestDispatcher(cfg Config) (*Dispatcher, *fakeStore, *fakeBroadcaster, *time.Time) {
	transport := &fakeBroadcaster{}
	store := &fakeStore{}
	d := NewDispatcher(cfg, transport, logger.NewNoop())
	d.SetStore(store)
	current := time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return current }
	return d, store, transport, &current
}

func orderEvent(eventType string, id int) interfaces.LifecycleEvent {
	return interfaces.LifecycleEvent{
		Type:  eventType,
		Order: &domain.Order{ID: id, Status: domain.StatusNuevo},
	}
}

func TestFlushCoalescesBurstIntoOneNotification(t *testing.T) {
	d, store, transport, _ := newTestDispatcher(Config{})

	// Three orders land inside one debounce window.
	d.Publish(orderEvent(interfaces.EventNuevoPedido, 1))
	d.Publish(orderEvent(interfaces.EventNuevoPedido, 2))
	d.Publish(orderEvent(interfaces.EventNuevoPedido, 3))
	assert.Equal(t, 3, d.Pending())

	d.Flush()
	assert.Equal(t, 0, d.Pending())

	// Every individual event reached the store, in arrival order.
	require.Len(t, store.applied, 3)
	assert.Equal(t, 1, store.applied[0].Order.ID)
	assert.Equal(t, 3, store.applied[2].Order.ID)

	// One visual notification per room, counting the whole group.
	for _, room := range []string{interfaces.RoomCocina, interfaces.RoomAdmin} {
		sent := transport.perRoom(room)
		require.Len(t, sent, 1, room)
		assert.Equal(t, interfaces.EventNuevoPedido, sent[0].event)
		assert.Equal(t, 3, sent[0].n.Count)
		require.Len(t, sent[0].n.Orders, 3)
		assert.True(t, sent[0].n.Audio)
	}
}

func TestFlushGroupsByTypeInArrivalOrder(t *testing.T) {
	d, _, transport, _ := newTestDispatcher(Config{})

	d.Publish(orderEvent(interfaces.EventCambioEstado, 1))
	d.Publish(orderEvent(interfaces.EventNuevoPedido, 2))
	d.Publish(orderEvent(interfaces.EventCambioEstado, 3))
	d.Flush()

	sent := transport.perRoom(interfaces.RoomCocina)
	require.Len(t, sent, 2)
	assert.Equal(t, interfaces.EventCambioEstado, sent[0].event)
	assert.Equal(t, 2, sent[0].n.Count)
	assert.Equal(t, interfaces.EventNuevoPedido, sent[1].event)
	assert.Equal(t, 1, sent[1].n.Count)
}

func TestAudioRateLimitPerType(t *testing.T) {
	d, _, transport, now := newTestDispatcher(Config{MinAudioInterval: time.Second})

	d.Publish(orderEvent(interfaces.EventNuevoPedido, 1))
	d.Flush()

	// A second flush inside the window gets the visual but not the cue.
	*now = now.Add(300 * time.Millisecond)
	d.Publish(orderEvent(interfaces.EventNuevoPedido, 2))
	d.Flush()

	// A different type has its own window.
	d.Publish(orderEvent(interfaces.EventCambioEstado, 3))
	d.Flush()

	// Past the interval the cue fires again.
	*now = now.Add(time.Second)
	d.Publish(orderEvent(interfaces.EventNuevoPedido, 4))
	d.Flush()

	sent := transport.perRoom(interfaces.RoomCocina)
	require.Len(t, sent, 4)
	assert.True(t, sent[0].n.Audio)
	assert.False(t, sent[1].n.Audio)
	assert.True(t, sent[2].n.Audio)
	assert.True(t, sent[3].n.Audio)
}

func TestDisabledTypeStillAppliesState(t *testing.T) {
	d, store, transport, _ := newTestDispatcher(Config{
		Types: map[string]TypeConfig{
			interfaces.EventCambioEstado: {Enabled: false},
		},
	})

	d.Publish(orderEvent(interfaces.EventCambioEstado, 1))
	d.Flush()

	// The board saw the update; no signal left the building.
	require.Len(t, store.applied, 1)
	assert.Empty(t, transport.sent)
}

func TestConfiguredVolumeCarriesThrough(t *testing.T) {
	d, _, transport, _ := newTestDispatcher(Config{
		Types: map[string]TypeConfig{
			interfaces.EventAlertaTiempo: {Enabled: true, Volume: 0.4},
		},
	})

	d.Publish(interfaces.LifecycleEvent{
		Type:  interfaces.EventAlertaTiempo,
		Order: &domain.Order{ID: 1},
		Alert: &interfaces.TimeAlert{OrderID: 1, Priority: domain.PriorityUrgente, ElapsedMinutes: 16},
	})
	d.Flush()

	sent := transport.perRoom(interfaces.RoomAdmin)
	require.Len(t, sent, 1)
	assert.InDelta(t, 0.4, sent[0].n.Volume, 1e-9)
	require.Len(t, sent[0].n.Alerts, 1)
	assert.Equal(t, 16, sent[0].n.Alerts[0].ElapsedMinutes)
}

func TestUnknownTypeDefaultsEnabled(t *testing.T) {
	d, _, transport, _ := newTestDispatcher(Config{})

	d.Publish(orderEvent("evento_desconocido", 1))
	d.Flush()

	sent := transport.perRoom(interfaces.RoomCocina)
	require.Len(t, sent, 1)
	assert.InDelta(t, 1.0, sent[0].n.Volume, 1e-9)
}

func TestQueueOverflowDropsOldest(t *testing.T) {
	d, store, _, _ := newTestDispatcher(Config{QueueLimit: 2})

	d.Publish(orderEvent(interfaces.EventNuevoPedido, 1))
	d.Publish(orderEvent(interfaces.EventNuevoPedido, 2))
	d.Publish(orderEvent(interfaces.EventNuevoPedido, 3))
	assert.Equal(t, 2, d.Pending())

	d.Flush()
	require.Len(t, store.applied, 2)
	assert.Equal(t, 2, store.applied[0].Order.ID)
	assert.Equal(t, 3, store.applied[1].Order.ID)
}

func TestFlushOnEmptyQueueIsNoop(t *testing.T) {
	d, store, transport, _ := newTestDispatcher(Config{})

	d.Flush()
	assert.Empty(t, store.applied)
	assert.Empty(t, transport.sent)
}

func TestDebounceTimerFiresFlush(t *testing.T) {
	d, store, _, _ := newTestDispatcher(Config{Debounce: 10 * time.Millisecond})

	d.Publish(orderEvent(interfaces.EventNuevoPedido, 1))

	assert.Eventually(t, func() bool {
		return d.Pending() == 0 && store.count() == 1
	}, time.Second, 5*time.Millisecond)
}
