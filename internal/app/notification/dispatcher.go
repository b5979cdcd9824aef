package notification

import (
	"context"
	"sync"
	"time"

	"github.com/YelzhanWeb/pizzeria-core/internal/adapter/logger"
	"github.com/YelzhanWeb/pizzeria-core/internal/domain"
	"github.com/YelzhanWeb/pizzeria-core/internal/interfaces"
)

// Store receives the underlying state update for every drained event,
// independent of whether a user-facing signal fires.
type Store interface {
	Apply(evt interfaces.LifecycleEvent)
}

// TypeConfig controls the user-facing signals of one event type.
type TypeConfig struct {
	Enabled bool
	Volume  float64
}

// Config tunes the dispatcher windows and per-type signals.
type Config struct {
	Debounce         time.Duration
	MinAudioInterval time.Duration
	QueueLimit       int
	Types            map[string]TypeConfig
}

// Notification is the visual signal broadcast for one event group.
// Orders and Alerts preserve the original arrival order of the batch.
type Notification struct {
	Event  string                  `json:"event"`
	Count  int                     `json:"count"`
	Orders []*domain.Order         `json:"orders,omitempty"`
	Alerts []*interfaces.TimeAlert `json:"alerts,omitempty"`
	Audio  bool                    `json:"audio"`
	Volume float64                 `json:"volume"`
}

// Dispatcher coalesces bursts of lifecycle events into a bounded
// number of user-facing signals. Events buffer in a queue; each
// arrival re-arms the debounce timer, and when it fires the whole
// queue drains as one batch. Within the batch, events group by type:
// the store update applies per event, but each group emits at most one
// visual notification and attempts at most one audio cue. Audio cues
// are additionally rate-limited per type.
type Dispatcher struct {
	mu        sync.Mutex
	queue     []interfaces.LifecycleEvent
	timer     *time.Timer
	lastAudio map[string]time.Time

	cfg       Config
	store     Store
	transport interfaces.Broadcaster
	logger    logger.Logger
	now       func() time.Time
}

const (
	DefaultDebounce         = 100 * time.Millisecond
	DefaultMinAudioInterval = 1000 * time.Millisecond
	DefaultQueueLimit       = 1024
)

func NewDispatcher(cfg Config, transport interfaces.Broadcaster, lgr logger.Logger) *Dispatcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.MinAudioInterval <= 0 {
		cfg.MinAudioInterval = DefaultMinAudioInterval
	}
	if cfg.QueueLimit <= 0 {
		cfg.QueueLimit = DefaultQueueLimit
	}
	return &Dispatcher{
		lastAudio: make(map[string]time.Time),
		cfg:       cfg,
		transport: transport,
		logger:    lgr,
		now:       time.Now,
	}
}

// SetStore wires the client-visible order store. Called once during
// startup, before any event is published.
func (d *Dispatcher) SetStore(store Store) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.store = store
}

// Publish appends an event to the queue and (re)arms the debounce
// timer. It never blocks; when the bounded queue is full the oldest
// event is dropped.
func (d *Dispatcher) Publish(evt interfaces.LifecycleEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if evt.At.IsZero() {
		evt.At = d.now()
	}

	if len(d.queue) >= d.cfg.QueueLimit {
		d.logger.Error("event_queue_full", "Dropping oldest lifecycle event", "", map[string]interface{}{
			"limit": d.cfg.QueueLimit,
		}, nil)
		d.queue = d.queue[1:]
	}
	d.queue = append(d.queue, evt)

	if d.timer == nil {
		d.timer = time.AfterFunc(d.cfg.Debounce, d.Flush)
	} else {
		d.timer.Reset(d.cfg.Debounce)
	}
}

// Flush drains the queue as one batch. Normally fired by the debounce
// timer; an extra superfluous drain is harmless.
func (d *Dispatcher) Flush() {
	d.mu.Lock()
	batch := d.queue
	d.queue = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	store := d.store
	now := d.now()

	// Group by event type, keeping first-arrival order of both the
	// groups and the events inside each group.
	var order []string
	groups := make(map[string][]interfaces.LifecycleEvent)
	for _, evt := range batch {
		if _, ok := groups[evt.Type]; !ok {
			order = append(order, evt.Type)
		}
		groups[evt.Type] = append(groups[evt.Type], evt)
	}

	// Audio admission is decided under the lock so concurrent flushes
	// cannot double-fire a cue within the rate-limit window.
	audio := make(map[string]bool, len(order))
	for _, eventType := range order {
		cfg, ok := d.cfg.Types[eventType]
		if !ok {
			cfg = TypeConfig{Enabled: true, Volume: 1.0}
		}
		if !cfg.Enabled {
			continue
		}
		last, seen := d.lastAudio[eventType]
		if !seen || now.Sub(last) >= d.cfg.MinAudioInterval {
			audio[eventType] = true
			d.lastAudio[eventType] = now
		}
	}
	d.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	for _, eventType := range order {
		events := groups[eventType]

		// The state update applies for every event in the group even
		// when the type's signals are disabled.
		if store != nil {
			for _, evt := range events {
				store.Apply(evt)
			}
		}

		cfg, ok := d.cfg.Types[eventType]
		if !ok {
			cfg = TypeConfig{Enabled: true, Volume: 1.0}
		}
		if !cfg.Enabled {
			continue
		}

		n := Notification{
			Event:  eventType,
			Count:  len(events),
			Audio:  audio[eventType],
			Volume: cfg.Volume,
		}
		for _, evt := range events {
			if evt.Order != nil {
				n.Orders = append(n.Orders, evt.Order)
			}
			if evt.Alert != nil {
				n.Alerts = append(n.Alerts, evt.Alert)
			}
		}

		d.broadcast(eventType, n)
	}
}

func (d *Dispatcher) broadcast(eventType string, n Notification) {
	ctx := context.Background()
	for _, room := range []string{interfaces.RoomCocina, interfaces.RoomAdmin} {
		if err := d.transport.Broadcast(ctx, room, eventType, n); err != nil {
			d.logger.Error("broadcast_failed", "Failed to broadcast notification", "", map[string]interface{}{
				"room":  room,
				"event": eventType,
			}, err)
		}
	}
}

// Pending returns the number of queued, undrained events.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}
