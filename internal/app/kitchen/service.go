package kitchen

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/YelzhanWeb/pizzeria-core/internal/adapter/logger"
	"github.com/YelzhanWeb/pizzeria-core/internal/domain"
	"github.com/YelzhanWeb/pizzeria-core/internal/interfaces"
)

// SortMode selects the ordering of the kitchen board.
type SortMode string

const (
	SortElapsedAsc   SortMode = "elapsed_asc"
	SortElapsedDesc  SortMode = "elapsed_desc"
	SortIDAsc        SortMode = "id_asc"
	SortIDDesc       SortMode = "id_desc"
	SortPriorityDesc SortMode = "priority_desc"
)

// BoardQuery filters and orders the active-order view.
type BoardQuery struct {
	Statuses []domain.Status
	Priority domain.Priority
	Search   string
	Sort     SortMode
}

// BoardEntry is one row of the kitchen board.
type BoardEntry struct {
	Order          *domain.Order
	ElapsedMinutes int
	Priority       domain.Priority
}

// Service is the kitchen coordinator: it maintains the live set of
// orders in a trackable status together with their timers, derives
// elapsed time and priority, and raises edge-triggered time alerts
// from its periodic tick.
type Service struct {
	mu     sync.RWMutex
	orders map[int]*domain.Order
	timers map[int]*domain.OrderTimer

	urgentThreshold   time.Duration
	criticalThreshold time.Duration
	tickInterval      time.Duration

	events interfaces.EventSink
	logger logger.Logger
	now    func() time.Time
}

func NewService(urgent, critical, tickInterval time.Duration, events interfaces.EventSink, lgr logger.Logger) *Service {
	return &Service{
		orders:            make(map[int]*domain.Order),
		timers:            make(map[int]*domain.OrderTimer),
		urgentThreshold:   urgent,
		criticalThreshold: critical,
		tickInterval:      tickInterval,
		events:            events,
		logger:            lgr,
		now:               time.Now,
	}
}

// Warm loads active orders from the repository on startup. Timers
// resume from each order's last status change.
func (s *Service) Warm(ctx context.Context, repo interfaces.OrderRepository) error {
	orders, err := repo.ListActive(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range orders {
		s.orders[o.ID] = o
		s.timers[o.ID] = &domain.OrderTimer{
			OrderID:   o.ID,
			StartedAt: o.UpdatedAt,
			State:     domain.TimerRunning,
		}
	}

	s.logger.Info("kitchen_cache_warmed", "Kitchen board warmed from repository", "", map[string]interface{}{
		"orders": len(orders),
	})
	return nil
}

// Apply folds one lifecycle event into the board. The notification
// dispatcher calls this for every drained event, so bursts still apply
// each individual state update.
func (s *Service) Apply(evt interfaces.LifecycleEvent) {
	if evt.Order == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	order := evt.Order
	at := evt.At
	if at.IsZero() {
		at = s.now()
	}

	if order.Status.IsTerminal() {
		delete(s.orders, order.ID)
		delete(s.timers, order.ID)
		return
	}

	s.orders[order.ID] = order

	switch order.Status {
	case domain.StatusNuevo:
		if _, ok := s.timers[order.ID]; !ok {
			s.timers[order.ID] = &domain.OrderTimer{OrderID: order.ID, StartedAt: at, State: domain.TimerRunning}
		}
	case domain.StatusEnPreparacion:
		// Preparation restarts the clock.
		s.timers[order.ID] = &domain.OrderTimer{OrderID: order.ID, StartedAt: at, State: domain.TimerRunning}
	case domain.StatusListo:
		if t, ok := s.timers[order.ID]; ok && t.State == domain.TimerRunning {
			t.Frozen = at.Sub(t.StartedAt)
			t.State = domain.TimerCompleted
		}
	}
}

// ElapsedMinutes returns the elapsed whole minutes for an active
// order, and whether the order is on the board at all.
func (s *Service) ElapsedMinutes(orderID int) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.timers[orderID]
	if !ok {
		return 0, false
	}
	return int(t.Elapsed(s.now()).Minutes()), true
}

// PriorityFor classifies elapsed minutes against the configured
// thresholds.
func (s *Service) PriorityFor(elapsedMinutes int) domain.Priority {
	switch {
	case elapsedMinutes >= int(s.criticalThreshold.Minutes()):
		return domain.PriorityCritico
	case elapsedMinutes >= int(s.urgentThreshold.Minutes()):
		return domain.PriorityUrgente
	default:
		return domain.PriorityNormal
	}
}

// List returns the filtered, sorted board view.
func (s *Service) List(q BoardQuery) []BoardEntry {
	s.mu.RLock()
	now := s.now()
	entries := make([]BoardEntry, 0, len(s.orders))
	for id, order := range s.orders {
		t, ok := s.timers[id]
		if !ok {
			continue
		}
		elapsed := int(t.Elapsed(now).Minutes())
		entries = append(entries, BoardEntry{
			Order:          order,
			ElapsedMinutes: elapsed,
			Priority:       s.PriorityFor(elapsed),
		})
	}
	s.mu.RUnlock()

	entries = filterEntries(entries, q)
	sortEntries(entries, q.Sort)
	return entries
}

func filterEntries(entries []BoardEntry, q BoardQuery) []BoardEntry {
	out := entries[:0]
	for _, e := range entries {
		if len(q.Statuses) > 0 && !containsStatus(q.Statuses, e.Order.Status) {
			continue
		}
		if q.Priority != "" && e.Priority != q.Priority {
			continue
		}
		if q.Search != "" && !matchesSearch(e.Order, q.Search) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// matchesSearch does a case-insensitive match against order id,
// customer name and phone, item pizza names and item notes.
func matchesSearch(order *domain.Order, search string) bool {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return true
	}
	if strings.Contains(strconv.Itoa(order.ID), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(order.CustomerName), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(order.CustomerPhone), needle) {
		return true
	}
	for _, item := range order.Items {
		if strings.Contains(strings.ToLower(item.PizzaName), needle) {
			return true
		}
		if item.IsHalfAndHalf() && strings.Contains(strings.ToLower(item.SecondHalf.PizzaName), needle) {
			return true
		}
		if strings.Contains(strings.ToLower(item.Note), needle) {
			return true
		}
	}
	return false
}

func sortEntries(entries []BoardEntry, mode SortMode) {
	less := func(a, b BoardEntry) bool { return a.ElapsedMinutes < b.ElapsedMinutes }
	switch mode {
	case SortElapsedDesc:
		less = func(a, b BoardEntry) bool { return a.ElapsedMinutes > b.ElapsedMinutes }
	case SortIDAsc:
		less = func(a, b BoardEntry) bool { return a.Order.ID < b.Order.ID }
	case SortIDDesc:
		less = func(a, b BoardEntry) bool { return a.Order.ID > b.Order.ID }
	case SortPriorityDesc:
		less = func(a, b BoardEntry) bool {
			if a.Priority.Rank() != b.Priority.Rank() {
				return a.Priority.Rank() > b.Priority.Rank()
			}
			return a.ElapsedMinutes > b.ElapsedMinutes
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return less(entries[i], entries[j]) })
}

func containsStatus(list []domain.Status, s domain.Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Start runs the recomputation tick until the context is cancelled.
func (s *Service) Start(ctx context.Context) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick recomputes elapsed time for every running timer and raises a
// time alert exactly once per threshold crossing. Crossings are
// edge-triggered: a timer already past a threshold on a previous tick
// stays silent.
func (s *Service) Tick() {
	urgentMin := int(s.urgentThreshold.Minutes())
	criticalMin := int(s.criticalThreshold.Minutes())

	type alert struct {
		order    *domain.Order
		priority domain.Priority
		elapsed  int
	}
	var alerts []alert

	s.mu.Lock()
	now := s.now()
	for id, t := range s.timers {
		if t.State != domain.TimerRunning {
			continue
		}
		elapsed := int(t.Elapsed(now).Minutes())
		prev := t.LastElapsedMin
		t.LastElapsedMin = elapsed

		order, ok := s.orders[id]
		if !ok {
			continue
		}
		if prev < urgentMin && elapsed >= urgentMin {
			alerts = append(alerts, alert{order: order, priority: domain.PriorityUrgente, elapsed: elapsed})
		}
		if prev < criticalMin && elapsed >= criticalMin {
			alerts = append(alerts, alert{order: order, priority: domain.PriorityCritico, elapsed: elapsed})
		}
	}
	s.mu.Unlock()

	for _, a := range alerts {
		s.events.Publish(interfaces.LifecycleEvent{
			Type:  interfaces.EventAlertaTiempo,
			Order: a.order,
			Alert: &interfaces.TimeAlert{
				OrderID:        a.order.ID,
				Priority:       a.priority,
				ElapsedMinutes: a.elapsed,
			},
			At: now,
		})
	}
}

// ActiveCount returns the number of orders on the board.
func (s *Service) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

// Reset clears the board and timer set. Only tests use this.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = make(map[int]*domain.Order)
	s.timers = make(map[int]*domain.OrderTimer)
}
