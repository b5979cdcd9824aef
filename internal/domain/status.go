package domain

// Status is the lifecycle state of an order. Status names are the
// Spanish labels used on the wire and in the database.
type Status string

const (
	StatusNuevo         Status = "nuevo"
	StatusEnPreparacion Status = "en_preparacion"
	StatusListo         Status = "listo"
	StatusEntregado     Status = "entregado"
	StatusCancelado     Status = "cancelado"
)

// validTransitions is the full transition table. Terminal states map to
// an empty list; self-transitions are never allowed.
var validTransitions = map[Status][]Status{
	StatusNuevo:         {StatusEnPreparacion, StatusCancelado},
	StatusEnPreparacion: {StatusListo, StatusCancelado},
	StatusListo:         {StatusEntregado, StatusCancelado},
	StatusEntregado:     {},
	StatusCancelado:     {},
}

// AllStatuses returns every known status in lifecycle order.
func AllStatuses() []Status {
	return []Status{StatusNuevo, StatusEnPreparacion, StatusListo, StatusEntregado, StatusCancelado}
}

// IsValidStatus reports whether s is a known status value.
func IsValidStatus(s Status) bool {
	_, ok := validTransitions[s]
	return ok
}

// IsValidTransition checks the transition table. Unknown states and
// self-transitions are invalid.
func IsValidTransition(current, next Status) bool {
	allowed, ok := validTransitions[current]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s Status) IsTerminal() bool {
	allowed, ok := validTransitions[s]
	return ok && len(allowed) == 0
}

// IsTrackable reports whether an order in this status belongs on the
// kitchen board with a live timer.
func (s Status) IsTrackable() bool {
	switch s {
	case StatusNuevo, StatusEnPreparacion, StatusListo:
		return true
	}
	return false
}

// Priority is the derived urgency bucket of an active order.
type Priority string

const (
	PriorityNormal  Priority = "normal"
	PriorityUrgente Priority = "urgente"
	PriorityCritico Priority = "critico"
)

// Rank orders priorities for sorting: critico > urgente > normal.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritico:
		return 2
	case PriorityUrgente:
		return 1
	default:
		return 0
	}
}
