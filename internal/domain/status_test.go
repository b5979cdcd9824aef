package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from  Status
		to    Status
		valid bool
	}{
		{StatusNuevo, StatusEnPreparacion, true},
		{StatusNuevo, StatusCancelado, true},
		{StatusNuevo, StatusListo, false},
		{StatusNuevo, StatusEntregado, false},
		{StatusEnPreparacion, StatusListo, true},
		{StatusEnPreparacion, StatusCancelado, true},
		{StatusEnPreparacion, StatusEntregado, false},
		{StatusEnPreparacion, StatusNuevo, false},
		{StatusListo, StatusEntregado, true},
		{StatusListo, StatusCancelado, true},
		{StatusListo, StatusEnPreparacion, false},
		{StatusEntregado, StatusCancelado, false},
		{StatusCancelado, StatusNuevo, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.valid, IsValidTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestNoSelfTransitions(t *testing.T) {
	for _, s := range AllStatuses() {
		assert.False(t, IsValidTransition(s, s), "self transition allowed for %s", s)
	}
}

func TestExactlyTwoTerminalStates(t *testing.T) {
	var terminal []Status
	for _, s := range AllStatuses() {
		if s.IsTerminal() {
			terminal = append(terminal, s)
		}
	}
	assert.ElementsMatch(t, []Status{StatusEntregado, StatusCancelado}, terminal)
}

func TestUnknownStatusIsInvalid(t *testing.T) {
	assert.False(t, IsValidStatus("pendiente"))
	assert.False(t, IsValidTransition("pendiente", StatusNuevo))
	assert.False(t, Status("pendiente").IsTerminal())
}

func TestTrackableStatuses(t *testing.T) {
	assert.True(t, StatusNuevo.IsTrackable())
	assert.True(t, StatusEnPreparacion.IsTrackable())
	assert.True(t, StatusListo.IsTrackable())
	assert.False(t, StatusEntregado.IsTrackable())
	assert.False(t, StatusCancelado.IsTrackable())
}

func TestPriorityRank(t *testing.T) {
	assert.Greater(t, PriorityCritico.Rank(), PriorityUrgente.Rank())
	assert.Greater(t, PriorityUrgente.Rank(), PriorityNormal.Rank())
}

func TestOrderItemIsHalfAndHalf(t *testing.T) {
	whole := OrderItem{PizzaID: 1}
	assert.False(t, whole.IsHalfAndHalf())

	halved := OrderItem{PizzaID: 1, SecondHalf: &HalfSpec{PizzaID: 2}}
	assert.True(t, halved.IsHalfAndHalf())
}

func TestOrderTransitionTo(t *testing.T) {
	order := &Order{ID: 7, Status: StatusNuevo}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rec, err := order.TransitionTo(StatusEnPreparacion, "", "cocinero", at)
	assert.NoError(t, err)
	assert.Equal(t, StatusEnPreparacion, order.Status)
	assert.Equal(t, StatusNuevo, rec.From)
	assert.Equal(t, StatusEnPreparacion, rec.To)
	assert.Equal(t, "cocinero", rec.Actor)
	assert.Len(t, order.History, 1)

	// Invalid transition leaves the order untouched.
	_, err = order.TransitionTo(StatusNuevo, "", "", at)
	assert.Error(t, err)
	assert.True(t, IsBusiness(err))
	assert.Equal(t, StatusEnPreparacion, order.Status)
	assert.Len(t, order.History, 1)
}
