package flow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidTransitions(t *testing.T) {
	tests := []struct {
		from, to Kind
		valid    bool
	}{
		{Idle, Validating, true},
		{Idle, Submitting, true},
		{Idle, Succeeded, false},
		{Idle, Failed, false},
		{Validating, Failed, true},
		{Validating, Submitting, true},
		{Validating, Succeeded, false},
		{Submitting, Succeeded, true},
		{Submitting, Failed, true},
		{Submitting, Idle, false},
		{Submitting, Validating, false},
		{Succeeded, Idle, true},
		{Failed, Idle, true},
		{Failed, Validating, true},
		{Failed, Succeeded, false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidTransition(tt.from, tt.to))
			err := checkTransition(tt.from, tt.to)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "IDLE", Idle.String())
	assert.Equal(t, "SUBMITTING", Submitting.String())
	assert.Equal(t, "UNKNOWN", Kind(42).String())
}

func TestFakeClockRunsDueTimersInOrder(t *testing.T) {
	c := NewFakeClock(time.Unix(100, 0))
	var order []int
	c.AfterFunc(2*time.Second, func() { order = append(order, 2) })
	c.AfterFunc(time.Second, func() { order = append(order, 1) })
	stopped := c.AfterFunc(time.Second, func() { order = append(order, 99) })
	require.True(t, stopped.Stop())
	assert.False(t, stopped.Stop())

	c.Advance(500 * time.Millisecond)
	assert.Empty(t, order)
	assert.Equal(t, 2, c.Pending())

	c.Advance(2 * time.Second)
	assert.Equal(t, []int{1, 2}, order)
	assert.Equal(t, time.Unix(102, 500_000_000), c.Now())
	assert.Equal(t, 0, c.Pending())
}

func TestSystemClockAfterFunc(t *testing.T) {
	fired := make(chan struct{})
	SystemClock{}.AfterFunc(time.Millisecond, func() { close(fired) })
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}
