package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from BookingStatus
		to   BookingStatus
		want bool
	}{
		{"pending to confirmed", BookingStatusPending, BookingStatusConfirmed, true},
		{"pending to cancelled", BookingStatusPending, BookingStatusCancelled, true},
		{"pending to expired", BookingStatusPending, BookingStatusExpired, true},
		{"confirmed to cancelled", BookingStatusConfirmed, BookingStatusCancelled, false},
		{"confirmed to expired", BookingStatusConfirmed, BookingStatusExpired, false},
		{"cancelled to confirmed", BookingStatusCancelled, BookingStatusConfirmed, false},
		{"expired to confirmed", BookingStatusExpired, BookingStatusConfirmed, false},
		{"expired to pending", BookingStatusExpired, BookingStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	pending := &Booking{Status: BookingStatusPending}
	assert.False(t, pending.IsTerminal())

	for _, status := range []BookingStatus{BookingStatusConfirmed, BookingStatusCancelled, BookingStatusExpired} {
		b := &Booking{Status: status}
		assert.True(t, b.IsTerminal(), "status %s should be terminal", status)
	}
}

func TestPayable(t *testing.T) {
	now := time.Now()

	live := &Booking{Status: BookingStatusPending, HoldExpiry: now.Add(5 * time.Minute)}
	assert.True(t, live.Payable(now))

	lapsed := &Booking{Status: BookingStatusPending, HoldExpiry: now.Add(-1 * time.Second)}
	assert.False(t, lapsed.Payable(now))

	confirmed := &Booking{Status: BookingStatusConfirmed, HoldExpiry: now.Add(5 * time.Minute)}
	assert.False(t, confirmed.Payable(now))
}
