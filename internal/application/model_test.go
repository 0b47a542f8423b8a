package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusReviewing, StatusAccepted, StatusRejected} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, Status("withdrawn").Valid())
	assert.False(t, Status("").Valid())
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusReviewing, true},
		{StatusReviewing, StatusAccepted, true},
		{StatusReviewing, StatusRejected, true},

		{StatusPending, StatusAccepted, false},
		{StatusPending, StatusRejected, false},
		{StatusPending, StatusPending, false},
		{StatusReviewing, StatusPending, false},
		{StatusReviewing, StatusReviewing, false},
		{StatusAccepted, StatusRejected, false},
		{StatusAccepted, StatusReviewing, false},
		{StatusAccepted, StatusPending, false},
		{StatusRejected, StatusAccepted, false},
		{StatusRejected, StatusReviewing, false},
		{StatusRejected, StatusPending, false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, StatusAccepted.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusReviewing.Terminal())
}
