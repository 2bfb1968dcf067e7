// README: State machine transition table tests (no database needed).
package booking

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to ServiceStatus
		want     bool
	}{
		// happy-path forward transitions
		{StatusPending, StatusAssigned, true},
		{StatusAssigned, StatusStarted, true},
		{StatusAssigned, StatusEnRoute, true},
		{StatusStarted, StatusArrived, true},
		{StatusEnRoute, StatusArrived, true},
		{StatusArrived, StatusInProgress, true},
		{StatusInProgress, StatusCompleted, true},
		// withdrawal re-opens the booking
		{StatusAssigned, StatusPending, true},
		// cancels from every non-terminal state
		{StatusPending, StatusCancelled, true},
		{StatusAssigned, StatusCancelled, true},
		{StatusStarted, StatusCancelled, true},
		{StatusEnRoute, StatusCancelled, true},
		{StatusArrived, StatusCancelled, true},
		{StatusInProgress, StatusCancelled, true},
		// invalid: terminal states have no outgoing transitions
		{StatusCompleted, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusAssigned, false},
		// invalid: skipping states
		{StatusPending, StatusInProgress, false},
		{StatusPending, StatusArrived, false},
		{StatusAssigned, StatusArrived, false},
		{StatusAssigned, StatusInProgress, false},
		{StatusStarted, StatusInProgress, false},
		{StatusStarted, StatusCompleted, false},
		{StatusArrived, StatusCompleted, false},
		// invalid: backwards
		{StatusInProgress, StatusArrived, false},
		{StatusArrived, StatusAssigned, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
