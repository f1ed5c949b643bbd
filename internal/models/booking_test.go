package models

import "testing"

func TestBookingStatusNeverRegresses(t *testing.T) {
	if BookingStatusCompleted.CanTransitionTo(BookingStatusPending) {
		t.Fatalf("completed booking must not become pending")
	}
	if BookingStatusInProgress.CanTransitionTo(BookingStatusConfirmed) {
		t.Fatalf("in-progress booking must not go back to confirmed")
	}
	if BookingStatusConfirmed.CanTransitionTo(BookingStatusConfirmed) {
		t.Fatalf("self transition should not be allowed")
	}
}

func TestBookingStatusForwardTransitions(t *testing.T) {
	if !BookingStatusPending.CanTransitionTo(BookingStatusConfirmed) {
		t.Fatalf("pending -> confirmed should be allowed")
	}
	if !BookingStatusConfirmed.CanTransitionTo(BookingStatusInProgress) {
		t.Fatalf("confirmed -> in_progress should be allowed")
	}
	if !BookingStatusInProgress.CanTransitionTo(BookingStatusCompleted) {
		t.Fatalf("in_progress -> completed should be allowed")
	}
}

func TestCancelledReachableFromNonTerminal(t *testing.T) {
	for _, s := range []BookingStatus{BookingStatusPending, BookingStatusConfirmed, BookingStatusInProgress} {
		if !s.CanTransitionTo(BookingStatusCancelled) {
			t.Fatalf("%s -> cancelled should be allowed", s)
		}
	}
	if BookingStatusCompleted.CanTransitionTo(BookingStatusCancelled) {
		t.Fatalf("completed booking must not be cancellable")
	}
	if BookingStatusCancelled.CanTransitionTo(BookingStatusPending) {
		t.Fatalf("cancelled is terminal")
	}
}

func TestParseBookingStatusLegacyLabels(t *testing.T) {
	got, err := ParseBookingStatus("In Progress")
	if err != nil || got != BookingStatusInProgress {
		t.Fatalf("got %v, %v want in_progress", got, err)
	}
	if _, err := ParseBookingStatus("teleported"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestLocationEqualityByID(t *testing.T) {
	a := &Location{ID: "p1", Name: "Airport"}
	b := &Location{ID: "p1", Name: "Airport T2"}
	c := &Location{ID: "p2", Name: "Airport"}
	if !a.Equal(b) {
		t.Fatalf("locations with same id should be equal")
	}
	if a.Equal(c) {
		t.Fatalf("locations with different ids should differ")
	}
}
