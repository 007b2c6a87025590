package booking

import (
	"testing"

	"github.com/tinghir/car-rental-connect/internal/model"
)

var allStatuses = []model.ReservationStatus{
	model.ReservationPending,
	model.ReservationConfirmed,
	model.ReservationCancelled,
	model.ReservationCompleted,
}

func TestCanTransition(t *testing.T) {
	allowed := map[[2]model.ReservationStatus]bool{
		{model.ReservationPending, model.ReservationConfirmed}:   true,
		{model.ReservationPending, model.ReservationCancelled}:   true,
		{model.ReservationConfirmed, model.ReservationCompleted}: true,
		{model.ReservationConfirmed, model.ReservationCancelled}: true,
	}
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := allowed[[2]model.ReservationStatus{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTerminalStatesAdmitNoTransition(t *testing.T) {
	for _, from := range []model.ReservationStatus{model.ReservationCancelled, model.ReservationCompleted} {
		if !IsTerminal(from) {
			t.Fatalf("IsTerminal(%s) = false", from)
		}
		for _, to := range allStatuses {
			if CanTransition(from, to) {
				t.Errorf("transition out of terminal state %s -> %s allowed", from, to)
			}
		}
	}
	if IsTerminal(model.ReservationPending) || IsTerminal(model.ReservationConfirmed) {
		t.Fatal("active status reported as terminal")
	}
}

func TestCanTransitionPayment(t *testing.T) {
	states := []model.PaymentState{model.PaymentPending, model.PaymentPaid, model.PaymentRefunded}
	allowed := map[[2]model.PaymentState]bool{
		{model.PaymentPending, model.PaymentPaid}:  true,
		{model.PaymentPaid, model.PaymentRefunded}: true,
	}
	for _, from := range states {
		for _, to := range states {
			want := allowed[[2]model.PaymentState{from, to}]
			if got := CanTransitionPayment(from, to); got != want {
				t.Errorf("CanTransitionPayment(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}
