package booking

import "github.com/tinghir/car-rental-connect/internal/model"

// IsTerminal reports whether a reservation status admits no further
// transition. CANCELLED and COMPLETED are terminal.
func IsTerminal(s model.ReservationStatus) bool {
	return s == model.ReservationCancelled || s == model.ReservationCompleted
}

// CanTransition reports whether a reservation may move from one status
// to another. The machine is:
//
//	PENDING -> CONFIRMED -> COMPLETED
//	PENDING -> CANCELLED
//	CONFIRMED -> CANCELLED
//
// Self-transitions and anything out of a terminal state are rejected.
func CanTransition(from, to model.ReservationStatus) bool {
	if from == to || IsTerminal(from) {
		return false
	}
	switch from {
	case model.ReservationPending:
		return to == model.ReservationConfirmed || to == model.ReservationCancelled
	case model.ReservationConfirmed:
		return to == model.ReservationCompleted || to == model.ReservationCancelled
	}
	return false
}

// CanTransitionPayment reports whether the payment sub-state may move
// from one state to another: PENDING -> PAID -> REFUNDED. PAID is only
// ever set as a consequence of a captured payment record; handlers
// enforce that side of the rule.
func CanTransitionPayment(from, to model.PaymentState) bool {
	switch from {
	case model.PaymentPending:
		return to == model.PaymentPaid
	case model.PaymentPaid:
		return to == model.PaymentRefunded
	}
	return false
}
