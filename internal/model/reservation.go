package model

import "time"

// ReservationStatus enumerates the lifecycle states of a reservation.
// PENDING and CONFIRMED are active states; CANCELLED and COMPLETED are
// terminal and admit no further transition.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationCancelled ReservationStatus = "CANCELLED"
	ReservationCompleted ReservationStatus = "COMPLETED"
)

// PaymentState enumerates the payment sub-state of a reservation. It
// evolves independently of the reservation status: PAID is reachable
// only through a captured payment record and REFUNDED only from PAID.
type PaymentState string

const (
	PaymentPending  PaymentState = "PENDING"
	PaymentPaid     PaymentState = "PAID"
	PaymentRefunded PaymentState = "REFUNDED"
)

// ValidReservationStatus reports whether s is a known reservation status.
func ValidReservationStatus(s ReservationStatus) bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationCancelled, ReservationCompleted:
		return true
	}
	return false
}

// ValidPaymentState reports whether s is a known payment state.
func ValidPaymentState(s PaymentState) bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

// Reservation records a rental booking of a single car for an inclusive
// date range. It carries the authoritative total computed at creation
// time, the lifecycle status and the payment sub-state. Reservations
// are never deleted; cancellation is a status transition.
//
// Fields:
//  ID            – primary key identifier.
//  CarID         – car being rented.
//  UserID        – account that made the booking (0 for pure guests).
//  StartDate     – first rental day (inclusive).
//  EndDate       – last rental day (inclusive, >= StartDate).
//  TotalPrice    – authoritative total in whole MAD.
//  Status        – lifecycle status.
//  PaymentStatus – payment sub-state.
//  Guest*        – snapshot of the booker for guest checkout.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Reservation struct {
	ID             uint64            // reservations.id
	CarID          uint64            // reservations.car_id
	UserID         uint64            // reservations.user_id
	StartDate      time.Time         // reservations.start_date (DATE)
	EndDate        time.Time         // reservations.end_date (DATE)
	TotalPrice     int64             // reservations.total_price (whole MAD)
	Status         ReservationStatus // reservations.status
	PaymentStatus  PaymentState      // reservations.payment_status
	GuestFirstName *string           // reservations.guest_first_name (nullable)
	GuestLastName  *string           // reservations.guest_last_name (nullable)
	GuestEmail     *string           // reservations.guest_email (nullable)
	GuestPhone     *string           // reservations.guest_phone (nullable)
	CreatedAt      time.Time         // reservations.created_at
	UpdatedAt      time.Time         // reservations.updated_at
}
