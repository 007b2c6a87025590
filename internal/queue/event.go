// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// ReservationConfirmedEvent is published when a reservation's payment
// is captured and the booking becomes CONFIRMED. It carries enough
// information for downstream consumers to log or notify without
// querying the primary database.
type ReservationConfirmedEvent struct {
	ReservationID uint64    `json:"reservation_id"`
	CarID         uint64    `json:"car_id"`
	UserID        uint64    `json:"user_id,omitempty"` // 0 for guest bookings
	StartDate     string    `json:"start_date"`
	EndDate       string    `json:"end_date"`
	TotalPrice    int64     `json:"total_price"` // whole MAD
	ConfirmedAt   time.Time `json:"confirmed_at"`
}
