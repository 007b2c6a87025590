package model

import "time"

// PaymentMethod enumerates the supported payment instruments.
type PaymentMethod string

const (
	MethodCard     PaymentMethod = "CARD"
	MethodTransfer PaymentMethod = "TRANSFER"
)

// ValidPaymentMethod reports whether m is a supported payment method.
func ValidPaymentMethod(m PaymentMethod) bool {
	return m == MethodCard || m == MethodTransfer
}

// Payment is an immutable historical record of a payment captured
// against a reservation. Exactly one SUCCESS payment is expected per
// reservation; the amount always equals the reservation's total at the
// time of capture.
//
// Fields:
//  ID            – primary key identifier.
//  ReservationID – reservation the payment settles.
//  Amount        – captured amount in whole MAD.
//  Method        – payment instrument (CARD, TRANSFER).
//  Status        – gateway outcome recorded at capture (SUCCESS).
//  TransactionID – gateway transaction reference, if any.
//  CreatedAt     – timestamp of capture.
type Payment struct {
	ID            uint64        `json:"id"`
	ReservationID uint64        `json:"reservation_id"`
	Amount        int64         `json:"amount"`
	Method        PaymentMethod `json:"method"`
	Status        string        `json:"status"`
	TransactionID *string       `json:"transaction_id,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}
