// Package gateway abstracts the payment authorization step of the
// checkout flow. The reservation engine only marks a reservation PAID
// when a charge reaches the CAPTURED state, so swapping the in-process
// gateway for a real PSP client does not touch the booking code.
package gateway

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tinghir/car-rental-connect/internal/model"
)

// ChargeState tracks a charge through the gateway lifecycle.
type ChargeState string

const (
	StateInitiated  ChargeState = "INITIATED"
	StateAuthorized ChargeState = "AUTHORIZED"
	StateCaptured   ChargeState = "CAPTURED"
	StateDeclined   ChargeState = "DECLINED"
	StateRefunded   ChargeState = "REFUNDED"
)

// Card carries the client-side card details for a CARD charge. Only
// format validation is performed; numbers are never stored.
type Card struct {
	HolderName string `json:"holder_name"`
	Number     string `json:"number"`
	Expiry     string `json:"expiry"` // MM/YY
	CVV        string `json:"cvv"`
}

// ChargeRequest describes a single charge attempt.
type ChargeRequest struct {
	ReservationID uint64
	Amount        int64 // whole MAD
	Method        model.PaymentMethod
	Card          *Card // required when Method is CARD
}

// ChargeResult reports the outcome of a charge. TransactionID is set
// when the charge was captured; Reason explains a decline.
type ChargeResult struct {
	State         ChargeState
	TransactionID string
	Reason        string
}

// PaymentGateway authorizes and captures charges. Implementations must
// be safe for concurrent use.
type PaymentGateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

// ErrBadCard is returned when card details fail format validation.
var ErrBadCard = errors.New("invalid card details")

var (
	cardNumberRe = regexp.MustCompile(`^[0-9]{16}$`)
	expiryRe     = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)
	cvvRe        = regexp.MustCompile(`^[0-9]{3,4}$`)
)

// ValidateCard checks holder name, a 16-digit number, MM/YY expiry and
// a 3-4 digit CVV. Spaces inside the number are tolerated. No Luhn
// check is performed; real authorization belongs to the gateway.
func ValidateCard(c Card) error {
	if strings.TrimSpace(c.HolderName) == "" {
		return fmt.Errorf("%w: holder name required", ErrBadCard)
	}
	number := strings.ReplaceAll(c.Number, " ", "")
	if !cardNumberRe.MatchString(number) {
		return fmt.Errorf("%w: card number must be 16 digits", ErrBadCard)
	}
	if !expiryRe.MatchString(c.Expiry) {
		return fmt.Errorf("%w: expiry must be MM/YY", ErrBadCard)
	}
	if !cvvRe.MatchString(c.CVV) {
		return fmt.Errorf("%w: cvv must be 3 or 4 digits", ErrBadCard)
	}
	return nil
}

// cardExpired reports whether an MM/YY expiry lies before the month of
// now. The format must have been validated first.
func cardExpired(expiry string, now time.Time) bool {
	mm, _ := strconv.Atoi(expiry[:2])
	yy, _ := strconv.Atoi(expiry[3:])
	year := 2000 + yy
	endOfMonth := time.Date(year, time.Month(mm)+1, 1, 0, 0, 0, 0, time.UTC)
	return !now.Before(endOfMonth)
}

// LocalGateway is an in-process PaymentGateway used in development and
// test environments. CARD charges are validated and declined when the
// card is expired; everything else is captured immediately with a
// generated transaction reference.
type LocalGateway struct {
	now func() time.Time
}

// NewLocalGateway returns a LocalGateway using the wall clock.
func NewLocalGateway() *LocalGateway {
	return &LocalGateway{now: time.Now}
}

// Charge implements PaymentGateway.
func (g *LocalGateway) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if req.Amount <= 0 {
		return ChargeResult{State: StateDeclined, Reason: "amount must be positive"}, nil
	}
	if !model.ValidPaymentMethod(req.Method) {
		return ChargeResult{State: StateDeclined, Reason: "unsupported payment method"}, nil
	}
	if req.Method == model.MethodCard {
		if req.Card == nil {
			return ChargeResult{}, fmt.Errorf("%w: card details required", ErrBadCard)
		}
		if err := ValidateCard(*req.Card); err != nil {
			return ChargeResult{}, err
		}
		if cardExpired(req.Card.Expiry, g.now().UTC()) {
			return ChargeResult{State: StateDeclined, Reason: "card expired"}, nil
		}
	}
	txID, err := newTransactionID()
	if err != nil {
		return ChargeResult{}, err
	}
	return ChargeResult{State: StateCaptured, TransactionID: txID}, nil
}

// newTransactionID returns a random hex reference prefixed for easy
// grepping in logs and payment exports.
func newTransactionID() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "txn_" + hex.EncodeToString(buf), nil
}
