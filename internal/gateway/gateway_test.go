package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tinghir/car-rental-connect/internal/model"
)

func validCard() Card {
	return Card{HolderName: "Yassine Amrani", Number: "4111111111111111", Expiry: "12/30", CVV: "123"}
}

func TestValidateCard(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Card)
		ok     bool
	}{
		{"valid", func(c *Card) {}, true},
		{"spaced number", func(c *Card) { c.Number = "4111 1111 1111 1111" }, true},
		{"four digit cvv", func(c *Card) { c.CVV = "1234" }, true},
		{"missing holder", func(c *Card) { c.HolderName = "  " }, false},
		{"short number", func(c *Card) { c.Number = "411111111111111" }, false},
		{"letters in number", func(c *Card) { c.Number = "4111x11111111111" }, false},
		{"bad expiry month", func(c *Card) { c.Expiry = "13/30" }, false},
		{"expiry wrong format", func(c *Card) { c.Expiry = "122030" }, false},
		{"cvv too short", func(c *Card) { c.CVV = "12" }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := validCard()
			tc.mutate(&c)
			err := ValidateCard(c)
			if tc.ok && err != nil {
				t.Fatalf("ValidateCard: %v", err)
			}
			if !tc.ok {
				if err == nil {
					t.Fatal("ValidateCard accepted invalid card")
				}
				if !errors.Is(err, ErrBadCard) {
					t.Fatalf("error %v does not wrap ErrBadCard", err)
				}
			}
		})
	}
}

func fixedGateway(now string) *LocalGateway {
	t, err := time.Parse("2006-01-02", now)
	if err != nil {
		panic(err)
	}
	return &LocalGateway{now: func() time.Time { return t }}
}

func TestLocalGatewayCapturesCardCharge(t *testing.T) {
	g := fixedGateway("2024-06-01")
	card := validCard()
	res, err := g.Charge(context.Background(), ChargeRequest{
		ReservationID: 1, Amount: 900, Method: model.MethodCard, Card: &card,
	})
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if res.State != StateCaptured {
		t.Fatalf("state = %s, want CAPTURED (%s)", res.State, res.Reason)
	}
	if res.TransactionID == "" {
		t.Fatal("captured charge missing transaction id")
	}
}

func TestLocalGatewayDeclinesExpiredCard(t *testing.T) {
	g := fixedGateway("2031-01-15")
	card := validCard() // expires 12/30
	res, err := g.Charge(context.Background(), ChargeRequest{
		ReservationID: 1, Amount: 900, Method: model.MethodCard, Card: &card,
	})
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if res.State != StateDeclined {
		t.Fatalf("state = %s, want DECLINED", res.State)
	}
}

func TestLocalGatewayTransferNeedsNoCard(t *testing.T) {
	g := fixedGateway("2024-06-01")
	res, err := g.Charge(context.Background(), ChargeRequest{
		ReservationID: 2, Amount: 450, Method: model.MethodTransfer,
	})
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if res.State != StateCaptured {
		t.Fatalf("state = %s, want CAPTURED", res.State)
	}
}

func TestLocalGatewayRejectsBadInput(t *testing.T) {
	g := fixedGateway("2024-06-01")
	if res, _ := g.Charge(context.Background(), ChargeRequest{ReservationID: 3, Amount: 0, Method: model.MethodTransfer}); res.State != StateDeclined {
		t.Fatalf("zero amount: state = %s, want DECLINED", res.State)
	}
	if res, _ := g.Charge(context.Background(), ChargeRequest{ReservationID: 3, Amount: 100, Method: "CASH"}); res.State != StateDeclined {
		t.Fatalf("unknown method: state = %s, want DECLINED", res.State)
	}
	if _, err := g.Charge(context.Background(), ChargeRequest{ReservationID: 3, Amount: 100, Method: model.MethodCard}); !errors.Is(err, ErrBadCard) {
		t.Fatalf("missing card: err = %v, want ErrBadCard", err)
	}
}
