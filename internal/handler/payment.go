package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tinghir/car-rental-connect/internal/booking"
	"github.com/tinghir/car-rental-connect/internal/gateway"
	"github.com/tinghir/car-rental-connect/internal/model"
	"github.com/tinghir/car-rental-connect/internal/queue"
	"github.com/tinghir/car-rental-connect/internal/repository"
	"github.com/tinghir/car-rental-connect/internal/service"
)

// PaymentHandler charges reservations through the payment gateway and
// records the result. A captured charge is the only path that moves a
// reservation's payment sub-state to PAID.
type PaymentHandler struct {
	Reservations *repository.ReservationRepo
	Payments     *repository.PaymentRepo
	Gateway      gateway.PaymentGateway
}

func NewPaymentHandler(reservations *repository.ReservationRepo, payments *repository.PaymentRepo, gw gateway.PaymentGateway) *PaymentHandler {
	return &PaymentHandler{Reservations: reservations, Payments: payments, Gateway: gw}
}

type cardReq struct {
	HolderName string `json:"holder_name"`
	Number     string `json:"number"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
}

type createPaymentReq struct {
	ReservationID uint64   `json:"reservation_id"`
	Amount        int64    `json:"amount"`
	Method        string   `json:"method"`
	Card          *cardReq `json:"card"`
}

// Create charges a reservation and records the payment. On capture the
// reservation becomes PAID and, when still PENDING, CONFIRMED in the
// same transaction. The amount must equal the reservation's stored
// total; a mismatch is rejected before the gateway is called.
func (h *PaymentHandler) Create(c echo.Context) error {
	var req createPaymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ReservationID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation_id required"})
	}
	if !model.ValidPaymentMethod(model.PaymentMethod(req.Method)) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid method"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	res, err := h.Reservations.GetModel(ctx, req.ReservationID)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if res.PaymentStatus != model.PaymentPending {
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is already paid"})
	}
	if booking.IsTerminal(res.Status) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is " + string(res.Status)})
	}
	if req.Amount != res.TotalPrice {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":    "amount does not match reservation total",
			"expected": res.TotalPrice,
		})
	}

	chargeReq := gateway.ChargeRequest{
		ReservationID: req.ReservationID,
		Amount:        req.Amount,
		Method:        model.PaymentMethod(req.Method),
	}
	if req.Card != nil {
		chargeReq.Card = &gateway.Card{
			HolderName: req.Card.HolderName,
			Number:     req.Card.Number,
			Expiry:     req.Card.Expiry,
			CVV:        req.Card.CVV,
		}
	}
	result, err := h.Gateway.Charge(ctx, chargeReq)
	if err != nil {
		if errors.Is(err, gateway.ErrBadCard) {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "payment gateway error"})
	}
	if result.State != gateway.StateCaptured {
		return c.JSON(http.StatusPaymentRequired, echo.Map{
			"error":  "payment declined",
			"reason": result.Reason,
		})
	}

	tx, err := h.Reservations.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Re-read under lock: the pre-checks above raced with nothing.
	locked, err := h.Reservations.GetForUpdateTx(ctx, tx, req.ReservationID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if locked.PaymentStatus != model.PaymentPending || booking.IsTerminal(locked.Status) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation state changed, payment not recorded"})
	}

	txID := result.TransactionID
	payment := &model.Payment{
		ReservationID: req.ReservationID,
		Amount:        req.Amount,
		Method:        chargeReq.Method,
		Status:        "SUCCESS",
		TransactionID: &txID,
	}
	if err := h.Payments.CreateTx(ctx, tx, payment); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "record payment failed"})
	}
	if err := h.Reservations.UpdatePaymentStatusTx(ctx, tx, req.ReservationID, model.PaymentPaid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	confirmed := false
	if booking.CanTransition(locked.Status, model.ReservationConfirmed) {
		if err := h.Reservations.UpdateStatusTx(ctx, tx, req.ReservationID, model.ReservationConfirmed); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
		confirmed = true
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	if confirmed {
		event := queue.ReservationConfirmedEvent{
			ReservationID: req.ReservationID,
			CarID:         locked.CarID,
			UserID:        locked.UserID,
			StartDate:     locked.StartDate.Format(booking.DateLayout),
			EndDate:       locked.EndDate.Format(booking.DateLayout),
			TotalPrice:    locked.TotalPrice,
			ConfirmedAt:   time.Now().UTC(),
		}
		// Best effort: a broker outage must not fail the payment.
		go func() {
			pubCtx, pubCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer pubCancel()
			_ = service.PublishReservationConfirmed(pubCtx, event)
		}()
	}

	status := locked.Status
	if confirmed {
		status = model.ReservationConfirmed
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"payment": payment,
		"reservation": echo.Map{
			"id":             req.ReservationID,
			"status":         status,
			"payment_status": model.PaymentPaid,
		},
	})
}

// Get returns a single payment record.
func (h *PaymentHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Payments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, p)
}

// ListByReservation returns all payments recorded against a
// reservation. Admin only.
func (h *PaymentHandler) ListByReservation(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Payments.ListByReservation(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"payments": list})
}
