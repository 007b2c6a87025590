package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tinghir/car-rental-connect/internal/booking"
	"github.com/tinghir/car-rental-connect/internal/config"
	"github.com/tinghir/car-rental-connect/internal/model"
	"github.com/tinghir/car-rental-connect/internal/repository"
)

// ReservationHandler manages the booking lifecycle: creation with the
// transactional availability check, listing and status transitions.
type ReservationHandler struct {
	Cfg          config.Config
	Cars         *repository.CarRepo
	Reservations *repository.ReservationRepo
}

func NewReservationHandler(cfg config.Config, cars *repository.CarRepo, reservations *repository.ReservationRepo) *ReservationHandler {
	return &ReservationHandler{Cfg: cfg, Cars: cars, Reservations: reservations}
}

type createReservationReq struct {
	CarID     uint64 `json:"car_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	// Guest snapshot, required when no Bearer token is sent.
	GuestFirstName string `json:"guest_first_name"`
	GuestLastName  string `json:"guest_last_name"`
	GuestEmail     string `json:"guest_email"`
	GuestPhone     string `json:"guest_phone"`
}

type updateReservationReq struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
}

// Create books a car for an inclusive date range. The endpoint serves
// both authenticated users (Bearer token) and guests (contact snapshot
// in the body). The total is computed server-side from the car's daily
// price; the client never supplies it.
//
// The availability check and the insert run in one transaction holding
// a lock on the car row, so two concurrent requests for intersecting
// ranges cannot both succeed: the loser gets 409.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.CarID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "car_id required"})
	}
	start, err := booking.ParseDate(req.StartDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_date"})
	}
	end, err := booking.ParseDate(req.EndDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_date"})
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if err := booking.ValidateRange(start, end, today); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	userID, authed := bearerUserID(c, h.Cfg.JWTSecret)
	res := &model.Reservation{
		CarID:         req.CarID,
		UserID:        userID,
		StartDate:     start,
		EndDate:       end,
		Status:        model.ReservationPending,
		PaymentStatus: model.PaymentPending,
	}
	if !authed {
		first := strings.TrimSpace(req.GuestFirstName)
		last := strings.TrimSpace(req.GuestLastName)
		email := strings.ToLower(strings.TrimSpace(req.GuestEmail))
		if first == "" || last == "" || email == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "guest_first_name, guest_last_name and guest_email required for guest checkout"})
		}
		res.GuestFirstName, res.GuestLastName, res.GuestEmail = &first, &last, &email
		if phone := strings.TrimSpace(req.GuestPhone); phone != "" {
			res.GuestPhone = &phone
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

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

	// Lock the car row first: concurrent bookings of the same car
	// serialize here, which makes the overlap check below race-free.
	status, pricePerDay, err := h.Cars.GetForUpdateTx(ctx, tx, req.CarID)
	if err != nil {
		if errors.Is(err, repository.ErrCarNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "car not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if status != model.CarAvailable {
		return c.JSON(http.StatusConflict, echo.Map{"error": "Car is not available for reservation"})
	}
	res.TotalPrice = booking.TotalPrice(pricePerDay, start, end)

	if err := h.Reservations.CreateTx(ctx, tx, res); err != nil {
		if errors.Is(err, repository.ErrDateConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "Car is already reserved for the selected dates"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create reservation failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	detail, err := h.Reservations.GetByID(ctx, res.ID)
	if err != nil {
		// Committed but unreadable; fall back to the bare record.
		return c.JSON(http.StatusCreated, echo.Map{"id": res.ID, "status": res.Status, "total_price": res.TotalPrice})
	}
	return c.JSON(http.StatusCreated, detail)
}

// Get returns one reservation with its car details. Guest bookings
// (no account attached) are readable by id so the confirmation page
// works without a session; reservations owned by an account require a
// matching bearer token or the ADMIN role.
func (h *ReservationHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	detail, err := h.Reservations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if detail.UserID != 0 && !isAdmin(c) {
		uid, err := getUserID(c)
		if err != nil {
			// No middleware on the public route; parse the header directly.
			bu, ok := bearerUserID(c, h.Cfg.JWTSecret)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			uid = bu
		}
		if detail.UserID != uid {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	}
	return c.JSON(http.StatusOK, detail)
}

// ListMine returns the authenticated user's reservations, newest first.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Reservations.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": list})
}

// ListAll returns every reservation. Admin only.
func (h *ReservationHandler) ListAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Reservations.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": list})
}

// Update transitions a reservation's status and/or payment sub-state.
// Allowed status moves: PENDING→CONFIRMED|CANCELLED and
// CONFIRMED→COMPLETED|CANCELLED; terminal states admit nothing.
// PAID is never settable here (only a captured payment sets it) and
// PAID→REFUNDED is admin only. Cancellation leaves the payment
// sub-state untouched; refunds are an explicit admin action.
func (h *ReservationHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Status == "" && req.PaymentStatus == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status or payment_status required"})
	}
	var newStatus model.ReservationStatus
	if req.Status != "" {
		newStatus = model.ReservationStatus(req.Status)
		if !model.ValidReservationStatus(newStatus) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
	}
	var newPayment model.PaymentState
	if req.PaymentStatus != "" {
		newPayment = model.PaymentState(req.PaymentStatus)
		if !model.ValidPaymentState(newPayment) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment_status"})
		}
		if newPayment == model.PaymentPaid {
			// PAID is only reachable through a captured payment.
			return c.JSON(http.StatusConflict, echo.Map{"error": "payment_status PAID is set by recording a payment"})
		}
	}

	admin := isAdmin(c)
	uid, _ := getUserID(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

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

	res, err := h.Reservations.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !admin {
		// Non-admins may only cancel their own reservation.
		if res.UserID == 0 || res.UserID != uid {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		if newStatus != "" && newStatus != model.ReservationCancelled {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "only cancellation is allowed"})
		}
		if newPayment != "" {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "payment_status changes are admin only"})
		}
	}

	if newStatus != "" {
		if !booking.CanTransition(res.Status, newStatus) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "invalid status transition"})
		}
		if err := h.Reservations.UpdateStatusTx(ctx, tx, id, newStatus); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
		res.Status = newStatus
	}
	if newPayment != "" {
		if !booking.CanTransitionPayment(res.PaymentStatus, newPayment) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "invalid payment transition"})
		}
		if err := h.Reservations.UpdatePaymentStatusTx(ctx, tx, id, newPayment); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
		res.PaymentStatus = newPayment
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{
		"id":             res.ID,
		"status":         res.Status,
		"payment_status": res.PaymentStatus,
	})
}
