package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tinghir/car-rental-connect/internal/repository"
)

// AdminHandler serves the admin dashboard endpoints: revenue and user
// management. Route-level middleware restricts these to the ADMIN role.
type AdminHandler struct {
	Reservations *repository.ReservationRepo
	Users        *repository.UserRepo
}

func NewAdminHandler(reservations *repository.ReservationRepo, users *repository.UserRepo) *AdminHandler {
	return &AdminHandler{Reservations: reservations, Users: users}
}

// Revenue returns the sum of totals across all PAID reservations, in
// whole MAD.
func (h *AdminHandler) Revenue(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	total, err := h.Reservations.TotalRevenue(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"revenue": total, "currency": "MAD"})
}

// ListUsers returns all registered accounts without password hashes.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]echo.Map, 0, len(users))
	for _, u := range users {
		out = append(out, echo.Map{
			"id":         u.ID,
			"first_name": u.FirstName,
			"last_name":  u.LastName,
			"email":      u.Email,
			"phone":      u.Phone,
			"role":       u.Role,
			"is_active":  u.IsActive,
			"created_at": u.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out})
}
