package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tinghir/car-rental-connect/internal/handler"
	"github.com/tinghir/car-rental-connect/internal/middleware"
)

// RegisterCustomer registers the reservation endpoints that require a
// session. Customers can list their own reservations and cancel one;
// admins reach the same handlers with wider permissions through the
// admin routes.
func RegisterCustomer(e *echo.Echo, res *handler.ReservationHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("USER", "ADMIN"),
	)
	g.GET("/my-reservations", res.ListMine)
	g.PATCH("/reservations/:id", res.Update)
}
