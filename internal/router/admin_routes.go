package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tinghir/car-rental-connect/internal/handler"
	"github.com/tinghir/car-rental-connect/internal/middleware"
)

// RegisterAdmin registers the back-office endpoints: fleet CRUD,
// reservation oversight, payment records, revenue and user listing.
// Everything under /v1/admin requires the ADMIN role.
func RegisterAdmin(e *echo.Echo, cars *handler.CarHandler, res *handler.ReservationHandler, pay *handler.PaymentHandler, admin *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)
	g.POST("/cars", cars.Create)
	g.PUT("/cars/:id", cars.Update)
	g.DELETE("/cars/:id", cars.Delete)

	g.GET("/reservations", res.ListAll)
	g.GET("/reservations/:id", res.Get)
	g.PATCH("/reservations/:id", res.Update)
	g.GET("/reservations/:id/payments", pay.ListByReservation)
	g.GET("/payments/:id", pay.Get)

	g.GET("/revenue", admin.Revenue)
	g.GET("/users", admin.ListUsers)
}
