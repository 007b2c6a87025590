package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tinghir/car-rental-connect/internal/handler"
)

// RegisterPublic registers the unauthenticated catalog and booking
// endpoints. The optional cache middleware (nil-safe) is applied to the
// read-only catalog routes; booking and payment POSTs are never cached.
func RegisterPublic(e *echo.Echo, cars *handler.CarHandler, res *handler.ReservationHandler, pay *handler.PaymentHandler, cache echo.MiddlewareFunc) {
	var mws []echo.MiddlewareFunc
	if cache != nil {
		mws = append(mws, cache)
	}
	g := e.Group("/v1", mws...)
	g.GET("/cars", cars.Search)
	g.GET("/cars/search", cars.Search)
	g.GET("/cars/types", cars.Types)
	g.GET("/cars/agencies", cars.Agencies)
	g.GET("/cars/agency/:agency", cars.ByAgency)
	g.GET("/cars/:id", cars.Get)
	g.GET("/cars/:id/availability", cars.Availability)

	// Guest-or-authenticated: the handler parses an optional bearer
	// token and falls back to the guest contact snapshot in the body.
	e.POST("/v1/reservations", res.Create)
	// Reservation detail is reachable without a session so guests can
	// revisit their confirmation; the handler enforces ownership when
	// the reservation belongs to an account.
	e.GET("/v1/reservations/:id", res.Get)
	// Payments reference the reservation by id; guests pay without an
	// account so no JWT middleware is applied here either.
	e.POST("/v1/payments", pay.Create)
}
