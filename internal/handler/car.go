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
	"github.com/tinghir/car-rental-connect/internal/model"
	"github.com/tinghir/car-rental-connect/internal/repository"
)

// CarHandler serves the public car catalog and the admin fleet CRUD.
type CarHandler struct {
	Cars         *repository.CarRepo
	Reservations *repository.ReservationRepo
}

func NewCarHandler(cars *repository.CarRepo, reservations *repository.ReservationRepo) *CarHandler {
	return &CarHandler{Cars: cars, Reservations: reservations}
}

type carReq struct {
	Brand              string  `json:"brand"`
	Model              string  `json:"model"`
	Year               int     `json:"year"`
	RegistrationNumber string  `json:"registration_number"`
	Type               string  `json:"type"`
	Agency             string  `json:"agency"`
	Status             string  `json:"status"`
	PricePerDay        int64   `json:"price_per_day"`
	ImageURL           *string `json:"image_url"`
}

func (req *carReq) validate() string {
	if strings.TrimSpace(req.Brand) == "" || strings.TrimSpace(req.Model) == "" {
		return "brand/model required"
	}
	if req.Year < 1950 || req.Year > time.Now().UTC().Year()+1 {
		return "invalid year"
	}
	if strings.TrimSpace(req.RegistrationNumber) == "" {
		return "registration_number required"
	}
	if strings.TrimSpace(req.Type) == "" || strings.TrimSpace(req.Agency) == "" {
		return "type/agency required"
	}
	if req.PricePerDay <= 0 {
		return "price_per_day must be positive"
	}
	if req.Status != "" && !model.ValidCarStatus(model.CarStatus(req.Status)) {
		return "invalid status"
	}
	return ""
}

func (req *carReq) toModel() *model.Car {
	status := model.CarStatus(req.Status)
	if status == "" {
		status = model.CarAvailable
	}
	return &model.Car{
		Brand:              strings.TrimSpace(req.Brand),
		Model:              strings.TrimSpace(req.Model),
		Year:               req.Year,
		RegistrationNumber: strings.TrimSpace(req.RegistrationNumber),
		Type:               strings.TrimSpace(req.Type),
		Agency:             strings.TrimSpace(req.Agency),
		Status:             status,
		PricePerDay:        req.PricePerDay,
		ImageURL:           req.ImageURL,
	}
}

// Search lists cars matching the query parameters. Optional filters:
// type, agency, status, min_price, max_price, and a start_date/end_date
// pair that excludes cars already reserved over the range. Paginated
// with page (0-based) and size.
func (h *CarHandler) Search(c echo.Context) error {
	f := repository.SearchFilter{
		Type:   strings.TrimSpace(c.QueryParam("type")),
		Agency: strings.TrimSpace(c.QueryParam("agency")),
	}
	if s := c.QueryParam("status"); s != "" {
		if !model.ValidCarStatus(model.CarStatus(s)) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
		f.Status = model.CarStatus(s)
	}
	if s := c.QueryParam("min_price"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid min_price"})
		}
		f.MinPrice = &n
	}
	if s := c.QueryParam("max_price"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid max_price"})
		}
		f.MaxPrice = &n
	}
	startRaw, endRaw := c.QueryParam("start_date"), c.QueryParam("end_date")
	if (startRaw == "") != (endRaw == "") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_date and end_date must be provided together"})
	}
	if startRaw != "" {
		start, err := booking.ParseDate(startRaw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_date"})
		}
		end, err := booking.ParseDate(endRaw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_date"})
		}
		if end.Before(start) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date before start_date"})
		}
		f.StartDate, f.EndDate = &start, &end
	}
	f.Page, _ = strconv.Atoi(c.QueryParam("page"))
	f.Size, _ = strconv.Atoi(c.QueryParam("size"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cars, err := h.Cars.Search(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"cars": cars, "page": f.Page, "size": len(cars)})
}

// Get returns a single car by id.
func (h *CarHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	car, err := h.Cars.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCarNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "car not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, car)
}

// Availability answers whether a car can be booked for an inclusive
// date range. The answer is advisory: the authoritative check happens
// again inside the booking transaction, so a positive answer here can
// still lose to a concurrent booking.
func (h *CarHandler) Availability(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	start, err := booking.ParseDate(c.QueryParam("start_date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_date"})
	}
	end, err := booking.ParseDate(c.QueryParam("end_date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_date"})
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if err := booking.ValidateRange(start, end, today); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	car, err := h.Cars.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCarNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "car not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if car.Status != model.CarAvailable {
		return c.JSON(http.StatusOK, echo.Map{
			"available": false,
			"message":   "Car is not available for reservation",
		})
	}
	n, err := h.Reservations.CountOverlapping(ctx, id, start, end)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if n > 0 {
		return c.JSON(http.StatusOK, echo.Map{
			"available": false,
			"message":   "Car is already reserved for the selected dates",
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"available": true})
}

// Types returns the distinct car types in the fleet, for search filters.
func (h *CarHandler) Types(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	types, err := h.Cars.DistinctTypes(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"types": types})
}

// Agencies returns the distinct agencies in the fleet.
func (h *CarHandler) Agencies(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	agencies, err := h.Cars.DistinctAgencies(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"agencies": agencies})
}

// ByAgency lists all cars attached to one agency.
func (h *CarHandler) ByAgency(c echo.Context) error {
	agency := strings.TrimSpace(c.Param("agency"))
	if agency == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "agency required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	cars, err := h.Cars.ListByAgency(ctx, agency)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"cars": cars})
}

// Create adds a car to the fleet. Admin only (enforced by middleware).
func (h *CarHandler) Create(c echo.Context) error {
	var req carReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	car := req.toModel()
	if err := h.Cars.Create(ctx, car); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create car failed"})
	}
	return c.JSON(http.StatusCreated, car)
}

// Update overwrites the attributes of an existing car. Admin only.
func (h *CarHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req carReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	car := req.toModel()
	car.ID = id
	if err := h.Cars.Update(ctx, car); err != nil {
		if errors.Is(err, repository.ErrCarNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "car not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update car failed"})
	}
	return c.JSON(http.StatusOK, car)
}

// Delete removes a car from the fleet. Admin only.
func (h *CarHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Cars.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCarNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "car not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete car failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
