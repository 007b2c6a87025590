package model

import "time"

// CarStatus enumerates the operational state of a car in the fleet.
// Only AVAILABLE cars can be offered for new reservations; RENTED and
// MAINTENANCE cars are excluded from availability checks.
type CarStatus string

const (
	CarAvailable   CarStatus = "AVAILABLE"
	CarRented      CarStatus = "RENTED"
	CarMaintenance CarStatus = "MAINTENANCE"
)

// ValidCarStatus reports whether s is one of the known car statuses.
func ValidCarStatus(s CarStatus) bool {
	switch s {
	case CarAvailable, CarRented, CarMaintenance:
		return true
	}
	return false
}

// Car represents a vehicle record as stored in the `cars` table.
// Cars are created and maintained by administrators; their status may
// change as a consequence of the reservation lifecycle.
//
// Fields:
//  ID                 – primary key identifier.
//  Brand              – manufacturer name (e.g. Dacia).
//  Model              – model name (e.g. Logan).
//  Year               – production year.
//  RegistrationNumber – unique plate number.
//  Type               – body/category type (e.g. SUV, Berline).
//  Agency             – rental agency (physical location) owning the car.
//  Status             – operational state (AVAILABLE, RENTED, MAINTENANCE).
//  PricePerDay        – daily rental price in whole MAD.
//  ImageURL           – optional catalog image.
//  CreatedAt          – timestamp of creation.
//  UpdatedAt          – timestamp of last update.
type Car struct {
	ID                 uint64    `json:"id"`                  // cars.id
	Brand              string    `json:"brand"`               // cars.brand
	Model              string    `json:"model"`               // cars.model
	Year               int       `json:"year"`                // cars.year
	RegistrationNumber string    `json:"registration_number"` // cars.registration_number
	Type               string    `json:"type"`                // cars.type
	Agency             string    `json:"agency"`              // cars.agency
	Status             CarStatus `json:"status"`              // cars.status
	PricePerDay        int64     `json:"price_per_day"`       // cars.price_per_day (whole MAD)
	ImageURL           *string   `json:"image_url,omitempty"` // cars.image_url (nullable)
	CreatedAt          time.Time `json:"created_at"`          // cars.created_at
	UpdatedAt          time.Time `json:"updated_at"`          // cars.updated_at
}
