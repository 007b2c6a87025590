// Package repository contains data access logic separated from HTTP
// handlers. This file defines the car repository used for the public
// catalog and the admin fleet CRUD. A car belongs to a single agency
// and carries a daily price in whole MAD.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/tinghir/car-rental-connect/internal/model"
)

// CarRepo encapsulates all database queries related to cars. It
// depends on a sql.DB connection configured at startup.
type CarRepo struct {
	db *sql.DB
}

// NewCarRepo constructs a CarRepo with the provided DB handle.
func NewCarRepo(db *sql.DB) *CarRepo {
	return &CarRepo{db: db}
}

// DB exposes the underlying handle so handlers can open transactions
// that span multiple repositories.
func (r *CarRepo) DB() *sql.DB { return r.db }

const carColumns = `id, brand, model, year, registration_number, type, agency, status, price_per_day, image_url, created_at, updated_at`

// scanCar scans a single car row from any row scanner.
func scanCar(scan func(dest ...interface{}) error) (*model.Car, error) {
	var c model.Car
	var imageURL sql.NullString
	if err := scan(&c.ID, &c.Brand, &c.Model, &c.Year, &c.RegistrationNumber,
		&c.Type, &c.Agency, &c.Status, &c.PricePerDay, &imageURL,
		&c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if imageURL.Valid {
		u := imageURL.String
		c.ImageURL = &u
	}
	return &c, nil
}

// Create inserts a new car. On success the car's ID, CreatedAt and
// UpdatedAt fields are populated from the stored row.
func (r *CarRepo) Create(ctx context.Context, c *model.Car) error {
	const qInsert = `INSERT INTO cars (brand, model, year, registration_number, type, agency, status, price_per_day, image_url)
	                 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert,
		c.Brand, c.Model, c.Year, c.RegistrationNumber, c.Type, c.Agency, c.Status, c.PricePerDay, c.ImageURL)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults
	stored, err := r.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	*c = *stored
	return nil
}

// GetByID fetches a car by its ID. It returns ErrCarNotFound when no
// row exists.
func (r *CarRepo) GetByID(ctx context.Context, id uint64) (*model.Car, error) {
	const q = `SELECT ` + carColumns + ` FROM cars WHERE id = ?`
	c, err := scanCarRow(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCarNotFound
		}
		return nil, err
	}
	return c, nil
}

func scanCarRow(row *sql.Row) (*model.Car, error) {
	return scanCar(row.Scan)
}

// Update overwrites all descriptive attributes of an existing car.
// ErrCarNotFound is returned when the car does not exist.
func (r *CarRepo) Update(ctx context.Context, c *model.Car) error {
	const q = `UPDATE cars SET brand=?, model=?, year=?, registration_number=?, type=?, agency=?, status=?, price_per_day=?, image_url=?
	           WHERE id=?`
	res, err := r.db.ExecContext(ctx, q,
		c.Brand, c.Model, c.Year, c.RegistrationNumber, c.Type, c.Agency, c.Status, c.PricePerDay, c.ImageURL, c.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// the update may be a no-op on identical values; confirm existence
		if _, err := r.GetByID(ctx, c.ID); err != nil {
			return err
		}
	}
	stored, err := r.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	*c = *stored
	return nil
}

// Delete removes a car from the fleet. ErrCarNotFound is returned when
// the car does not exist.
func (r *CarRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cars WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCarNotFound
	}
	return nil
}

// SearchFilter collects the optional criteria of the catalog search.
// Nil / empty fields are ignored. When both StartDate and EndDate are
// set, cars with an overlapping PENDING or CONFIRMED reservation are
// excluded from the result.
type SearchFilter struct {
	Type      string
	Agency    string
	Status    model.CarStatus
	MinPrice  *int64
	MaxPrice  *int64
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Size      int
}

// Search returns the cars matching the filter, ordered by id, with
// simple LIMIT/OFFSET pagination.
func (r *CarRepo) Search(ctx context.Context, f SearchFilter) ([]*model.Car, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + carColumns + ` FROM cars c WHERE 1=1`)
	args := make([]interface{}, 0, 8)
	if f.Type != "" {
		sb.WriteString(` AND c.type = ?`)
		args = append(args, f.Type)
	}
	if f.Agency != "" {
		sb.WriteString(` AND c.agency = ?`)
		args = append(args, f.Agency)
	}
	if f.Status != "" {
		sb.WriteString(` AND c.status = ?`)
		args = append(args, f.Status)
	}
	if f.MinPrice != nil {
		sb.WriteString(` AND c.price_per_day >= ?`)
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		sb.WriteString(` AND c.price_per_day <= ?`)
		args = append(args, *f.MaxPrice)
	}
	if f.StartDate != nil && f.EndDate != nil {
		// exclude cars with an active reservation intersecting the range
		// (closed-interval overlap: existing.start <= end AND existing.end >= start)
		sb.WriteString(` AND NOT EXISTS (
			SELECT 1 FROM reservations res
			WHERE res.car_id = c.id
			  AND res.status IN ('PENDING','CONFIRMED')
			  AND res.start_date <= ? AND res.end_date >= ?)`)
		args = append(args, f.EndDate.Format("2006-01-02"), f.StartDate.Format("2006-01-02"))
	}
	sb.WriteString(` ORDER BY c.id`)
	size := f.Size
	if size <= 0 {
		size = 10
	}
	page := f.Page
	if page < 0 {
		page = 0
	}
	sb.WriteString(` LIMIT ? OFFSET ?`)
	args = append(args, size, page*size)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.Car, 0)
	for rows.Next() {
		c, err := scanCar(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListByAgency returns all cars attached to the given agency.
func (r *CarRepo) ListByAgency(ctx context.Context, agency string) ([]*model.Car, error) {
	const q = `SELECT ` + carColumns + ` FROM cars WHERE agency = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, agency)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.Car, 0)
	for rows.Next() {
		c, err := scanCar(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DistinctTypes returns the distinct car types in the fleet.
func (r *CarRepo) DistinctTypes(ctx context.Context) ([]string, error) {
	return r.distinctColumn(ctx, `SELECT DISTINCT type FROM cars ORDER BY type`)
}

// DistinctAgencies returns the distinct agencies in the fleet.
func (r *CarRepo) DistinctAgencies(ctx context.Context) ([]string, error) {
	return r.distinctColumn(ctx, `SELECT DISTINCT agency FROM cars ORDER BY agency`)
}

func (r *CarRepo) distinctColumn(ctx context.Context, q string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetForUpdateTx locks the car row for the duration of the enclosing
// transaction and returns its status and daily price. The lock keeps
// the availability check and the reservation insert atomic with
// respect to concurrent bookings of the same car.
func (r *CarRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.CarStatus, int64, error) {
	const q = `SELECT status, price_per_day FROM cars WHERE id = ? FOR UPDATE`
	var status model.CarStatus
	var price int64
	if err := tx.QueryRowContext(ctx, q, id).Scan(&status, &price); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", 0, ErrCarNotFound
		}
		return "", 0, err
	}
	return status, price, nil
}
