package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tinghir/car-rental-connect/internal/booking"
	"github.com/tinghir/car-rental-connect/internal/model"
)

// ReservationRepo provides persistence for reservations. A reservation
// books a single car for an inclusive date range; rows are never
// deleted, cancellation is a status transition. All date columns are
// DATE values interpreted in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning the car lock, the overlap check and the insert.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

// activeStatuses is the SQL fragment matching reservations that block
// a car's date range.
const activeStatuses = `('PENDING','CONFIRMED')`

// CountOverlapping returns how many PENDING or CONFIRMED reservations
// of the car intersect the inclusive range [start, end]. Used by the
// advisory availability endpoint; the authoritative check runs in
// CreateTx under the car row lock.
func (r *ReservationRepo) CountOverlapping(ctx context.Context, carID uint64, start, end time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM reservations
	           WHERE car_id = ? AND status IN ` + activeStatuses + `
	             AND start_date <= ? AND end_date >= ?`
	var n int
	err := r.db.QueryRowContext(ctx, q, carID, end.Format(booking.DateLayout), start.Format(booking.DateLayout)).Scan(&n)
	return n, err
}

// CreateTx inserts a new reservation within an existing transaction.
// The caller must have locked the car row first (CarRepo.GetForUpdateTx)
// so that the overlap re-check below and the insert are atomic: of two
// concurrent bookings for intersecting ranges exactly one commits, the
// other receives ErrDateConflict. The generated ID and timestamps are
// populated on the provided record.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const overlapQ = `SELECT COUNT(*) FROM reservations
	                  WHERE car_id = ? AND status IN ` + activeStatuses + `
	                    AND start_date <= ? AND end_date >= ?
	                  FOR UPDATE`
	var n int
	if err := tx.QueryRowContext(ctx, overlapQ, res.CarID,
		res.EndDate.Format(booking.DateLayout), res.StartDate.Format(booking.DateLayout)).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrDateConflict
	}
	// user_id is NULL for guest checkouts
	var userID interface{}
	if res.UserID != 0 {
		userID = res.UserID
	}
	const q = `INSERT INTO reservations
	           (car_id, user_id, start_date, end_date, total_price, status, payment_status,
	            guest_first_name, guest_last_name, guest_email, guest_phone)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		res.CarID, userID,
		res.StartDate.Format(booking.DateLayout), res.EndDate.Format(booking.DateLayout),
		res.TotalPrice, res.Status, res.PaymentStatus,
		res.GuestFirstName, res.GuestLastName, res.GuestEmail, res.GuestPhone)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	// Query back the row to populate timestamps and defaults
	const sel = `SELECT created_at, updated_at FROM reservations WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, res.ID).Scan(&res.CreatedAt, &res.UpdatedAt)
}

// GetForUpdateTx loads a reservation row and locks it for the duration
// of the enclosing transaction. Status and payment transitions read
// the current state through this method so concurrent updates
// serialize on the row lock. ErrReservationNotFound is returned when
// the row does not exist.
func (r *ReservationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
	const q = `SELECT id, car_id, user_id, start_date, end_date, total_price, status, payment_status,
	                  guest_first_name, guest_last_name, guest_email, guest_phone, created_at, updated_at
	           FROM reservations WHERE id = ? FOR UPDATE`
	return scanReservation(tx.QueryRowContext(ctx, q, id))
}

// GetModel loads a reservation row without joins or locks.
func (r *ReservationRepo) GetModel(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT id, car_id, user_id, start_date, end_date, total_price, status, payment_status,
	                  guest_first_name, guest_last_name, guest_email, guest_phone, created_at, updated_at
	           FROM reservations WHERE id = ?`
	return scanReservation(r.db.QueryRowContext(ctx, q, id))
}

func scanReservation(row *sql.Row) (*model.Reservation, error) {
	var res model.Reservation
	var userID sql.NullInt64
	var gFirst, gLast, gEmail, gPhone sql.NullString
	err := row.Scan(&res.ID, &res.CarID, &userID, &res.StartDate, &res.EndDate,
		&res.TotalPrice, &res.Status, &res.PaymentStatus,
		&gFirst, &gLast, &gEmail, &gPhone, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	if userID.Valid {
		res.UserID = uint64(userID.Int64)
	}
	if gFirst.Valid {
		v := gFirst.String
		res.GuestFirstName = &v
	}
	if gLast.Valid {
		v := gLast.String
		res.GuestLastName = &v
	}
	if gEmail.Valid {
		v := gEmail.String
		res.GuestEmail = &v
	}
	if gPhone.Valid {
		v := gPhone.String
		res.GuestPhone = &v
	}
	return &res, nil
}

// UpdateStatusTx sets the reservation status within a transaction. The
// caller is responsible for checking the transition against the
// lifecycle rules before calling.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.ReservationStatus) error {
	_, err := tx.ExecContext(ctx, `UPDATE reservations SET status = ? WHERE id = ?`, status, id)
	return err
}

// UpdatePaymentStatusTx sets the payment sub-state within a transaction.
func (r *ReservationRepo) UpdatePaymentStatusTx(ctx context.Context, tx *sql.Tx, id uint64, state model.PaymentState) error {
	_, err := tx.ExecContext(ctx, `UPDATE reservations SET payment_status = ? WHERE id = ?`, state, id)
	return err
}

// ReservationDetail couples a reservation with the car it books. It is
// the shape returned to clients for confirmation pages and listings.
type ReservationDetail struct {
	ID            uint64  `json:"id"`
	CarID         uint64  `json:"car_id"`
	UserID        uint64  `json:"user_id,omitempty"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	TotalPrice    int64   `json:"total_price"`
	Status        string  `json:"status"`
	PaymentStatus string  `json:"payment_status"`
	GuestName     *string `json:"guest_name,omitempty"`
	GuestEmail    *string `json:"guest_email,omitempty"`
	CreatedAt     string  `json:"created_at"`
	Car           struct {
		Brand       string `json:"brand"`
		Model       string `json:"model"`
		Year        int    `json:"year"`
		Type        string `json:"type"`
		Agency      string `json:"agency"`
		PricePerDay int64  `json:"price_per_day"`
	} `json:"car"`
}

const detailQuery = `SELECT r.id, r.car_id, r.user_id, r.start_date, r.end_date, r.total_price,
                            r.status, r.payment_status, r.guest_first_name, r.guest_last_name,
                            r.guest_email, r.created_at,
                            c.brand, c.model, c.year, c.type, c.agency, c.price_per_day
                     FROM reservations r
                     JOIN cars c ON c.id = r.car_id`

func scanDetail(scan func(dest ...interface{}) error) (*ReservationDetail, error) {
	var d ReservationDetail
	var start, end, created time.Time
	var userID sql.NullInt64
	var gFirst, gLast, gEmail sql.NullString
	if err := scan(&d.ID, &d.CarID, &userID, &start, &end, &d.TotalPrice,
		&d.Status, &d.PaymentStatus, &gFirst, &gLast, &gEmail, &created,
		&d.Car.Brand, &d.Car.Model, &d.Car.Year, &d.Car.Type, &d.Car.Agency, &d.Car.PricePerDay); err != nil {
		return nil, err
	}
	if userID.Valid {
		d.UserID = uint64(userID.Int64)
	}
	d.StartDate = start.Format(booking.DateLayout)
	d.EndDate = end.Format(booking.DateLayout)
	d.CreatedAt = created.UTC().Format(time.RFC3339)
	if gFirst.Valid || gLast.Valid {
		name := gFirst.String
		if gLast.Valid && gLast.String != "" {
			if name != "" {
				name += " "
			}
			name += gLast.String
		}
		d.GuestName = &name
	}
	if gEmail.Valid {
		v := gEmail.String
		d.GuestEmail = &v
	}
	return &d, nil
}

// GetByID returns a reservation with its car details, or
// ErrReservationNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*ReservationDetail, error) {
	q := detailQuery + ` WHERE r.id = ?`
	d, err := scanDetail(r.db.QueryRowContext(ctx, q, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return d, nil
}

// ListByUser returns all reservations created by the given user, newest
// first. When none exist an empty slice is returned.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]*ReservationDetail, error) {
	q := detailQuery + ` WHERE r.user_id = ? ORDER BY r.created_at DESC`
	return r.listDetails(ctx, q, userID)
}

// ListAll returns every reservation, newest first. Admin only.
func (r *ReservationRepo) ListAll(ctx context.Context) ([]*ReservationDetail, error) {
	q := detailQuery + ` ORDER BY r.created_at DESC`
	return r.listDetails(ctx, q)
}

func (r *ReservationRepo) listDetails(ctx context.Context, q string, args ...interface{}) ([]*ReservationDetail, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*ReservationDetail, 0)
	for rows.Next() {
		d, err := scanDetail(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// TotalRevenue sums the totals of all reservations whose payment
// sub-state is PAID. Used by the admin dashboard.
func (r *ReservationRepo) TotalRevenue(ctx context.Context) (int64, error) {
	const q = `SELECT COALESCE(SUM(total_price), 0) FROM reservations WHERE payment_status = 'PAID'`
	var total int64
	err := r.db.QueryRowContext(ctx, q).Scan(&total)
	return total, err
}
