package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tinghir/car-rental-connect/internal/model"
)

// ErrPaymentNotFound is returned when no payment exists with the
// requested id.
var ErrPaymentNotFound = errors.New("payment not found")

// PaymentRepo persists payment records. Payments are append-only:
// once captured a row is never updated or removed.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// CreateTx inserts a payment within an existing transaction so the
// insert and the reservation's payment_status update commit together.
// The generated ID and timestamp are populated on the record.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	const q = `INSERT INTO payments (reservation_id, amount, method, status, transaction_id)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, p.ReservationID, p.Amount, p.Method, p.Status, p.TransactionID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	const sel = `SELECT created_at FROM payments WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, p.ID).Scan(&p.CreatedAt)
}

// GetByID returns a payment by id or ErrPaymentNotFound.
func (r *PaymentRepo) GetByID(ctx context.Context, id uint64) (*model.Payment, error) {
	const q = `SELECT id, reservation_id, amount, method, status, transaction_id, created_at
	           FROM payments WHERE id = ?`
	var p model.Payment
	var txID sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&p.ID, &p.ReservationID, &p.Amount, &p.Method, &p.Status, &txID, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if txID.Valid {
		v := txID.String
		p.TransactionID = &v
	}
	return &p, nil
}

// ListByReservation returns all payments recorded against a
// reservation, oldest first.
func (r *PaymentRepo) ListByReservation(ctx context.Context, reservationID uint64) ([]*model.Payment, error) {
	const q = `SELECT id, reservation_id, amount, method, status, transaction_id, created_at
	           FROM payments WHERE reservation_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.Payment, 0)
	for rows.Next() {
		var p model.Payment
		var txID sql.NullString
		if err := rows.Scan(&p.ID, &p.ReservationID, &p.Amount, &p.Method, &p.Status, &txID, &p.CreatedAt); err != nil {
			return nil, err
		}
		if txID.Valid {
			v := txID.String
			p.TransactionID = &v
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
