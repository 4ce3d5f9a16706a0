package record

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const selectTransaction = `
SELECT t.id, t.business_id, t.type, COALESCE(t.invoice_no, ''), COALESCE(t.ref_no, ''), t.final_total::text,
c.id, c.name, COALESCE(c.email, ''), COALESCE(c.mobile, '')
FROM transactions t
JOIN contacts c ON c.id = t.contact_id
WHERE t.business_id = $1 AND t.id = $2
`

const selectPaymentLines = `
SELECT amount::text, is_return
FROM transaction_payments
WHERE transaction_id = $1
ORDER BY id
`

const selectBooking = `
SELECT b.id, b.business_id, b.booking_start, b.booking_end,
c.id, c.name, COALESCE(c.email, ''), COALESCE(c.mobile, ''),
l.id, l.name,
tb.id, tb.name,
w.id, COALESCE(w.surname, ''), COALESCE(w.first_name, ''), COALESCE(w.last_name, ''),
cr.id, COALESCE(cr.surname, ''), COALESCE(cr.first_name, ''), COALESCE(cr.last_name, '')
FROM bookings b
JOIN contacts c ON c.id = b.contact_id
JOIN business_locations l ON l.id = b.location_id
LEFT JOIN res_tables tb ON tb.id = b.table_id
LEFT JOIN users w ON w.id = b.waiter_id
LEFT JOIN users cr ON cr.id = b.correspondent_id
WHERE b.business_id = $1 AND b.id = $2
`

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) FindTransaction(ctx context.Context, businessID, id int64) (Transaction, error) {
	var (
		tx    Transaction
		total string
	)
	row := s.pool.QueryRow(ctx, selectTransaction, businessID, id)
	if err := row.Scan(&tx.ID, &tx.BusinessID, &tx.Type, &tx.InvoiceNo, &tx.RefNo, &total,
		&tx.Contact.ID, &tx.Contact.Name, &tx.Contact.Email, &tx.Contact.Mobile); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, fmt.Errorf("transaction %d: %w", id, ErrNotFound)
		}
		return Transaction{}, fmt.Errorf("select transaction: %w", err)
	}
	finalTotal, err := decimal.NewFromString(total)
	if err != nil {
		return Transaction{}, fmt.Errorf("parse final_total: %w", err)
	}
	tx.FinalTotal = finalTotal

	rows, err := s.pool.Query(ctx, selectPaymentLines, tx.ID)
	if err != nil {
		return Transaction{}, fmt.Errorf("select payment lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			amount   string
			isReturn bool
		)
		if err := rows.Scan(&amount, &isReturn); err != nil {
			return Transaction{}, fmt.Errorf("scan payment line: %w", err)
		}
		value, err := decimal.NewFromString(amount)
		if err != nil {
			return Transaction{}, fmt.Errorf("parse payment amount: %w", err)
		}
		tx.Payments = append(tx.Payments, PaymentLine{Amount: value, IsReturn: isReturn})
	}
	if err := rows.Err(); err != nil {
		return Transaction{}, fmt.Errorf("read payment lines: %w", err)
	}
	return tx, nil
}

func (s *PostgresStore) FindBooking(ctx context.Context, businessID, id int64) (Booking, error) {
	var (
		b                    Booking
		start, end           time.Time
		tableID              *int64
		tableName            *string
		staffID, corrID      *int64
		staff, correspondent Person
	)
	row := s.pool.QueryRow(ctx, selectBooking, businessID, id)
	err := row.Scan(&b.ID, &b.BusinessID, &start, &end,
		&b.Customer.ID, &b.Customer.Name, &b.Customer.Email, &b.Customer.Mobile,
		&b.Location.ID, &b.Location.Name,
		&tableID, &tableName,
		&staffID, &staff.Surname, &staff.FirstName, &staff.LastName,
		&corrID, &correspondent.Surname, &correspondent.FirstName, &correspondent.LastName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Booking{}, fmt.Errorf("booking %d: %w", id, ErrNotFound)
		}
		return Booking{}, fmt.Errorf("select booking: %w", err)
	}
	b.Start, b.End = start, end
	if tableID != nil && tableName != nil {
		b.Table = &Named{ID: *tableID, Name: *tableName}
	}
	if staffID != nil {
		staff.ID = *staffID
		b.Staff = &staff
	}
	if corrID != nil {
		correspondent.ID = *corrID
		b.Correspondent = &correspondent
	}
	return b, nil
}

var ErrNotConfigured = errors.New("postgres store requires a non-nil pool")

func MustStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, ErrNotConfigured
	}
	return NewPostgresStore(pool), nil
}
