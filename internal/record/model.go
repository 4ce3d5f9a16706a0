package record

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a record does not exist or belongs to another
// business.
var ErrNotFound = errors.New("record not found")

const TypeSell = "sell"

type Contact struct {
	ID     int64
	Name   string
	Email  string
	Mobile string
}

type PaymentLine struct {
	Amount   decimal.Decimal
	IsReturn bool
}

type Transaction struct {
	ID         int64
	BusinessID int64
	Type       string
	InvoiceNo  string
	RefNo      string
	FinalTotal decimal.Decimal
	Contact    Contact
	Payments   []PaymentLine
}

// Number is the invoice number for sales and the reference number otherwise.
func (t Transaction) Number() string {
	if t.Type == TypeSell {
		return t.InvoiceNo
	}
	return t.RefNo
}

// Paid sums payment lines, ignoring returns.
func (t Transaction) Paid() decimal.Decimal {
	paid := decimal.Zero
	for _, p := range t.Payments {
		if p.IsReturn {
			continue
		}
		paid = paid.Add(p.Amount)
	}
	return paid
}

func (t Transaction) Due() decimal.Decimal {
	return t.FinalTotal.Sub(t.Paid())
}

type Named struct {
	ID   int64
	Name string
}

type Person struct {
	ID        int64
	Surname   string
	FirstName string
	LastName  string
}

// FullName joins the non-empty name parts with single spaces.
func (p Person) FullName() string {
	out := ""
	for _, part := range []string{p.Surname, p.FirstName, p.LastName} {
		if part == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += part
	}
	return out
}

type Booking struct {
	ID            int64
	BusinessID    int64
	Customer      Contact
	Table         *Named
	Location      Named
	Staff         *Person
	Correspondent *Person
	Start         time.Time
	End           time.Time
}

// Store loads records scoped to a business. Implementations must never
// return a row owned by a different business.
type Store interface {
	FindTransaction(ctx context.Context, businessID, id int64) (Transaction, error)
	FindBooking(ctx context.Context, businessID, id int64) (Booking, error)
}
