package render

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/pos-notifier/internal/business"
	"github.com/example/pos-notifier/internal/record"
	"github.com/example/pos-notifier/internal/vocabulary"
)

const businessID = 1

func classify(t *testing.T, kind vocabulary.Kind) vocabulary.Entry {
	t.Helper()
	e, err := vocabulary.Default().Classify(kind)
	require.NoError(t, err)
	return e
}

func fixtures() (*record.MemoryStore, *business.MemoryDirectory) {
	store := record.NewMemoryStore()
	store.PutTransaction(record.Transaction{
		ID:         100,
		BusinessID: businessID,
		Type:       record.TypeSell,
		InvoiceNo:  "INV-100",
		RefNo:      "REF-9",
		FinalTotal: decimal.RequireFromString("500"),
		Contact:    record.Contact{Name: "Walk-In Customer", Email: "walkin@example.com"},
		Payments: []record.PaymentLine{
			{Amount: decimal.RequireFromString("200")},
		},
	})
	store.PutTransaction(record.Transaction{
		ID:         101,
		BusinessID: businessID,
		Type:       "purchase",
		InvoiceNo:  "",
		RefNo:      "PO-2024-1",
		FinalTotal: decimal.RequireFromString("1000.50"),
		Contact:    record.Contact{Name: "Supplies Ltd"},
		Payments: []record.PaymentLine{
			{Amount: decimal.RequireFromString("400.25")},
			{Amount: decimal.RequireFromString("100"), IsReturn: true},
		},
	})
	store.PutBooking(record.Booking{
		ID:         200,
		BusinessID: businessID,
		Customer:   record.Contact{Name: "Alice", Mobile: "+15550100"},
		Location:   record.Named{Name: "Downtown"},
		Start:      time.Date(2024, 5, 1, 19, 0, 0, 0, time.UTC),
		End:        time.Date(2024, 5, 1, 21, 0, 0, 0, time.UTC),
		Staff:      &record.Person{FirstName: "Sam", LastName: "Lee"},
	})
	dir := business.NewMemoryDirectory(business.Profile{
		ID:         businessID,
		Name:       "Corner Bistro",
		Logo:       "logo.png",
		DateFormat: "d-m-Y",
		TimeFormat: 24,
	}, business.Profile{ID: 2, Name: "Other"})
	return store, dir
}

func TestResolveTransaction(t *testing.T) {
	store, dir := fixtures()
	r := NewResolver(store, dir, "https://pos.example.com/")

	tags, snap, err := r.Resolve(context.Background(), classify(t, vocabulary.KindNewSale), 100, businessID)
	require.NoError(t, err)
	assert.Equal(t, "walkin@example.com", snap.Contact.Email)

	got := Render("Due: {due_amount}, Paid: {paid_amount}", tags)
	assert.Equal(t, "Due: 300.00, Paid: 200.00", got)

	got = Render("{contact_name} / {invoice_number} / {total_amount} / {business_name}", tags)
	assert.Equal(t, "Walk-In Customer / INV-100 / 500.00 / Corner Bistro", got)

	got = Render("{business_logo}", tags)
	assert.Equal(t, `<img src="https://pos.example.com/storage/business_logos/logo.png" alt="Business Logo" >`, got)
}

func TestResolvePurchaseUsesReferenceAndExcludesReturns(t *testing.T) {
	store, dir := fixtures()
	r := NewResolver(store, dir, "")

	tags, _, err := r.Resolve(context.Background(), classify(t, vocabulary.KindNewOrder), 101, businessID)
	require.NoError(t, err)
	assert.Equal(t, "PO-2024-1 paid 400.25 due 600.25", Render("{invoice_number} paid {paid_amount} due {due_amount}", tags))
}

func TestDueAmountIsExact(t *testing.T) {
	tx := record.Transaction{
		FinalTotal: decimal.RequireFromString("0.30"),
		Payments: []record.PaymentLine{
			{Amount: decimal.RequireFromString("0.10")},
			{Amount: decimal.RequireFromString("0.20")},
			{Amount: decimal.RequireFromString("5"), IsReturn: true},
		},
	}
	store, dir := fixtures()
	r := NewResolver(store, dir, "")
	f := r.newFormatter(business.Profile{})

	tags := TransactionTags(tx, f)
	assert.Equal(t, f.Amount(tx.FinalTotal.Sub(decimal.RequireFromString("0.30")), true), Render("{due_amount}", tags))
	assert.Equal(t, "0.00", Render("{due_amount}", tags))
}

func TestResolveBooking(t *testing.T) {
	store, dir := fixtures()
	r := NewResolver(store, dir, "")

	tags, snap, err := r.Resolve(context.Background(), classify(t, vocabulary.KindNewBooking), 200, businessID)
	require.NoError(t, err)
	assert.Equal(t, "+15550100", snap.Contact.Mobile)

	assert.Equal(t, "Table: , Guest: Alice", Render("Table: {table}, Guest: {contact_name}", tags))
	assert.Equal(t, "01-05-2024 19:00 - 01-05-2024 21:00 at Downtown", Render("{start_time} - {end_time} at {location}", tags))
	assert.Equal(t, "Sam Lee|", Render("{service_staff}|{correspondent}", tags))
	assert.Equal(t, "{due_amount}", Render("{due_amount}", tags))
}

func TestResolveOtherBusinessIsNotFound(t *testing.T) {
	store, dir := fixtures()
	r := NewResolver(store, dir, "")

	_, _, err := r.Resolve(context.Background(), classify(t, vocabulary.KindNewSale), 100, 2)
	assert.True(t, errors.Is(err, record.ErrNotFound))

	_, _, err = r.Resolve(context.Background(), classify(t, vocabulary.KindNewBooking), 200, 2)
	assert.True(t, errors.Is(err, record.ErrNotFound))
}

func TestResolveLooksUpByEntryRecordType(t *testing.T) {
	store, dir := fixtures()
	r := NewResolver(store, dir, "")

	// transaction 100 is not a booking, so a booking entry must not find it
	_, _, err := r.Resolve(context.Background(), classify(t, vocabulary.KindNewBooking), 100, businessID)
	assert.True(t, errors.Is(err, record.ErrNotFound))

	_, _, err = r.Resolve(context.Background(), classify(t, vocabulary.KindPaymentReceived), 200, businessID)
	assert.True(t, errors.Is(err, record.ErrNotFound))
}

func TestResolveUnknownBusiness(t *testing.T) {
	store, dir := fixtures()
	r := NewResolver(store, dir, "")

	_, _, err := r.Resolve(context.Background(), classify(t, vocabulary.KindNewSale), 100, 99)
	assert.True(t, errors.Is(err, business.ErrNotFound))
}

func TestLogoImage(t *testing.T) {
	assert.Equal(t, "", LogoImage("https://x", ""))
	assert.Equal(t, `<img src="https://x/storage/business_logos/my%20logo.png" alt="Business Logo" >`, LogoImage("https://x", "my logo.png"))
}
