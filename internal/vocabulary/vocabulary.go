// Package vocabulary maps notification kinds to their template name,
// recipient type, and the placeholder tags their templates may use.
package vocabulary

import (
	"errors"
	"fmt"
)

var ErrUnknownKind = errors.New("unknown notification kind")

type Kind string

const (
	KindNewSale         Kind = "new_sale"
	KindPaymentReceived Kind = "payment_received"
	KindPaymentReminder Kind = "payment_reminder"
	KindNewBooking      Kind = "new_booking"

	KindNewOrder        Kind = "new_order"
	KindPaymentPaid     Kind = "payment_paid"
	KindPurchasePayment Kind = "purchase_payment"
	KindItemsReceived   Kind = "items_received"
	KindItemsPending    Kind = "items_pending"
)

// MessageType selects the email presentation used for a notification.
type MessageType int

const (
	Customer MessageType = iota + 1
	Supplier
)

func (t MessageType) String() string {
	switch t {
	case Customer:
		return "customer"
	case Supplier:
		return "supplier"
	default:
		return "unknown"
	}
}

const (
	TagContactName   = "{contact_name}"
	TagInvoiceNumber = "{invoice_number}"
	TagTotalAmount   = "{total_amount}"
	TagPaidAmount    = "{paid_amount}"
	TagDueAmount     = "{due_amount}"
	TagBusinessName  = "{business_name}"
	TagBusinessLogo  = "{business_logo}"

	TagTable         = "{table}"
	TagStartTime     = "{start_time}"
	TagEndTime       = "{end_time}"
	TagLocation      = "{location}"
	TagServiceStaff  = "{service_staff}"
	TagCorrespondent = "{correspondent}"
)

// TransactionTags are valid for every kind rendered from a sale or purchase.
var TransactionTags = []string{
	TagContactName,
	TagInvoiceNumber,
	TagTotalAmount,
	TagPaidAmount,
	TagDueAmount,
	TagBusinessName,
	TagBusinessLogo,
}

// BookingTags are valid for booking notifications.
var BookingTags = []string{
	TagContactName,
	TagTable,
	TagStartTime,
	TagEndTime,
	TagLocation,
	TagServiceStaff,
	TagCorrespondent,
	TagBusinessName,
	TagBusinessLogo,
}

type Entry struct {
	Kind        Kind
	Name        string
	MessageType MessageType
	Tags        []string
}

// IsBooking reports whether the kind is rendered from a booking instead of a
// transaction.
func (e Entry) IsBooking() bool {
	return e.Kind == KindNewBooking
}

func CustomerEntries() []Entry {
	return []Entry{
		{Kind: KindNewSale, Name: "New Sale", Tags: TransactionTags},
		{Kind: KindPaymentReceived, Name: "Payment Received", Tags: TransactionTags},
		{Kind: KindPaymentReminder, Name: "Payment Reminder", Tags: TransactionTags},
		{Kind: KindNewBooking, Name: "New Booking", Tags: BookingTags},
	}
}

func SupplierEntries() []Entry {
	return []Entry{
		{Kind: KindNewOrder, Name: "New Order", Tags: TransactionTags},
		{Kind: KindPaymentPaid, Name: "Payment Paid", Tags: TransactionTags},
		{Kind: KindPurchasePayment, Name: "Purchase Payment", Tags: TransactionTags},
		{Kind: KindItemsReceived, Name: "Items Received", Tags: TransactionTags},
		{Kind: KindItemsPending, Name: "Items Pending", Tags: TransactionTags},
	}
}

// Classifier resolves kinds against the customer table first, then the
// supplier table. It is read-only after construction.
type Classifier struct {
	customer []Entry
	supplier []Entry
	byKind   map[Kind]Entry
}

// NewClassifier builds a classifier and rejects tables that share a kind or
// repeat one.
func NewClassifier(customer, supplier []Entry) (*Classifier, error) {
	c := &Classifier{byKind: make(map[Kind]Entry, len(customer)+len(supplier))}
	for _, e := range customer {
		if e.Kind == "" {
			return nil, errors.New("customer vocabulary contains an empty kind")
		}
		if _, dup := c.byKind[e.Kind]; dup {
			return nil, fmt.Errorf("kind %q registered twice in customer vocabulary", e.Kind)
		}
		e.MessageType = Customer
		c.byKind[e.Kind] = e
		c.customer = append(c.customer, e)
	}
	for _, e := range supplier {
		if e.Kind == "" {
			return nil, errors.New("supplier vocabulary contains an empty kind")
		}
		if prev, dup := c.byKind[e.Kind]; dup {
			return nil, fmt.Errorf("kind %q registered in both %s and supplier vocabularies", e.Kind, prev.MessageType)
		}
		e.MessageType = Supplier
		c.byKind[e.Kind] = e
		c.supplier = append(c.supplier, e)
	}
	return c, nil
}

// Default returns the classifier for the built-in tables. A conflict between
// the tables is a programming error and panics at startup.
func Default() *Classifier {
	c, err := NewClassifier(CustomerEntries(), SupplierEntries())
	if err != nil {
		panic(fmt.Sprintf("vocabulary: %v", err))
	}
	return c
}

func (c *Classifier) Classify(kind Kind) (Entry, error) {
	e, ok := c.byKind[kind]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return e, nil
}

func (c *Classifier) Customer() []Entry {
	return append([]Entry(nil), c.customer...)
}

func (c *Classifier) Supplier() []Entry {
	return append([]Entry(nil), c.supplier...)
}
