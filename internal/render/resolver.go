package render

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/example/pos-notifier/internal/business"
	"github.com/example/pos-notifier/internal/format"
	"github.com/example/pos-notifier/internal/record"
	"github.com/example/pos-notifier/internal/vocabulary"
)

type Formatter interface {
	Amount(value decimal.Decimal, withCurrency bool) string
	DateTime(t time.Time, withTime bool) string
}

// Snapshot is what the resolver loaded for one render. Contact carries the
// recipient's email and mobile so callers can default destinations.
type Snapshot struct {
	Contact record.Contact
	Profile business.Profile
}

type Resolver struct {
	records      record.Store
	businesses   business.Directory
	assetBaseURL string
	newFormatter func(business.Profile) Formatter
}

func NewResolver(records record.Store, businesses business.Directory, assetBaseURL string) *Resolver {
	return &Resolver{
		records:      records,
		businesses:   businesses,
		assetBaseURL: strings.TrimRight(assetBaseURL, "/"),
		newFormatter: func(p business.Profile) Formatter { return format.New(p) },
	}
}

// Resolve loads the record behind a classified kind for businessID and returns
// its tag map. Records owned by another business are reported as
// record.ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, entry vocabulary.Entry, recordID, businessID int64) (*TagMap, Snapshot, error) {
	ctx, span := otel.Tracer("render").Start(ctx, "resolve-tags")
	defer span.End()
	span.SetAttributes(
		attribute.String("notification.kind", string(entry.Kind)),
		attribute.Int64("record.id", recordID),
		attribute.Int64("business.id", businessID),
	)

	profile, err := r.businesses.Profile(ctx, businessID)
	if err != nil {
		span.RecordError(err)
		return nil, Snapshot{}, fmt.Errorf("load business: %w", err)
	}
	f := r.newFormatter(profile)

	if entry.IsBooking() {
		b, err := r.records.FindBooking(ctx, businessID, recordID)
		if err != nil {
			span.RecordError(err)
			return nil, Snapshot{}, err
		}
		tags := BookingTags(b, f)
		r.addBusinessTags(tags, profile)
		return tags, Snapshot{Contact: b.Customer, Profile: profile}, nil
	}

	tx, err := r.records.FindTransaction(ctx, businessID, recordID)
	if err != nil {
		span.RecordError(err)
		return nil, Snapshot{}, err
	}
	tags := TransactionTags(tx, f)
	r.addBusinessTags(tags, profile)
	return tags, Snapshot{Contact: tx.Contact, Profile: profile}, nil
}

func TransactionTags(tx record.Transaction, f Formatter) *TagMap {
	tags := NewTagMap()
	tags.Set(vocabulary.TagContactName, func() string { return tx.Contact.Name })
	tags.Set(vocabulary.TagInvoiceNumber, tx.Number)
	tags.Set(vocabulary.TagTotalAmount, func() string { return f.Amount(tx.FinalTotal, true) })
	tags.Set(vocabulary.TagPaidAmount, func() string { return f.Amount(tx.Paid(), true) })
	tags.Set(vocabulary.TagDueAmount, func() string { return f.Amount(tx.Due(), true) })
	return tags
}

func BookingTags(b record.Booking, f Formatter) *TagMap {
	tags := NewTagMap()
	tags.Set(vocabulary.TagContactName, func() string { return b.Customer.Name })
	tags.Set(vocabulary.TagTable, func() string {
		if b.Table == nil {
			return ""
		}
		return b.Table.Name
	})
	tags.Set(vocabulary.TagStartTime, func() string { return f.DateTime(b.Start, true) })
	tags.Set(vocabulary.TagEndTime, func() string { return f.DateTime(b.End, true) })
	tags.Set(vocabulary.TagLocation, func() string { return b.Location.Name })
	tags.Set(vocabulary.TagServiceStaff, func() string {
		if b.Staff == nil {
			return ""
		}
		return b.Staff.FullName()
	})
	tags.Set(vocabulary.TagCorrespondent, func() string {
		if b.Correspondent == nil {
			return ""
		}
		return b.Correspondent.FullName()
	})
	return tags
}

func (r *Resolver) addBusinessTags(tags *TagMap, p business.Profile) {
	tags.SetValue(vocabulary.TagBusinessName, p.Name)
	tags.Set(vocabulary.TagBusinessLogo, func() string { return LogoImage(r.assetBaseURL, p.Logo) })
}

// LogoImage returns an img element pointing at the stored business logo, or
// an empty string when no logo is configured.
func LogoImage(baseURL, logo string) string {
	if strings.TrimSpace(logo) == "" {
		return ""
	}
	src := baseURL + "/storage/business_logos/" + url.PathEscape(logo)
	return `<img src="` + html.EscapeString(src) + `" alt="Business Logo" >`
}
