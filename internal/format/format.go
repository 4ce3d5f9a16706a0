// Package format renders amounts and timestamps the way a business has
// configured them.
package format

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/pos-notifier/internal/business"
)

const defaultPrecision = 2

type Formatter struct {
	currency   business.Currency
	dateLayout string
	timeLayout string
}

// New builds a formatter from the business profile. A zero precision selects
// two decimal places.
func New(p business.Profile) *Formatter {
	cur := p.Currency
	if cur.Precision <= 0 {
		cur.Precision = defaultPrecision
	}
	if cur.DecimalSeparator == "" {
		cur.DecimalSeparator = "."
	}
	timeLayout := "15:04"
	if p.TimeFormat == 12 {
		timeLayout = "03:04 PM"
	}
	dateFormat := p.DateFormat
	if dateFormat == "" {
		dateFormat = "m/d/Y"
	}
	return &Formatter{
		currency:   cur,
		dateLayout: Layout(dateFormat),
		timeLayout: timeLayout,
	}
}

func (f *Formatter) Amount(value decimal.Decimal, withCurrency bool) string {
	fixed := value.StringFixed(f.currency.Precision)
	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	whole, frac, _ := strings.Cut(fixed, ".")
	out := group(whole, f.currency.ThousandSeparator)
	if frac != "" {
		out += f.currency.DecimalSeparator + frac
	}
	if negative {
		out = "-" + out
	}
	if !withCurrency || f.currency.Symbol == "" {
		return out
	}
	if f.currency.Placement == "after" {
		return out + " " + f.currency.Symbol
	}
	return f.currency.Symbol + " " + out
}

// DateTime formats the stored wall-clock time as is. Booking times are kept
// in the business' local time, so no zone conversion is applied.
func (f *Formatter) DateTime(t time.Time, withTime bool) string {
	if !withTime {
		return t.Format(f.dateLayout)
	}
	return t.Format(f.dateLayout + " " + f.timeLayout)
}

func group(digits, sep string) string {
	if sep == "" || len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

var phpLayout = map[rune]string{
	'd': "02",
	'j': "2",
	'm': "01",
	'n': "1",
	'M': "Jan",
	'F': "January",
	'Y': "2006",
	'y': "06",
	'D': "Mon",
	'l': "Monday",
}

// Layout converts a business date format such as "d-m-Y" into a Go time
// layout. Unrecognised characters are kept as separators.
func Layout(format string) string {
	var b strings.Builder
	for _, r := range format {
		if l, ok := phpLayout[r]; ok {
			b.WriteString(l)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
