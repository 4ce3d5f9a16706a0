package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/pos-notifier/internal/business"
	"github.com/example/pos-notifier/internal/render"
	"github.com/example/pos-notifier/internal/vocabulary"
)

var (
	ErrUnknownChannel   = errors.New("unknown channel selection")
	ErrMissingEmail     = errors.New("destination email is required")
	ErrMissingPhone     = errors.New("destination phone is required")
	ErrSMSNotConfigured = errors.New("sms settings are not configured")
	ErrTransport        = errors.New("transport failure")
)

// Channel is the caller's channel selection.
type Channel string

const (
	ChannelEmailOnly Channel = "email_only"
	ChannelSMSOnly   Channel = "sms_only"
	ChannelBoth      Channel = "both"
)

func ParseChannel(s string) (Channel, error) {
	switch c := Channel(s); c {
	case ChannelEmailOnly, ChannelSMSOnly, ChannelBoth:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownChannel, s)
	}
}

// Medium is a single delivery medium.
type Medium string

const (
	MediumEmail Medium = "email"
	MediumSMS   Medium = "sms"
)

func mediaFor(c Channel) []Medium {
	switch c {
	case ChannelEmailOnly:
		return []Medium{MediumEmail}
	case ChannelSMSOnly:
		return []Medium{MediumSMS}
	case ChannelBoth:
		return []Medium{MediumEmail, MediumSMS}
	default:
		return nil
	}
}

type Destination struct {
	Email string
	Phone string
}

type Settings struct {
	Email business.EmailSettings
	SMS   business.SMSSettings
}

type Email struct {
	To           string
	Subject      string
	Body         string
	Presentation vocabulary.MessageType
}

type EmailTransport interface {
	SendEmail(ctx context.Context, settings business.EmailSettings, msg Email) error
}

type SMSTransport interface {
	SendSMS(ctx context.Context, settings business.SMSSettings, phone, body string) error
}

type Request struct {
	DispatchID  string
	Message     render.Message
	MessageType vocabulary.MessageType
	Channel     Channel
	To          Destination
	Settings    Settings
}

type Outcome struct {
	Medium    Medium `json:"channel"`
	Attempted bool   `json:"attempted"`
	Succeeded bool   `json:"succeeded"`
	Error     string `json:"error,omitempty"`
	Err       error  `json:"-"`
}

type Report struct {
	Channel  Channel
	Outcomes []Outcome
}

// Success is true only when every selected medium was delivered.
func (r Report) Success() bool {
	if len(r.Outcomes) == 0 {
		return false
	}
	for _, o := range r.Outcomes {
		if !o.Succeeded {
			return false
		}
	}
	return true
}

// Partial is true when at least one medium succeeded and another failed.
func (r Report) Partial() bool {
	ok, failed := 0, 0
	for _, o := range r.Outcomes {
		if o.Succeeded {
			ok++
		} else {
			failed++
		}
	}
	return ok > 0 && failed > 0
}

func (r Report) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.Succeeded {
			out = append(out, o)
		}
	}
	return out
}

func (r Report) Err() error {
	var errs []error
	for _, o := range r.Outcomes {
		if o.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", o.Medium, o.Err))
		}
	}
	return errors.Join(errs...)
}
