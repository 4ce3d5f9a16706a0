package email

import (
	"context"

	"github.com/example/pos-notifier/internal/business"
)

// Envelope is a fully laid out email ready for a provider.
type Envelope struct {
	FromAddress string
	FromName    string
	To          string
	Subject     string
	HTML        string
}

type Provider interface {
	Name() string
	Send(ctx context.Context, settings business.EmailSettings, env Envelope) error
}

// PermanentError marks a rejection that the provider will repeat for the same
// request, such as a 4xx response.
type PermanentError struct {
	Provider string
	Status   string
}

func (e *PermanentError) Error() string {
	return e.Provider + " permanent error: " + e.Status
}
