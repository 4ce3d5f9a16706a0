package notify

import (
	"context"
	"fmt"

	"github.com/example/pos-notifier/internal/vocabulary"
)

// Preview is what a template editor needs before a send: the kind's name and
// tag vocabulary, the stored template, and the record's contact details to
// prefill destinations.
type Preview struct {
	Kind        vocabulary.Kind `json:"template_for"`
	Name        string          `json:"template_name"`
	MessageType string          `json:"message_type"`
	Tags        []string        `json:"tags"`
	Template    StoredTemplate  `json:"template"`
	ContactName string          `json:"contact_name"`
	ToEmail     string          `json:"to_email"`
	Phone       string          `json:"mobile_number"`
}

// Template loads the preview for a record. Unlike SendNotification it returns
// typed errors (vocabulary.ErrUnknownKind, record.ErrNotFound) so callers can
// map them to their own responses.
func (s *Service) Template(ctx context.Context, kind vocabulary.Kind, recordID, businessID int64) (Preview, error) {
	entry, err := s.classifier.Classify(kind)
	if err != nil {
		return Preview{}, err
	}
	_, snap, err := s.resolver.Resolve(ctx, entry, recordID, businessID)
	if err != nil {
		return Preview{}, err
	}
	tpl, err := s.templates.Template(ctx, businessID, kind)
	if err != nil {
		return Preview{}, fmt.Errorf("load template: %w", err)
	}
	return Preview{
		Kind:        entry.Kind,
		Name:        entry.Name,
		MessageType: entry.MessageType.String(),
		Tags:        append([]string(nil), entry.Tags...),
		Template:    tpl,
		ContactName: snap.Contact.Name,
		ToEmail:     snap.Contact.Email,
		Phone:       snap.Contact.Mobile,
	}, nil
}
