package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/pos-notifier/internal/vocabulary"
)

// StoredTemplate is the template a business saved for a notification kind.
type StoredTemplate struct {
	Subject   string `json:"subject"`
	EmailBody string `json:"email_body"`
	SMSBody   string `json:"sms_body"`
}

// TemplateStore is read-only here; editing templates belongs to another
// service. A kind without a saved template yields an empty StoredTemplate.
type TemplateStore interface {
	Template(ctx context.Context, businessID int64, kind vocabulary.Kind) (StoredTemplate, error)
}

const selectTemplate = `
SELECT COALESCE(subject, ''), COALESCE(email_body, ''), COALESCE(sms_body, '')
FROM notification_templates
WHERE business_id = $1 AND template_for = $2
`

type PostgresTemplateStore struct {
	pool *pgxpool.Pool
}

func NewPostgresTemplateStore(pool *pgxpool.Pool) *PostgresTemplateStore {
	return &PostgresTemplateStore{pool: pool}
}

func (s *PostgresTemplateStore) Template(ctx context.Context, businessID int64, kind vocabulary.Kind) (StoredTemplate, error) {
	var t StoredTemplate
	err := s.pool.QueryRow(ctx, selectTemplate, businessID, string(kind)).Scan(&t.Subject, &t.EmailBody, &t.SMSBody)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StoredTemplate{}, nil
		}
		return StoredTemplate{}, fmt.Errorf("select template: %w", err)
	}
	return t, nil
}

type templateKey struct {
	businessID int64
	kind       vocabulary.Kind
}

type MemoryTemplateStore struct {
	mu        sync.RWMutex
	templates map[templateKey]StoredTemplate
}

func NewMemoryTemplateStore() *MemoryTemplateStore {
	return &MemoryTemplateStore{templates: make(map[templateKey]StoredTemplate)}
}

func (s *MemoryTemplateStore) Put(businessID int64, kind vocabulary.Kind, t StoredTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[templateKey{businessID, kind}] = t
}

func (s *MemoryTemplateStore) Template(_ context.Context, businessID int64, kind vocabulary.Kind) (StoredTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.templates[templateKey{businessID, kind}], nil
}
