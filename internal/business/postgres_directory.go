package business

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectProfile = `
SELECT b.id, b.name, COALESCE(b.logo, ''),
COALESCE(cur.symbol, ''), COALESCE(b.currency_symbol_placement, 'before'),
COALESCE(cur.thousand_separator, ','), COALESCE(cur.decimal_separator, '.'), COALESCE(b.currency_precision, 2),
COALESCE(b.date_format, 'm/d/Y'), COALESCE(b.time_format, 24),
COALESCE(b.email_settings, '{}'), COALESCE(b.sms_settings, '{}')
FROM business b
LEFT JOIN currencies cur ON cur.id = b.currency_id
WHERE b.id = $1
`

type PostgresDirectory struct {
	pool *pgxpool.Pool
}

func NewPostgresDirectory(pool *pgxpool.Pool) *PostgresDirectory {
	return &PostgresDirectory{pool: pool}
}

func (d *PostgresDirectory) Profile(ctx context.Context, businessID int64) (Profile, error) {
	var (
		p         Profile
		emailJSON []byte
		smsJSON   []byte
	)
	row := d.pool.QueryRow(ctx, selectProfile, businessID)
	err := row.Scan(&p.ID, &p.Name, &p.Logo,
		&p.Currency.Symbol, &p.Currency.Placement,
		&p.Currency.ThousandSeparator, &p.Currency.DecimalSeparator, &p.Currency.Precision,
		&p.DateFormat, &p.TimeFormat,
		&emailJSON, &smsJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, fmt.Errorf("business %d: %w", businessID, ErrNotFound)
		}
		return Profile{}, fmt.Errorf("select business: %w", err)
	}
	if err := json.Unmarshal(emailJSON, &p.Email); err != nil {
		return Profile{}, fmt.Errorf("decode email settings: %w", err)
	}
	if err := json.Unmarshal(smsJSON, &p.SMS); err != nil {
		return Profile{}, fmt.Errorf("decode sms settings: %w", err)
	}
	return p, nil
}
