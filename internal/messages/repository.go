package messages

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/platform/db"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
)

type Repository interface {
	LoadFacts(ctx context.Context, entity string, id int64) (*Facts, error)
	Save(ctx context.Context, m Message) (int64, error)
	List(ctx context.Context, entity string, id int64) ([]Message, error)
}

type repository struct {
	db db.DBTX
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

var factQueries = map[string]string{
	"quote": `
		SELECT q.code, l.customer_name, l.phone, s.name, q.total, q.advance, q.balance, q.currency, q.expires_at, ''
		FROM quotes q
		JOIN leads l ON l.id = q.lead_id
		JOIN service_catalog s ON s.slug = l.service_slug
		WHERE q.id = $1`,
	"order": `
		SELECT o.code, l.customer_name, l.phone, s.name, o.total, o.advance, o.balance, q.currency, NULL::timestamptz, ''
		FROM orders o
		JOIN quotes q ON q.id = o.quote_id
		JOIN leads l ON l.id = o.lead_id
		JOIN service_catalog s ON s.slug = l.service_slug
		WHERE o.id = $1`,
	"warranty": `
		SELECT w.code, l.customer_name, l.phone, s.name, o.total, o.advance, o.balance, q.currency, NULL::timestamptz, o.code
		FROM warranty_cases w
		JOIN orders o ON o.id = w.order_id
		JOIN quotes q ON q.id = o.quote_id
		JOIN leads l ON l.id = o.lead_id
		JOIN service_catalog s ON s.slug = l.service_slug
		WHERE w.id = $1`,
}

func (r *repository) LoadFacts(ctx context.Context, entity string, id int64) (*Facts, error) {
	query, ok := factQueries[entity]
	if !ok {
		return nil, fmt.Errorf("%w: unknown entity %q", shared.ErrValidation, entity)
	}
	var f Facts
	err := r.db.QueryRow(ctx, query, id).Scan(&f.Code, &f.CustomerName, &f.Phone, &f.Service,
		&f.Total, &f.Advance, &f.Balance, &f.Currency, &f.ExpiresAt, &f.OrderCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s %d", shared.ErrNotFound, entity, id)
		}
		return nil, err
	}
	return &f, nil
}

func (r *repository) Save(ctx context.Context, m Message) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO messages (kind, entity, entity_id, phone, body, whatsapp_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		string(m.Kind), m.Entity, m.EntityID, m.Phone, m.Body, m.WhatsAppURL, m.CreatedAt,
	).Scan(&id)
	return id, err
}

func (r *repository) List(ctx context.Context, entity string, id int64) ([]Message, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, kind, entity, entity_id, phone, body, whatsapp_url, created_at
		FROM messages WHERE entity = $1 AND entity_id = $2 ORDER BY created_at DESC, id DESC`, entity, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Kind, &m.Entity, &m.EntityID, &m.Phone, &m.Body, &m.WhatsAppURL, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
