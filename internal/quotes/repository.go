package quotes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/codes"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/leads"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/platform/db"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
)

type Repository interface {
	codes.Counter
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Quote, error)
	ListByLead(ctx context.Context, leadID int64) ([]Quote, error)
	ListExpirable(ctx context.Context, now time.Time, limit int) ([]int64, error)
	Create(ctx context.Context, q Quote) (int64, error)
	InsertItem(ctx context.Context, item Item) (int64, error)
	Transition(ctx context.Context, id int64, from, to Status, at time.Time, reason *string) error
	AdvanceLead(ctx context.Context, leadID int64, to leads.Status) (bool, error)
	Audit(ctx context.Context, log shared.AuditLog) error
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const quoteColumns = `id, code, region_id, lead_id, apply_tax, tax_rate, advance_rate, subtotal, tax, total,
	advance, balance, currency, validity_days, expires_at, notes, status, sent_at, approved_at,
	rejected_at, rejection_reason, expired_at, created_at, updated_at`

func scanQuote(row pgx.Row) (*Quote, error) {
	var q Quote
	err := row.Scan(&q.ID, &q.Code, &q.RegionID, &q.LeadID, &q.ApplyTax, &q.TaxRate, &q.AdvanceRate,
		&q.Subtotal, &q.Tax, &q.Total, &q.Advance, &q.Balance, &q.Currency, &q.ValidityDays, &q.ExpiresAt,
		&q.Notes, &q.Status, &q.SentAt, &q.ApprovedAt, &q.RejectedAt, &q.RejectionReason, &q.ExpiredAt,
		&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Quote, error) {
	q, err := scanQuote(r.db.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: quote %d", shared.ErrNotFound, id)
		}
		return nil, err
	}
	items, err := r.items(ctx, id)
	if err != nil {
		return nil, err
	}
	q.Items = items
	return q, nil
}

func (r *repository) items(ctx context.Context, quoteID int64) ([]Item, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, quote_id, position, description, quantity, unit_price, line_total
		FROM quote_items WHERE quote_id = $1 ORDER BY position`, quoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.QuoteID, &it.Position, &it.Description, &it.Quantity, &it.UnitPrice, &it.LineTotal); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *repository) ListByLead(ctx context.Context, leadID int64) ([]Quote, error) {
	rows, err := r.db.Query(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE lead_id = $1 ORDER BY created_at DESC`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

func (r *repository) ListExpirable(ctx context.Context, now time.Time, limit int) ([]int64, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id FROM quotes WHERE status = $1 AND expires_at < $2 ORDER BY expires_at LIMIT $3`,
		string(StatusSent), now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *repository) Create(ctx context.Context, q Quote) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO quotes (code, region_id, lead_id, apply_tax, tax_rate, advance_rate, subtotal, tax, total,
			advance, balance, currency, validity_days, expires_at, notes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $17)
		RETURNING id`,
		q.Code, q.RegionID, q.LeadID, q.ApplyTax, q.TaxRate, q.AdvanceRate, q.Subtotal, q.Tax, q.Total,
		q.Advance, q.Balance, q.Currency, q.ValidityDays, q.ExpiresAt, q.Notes, string(q.Status), q.CreatedAt,
	).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err, "quotes_region_code_key") {
			return 0, fmt.Errorf("%w: quote code %s already issued", shared.ErrConflict, q.Code)
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) InsertItem(ctx context.Context, it Item) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO quote_items (quote_id, position, description, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		it.QuoteID, it.Position, it.Description, it.Quantity, it.UnitPrice, it.LineTotal,
	).Scan(&id)
	return id, err
}

func (r *repository) Transition(ctx context.Context, id int64, from, to Status, at time.Time, reason *string) error {
	return transition(ctx, r.db, id, from, to, at, reason)
}

func (r *repository) AdvanceLead(ctx context.Context, leadID int64, to leads.Status) (bool, error) {
	return leads.AdvanceStatus(ctx, r.db, leadID, to)
}

func (r *repository) Audit(ctx context.Context, log shared.AuditLog) error {
	return shared.NewAuditLogger(r.db).Record(ctx, log)
}

func (r *repository) CountCreated(ctx context.Context, scope codes.Scope, from, to time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM quotes WHERE ($1 = 0 OR region_id = $1) AND created_at >= $2 AND created_at < $3`,
		scope.RegionID, from, to,
	).Scan(&n)
	return n, err
}

// transition performs a compare-and-set on the quote status and stamps the
// timestamp matching the target status.
func transition(ctx context.Context, conn db.DBTX, id int64, from, to Status, at time.Time, reason *string) error {
	tag, err := conn.Exec(ctx, `
		UPDATE quotes SET
			status = $3,
			updated_at = $4,
			sent_at = CASE WHEN $3 = 'SENT' THEN $4 ELSE sent_at END,
			approved_at = CASE WHEN $3 = 'APPROVED' THEN $4 ELSE approved_at END,
			rejected_at = CASE WHEN $3 = 'REJECTED' THEN $4 ELSE rejected_at END,
			expired_at = CASE WHEN $3 = 'EXPIRED' THEN $4 ELSE expired_at END,
			rejection_reason = COALESCE($5, rejection_reason)
		WHERE id = $1 AND status = $2`,
		id, string(from), string(to), at, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: quote %d is no longer %s", shared.ErrInvalidState, id, from)
	}
	return nil
}

// MarkConverted moves an APPROVED quote to CONVERTED using the caller's transaction.
func MarkConverted(ctx context.Context, conn db.DBTX, id int64, at time.Time) error {
	if err := transition(ctx, conn, id, StatusApproved, StatusConverted, at, nil); err != nil {
		return err
	}
	return shared.NewAuditLogger(conn).Record(ctx, shared.AuditLog{
		Action: "quote.convert", Entity: "quote", EntityID: id,
		From: string(StatusApproved), To: string(StatusConverted), At: at,
	})
}
