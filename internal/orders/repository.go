package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/codes"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/leads"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/platform/db"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/quotes"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
)

type Repository interface {
	codes.Counter
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Order, error)
	GetByCode(ctx context.Context, regionID int64, code string) (*Order, error)
	List(ctx context.Context, req ListOrdersRequest) ([]Order, int, error)
	LockQuote(ctx context.Context, quoteID int64) (*SourceQuote, error)
	FindByQuote(ctx context.Context, quoteID int64) (*Order, error)
	Create(ctx context.Context, o Order) (int64, error)
	ConvertQuote(ctx context.Context, quoteID int64, at time.Time) error
	AdvanceLead(ctx context.Context, leadID int64, to leads.Status) (bool, error)
	SetWorker(ctx context.Context, id int64, workerID *int64, workerCost, margin decimal.Decimal, at time.Time) error
	SetPhotos(ctx context.Context, id int64, category PhotoCategory, urls []string, at time.Time) error
	Apply(ctx context.Context, id int64, change Change) error
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

const orderColumns = `id, code, region_id, quote_id, lead_id, worker_id, total, advance, balance, worker_cost,
	margin, status, scheduled_for, started_at, completed_at, cancelled_at, cancel_reason,
	photos_before, photos_during, photos_after, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.Code, &o.RegionID, &o.QuoteID, &o.LeadID, &o.WorkerID, &o.Total, &o.Advance,
		&o.Balance, &o.WorkerCost, &o.Margin, &o.Status, &o.ScheduledFor, &o.StartedAt, &o.CompletedAt,
		&o.CancelledAt, &o.CancelReason, &o.PhotosBefore, &o.PhotosDuring, &o.PhotosAfter, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: order %d", shared.ErrNotFound, id)
	}
	return o, err
}

// Order codes are sequenced per region, so a code alone is ambiguous.
func (r *repository) GetByCode(ctx context.Context, regionID int64, code string) (*Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE region_id = $1 AND code = $2`, regionID, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: order %s", shared.ErrNotFound, code)
	}
	return o, err
}

func (r *repository) List(ctx context.Context, req ListOrdersRequest) ([]Order, int, error) {
	var status *string
	if req.Status != nil {
		s := string(*req.Status)
		status = &s
	}
	const where = `WHERE ($1 = 0 OR region_id = $1) AND ($2 = 0 OR worker_id = $2) AND ($3::text IS NULL OR status = $3)`

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders `+where, req.RegionID, req.WorkerID, status).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(req.Page, req.PerPage, total)
	rows, err := r.db.Query(ctx,
		`SELECT `+orderColumns+` FROM orders `+where+` ORDER BY created_at DESC, id DESC LIMIT $4 OFFSET $5`,
		req.RegionID, req.WorkerID, status, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *o)
	}
	return out, total, rows.Err()
}

func (r *repository) LockQuote(ctx context.Context, quoteID int64) (*SourceQuote, error) {
	var q SourceQuote
	err := r.db.QueryRow(ctx, `
		SELECT id, code, region_id, lead_id, status, total, advance, balance
		FROM quotes WHERE id = $1 FOR UPDATE`, quoteID,
	).Scan(&q.ID, &q.Code, &q.RegionID, &q.LeadID, &q.Status, &q.Total, &q.Advance, &q.Balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: quote %d", shared.ErrNotFound, quoteID)
		}
		return nil, err
	}
	return &q, nil
}

func (r *repository) FindByQuote(ctx context.Context, quoteID int64) (*Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE quote_id = $1`, quoteID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return o, err
}

func (r *repository) Create(ctx context.Context, o Order) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO orders (code, region_id, quote_id, lead_id, worker_id, total, advance, balance, worker_cost,
			margin, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		RETURNING id`,
		o.Code, o.RegionID, o.QuoteID, o.LeadID, o.WorkerID, o.Total, o.Advance, o.Balance, o.WorkerCost,
		o.Margin, string(o.Status), o.CreatedAt,
	).Scan(&id)
	if err != nil {
		switch {
		case db.IsUniqueViolation(err, "orders_quote_id_key"):
			return 0, fmt.Errorf("%w: quote %d already has an order", shared.ErrConflict, o.QuoteID)
		case db.IsUniqueViolation(err, "orders_region_code_key"):
			return 0, fmt.Errorf("%w: order code %s already issued", shared.ErrConflict, o.Code)
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) ConvertQuote(ctx context.Context, quoteID int64, at time.Time) error {
	return quotes.MarkConverted(ctx, r.db, quoteID, at)
}

func (r *repository) AdvanceLead(ctx context.Context, leadID int64, to leads.Status) (bool, error) {
	return leads.AdvanceStatus(ctx, r.db, leadID, to)
}

func (r *repository) SetWorker(ctx context.Context, id int64, workerID *int64, workerCost, margin decimal.Decimal, at time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE orders SET worker_id = $2, worker_cost = $3, margin = $4, updated_at = $5
		WHERE id = $1 AND status <> ALL($6)`,
		id, workerID, workerCost, margin, at, []string{string(StatusClosed), string(StatusCancelled)})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: order %d is closed or cancelled", shared.ErrInvalidState, id)
	}
	return nil
}

func (r *repository) SetPhotos(ctx context.Context, id int64, category PhotoCategory, urls []string, at time.Time) error {
	if !category.Valid() {
		return fmt.Errorf("%w: unknown photo category %q", shared.ErrValidation, category)
	}
	if urls == nil {
		urls = []string{}
	}
	// column comes from a closed set, never from input
	tag, err := r.db.Exec(ctx,
		`UPDATE orders SET `+category.column()+` = $2, updated_at = $3 WHERE id = $1 AND status <> $4`,
		id, urls, at, string(StatusCancelled))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: order %d is cancelled", shared.ErrInvalidState, id)
	}
	return nil
}

func (r *repository) Apply(ctx context.Context, id int64, change Change) error {
	return Apply(ctx, r.db, id, change)
}

func (r *repository) Audit(ctx context.Context, log shared.AuditLog) error {
	return shared.NewAuditLogger(r.db).Record(ctx, log)
}

func (r *repository) CountCreated(ctx context.Context, scope codes.Scope, from, to time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE ($1 = 0 OR region_id = $1) AND created_at >= $2 AND created_at < $3`,
		scope.RegionID, from, to,
	).Scan(&n)
	return n, err
}

// Lock loads the order and holds its row lock until the caller's transaction ends.
func Lock(ctx context.Context, conn db.DBTX, id int64) (*Order, error) {
	o, err := scanOrder(conn.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: order %d", shared.ErrNotFound, id)
	}
	return o, err
}

// Apply moves the order to change.To when its current status is one of
// change.From, stamping the timestamp that belongs to the target status.
// Payments call it with their own transaction.
func Apply(ctx context.Context, conn db.DBTX, id int64, change Change) error {
	from := make([]string, len(change.From))
	for i, s := range change.From {
		from[i] = string(s)
	}
	var previous string
	err := conn.QueryRow(ctx, `
		UPDATE orders o SET
			status = $2::text,
			updated_at = $3,
			scheduled_for = COALESCE($4, o.scheduled_for),
			started_at = CASE WHEN $2::text = 'IN_PROGRESS' THEN $3 ELSE o.started_at END,
			completed_at = CASE WHEN $2::text = 'CLOSED' THEN $3 ELSE o.completed_at END,
			cancelled_at = CASE WHEN $2::text = 'CANCELLED' THEN $3 ELSE o.cancelled_at END,
			cancel_reason = COALESCE($5, o.cancel_reason)
		FROM (SELECT id, status FROM orders WHERE id = $1 FOR UPDATE) prev
		WHERE o.id = prev.id AND prev.status = ANY($6)
		RETURNING prev.status`,
		id, string(change.To), change.At, change.ScheduledFor, change.Reason, from,
	).Scan(&previous)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: order %d cannot move to %s", shared.ErrInvalidState, id, change.To)
		}
		return err
	}
	return shared.NewAuditLogger(conn).Record(ctx, shared.AuditLog{
		Action: "order.status", Entity: "order", EntityID: id, From: previous, To: string(change.To), At: change.At,
	})
}
