package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/orders"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/platform/db"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
)

const idempotencyModule = "payments"

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	LockOrder(ctx context.Context, orderID int64) (*orders.Order, error)
	ApplyOrder(ctx context.Context, orderID int64, change orders.Change) error
	ClaimKey(ctx context.Context, key string) error
	Create(ctx context.Context, p Payment) (int64, error)
	Get(ctx context.Context, id int64) (*Payment, error)
	MarkValidated(ctx context.Context, id int64, by string, at time.Time) error
	ListByOrder(ctx context.Context, orderID int64) ([]Payment, error)
	CreatePayout(ctx context.Context, p Payout) (int64, error)
	ListPayouts(ctx context.Context, workerID int64) ([]Payout, error)
	WorkerBalance(ctx context.Context, workerID int64) (WorkerBalance, error)
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

func (r *repository) LockOrder(ctx context.Context, orderID int64) (*orders.Order, error) {
	return orders.Lock(ctx, r.db, orderID)
}

func (r *repository) ApplyOrder(ctx context.Context, orderID int64, change orders.Change) error {
	return orders.Apply(ctx, r.db, orderID, change)
}

func (r *repository) ClaimKey(ctx context.Context, key string) error {
	return shared.NewIdempotencyStore(r.db).CheckAndInsert(ctx, key, idempotencyModule)
}

const paymentColumns = `id, order_id, type, method, amount, reference, receipt_url, source, validated,
	validated_by, validated_at, paid_at, created_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.OrderID, &p.Type, &p.Method, &p.Amount, &p.Reference, &p.ReceiptURL, &p.Source,
		&p.Validated, &p.ValidatedBy, &p.ValidatedAt, &p.PaidAt, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) Create(ctx context.Context, p Payment) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO payments (order_id, type, method, amount, reference, receipt_url, source, validated,
			validated_by, validated_at, paid_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		p.OrderID, string(p.Type), p.Method, p.Amount, p.Reference, p.ReceiptURL, string(p.Source), p.Validated,
		p.ValidatedBy, p.ValidatedAt, p.PaidAt, p.CreatedAt,
	).Scan(&id)
	return id, err
}

func (r *repository) Get(ctx context.Context, id int64) (*Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: payment %d", shared.ErrNotFound, id)
	}
	return p, err
}

func (r *repository) MarkValidated(ctx context.Context, id int64, by string, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE payments SET validated = TRUE, validated_by = $2, validated_at = $3 WHERE id = $1 AND NOT validated`,
		id, by, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: payment %d already validated", shared.ErrInvalidState, id)
	}
	return nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID int64) ([]Payment, error) {
	rows, err := r.db.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_id = $1 ORDER BY paid_at, id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *repository) CreatePayout(ctx context.Context, p Payout) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO worker_payouts (worker_id, order_id, amount, method, notes, paid_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		p.WorkerID, p.OrderID, p.Amount, p.Method, p.Notes, p.PaidAt, p.CreatedAt,
	).Scan(&id)
	return id, err
}

func (r *repository) ListPayouts(ctx context.Context, workerID int64) ([]Payout, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, worker_id, order_id, amount, method, notes, paid_at, created_at
		FROM worker_payouts WHERE worker_id = $1 ORDER BY paid_at DESC, id DESC`, workerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payout
	for rows.Next() {
		var p Payout
		if err := rows.Scan(&p.ID, &p.WorkerID, &p.OrderID, &p.Amount, &p.Method, &p.Notes, &p.PaidAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) WorkerBalance(ctx context.Context, workerID int64) (WorkerBalance, error) {
	b := WorkerBalance{WorkerID: workerID}
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COALESCE(SUM(worker_cost), 0) FROM orders WHERE worker_id = $1 AND status = $2),
			(SELECT COALESCE(SUM(amount), 0) FROM worker_payouts WHERE worker_id = $1)`,
		workerID, string(orders.StatusClosed),
	).Scan(&b.Earned, &b.Paid)
	if err != nil {
		return WorkerBalance{}, err
	}
	b.Pending = b.Earned.Sub(b.Paid)
	return b, nil
}

func (r *repository) Audit(ctx context.Context, log shared.AuditLog) error {
	return shared.NewAuditLogger(r.db).Record(ctx, log)
}
