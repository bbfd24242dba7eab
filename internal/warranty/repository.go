package warranty

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/codes"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/platform/db"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
)

type Repository interface {
	codes.Counter
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Case, error)
	GetByCode(ctx context.Context, code string) (*Case, error)
	ListByOrder(ctx context.Context, orderID int64) ([]Case, error)
	Create(ctx context.Context, c Case) (int64, error)
	Transition(ctx context.Context, id int64, from []Status, to Status, upd Update, at time.Time) error
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

const caseColumns = `id, code, order_id, customer_report, photos, status, covered, rejection_reason,
	repair_note, resolution, resolved_at, created_at, updated_at`

func scanCase(row pgx.Row) (*Case, error) {
	var c Case
	err := row.Scan(&c.ID, &c.Code, &c.OrderID, &c.CustomerReport, &c.Photos, &c.Status, &c.Covered,
		&c.RejectionReason, &c.RepairNote, &c.Resolution, &c.ResolvedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Case, error) {
	c, err := scanCase(r.db.QueryRow(ctx, `SELECT `+caseColumns+` FROM warranty_cases WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: warranty case %d", shared.ErrNotFound, id)
	}
	return c, err
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Case, error) {
	c, err := scanCase(r.db.QueryRow(ctx, `SELECT `+caseColumns+` FROM warranty_cases WHERE code = $1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: warranty case %s", shared.ErrNotFound, code)
	}
	return c, err
}

func (r *repository) ListByOrder(ctx context.Context, orderID int64) ([]Case, error) {
	rows, err := r.db.Query(ctx, `SELECT `+caseColumns+` FROM warranty_cases WHERE order_id = $1 ORDER BY created_at DESC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, c Case) (int64, error) {
	if c.Photos == nil {
		c.Photos = []string{}
	}
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO warranty_cases (code, order_id, customer_report, photos, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id`,
		c.Code, c.OrderID, c.CustomerReport, c.Photos, string(c.Status), c.CreatedAt,
	).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err, "warranty_cases_code_key") {
			return 0, fmt.Errorf("%w: warranty code %s already issued", shared.ErrConflict, c.Code)
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) Transition(ctx context.Context, id int64, from []Status, to Status, upd Update, at time.Time) error {
	states := make([]string, len(from))
	for i, s := range from {
		states[i] = string(s)
	}
	var previous string
	err := r.db.QueryRow(ctx, `
		UPDATE warranty_cases w SET
			status = $2,
			updated_at = $3,
			covered = COALESCE($4, w.covered),
			rejection_reason = COALESCE($5, w.rejection_reason),
			repair_note = COALESCE($6, w.repair_note),
			resolution = COALESCE($7, w.resolution),
			resolved_at = COALESCE($8, w.resolved_at)
		FROM (SELECT id, status FROM warranty_cases WHERE id = $1 FOR UPDATE) prev
		WHERE w.id = prev.id AND prev.status = ANY($9)
		RETURNING prev.status`,
		id, string(to), at, upd.Covered, upd.RejectionReason, upd.RepairNote, upd.Resolution, upd.ResolvedAt, states,
	).Scan(&previous)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: warranty case %d cannot move to %s", shared.ErrInvalidState, id, to)
		}
		return err
	}
	return r.Audit(ctx, shared.AuditLog{
		Action: "warranty.status", Entity: "warranty", EntityID: id, From: previous, To: string(to), At: at,
	})
}

func (r *repository) Audit(ctx context.Context, log shared.AuditLog) error {
	return shared.NewAuditLogger(r.db).Record(ctx, log)
}

// CountCreated ignores the region: warranty codes are numbered globally.
func (r *repository) CountCreated(ctx context.Context, _ codes.Scope, from, to time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM warranty_cases WHERE created_at >= $1 AND created_at < $2`, from, to,
	).Scan(&n)
	return n, err
}
