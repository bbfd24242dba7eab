package leads

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
	Get(ctx context.Context, id int64) (*Lead, error)
	List(ctx context.Context, req ListLeadsRequest) ([]Lead, int, error)
	Create(ctx context.Context, lead Lead) (int64, error)
	Advance(ctx context.Context, id int64, to Status) (bool, error)
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

const leadColumns = `id, code, region_id, service_slug, customer_name, phone, email, address, sector,
	description, urgent, source, status, created_at, updated_at`

func scanLead(row pgx.Row) (*Lead, error) {
	var l Lead
	err := row.Scan(&l.ID, &l.Code, &l.RegionID, &l.ServiceSlug, &l.CustomerName, &l.Phone, &l.Email,
		&l.Address, &l.Sector, &l.Description, &l.Urgent, &l.Source, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Lead, error) {
	l, err := scanLead(r.db.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: lead %d", shared.ErrNotFound, id)
		}
		return nil, err
	}
	return l, nil
}

func (r *repository) List(ctx context.Context, req ListLeadsRequest) ([]Lead, int, error) {
	var status *string
	if req.Status != nil {
		s := string(*req.Status)
		status = &s
	}
	const where = `WHERE ($1 = 0 OR region_id = $1) AND ($2::text IS NULL OR status = $2)`

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM leads `+where, req.RegionID, status).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(req.Page, req.PerPage, total)
	rows, err := r.db.Query(ctx,
		`SELECT `+leadColumns+` FROM leads `+where+` ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4`,
		req.RegionID, status, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *l)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, l Lead) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO leads (code, region_id, service_slug, customer_name, phone, email, address, sector,
			description, urgent, source, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		RETURNING id`,
		l.Code, l.RegionID, l.ServiceSlug, l.CustomerName, l.Phone, l.Email, l.Address, l.Sector,
		l.Description, l.Urgent, l.Source, l.Status, l.CreatedAt,
	).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err, "leads_region_code_key") {
			return 0, fmt.Errorf("%w: lead code %s already issued", shared.ErrConflict, l.Code)
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) Advance(ctx context.Context, id int64, to Status) (bool, error) {
	return AdvanceStatus(ctx, r.db, id, to)
}

func (r *repository) CountCreated(ctx context.Context, scope codes.Scope, from, to time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM leads WHERE ($1 = 0 OR region_id = $1) AND created_at >= $2 AND created_at < $3`,
		scope.RegionID, from, to,
	).Scan(&n)
	return n, err
}

// AdvanceStatus moves a lead forward to status to. It is a no-op returning
// false when the lead is already at or past to. Other lifecycle repositories
// call it with their transaction so the lead moves atomically with them.
func AdvanceStatus(ctx context.Context, conn db.DBTX, id int64, to Status) (bool, error) {
	if !to.Valid() {
		return false, fmt.Errorf("%w: unknown lead status %q", shared.ErrValidation, to)
	}
	earlier := Before(to)
	from := make([]string, 0, len(earlier))
	for _, s := range earlier {
		from = append(from, string(s))
	}
	var previous string
	err := conn.QueryRow(ctx, `
		UPDATE leads l SET status = $2, updated_at = NOW()
		FROM (SELECT id, status FROM leads WHERE id = $1 FOR UPDATE) prev
		WHERE l.id = prev.id AND prev.status = ANY($3)
		RETURNING prev.status`,
		id, string(to), from,
	).Scan(&previous)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	if err := shared.NewAuditLogger(conn).Record(ctx, shared.AuditLog{
		Action: "lead.advance", Entity: "lead", EntityID: id, From: previous, To: string(to),
	}); err != nil {
		return false, fmt.Errorf("audit lead transition: %w", err)
	}
	return true, nil
}
