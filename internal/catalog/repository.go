package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/platform/db"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
)

// Repository reads and writes catalog offerings.
type Repository interface {
	GetBySlug(ctx context.Context, slug string) (*Offering, error)
	List(ctx context.Context, activeOnly bool) ([]Offering, error)
	Create(ctx context.Context, svc Offering) (int64, error)
	Update(ctx context.Context, svc Offering) error
}

type repository struct {
	db db.DBTX
}

// NewRepository builds a pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const serviceColumns = `id, slug, name, description, base_price, active, created_at`

func scanOffering(row pgx.Row) (*Offering, error) {
	var s Offering
	if err := row.Scan(&s.ID, &s.Slug, &s.Name, &s.Description, &s.BasePrice, &s.Active, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (*Offering, error) {
	s, err := scanOffering(r.db.QueryRow(ctx, `SELECT `+serviceColumns+` FROM service_catalog WHERE slug = $1`, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: service %q", shared.ErrNotFound, slug)
		}
		return nil, err
	}
	return s, nil
}

func (r *repository) List(ctx context.Context, activeOnly bool) ([]Offering, error) {
	rows, err := r.db.Query(ctx, `SELECT `+serviceColumns+` FROM service_catalog WHERE ($1 = FALSE OR active) ORDER BY name`, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Offering
	for rows.Next() {
		s, err := scanOffering(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, svc Offering) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO service_catalog (slug, name, description, base_price, active) VALUES ($1, $2, $3, $4, TRUE) RETURNING id`,
		svc.Slug, svc.Name, svc.Description, svc.BasePrice,
	).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return 0, fmt.Errorf("%w: service %q already exists", shared.ErrConflict, svc.Slug)
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, svc Offering) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE service_catalog SET name = $2, description = $3, base_price = $4, active = $5 WHERE slug = $1`,
		svc.Slug, svc.Name, svc.Description, svc.BasePrice, svc.Active,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: service %q", shared.ErrNotFound, svc.Slug)
	}
	return nil
}
