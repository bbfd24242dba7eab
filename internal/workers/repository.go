package workers

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
	Get(ctx context.Context, id int64) (*Worker, error)
	List(ctx context.Context, activeOnly bool) ([]Worker, error)
	Create(ctx context.Context, w Worker) (int64, error)
	Update(ctx context.Context, w Worker) error
}

type repository struct {
	db db.DBTX
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) Get(ctx context.Context, id int64) (*Worker, error) {
	var w Worker
	err := r.db.QueryRow(ctx,
		`SELECT id, name, phone, specialty, active, created_at FROM workers WHERE id = $1`, id,
	).Scan(&w.ID, &w.Name, &w.Phone, &w.Specialty, &w.Active, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: worker %d", shared.ErrNotFound, id)
		}
		return nil, err
	}
	return &w, nil
}

func (r *repository) List(ctx context.Context, activeOnly bool) ([]Worker, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, phone, specialty, active, created_at FROM workers WHERE ($1 = FALSE OR active) ORDER BY name`, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Worker
	for rows.Next() {
		var w Worker
		if err := rows.Scan(&w.ID, &w.Name, &w.Phone, &w.Specialty, &w.Active, &w.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, w Worker) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO workers (name, phone, specialty, active) VALUES ($1, $2, $3, TRUE) RETURNING id`,
		w.Name, w.Phone, w.Specialty,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, w Worker) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE workers SET name = $2, phone = $3, specialty = $4, active = $5 WHERE id = $1`,
		w.ID, w.Name, w.Phone, w.Specialty, w.Active,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: worker %d", shared.ErrNotFound, w.ID)
	}
	return nil
}
