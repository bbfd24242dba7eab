package reporting

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/platform/db"
)

type Repository interface {
	CountLeads(ctx context.Context, r Range, regionID int64) (int, error)
	CountOrders(ctx context.Context, r Range, regionID int64) (int, error)
	Closed(ctx context.Context, r Range, regionID int64) (ClosedStats, error)
	WorkerCompletions(ctx context.Context, r Range, regionID int64) ([]WorkerCompletions, error)
	RegionDemand(ctx context.Context, r Range) ([]RegionDemand, error)
	TopServices(ctx context.Context, r Range, regionID int64, limit int) ([]ServiceDemand, error)
}

type repository struct {
	db db.DBTX
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) CountLeads(ctx context.Context, rg Range, regionID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM leads WHERE created_at >= $1 AND created_at < $2 AND ($3 = 0 OR region_id = $3)`,
		rg.From, rg.To, regionID).Scan(&n)
	return n, err
}

func (r *repository) CountOrders(ctx context.Context, rg Range, regionID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE created_at >= $1 AND created_at < $2 AND ($3 = 0 OR region_id = $3)`,
		rg.From, rg.To, regionID).Scan(&n)
	return n, err
}

func (r *repository) Closed(ctx context.Context, rg Range, regionID int64) (ClosedStats, error) {
	var s ClosedStats
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(total), 0),
			COALESCE(EXTRACT(EPOCH FROM AVG(completed_at - created_at)), 0)::float8
		FROM orders
		WHERE status = 'CLOSED' AND completed_at >= $1 AND completed_at < $2 AND ($3 = 0 OR region_id = $3)`,
		rg.From, rg.To, regionID).Scan(&s.Count, &s.Revenue, &s.AvgCloseSeconds)
	return s, err
}

func (r *repository) WorkerCompletions(ctx context.Context, rg Range, regionID int64) ([]WorkerCompletions, error) {
	rows, err := r.db.Query(ctx, `
		SELECT w.id, w.name, COUNT(*)
		FROM orders o JOIN workers w ON w.id = o.worker_id
		WHERE o.status = 'CLOSED' AND o.completed_at >= $1 AND o.completed_at < $2 AND ($3 = 0 OR o.region_id = $3)
		GROUP BY w.id, w.name
		ORDER BY COUNT(*) DESC, w.name`,
		rg.From, rg.To, regionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []WorkerCompletions{}
	for rows.Next() {
		var wc WorkerCompletions
		if err := rows.Scan(&wc.WorkerID, &wc.Name, &wc.Completed); err != nil {
			return nil, err
		}
		out = append(out, wc)
	}
	return out, rows.Err()
}

func (r *repository) RegionDemand(ctx context.Context, rg Range) ([]RegionDemand, error) {
	rows, err := r.db.Query(ctx, `
		SELECT region_id, COUNT(*) FROM leads
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY region_id ORDER BY COUNT(*) DESC, region_id`,
		rg.From, rg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []RegionDemand{}
	for rows.Next() {
		var d RegionDemand
		if err := rows.Scan(&d.RegionID, &d.Leads); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *repository) TopServices(ctx context.Context, rg Range, regionID int64, limit int) ([]ServiceDemand, error) {
	rows, err := r.db.Query(ctx, `
		SELECT s.slug, s.name, COUNT(*)
		FROM leads l JOIN service_catalog s ON s.slug = l.service_slug
		WHERE l.created_at >= $1 AND l.created_at < $2 AND ($3 = 0 OR l.region_id = $3)
		GROUP BY s.slug, s.name
		ORDER BY COUNT(*) DESC, s.slug
		LIMIT $4`,
		rg.From, rg.To, regionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ServiceDemand{}
	for rows.Next() {
		var d ServiceDemand
		if err := rows.Scan(&d.Slug, &d.Name, &d.Leads); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
