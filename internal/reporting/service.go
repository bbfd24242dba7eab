package reporting

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/regions"
)

const topServicesLimit = 5

// RegionResolver names the regions that appear in demand counts.
type RegionResolver interface {
	Get(id int64) (regions.Region, error)
}

type Service struct {
	repo    Repository
	regions RegionResolver
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(repo Repository, regions RegionResolver, logger *slog.Logger) *Service {
	return &Service{repo: repo, regions: regions, logger: logger, now: time.Now}
}

// WithClock overrides the clock used to resolve periods.
func (s *Service) WithClock(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Dashboard aggregates activity for period in the region's time zone.
// A zero regionID in scope covers every region.
func (s *Service) Dashboard(ctx context.Context, region regions.Region, period string, allRegions bool) (*Summary, error) {
	rg, err := ParsePeriod(period, s.now(), region.Location())
	if err != nil {
		return nil, err
	}
	var scope int64
	if !allRegions {
		scope = region.ID
	}

	out := &Summary{Range: rg, RegionID: scope}
	var closed ClosedStats

	started := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.repo.CountLeads(gctx, rg, scope)
		out.Leads = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountOrders(gctx, rg, scope)
		out.Orders = n
		return err
	})
	g.Go(func() error {
		stats, err := s.repo.Closed(gctx, rg, scope)
		closed = stats
		return err
	})
	g.Go(func() error {
		list, err := s.repo.WorkerCompletions(gctx, rg, scope)
		out.Workers = list
		return err
	})
	g.Go(func() error {
		list, err := s.repo.RegionDemand(gctx, rg)
		out.Regions = list
		return err
	})
	g.Go(func() error {
		list, err := s.repo.TopServices(gctx, rg, scope, topServicesLimit)
		out.TopServices = list
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.logger.Debug("dashboard built",
		slog.String("period", rg.Period),
		slog.Int64("region_id", scope),
		slog.Duration("elapsed", time.Since(started)))

	out.ClosedOrders = closed.Count
	out.Revenue = closed.Revenue.Round(2)
	out.AvgCloseHours = decimal.NewFromFloat(closed.AvgCloseSeconds / 3600).Round(1)
	out.ConversionRate = ConversionRate(out.Orders, out.Leads)
	for i := range out.Regions {
		if r, err := s.regions.Get(out.Regions[i].RegionID); err == nil {
			out.Regions[i].Code = r.Code
			out.Regions[i].Name = r.Name
		}
	}
	return out, nil
}

// ConversionRate is orders per hundred leads, rounded to one decimal.
func ConversionRate(orders, leads int) decimal.Decimal {
	if leads == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(orders)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(leads))).
		Round(1)
}
