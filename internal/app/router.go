package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/catalog"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/leads"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/messages"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/observability"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/orders"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/payments"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/platform/httpx"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/quotes"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/regions"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/reporting"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/warranty"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/workers"
	"github.com/nippon-flex/servicios-rapidos-ec/jobs"
)

// HealthCheck probes one backing service.
type HealthCheck func(ctx context.Context) error

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Regions *regions.Registry
	Metrics *observability.Metrics
	Health  map[string]HealthCheck

	CatalogHandler   *catalog.Handler
	WorkersHandler   *workers.Handler
	LeadsHandler     *leads.Handler
	QuotesHandler    *quotes.Handler
	OrdersHandler    *orders.Handler
	PaymentsHandler  *payments.Handler
	WarrantyHandler  *warranty.Handler
	MessagesHandler  *messages.Handler
	ReportingHandler *reporting.Handler
	JobHandler       *jobs.Handler
}

// NewRouter constructs the chi.Router with the API defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", healthHandler(params.Health))
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Group(func(r chi.Router) {
		if params.Regions != nil {
			r.Use(params.Regions.Middleware)
		}
		if params.CatalogHandler != nil {
			r.Route("/services", params.CatalogHandler.MountRoutes)
		}
		if params.WorkersHandler != nil {
			r.Route("/workers", func(r chi.Router) {
				params.WorkersHandler.MountRoutes(r)
				if params.PaymentsHandler != nil {
					params.PaymentsHandler.MountWorkerRoutes(r)
				}
			})
		}
		if params.LeadsHandler != nil {
			r.Route("/leads", params.LeadsHandler.MountRoutes)
		}
		if params.QuotesHandler != nil {
			r.Route("/quotes", params.QuotesHandler.MountRoutes)
		}
		if params.OrdersHandler != nil {
			r.Route("/orders", params.OrdersHandler.MountRoutes)
		}
		if params.PaymentsHandler != nil {
			r.Route("/payments", params.PaymentsHandler.MountRoutes)
			r.Route("/payouts", params.PaymentsHandler.MountPayoutRoutes)
		}
		if params.WarrantyHandler != nil {
			r.Route("/warranty", params.WarrantyHandler.MountRoutes)
		}
		if params.MessagesHandler != nil {
			r.Route("/messages", params.MessagesHandler.MountRoutes)
		}
		if params.ReportingHandler != nil {
			r.Route("/reports", params.ReportingHandler.MountRoutes)
		}

		r.Route("/public", func(r chi.Router) {
			r.Use(PublicRateLimit(params.Config))
			if params.CatalogHandler != nil {
				r.Get("/services", params.CatalogHandler.List)
			}
			if params.LeadsHandler != nil {
				params.LeadsHandler.MountPublicRoutes(r)
			}
			if params.PaymentsHandler != nil {
				params.PaymentsHandler.MountPublicRoutes(r)
			}
			if params.WarrantyHandler != nil {
				params.WarrantyHandler.MountPublicRoutes(r)
			}
		})
	})

	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		out := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				out["status"] = "degraded"
				out[name] = err.Error()
				continue
			}
			out[name] = "ok"
		}
		httpx.JSON(w, status, out)
	}
}
