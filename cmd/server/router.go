package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	compliancehandler "contractpay/internal/compliance/handler"
	escrowhandler "contractpay/internal/escrow/handler"
	escrowmetrics "contractpay/internal/escrow/metrics"
	escrowservice "contractpay/internal/escrow/service"
	"contractpay/internal/idempotency"
	"contractpay/internal/identity"
	jwttoken "contractpay/internal/jwt_token"
	payrollhandler "contractpay/internal/payroll/handler"
	payrollmetrics "contractpay/internal/payroll/metrics"
	payrollservice "contractpay/internal/payroll/service"
	"contractpay/internal/platform/config"
	"contractpay/internal/platform/metrics"
	"contractpay/internal/ratelimit"
	timeloghandler "contractpay/internal/timelog/handler"
	timelogmetrics "contractpay/internal/timelog/metrics"
	timelogservice "contractpay/internal/timelog/service"
	"contractpay/pkg/platform/audit/publishers/compliance"
	"contractpay/pkg/platform/httputil"
	authmw "contractpay/pkg/platform/middleware/auth"
	"contractpay/pkg/platform/middleware/metadata"
	"contractpay/pkg/platform/middleware/request"
	"contractpay/pkg/platform/middleware/requesttime"
)

// healthCheck reports whether one dependency is reachable.
type healthCheck func(ctx context.Context) error

// newRouter wires services over b and mounts every route.
func newRouter(cfg *config.Config, b *backend, idem idempotency.Store, limits ratelimit.Store, checks map[string]healthCheck, logger *slog.Logger) http.Handler {
	publisher := compliance.New(b.events,
		compliance.WithLogger(logger),
		compliance.WithMetrics(compliance.NewMetrics()),
		compliance.WithContext(cfg.Compliance.Realm, cfg.Compliance.LegalEntity),
	)
	timelogs := timelogservice.New(b.timelogs, b.directory, b.runner, publisher,
		timelogservice.WithLogger(logger),
		timelogservice.WithMetrics(timelogmetrics.New()),
	)
	escrow := escrowservice.New(b.escrow, b.directory, b.runner, publisher,
		escrowservice.WithLogger(logger),
		escrowservice.WithMetrics(escrowmetrics.New()),
	)
	payroll := payrollservice.New(b.payouts, escrow, timelogs, b.runner, publisher,
		payrollservice.WithLogger(logger),
		payrollservice.WithMetrics(payrollmetrics.New()),
	)

	resolver := identity.NewResolver(b.directory)
	validator := jwttoken.NewJWTServiceAdapter(
		jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience),
	)
	keyed := idempotency.Middleware(idem, cfg.Idempotency.TTL, logger, idempotency.NewMetrics())

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(logger))
	r.Use(request.Logger(logger))
	r.Use(request.Latency(metrics.New()))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)

	r.Get("/health", healthHandler(checks))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(validator, logger))
		if cfg.RateLimit.Enabled {
			r.Use(newLimiter(cfg.RateLimit, limits, logger).Middleware)
		}
		timeloghandler.New(timelogs, resolver, logger).Register(r)
		escrowhandler.New(escrow, resolver, logger).Register(r, keyed)
		payrollhandler.New(payroll, resolver, logger).Register(r, keyed)
		compliancehandler.New(publisher, resolver, logger).Register(r)
	})
	return r
}

func newLimiter(cfg config.RateLimitConfig, store ratelimit.Store, logger *slog.Logger) *ratelimit.Limiter {
	return ratelimit.New(store, map[ratelimit.Class]ratelimit.Limit{
		ratelimit.ClassRead:  {Requests: cfg.Read, Window: cfg.Window},
		ratelimit.ClassWrite: {Requests: cfg.Write, Window: cfg.Window},
	},
		ratelimit.WithLogger(logger),
		ratelimit.WithMetrics(ratelimit.NewMetrics()),
	)
}

func healthHandler(checks map[string]healthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		httputil.WriteJSON(w, status, map[string]any{"status": http.StatusText(status), "checks": results})
	}
}
