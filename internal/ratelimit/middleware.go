package ratelimit

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"contractpay/pkg/platform/httputil"
	"contractpay/pkg/requestcontext"
)

const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
	HeaderStatus    = "X-RateLimit-Status"
)

// Limiter checks requests against per-class budgets. When the primary store
// keeps failing it switches to an in-process fallback until the primary
// recovers.
type Limiter struct {
	primary  Store
	fallback Store
	limits   map[Class]Limit
	breaker  *breaker
	logger   *slog.Logger
	metrics  *Metrics
}

type Option func(*Limiter)

func WithFallback(s Store) Option {
	return func(l *Limiter) { l.fallback = s }
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) { l.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(l *Limiter) { l.metrics = m }
}

// WithBreaker sets how many consecutive primary errors open the breaker and
// how many healthy probes close it again.
func WithBreaker(failures, successes int) Option {
	return func(l *Limiter) { l.breaker = newBreaker(failures, successes) }
}

func New(primary Store, limits map[Class]Limit, opts ...Option) *Limiter {
	l := &Limiter{
		primary: primary,
		limits:  limits,
		breaker: newBreaker(5, 3),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.fallback == nil {
		l.fallback = NewMemoryStore()
	}
	return l
}

// Middleware enforces the budget of the request's class. The caller is the
// authenticated user when there is one and the client IP otherwise.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		class := ClassOf(r)
		limit, ok := l.limits[class]
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		res, degraded, err := l.check(ctx, callerKey(ctx, class), limit)
		if err != nil {
			l.logger.WarnContext(ctx, "rate limit check failed, allowing request",
				"request_id", requestcontext.RequestID(ctx), "error", err)
			l.metrics.decision(class, "error")
			next.ServeHTTP(w, r)
			return
		}
		setHeaders(w, res)
		if degraded {
			w.Header().Set(HeaderStatus, "degraded")
		}
		if !res.Allowed {
			l.metrics.decision(class, "rejected")
			writeExceeded(w, res)
			return
		}
		l.metrics.decision(class, "allowed")
		next.ServeHTTP(w, r)
	})
}

func (l *Limiter) check(ctx context.Context, key string, limit Limit) (*Result, bool, error) {
	now := requestcontext.Now(ctx)
	res, err := l.primary.Allow(ctx, key, limit, now)
	if err == nil {
		if l.breaker.success() {
			l.logger.InfoContext(ctx, "rate limit store recovered")
			l.metrics.setDegraded(false)
		}
		if !l.breaker.isOpen() {
			return res, false, nil
		}
	} else {
		if l.breaker.failure() {
			l.logger.ErrorContext(ctx, "rate limit store failing, switching to in-process fallback", "error", err)
			l.metrics.setDegraded(true)
		}
		if !l.breaker.isOpen() {
			return nil, false, err
		}
	}
	res, err = l.fallback.Allow(ctx, key, limit, now)
	return res, true, err
}

func callerKey(ctx context.Context, class Class) string {
	if userID := requestcontext.UserID(ctx); !userID.IsNil() {
		return string(class) + ":user:" + userID.String()
	}
	return string(class) + ":ip:" + requestcontext.ClientIP(ctx)
}

func setHeaders(w http.ResponseWriter, res *Result) {
	w.Header().Set(HeaderLimit, strconv.Itoa(res.Limit))
	w.Header().Set(HeaderRemaining, strconv.Itoa(res.Remaining))
	w.Header().Set(HeaderReset, strconv.FormatInt(res.ResetAt.Unix(), 10))
}

type exceededResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	RetryAfter       int    `json:"retry_after"`
}

func writeExceeded(w http.ResponseWriter, res *Result) {
	retry := int(math.Ceil(res.RetryAfter.Seconds()))
	if retry < 1 {
		retry = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retry))
	httputil.WriteJSON(w, http.StatusTooManyRequests, exceededResponse{
		Error:            "rate_limit_exceeded",
		ErrorDescription: "too many requests, retry after " + (time.Duration(retry) * time.Second).String(),
		RetryAfter:       retry,
	})
}
