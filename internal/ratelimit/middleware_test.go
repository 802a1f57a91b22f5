package ratelimit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "contractpay/pkg/domain"
	"contractpay/pkg/requestcontext"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type flakyStore struct {
	inner Store
	err   error
	calls int
}

func (s *flakyStore) Allow(ctx context.Context, key string, limit Limit, now time.Time) (*Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.inner.Allow(ctx, key, limit, now)
}

func newTestLimiter(primary Store, opts ...Option) http.Handler {
	limits := map[Class]Limit{
		ClassRead:  {Requests: 3, Window: time.Minute},
		ClassWrite: {Requests: 2, Window: time.Minute},
	}
	opts = append(opts, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	l := New(primary, limits, opts...)
	return l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func send(h http.Handler, method string, userID id.UserID, at time.Time) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/payroll/payouts", nil)
	ctx := requestcontext.WithTime(req.Context(), at)
	if !userID.IsNil() {
		ctx = requestcontext.WithUserID(ctx, userID)
	} else {
		ctx = requestcontext.WithClientMetadata(ctx, "203.0.113.9", "test")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req.WithContext(ctx))
	return rr
}

func TestBudgetPerClass(t *testing.T) {
	h := newTestLimiter(NewMemoryStore())
	user := id.UserID(uuid.New())

	for i := 0; i < 2; i++ {
		rr := send(h, http.MethodPost, user, t0)
		require.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "2", rr.Header().Get(HeaderLimit))
	}
	rr := send(h, http.MethodPost, user, t0.Add(time.Second))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "0", rr.Header().Get(HeaderRemaining))
	assert.Equal(t, "59", rr.Header().Get("Retry-After"))
	assert.Contains(t, rr.Body.String(), `"error":"rate_limit_exceeded"`)

	// reads draw on their own budget
	rr = send(h, http.MethodGet, user, t0.Add(time.Second))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "2", rr.Header().Get(HeaderRemaining))
}

func TestBudgetPerCaller(t *testing.T) {
	h := newTestLimiter(NewMemoryStore())
	alice, bob := id.UserID(uuid.New()), id.UserID(uuid.New())

	send(h, http.MethodPost, alice, t0)
	send(h, http.MethodPost, alice, t0)
	assert.Equal(t, http.StatusTooManyRequests, send(h, http.MethodPost, alice, t0).Code)
	assert.Equal(t, http.StatusNoContent, send(h, http.MethodPost, bob, t0).Code)

	// anonymous callers are keyed by client IP
	send(h, http.MethodPost, id.UserID{}, t0)
	send(h, http.MethodPost, id.UserID{}, t0)
	assert.Equal(t, http.StatusTooManyRequests, send(h, http.MethodPost, id.UserID{}, t0).Code)
}

func TestWindowSlides(t *testing.T) {
	h := newTestLimiter(NewMemoryStore())
	user := id.UserID(uuid.New())

	send(h, http.MethodPost, user, t0)
	send(h, http.MethodPost, user, t0.Add(30*time.Second))
	assert.Equal(t, http.StatusTooManyRequests, send(h, http.MethodPost, user, t0.Add(59*time.Second)).Code)

	// the first hit has left the window, the second has not
	assert.Equal(t, http.StatusNoContent, send(h, http.MethodPost, user, t0.Add(61*time.Second)).Code)
	assert.Equal(t, http.StatusTooManyRequests, send(h, http.MethodPost, user, t0.Add(62*time.Second)).Code)
}

func TestStoreOutageFallsBack(t *testing.T) {
	primary := &flakyStore{inner: NewMemoryStore(), err: errors.New("connection refused")}
	h := newTestLimiter(primary, WithBreaker(2, 2))
	user := id.UserID(uuid.New())

	// below the threshold requests pass unchecked
	rr := send(h, http.MethodPost, user, t0)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Header().Get(HeaderLimit))

	// the second error opens the breaker and the fallback starts counting
	rr = send(h, http.MethodPost, user, t0)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "degraded", rr.Header().Get(HeaderStatus))
	send(h, http.MethodPost, user, t0)
	rr = send(h, http.MethodPost, user, t0)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "degraded", rr.Header().Get(HeaderStatus))

	// two healthy probes close it again
	primary.err = nil
	send(h, http.MethodGet, user, t0)
	rr = send(h, http.MethodGet, user, t0)
	assert.Empty(t, rr.Header().Get(HeaderStatus))
	assert.Equal(t, "1", rr.Header().Get(HeaderRemaining))
}

func TestClassOf(t *testing.T) {
	for method, want := range map[string]Class{
		http.MethodGet:    ClassRead,
		http.MethodHead:   ClassRead,
		http.MethodPost:   ClassWrite,
		http.MethodPatch:  ClassWrite,
		http.MethodDelete: ClassWrite,
	} {
		assert.Equal(t, want, ClassOf(httptest.NewRequest(method, "/", nil)), method)
	}
}
