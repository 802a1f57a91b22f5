package idempotency

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	dErrors "contractpay/pkg/domain-errors"
	"contractpay/pkg/platform/httputil"
	"contractpay/pkg/requestcontext"
)

const (
	HeaderKey      = "Idempotency-Key"
	HeaderReplayed = "Idempotent-Replayed"

	maxKeyLength = 255
)

// Middleware replays the stored response for a repeated Idempotency-Key.
// Keys are scoped to the authenticated user, so it must run after auth.
// Requests without the header pass through untouched. A 5xx response, a
// panic or a failed write of the stored response releases the key so the
// client may retry.
func Middleware(store Store, ttl time.Duration, logger *slog.Logger, m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(HeaderKey))
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			if len(key) > maxKeyLength {
				httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Idempotency-Key is too long"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "failed to read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			scoped := requestcontext.UserID(ctx).String() + ":" + key
			fingerprint := Fingerprint(r.Method, r.URL.Path, body)

			rec, reserved, err := store.Reserve(ctx, scoped, fingerprint, ttl)
			if err != nil {
				logger.ErrorContext(ctx, "failed to reserve idempotency key",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				m.inc("error")
				httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "idempotency store unavailable"))
				return
			}
			if !reserved {
				switch {
				case rec.Fingerprint != fingerprint:
					m.inc("mismatch")
					httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "Idempotency-Key was used for a different request"))
				case !rec.Completed:
					m.inc("in_progress")
					httputil.WriteError(w, dErrors.New(dErrors.CodeConflict, "a request with this Idempotency-Key is in progress"))
				default:
					m.inc("replayed")
					replay(w, rec)
				}
				return
			}

			// Store writes outlive a client disconnect.
			storeCtx := context.WithoutCancel(ctx)
			finished := false
			defer func() {
				if finished {
					return
				}
				m.inc("released")
				if err := store.Release(storeCtx, scoped); err != nil {
					logger.ErrorContext(storeCtx, "failed to release idempotency key",
						"request_id", requestcontext.RequestID(ctx),
						"error", err,
					)
				}
			}()

			var captured bytes.Buffer
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&captured)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if status >= http.StatusInternalServerError {
				return
			}
			m.inc("stored")
			if err := store.Complete(storeCtx, scoped, Record{
				Fingerprint: fingerprint,
				Status:      status,
				ContentType: ww.Header().Get("Content-Type"),
				Body:        captured.Bytes(),
			}, ttl); err != nil {
				logger.ErrorContext(storeCtx, "failed to store idempotent response",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				return
			}
			finished = true
		})
	}
}

func replay(w http.ResponseWriter, rec *Record) {
	if rec.ContentType != "" {
		w.Header().Set("Content-Type", rec.ContentType)
	}
	w.Header().Set(HeaderReplayed, "true")
	w.WriteHeader(rec.Status)
	_, _ = w.Write(rec.Body)
}
