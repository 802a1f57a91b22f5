package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"contractpay/internal/authz"
	"contractpay/internal/payroll/handler/mocks"
	"contractpay/internal/payroll/models"
	"contractpay/internal/payroll/service"
	id "contractpay/pkg/domain"
	dErrors "contractpay/pkg/domain-errors"
)

var admin = authz.Caller{UserID: id.UserID(uuid.MustParse("5f1d7c3e-8a54-4c1b-9d0e-2b6a7f3c9e11")), Admin: true}

func newRouter(t *testing.T) (http.Handler, *mocks.MockService, *mocks.MockCallerResolver) {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	resolver := mocks.NewMockCallerResolver(ctrl)
	r := chi.NewRouter()
	New(svc, resolver, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r, svc, resolver
}

func serve(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func payout(status models.Status, amount id.Cents) *models.Payout {
	return &models.Payout{
		ID:            id.NewPayoutID(),
		TalentID:      id.TalentID(uuid.New()),
		ContractID:    id.ContractID(uuid.New()),
		NetAmount:     amount,
		ScheduledDate: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		TaxYear:       2024,
		Status:        status,
	}
}

func TestHandleProcess(t *testing.T) {
	t.Run("reports processed and excluded ids", func(t *testing.T) {
		router, svc, resolver := newRouter(t)
		first := payout(models.StatusProcessing, id.Cents(120050))
		skipped := id.NewPayoutID()
		resolver.EXPECT().FromContext(gomock.Any()).Return(admin, nil)
		svc.EXPECT().ProcessBatch(gomock.Any(), admin, []id.PayoutID{first.ID, skipped}).
			Return(&models.BatchResult{
				Processed:   []*models.Payout{first},
				TotalAmount: id.Cents(120050),
				Excluded:    []id.PayoutID{skipped},
			}, nil)

		body := `{"payout_ids":["` + first.ID.String() + `","` + skipped.String() + `","` + first.ID.String() + `"]}`
		w := serve(router, http.MethodPost, "/payroll/payouts/process", body)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decode(t, w)
		assert.Equal(t, float64(1), resp["processed_count"])
		assert.Equal(t, 1200.5, resp["total_amount"])
		assert.Equal(t, []any{skipped.String()}, resp["excluded_ids"])
	})

	t.Run("nothing pending", func(t *testing.T) {
		router, svc, resolver := newRouter(t)
		done := id.NewPayoutID()
		resolver.EXPECT().FromContext(gomock.Any()).Return(admin, nil)
		svc.EXPECT().ProcessBatch(gomock.Any(), admin, []id.PayoutID{done}).
			Return(nil, dErrors.New(dErrors.CodeConflict, "nothing to process: no requested payout is pending").
				WithDetails(done.String()))

		w := serve(router, http.MethodPost, "/payroll/payouts/process", `{"payout_ids":["`+done.String()+`"]}`)

		require.Equal(t, http.StatusConflict, w.Code)
		resp := decode(t, w)
		assert.Equal(t, "state_conflict", resp["error"])
		assert.Equal(t, []any{done.String()}, resp["details"])
	})

	t.Run("empty list", func(t *testing.T) {
		router, _, resolver := newRouter(t)
		resolver.EXPECT().FromContext(gomock.Any()).Return(admin, nil)

		w := serve(router, http.MethodPost, "/payroll/payouts/process", `{"payout_ids":[]}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		router, _, resolver := newRouter(t)
		resolver.EXPECT().FromContext(gomock.Any()).Return(admin, nil)

		w := serve(router, http.MethodPost, "/payroll/payouts/process", `{"payout_ids":["not-a-uuid"]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("non-admin", func(t *testing.T) {
		router, _, resolver := newRouter(t)
		client := authz.Caller{UserID: id.UserID(uuid.New())}
		p := id.NewPayoutID()
		resolver.EXPECT().FromContext(gomock.Any()).Return(client, nil)

		w := serve(router, http.MethodPost, "/payroll/payouts/process", `{"payout_ids":["`+p.String()+`"]}`)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestHandleList(t *testing.T) {
	t.Run("passes filters and exact aggregates", func(t *testing.T) {
		router, svc, resolver := newRouter(t)
		pending := payout(models.StatusPending, id.Cents(1))
		done := payout(models.StatusCompleted, id.Cents(2))
		from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		resolver.EXPECT().FromContext(gomock.Any()).Return(admin, nil)
		svc.EXPECT().ListPayouts(gomock.Any(), admin, models.Filter{TaxYear: 2024, From: &from}).
			Return(&service.PayoutList{
				Payouts:    []*models.Payout{pending, done},
				Aggregates: models.Aggregates{PendingAmount: id.Cents(1), ProcessedAmount: id.Cents(2)},
			}, nil)

		w := serve(router, http.MethodGet, "/payroll/payouts?tax_year=2024&from=2024-01-01", "")

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decode(t, w)
		assert.Equal(t, float64(2), resp["count"])
		assert.Contains(t, w.Body.String(), `"pending_amount":0.01`)
		assert.Contains(t, w.Body.String(), `"processed_amount":0.02`)
		assert.Contains(t, w.Body.String(), `"scheduled_date":"2024-03-15"`)
	})

	for _, tc := range []struct {
		name  string
		query string
		code  int
	}{
		{"unknown status", "status=refunded", http.StatusUnprocessableEntity},
		{"tax year not a number", "tax_year=twenty", http.StatusBadRequest},
		{"tax year out of range", "tax_year=1999", http.StatusUnprocessableEntity},
		{"bad date", "from=03/01/2024", http.StatusUnprocessableEntity},
		{"inverted range", "from=2024-06-01&to=2024-01-01", http.StatusUnprocessableEntity},
		{"bad talent id", "talent_id=abc", http.StatusBadRequest},
	} {
		t.Run(tc.name, func(t *testing.T) {
			router, _, resolver := newRouter(t)
			resolver.EXPECT().FromContext(gomock.Any()).Return(admin, nil)

			w := serve(router, http.MethodGet, "/payroll/payouts?"+tc.query, "")
			assert.Equal(t, tc.code, w.Code, w.Body.String())
		})
	}
}

func TestHandleCompleteAndFail(t *testing.T) {
	t.Run("complete", func(t *testing.T) {
		router, svc, resolver := newRouter(t)
		p := payout(models.StatusCompleted, id.Cents(40000))
		completedAt := time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)
		p.CompletedAt = &completedAt
		resolver.EXPECT().FromContext(gomock.Any()).Return(admin, nil)
		svc.EXPECT().CompletePayout(gomock.Any(), admin, p.ID).Return(p, nil)

		w := serve(router, http.MethodPost, "/payroll/payouts/"+p.ID.String()+"/complete", "")

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decode(t, w)
		assert.Equal(t, "completed", resp["status"])
		assert.Equal(t, float64(400), resp["net_amount"])
	})

	t.Run("insufficient escrow", func(t *testing.T) {
		router, svc, resolver := newRouter(t)
		p := id.NewPayoutID()
		resolver.EXPECT().FromContext(gomock.Any()).Return(admin, nil)
		svc.EXPECT().CompletePayout(gomock.Any(), admin, p).
			Return(nil, dErrors.New(dErrors.CodeConflict, "insufficient escrow balance"))

		w := serve(router, http.MethodPost, "/payroll/payouts/"+p.String()+"/complete", "")
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("bad payout id", func(t *testing.T) {
		router, _, resolver := newRouter(t)
		resolver.EXPECT().FromContext(gomock.Any()).Return(admin, nil)
		w := serve(router, http.MethodPost, "/payroll/payouts/nope/complete", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("fail trims the reason", func(t *testing.T) {
		router, svc, resolver := newRouter(t)
		p := payout(models.StatusFailed, id.Cents(100))
		p.FailureReason = "account closed"
		resolver.EXPECT().FromContext(gomock.Any()).Return(admin, nil)
		svc.EXPECT().FailPayout(gomock.Any(), admin, p.ID, "account closed").Return(p, nil)

		w := serve(router, http.MethodPost, "/payroll/payouts/"+p.ID.String()+"/fail", `{"reason":"  account closed "}`)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "account closed", decode(t, w)["failure_reason"])
	})

	t.Run("fail without reason", func(t *testing.T) {
		router, _, resolver := newRouter(t)
		resolver.EXPECT().FromContext(gomock.Any()).Return(admin, nil)

		w := serve(router, http.MethodPost, "/payroll/payouts/"+id.NewPayoutID().String()+"/fail", `{}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestHandleSummary(t *testing.T) {
	t.Run("returns totals with AZ hours", func(t *testing.T) {
		router, svc, resolver := newRouter(t)
		resolver.EXPECT().FromContext(gomock.Any()).Return(admin, nil)
		svc.EXPECT().YearSummary(gomock.Any(), admin, 2024).Return(&models.YearSummary{
			TaxYear: 2024,
			YearTotals: models.YearTotals{
				CompletedAmount: id.Cents(500000),
				CompletedCount:  4,
			},
			AZEligibleHours: id.Hours(16050),
		}, nil)

		w := serve(router, http.MethodGet, "/payroll/summary/2024", "")

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decode(t, w)
		assert.Equal(t, float64(5000), resp["completed_amount"])
		assert.Equal(t, float64(4), resp["completed_count"])
		assert.Equal(t, 160.5, resp["az_eligible_hours"])
	})

	t.Run("year out of range", func(t *testing.T) {
		router, _, resolver := newRouter(t)
		resolver.EXPECT().FromContext(gomock.Any()).Return(admin, nil)
		w := serve(router, http.MethodGet, "/payroll/summary/3000", "")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("internal failure", func(t *testing.T) {
		router, svc, resolver := newRouter(t)
		resolver.EXPECT().FromContext(gomock.Any()).Return(admin, nil)
		svc.EXPECT().YearSummary(gomock.Any(), admin, 2023).
			Return(nil, dErrors.Wrap(errors.New("db down"), dErrors.CodeInternal, "failed to build year summary"))

		w := serve(router, http.MethodGet, "/payroll/summary/2023", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "db down")
	})
}

func TestNonAdminIsRejectedBeforeInputIsParsed(t *testing.T) {
	talent := authz.Caller{UserID: id.UserID(uuid.New())}
	for _, tc := range []struct {
		name, method, path, body string
	}{
		{"list with bad filter", http.MethodGet, "/payroll/payouts?status=refunded", ""},
		{"process with malformed body", http.MethodPost, "/payroll/payouts/process", `{"payout_ids":["not-a-uuid"]}`},
		{"complete with bad id", http.MethodPost, "/payroll/payouts/nope/complete", ""},
		{"fail without reason", http.MethodPost, "/payroll/payouts/" + id.NewPayoutID().String() + "/fail", `{}`},
		{"summary with bad year", http.MethodGet, "/payroll/summary/3000", ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			router, _, resolver := newRouter(t)
			resolver.EXPECT().FromContext(gomock.Any()).Return(talent, nil)

			w := serve(router, tc.method, tc.path, tc.body)
			assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
			assert.Equal(t, "forbidden", decode(t, w)["error"])
		})
	}
}
