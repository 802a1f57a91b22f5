//go:build integration

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	escrowhandler "contractpay/internal/escrow/handler"
	"contractpay/internal/idempotency"
	idmemory "contractpay/internal/identity/store/memory"
	jwttoken "contractpay/internal/jwt_token"
	payrollhandler "contractpay/internal/payroll/handler"
	"contractpay/internal/payroll/models"
	payrollpostgres "contractpay/internal/payroll/store/postgres"
	"contractpay/internal/platform/config"
	"contractpay/internal/ratelimit"
	timeloghandler "contractpay/internal/timelog/handler"
	id "contractpay/pkg/domain"
	"contractpay/pkg/testutil"
	"contractpay/pkg/testutil/containers"
)

func TestContractToPayoutFlow(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	rp := containers.NewRedpandaContainer(t)
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()

	cfg = &config.Config{
		Database:    config.DatabaseConfig{URL: pg.URL, TxTimeout: 5 * time.Second},
		Kafka:       config.KafkaConfig{Brokers: []string{rp.Broker}, Topic: "compliance-events", Partitions: 1, ReplicationFactor: 1},
		Auth:        config.AuthConfig{JWTSigningKey: "integration-key", Issuer: "contractpay", Audience: "contractpay-api", TokenTTL: time.Hour},
		Compliance:  config.ComplianceConfig{Realm: "marketplace", LegalEntity: "Contractpay Payments LLC"},
		Relay:       config.RelayConfig{Enabled: true, BatchSize: 50, Sweep: "@every 1s", Channel: "compliance_events"},
		Idempotency: config.IdempotencyConfig{TTL: time.Hour},
		RateLimit:   config.RateLimitConfig{Enabled: true, Read: 100, Write: 100, Window: time.Minute},
	}
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	b, err := openBackend(ctx, cfg, logger)
	require.NoError(t, err)
	t.Cleanup(b.Close)
	require.NoError(t, runMigrations(ctx, b.pool))
	seedDirectory(t, ctx, b.pool)

	router := newRouter(cfg, b, idempotency.NewRedisStore(rc.Client), ratelimit.NewRedisStore(rc.Client), nil, logger)
	tokens := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	do := func(user id.UserID, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
		t.Helper()
		token, err := tokens.GenerateAccessToken(user, time.Hour)
		require.NoError(t, err)
		req := testutil.WithBearer(testutil.NewJSONRequest(t, method, path, body), token)
		for i := 0; i+1 < len(headers); i += 2 {
			req.Header.Set(headers[i], headers[i+1])
		}
		return testutil.DoRequest(router, req)
	}

	admin, client, talent := idmemory.DemoAdminUserID, idmemory.DemoClientUserID, idmemory.DemoTalentUserID
	contract := idmemory.DemoContractID.String()

	testutil.Given(t, "a client funding escrow with an idempotency key", func(t *testing.T) {
		body := map[string]any{"contract_id": contract, "amount": 1000.00}
		first := testutil.Decode[escrowhandler.RecordResponse](t, do(client, http.MethodPost, "/escrow/fund", body, idempotency.HeaderKey, "fund-1"), http.StatusOK)
		assert.Equal(t, id.Cents(100000), first.EscrowBalance)

		replayed := do(client, http.MethodPost, "/escrow/fund", body, idempotency.HeaderKey, "fund-1")
		assert.Equal(t, "true", replayed.Header().Get(idempotency.HeaderReplayed))
		again := testutil.Decode[escrowhandler.RecordResponse](t, replayed, http.StatusOK)
		assert.Equal(t, id.Cents(100000), again.EscrowBalance)
	})

	var logID string
	testutil.When(t, "the talent logs Arizona hours and the client approves them", func(t *testing.T) {
		created := testutil.Decode[timeloghandler.TimeLogResponse](t, do(talent, http.MethodPost, "/time-logs", map[string]any{
			"contract_id":    contract,
			"log_date":       time.Now().UTC().AddDate(0, 0, -1).Format(time.DateOnly),
			"hours_worked":   8,
			"task_category":  "development",
			"location_type":  "on_site",
			"location_state": "AZ",
		}), http.StatusCreated)
		logID = created.ID.String()
		assert.Equal(t, id.WholeHours(8), created.AZEligibleHours)

		submitted := testutil.Decode[timeloghandler.SubmitResponse](t, do(talent, http.MethodPost, "/time-logs/submit", map[string]any{
			"time_log_ids": []string{logID},
		}), http.StatusOK)
		assert.Equal(t, 1, submitted.Count)

		decided := testutil.Decode[timeloghandler.TimeLogResponse](t, do(client, http.MethodPost, "/time-logs/"+logID+"/decision", map[string]any{
			"decision": "approved",
		}), http.StatusOK)
		assert.Equal(t, "approved", decided.Status)

		testutil.AssertError(t, do(talent, http.MethodPost, "/time-logs/"+logID+"/decision", map[string]any{
			"decision": "approved",
		}), http.StatusForbidden, "forbidden")
	})

	testutil.Then(t, "an admin pays the talent out of escrow", func(t *testing.T) {
		year := time.Now().UTC().Year()
		payout := seedPayout(t, ctx, b.pool, id.Cents(40000), year)

		batch := testutil.Decode[payrollhandler.BatchResponse](t, do(admin, http.MethodPost, "/payroll/payouts/process", map[string]any{
			"payout_ids": []string{payout.String()},
		}, idempotency.HeaderKey, "batch-1"), http.StatusOK)
		assert.Equal(t, 1, batch.ProcessedCount)
		assert.Empty(t, batch.ExcludedIDs)

		body := testutil.AssertError(t, do(admin, http.MethodPost, "/payroll/payouts/process", map[string]any{
			"payout_ids": []string{payout.String()},
		}), http.StatusConflict, "state_conflict")
		assert.Equal(t, []string{payout.String()}, body.Details)

		done := testutil.Decode[payrollhandler.PayoutResponse](t, do(admin, http.MethodPost, "/payroll/payouts/"+payout.String()+"/complete", nil), http.StatusOK)
		assert.Equal(t, string(models.StatusCompleted), done.Status)

		escrow := testutil.Decode[escrowhandler.ListResponse](t, do(client, http.MethodGet, "/escrow?contract_id="+contract, nil), http.StatusOK)
		require.Len(t, escrow.Records, 1)
		assert.Equal(t, id.Cents(60000), escrow.Records[0].EscrowBalance)

		summary := testutil.Decode[payrollhandler.SummaryResponse](t, do(admin, http.MethodGet, fmt.Sprintf("/payroll/summary/%d", year), nil), http.StatusOK)
		assert.Equal(t, id.Cents(40000), summary.CompletedAmount)
		assert.Equal(t, id.WholeHours(8), summary.AZEligibleHours)
	})

	testutil.Then(t, "the relay delivers every compliance event to Kafka", func(t *testing.T) {
		require.NoError(t, runRelay(ctx, b, true))

		unpublished, err := b.events.Unpublished(ctx, 100)
		require.NoError(t, err)
		assert.Empty(t, unpublished)

		consumer, err := kgo.NewClient(
			kgo.SeedBrokers(rp.Broker),
			kgo.ConsumeTopics(cfg.Kafka.Topic),
			kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		)
		require.NoError(t, err)
		defer consumer.Close()

		seen := map[string]int{}
		deadline, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		for seen["payout_completed"] == 0 && deadline.Err() == nil {
			fetches := consumer.PollFetches(deadline)
			fetches.EachRecord(func(r *kgo.Record) {
				for _, h := range r.Headers {
					if h.Key == "event_type" {
						seen[string(h.Value)]++
					}
				}
			})
		}
		for _, want := range []string{
			"escrow_funded", "time_log_created", "time_logs_submitted", "time_log_decided",
			"payout_batch_processing", "escrow_debited", "payout_completed",
		} {
			assert.Equal(t, 1, seen[want], "event %s", want)
		}
	})
}

func seedDirectory(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()
	stmts := []struct {
		sql  string
		args []any
	}{
		{`INSERT INTO profiles (user_id, role) VALUES ($1, 'admin'), ($2, 'member'), ($3, 'member')`,
			[]any{uuid.UUID(idmemory.DemoAdminUserID), uuid.UUID(idmemory.DemoClientUserID), uuid.UUID(idmemory.DemoTalentUserID)}},
		{`INSERT INTO talent_profiles (id, user_id, az_eligible) VALUES ($1, $2, true)`,
			[]any{uuid.UUID(idmemory.DemoTalentID), uuid.UUID(idmemory.DemoTalentUserID)}},
		{`INSERT INTO contracts (id, client_id, talent_id, title) VALUES ($1, $2, $3, 'Integration engagement')`,
			[]any{uuid.UUID(idmemory.DemoContractID), uuid.UUID(idmemory.DemoClientUserID), uuid.UUID(idmemory.DemoTalentID)}},
	}
	for _, s := range stmts {
		_, err := pool.Exec(ctx, s.sql, s.args...)
		require.NoError(t, err)
	}
}

func seedPayout(t *testing.T, ctx context.Context, pool *pgxpool.Pool, amount id.Cents, year int) id.PayoutID {
	t.Helper()
	now := time.Now().UTC()
	p := &models.Payout{
		ID:            id.NewPayoutID(),
		TalentID:      idmemory.DemoTalentID,
		ContractID:    idmemory.DemoContractID,
		NetAmount:     amount,
		ScheduledDate: time.Date(year, now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		TaxYear:       year,
		Status:        models.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, payrollpostgres.New(pool).Create(ctx, p))
	return p.ID
}
