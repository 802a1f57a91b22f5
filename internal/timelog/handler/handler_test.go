package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"contractpay/internal/identity"
	idmemory "contractpay/internal/identity/store/memory"
	"contractpay/internal/timelog/service"
	tlmemory "contractpay/internal/timelog/store/memory"
	id "contractpay/pkg/domain"
	"contractpay/pkg/platform/audit/publishers/compliance"
	auditmemory "contractpay/pkg/platform/audit/store/memory"
	"contractpay/pkg/platform/httputil"
	"contractpay/pkg/platform/tx"
	"contractpay/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	router   http.Handler
	talent   id.UserID
	client   id.UserID
	contract id.ContractID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	directory := idmemory.NewDirectory()
	s.talent = id.UserID(uuid.New())
	s.client = id.UserID(uuid.New())
	s.contract = id.ContractID(uuid.New())
	talentID := id.TalentID(uuid.New())
	directory.PutProfile(identity.Profile{UserID: s.talent, Role: identity.ProfileMember, TalentID: talentID, AZEligible: true})
	directory.PutProfile(identity.Profile{UserID: s.client, Role: identity.ProfileMember})
	directory.PutContract(identity.Contract{ID: s.contract, ClientID: s.client, TalentID: talentID})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := tlmemory.New()
	events := auditmemory.NewInMemoryStore()
	svc := service.New(store, directory, tx.NewMemoryRunner(store, events), compliance.New(events), service.WithLogger(logger))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			userID, err := id.ParseUserID(req.Header.Get("X-Test-User"))
			if err == nil {
				req = testutil.WithUser(req, userID)
			}
			next.ServeHTTP(w, req)
		})
	})
	New(svc, identity.NewResolver(directory), logger).Register(r)
	s.router = r
}

func (s *HandlerSuite) do(method, path string, user id.UserID, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			s.Require().NoError(json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequestWithContext(context.Background(), method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", user.String())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) createLog(state string) TimeLogResponse {
	rec := s.do(http.MethodPost, "/time-logs", s.talent, map[string]any{
		"contract_id":    s.contract.String(),
		"log_date":       "2024-04-10",
		"hours_worked":   8,
		"task_category":  "development",
		"location_state": state,
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var resp TimeLogResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (s *HandlerSuite) TestCreateAndSubmitArizonaLog() {
	created := s.createLog("AZ")
	s.Equal(id.WholeHours(8), created.AZEligibleHours)
	s.Equal("draft", created.Status)
	s.True(created.Billable)
	s.Equal("2024-04-10", created.LogDate)

	rec := s.do(http.MethodPost, "/time-logs/submit", s.talent, map[string]any{
		"time_log_ids": []string{created.ID.String()},
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var submitted SubmitResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &submitted))
	s.Require().Equal(1, submitted.Count)
	s.Equal("submitted", submitted.Submitted[0].Status)

	rec = s.do(http.MethodGet, "/time-logs/"+created.ID.String()+"/audit", s.client, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var history HistoryResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &history))
	s.Require().Len(history.Entries, 1)
	s.Equal("submitted", history.Entries[0].Decision)
}

func (s *HandlerSuite) TestDecideOnDraftIsConflict() {
	created := s.createLog("")

	rec := s.do(http.MethodPost, "/time-logs/"+created.ID.String()+"/decision", s.client, map[string]any{
		"decision": "approved",
	})
	s.Equal(http.StatusConflict, rec.Code)
	var errResp httputil.ErrorResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &errResp))
	s.Equal("state_conflict", errResp.Error)
	s.Len(errResp.Details, 1)

	rec = s.do(http.MethodGet, "/time-logs/"+created.ID.String(), s.talent, nil)
	var got TimeLogResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
	s.Equal("draft", got.Status)
}

func (s *HandlerSuite) TestApprovalFlow() {
	created := s.createLog("AZ")
	rec := s.do(http.MethodPost, "/time-logs/submit", s.talent, map[string]any{"time_log_ids": []string{created.ID.String()}})
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/time-logs/"+created.ID.String()+"/decision", s.talent, map[string]any{"decision": "approved"})
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/time-logs/"+created.ID.String()+"/decision", s.client, map[string]any{
		"decision": "approved",
		"notes":    "ok",
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var got TimeLogResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
	s.Equal("approved", got.Status)
	s.Require().NotNil(got.ApprovedBy)
	s.Equal(s.client, *got.ApprovedBy)
}

func (s *HandlerSuite) TestRequestValidation() {
	s.Run("unknown fields are rejected", func() {
		rec := s.do(http.MethodPost, "/time-logs", s.talent, `{"contract_id":"`+s.contract.String()+`","surprise":true}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("hours above a day", func() {
		rec := s.do(http.MethodPost, "/time-logs", s.talent, map[string]any{
			"contract_id":   s.contract.String(),
			"log_date":      "2024-04-10",
			"hours_worked":  "24.01",
			"task_category": "development",
		})
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
	})

	s.Run("bad log id in path", func() {
		rec := s.do(http.MethodGet, "/time-logs/not-a-uuid", s.talent, nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("bad status filter", func() {
		rec := s.do(http.MethodGet, "/time-logs?status=paid", s.talent, nil)
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
	})

	s.Run("unknown decision", func() {
		created := s.createLog("")
		rec := s.do(http.MethodPost, "/time-logs/"+created.ID.String()+"/decision", s.client, map[string]any{"decision": "maybe"})
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
	})
}

func (s *HandlerSuite) TestUnauthenticatedCallerIsRejected() {
	rec := s.do(http.MethodGet, "/time-logs", id.UserID(uuid.Nil), nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestDeleteDraft() {
	created := s.createLog("")
	rec := s.do(http.MethodDelete, "/time-logs/"+created.ID.String(), s.talent, nil)
	s.Equal(http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/time-logs/"+created.ID.String(), s.talent, nil)
	s.Equal(http.StatusNotFound, rec.Code)
}
