// Package testutil holds request builders and assertions shared by handler
// and end-to-end tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ErrorBody mirrors the JSON written by httputil.WriteError.
type ErrorBody struct {
	Error            string   `json:"error"`
	ErrorDescription string   `json:"error_description"`
	Details          []string `json:"details"`
}

// NewJSONRequest builds a request whose body is body marshaled to JSON. A nil
// body sends none.
func NewJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err, "marshal request body")
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// DoRequest runs req through handler.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// Decode asserts the status and unmarshals the body into T.
func Decode[T any](t *testing.T, rr *httptest.ResponseRecorder, status int) T {
	t.Helper()
	require.Equal(t, status, rr.Code, "unexpected status, body: %s", rr.Body.String())
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), "unmarshal response")
	return out
}

// AssertError checks the status and the error code of an error response.
func AssertError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) ErrorBody {
	t.Helper()
	body := Decode[ErrorBody](t, rr, status)
	assert.Equal(t, code, body.Error, "unexpected error code")
	return body
}
