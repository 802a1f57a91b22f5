package testutil

import (
	"net/http"

	id "contractpay/pkg/domain"
	"contractpay/pkg/requestcontext"
)

// WithUser puts userID on the request context the way the auth middleware
// does, for handlers tested without it.
func WithUser(req *http.Request, userID id.UserID) *http.Request {
	return req.WithContext(requestcontext.WithUserID(req.Context(), userID))
}

// WithBearer sets the Authorization header for tests that go through the
// auth middleware.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
