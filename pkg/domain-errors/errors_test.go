package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCodeThroughWrapping(t *testing.T) {
	base := New(CodeConflict, "time log is not submitted")
	wrapped := fmt.Errorf("decide: %w", base)

	assert.True(t, HasCode(wrapped, CodeConflict))
	assert.False(t, HasCode(wrapped, CodeNotFound))
	assert.Equal(t, CodeConflict, CodeOf(wrapped))
}

func TestCodeOfUncodedErrorIsInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "failed to fund escrow")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to fund escrow: connection refused", err.Error())
}

func TestWithDetailsCopies(t *testing.T) {
	base := New(CodeConflict, "batch rejected")
	withIDs := base.WithDetails("a", "b")

	assert.Empty(t, base.Details)
	assert.Equal(t, []string{"a", "b"}, withIDs.Details)
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeBadRequest:   http.StatusBadRequest,
		CodeValidation:   http.StatusUnprocessableEntity,
		CodeUnauthorized: http.StatusUnauthorized,
		CodeForbidden:    http.StatusForbidden,
		CodeNotFound:     http.StatusNotFound,
		CodeConflict:     http.StatusConflict,
		CodeInternal:     http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, HTTPStatus(code), code)
	}
}
