package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode_ThroughWrapping(t *testing.T) {
	base := New(CodeAlreadyRegistered, "already registered")
	wrapped := fmt.Errorf("register: %w", base)

	assert.True(t, HasCode(wrapped, CodeAlreadyRegistered))
	assert.False(t, HasCode(wrapped, CodeConflict))
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeUnavailable, "storage unavailable")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeUnavailable, CodeOf(err))
	assert.Equal(t, "storage unavailable: connection refused", err.Error())
}

func TestCodeOf_DefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:             http.StatusBadRequest,
		CodeUnauthorized:           http.StatusUnauthorized,
		CodeInsufficientAttendance: http.StatusForbidden,
		CodeNotFound:               http.StatusNotFound,
		CodeExamNotOpen:            http.StatusConflict,
		CodeAlreadyRegistered:      http.StatusConflict,
		CodeAmountMismatch:         http.StatusUnprocessableEntity,
		CodeTimeout:                http.StatusServiceUnavailable,
		CodeUnavailable:            http.StatusServiceUnavailable,
		CodeInternal:               http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}

func TestPublicCode(t *testing.T) {
	assert.Equal(t, "ALREADY_REGISTERED", PublicCode(CodeAlreadyRegistered))
	assert.Equal(t, "TRANSACTION_TIMEOUT", PublicCode(CodeTimeout))
	assert.Equal(t, "STORAGE_UNAVAILABLE", PublicCode(CodeUnavailable))
	assert.Equal(t, "BAD_REQUEST", PublicCode(CodeValidation))
	assert.Equal(t, "INTERNAL_ERROR", PublicCode(Code("unknown")))
}
