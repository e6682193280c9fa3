package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[ErrorKind]int{
		KindNotFound:            http.StatusNotFound,
		KindInvalidTransition:   http.StatusUnprocessableEntity,
		KindPreconditionFailed:  http.StatusUnprocessableEntity,
		KindForbidden:           http.StatusForbidden,
		KindConflict:            http.StatusConflict,
		KindBusy:                http.StatusTooManyRequests,
		KindUpstreamUnavailable: http.StatusBadGateway,
		KindValidation:          http.StatusBadRequest,
		KindUnauthorized:        http.StatusUnauthorized,
		KindInternal:            http.StatusInternalServerError,
	}
	for kind, want := range cases {
		err := NewDomainError(kind, "msg", "GRV-1", nil)
		assert.Equal(t, want, err.HTTPStatus(), "kind %s", kind)
	}
}

func TestIsKindThroughWrapping(t *testing.T) {
	base := NewInvalidTransition("GRV-1", "SUBMITTED", "CLOSED")
	wrapped := fmt.Errorf("applying: %w", base)

	assert.True(t, IsKind(wrapped, KindInvalidTransition))
	assert.False(t, IsKind(wrapped, KindNotFound))
	assert.False(t, IsKind(errors.New("plain"), KindInvalidTransition))
	assert.False(t, IsKind(nil, KindInvalidTransition))
}

func TestToDomainError(t *testing.T) {
	domainErr := ToDomainError(NewNotFound("GRV-1"))
	require.NotNil(t, domainErr)
	assert.Equal(t, KindNotFound, domainErr.Kind)
	assert.Equal(t, "GRV-1", domainErr.TicketID)

	generic := ToDomainError(errors.New("boom"))
	require.NotNil(t, generic)
	assert.Equal(t, KindInternal, generic.Kind)
	assert.EqualError(t, generic.Unwrap(), "boom")

	assert.Nil(t, ToDomainError(nil))
}

func TestNewInvalidTransitionMessage(t *testing.T) {
	err := NewInvalidTransition("GRV-1", "RESOLVED", "SUBMITTED")
	assert.Contains(t, err.Error(), "RESOLVED")
	assert.Contains(t, err.Error(), "SUBMITTED")
}
