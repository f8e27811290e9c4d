package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osse101/opitemdb/internal/auth"
	"github.com/osse101/opitemdb/internal/domain"
)

func TestMapServiceErrorToUserMessage(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"unauthenticated", domain.ErrUnauthenticated, http.StatusUnauthorized, ErrMsgUnauthenticated},
		{"forbidden wrapped", fmt.Errorf("%w: only moderators", domain.ErrForbidden), http.StatusForbidden, ErrMsgForbidden},
		{"item not found", domain.ErrItemNotFound, http.StatusNotFound, ErrMsgItemNotFoundError},
		{"lookup not found", domain.ErrLookupNotFound, http.StatusNotFound, ErrMsgLookupNotFoundError},
		{"user not found", domain.ErrUserNotFound, http.StatusNotFound, ErrMsgUserNotFoundError},
		{"object not found", domain.ErrObjectNotFound, http.StatusNotFound, ErrMsgObjectNotFoundError},
		{"invalid input", fmt.Errorf("%w: bad", domain.ErrInvalidInput), http.StatusBadRequest, ErrMsgInvalidRequestError},
		{"oauth disabled", auth.ErrOAuthDisabled, http.StatusServiceUnavailable, ErrMsgLoginDisabled},
		{"redirect not allowed", auth.ErrRedirectNotAllowed, http.StatusBadRequest, ErrMsgRedirectNotAllowed},
		{"invalid state", auth.ErrInvalidState, http.StatusBadRequest, ErrMsgInvalidState},
		{"timeout", fmt.Errorf("query: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, ErrMsgTimeoutError},
		{"unknown never leaks", errors.New("pq: relation items does not exist"), http.StatusInternalServerError, ErrMsgGenericServerError},
		{"nil", nil, http.StatusInternalServerError, ErrMsgGenericServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := mapServiceErrorToUserMessage(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestRespondJSON_EncodingFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	respondJSON(rec, http.StatusOK, map[string]any{"bad": make(chan int)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), ErrMsgGenericServerError)
}

func TestRespondServiceError_DoesNotLeakDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	respondServiceError(rec, req, "test", errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}
