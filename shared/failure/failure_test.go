package failure_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"sala/shared/failure"
)

func TestFailureCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{
			name:     "bad request from error",
			err:      failure.BadRequest(errors.New("invalid payload")),
			wantCode: http.StatusBadRequest,
			wantMsg:  "invalid payload",
		},
		{
			name:     "bad request from string",
			err:      failure.BadRequestFromString("endTime must be after startTime"),
			wantCode: http.StatusBadRequest,
			wantMsg:  "endTime must be after startTime",
		},
		{
			name:     "not found",
			err:      failure.NotFound("room not found"),
			wantCode: http.StatusNotFound,
			wantMsg:  "room not found",
		},
		{
			name:     "conflict",
			err:      failure.Conflict("room is already booked for this time"),
			wantCode: http.StatusConflict,
			wantMsg:  "room is already booked for this time",
		},
		{
			name:     "internal error",
			err:      failure.InternalError(errors.New("connection refused")),
			wantCode: http.StatusInternalServerError,
			wantMsg:  "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, failure.GetCode(tt.err))
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestGetCode_UnknownError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, failure.GetCode(errors.New("plain error")))
}

func TestGetCode_WrappedFailure(t *testing.T) {
	wrapped := fmt.Errorf("failed to create booking: %w", failure.Conflict("room is already booked for this time"))

	assert.Equal(t, http.StatusConflict, failure.GetCode(wrapped))
	assert.True(t, failure.IsCode(wrapped, http.StatusConflict))
	assert.False(t, failure.IsCode(wrapped, http.StatusNotFound))
}

func TestBadRequest_NilError(t *testing.T) {
	assert.NoError(t, failure.BadRequest(nil))
	assert.NoError(t, failure.InternalError(nil))
}
