package validator_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"sala/shared/failure"
	"sala/shared/validator"
)

type bookingPayload struct {
	RoomID      string `json:"roomId" validate:"required,uuid4"`
	ClientEmail string `json:"clientEmail" validate:"required,email"`
	Date        string `json:"date" validate:"required,calendar"`
	StartTime   string `json:"startTime" validate:"required,clock"`
	EndTime     string `json:"endTime" validate:"required,clock"`
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{
			name:    "valid payload",
			body:    `{"roomId":"7f9c44cb-7c06-4c55-9668-6f504b294b34","clientEmail":"maria@ufrj.edu.br","date":"2026-09-15","startTime":"10:00","endTime":"11:00"}`,
			wantErr: false,
		},
		{
			name:    "missing required field",
			body:    `{"clientEmail":"maria@ufrj.edu.br","date":"2026-09-15","startTime":"10:00","endTime":"11:00"}`,
			wantErr: true,
		},
		{
			name:    "malformed json",
			body:    `{"roomId":`,
			wantErr: true,
		},
		{
			name:    "invalid email",
			body:    `{"roomId":"7f9c44cb-7c06-4c55-9668-6f504b294b34","clientEmail":"not-an-email","date":"2026-09-15","startTime":"10:00","endTime":"11:00"}`,
			wantErr: true,
		},
		{
			name:    "invalid date format",
			body:    `{"roomId":"7f9c44cb-7c06-4c55-9668-6f504b294b34","clientEmail":"maria@ufrj.edu.br","date":"15/09/2026","startTime":"10:00","endTime":"11:00"}`,
			wantErr: true,
		},
		{
			name:    "time without leading zero",
			body:    `{"roomId":"7f9c44cb-7c06-4c55-9668-6f504b294b34","clientEmail":"maria@ufrj.edu.br","date":"2026-09-15","startTime":"9:00","endTime":"11:00"}`,
			wantErr: true,
		},
		{
			name:    "hour out of range",
			body:    `{"roomId":"7f9c44cb-7c06-4c55-9668-6f504b294b34","clientEmail":"maria@ufrj.edu.br","date":"2026-09-15","startTime":"24:00","endTime":"25:00"}`,
			wantErr: true,
		},
		{
			name:    "signed hour",
			body:    `{"roomId":"7f9c44cb-7c06-4c55-9668-6f504b294b34","clientEmail":"maria@ufrj.edu.br","date":"2026-09-15","startTime":"+1:05","endTime":"11:00"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := bookingPayload{}
			err := validator.Validate(strings.NewReader(tt.body), &payload)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateStruct_OptionalFields(t *testing.T) {
	type updatePayload struct {
		ClientEmail string `json:"clientEmail" validate:"omitempty,email"`
		StartTime   string `json:"startTime" validate:"omitempty,clock"`
	}

	t.Run("empty optional fields pass", func(t *testing.T) {
		payload := updatePayload{}
		assert.NoError(t, validator.ValidateStruct(&payload))
	})

	t.Run("present optional fields are validated", func(t *testing.T) {
		payload := updatePayload{StartTime: "10h30"}
		assert.Error(t, validator.ValidateStruct(&payload))
	})
}
