package dto_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"sala/shared/dto"
)

func TestQueryParamsFromRequest(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		defaultRequest bool
		want           dto.QueryParams
	}{
		{
			name:           "bare request without defaults stays unpaginated",
			url:            "/api/bookings",
			defaultRequest: false,
			want:           dto.QueryParams{},
		},
		{
			name:           "bare request with defaults gets page and limit",
			url:            "/api/bookings",
			defaultRequest: true,
			want:           dto.QueryParams{Page: 1, Limit: 10},
		},
		{
			name:           "explicit page and limit honored without defaults",
			url:            "/api/bookings?page=2&limit=5",
			defaultRequest: false,
			want:           dto.QueryParams{Page: 2, Limit: 5},
		},
		{
			name:           "sorting parsed and direction uppercased",
			url:            "/api/bookings?sort_by=booking_date&sort_dir=desc",
			defaultRequest: false,
			want:           dto.QueryParams{SortBy: "booking_date", SortDir: "DESC"},
		},
		{
			name:           "non positive values ignored",
			url:            "/api/bookings?page=0&limit=-3",
			defaultRequest: false,
			want:           dto.QueryParams{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)

			params := dto.QueryParams{}
			params.FromRequest(r, tt.defaultRequest)

			assert.Equal(t, tt.want, params)
		})
	}
}
