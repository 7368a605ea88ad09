package dto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sala/shared/dto"
)

func TestFilter_GetWhereClause(t *testing.T) {
	tests := []struct {
		name      string
		filter    dto.Filter
		wantWhere string
		wantArgs  map[string]any
	}{
		{
			name: "eq with table prefix",
			filter: dto.Filter{
				Field:    "room_id",
				Value:    "room-1",
				Operator: dto.FilterOperatorEq,
				Table:    "bookings",
			},
			wantWhere: "bookings.room_id = :room_id",
			wantArgs:  map[string]any{"room_id": "room-1"},
		},
		{
			name: "eq without table",
			filter: dto.Filter{
				Field:    "id",
				Value:    "abc",
				Operator: dto.FilterOperatorEq,
			},
			wantWhere: "id = :id",
			wantArgs:  map[string]any{"id": "abc"},
		},
		{
			name: "like wraps value in wildcards",
			filter: dto.Filter{
				Field:    "name",
				Value:    "Sala",
				Operator: dto.FilterOperatorLike,
				Table:    "rooms",
			},
			wantWhere: "LOWER(rooms.name) LIKE LOWER(:name) ",
			wantArgs:  map[string]any{"name": "%Sala%"},
		},
		{
			name: "less with custom arg name",
			filter: dto.Filter{
				ArgName:  "start_before",
				Field:    "start_time",
				Value:    660,
				Operator: dto.FilterOperatorLess,
				Table:    "bookings",
			},
			wantWhere: "bookings.start_time < :start_before",
			wantArgs:  map[string]any{"start_before": 660},
		},
		{
			name: "unknown operator yields empty clause",
			filter: dto.Filter{
				Field:    "id",
				Value:    "abc",
				Operator: "between",
			},
			wantWhere: "",
			wantArgs:  map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := tt.filter.GetWhereClause()

			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestFilter_GetWhereClause_In(t *testing.T) {
	filter := dto.Filter{
		Field:    "room_id",
		Value:    []string{"room-1", "room-2"},
		Operator: dto.FilterOperatorIn,
		Table:    "bookings",
	}

	where, args := filter.GetWhereClause()

	assert.Equal(t, "bookings.room_id IN (:room_id_0, :room_id_1) ", where)
	assert.Equal(t, map[string]any{"room_id_0": "room-1", "room_id_1": "room-2"}, args)
}

func TestFilterGroup_GetWhereClause(t *testing.T) {
	t.Run("joins filters with the group operator", func(t *testing.T) {
		group := dto.FilterGroup{
			Operator: dto.FilterGroupOperatorAnd,
			Filters: []any{
				dto.Filter{
					Field:    "room_id",
					Value:    "room-1",
					Operator: dto.FilterOperatorEq,
					Table:    "bookings",
				},
				dto.Filter{
					Field:    "booking_date",
					Value:    "2026-09-15",
					Operator: dto.FilterOperatorEq,
					Table:    "bookings",
				},
			},
		}

		where, args := group.GetWhereClause()

		assert.Equal(t, "(bookings.room_id = :room_id AND bookings.booking_date = :booking_date)", where)
		assert.Len(t, args, 2)
	})

	t.Run("empty group yields empty clause", func(t *testing.T) {
		group := dto.FilterGroup{}

		where, args := group.GetWhereClause()

		assert.Empty(t, where)
		assert.Empty(t, args)
	})

	t.Run("nested groups are flattened into one clause", func(t *testing.T) {
		group := dto.FilterGroup{
			Operator: dto.FilterGroupOperatorOr,
			Filters: []any{
				dto.Filter{
					Field:    "id",
					Value:    "abc",
					Operator: dto.FilterOperatorEq,
				},
				dto.FilterGroup{
					Operator: dto.FilterGroupOperatorAnd,
					Filters: []any{
						dto.Filter{
							Field:    "capacity",
							Value:    30,
							Operator: dto.FilterOperatorGreaterEq,
						},
					},
				},
			},
		}

		where, args := group.GetWhereClause()

		assert.Equal(t, "(id = :id OR (capacity >= :capacity))", where)
		assert.Len(t, args, 2)
	})
}
