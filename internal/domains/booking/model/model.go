package model

import (
	"time"

	"sala/shared/model"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	FieldID          = "id"
	FieldRoomID      = "room_id"
	FieldClientName  = "client_name"
	FieldClientEmail = "client_email"
	FieldBookingDate = "booking_date"
	FieldStartTime   = "start_time"
	FieldEndTime     = "end_time"
)

// Booking stores its time window as minutes from midnight so overlap
// checks stay integer comparisons end to end. RoomName is read from the
// rooms table on every select instead of being copied at write time.
type Booking struct {
	ID          string    `db:"id"`
	RoomID      string    `db:"room_id"`
	RoomName    string    `db:"room_name" table:"rooms" column:"name"`
	ClientName  string    `db:"client_name"`
	ClientEmail string    `db:"client_email"`
	BookingDate time.Time `db:"booking_date"`
	StartTime   int       `db:"start_time"`
	EndTime     int       `db:"end_time"`
	model.Metadata
}

func (Booking) GetJoinQuery() string {
	return "JOIN rooms ON rooms.id = bookings.room_id"
}
