package dto

import (
	"time"

	"sala/internal/domains/booking/model"
	roomModel "sala/internal/domains/room/model"
	"sala/shared"
	"sala/shared/constant"
	"sala/shared/interval"
	gModel "sala/shared/model"
	"sala/shared/timezone"

	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	RoomID      string `json:"roomId" validate:"required,uuid4"`
	ClientName  string `json:"clientName" validate:"required,max=100"`
	ClientEmail string `json:"clientEmail" validate:"required,email"`
	Date        string `json:"date" validate:"required,calendar"`
	StartTime   string `json:"startTime" validate:"required,clock"`
	EndTime     string `json:"endTime" validate:"required,clock"`
}

// ToModel assumes the request already passed validation, so the date and
// clock strings are known to parse.
func (c *CreateBookingRequest) ToModel(user string) model.Booking {
	date, _ := timezone.Parse(constant.CalendarFormat, c.Date)
	startMin, _ := interval.ToMinutes(c.StartTime)
	endMin, _ := interval.ToMinutes(c.EndTime)

	return model.Booking{
		ID:          uuid.NewString(),
		RoomID:      c.RoomID,
		ClientName:  c.ClientName,
		ClientEmail: c.ClientEmail,
		BookingDate: date,
		StartTime:   startMin,
		EndTime:     endMin,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type UpdateBookingRequest struct {
	RoomID      string `json:"roomId" validate:"omitempty,uuid4"`
	ClientName  string `json:"clientName" validate:"omitempty,max=100"`
	ClientEmail string `json:"clientEmail" validate:"omitempty,email"`
	Date        string `json:"date" validate:"omitempty,calendar"`
	StartTime   string `json:"startTime" validate:"omitempty,clock"`
	EndTime     string `json:"endTime" validate:"omitempty,clock"`
}

type BookingResponse struct {
	ID          string `json:"id"`
	RoomID      string `json:"roomId"`
	RoomName    string `json:"roomName"`
	ClientName  string `json:"clientName"`
	ClientEmail string `json:"clientEmail"`
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	CreatedAt   string `json:"createdAt"`
}

func (b *BookingResponse) FromModel(model model.Booking) {
	b.ID = model.ID
	b.RoomID = model.RoomID
	b.RoomName = model.RoomName
	b.ClientName = model.ClientName
	b.ClientEmail = model.ClientEmail
	b.Date = model.BookingDate.Format(constant.CalendarFormat)
	b.StartTime = interval.FormatMinutes(model.StartTime)
	b.EndTime = interval.FormatMinutes(model.EndTime)
	b.CreatedAt = model.CreatedAt.Format(time.RFC3339)
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"totalPage"`
	TotalData int               `json:"totalData"`
}

func (g *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	bookings := make([]BookingResponse, 0, len(models))

	for _, m := range models {
		booking := BookingResponse{}
		booking.FromModel(m)
		bookings = append(bookings, booking)
	}

	g.Bookings = bookings
	g.TotalData = totalData
	g.TotalPage = shared.CalculateTotalPage(totalData, limit)
}

type CheckAvailabilityRequest struct {
	Date      string `json:"date" validate:"required,calendar"`
	StartTime string `json:"startTime" validate:"required,clock"`
	EndTime   string `json:"endTime" validate:"required,clock"`
}

type CheckAvailabilityResponse struct {
	AvailableRooms []RoomSummary `json:"availableRooms"`
	BookedRooms    []string      `json:"bookedRooms"`
}

type RoomSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

func (r *RoomSummary) FromModel(model roomModel.Room) {
	r.ID = model.ID
	r.Name = model.Name
	r.Capacity = model.Capacity
}

type BookedSlot struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type AvailableTimesResponse struct {
	AvailableRooms []RoomSummary           `json:"availableRooms"`
	BookedSlots    map[string][]BookedSlot `json:"bookedSlots"`
}
