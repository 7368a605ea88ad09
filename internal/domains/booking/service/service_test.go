package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"sala/config"
	kafkaMocks "sala/infras/kafka/mocks"
	"sala/infras/otel/mocks"
	postgresMocks "sala/infras/postgres/mocks"
	bookingMocks "sala/internal/domains/booking/mocks"
	"sala/internal/domains/booking/model"
	"sala/internal/domains/booking/model/dto"
	"sala/internal/domains/booking/service"
	roomMocks "sala/internal/domains/room/mocks"
	roomModel "sala/internal/domains/room/model"
	"sala/shared/cache"
	cacheMocks "sala/shared/cache/mocks"
	"sala/shared/constant"
	gDto "sala/shared/dto"
	"sala/shared/failure"
	gModel "sala/shared/model"
	"sala/shared/timezone"
)

type bookingServiceMocks struct {
	repo     *bookingMocks.MockBooking
	roomRepo *roomMocks.MockRoom
	txRunner *postgresMocks.MockTxRunner
	cache    *cacheMocks.MockRedisCache
	kafka    *kafkaMocks.MockClient
}

func newBookingService(ctrl *gomock.Controller) (service.Booking, bookingServiceMocks) {
	m := bookingServiceMocks{
		repo:     bookingMocks.NewMockBooking(ctrl),
		roomRepo: roomMocks.NewMockRoom(ctrl),
		txRunner: postgresMocks.NewMockTxRunner(ctrl),
		cache:    cacheMocks.NewMockRedisCache(ctrl),
		kafka:    kafkaMocks.NewMockClient(ctrl),
	}

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600
	cfg.Booking.EmailDomain = ".edu.br"
	cfg.Kafka.Topic.BookingEvents = "booking-events"

	m.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	m.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	m.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	m.kafka.EXPECT().SendMessages(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	svc := service.New(m.repo, m.roomRepo, m.txRunner, cfg, m.cache, m.kafka, mocks.NewOtel())

	return svc, m
}

func runSerializableTx(m bookingServiceMocks) {
	m.txRunner.EXPECT().
		WithSerializableTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
			return fn(nil)
		})
}

func futureDate() string {
	return timezone.Today().AddDate(0, 0, 7).Format(constant.CalendarFormat)
}

func TestBookingService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, m := newBookingService(ctrl)

	validReq := func() dto.CreateBookingRequest {
		return dto.CreateBookingRequest{
			RoomID:      "room-1",
			ClientName:  "Maria Silva",
			ClientEmail: "maria@ufrj.edu.br",
			Date:        futureDate(),
			StartTime:   "10:00",
			EndTime:     "11:00",
		}
	}

	expectRoomFound := func() {
		m.roomRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(roomModel.Room{ID: "room-1", Name: "Sala 101", Capacity: 30}, nil)
	}

	tests := []struct {
		name      string
		req       func() dto.CreateBookingRequest
		setupMock func()
		wantErr   bool
		wantCode  int
	}{
		{
			name: "successful booking",
			req:  validReq,
			setupMock: func() {
				expectRoomFound()
				runSerializableTx(m)

				m.repo.EXPECT().
					ExistsOverlap(gomock.Any(), gomock.Any(), "room-1", gomock.Any(), 600, 660, "").
					Return(false, nil)

				m.repo.EXPECT().
					InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantErr: false,
		},
		{
			name: "overlapping booking rejected",
			req:  validReq,
			setupMock: func() {
				expectRoomFound()
				runSerializableTx(m)

				m.repo.EXPECT().
					ExistsOverlap(gomock.Any(), gomock.Any(), "room-1", gomock.Any(), 600, 660, "").
					Return(true, nil)
			},
			wantErr:  true,
			wantCode: http.StatusConflict,
		},
		{
			name: "adjacent booking allowed",
			req: func() dto.CreateBookingRequest {
				req := validReq()
				req.StartTime = "11:00"
				req.EndTime = "12:00"

				return req
			},
			setupMock: func() {
				expectRoomFound()
				runSerializableTx(m)

				m.repo.EXPECT().
					ExistsOverlap(gomock.Any(), gomock.Any(), "room-1", gomock.Any(), 660, 720, "").
					Return(false, nil)

				m.repo.EXPECT().
					InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantErr: false,
		},
		{
			name: "exclusion constraint race maps to conflict",
			req:  validReq,
			setupMock: func() {
				expectRoomFound()
				runSerializableTx(m)

				m.repo.EXPECT().
					ExistsOverlap(gomock.Any(), gomock.Any(), "room-1", gomock.Any(), 600, 660, "").
					Return(false, nil)

				m.repo.EXPECT().
					InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(&pq.Error{Code: pq.ErrorCode(constant.PqErrorCodeExclusionViolation)})
			},
			wantErr:  true,
			wantCode: http.StatusConflict,
		},
		{
			name: "end time before start time",
			req: func() dto.CreateBookingRequest {
				req := validReq()
				req.StartTime = "11:00"
				req.EndTime = "10:00"

				return req
			},
			setupMock: func() {},
			wantErr:   true,
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "zero length booking rejected",
			req: func() dto.CreateBookingRequest {
				req := validReq()
				req.StartTime = "10:00"
				req.EndTime = "10:00"

				return req
			},
			setupMock: func() {},
			wantErr:   true,
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "non institutional email rejected",
			req: func() dto.CreateBookingRequest {
				req := validReq()
				req.ClientEmail = "maria@gmail.com"

				return req
			},
			setupMock: func() {},
			wantErr:   true,
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "past date rejected",
			req: func() dto.CreateBookingRequest {
				req := validReq()
				req.Date = timezone.Today().AddDate(0, 0, -1).Format(constant.CalendarFormat)

				return req
			},
			setupMock: func() {},
			wantErr:   true,
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "room not found",
			req:  validReq,
			setupMock: func() {
				m.roomRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(roomModel.Room{}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			ctx := context.WithValue(context.Background(), constant.ContextKeyClientID, "test-client")
			res, err := svc.Create(ctx, tt.req())

			if tt.wantErr {
				assert.Error(t, err)

				if tt.wantCode != 0 {
					assert.Equal(t, tt.wantCode, failure.GetCode(err))
				}
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "room-1", res.RoomID)
				assert.Equal(t, "Sala 101", res.RoomName)
				assert.NotEmpty(t, res.ID)
			}
		})
	}
}

func TestBookingService_Update(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, m := newBookingService(ctrl)

	bookingDate, _ := timezone.Parse(constant.CalendarFormat, futureDate())
	current := model.Booking{
		ID:          "booking-1",
		RoomID:      "room-1",
		RoomName:    "Sala 101",
		ClientName:  "Maria Silva",
		ClientEmail: "maria@ufrj.edu.br",
		BookingDate: bookingDate,
		StartTime:   600,
		EndTime:     660,
	}

	tests := []struct {
		name      string
		req       dto.UpdateBookingRequest
		id        string
		setupMock func()
		wantErr   bool
		wantCode  int
	}{
		{
			name: "metadata only update skips conflict check",
			req: dto.UpdateBookingRequest{
				ClientName: "João Souza",
			},
			id: "booking-1",
			setupMock: func() {
				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(current, nil)

				m.repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantErr: false,
		},
		{
			name: "time change re-runs conflict check excluding itself",
			req: dto.UpdateBookingRequest{
				StartTime: "14:00",
				EndTime:   "15:00",
			},
			id: "booking-1",
			setupMock: func() {
				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(current, nil)

				runSerializableTx(m)

				m.repo.EXPECT().
					ExistsOverlap(gomock.Any(), gomock.Any(), "room-1", gomock.Any(), 840, 900, "booking-1").
					Return(false, nil)

				m.repo.EXPECT().
					UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantErr: false,
		},
		{
			name: "restating the same window skips conflict check",
			req: dto.UpdateBookingRequest{
				StartTime: "10:00",
				EndTime:   "11:00",
			},
			id: "booking-1",
			setupMock: func() {
				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(current, nil)

				m.repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantErr: false,
		},
		{
			name: "time change conflicting with another booking",
			req: dto.UpdateBookingRequest{
				StartTime: "14:00",
				EndTime:   "15:00",
			},
			id: "booking-1",
			setupMock: func() {
				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(current, nil)

				runSerializableTx(m)

				m.repo.EXPECT().
					ExistsOverlap(gomock.Any(), gomock.Any(), "room-1", gomock.Any(), 840, 900, "booking-1").
					Return(true, nil)
			},
			wantErr:  true,
			wantCode: http.StatusConflict,
		},
		{
			name: "room change validates target room",
			req: dto.UpdateBookingRequest{
				RoomID: "room-2",
			},
			id: "booking-1",
			setupMock: func() {
				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(current, nil)

				m.roomRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(roomModel.Room{ID: "room-2", Name: "Auditório Principal", Capacity: 100}, nil)

				runSerializableTx(m)

				m.repo.EXPECT().
					ExistsOverlap(gomock.Any(), gomock.Any(), "room-2", gomock.Any(), 600, 660, "booking-1").
					Return(false, nil)

				m.repo.EXPECT().
					UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantErr: false,
		},
		{
			name: "target room not found",
			req: dto.UpdateBookingRequest{
				RoomID: "missing",
			},
			id: "booking-1",
			setupMock: func() {
				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(current, nil)

				m.roomRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(roomModel.Room{}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusNotFound,
		},
		{
			name: "invalid merged window rejected",
			req: dto.UpdateBookingRequest{
				EndTime: "09:00",
			},
			id: "booking-1",
			setupMock: func() {
				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(current, nil)
			},
			wantErr:  true,
			wantCode: http.StatusBadRequest,
		},
		{
			name:      "empty request",
			req:       dto.UpdateBookingRequest{},
			id:        "booking-1",
			setupMock: func() {},
			wantErr:   true,
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "booking not found",
			req: dto.UpdateBookingRequest{
				ClientName: "João Souza",
			},
			id: "missing",
			setupMock: func() {
				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Booking{}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			ctx := context.WithValue(context.Background(), constant.ContextKeyClientID, "test-client")
			res, err := svc.Update(ctx, tt.req, tt.id)

			if tt.wantErr {
				assert.Error(t, err)

				if tt.wantCode != 0 {
					assert.Equal(t, tt.wantCode, failure.GetCode(err))
				}
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.id, res.ID)
			}
		})
	}
}

func TestBookingService_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, m := newBookingService(ctrl)

	tests := []struct {
		name      string
		id        string
		setupMock func()
		wantErr   bool
		wantCode  int
	}{
		{
			name: "successful delete",
			id:   "booking-1",
			setupMock: func() {
				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Booking{ID: "booking-1", RoomID: "room-1"}, nil)

				m.repo.EXPECT().
					Delete(gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantErr: false,
		},
		{
			name: "booking not found",
			id:   "missing",
			setupMock: func() {
				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Booking{}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusNotFound,
		},
		{
			name: "repository error",
			id:   "booking-1",
			setupMock: func() {
				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Booking{ID: "booking-1"}, nil)

				m.repo.EXPECT().
					Delete(gomock.Any(), gomock.Any()).
					Return(errors.New("database error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			err := svc.Delete(context.Background(), tt.id)

			if tt.wantErr {
				assert.Error(t, err)

				if tt.wantCode != 0 {
					assert.Equal(t, tt.wantCode, failure.GetCode(err))
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBookingService_CheckAvailability(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, m := newBookingService(ctrl)

	rooms := []roomModel.Room{
		{ID: "room-1", Name: "Sala 101", Capacity: 30},
		{ID: "room-2", Name: "Auditório Principal", Capacity: 100},
		{ID: "room-3", Name: "Sala de Conferência A", Capacity: 20},
	}

	req := dto.CheckAvailabilityRequest{
		Date:      futureDate(),
		StartTime: "10:00",
		EndTime:   "11:00",
	}

	t.Run("partitions rooms into available and booked", func(t *testing.T) {
		m.roomRepo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(rooms, nil)

		m.repo.EXPECT().
			ConflictingRoomIDs(gomock.Any(), gomock.Any(), 600, 660).
			Return([]string{"room-2"}, nil)

		res, err := svc.CheckAvailability(context.Background(), req)

		assert.NoError(t, err)
		assert.Equal(t, []dto.RoomSummary{
			{ID: "room-1", Name: "Sala 101", Capacity: 30},
			{ID: "room-3", Name: "Sala de Conferência A", Capacity: 20},
		}, res.AvailableRooms)
		assert.Equal(t, []string{"room-2"}, res.BookedRooms)
	})

	t.Run("is idempotent across repeated calls", func(t *testing.T) {
		m.roomRepo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(rooms, nil).
			Times(2)

		m.repo.EXPECT().
			ConflictingRoomIDs(gomock.Any(), gomock.Any(), 600, 660).
			Return([]string{"room-2"}, nil).
			Times(2)

		first, err := svc.CheckAvailability(context.Background(), req)
		assert.NoError(t, err)

		second, err := svc.CheckAvailability(context.Background(), req)
		assert.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("no rooms yields empty lists", func(t *testing.T) {
		m.roomRepo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]roomModel.Room{}, nil)

		m.repo.EXPECT().
			ConflictingRoomIDs(gomock.Any(), gomock.Any(), 600, 660).
			Return([]string{}, nil)

		res, err := svc.CheckAvailability(context.Background(), req)

		assert.NoError(t, err)
		assert.Empty(t, res.AvailableRooms)
		assert.Empty(t, res.BookedRooms)
		assert.NotNil(t, res.AvailableRooms)
		assert.NotNil(t, res.BookedRooms)
	})

	t.Run("invalid window rejected", func(t *testing.T) {
		badReq := req
		badReq.StartTime = "11:00"
		badReq.EndTime = "10:00"

		_, err := svc.CheckAvailability(context.Background(), badReq)

		assert.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})
}

func TestBookingService_AvailableTimes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, m := newBookingService(ctrl)

	rooms := []roomModel.Room{
		{ID: "room-1", Name: "Sala 101", Capacity: 30},
		{ID: "room-2", Name: "Auditório Principal", Capacity: 100},
	}

	t.Run("lists booked slots per room", func(t *testing.T) {
		m.roomRepo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(rooms, nil)

		m.repo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]model.Booking{
				{ID: "booking-1", RoomID: "room-1", StartTime: 600, EndTime: 660},
				{ID: "booking-2", RoomID: "room-1", StartTime: 840, EndTime: 900},
			}, nil)

		res, err := svc.AvailableTimes(context.Background(), futureDate())

		assert.NoError(t, err)
		assert.Len(t, res.AvailableRooms, 2)
		assert.Equal(t, []dto.BookedSlot{
			{StartTime: "10:00", EndTime: "11:00"},
			{StartTime: "14:00", EndTime: "15:00"},
		}, res.BookedSlots["room-1"])
		assert.Empty(t, res.BookedSlots["room-2"])
	})

	t.Run("invalid date rejected", func(t *testing.T) {
		_, err := svc.AvailableTimes(context.Background(), "31-12-2026")

		assert.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})
}

func TestBookingService_Get(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, m := newBookingService(ctrl)

	bookingDate, _ := timezone.Parse(constant.CalendarFormat, "2026-09-15")

	t.Run("formats stored minutes back to clock strings", func(t *testing.T) {
		m.cache.EXPECT().
			Get(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(cache.Nil)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Booking{
				ID:          "booking-1",
				RoomID:      "room-1",
				RoomName:    "Sala 101",
				ClientName:  "Maria Silva",
				ClientEmail: "maria@ufrj.edu.br",
				BookingDate: bookingDate,
				StartTime:   600,
				EndTime:     705,
				Metadata:    gModel.Metadata{CreatedAt: time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)},
			}, nil)

		res, err := svc.Get(context.Background(), "booking-1")

		assert.NoError(t, err)
		assert.Equal(t, "2026-09-15", res.Date)
		assert.Equal(t, "10:00", res.StartTime)
		assert.Equal(t, "11:45", res.EndTime)
		assert.Equal(t, "Sala 101", res.RoomName)
	})

	t.Run("booking not found", func(t *testing.T) {
		m.cache.EXPECT().
			Get(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(cache.Nil)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Booking{}, nil)

		_, err := svc.Get(context.Background(), "missing")

		assert.Error(t, err)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})
}

func TestBookingService_GetAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, m := newBookingService(ctrl)

	t.Run("successful get all", func(t *testing.T) {
		m.cache.EXPECT().
			Get(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(cache.Nil).
			Times(2)

		m.repo.EXPECT().
			Count(gomock.Any(), gomock.Any()).
			Return(1, nil)

		m.repo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]model.Booking{
				{ID: "booking-1", RoomID: "room-1", RoomName: "Sala 101", StartTime: 600, EndTime: 660},
			}, nil)

		res, err := svc.GetAll(context.Background(), gDto.QueryParams{Limit: 10, Page: 1}, gDto.FilterGroup{})

		assert.NoError(t, err)
		assert.Equal(t, 1, res.TotalData)
		assert.Len(t, res.Bookings, 1)
		assert.Equal(t, "Sala 101", res.Bookings[0].RoomName)
	})

	t.Run("repository error", func(t *testing.T) {
		m.cache.EXPECT().
			Get(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(cache.Nil).
			Times(2)

		m.repo.EXPECT().
			Count(gomock.Any(), gomock.Any()).
			Return(0, errors.New("database error"))

		_, err := svc.GetAll(context.Background(), gDto.QueryParams{Limit: 10, Page: 1}, gDto.FilterGroup{})

		assert.Error(t, err)
	})
}
