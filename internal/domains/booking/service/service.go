package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"sala/config"
	"sala/infras/kafka"
	"sala/infras/otel"
	"sala/infras/postgres"
	"sala/internal/domains/booking/model"
	"sala/internal/domains/booking/model/dto"
	"sala/internal/domains/booking/repository"
	roomModel "sala/internal/domains/room/model"
	roomRepository "sala/internal/domains/room/repository"
	"sala/shared"
	"sala/shared/cache"
	"sala/shared/constant"
	gDto "sala/shared/dto"
	"sala/shared/failure"
	"sala/shared/interval"
	"sala/shared/timezone"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const (
	cacheGetBooking    = "booking:get"
	cacheGetAllBooking = "booking:gets"
	cacheCountBooking  = "booking:count"

	eventActionCreated = "booking.created"
	eventActionUpdated = "booking.updated"
	eventActionDeleted = "booking.deleted"
)

type Booking interface {
	Create(ctx context.Context, req dto.CreateBookingRequest) (dto.BookingResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.BookingResponse, error)
	Update(ctx context.Context, req dto.UpdateBookingRequest, id string) (dto.BookingResponse, error)
	Delete(ctx context.Context, id string) error
	CheckAvailability(ctx context.Context, req dto.CheckAvailabilityRequest) (dto.CheckAvailabilityResponse, error)
	AvailableTimes(ctx context.Context, date string) (dto.AvailableTimesResponse, error)
}

type bookingEvent struct {
	Action      string `json:"action"`
	BookingID   string `json:"bookingId"`
	RoomID      string `json:"roomId"`
	RoomName    string `json:"roomName"`
	ClientName  string `json:"clientName"`
	ClientEmail string `json:"clientEmail"`
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
}

type serviceImpl struct {
	repo     repository.Booking
	roomRepo roomRepository.Room
	db       postgres.TxRunner
	cfg      *config.Config
	cache    cache.RedisCache
	kafka    kafka.Client
	otel     otel.Otel
}

func New(repo repository.Booking, roomRepo roomRepository.Room, db postgres.TxRunner, cfg *config.Config, cache cache.RedisCache, kafkaClient kafka.Client, otel otel.Otel) Booking {
	return &serviceImpl{
		repo:     repo,
		roomRepo: roomRepo,
		db:       db,
		cfg:      cfg,
		cache:    cache,
		kafka:    kafkaClient,
		otel:     otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBookingRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	startMin, endMin, err := s.parseWindow(req.StartTime, req.EndTime)
	if err != nil {
		return res, err
	}

	if err = s.checkEmailDomain(req.ClientEmail); err != nil {
		return res, err
	}

	date, err := s.parseFutureDate(req.Date)
	if err != nil {
		return res, err
	}

	room, err := s.roomRepo.Get(ctx, shared.FilterByID(req.RoomID, roomModel.FieldID, roomModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check room existence")

		return res, fmt.Errorf("failed to check room existence: %w", err)
	}

	if room.ID == constant.Empty {
		return res, failure.NotFound("room not found") // nolint:wrapcheck
	}

	user, _ := ctx.Value(constant.ContextKeyClientID).(string)
	booking := req.ToModel(user)

	err = s.db.WithSerializableTx(ctx, func(tx *sqlx.Tx) error {
		overlap, txErr := s.repo.ExistsOverlap(ctx, tx, booking.RoomID, date, startMin, endMin, constant.Empty)
		if txErr != nil {
			return txErr
		}

		if overlap {
			return failure.Conflict("room is already booked for this time") // nolint:wrapcheck
		}

		return s.repo.InsertTx(ctx, tx, booking)
	})
	if err != nil {
		if conflictErr := asConflict(err); conflictErr != nil {
			return res, conflictErr
		}

		log.Error().Err(err).Msg("failed to create booking")

		return res, fmt.Errorf("failed to create booking: %w", err)
	}

	booking.RoomName = room.Name
	res.FromModel(booking)

	s.afterMutation(ctx, eventActionCreated, booking)

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllBooking, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for bookings")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save bookings to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountBooking, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking count")

		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetBooking, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking")

		return res, nil
	}

	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return res, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return res, failure.NotFound("booking not found") // nolint:wrapcheck
	}

	res.FromModel(booking)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking to cache")
		}
	}()

	return res, nil
}

// Update merges the supplied fields over the stored booking and re-runs
// the conflict check only when the effective room, date or time window
// changed. Client detail edits never touch the serializable path.
func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateBookingRequest, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	if req == (dto.UpdateBookingRequest{}) {
		return res, failure.BadRequestFromString("update request cannot be empty") // nolint:wrapcheck
	}

	current, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return res, fmt.Errorf("failed to get booking: %w", err)
	}

	if current.ID == constant.Empty {
		return res, failure.NotFound("booking not found") // nolint:wrapcheck
	}

	merged, windowChanged, err := s.mergeUpdate(ctx, current, req)
	if err != nil {
		return res, err
	}

	user, _ := ctx.Value(constant.ContextKeyClientID).(string)
	updatedFields := map[string]any{
		model.FieldRoomID:        merged.RoomID,
		model.FieldClientName:    merged.ClientName,
		model.FieldClientEmail:   merged.ClientEmail,
		model.FieldBookingDate:   merged.BookingDate,
		model.FieldStartTime:     merged.StartTime,
		model.FieldEndTime:       merged.EndTime,
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: user,
	}
	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	if windowChanged {
		err = s.db.WithSerializableTx(ctx, func(tx *sqlx.Tx) error {
			overlap, txErr := s.repo.ExistsOverlap(ctx, tx, merged.RoomID, merged.BookingDate, merged.StartTime, merged.EndTime, id)
			if txErr != nil {
				return txErr
			}

			if overlap {
				return failure.Conflict("room is already booked for this time") // nolint:wrapcheck
			}

			return s.repo.UpdateTx(ctx, tx, updatedFields, filter)
		})
	} else {
		err = s.repo.Update(ctx, updatedFields, filter)
	}

	if err != nil {
		if conflictErr := asConflict(err); conflictErr != nil {
			return res, conflictErr
		}

		log.Error().Err(err).Msg("failed to update booking")

		return res, fmt.Errorf("failed to update booking: %w", err)
	}

	res.FromModel(merged)

	s.afterMutation(ctx, eventActionUpdated, merged)

	return res, nil
}

func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer scope.TraceIfError(err)

	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return failure.NotFound("booking not found") // nolint:wrapcheck
	}

	if err = s.repo.Delete(ctx, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to delete booking")

		return fmt.Errorf("failed to delete booking: %w", err)
	}

	s.afterMutation(ctx, eventActionDeleted, booking)

	return nil
}

// CheckAvailability partitions all rooms by whether any of their
// bookings intersect the requested window. A read only operation;
// calling it twice never changes the result.
func (s *serviceImpl) CheckAvailability(ctx context.Context, req dto.CheckAvailabilityRequest) (res dto.CheckAvailabilityResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CheckAvailability")
	defer scope.End()
	defer scope.TraceIfError(err)

	startMin, endMin, err := s.parseWindow(req.StartTime, req.EndTime)
	if err != nil {
		return res, err
	}

	date, err := timezone.Parse(constant.CalendarFormat, req.Date)
	if err != nil {
		return res, failure.BadRequestFromString("date must be in YYYY-MM-DD format") // nolint:wrapcheck
	}

	rooms, err := s.roomRepo.GetAll(ctx, gDto.QueryParams{}, gDto.FilterGroup{})
	if err != nil {
		log.Error().Err(err).Msg("failed to get rooms")

		return res, fmt.Errorf("failed to get rooms: %w", err)
	}

	bookedIDs, err := s.repo.ConflictingRoomIDs(ctx, date, startMin, endMin)
	if err != nil {
		log.Error().Err(err).Msg("failed to get conflicting rooms")

		return res, fmt.Errorf("failed to get conflicting rooms: %w", err)
	}

	booked := make(map[string]bool, len(bookedIDs))
	for _, id := range bookedIDs {
		booked[id] = true
	}

	res.AvailableRooms = []dto.RoomSummary{}
	res.BookedRooms = []string{}

	for _, room := range rooms {
		if booked[room.ID] {
			res.BookedRooms = append(res.BookedRooms, room.ID)

			continue
		}

		summary := dto.RoomSummary{}
		summary.FromModel(room)
		res.AvailableRooms = append(res.AvailableRooms, summary)
	}

	return res, nil
}

// AvailableTimes lists every room together with the minute ranges
// already booked on the given date, so a caller can render free slots.
func (s *serviceImpl) AvailableTimes(ctx context.Context, date string) (res dto.AvailableTimesResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".AvailableTimes")
	defer scope.End()
	defer scope.TraceIfError(err)

	parsedDate, err := timezone.Parse(constant.CalendarFormat, date)
	if err != nil {
		return res, failure.BadRequestFromString("date must be in YYYY-MM-DD format") // nolint:wrapcheck
	}

	rooms, err := s.roomRepo.GetAll(ctx, gDto.QueryParams{}, gDto.FilterGroup{})
	if err != nil {
		log.Error().Err(err).Msg("failed to get rooms")

		return res, fmt.Errorf("failed to get rooms: %w", err)
	}

	bookings, err := s.repo.GetAll(ctx, gDto.QueryParams{
		SortBy:  model.FieldStartTime,
		SortDir: "ASC",
	}, gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldBookingDate,
				Value:    parsedDate,
				Operator: gDto.FilterOperatorEq,
				Table:    model.TableName,
			},
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.AvailableRooms = make([]dto.RoomSummary, 0, len(rooms))
	res.BookedSlots = make(map[string][]dto.BookedSlot, len(rooms))

	for _, room := range rooms {
		summary := dto.RoomSummary{}
		summary.FromModel(room)
		res.AvailableRooms = append(res.AvailableRooms, summary)
		res.BookedSlots[room.ID] = []dto.BookedSlot{}
	}

	for _, booking := range bookings {
		res.BookedSlots[booking.RoomID] = append(res.BookedSlots[booking.RoomID], dto.BookedSlot{
			StartTime: interval.FormatMinutes(booking.StartTime),
			EndTime:   interval.FormatMinutes(booking.EndTime),
		})
	}

	return res, nil
}

func (s *serviceImpl) parseWindow(startTime, endTime string) (int, int, error) {
	startMin, err := interval.ToMinutes(startTime)
	if err != nil {
		return 0, 0, failure.BadRequestFromString("startTime must be in HH:mm format") // nolint:wrapcheck
	}

	endMin, err := interval.ToMinutes(endTime)
	if err != nil {
		return 0, 0, failure.BadRequestFromString("endTime must be in HH:mm format") // nolint:wrapcheck
	}

	if endMin <= startMin {
		return 0, 0, failure.BadRequestFromString("endTime must be after startTime") // nolint:wrapcheck
	}

	return startMin, endMin, nil
}

func (s *serviceImpl) checkEmailDomain(email string) error {
	if !strings.HasSuffix(strings.ToLower(email), s.cfg.Booking.EmailDomain) {
		return failure.BadRequestFromString(fmt.Sprintf("clientEmail must end with %s", s.cfg.Booking.EmailDomain)) // nolint:wrapcheck
	}

	return nil
}

func (s *serviceImpl) parseFutureDate(date string) (time.Time, error) {
	parsed, err := timezone.Parse(constant.CalendarFormat, date)
	if err != nil {
		return time.Time{}, failure.BadRequestFromString("date must be in YYYY-MM-DD format") // nolint:wrapcheck
	}

	if parsed.Before(timezone.Today()) {
		return time.Time{}, failure.BadRequestFromString("date cannot be in the past") // nolint:wrapcheck
	}

	return parsed, nil
}

// mergeUpdate lays the request over the stored booking and reports
// whether the effective room/date/window differs from what is stored.
func (s *serviceImpl) mergeUpdate(ctx context.Context, current model.Booking, req dto.UpdateBookingRequest) (model.Booking, bool, error) {
	merged := current
	windowChanged := false

	if req.RoomID != constant.Empty && req.RoomID != current.RoomID {
		room, err := s.roomRepo.Get(ctx, shared.FilterByID(req.RoomID, roomModel.FieldID, roomModel.TableName))
		if err != nil {
			log.Error().Err(err).Msg("failed to check room existence")

			return merged, false, fmt.Errorf("failed to check room existence: %w", err)
		}

		if room.ID == constant.Empty {
			return merged, false, failure.NotFound("room not found") // nolint:wrapcheck
		}

		merged.RoomID = room.ID
		merged.RoomName = room.Name
		windowChanged = true
	}

	if req.ClientName != constant.Empty {
		merged.ClientName = req.ClientName
	}

	if req.ClientEmail != constant.Empty {
		if err := s.checkEmailDomain(req.ClientEmail); err != nil {
			return merged, false, err
		}

		merged.ClientEmail = req.ClientEmail
	}

	if req.Date != constant.Empty {
		date, err := s.parseFutureDate(req.Date)
		if err != nil {
			return merged, false, err
		}

		if date.Format(constant.CalendarFormat) != current.BookingDate.Format(constant.CalendarFormat) {
			merged.BookingDate = date
			windowChanged = true
		}
	}

	if req.StartTime != constant.Empty {
		startMin, err := interval.ToMinutes(req.StartTime)
		if err != nil {
			return merged, false, failure.BadRequestFromString("startTime must be in HH:mm format") // nolint:wrapcheck
		}

		if startMin != current.StartTime {
			merged.StartTime = startMin
			windowChanged = true
		}
	}

	if req.EndTime != constant.Empty {
		endMin, err := interval.ToMinutes(req.EndTime)
		if err != nil {
			return merged, false, failure.BadRequestFromString("endTime must be in HH:mm format") // nolint:wrapcheck
		}

		if endMin != current.EndTime {
			merged.EndTime = endMin
			windowChanged = true
		}
	}

	if merged.EndTime <= merged.StartTime {
		return merged, false, failure.BadRequestFromString("endTime must be after startTime") // nolint:wrapcheck
	}

	return merged, windowChanged, nil
}

// afterMutation invalidates the booking caches and publishes the
// notification event. Both run detached so the response never waits on
// redis or kafka.
func (s *serviceImpl) afterMutation(ctx context.Context, action string, booking model.Booking) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetBooking, booking.ID)); err != nil {
			log.Error().Err(err).Msg("failed to delete booking cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllBooking)
		shared.InvalidateCaches(c, s.cache, cacheCountBooking)

		event := bookingEvent{
			Action:      action,
			BookingID:   booking.ID,
			RoomID:      booking.RoomID,
			RoomName:    booking.RoomName,
			ClientName:  booking.ClientName,
			ClientEmail: booking.ClientEmail,
			Date:        booking.BookingDate.Format(constant.CalendarFormat),
			StartTime:   interval.FormatMinutes(booking.StartTime),
			EndTime:     interval.FormatMinutes(booking.EndTime),
		}

		if err := s.kafka.SendMessages(c, s.cfg.Kafka.Topic.BookingEvents, kafka.Message{
			Key:   booking.ID,
			Value: event,
		}); err != nil {
			log.Error().Err(err).Msg("failed to publish booking event")
		}
	}()
}

// asConflict maps storage level double booking signals to a conflict
// failure: the exclusion constraint, the room name unique index and a
// serialization abort all mean another writer got there first.
func asConflict(err error) error {
	if failure.IsCode(err, http.StatusConflict) {
		return err
	}

	if shared.IsPqErrorCode(err, constant.PqErrorCodeUniqueViolation) ||
		shared.IsPqErrorCode(err, constant.PqErrorCodeExclusionViolation) ||
		shared.IsPqErrorCode(err, constant.PqErrorCodeSerializationFail) {
		return failure.Conflict("room is already booked for this time") // nolint:wrapcheck
	}

	return nil
}
