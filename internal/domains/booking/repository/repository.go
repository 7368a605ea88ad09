package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"
	"time"

	"sala/infras/otel"
	"sala/infras/postgres"
	"sala/internal/domains/booking/model"
	"sala/shared/constant"
	gDto "sala/shared/dto"
	"sala/shared/logger"
	gRepo "sala/shared/repository"

	"github.com/jmoiron/sqlx"
)

// Preparer is satisfied by both *sqlx.DB and *sqlx.Tx, letting the
// overlap check run inside or outside a transaction.
type Preparer interface {
	PrepareNamedContext(ctx context.Context, query string) (*sqlx.NamedStmt, error)
}

type Booking interface {
	Insert(ctx context.Context, model model.Booking) error
	InsertTx(ctx context.Context, sqltx *sqlx.Tx, model model.Booking) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Booking, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	UpdateTx(ctx context.Context, sqltx *sqlx.Tx, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
	DeleteTx(ctx context.Context, sqltx *sqlx.Tx, filter gDto.FilterGroup) error
	ExistsOverlap(ctx context.Context, preparer Preparer, roomID string, date time.Time, startMin, endMin int, excludeID string) (bool, error)
	ConflictingRoomIDs(ctx context.Context, date time.Time, startMin, endMin int) ([]string, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Booking]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Booking {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Booking](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// ExistsOverlap reports whether any booking of the room on the given
// date intersects the half open window [startMin, endMin). Bookings that
// merely touch at a boundary do not count. excludeID skips the booking
// being updated; pass the empty string on create.
func (r *repositoryImpl) ExistsOverlap(ctx context.Context, preparer Preparer, roomID string, date time.Time, startMin, endMin int, excludeID string) (bool, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".ExistsOverlap")
	defer scope.End()

	query := fmt.Sprintf(`SELECT EXISTS(
		SELECT 1 FROM %s
		WHERE room_id = :room_id
		AND booking_date = :booking_date
		AND start_time < :end_time
		AND end_time > :start_time
		AND (:exclude_id = '' OR id <> :exclude_id)
	)`, model.TableName)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	args := map[string]any{
		"room_id":      roomID,
		"booking_date": date,
		"start_time":   startMin,
		"end_time":     endMin,
		"exclude_id":   excludeID,
	}

	prepare, err := preparer.PrepareNamedContext(ctx, query)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return false, fmt.Errorf("failed to check booking overlap: %w", err)
	}
	defer prepare.Close()

	exist := false
	if err := prepare.GetContext(ctx, &exist, args); err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return false, fmt.Errorf("failed to check booking overlap: %w", err)
	}

	return exist, nil
}

// ConflictingRoomIDs returns the ids of every room that has at least one
// booking intersecting the window on the given date.
func (r *repositoryImpl) ConflictingRoomIDs(ctx context.Context, date time.Time, startMin, endMin int) ([]string, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".ConflictingRoomIDs")
	defer scope.End()

	query := fmt.Sprintf(`SELECT DISTINCT room_id FROM %s
		WHERE booking_date = :booking_date
		AND start_time < :end_time
		AND end_time > :start_time`, model.TableName)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	args := map[string]any{
		"booking_date": date,
		"start_time":   startMin,
		"end_time":     endMin,
	}

	prepare, err := r.db.Read.PrepareNamedContext(ctx, query)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return nil, fmt.Errorf("failed to get conflicting rooms: %w", err)
	}
	defer prepare.Close()

	roomIDs := []string{}
	if err := prepare.SelectContext(ctx, &roomIDs, args); err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return nil, fmt.Errorf("failed to get conflicting rooms: %w", err)
	}

	return roomIDs, nil
}
