//go:build wireinject
// +build wireinject

package di

import (
	"sala/config"
	"sala/infras/kafka"
	"sala/infras/otel"
	"sala/infras/postgres"
	"sala/infras/redis"
	bookingHandler "sala/internal/handlers/booking"
	roomHandler "sala/internal/handlers/room"
	"sala/shared/cache"
	"sala/transport/http"
	"sala/transport/http/middleware"
	"sala/transport/http/router"

	bookingRepository "sala/internal/domains/booking/repository"
	bookingService "sala/internal/domains/booking/service"
	roomRepository "sala/internal/domains/room/repository"
	roomService "sala/internal/domains/room/service"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	wire.Bind(new(postgres.TxRunner), new(*postgres.Connection)),
	otel.New,
	redis.New,
	kafka.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var roomDomain = wire.NewSet(
	roomRepository.New,
	roomService.New,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	bookingService.New,
)

var domains = wire.NewSet(
	roomDomain,
	bookingDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	roomHandler.New,
	bookingHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}
