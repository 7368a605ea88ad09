package router

import (
	"net/http"

	"sala/internal/handlers/booking"
	"sala/internal/handlers/room"
	"sala/transport/http/response"

	"github.com/go-chi/chi/v5"
)

type DomainHandlers struct {
	Room    room.Handler
	Booking booking.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
}

func (r *Router) SetupRoutes(router chi.Router) {
	router.Route("/api", func(routerGroup chi.Router) {
		routerGroup.Get("/ping", Ping)

		r.DomainHandlers.Room.Router(routerGroup)
		r.DomainHandlers.Booking.Router(routerGroup)
	})
}

// Ping responds with pong so load balancers can probe liveness.
func Ping(w http.ResponseWriter, _ *http.Request) {
	response.WithMessage(w, http.StatusOK, "pong")
}

func New(domainHandlers DomainHandlers) Router {
	return Router{
		DomainHandlers: domainHandlers,
	}
}
