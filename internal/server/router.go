package server

import (
	"github.com/gorilla/mux"
)

type Router struct {
	handler *Handler
	router  *mux.Router
}

// NewRouter creates a router with the API routes.
func NewRouter(handler *Handler, router *mux.Router) *Router {
	return &Router{
		handler: handler,
		router:  router,
	}
}

func (r *Router) RegisterRoutes() {
	r.router.HandleFunc("/health", r.handler.Health).Methods("GET")

	r.router.HandleFunc("/api/state", r.handler.GetState).Methods("GET")
	r.router.HandleFunc("/api/next", r.handler.GetNext).Methods("GET")
	// expects {"latitude": float, "longitude": float, "city": optional string}
	r.router.HandleFunc("/api/location", r.handler.SetLocation).Methods("POST")
	r.router.HandleFunc("/api/location/current", r.handler.UseCurrentLocation).Methods("POST")
	r.router.HandleFunc("/api/refresh", r.handler.Refresh).Methods("POST")
}
