// README: API gateway; builds the gin engine and delegates to module services.
package http

import (
	"github.com/gin-gonic/gin"

	"tripchat/internal/logger"
	"tripchat/internal/modules/booking"
	"tripchat/internal/modules/dialog"
	"tripchat/internal/modules/trip"
)

type ServerDeps struct {
	Dialog   *dialog.Service
	Bookings *booking.Service
	Trips    *trip.Service
	Log      *logger.Logger
	// AdminToken guards administration routes; empty leaves them open.
	AdminToken string
}

type Server struct {
	dialog     *dialog.Service
	bookings   *booking.Service
	trips      *trip.Service
	log        *logger.Logger
	adminToken string
}

func NewServer(deps ServerDeps) *Server {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		dialog:     deps.Dialog,
		bookings:   deps.Bookings,
		trips:      deps.Trips,
		log:        log,
		adminToken: deps.AdminToken,
	}
}

// Routes returns the engine with every route registered.
func (s *Server) Routes() *gin.Engine {
	r := gin.New()
	registerRoutes(r, s)
	return r
}
